package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultDialTimeout bounds the SSH handshake
const DefaultDialTimeout = 15 * time.Second

var errNoAuth = errors.New("no credentials, key file or password configured")

// clientConfig builds the SSH client configuration. A scy secret wins;
// otherwise key file and password auth are combined.
func clientConfig(ctx context.Context, cfg Config, logger *slog.Logger) (*ssh.ClientConfig, error) {
	if cfg.Credentials != "" {
		secrets := secret.New()
		generic, err := secrets.GetCredentials(ctx, cfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("credentials %s: %w", cfg.Credentials, err)
		}
		config, err := generic.SSH.Config(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.User != "" {
			config.User = cfg.User
		}
		return config, nil
	}

	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("key file %s: %w", cfg.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		password := cfg.Password
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if len(auth) == 0 {
		return nil, errNoAuth
	}

	hostKey, err := hostKeyCallback(cfg.KnownHosts, logger)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         DefaultDialTimeout,
	}, nil
}

func hostKeyCallback(knownHosts string, logger *slog.Logger) (ssh.HostKeyCallback, error) {
	if knownHosts == "" {
		logger.Warn("host key verification disabled, set known_hosts to enable it")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(knownHosts)
	if err != nil {
		return nil, fmt.Errorf("known hosts %s: %w", knownHosts, err)
	}
	return cb, nil
}
