// Package remote provides the iws.Runner used by the command line tool:
// a shell session on the IBM i host, opened over SSH (or locally when the
// tool runs on the host itself) through github.com/viant/gosh.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"

	"github.com/axondata/go-iws"
)

// QshPath is the QShell interpreter the scripts expect to run under
const QshPath = "/QOpenSys/usr/bin/qsh"

// DefaultTimeout bounds a single command when Config.Timeout is not set.
// Creating or starting a server can take several minutes on a busy host.
const DefaultTimeout = 10 * time.Minute

var (
	// ErrUnsupportedMode is returned for any execution mode other than iws.ModeImmediate
	ErrUnsupportedMode = errors.New("remote: unsupported execution mode")

	// ErrTimeout is returned when a command outlives the session timeout.
	// Its exit status was never read, so the outcome is unknown.
	ErrTimeout = errors.New("remote: command timed out")

	// ErrSessionClosed is returned once the session was closed or
	// discarded after a timeout or transport failure
	ErrSessionClosed = errors.New("remote: session closed")
)

// session is the part of *gosh.Service the Runner uses
type session interface {
	Run(ctx context.Context, command string, options ...runner.Option) (string, int, error)
	Close() error
}

// Config describes how to reach the host
type Config struct {
	// URL is ssh://host[:port] or bash://localhost/ for a local shell
	URL string
	// User is the SSH user profile
	User string
	// Credentials names a scy secret resource holding SSH credentials.
	// When set it takes precedence over KeyFile and Password.
	Credentials string
	// KeyFile is a PEM private key for public key auth
	KeyFile string
	// Password is used for password and keyboard-interactive auth
	Password string
	// KnownHosts is an OpenSSH known_hosts file; empty disables host key checks
	KnownHosts string
	// Qsh runs every command through QShell
	Qsh bool
	// Timeout bounds a single command on the session; zero means DefaultTimeout
	Timeout time.Duration
	// Env is exported into the session before any command runs
	Env map[string]string
}

// Runner is an iws.Runner backed by one gosh shell session.
// A shell session is a single stream, so commands are serialized.
type Runner struct {
	service session
	qsh     bool
	timeout time.Duration
	logger  *slog.Logger
	mu      sync.Mutex
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger for session diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New opens a shell session described by cfg
func New(ctx context.Context, cfg Config, opts ...Option) (*Runner, error) {
	r := newRunner(cfg, opts...)

	var envOptions []runner.Option
	if len(cfg.Env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(cfg.Env))
	}

	if cfg.URL == "" {
		return nil, errors.New("remote: host URL is required")
	}
	host := url.Host(cfg.URL)

	var (
		service *gosh.Service
		err     error
	)
	if host == "localhost" {
		r.logger.Debug("opening local shell session")
		service, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, cerr := clientConfig(ctx, cfg, r.logger)
		if cerr != nil {
			return nil, fmt.Errorf("remote: ssh config: %w", cerr)
		}
		if !strings.Contains(host, ":") {
			host += ":22"
		}
		r.logger.Debug("opening ssh shell session", "host", host, "user", config.User)
		service, err = gosh.New(ctx, rssh.New(host, config, envOptions...))
	}
	if err != nil {
		return nil, fmt.Errorf("remote: open session %s: %w", cfg.URL, err)
	}
	r.service = service
	return r, nil
}

func newRunner(cfg Config, opts ...Option) *Runner {
	r := &Runner{
		qsh:     cfg.Qsh,
		timeout: cfg.Timeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command on the session. A non-zero status is reported in
// the Result. A command that outlives the timeout fails with ErrTimeout;
// the shell is then mid-command, so the session is discarded, as it is
// after any transport failure.
func (r *Runner) Run(ctx context.Context, command string, mode int) (iws.Result, error) {
	if mode != iws.ModeImmediate {
		return iws.Result{}, fmt.Errorf("%w: %d", ErrUnsupportedMode, mode)
	}

	if r.qsh {
		command = QshPath + " -c " + Quote(command)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.service == nil {
		return iws.Result{}, ErrSessionClosed
	}

	started := time.Now()
	stdout, status, err := r.service.Run(ctx, command, runner.WithTimeout(int(r.timeout.Milliseconds())))
	elapsed := time.Since(started)

	// gosh stops reading at the timeout without an error and reports 0
	if err == nil && elapsed >= r.timeout {
		r.logger.Warn("command timed out, discarding session", "elapsed", elapsed, "timeout", r.timeout)
		r.discard()
		return iws.Result{}, fmt.Errorf("%w after %s", ErrTimeout, elapsed.Round(time.Millisecond))
	}

	if status != 0 {
		if err != nil {
			r.logger.Debug("command exited with error", "status", status, "error", err)
		}
		return iws.Result{ExitCode: iws.Code(status), Stdout: stdout}, nil
	}
	if err != nil {
		r.logger.Debug("transport failure, discarding session", "error", err)
		r.discard()
		return iws.Result{}, err
	}
	return iws.Result{ExitCode: iws.Code(0), Stdout: stdout}, nil
}

// discard closes the session; the caller holds r.mu
func (r *Runner) discard() {
	if err := r.service.Close(); err != nil {
		r.logger.Debug("closing session", "error", err)
	}
	r.service = nil
}

// Close releases the session
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.service == nil {
		return nil
	}
	err := r.service.Close()
	r.service = nil
	return err
}

// Quote wraps s in single quotes for a POSIX shell, escaping embedded quotes
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
