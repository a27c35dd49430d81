package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/axondata/go-iws"
	"github.com/axondata/go-iws/remote"
)

// DefaultEnvFile is loaded when present and no other env file is named
const DefaultEnvFile = ".env"

// Config describes the host connection and tool settings.
type Config struct {
	Host struct {
		URL         string        `yaml:"url"`
		User        string        `yaml:"user"`
		Credentials string        `yaml:"credentials"`
		KeyFile     string        `yaml:"key_file"`
		PasswordEnv string        `yaml:"password_env"`
		KnownHosts  string        `yaml:"known_hosts"`
		Qsh         bool          `yaml:"qsh"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"host"`
	IWS struct {
		InstallDir   string        `yaml:"install_dir"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Concurrency  int           `yaml:"concurrency"`
	} `yaml:"iws"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Trace struct {
		Enabled bool   `yaml:"enabled"`
		Output  string `yaml:"output"`
	} `yaml:"trace"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var cfg Config
	cfg.Host.PasswordEnv = "IWS_PASSWORD"
	cfg.Host.Qsh = true
	cfg.Host.Timeout = remote.DefaultTimeout
	cfg.IWS.InstallDir = iws.InstallDir
	cfg.IWS.PollInterval = iws.DefaultPollInterval
	cfg.IWS.Concurrency = iws.DefaultConcurrency
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads the YAML file at path over the defaults, then the env file,
// then IWS_* environment overrides. An empty path skips the YAML step; an
// empty envFile loads DefaultEnvFile only if it exists.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator.
		if err != nil {
			return cfg, err
		}
		if len(data) == 0 {
			return cfg, errors.New("config file is empty")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return cfg, fmt.Errorf("env file %s: %w", DefaultEnvFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("IWS_URL", &c.Host.URL)
	setString("IWS_USER", &c.Host.User)
	setString("IWS_CREDENTIALS", &c.Host.Credentials)
	setString("IWS_KEY_FILE", &c.Host.KeyFile)
	setString("IWS_KNOWN_HOSTS", &c.Host.KnownHosts)
	setString("IWS_INSTALL_DIR", &c.IWS.InstallDir)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("IWS_LOG_FORMAT", &c.Log.Format)

	if v, ok := os.LookupEnv("IWS_QSH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("IWS_QSH: %w", err)
		}
		c.Host.Qsh = b
	}
	for key, dst := range map[string]*time.Duration{
		"IWS_TIMEOUT":       &c.Host.Timeout,
		"IWS_POLL_INTERVAL": &c.IWS.PollInterval,
	} {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Password returns the SSH password from the configured environment variable
func (c Config) Password() string {
	if c.Host.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.Host.PasswordEnv)
}

// Validate checks the settings needed to open a session
func (c Config) Validate() error {
	if c.Host.URL == "" {
		return errors.New("host url is required (host.url or IWS_URL)")
	}
	if c.IWS.PollInterval < 0 {
		return errors.New("poll_interval must not be negative")
	}
	return nil
}

// Remote returns the session settings for the remote package
func (c Config) Remote() remote.Config {
	return remote.Config{
		URL:         c.Host.URL,
		User:        c.Host.User,
		Credentials: c.Host.Credentials,
		KeyFile:     c.Host.KeyFile,
		Password:    c.Password(),
		KnownHosts:  c.Host.KnownHosts,
		Qsh:         c.Host.Qsh,
		Timeout:     c.Host.Timeout,
	}
}
