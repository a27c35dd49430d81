package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axondata/go-iws"
	"github.com/axondata/go-iws/remote"
)

// clearEnv makes the IWS_* overrides deterministic for one test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"IWS_URL", "IWS_USER", "IWS_CREDENTIALS", "IWS_KEY_FILE", "IWS_KNOWN_HOSTS",
		"IWS_INSTALL_DIR", "LOG_LEVEL", "IWS_LOG_FORMAT", "IWS_QSH", "IWS_TIMEOUT",
		"IWS_POLL_INTERVAL", "IWS_PASSWORD",
	} {
		if v, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, iws.InstallDir, cfg.IWS.InstallDir)
	assert.Equal(t, iws.DefaultPollInterval, cfg.IWS.PollInterval)
	assert.True(t, cfg.Host.Qsh)
	assert.Equal(t, remote.DefaultTimeout, cfg.Host.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Error(t, cfg.Validate(), "default config has no host")
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "iws.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host:
  url: ssh://ibmi.example.com:2222
  user: DEVUSER
  timeout: 30s
iws:
  poll_interval: 2s
  concurrency: 8
log:
  level: debug
`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "ssh://ibmi.example.com:2222", cfg.Host.URL)
	assert.Equal(t, "DEVUSER", cfg.Host.User)
	assert.Equal(t, 30*time.Second, cfg.Host.Timeout)
	assert.Equal(t, 2*time.Second, cfg.IWS.PollInterval)
	assert.Equal(t, 8, cfg.IWS.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.True(t, cfg.Host.Qsh)
	assert.Equal(t, iws.InstallDir, cfg.IWS.InstallDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Load(empty, "")
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("host: [\n"), 0o644))
	_, err = Load(bad, "")
	assert.Error(t, err)

	_, err = Load("", filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("IWS_URL", "ssh://override")
	t.Setenv("IWS_QSH", "false")
	t.Setenv("IWS_POLL_INTERVAL", "250ms")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "ssh://override", cfg.Host.URL)
	assert.False(t, cfg.Host.Qsh)
	assert.Equal(t, 250*time.Millisecond, cfg.IWS.PollInterval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("IWS_TIMEOUT", "soon")
	_, err := Load("", "")
	assert.ErrorContains(t, err, "IWS_TIMEOUT")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("IWS_URL=ssh://from-env-file\nIWS_USER=ENVUSER\nIWS_PASSWORD=s3cret\n"), 0o600))

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "ssh://from-env-file", cfg.Host.URL)
	assert.Equal(t, "ENVUSER", cfg.Host.User)

	rc := cfg.Remote()
	assert.Equal(t, "s3cret", rc.Password)
	assert.Equal(t, "ENVUSER", rc.User)
	assert.True(t, rc.Qsh)
}

func TestValidateRejectsNegativeInterval(t *testing.T) {
	cfg := Default()
	cfg.Host.URL = "ssh://h"
	cfg.IWS.PollInterval = -time.Second
	assert.Error(t, cfg.Validate())
}
