// ABOUTME: Tests for config loading: YAML parsing, env expansion, env-only fallback.
// ABOUTME: Uses t.Setenv and temp files.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
destination:
  name: "Ops"
email:
  to: "ops@example.com"
  api_key: "re_123"
  from: "bot@example.com"
session:
  restart_delay: 1s
  transient_retry_delay: 2s
  retry_delay: 3s
debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, ":9000", cfg.Server.Addr())
	assert.Equal(t, "Ops", cfg.Destination.Name)
	assert.Equal(t, "ops@example.com", cfg.Email.To)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 1*time.Second, cfg.Session.RestartDelay)
	assert.Equal(t, 2*time.Second, cfg.Session.TransientRetryDelay)
	assert.Equal(t, 3*time.Second, cfg.Session.RetryDelay)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_RELAY_KEY", "re_secret")
	path := writeConfig(t, `
server:
  port: "8000"
email:
  to: "ops@example.com"
  api_key: "${TEST_RELAY_KEY}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "re_secret", cfg.Email.APIKey)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("SERVER_PORT", "8123")
	t.Setenv("DESTINATION_CHAT_NAME", "Ops")
	t.Setenv("QR_EMAIL_TO", "ops@example.com")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("DATABASE_PATH", "/var/lib/relay/audit.db")
	t.Setenv("DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8123", cfg.Server.Port)
	assert.Equal(t, "Ops", cfg.Destination.Name)
	assert.Equal(t, "ops@example.com", cfg.Email.To)
	assert.Equal(t, "re_123", cfg.Email.APIKey)
	assert.Equal(t, "/var/lib/relay/audit.db", cfg.Database.Path)
	assert.True(t, cfg.Debug)
	// Hard defaults
	assert.Equal(t, "onboarding@resend.dev", cfg.Email.From)
	assert.Equal(t, 3*time.Second, cfg.Session.RestartDelay)
	assert.Equal(t, 5*time.Second, cfg.Session.TransientRetryDelay)
	assert.Equal(t, 10*time.Second, cfg.Session.RetryDelay)
}

func TestLoadDefaultPort(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestFileValuesWinOverEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	path := writeConfig(t, `
server:
  port: "9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestValidateEmailRequiresAPIKey(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8000"
email:
  to: "ops@example.com"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8000"
session:
  restart_delay: "soon"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restart_delay")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
