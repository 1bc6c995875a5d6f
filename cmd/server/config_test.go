package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp(t.TempDir(), "config.*.yaml")
	require.NoError(t, err)

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	return tmpfile.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: testhost
  port: 9090

auth:
  signing_key: test-signing-key
  issuer: memberauth
  audience:
    - members
  access_token_ttl: 20m
  refresh_token_ttl: 72h
  reset_token_ttl: 15m

urls:
  activation: https://club.example.com
  frontend: https://app.example.com

persistence:
  driver: sqlite
  dsn: file:members.db

metrics:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "testhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "test-signing-key", cfg.GetSigningKey())
	assert.Equal(t, "memberauth", cfg.GetIssuer())
	assert.Equal(t, []string{"members"}, cfg.GetAudience())
	assert.Equal(t, 20*time.Minute, cfg.GetAccessTokenTTL())
	assert.Equal(t, 72*time.Hour, cfg.GetRefreshTokenTTL())
	assert.Equal(t, 15*time.Minute, cfg.GetResetTokenTTL())
	assert.Equal(t, "https://club.example.com", cfg.GetActivationURL())
	assert.Equal(t, "https://app.example.com", cfg.GetFrontendURL())
	assert.Equal(t, "file:members.db", cfg.Persistence.GetDSN())
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  signing_key: test-signing-key
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "HS256", cfg.GetSigningMethod())
	assert.Equal(t, "user", cfg.GetContextKey())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
	assert.Equal(t, 15*time.Minute, cfg.GetAccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.GetRefreshTokenTTL())
	assert.Equal(t, 30*time.Minute, cfg.GetResetTokenTTL())
	assert.Equal(t, "sqlite", cfg.Persistence.GetDriver())
	assert.Equal(t, "file::memory:?cache=shared", cfg.Persistence.GetDSN())
	assert.Equal(t, 5*time.Second, cfg.Persistence.GetPingTimeout())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "http://localhost:8080", cfg.GetActivationURL())
	assert.Equal(t, cfg.GetActivationURL(), cfg.GetFrontendURL())
	assert.Equal(t, 24*time.Hour, cfg.GetBroadcastInterval())
}

func TestBroadcastIntervalCanBeDisabled(t *testing.T) {
	path := writeConfig(t, `
auth:
  signing_key: test-signing-key
notifications:
  broadcast_interval: "0"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.GetBroadcastInterval())
}

func TestLoadConfigRequiresSigningKey(t *testing.T) {
	path := writeConfig(t, `
server:
  host: testhost
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	assert.Error(t, err)
}
