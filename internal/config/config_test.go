package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aadidesign/SilentAlliance/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "memory", cfg.Cache.Driver)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, 168*time.Hour, cfg.RefreshTTL())
	require.Equal(t, 5*time.Minute, cfg.ChallengeTTL())
	require.Equal(t, 10*time.Minute, cfg.StateMaxAge())
}

func TestLoad_YAMLAndProviders(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
server:
  addr: ":9000"
jwt:
  access_ttl: 5m
providers:
  github:
    client_id: abc
    auth_url: https://github.com/login/oauth/authorize
    scopes: [read:user]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL())

	p, ok := cfg.Providers["github"]
	require.True(t, ok)
	require.Equal(t, "abc", p.ClientID)
	require.Equal(t, []string{"read:user"}, p.Scopes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("JWT_ISSUER", "otra-cosa")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, ":7777", cfg.Server.Addr)
	require.Equal(t, "otra-cosa", cfg.JWT.Issuer)
}

func TestLoad_PgRequiresDSN(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: pg
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
auth:
  challenge_ttl: cinco-minutos
`)
	_, err := config.Load(path)
	require.Error(t, err)
}
