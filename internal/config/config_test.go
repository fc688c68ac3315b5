package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_MissingPlatformConfigIsNotFatal(t *testing.T) {
	t.Setenv("PLATFORM_URL", "")
	t.Setenv("PLATFORM_ANON_KEY", "")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, cfg.PlatformURL)
	require.Equal(t, "localhost:8080", cfg.ListenAddr)
	require.Equal(t, "http://localhost:8080", cfg.ExternalURL)
	require.NotEmpty(t, cfg.DatabaseDSN)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("PLATFORM_URL", "https://acc.example.platform.co")
	t.Setenv("PLATFORM_ANON_KEY", "public-key")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/accounts")
	t.Setenv("LISTEN_ADDR", ":9090")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "https://acc.example.platform.co", cfg.PlatformURL)
	require.Equal(t, "public-key", cfg.PlatformAnonKey)
	require.Equal(t, "postgres://u:p@db:5432/accounts", cfg.DatabaseDSN)
	require.Equal(t, ":9090", cfg.ListenAddr)
}
