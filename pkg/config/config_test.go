package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1000, cfg.RateLimit.RequestsPerHour)
	assert.True(t, cfg.RateLimit.EnableSlidingWindow)
	assert.Contains(t, cfg.Auth.UnprotectedRoutes, "/health")
	assert.True(t, cfg.Security.EnableHSTS)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
server:
  port: 9191
rate_limit:
  requests_per_minute: 5
  enable_sliding_window: false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.RateLimit.EnableSlidingWindow)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1000, cfg.RateLimit.RequestsPerHour)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o644))

	t.Setenv("APIFORGE_SERVER__PORT", "7070")
	t.Setenv("APIFORGE_AUTH__JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}
