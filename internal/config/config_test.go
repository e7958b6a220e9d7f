package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, dotenv, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, dotenv)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.SessionStore)
	assert.Equal(t, defaultCities, cfg.Cities)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_SECRET", "")

	_, _, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("BACKEND_URL", "http://api.internal:5000/")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "yes")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:5000", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.OTLPInsecure)
}

func TestLoadConfigRejectsUnknownSessionStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_STORE", "memcached")

	_, _, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE")
}

func TestLoadConfigWizardFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "wizard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cities:\n  - Puebla\n  - \"  \"\n  - Mérida\n"), 0o600))

	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("WIZARD_FILE", path)

	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"Puebla", "Mérida"}, cfg.Cities)
}

func TestLoadConfigWizardFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("WIZARD_FILE", "does-not-exist.yaml")

	_, _, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=9191\n"), 0o600))
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Cleanup(func() { os.Unsetenv("HTTP_PORT") })

	cfg, dotenv, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, dotenv)
	assert.Equal(t, "9191", cfg.HTTPPort)
}
