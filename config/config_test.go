package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "readbridge-progress", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "readbridge", cfg.Database.Name)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Std())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: readbridge-staging
  environment: staging
server:
  port: 9090
  read_timeout: 5s
database:
  host: db.internal
  name: readbridge_staging
redis:
  disabled: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "readbridge-staging", cfg.App.Name)
	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Database.Configured())
	assert.True(t, cfg.Redis.Disabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxIdleTime.Std())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_HOST", "env-db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-db", cfg.Database.Host)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_ProductionRequiresDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is required")
}

func TestValidate_UnknownEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "qa")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown environment")
}
