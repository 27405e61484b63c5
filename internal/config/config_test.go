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
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "admin@example.com", cfg.AdminIdentity)
	assert.Equal(t, 20*time.Second, cfg.Assistant.Timeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigin)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=qplan sslmode=disable", cfg.Database.DSN())
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ADMIN_IDENTITY", "root@qplan.dev")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "root@qplan.dev", cfg.AdminIdentity)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigin)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9191\nMONGO_DATABASE=qplan_test\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("MONGO_DATABASE")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Port)
	assert.Equal(t, "qplan_test", cfg.Mongo.Database)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.StoreBackend = "sqlite" }, true},
		{"empty admin", func(c *Config) { c.AdminIdentity = "" }, true},
		{"zero timeout", func(c *Config) { c.Assistant.Timeout = 0 }, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{StoreBackend: BackendMemory, AdminIdentity: "admin", Assistant: AssistantOptions{Timeout: time.Second}}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
