package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, "app:\n  name: stock-bot\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, ":3000", cfg.HTTP.Addr())
	assert.Equal(t, CatalogSourceCSV, cfg.Catalog.Source)
	assert.Equal(t, "./attached_assets/stok.csv", cfg.Catalog.Path)
	assert.Equal(t, "@stok", cfg.Session.Trigger)
	assert.Equal(t, 15*time.Second, GetDuration(cfg.Session.ReconnectDelay))
	assert.Equal(t, 10*time.Second, GetDuration(cfg.Session.SendTimeout))
	assert.Equal(t, "sqlite3", cfg.Session.Store.Dialect)
	assert.False(t, cfg.Dedupe.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_FileValuesAndEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STOK_CSV", "/data/stok.csv")
	path := writeConfig(t, `
catalog:
  path: ${STOK_CSV}
  watch: true
session:
  reconnect_delay: 5000
logging:
  level: debug
  format: json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.HTTP.Port)
	assert.Equal(t, "/data/stok.csv", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 5000, cfg.Session.ReconnectDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown catalog source",
			body:    "catalog:\n  source: excel\n",
			wantErr: "catalog.source",
		},
		{
			name:    "postgres source without host",
			body:    "catalog:\n  source: postgres\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "dedupe without redis",
			body:    "dedupe:\n  enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "bad store dialect",
			body:    "session:\n  store:\n    dialect: mysql\n",
			wantErr: "session.store.dialect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "gudang", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=gudang sslmode=disable", p.GetDSN())
}
