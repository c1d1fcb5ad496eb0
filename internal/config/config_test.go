package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVICE_NAME", "HTTP_ADDR", "STORAGE_BACKEND", "STORAGE_KEY_PREFIX",
		"DB_HOST", "DB_PORT", "REDIS_ADDR", "REDIS_DB", "CATALOG_PATH", "TIMELINE_LIMIT",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "eldersafe", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.KeyPrefix)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, 20, cfg.TimelineLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("STORAGE_BACKEND", BackendPostgres)
	t.Setenv("STORAGE_KEY_PREFIX", "eldersafe:household:3:")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "homes")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CATALOG_PATH", "/etc/eldersafe/catalog.yaml")
	t.Setenv("TIMELINE_LIMIT", "50")
	t.Setenv("LOG_FORMAT", "console")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "eldersafe:household:3:", cfg.Storage.KeyPrefix)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "homes", cfg.Database.Database)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "/etc/eldersafe/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, 50, cfg.TimelineLimit)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_BadTimelineLimit(t *testing.T) {
	t.Setenv("TIMELINE_LIMIT", "many")
	assert.Equal(t, 20, Load().TimelineLimit)
}
