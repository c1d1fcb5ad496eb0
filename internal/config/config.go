package config

import (
	"os"
	"strconv"

	commoncfg "github.com/rxnen/eldersafe/common/config"
)

// 存储后端
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config eldersafe（HTTP API）配置
type Config struct {
	ServiceName string
	HTTP        struct {
		Addr string
	}
	Storage struct {
		Backend   string
		KeyPrefix string // 如 "eldersafe:household:1:"，用于多家庭共用一个存储
	}
	Database commoncfg.DatabaseConfig
	Redis    commoncfg.RedisConfig
	Catalog  struct {
		Path string // 为空时使用内置目录
	}
	TimelineLimit int
	Log           struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.ServiceName = getEnv("SERVICE_NAME", "eldersafe")
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", BackendRedis)
	cfg.Storage.KeyPrefix = getEnv("STORAGE_KEY_PREFIX", "")

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "eldersafe",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Catalog.Path = getEnv("CATALOG_PATH", "")
	cfg.TimelineLimit = parseInt(getEnv("TIMELINE_LIMIT", "20"), 20)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
