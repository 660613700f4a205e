package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvStoreDriver   = "HAFALAN_STORE_DRIVER"
	EnvDBPath        = "HAFALAN_DB_PATH"
	EnvMongoURI      = "HAFALAN_MONGO_URI"
	EnvMongoDatabase = "HAFALAN_MONGO_DATABASE"
	EnvKeyMode       = "HAFALAN_KEY_MODE"
	EnvRedisAddr     = "HAFALAN_REDIS_ADDR"
	EnvCacheTTL      = "HAFALAN_CACHE_TTL"
	EnvLogLevel      = "HAFALAN_LOG_LEVEL"
	EnvLogFormat     = "HAFALAN_LOG_FORMAT"
)

// LoadDotEnv loads variables from a .env file if it exists. Variables already
// present in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the HAFALAN_* variables found by lookup.
func ApplyEnv(cfg *FileConfig, lookup func(string) (string, bool)) {
	for name, target := range map[string]**string{
		EnvStoreDriver:   &cfg.Store.Driver,
		EnvDBPath:        &cfg.Store.Path,
		EnvMongoURI:      &cfg.Store.MongoURI,
		EnvMongoDatabase: &cfg.Store.MongoDatabase,
		EnvKeyMode:       &cfg.Store.KeyMode,
		EnvRedisAddr:     &cfg.Cache.RedisAddr,
		EnvCacheTTL:      &cfg.Cache.TTL,
		EnvLogLevel:      &cfg.Log.Level,
		EnvLogFormat:     &cfg.Log.Format,
	} {
		if v, ok := lookup(name); ok && v != "" {
			value := v
			*target = &value
		}
	}
}
