// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Segment SegmentConfig `toml:"segment"`
	Weights WeightsConfig `toml:"weights"`
	Log     LogConfig     `toml:"log"`
}

// StoreConfig maps record store settings.
type StoreConfig struct {
	Driver        *string `toml:"driver"`
	Path          *string `toml:"path"`
	MongoURI      *string `toml:"mongo-uri"`
	MongoDatabase *string `toml:"mongo-database"`
	KeyMode       *string `toml:"key-mode"`
}

// CacheConfig maps segmentation cache settings.
type CacheConfig struct {
	RedisAddr *string `toml:"redis-addr"`
	TTL       *string `toml:"ttl"`
}

// SegmentConfig maps k-means settings.
type SegmentConfig struct {
	Seed     *int64 `toml:"seed"`
	Restarts *int   `toml:"restarts"`
	MaxIter  *int   `toml:"max-iter"`
}

// WeightsConfig maps the difficulty weight table.
type WeightsConfig struct {
	Scheme *string  `toml:"scheme"`
	Short  *float64 `toml:"short"`
	Medium *float64 `toml:"medium"`
	Long   *float64 `toml:"long"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
