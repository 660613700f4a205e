package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Driver != nil || cfg.Segment.Seed != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[store]
driver = "mongo"
mongo-uri = "mongodb://localhost:27017"
key-mode = "name"

[cache]
redis-addr = "localhost:6379"
ttl = "5m"

[segment]
seed = 7
restarts = 4
max-iter = 50

[weights]
scheme = "juz"
long = 2.5

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *cfg.Store.Driver != "mongo" || *cfg.Store.KeyMode != "name" || cfg.Store.Path != nil {
		t.Fatalf("unexpected store config %+v", cfg.Store)
	}
	if *cfg.Cache.RedisAddr != "localhost:6379" || *cfg.Cache.TTL != "5m" {
		t.Fatalf("unexpected cache config %+v", cfg.Cache)
	}
	if *cfg.Segment.Seed != 7 || *cfg.Segment.Restarts != 4 || *cfg.Segment.MaxIter != 50 {
		t.Fatalf("unexpected segment config %+v", cfg.Segment)
	}
	if *cfg.Weights.Scheme != "juz" || *cfg.Weights.Long != 2.5 || cfg.Weights.Short != nil {
		t.Fatalf("unexpected weights config %+v", cfg.Weights)
	}
	if *cfg.Log.Level != "debug" || *cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\ndirver = \"sqlite\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "dirver") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	driver := "sqlite"
	cfg := FileConfig{Store: StoreConfig{Driver: &driver}}
	env := map[string]string{
		EnvMongoURI:  "mongodb://db:27017",
		EnvRedisAddr: "redis:6379",
		EnvLogLevel:  "",
	}
	ApplyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if *cfg.Store.Driver != "sqlite" {
		t.Fatalf("expected driver to stay, got %q", *cfg.Store.Driver)
	}
	if cfg.Store.MongoURI == nil || *cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Fatalf("expected mongo uri from env, got %v", cfg.Store.MongoURI)
	}
	if cfg.Cache.RedisAddr == nil || *cfg.Cache.RedisAddr != "redis:6379" {
		t.Fatalf("expected redis addr from env, got %v", cfg.Cache.RedisAddr)
	}
	if cfg.Log.Level != nil {
		t.Fatalf("expected empty env value to be ignored")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HAFALAN_TEST_DOTENV=loaded\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("HAFALAN_TEST_DOTENV") })
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("HAFALAN_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("expected variable from .env, got %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "hafalan", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "hafalan", "hafalan.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", "json", &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("unexpected level %v", logger.GetLevel())
	}
	logger.WithField("period", "Minggu ke-1").Info("segmented")
	if !strings.Contains(buf.String(), `"period":"Minggu ke-1"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
	if _, err := NewLogger("loud", "text", &buf); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := NewLogger("info", "xml", &buf); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
