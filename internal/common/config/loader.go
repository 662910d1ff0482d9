// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, overlays config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	prepare(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	prepare(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func prepare(v *viper.Viper) {
	// CATALOG_PATH overrides catalog.path and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	applyDefaults(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromEnv applies the short env names operators already use.
func overrideFromEnv(cfg *Config) {
	// PORT wins over http.port, matching common PaaS keep-alive setups
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Port = val
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDR"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
}

// applyDefaults registers default values so env overrides resolve for every key.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stock-bot")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", "3000")

	v.SetDefault("catalog.source", CatalogSourceCSV)
	v.SetDefault("catalog.path", "./attached_assets/stok.csv")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.postgres.query",
		"SELECT kode_barang, nama_barang, stok, satuan, lokasi, last_update FROM stok ORDER BY kode_barang")

	v.SetDefault("session.trigger", "@stok")
	v.SetDefault("session.reconnect_delay", 15000)
	v.SetDefault("session.send_timeout", 10000)
	v.SetDefault("session.device_name", "StokBot")
	v.SetDefault("session.store.dialect", "sqlite3")
	v.SetDefault("session.store.address", "file:auth/session.db?_foreign_keys=on")

	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.max_connections", 10)
	v.SetDefault("database.postgres.max_idle", 2)
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("dedupe.enabled", false)
	v.SetDefault("dedupe.ttl", 24*60*60*1000)
	v.SetDefault("dedupe.prefix", "stokbot:msg:")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.HTTP.Port == "" {
		return fmt.Errorf("http.port is required")
	}

	switch cfg.Catalog.Source {
	case CatalogSourceCSV:
		if cfg.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for csv source")
		}
	case CatalogSourcePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required for postgres catalog source")
		}
		if cfg.Catalog.Postgres.Query == "" {
			return fmt.Errorf("catalog.postgres.query is required for postgres catalog source")
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q, got %q", CatalogSourceCSV, CatalogSourcePostgres, cfg.Catalog.Source)
	}

	if strings.TrimSpace(cfg.Session.Trigger) == "" {
		return fmt.Errorf("session.trigger is required")
	}
	if cfg.Session.ReconnectDelay <= 0 {
		return fmt.Errorf("session.reconnect_delay must be positive")
	}

	switch cfg.Session.Store.Dialect {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("session.store.dialect must be sqlite3 or postgres, got %q", cfg.Session.Store.Dialect)
	}

	if cfg.Dedupe.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when dedupe is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
