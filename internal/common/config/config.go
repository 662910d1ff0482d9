// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Dedupe   DedupeConfig   `mapstructure:"dedupe"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the keep-alive, health and metrics listener.
type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

// Addr returns the listen address for the HTTP server.
func (h HTTPConfig) Addr() string {
	return ":" + h.Port
}

const (
	CatalogSourceCSV      = "csv"
	CatalogSourcePostgres = "postgres"
)

// CatalogConfig selects where product records come from.
type CatalogConfig struct {
	Source   string `mapstructure:"source"`
	Path     string `mapstructure:"path"`
	Watch    bool   `mapstructure:"watch"`
	Postgres struct {
		Query string `mapstructure:"query"`
	} `mapstructure:"postgres"`
}

// SessionConfig holds the messaging session settings.
type SessionConfig struct {
	Trigger        string             `mapstructure:"trigger"`
	ReconnectDelay int                `mapstructure:"reconnect_delay"` // milliseconds
	SendTimeout    int                `mapstructure:"send_timeout"`    // milliseconds
	DeviceName     string             `mapstructure:"device_name"`
	Store          SessionStoreConfig `mapstructure:"store"`
}

// SessionStoreConfig is where paired device credentials are persisted.
type SessionStoreConfig struct {
	Dialect string `mapstructure:"dialect"` // sqlite3 or postgres
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DedupeConfig controls inbound message de-duplication.
type DedupeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     int    `mapstructure:"ttl"` // milliseconds
	Prefix  string `mapstructure:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
