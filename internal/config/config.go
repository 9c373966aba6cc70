package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig
	App        AppConfig
	RemoteDB   RemoteDBConfig
	LocalStore LocalStoreConfig
	Sync       SyncConfig
	Checkout   CheckoutConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"tillpoint-pos-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	StartOnline bool   `envconfig:"APP_START_ONLINE" default:"true"`
}

// RemoteDBConfig holds settings for the remote POS database.
type RemoteDBConfig struct {
	Type string `envconfig:"REMOTE_DB_TYPE" default:"sqlite"` // sqlite, mysql, or postgres
	Path string `envconfig:"REMOTE_DB_PATH" default:"./data/pos.db"`
	// MySQL settings
	Host     string `envconfig:"REMOTE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"REMOTE_DB_PORT" default:"3306"`
	Name     string `envconfig:"REMOTE_DB_NAME" default:"tillpoint"`
	User     string `envconfig:"REMOTE_DB_USER" default:"root"`
	Password string `envconfig:"REMOTE_DB_PASS" default:""`
	// PostgreSQL settings
	PostgresPort int    `envconfig:"REMOTE_DB_PG_PORT" default:"5432"`
	SSLMode      string `envconfig:"REMOTE_DB_SSLMODE" default:"disable"`
}

// LocalStoreConfig holds settings for the local persistent key-value store
// that backs the pending action queue and resource snapshots.
type LocalStoreConfig struct {
	Type string `envconfig:"LOCAL_STORE_TYPE" default:"file"` // file, memory, or redis
	Path string `envconfig:"LOCAL_STORE_PATH" default:"./data/tillpoint.json"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"tillpoint"`
}

// SyncConfig holds settings for draining the pending action queue.
type SyncConfig struct {
	MaxAttempts   int           `envconfig:"SYNC_MAX_ATTEMPTS" default:"3"`
	BaseBackoff   time.Duration `envconfig:"SYNC_BASE_BACKOFF" default:"250ms"`
	ActionTimeout time.Duration `envconfig:"SYNC_ACTION_TIMEOUT" default:"10s"`
	LogPath       string        `envconfig:"SYNC_LOG_PATH" default:"./data/synclog.db"`
	RetentionAge  time.Duration `envconfig:"SYNC_LOG_RETENTION" default:"720h"`
}

// CheckoutConfig holds checkout business settings.
type CheckoutConfig struct {
	TaxRate      float64 `envconfig:"CHECKOUT_TAX_RATE" default:"0.0875"`
	SeedDemoData bool    `envconfig:"CHECKOUT_SEED_DEMO_DATA" default:"false"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN returns the MySQL data source name.
func (r *RemoteDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		r.User, r.Password, r.Host, r.Port, r.Name)
}

// PostgresDSN returns the PostgreSQL connection string.
func (r *RemoteDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		r.User, r.Password, r.Host, r.PostgresPort, r.Name, r.SSLMode)
}

// RedisAddress returns the Redis address in host:port format.
func (l *LocalStoreConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", l.RedisHost, l.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}
