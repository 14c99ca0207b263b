package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv         string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`      // e.g., debug, info, warn, error
	HttpServer     ServerConfig
	GrpcServer     GrpcServerConfig
	Postgres       PostgresConfig
	Redis          RedisConfig
	Catalog        CatalogConfig
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
	RunMigrations  bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host         string `envconfig:"POSTGRES_HOST" required:"true"`
	Port         string `envconfig:"POSTGRES_PORT" default:"5432"`
	User         string `envconfig:"POSTGRES_USER" required:"true"`
	Password     string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName       string `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode      string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// RedisConfig holds the optional facet cache connection. An empty URL
// disables Redis; facets then use the in-process cache.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

// CatalogConfig tunes browse requests.
type CatalogConfig struct {
	PageSize      int           `envconfig:"CATALOG_PAGE_SIZE" default:"24"`
	FacetTimeout  time.Duration `envconfig:"CATALOG_FACET_TIMEOUT" default:"750ms"`
	FacetCacheTTL time.Duration `envconfig:"CATALOG_FACET_CACHE_TTL" default:"0s"` // 0 disables caching
	QueryTimeout  time.Duration `envconfig:"CATALOG_QUERY_TIMEOUT" default:"10s"`
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if cfg.Catalog.PageSize < 1 {
		return nil, fmt.Errorf("invalid CATALOG_PAGE_SIZE: %d", cfg.Catalog.PageSize)
	}
	return &cfg, nil
}
