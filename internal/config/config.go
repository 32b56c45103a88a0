// Package config loads application configuration from YAML files and
// environment variables. Environment variables win; the FORKFEED_ prefix
// with underscores maps onto nested keys (FORKFEED_DATABASE_HOST ->
// database.host).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/forkfeed/forkfeed/pkg/auth"
	"github.com/forkfeed/forkfeed/pkg/cache"
	"github.com/forkfeed/forkfeed/pkg/clients/fatsecret"
	"github.com/forkfeed/forkfeed/pkg/clients/sendgrid"
	"github.com/forkfeed/forkfeed/pkg/embedding"
	"github.com/forkfeed/forkfeed/pkg/storage"
)

// Config is the root application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	API         APIConfig       `mapstructure:"api"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Embeddings  EmbeddingConfig `mapstructure:"embeddings"`

	Auth      auth.TokenManagerConfig `mapstructure:"auth"`
	Cache     cache.RedisConfig       `mapstructure:"cache"`
	FatSecret fatsecret.Config        `mapstructure:"fatsecret"`
	SendGrid  sendgrid.Config         `mapstructure:"sendgrid"`
	Storage   storage.S3Config        `mapstructure:"storage"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	ListenAddress  string        `mapstructure:"listen_address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// DSN builds the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// EmbeddingConfig selects and configures the embedding provider
type EmbeddingConfig struct {
	// Provider is "openai" or "static" (deterministic, for development)
	Provider  string                 `mapstructure:"provider"`
	StorePath string                 `mapstructure:"store_path"`
	OpenAI    embedding.OpenAIConfig `mapstructure:"openai"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional .env file, an optional YAML
// file pointed to by FORKFEED_CONFIG_FILE, and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; environments that need it have it
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FORKFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path := os.Getenv("FORKFEED_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Embeddings.Provider == "openai" && c.Embeddings.OpenAI.APIKey == "" {
		return fmt.Errorf("embeddings.openai.api_key is required for the openai provider")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.listen_address", ":8080")
	v.SetDefault("api.read_timeout", 30*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)
	v.SetDefault("api.idle_timeout", 90*time.Second)
	v.SetDefault("api.rate_limit_rps", 50)
	v.SetDefault("api.rate_limit_burst", 100)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "forkfeed")
	v.SetDefault("database.database", "forkfeed")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("embeddings.provider", "openai")
	v.SetDefault("embeddings.store_path", "data/embeddings")

	v.SetDefault("cache.address", "localhost:6379")

	v.SetDefault("logging.level", "info")
}
