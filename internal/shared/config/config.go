package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	AI         AIConfig         `mapstructure:"ai"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"` // sqlite file or DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the postgres connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPClientConfig holds outbound HTTP client configuration.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`
	KeepAlive           time.Duration `mapstructure:"keep_alive"`
	UserAgent           string        `mapstructure:"user_agent"`
}

// RateLimitConfig holds per-client request rate limiting.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// QuotaConfig holds free-tier quota configuration.
type QuotaConfig struct {
	// FreeLimit is the number of billable calls a user may make before upgrading.
	FreeLimit int64 `mapstructure:"free_limit"`
	// Backend selects the usage ledger: sql, redis or memory.
	Backend string `mapstructure:"backend"`
	// RedisKeyPrefix namespaces ledger keys when Backend is redis.
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`
	// ResetSchedule is an optional cron expression for billing-period resets.
	// Empty means usage is a lifetime counter.
	ResetSchedule string `mapstructure:"reset_schedule"`
}

// AIConfig holds upstream AI service configuration.
type AIConfig struct {
	Gemini           GeminiConfig   `mapstructure:"gemini"`
	RemoveBG         RemoveBGConfig `mapstructure:"removebg"`
	Image            ImageConfig    `mapstructure:"image"`
	FailureThreshold uint32         `mapstructure:"failure_threshold"`
	CircuitTimeout   time.Duration  `mapstructure:"circuit_timeout"`
	MaxUploadBytes   int64          `mapstructure:"max_upload_bytes"`
}

// GeminiConfig holds Gemini API configuration.
type GeminiConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RemoveBGConfig holds remove.bg API configuration.
type RemoveBGConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImageConfig holds image generation configuration.
type ImageConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	TokenExpiry    time.Duration `mapstructure:"token_expiry"`
	CookieMaxAge   time.Duration `mapstructure:"cookie_max_age"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	RequireSession bool          `mapstructure:"require_session"`
}

// StorageConfig holds object storage configuration for processed images.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PublicURL       string `mapstructure:"public_url"`
}

// Enabled reports whether an object store is configured.
func (c *StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// Load loads configuration from the default search paths and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the default search
// paths when path is empty.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/aidash")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("AIDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Sensitive values may come from dedicated variables.
	if secret := os.Getenv("AIDASH_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("AIDASH_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("AIDASH_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("AIDASH_GEMINI_API_KEY"); key != "" {
		cfg.AI.Gemini.APIKey = key
	}
	if key := os.Getenv("AIDASH_REMOVEBG_API_KEY"); key != "" {
		cfg.AI.RemoveBG.APIKey = key
	}
	if key := os.Getenv("AIDASH_STORAGE_SECRET_KEY"); key != "" {
		cfg.Storage.SecretAccessKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Quota.FreeLimit < 0 {
		return fmt.Errorf("quota.free_limit must be >= 0, got %d", c.Quota.FreeLimit)
	}
	switch c.Quota.Backend {
	case "sql", "redis", "memory":
	default:
		return fmt.Errorf("quota.backend must be one of sql, redis, memory, got %q", c.Quota.Backend)
	}
	if c.Quota.Backend == "redis" && c.Redis.Address == "" {
		return errors.New("quota.backend redis requires redis.address")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "aidash")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "aidash.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 60*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)
	v.SetDefault("http_client.user_agent", "aidash-server/1.0")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 60)
	v.SetDefault("rate_limit.window", time.Minute)

	// Quota defaults
	v.SetDefault("quota.free_limit", 5)
	v.SetDefault("quota.backend", "sql")
	v.SetDefault("quota.redis_key_prefix", "quota:usage:")
	v.SetDefault("quota.reset_schedule", "")

	// AI defaults
	v.SetDefault("ai.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.timeout", 60*time.Second)
	v.SetDefault("ai.removebg.base_url", "https://api.remove.bg/v1.0")
	v.SetDefault("ai.removebg.timeout", 30*time.Second)
	v.SetDefault("ai.image.base_url", "https://image.pollinations.ai/prompt/")
	v.SetDefault("ai.image.width", 512)
	v.SetDefault("ai.image.height", 512)
	v.SetDefault("ai.failure_threshold", 5)
	v.SetDefault("ai.circuit_timeout", 30*time.Second)
	v.SetDefault("ai.max_upload_bytes", 12<<20)

	// Auth defaults
	v.SetDefault("auth.issuer", "aidash")
	v.SetDefault("auth.token_expiry", time.Hour)
	v.SetDefault("auth.cookie_max_age", 24*time.Hour)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.require_session", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "aidash")
	v.SetDefault("metrics.path", "/metrics")
}
