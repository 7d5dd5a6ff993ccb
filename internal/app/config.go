package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	ContentCacheTTL time.Duration `envconfig:"CONTENT_CACHE_TTL" default:"5m"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	AuthTokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`

	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"30"`

	SecurityLogCapacity int           `envconfig:"SECURITY_LOG_CAPACITY" default:"1000"`
	SweepInterval       time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	UploadMaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`

	AdminEmail        string `envconfig:"ADMIN_EMAIL" default:"admin@beatrix.media"`
	AdminPassword     string `envconfig:"ADMIN_PASSWORD"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if cfg.IsProduction() && cfg.AdminPasswordHash == "" {
		return nil, errors.New("admin password hash must be provided in production")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
