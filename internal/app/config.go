package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Env       string `envconfig:"APP_ENV" default:"development"`
	Addr      string `envconfig:"APP_ADDR" default:":8080"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	PostgresDSN string `envconfig:"PG_DSN" required:"true"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	CSRFSecret    string        `envconfig:"CSRF_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	UploadDir string        `envconfig:"UPLOAD_DIR" default:"./uploads"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"240"`
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
