package app

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Version of the service, logged at startup.
const Version = "0.3.1"

// Config holds process-level runtime configuration. Operator-tunable sync
// settings live in the settings store instead, so they can change without a
// restart.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	MySQLDSN string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/inventory?parseTime=true"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	EventRateLimit  int           `envconfig:"EVENT_RATE_LIMIT" default:"100"`
	EventRateWindow time.Duration `envconfig:"EVENT_RATE_WINDOW" default:"1m"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
