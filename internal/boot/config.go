package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env           string `env:"ENV,default=dev"`
	DataDir       string `env:"DATA_DIR"`
	UserID        string `env:"CLIENT_USER,default=local"`
	SessionSecret string `env:"SESSION_SECRET"`
	Server        struct {
		Port        string `env:"PORT,default=8080"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
	}
	Relay struct {
		URL string `env:"RELAY_URL,default=ws://muhu-voice-bd2fa0883b8b.herokuapp.com"`
		// Fixed-delay reconnect policy. MaxAttempts of zero means retry
		// forever.
		RetryInterval   time.Duration `env:"RELAY_RETRY_INTERVAL,default=5s"`
		MaxAttempts     int           `env:"RELAY_MAX_ATTEMPTS,default=0"`
		ResponseTimeout time.Duration `env:"RELAY_RESPONSE_TIMEOUT,default=30s"`
	}
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func (c *Config) DataDirectory() string {
	return c.DataDir
}
