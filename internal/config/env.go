package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load builds the config from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	// the heartbeat ticker fires at half this interval
	if cfg.Redis.HeartbeatTTL < time.Second {
		return nil, fmt.Errorf("PRESENCE_HEARTBEAT_TTL %s is below the 1s minimum", cfg.Redis.HeartbeatTTL)
	}
	return &cfg, nil
}
