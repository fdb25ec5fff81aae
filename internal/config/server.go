package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	SessionTTLMinutes      int `env:"SESSION_TTL_MINUTES" envDefault:"120"`
	JanitorIntervalSeconds int `env:"JANITOR_INTERVAL_SECONDS" envDefault:"60"`
	BotThrowDelayMS        int `env:"BOT_THROW_DELAY_MS" envDefault:"1500"`
	JoinWindowSeconds      int `env:"JOIN_WINDOW_SECONDS" envDefault:"60"`
	JoinMaxAttempts        int `env:"JOIN_MAX_ATTEMPTS" envDefault:"10"`
}

func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c ServerConfig) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}

func (c ServerConfig) BotThrowDelay() time.Duration {
	return time.Duration(c.BotThrowDelayMS) * time.Millisecond
}

func (c ServerConfig) JoinWindow() time.Duration {
	return time.Duration(c.JoinWindowSeconds) * time.Second
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
