package config

import "github.com/caarlos0/env/v11"

// DemoConfig drives cmd/demo-scorer, the websocket smoke client.
type DemoConfig struct {
	WSURL        string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	PairCode     string `env:"PAIR_CODE"`
	ThrowDelayMS int    `env:"THROW_DELAY_MS" envDefault:"800"`
	PlayerName   string `env:"PLAYER_NAME" envDefault:"Demo Scorer"`
}

func LoadDemo() (DemoConfig, error) {
	var cfg DemoConfig
	err := env.Parse(&cfg)
	return cfg, err
}
