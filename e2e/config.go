package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR points at a running relay, e.g. "localhost:5000".
	// The scenario is skipped when unset.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// RELAY_WS_PATH is the WebSocket endpoint path.
	WSPath string `envconfig:"RELAY_WS_PATH" default:"/ws"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
