// Package config holds the service configuration and the reproducibility
// manifest attached to every simulation run. The engine itself never reads
// the environment; only the server and tools load config here.
package config

import (
	"os"
	"strconv"
	"strings"
)

type ServerConfig struct {
	HTTPPort int
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Table    string
	User     string
	Password string
}

type SimDefaults struct {
	InitialCapital       string
	ProcessOrdersOnClose bool
}

type Config struct {
	Environment string
	Server      ServerConfig
	ClickHouse  ClickHouseConfig
	Sim         SimDefaults
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// Load builds the configuration from defaults with environment overrides.
func Load() (*Config, error) {
	return &Config{
		Environment: env("SIM_ENV", "dev"),
		Server: ServerConfig{
			HTTPPort: envInt("HTTP_PORT", 8080),
		},
		ClickHouse: ClickHouseConfig{
			Addr:     env("CH_ADDR", "localhost:9000"),
			Database: env("CH_DATABASE", "backtest"),
			Table:    env("CH_TABLE", "data"),
			User:     env("CH_USER", "backtest"),
			Password: env("CH_PASSWORD", ""),
		},
		Sim: SimDefaults{
			InitialCapital:       env("SIM_INITIAL_CAPITAL", "1000"),
			ProcessOrdersOnClose: envBool("SIM_PROCESS_ON_CLOSE", true),
		},
	}, nil
}
