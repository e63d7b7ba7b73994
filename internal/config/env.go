package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds settings read from the environment. Command-line flags take
// precedence when set.
type Env struct {
	DataDir   string `env:"STOCKFLOW_DATA_DIR" envDefault:".stockflow"`
	LogLevel  string `env:"STOCKFLOW_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"STOCKFLOW_LOG_FORMAT" envDefault:"text"`

	// MetricsFile, when set, receives run counters in Prometheus text format.
	MetricsFile string `env:"STOCKFLOW_METRICS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
