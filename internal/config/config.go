// Package config loads engine settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the runtime knobs shared by the command-line tools.
type Config struct {
	// TickBudget is the number of predicate evaluations per refreshing pool
	// per tick.
	TickBudget int `env:"STORYDECK_TICK_BUDGET" envDefault:"5"`

	// DefaultPool is the pool used when a command names none.
	DefaultPool string `env:"STORYDECK_DEFAULT_POOL" envDefault:"default"`

	// DBPath is the SQLite file holding snapshots and the decision log.
	DBPath string `env:"STORYDECK_DB_PATH" envDefault:"storydeck.db"`

	// ContentPath is the Lua content script to load.
	ContentPath string `env:"STORYDECK_CONTENT_PATH" envDefault:"content.lua"`

	// Offload runs refresh work in a worker goroutine instead of inline.
	Offload bool `env:"STORYDECK_OFFLOAD" envDefault:"false"`
}

// FromEnv parses the environment into a Config.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TickBudget <= 0 {
		cfg.TickBudget = 5
	}
	if cfg.DefaultPool == "" {
		cfg.DefaultPool = "default"
	}
	return cfg, nil
}
