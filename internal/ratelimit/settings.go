package ratelimit

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings maps the RATE_LIMIT_* environment block. Durations are in
// seconds, matching the host gateway's convention.
type Settings struct {
	Enabled       bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	Points        int  `envconfig:"RATE_LIMIT_POINTS" default:"100"`
	Duration      int  `envconfig:"RATE_LIMIT_DURATION" default:"60"`
	BlockDuration int  `envconfig:"RATE_LIMIT_BLOCK_DURATION" default:"60"`
}

// LoadSettings reads the RATE_LIMIT_* environment variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if errProcess := envconfig.Process("", &s); errProcess != nil {
		return Settings{}, fmt.Errorf("ratelimit: process env: %w", errProcess)
	}
	return s, nil
}

// Config converts the settings into a runtime Config, clamping
// nonsensical values back to their defaults.
func (s Settings) Config() Config {
	cfg := Config{
		Enabled:       s.Enabled,
		Points:        s.Points,
		Duration:      time.Duration(s.Duration) * time.Second,
		BlockDuration: time.Duration(s.BlockDuration) * time.Second,
	}
	if cfg.Points <= 0 {
		cfg.Points = 100
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 60 * time.Second
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = 60 * time.Second
	}
	return cfg
}
