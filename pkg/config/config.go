package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the recognized simulation options. Durations are given
// in seconds in JSON, mirroring how the scenario files spell them.
type Config struct {
	StepSeconds             float64 `json:"step_seconds"`
	DecisionIntervalSeconds float64 `json:"decision_interval_seconds"`
	DecisionHorizonSeconds  float64 `json:"decision_horizon_seconds"`
	ForecastHorizonSeconds  float64 `json:"forecast_horizon_seconds"`
	SpeedMultiplier         float64 `json:"speed_multiplier"`
	Bias                    float64 `json:"bias"`
}

// Default returns the documented defaults: 1s step, 10m decision
// interval and horizon, 8h forecast horizon, real-time pacing, 0.5
// bias.
func Default() Config {
	return Config{
		StepSeconds:             1,
		DecisionIntervalSeconds: (10 * time.Minute).Seconds(),
		DecisionHorizonSeconds:  (10 * time.Minute).Seconds(),
		ForecastHorizonSeconds:  (8 * time.Hour).Seconds(),
		SpeedMultiplier:         1.0,
		Bias:                    0.5,
	}
}

// Load reads a JSON config file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fails fast on invalid options so nothing surfaces at
// runtime: every duration must be positive, the speed multiplier
// non-negative (0 means free-running).
func (c Config) Validate() error {
	if c.StepSeconds <= 0 {
		return fmt.Errorf("config: step must be > 0, got %v", c.StepSeconds)
	}
	if c.DecisionIntervalSeconds <= 0 {
		return fmt.Errorf("config: decision_interval must be > 0, got %v", c.DecisionIntervalSeconds)
	}
	if c.DecisionHorizonSeconds <= 0 {
		return fmt.Errorf("config: decision_horizon must be > 0, got %v", c.DecisionHorizonSeconds)
	}
	if c.ForecastHorizonSeconds <= 0 {
		return fmt.Errorf("config: forecast_horizon must be > 0, got %v", c.ForecastHorizonSeconds)
	}
	if c.SpeedMultiplier < 0 {
		return fmt.Errorf("config: speed_multiplier must be >= 0, got %v", c.SpeedMultiplier)
	}
	return nil
}

// Step is the clock advance per tick.
func (c Config) Step() time.Duration {
	return time.Duration(c.StepSeconds * float64(time.Second))
}

// DecisionInterval is the minimum gap between engine calls when no
// agent is idle.
func (c Config) DecisionInterval() time.Duration {
	return time.Duration(c.DecisionIntervalSeconds * float64(time.Second))
}

// DecisionHorizon is the engine's lookahead window.
func (c Config) DecisionHorizon() time.Duration {
	return time.Duration(c.DecisionHorizonSeconds * float64(time.Second))
}

// ForecastHorizon bounds forecast projections.
func (c Config) ForecastHorizon() time.Duration {
	return time.Duration(c.ForecastHorizonSeconds * float64(time.Second))
}
