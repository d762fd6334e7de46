package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// configFileName is the optional override file inside the config directory.
const configFileName = "shelterline.yaml"

// Initialize loads, validates, and returns ready-to-use configuration.
// Missing shelterline.yaml is not an error: the defaults are complete.
func Initialize(configDir string) (*Config, error) {
	cfg := Defaults()
	cfg.configDir = configDir

	path := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		// File values win; defaults fill whatever the file leaves unset.
		if err := mergo.Merge(&fileCfg, cfg); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
		fileCfg.configDir = configDir
		cfg = &fileCfg
		slog.Info("Loaded configuration file", "path", path)
	case os.IsNotExist(err):
		slog.Info("No configuration file, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the system relies on.
// Violations here are fatal at startup.
func (c *Config) Validate() error {
	if c.Shelter.TotalBeds != 108 {
		return fmt.Errorf("total_beds must be 108, got %d", c.Shelter.TotalBeds)
	}
	if c.Shelter.HoldDuration <= 0 {
		return fmt.Errorf("hold_duration must be positive, got %v", c.Shelter.HoldDuration)
	}
	if c.Shelter.ExpirationTick <= 0 || c.Shelter.ExpirationTick > 60*time.Second {
		return fmt.Errorf("expiration_tick must be in (0, 60s], got %v", c.Shelter.ExpirationTick)
	}
	if c.Shelter.AllocationRetryMax < 1 {
		return fmt.Errorf("allocation_retry_max must be >= 1, got %d", c.Shelter.AllocationRetryMax)
	}
	if c.Call.IdleSessionTimeout <= 0 {
		return fmt.Errorf("idle_session_timeout must be positive, got %v", c.Call.IdleSessionTimeout)
	}
	if c.Call.ToolCallDeadline <= 0 {
		return fmt.Errorf("tool_call_deadline must be positive, got %v", c.Call.ToolCallDeadline)
	}
	if len(c.Chapel.TimeSlots) == 0 {
		return fmt.Errorf("chapel time_slots must not be empty")
	}
	for _, slot := range c.Chapel.TimeSlots {
		if _, err := time.Parse("15:04", slot); err != nil {
			return fmt.Errorf("invalid chapel time slot %q: %w", slot, err)
		}
	}
	if len(c.Keywords.Crisis["en"]) == 0 {
		return fmt.Errorf("crisis keywords must include an English list")
	}
	if c.Notifier.SubscriberQueueSize < 1 {
		return fmt.Errorf("subscriber_queue_size must be >= 1, got %d", c.Notifier.SubscriberQueueSize)
	}
	return nil
}
