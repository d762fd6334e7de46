// Package config loads and validates shelterline configuration.
// Built-in defaults are merged with an optional shelterline.yaml; secrets
// and the database DSN come from the environment.
package config

import "time"

// Config is the umbrella configuration object returned by Initialize()
// and used throughout the application.
type Config struct {
	configDir string

	Shelter  *ShelterConfig  `yaml:"shelter"`
	Call     *CallConfig     `yaml:"call"`
	Chapel   *ChapelConfig   `yaml:"chapel"`
	Keywords *KeywordConfig  `yaml:"keywords"`
	Notifier *NotifierConfig `yaml:"notifier"`
}

// ShelterConfig controls the bed inventory and reservation lifecycle.
type ShelterConfig struct {
	// TotalBeds is fixed at 108. Any other value fails validation:
	// the building has 108 beds and configuration cannot change that.
	TotalBeds int `yaml:"total_beds"`

	// HoldDuration is how long an active reservation holds its bed
	// before the sweeper reclaims it.
	HoldDuration time.Duration `yaml:"hold_duration"`

	// ExpirationTick is the sweep interval. Must be <= 60s so an
	// expired hold is reclaimed within the bounded lateness window.
	ExpirationTick time.Duration `yaml:"expiration_tick"`

	// AllocationRetryMax bounds CAS retries when concurrent callers
	// race for the same bed.
	AllocationRetryMax int `yaml:"allocation_retry_max"`
}

// CallConfig controls voice call sessions and tool invocations.
type CallConfig struct {
	// IdleSessionTimeout ends a session with no caller utterance.
	IdleSessionTimeout time.Duration `yaml:"idle_session_timeout"`

	// ToolCallDeadline bounds each tool invocation.
	ToolCallDeadline time.Duration `yaml:"tool_call_deadline"`

	// ToolRetryMax is how many times the session re-tries a timed-out
	// tool before degrading.
	ToolRetryMax int `yaml:"tool_retry_max"`
}

// ChapelConfig controls chapel service scheduling.
type ChapelConfig struct {
	// TimeSlots is the closed set of permitted start times (HH:MM).
	TimeSlots []string `yaml:"time_slots"`
}

// SlotAllowed reports whether t (HH:MM) is a configured start slot.
func (c *ChapelConfig) SlotAllowed(t string) bool {
	for _, slot := range c.TimeSlots {
		if slot == t {
			return true
		}
	}
	return false
}

// NotifierConfig controls dashboard event delivery.
type NotifierConfig struct {
	// SubscriberQueueSize bounds each subscriber's pending events.
	// A subscriber that falls behind loses events and must reconcile
	// with a snapshot on reconnect.
	SubscriberQueueSize int `yaml:"subscriber_queue_size"`

	// WriteTimeout bounds each WebSocket send.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
