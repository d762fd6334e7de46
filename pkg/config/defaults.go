package config

import "time"

// Defaults returns the built-in configuration. shelterline.yaml overrides
// individual fields; anything left unset keeps these values.
func Defaults() *Config {
	return &Config{
		Shelter: &ShelterConfig{
			TotalBeds:          108,
			HoldDuration:       3 * time.Hour,
			ExpirationTick:     30 * time.Second,
			AllocationRetryMax: 8,
		},
		Call: &CallConfig{
			IdleSessionTimeout: 20 * time.Second,
			ToolCallDeadline:   10 * time.Second,
			ToolRetryMax:       1,
		},
		Chapel: &ChapelConfig{
			TimeSlots: []string{"10:00", "13:00", "19:00"},
		},
		Keywords: DefaultKeywords(),
		Notifier: &NotifierConfig{
			SubscriberQueueSize: 256,
			WriteTimeout:        10 * time.Second,
		},
	}
}
