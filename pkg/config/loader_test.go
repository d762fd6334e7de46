package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644))
	return dir
}

func TestInitialize_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Initialize(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 108, cfg.Shelter.TotalBeds)
	assert.Equal(t, 3*time.Hour, cfg.Shelter.HoldDuration)
	assert.Equal(t, 30*time.Second, cfg.Shelter.ExpirationTick)
	assert.Equal(t, 8, cfg.Shelter.AllocationRetryMax)
	assert.Equal(t, []string{"10:00", "13:00", "19:00"}, cfg.Chapel.TimeSlots)
	assert.True(t, cfg.Chapel.SlotAllowed("13:00"))
	assert.False(t, cfg.Chapel.SlotAllowed("11:30"))
	assert.NotEmpty(t, cfg.Keywords.Crisis["en"])
	assert.Equal(t, 256, cfg.Notifier.SubscriberQueueSize)
}

func TestInitialize_FileOverridesDefaults(t *testing.T) {
	dir := writeConfigFile(t, `
shelter:
  allocation_retry_max: 4
chapel:
  time_slots: ["09:00", "18:00"]
notifier:
  subscriber_queue_size: 64
`)

	cfg, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Shelter.AllocationRetryMax)
	assert.Equal(t, []string{"09:00", "18:00"}, cfg.Chapel.TimeSlots)
	assert.Equal(t, 64, cfg.Notifier.SubscriberQueueSize)

	// Fields the file leaves unset keep their defaults.
	assert.Equal(t, 108, cfg.Shelter.TotalBeds)
	assert.Equal(t, 3*time.Hour, cfg.Shelter.HoldDuration)
	assert.Equal(t, 1, cfg.Call.ToolRetryMax)
}

func TestInitialize_RejectsMalformedYAML(t *testing.T) {
	dir := writeConfigFile(t, "shelter: [not a map")

	_, err := Initialize(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestInitialize_RejectsWrongBedCount(t *testing.T) {
	dir := writeConfigFile(t, `
shelter:
  total_beds: 100
`)

	_, err := Initialize(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_beds must be 108")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "expiration tick above bound",
			mutate:  func(c *Config) { c.Shelter.ExpirationTick = 2 * time.Minute },
			wantErr: "expiration_tick",
		},
		{
			name:    "zero allocation retries",
			mutate:  func(c *Config) { c.Shelter.AllocationRetryMax = 0 },
			wantErr: "allocation_retry_max",
		},
		{
			name:    "malformed chapel slot",
			mutate:  func(c *Config) { c.Chapel.TimeSlots = []string{"7pm"} },
			wantErr: "invalid chapel time slot",
		},
		{
			name:    "missing english crisis keywords",
			mutate:  func(c *Config) { c.Keywords.Crisis = map[string][]string{} },
			wantErr: "crisis keywords",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
