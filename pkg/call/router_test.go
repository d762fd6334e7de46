package call

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/services"
	"github.com/bethesda-mission/shelterline/pkg/speech"
)

// newScriptedCall runs a full call through Manager.Run, playing the
// given utterances, and returns the bridge once the call has ended.
func newScriptedCall(t *testing.T, env *testEnv, utterances ...string) *speech.ScriptedBridge {
	t.Helper()
	bridge := speech.NewScriptedBridge("scripted-call")

	done := make(chan error, 1)
	go func() {
		done <- env.manager.Run(context.Background(), bridge)
	}()
	for _, u := range utterances {
		bridge.Push(u)
	}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("call did not end")
	}
	return bridge
}

func TestToolRouter_CheckAvailability(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.router.CheckAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 108, summary.Available)
	assert.Equal(t, 108, summary.Total)
}

func TestToolRouter_DomainErrorsPassThrough(t *testing.T) {
	env := newTestEnv(t)

	// Validation errors come back untouched, with no retry burned.
	_, err := env.router.ReserveBed(context.Background(), services.CreateReservationInput{})
	assert.True(t, services.IsValidationError(err))

	_, err = env.router.ScheduleChapel(context.Background(), services.ScheduleChapelInput{
		Date: "2026-09-05", Time: "10:00", GroupName: "G",
		ContactName: "C", ContactPhone: "555-0000",
	})
	assert.ErrorIs(t, err, services.ErrWeekendDisallowed)
}

func TestToolRouter_RetriesTimeoutOnce(t *testing.T) {
	r := &ToolRouter{deadline: 10 * time.Millisecond, retryMax: 1}

	calls := 0
	err := r.invoke(context.Background(), "slow_tool", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, ErrToolTimeout)
	assert.Equal(t, 2, calls)
}

func TestToolRouter_SecondAttemptCanSucceed(t *testing.T) {
	r := &ToolRouter{deadline: 10 * time.Millisecond, retryMax: 1}

	calls := 0
	err := r.invoke(context.Background(), "flaky_tool", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestToolRouter_ParentCancelStopsRetrying(t *testing.T) {
	r := &ToolRouter{deadline: 5 * time.Millisecond, retryMax: 3}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.invoke(ctx, "dead_call", func(ctx context.Context) error {
		calls++
		cancel()
		<-ctx.Done()
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, ErrToolTimeout)
	assert.Equal(t, 1, calls)
}
