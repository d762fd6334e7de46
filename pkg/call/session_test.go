package call

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/intent"
	"github.com/bethesda-mission/shelterline/pkg/services"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

type testEnv struct {
	store        *store.MemoryStore
	reservations *services.ReservationService
	chapel       *services.ChapelService
	volunteers   *services.VolunteerService
	router       *ToolRouter
	manager      *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	st := store.NewMemoryStore()

	reservations := services.NewReservationService(st, cfg.Shelter, nil)
	require.NoError(t, reservations.EnsureBeds(context.Background()))
	chapel := services.NewChapelService(st, cfg.Chapel)
	volunteers := services.NewVolunteerService(st)

	router := NewToolRouter(reservations, chapel, volunteers, cfg.Call)
	classifier := intent.NewClassifier(cfg.Keywords)
	return &testEnv{
		store:        st,
		reservations: reservations,
		chapel:       chapel,
		volunteers:   volunteers,
		router:       router,
		manager:      NewManager(router, classifier, cfg.Call),
	}
}

func (e *testEnv) newSession(t *testing.T) *Session {
	t.Helper()
	session, greeting := e.manager.StartSession("", "")
	require.NotEmpty(t, session.Token)
	require.Contains(t, greeting.Text, "Bethesda Mission")
	return session
}

func say(t *testing.T, s *Session, text string) string {
	t.Helper()
	return s.HandleUtterance(context.Background(), text).Text
}

func TestSession_BedFlowHappyPath(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	reply := say(t, s, "Hi, do you have a bed for tonight?")
	assert.Contains(t, reply, "108 beds available")
	assert.Equal(t, StateGather, s.CurrentState())

	say(t, s, "My name is James Carter")
	say(t, s, "I lost my apartment last week")
	reply = say(t, s, "A shower would be great")
	assert.Contains(t, reply, "James Carter")
	assert.Equal(t, StateConfirm, s.CurrentState())

	reply = say(t, s, "Yes, please")
	assert.Contains(t, reply, "Bed number 1")
	assert.Contains(t, reply, "BM-")

	r := s.Reservation()
	require.NotNil(t, r)
	assert.Equal(t, 1, r.BedID)
	assert.Equal(t, "James Carter", r.CallerName)

	summary, err := env.reservations.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 107, summary.Available)
	assert.Equal(t, 1, summary.Held)

	// Farewell ends the call.
	final := s.HandleUtterance(context.Background(), "That's all, goodbye")
	assert.True(t, final.EndCall)
}

func TestSession_ReservesAtMostOnce(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	say(t, s, "I need a bed")
	say(t, s, "Tom")
	say(t, s, "Sleeping in my car")
	say(t, s, "none")
	first := say(t, s, "yes")
	assert.Contains(t, first, "Bed number 1")
	code := s.Reservation().Code

	// A repeated confirmation and a repeated bed request both replay the
	// existing reservation instead of placing a second hold.
	say(t, s, "yes")
	again := say(t, s, "Actually, can I reserve a bed?")
	assert.Contains(t, again, code)

	summary, err := env.reservations.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Held)

	active, err := env.reservations.ActiveReservations(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSession_CrisisPreemptsEveryState(t *testing.T) {
	env := newTestEnv(t)

	// Mid-slot-filling, a crisis phrase takes over immediately.
	s := env.newSession(t)
	say(t, s, "I need a bed")
	say(t, s, "Maria")
	reply := s.HandleUtterance(context.Background(), "Quiero matarme")
	assert.Contains(t, reply.Text, "988")
	assert.Equal(t, "es", reply.Language)
	assert.False(t, reply.EndCall)
	assert.Equal(t, StateCrisis, s.CurrentState())

	// The next utterance closes the call gently.
	final := s.HandleUtterance(context.Background(), "okay, thank you")
	assert.True(t, final.EndCall)

	// No reservation came out of the interrupted flow.
	assert.Nil(t, s.Reservation())
}

func TestSession_HomelessnessIsNotCrisis(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	reply := say(t, s, "I'm desperate, I have nowhere to sleep tonight")
	assert.NotContains(t, reply, "988")
	assert.Contains(t, reply, "beds available")
	assert.Equal(t, StateGather, s.CurrentState())
}

func TestSession_LanguageSticksFromFirstUtterance(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	reply := s.HandleUtterance(context.Background(), "Hola, necesito una cama por favor")
	assert.Equal(t, "es", reply.Language)
	assert.Equal(t, "es", s.Language())

	// Later short answers do not flip the language back.
	reply = s.HandleUtterance(context.Background(), "Miguel")
	assert.Equal(t, "es", reply.Language)
}

func TestSession_NoCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for bed := 1; bed <= 108; bed++ {
		_, err := env.reservations.HoldBed(ctx, bed)
		require.NoError(t, err)
	}

	s := env.newSession(t)
	reply := say(t, s, "Do you have a bed?")
	assert.Contains(t, reply, "211")
	assert.Equal(t, StateClassify, s.CurrentState())
	assert.Nil(t, s.Reservation())
}

func TestSession_ChapelFlow(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	say(t, s, "Our church would like to lead a chapel service")
	say(t, s, "2026-09-02")
	say(t, s, "10:00")
	say(t, s, "Grace Fellowship")
	reply := say(t, s, "Pastor Dan, 555-0142")
	assert.Contains(t, reply, "Grace Fellowship")
	assert.Equal(t, StateConfirm, s.CurrentState())

	reply = say(t, s, "yes")
	assert.Contains(t, reply, "2026-09-02")

	list, err := env.chapel.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Grace Fellowship", list[0].GroupName)
	assert.Equal(t, "Pastor Dan", list[0].ContactName)
	assert.Equal(t, "555-0142", list[0].ContactPhone)
}

func TestSession_ChapelWeekendReasksDate(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	say(t, s, "We want to preach at your chapel")
	say(t, s, "2026-09-05") // Saturday
	say(t, s, "10:00")
	say(t, s, "First Baptist")
	say(t, s, "Sue, 555-0100")
	reply := say(t, s, "yes")
	assert.Contains(t, reply, "weekday")
	assert.Equal(t, StateGather, s.CurrentState())

	// Supplying a weekday date completes the booking.
	say(t, s, "2026-09-07")
	reply = say(t, s, "yes")
	assert.Contains(t, reply, "2026-09-07")

	list, err := env.chapel.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSession_ChapelSlotTakenReasksTime(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.chapel.Schedule(context.Background(), services.ScheduleChapelInput{
		Date: "2026-09-02", Time: "10:00", GroupName: "Early Birds",
		ContactName: "Al", ContactPhone: "555-0001",
	})
	require.NoError(t, err)

	s := env.newSession(t)
	say(t, s, "chapel service please")
	say(t, s, "2026-09-02")
	say(t, s, "10 in the morning")
	say(t, s, "Second Church")
	say(t, s, "Bo, 555-0002")
	reply := say(t, s, "yes")
	assert.Contains(t, reply, "already taken")

	say(t, s, "13:00")
	reply = say(t, s, "yes")
	assert.Contains(t, reply, "13:00")
}

func TestSession_VolunteerFlow(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	say(t, s, "I'd like to volunteer")
	say(t, s, "Dana Whitfield")
	say(t, s, "555-0177")
	say(t, s, "weekends and evenings")
	reply := say(t, s, "meals, front desk")
	assert.Equal(t, StateConfirm, s.CurrentState())

	reply = say(t, s, "yes")
	assert.Contains(t, reply, "Dana Whitfield")

	list, err := env.volunteers.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"weekends", "evenings"}, list[0].Availability)
	assert.Equal(t, []string{"meals", "front desk"}, list[0].Interests)
}

func TestSession_DonationAndInfo(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	reply := say(t, s, "How do I donate clothes?")
	assert.Contains(t, reply, "611 Reily Street")
	assert.Equal(t, StateClassify, s.CurrentState())

	reply = say(t, s, "What are the rules for staying?")
	assert.Contains(t, reply, "seven")

	reply = say(t, s, "Where are you located?")
	assert.Contains(t, reply, "Harrisburg")
}

func TestSession_UnknownReprompts(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	reply := say(t, s, "What's the weather like?")
	assert.Contains(t, reply, "didn't catch that")
	assert.Equal(t, StateClassify, s.CurrentState())
}

func TestSession_DecliningConfirmReturnsToClassify(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	say(t, s, "bed please")
	say(t, s, "Ray")
	say(t, s, "evicted")
	say(t, s, "none")
	reply := say(t, s, "no, not yet")
	assert.Contains(t, reply, "anything else")
	assert.Equal(t, StateClassify, s.CurrentState())
	assert.Nil(t, s.Reservation())
}

func TestSession_ConfirmHandlesPunctuation(t *testing.T) {
	env := newTestEnv(t)
	s := env.newSession(t)

	say(t, s, "bed please")
	say(t, s, "Ana")
	say(t, s, "evicted")
	say(t, s, "none")
	reply := say(t, s, "Yes, please!")
	assert.Contains(t, reply, "Bed number 1")
	require.NotNil(t, s.Reservation())
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"My name is James Carter", "James Carter"},
		{"I'm Maria Lopez", "Maria Lopez"},
		{"This is Dana.", "Dana"},
		{"Me llamo Miguel Torres", "Miguel Torres"},
		{"Je m'appelle Luc", "Luc"},
		{"Walter", "Walter"},
		{"  Walter Price  ", "Walter Price"},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, extractName(tt.utterance))
		})
	}
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("No, not yet.", noWords))
	assert.True(t, matchesAny("yes", yesWords))
	assert.True(t, matchesAny("Sí, claro.", yesWords))
	assert.False(t, matchesAny("nothing like that", yesWords))
	// "nope" must not match by substring inside another word.
	assert.False(t, matchesAny("open the door", noWords))
}

func TestManager_RunPumpsBridge(t *testing.T) {
	env := newTestEnv(t)
	bridge := newScriptedCall(t, env,
		"I need a bed tonight",
		"Walter",
		"Storm took the roof off",
		"none",
		"yes",
		"goodbye",
	)

	replies := bridge.Replies()
	require.GreaterOrEqual(t, len(replies), 7)
	assert.Contains(t, replies[0].Text, "Bethesda Mission")
	assert.True(t, replies[len(replies)-1].EndCall)
	assert.Equal(t, 0, env.manager.ActiveSessions())
}

func TestManager_ReapsIdleSessions(t *testing.T) {
	env := newTestEnv(t)
	base := time.Now()
	env.manager.now = func() time.Time { return base }

	s, _ := env.manager.StartSession("idle-call", "")
	s.HandleUtterance(context.Background(), "hello?")
	require.Equal(t, 1, env.manager.ActiveSessions())

	env.manager.now = func() time.Time { return base.Add(time.Minute) }
	env.manager.reapIdle()
	assert.Equal(t, 0, env.manager.ActiveSessions())

	_, err := env.manager.HandleUtterance(context.Background(), "idle-call", "still there?")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_StartStop(t *testing.T) {
	env := newTestEnv(t)
	env.manager.Start(context.Background())
	env.manager.Start(context.Background()) // no-op
	env.manager.Stop()
	env.manager.Stop() // no-op
}
