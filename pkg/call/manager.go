package call

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/intent"
	"github.com/bethesda-mission/shelterline/pkg/speech"
)

// ErrSessionNotFound is returned for unknown or already-ended session
// tokens.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns live call sessions. It hands out tokens, routes
// utterances to the right session, and reaps sessions whose caller has
// gone silent past the idle timeout.
type Manager struct {
	router      *ToolRouter
	classifier  *intent.Classifier
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a session manager.
func NewManager(router *ToolRouter, classifier *intent.Classifier, cfg *config.CallConfig) *Manager {
	if router == nil || classifier == nil {
		panic("NewManager: router and classifier must not be nil")
	}
	if cfg == nil {
		panic("NewManager: cfg must not be nil")
	}
	return &Manager{
		router:      router,
		classifier:  classifier,
		idleTimeout: cfg.IdleSessionTimeout,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// StartSession registers a new call and returns the session plus the
// greeting to speak. An empty token gets a generated one.
func (m *Manager) StartSession(token, callerHash string) (*Session, speech.Reply) {
	if token == "" {
		token = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[token]; ok {
		return existing, existing.Greeting()
	}
	session := newSession(token, callerHash, m.router, m.classifier, m.now)
	m.sessions[token] = session
	slog.Info("Call session started", "session", token, "active", len(m.sessions))
	return session, session.Greeting()
}

// HandleUtterance routes one utterance to its session.
func (m *Manager) HandleUtterance(ctx context.Context, token, text string) (speech.Reply, error) {
	m.mu.Lock()
	session, ok := m.sessions[token]
	m.mu.Unlock()
	if !ok {
		return speech.Reply{}, ErrSessionNotFound
	}
	reply := session.HandleUtterance(ctx, text)
	if reply.EndCall {
		m.EndSession(token)
	}
	return reply, nil
}

// EndSession removes a session. Ending an unknown token is a no-op.
func (m *Manager) EndSession(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[token]; ok {
		delete(m.sessions, token)
		slog.Info("Call session ended", "session", token, "active", len(m.sessions))
	}
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run pumps one bridge: speaks the greeting, then feeds every utterance
// through the session until the reply ends the call or the caller hangs
// up. It blocks until the call is over.
func (m *Manager) Run(ctx context.Context, bridge speech.Bridge) error {
	session, greeting := m.StartSession(bridge.SessionToken(), "")
	defer m.EndSession(session.Token)

	if err := bridge.Say(ctx, greeting); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case utterance, ok := <-bridge.Utterances():
			if !ok {
				return nil
			}
			reply := session.HandleUtterance(ctx, utterance.Text)
			if err := bridge.Say(ctx, reply); err != nil {
				return err
			}
			if reply.EndCall {
				return nil
			}
		}
	}
}

// Start launches the idle-session reaper. Calling Start on an already
// started manager is a no-op.
func (m *Manager) Start(ctx context.Context) {
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	interval := m.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	go m.reapLoop(ctx, interval)
	slog.Info("Call session reaper started",
		"idle_timeout", m.idleTimeout, "interval", interval)
}

// Stop terminates the reaper and waits for it to exit.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	slog.Info("Call session reaper stopped")
}

func (m *Manager) reapLoop(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapIdle()
		}
	}
}

// reapIdle drops sessions with no utterance inside the idle timeout.
func (m *Manager) reapIdle() {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	for token, session := range m.sessions {
		if session.IdleSince().Before(cutoff) {
			delete(m.sessions, token)
			slog.Info("Reaped idle call session", "session", token)
		}
	}
}
