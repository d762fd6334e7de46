package speech

import (
	"context"
	"sync"
)

// ScriptedBridge is an in-memory Bridge for tests: the test plays the
// caller by pushing utterances and inspecting the replies spoken back.
type ScriptedBridge struct {
	token string
	in    chan Utterance

	mu      sync.Mutex
	replies []Reply
	closed  bool
}

// NewScriptedBridge creates a bridge for the given session token.
func NewScriptedBridge(token string) *ScriptedBridge {
	return &ScriptedBridge{
		token: token,
		in:    make(chan Utterance, 16),
	}
}

func (b *ScriptedBridge) SessionToken() string { return b.token }

func (b *ScriptedBridge) Utterances() <-chan Utterance { return b.in }

func (b *ScriptedBridge) Say(_ context.Context, reply Reply) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, reply)
	return nil
}

// Push delivers one caller utterance.
func (b *ScriptedBridge) Push(text string) {
	b.in <- Utterance{SessionToken: b.token, Text: text}
}

// Hangup closes the utterance stream.
func (b *ScriptedBridge) Hangup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.in)
	}
}

// Replies returns a copy of everything spoken so far.
func (b *ScriptedBridge) Replies() []Reply {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Reply, len(b.replies))
	copy(out, b.replies)
	return out
}
