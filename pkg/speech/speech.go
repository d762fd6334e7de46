// Package speech defines the boundary to the telephony and speech
// pipeline. STT, TTS, and voice activity detection live on the far side:
// this side sees a stream of transcribed utterances in and hands text
// replies back for synthesis. A telephony adapter translates the phone
// vendor's webhook or SIP session into one Bridge per call.
package speech

import "context"

// Utterance is one transcribed caller statement.
type Utterance struct {
	SessionToken string
	Text         string
}

// Reply is text the pipeline synthesizes back to the caller.
type Reply struct {
	Text     string
	Language string
	// EndCall tells the adapter to hang up after speaking.
	EndCall bool
}

// Bridge is one live call. Utterances yields transcribed caller speech
// and is closed by the adapter on hangup; Say queues a reply for
// synthesis.
type Bridge interface {
	SessionToken() string
	Utterances() <-chan Utterance
	Say(ctx context.Context, reply Reply) error
}
