package domain

import (
	"context"
	"time"
)

// Transcriber captures one phrase of speech and returns it as a
// normalized utterance. The timeout bounds how long the listener waits
// for speech to begin; an expired window is reported as an Utterance of
// kind UtteranceTimeout, not as an error. Errors are reserved for the
// recognizer itself being unusable (device gone, context cancelled).
type Transcriber interface {
	Listen(ctx context.Context, timeout time.Duration) (Utterance, error)
}

// Synthesizer renders text as speech. Speak blocks until playback
// finishes and never surfaces errors to the caller; synthesis failures
// are logged and swallowed by the implementation.
type Synthesizer interface {
	Speak(ctx context.Context, text string)
}

// Launcher starts a local application by name.
type Launcher interface {
	Launch(ctx context.Context, name string) error
}

// ChatBackend sends an ordered message sequence to the remote language
// model service and returns a single reply.
type ChatBackend interface {
	Converse(ctx context.Context, messages []Message) (string, error)
}

// Router dispatches a normalized utterance to a local action. It
// returns handled=false when nothing matched, signalling the caller to
// escalate the utterance to the conversation backend.
type Router interface {
	Route(ctx context.Context, utterance string) (handled bool, err error)
}

// StatusSink receives assistant state changes. Implementations must not
// block the session loop; delivery is best-effort.
type StatusSink interface {
	Publish(update StatusUpdate)
}

// Skill is a self-contained request/response capability (weather,
// messaging). Match reports whether the skill claims the utterance;
// Handle performs the request and returns the line to speak back.
type Skill interface {
	Name() string
	Match(utterance string) bool
	Handle(ctx context.Context, utterance string) (string, error)
}
