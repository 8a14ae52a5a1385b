// Package session implements the assistant's conversational loop: a
// wake token opens a session, turns are processed until the user
// dismisses the assistant or goes quiet, and the loop returns to
// waiting for the next wake token.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
	"github.com/samivoice/sami/internal/speech"
)

// EndReason says why a session ended.
type EndReason int

const (
	// EndTimeout: the listening window expired with nothing heard.
	EndTimeout EndReason = iota
	// EndDismissed: the user said an exit phrase.
	EndDismissed
	// EndInterrupted: shutdown, or the recognizer became unusable.
	EndInterrupted
)

// String returns a human-readable end reason.
func (r EndReason) String() string {
	switch r {
	case EndTimeout:
		return "timeout"
	case EndDismissed:
		return "dismissed"
	default:
		return "interrupted"
	}
}

// exitPhrases end a session when spoken verbatim.
var exitPhrases = []string{
	"that's all",
	"thats all",
	"that is all",
	"bye",
	"goodbye",
	"stop listening",
	"stop",
	"enough",
	"dismiss",
	"thank you that's all",
	"thank you thats all",
}

// personaPrompt frames every backend conversation. Sent as the system
// message on each request; the backend holds no state between turns.
const personaPrompt = "You are Sami, a refined personal voice assistant in the style " +
	"of a British butler. Address the user as 'Sir'. Your replies are spoken " +
	"aloud, so keep them brief, conversational, and free of markup, lists, " +
	"and emoji. One or two sentences is ideal."

// DefaultListenTimeout bounds how long a session waits for the user to
// start talking before giving up and going back to sleep.
const DefaultListenTimeout = 15 * time.Second

// WakePauser suspends wake-word detection for the duration of a
// session, so the detector and the session loop never contend for the
// microphone. The wakeword listener satisfies it.
type WakePauser interface {
	Pause()
	Resume()
}

// Machine drives sessions. It consumes wake tokens from a channel and
// runs at most one session at a time; wake detection is paused while a
// session is active and any tokens that slipped in are drained stale
// afterwards.
type Machine struct {
	name          string
	wakeVariants  []string
	ears          domain.Transcriber
	voice         domain.Synthesizer
	router        domain.Router
	backend       domain.ChatBackend // nil when no backend is configured
	status        domain.StatusSink  // nil when the mirror is disabled
	wake          WakePauser         // nil when detection needs no gating
	log           *logger.Logger
	listenTimeout time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithBackend sets the conversation backend for unhandled utterances.
func WithBackend(backend domain.ChatBackend) Option {
	return func(m *Machine) { m.backend = backend }
}

// WithStatus sets the status sink.
func WithStatus(status domain.StatusSink) Option {
	return func(m *Machine) { m.status = status }
}

// WithWakePauser gates wake detection around sessions.
func WithWakePauser(wake WakePauser) Option {
	return func(m *Machine) { m.wake = wake }
}

// WithName sets the assistant's name (the canonical wake token).
func WithName(name string) Option {
	return func(m *Machine) { m.name = strings.ToLower(name) }
}

// WithWakeVariants sets the accepted wake word spellings.
func WithWakeVariants(variants []string) Option {
	return func(m *Machine) { m.wakeVariants = variants }
}

// WithListenTimeout overrides the per-turn listening window.
func WithListenTimeout(d time.Duration) Option {
	return func(m *Machine) { m.listenTimeout = d }
}

// New creates a session machine.
func New(ears domain.Transcriber, voice domain.Synthesizer, router domain.Router, log *logger.Logger, opts ...Option) *Machine {
	m := &Machine{
		name:          "sami",
		wakeVariants:  []string{"sami"},
		ears:          ears,
		voice:         voice,
		router:        router,
		log:           log,
		listenTimeout: DefaultListenTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run consumes wake tokens until ctx is cancelled. Each matching token
// opens one session; tokens that arrived while a session was active
// are discarded so a queued-up shout doesn't immediately reopen it.
func (m *Machine) Run(ctx context.Context, wake <-chan string) {
	m.log.Info("session: waiting for wake word %q", m.name)
	m.publish(domain.StateIdle, "")

	for {
		select {
		case <-ctx.Done():
			m.farewell()
			return
		case token := <-wake:
			if token != m.name {
				m.log.Debug("session: ignoring wake token %q", token)
				continue
			}
			m.pauseWake()
			reason, turns := m.runSession(ctx)
			m.log.Info("session: ended (%s) after %d turns", reason, turns)
			m.publish(domain.StateIdle, "")
			m.drain(wake)
			m.resumeWake()
			if ctx.Err() != nil {
				m.farewell()
				return
			}
		}
	}
}

// runSession holds one conversation. It returns why the session ended
// and how many utterances the user actually produced.
func (m *Machine) runSession(ctx context.Context) (EndReason, int) {
	id := uuid.NewString()
	m.log.Info("session %s: started", id)
	m.speak(ctx, speech.LineSessionStart)

	turns := 0
	for {
		m.publish(domain.StateListening, "")

		utt, err := m.ears.Listen(ctx, m.listenTimeout)
		if err != nil {
			m.log.Warn("session %s: listen failed: %v", id, err)
			return EndInterrupted, turns
		}

		switch utt.Kind {
		case domain.UtteranceTimeout:
			m.speak(ctx, speech.LineSilentMode)
			return EndTimeout, turns

		case domain.UtteranceSilence:
			if turns == 0 {
				m.speak(ctx, speech.LineFirstPrompt)
			} else {
				m.speak(ctx, speech.LineNextPrompt)
			}
			continue
		}

		turns++
		text := utt.Text
		m.log.Info("session %s: turn %d: %q", id, turns, text)

		if m.isExitPhrase(text) {
			if strings.Contains(text, "thank") {
				m.speak(ctx, speech.LineDismissThanks)
			} else {
				m.speak(ctx, speech.LineDismiss)
			}
			return EndDismissed, turns
		}

		if m.isReinforcement(text) {
			m.speak(ctx, speech.LineStillListening)
			continue
		}

		m.handleTurn(ctx, id, text)
	}
}

// handleTurn routes one utterance, falling back to the backend for
// anything the router leaves unhandled. A failed or panicking turn
// apologizes and lets the session continue.
func (m *Machine) handleTurn(ctx context.Context, id, text string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("session %s: turn panicked: %v", id, r)
			m.speak(ctx, speech.LineTurnError)
		}
	}()

	m.publish(domain.StateThinking, text)

	handled, err := m.router.Route(ctx, text)
	if err != nil {
		m.log.Warn("session %s: route failed: %v", id, err)
		m.speak(ctx, speech.LineSkillFailed)
		return
	}
	if handled {
		return
	}

	if m.backend == nil {
		m.speak(ctx, speech.LineBackendUnavailable)
		return
	}

	reply, err := m.backend.Converse(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: personaPrompt},
		{Role: domain.RoleUser, Content: text},
	})
	if err != nil {
		m.log.Warn("session %s: backend failed: %v", id, err)
		m.speak(ctx, speech.LineBackendApology)
		return
	}
	m.speak(ctx, reply)
}

// isExitPhrase reports whether the utterance contains any exit phrase.
// Containment, not equality: "okay stop now" dismisses the session.
func (m *Machine) isExitPhrase(text string) bool {
	for _, phrase := range exitPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// isReinforcement reports whether the utterance contains the wake word
// as a standalone word ("sami", "hey sami", "sami are you there"). The
// user is checking the assistant is still awake, not giving a command.
func (m *Machine) isReinforcement(text string) bool {
	for _, word := range strings.Fields(text) {
		if m.isWakeWord(strings.Trim(word, ",.!?")) {
			return true
		}
	}
	return false
}

func (m *Machine) isWakeWord(word string) bool {
	for _, v := range m.wakeVariants {
		if word == v {
			return true
		}
	}
	return false
}

// speak voices one line, mirroring it to the status sink first.
func (m *Machine) speak(ctx context.Context, text string) {
	m.publish(domain.StateSpeaking, text)
	m.voice.Speak(ctx, text)
}

// farewell is spoken on shutdown; the run context is already dead, so
// it gets a short one of its own.
func (m *Machine) farewell() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.speak(ctx, speech.LineFarewell)
	m.publish(domain.StateIdle, "")
}

func (m *Machine) pauseWake() {
	if m.wake != nil {
		m.wake.Pause()
	}
}

func (m *Machine) resumeWake() {
	if m.wake != nil {
		m.wake.Resume()
	}
}

func (m *Machine) drain(wake <-chan string) {
	for {
		select {
		case <-wake:
		default:
			return
		}
	}
}

func (m *Machine) publish(state domain.AssistantState, text string) {
	if m.status == nil {
		return
	}
	m.status.Publish(domain.StatusUpdate{
		State:     state,
		Text:      text,
		Timestamp: time.Now(),
	})
}
