// Package wakeword turns the transcriber into a wake trigger: short
// probe listens run in a loop, and any transcript containing an
// accepted spelling of the assistant's name pushes a wake token onto a
// channel for the session machine to consume.
package wakeword

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// DefaultVariants are the spellings the recognizer produces for "sami".
var DefaultVariants = []string{
	"sami", "sammy", "samy", "samee", "saami", "sahmi", "sammi", "sam",
}

// Listener probes the microphone for the wake word. Detection pauses
// itself as soon as a token is emitted and stays paused until Resume,
// so probing never competes with an active session for the input
// device.
type Listener struct {
	name        string
	variants    []string
	ears        domain.Transcriber
	log         *logger.Logger
	probeWindow time.Duration
	tokens      chan string

	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

// Option configures a Listener.
type Option func(*Listener)

// WithVariants overrides the accepted wake word spellings.
func WithVariants(variants []string) Option {
	return func(l *Listener) { l.variants = variants }
}

// WithProbeWindow sets the length of each probe listen.
func WithProbeWindow(d time.Duration) Option {
	return func(l *Listener) { l.probeWindow = d }
}

// New creates a wake-word listener that emits name as its token.
func New(name string, ears domain.Transcriber, log *logger.Logger, opts ...Option) *Listener {
	l := &Listener{
		name:        strings.ToLower(name),
		variants:    DefaultVariants,
		ears:        ears,
		log:         log,
		probeWindow: 3 * time.Second,
		tokens:      make(chan string, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// C returns the wake token channel.
func (l *Listener) C() <-chan string {
	return l.tokens
}

// Pause suspends probing before the next probe starts. Idempotent.
func (l *Listener) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.paused {
		l.paused = true
		l.resume = make(chan struct{})
		l.log.Debug("wakeword: paused")
	}
}

// Resume restarts probing after a session ends. Idempotent.
func (l *Listener) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paused {
		l.paused = false
		close(l.resume)
		l.log.Debug("wakeword: resumed")
	}
}

// awaitResume blocks while the listener is paused.
func (l *Listener) awaitResume(ctx context.Context) {
	for {
		l.mu.Lock()
		paused, resume := l.paused, l.resume
		l.mu.Unlock()
		if !paused {
			return
		}
		select {
		case <-resume:
		case <-ctx.Done():
			return
		}
	}
}

// Run probes until ctx is cancelled. Call in a goroutine. Emitting a
// token pauses the listener; the session machine resumes it once the
// session is over. The send itself is still non-blocking as a guard
// against a consumer that never picks the token up.
func (l *Listener) Run(ctx context.Context) {
	l.log.Info("wakeword: listening for %v", l.variants)

	for {
		l.awaitResume(ctx)
		if ctx.Err() != nil {
			l.log.Info("wakeword: stopped")
			return
		}

		utt, err := l.ears.Listen(ctx, l.probeWindow)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info("wakeword: stopped")
				return
			}
			l.log.Warn("wakeword: probe failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if utt.Kind != domain.UtteranceHeard {
			continue
		}

		if !l.matches(utt.Text) {
			l.log.Debug("wakeword: heard %q, no wake word", utt.Text)
			continue
		}

		l.log.Info("wakeword: detected in %q", utt.Text)
		l.Pause()
		select {
		case l.tokens <- l.name:
		default:
			l.log.Debug("wakeword: token dropped, one already pending")
		}
	}
}

// matches looks for a wake variant as a standalone word.
func (l *Listener) matches(text string) bool {
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ",.!?")
		for _, v := range l.variants {
			if word == v {
				return true
			}
		}
	}
	return false
}
