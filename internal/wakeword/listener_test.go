package wakeword

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// scriptedEars replays utterances and cancels the context when the
// script runs out, ending the probe loop.
type scriptedEars struct {
	mu     sync.Mutex
	script []domain.Utterance
	calls  int
	cancel context.CancelFunc
}

func (e *scriptedEars) Listen(ctx context.Context, _ time.Duration) (domain.Utterance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if len(e.script) == 0 {
		e.cancel()
		return domain.Utterance{}, ctx.Err()
	}
	next := e.script[0]
	e.script = e.script[1:]
	return next, nil
}

func (e *scriptedEars) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func startListener(t *testing.T, script []domain.Utterance, opts ...Option) (*Listener, *scriptedEars, context.CancelFunc, chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	ears := &scriptedEars{script: script, cancel: cancel}
	l := New("sami", ears, logger.New(logger.LevelOff, nil), opts...)

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	return l, ears, cancel, done
}

func waitStopped(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func waitToken(t *testing.T, l *Listener) string {
	t.Helper()
	select {
	case tok := <-l.C():
		return tok
	case <-time.After(time.Second):
		t.Fatal("no wake token emitted")
		return ""
	}
}

// runQuiet drives a script that never produces a token; the listener
// keeps probing until the script runs out and cancels the context.
func runQuiet(t *testing.T, script []domain.Utterance) []string {
	t.Helper()
	l, _, cancel, done := startListener(t, script)
	defer cancel()
	waitStopped(t, done)

	var tokens []string
	for {
		select {
		case tok := <-l.C():
			tokens = append(tokens, tok)
		default:
			return tokens
		}
	}
}

func TestDetectsWakeVariants(t *testing.T) {
	l, _, cancel, done := startListener(t, []domain.Utterance{
		domain.Heard("hey sammy are you there"),
	})
	defer cancel()

	if tok := waitToken(t, l); tok != "sami" {
		t.Errorf("token = %q, want %q", tok, "sami")
	}
	cancel()
	waitStopped(t, done)
}

func TestIgnoresUnrelatedSpeech(t *testing.T) {
	tokens := runQuiet(t, []domain.Utterance{
		domain.Heard("what a lovely day"),
		{Kind: domain.UtteranceTimeout},
		{Kind: domain.UtteranceSilence},
	})
	if len(tokens) != 0 {
		t.Errorf("tokens = %v, want none", tokens)
	}
}

func TestNoSubstringFalsePositive(t *testing.T) {
	// "samples" contains "sam" but is not a standalone wake word.
	tokens := runQuiet(t, []domain.Utterance{
		domain.Heard("show me the samples"),
	})
	if len(tokens) != 0 {
		t.Errorf("tokens = %v, want none", tokens)
	}
}

func TestPunctuationAroundWakeWord(t *testing.T) {
	l, _, cancel, done := startListener(t, []domain.Utterance{
		domain.Heard("sami!"),
	})
	defer cancel()

	if tok := waitToken(t, l); tok != "sami" {
		t.Errorf("token = %q, want %q", tok, "sami")
	}
	cancel()
	waitStopped(t, done)
}

func TestPausesAfterDetection(t *testing.T) {
	// Two wake utterances are scripted, but the listener pauses itself
	// after the first token and must not probe again until resumed.
	l, ears, cancel, done := startListener(t, []domain.Utterance{
		domain.Heard("sami"),
		domain.Heard("sami"),
	})
	defer cancel()

	waitToken(t, l)
	time.Sleep(50 * time.Millisecond)

	if got := ears.callCount(); got != 1 {
		t.Errorf("Listen called %d times while paused, want 1", got)
	}
	select {
	case tok := <-l.C():
		t.Errorf("unexpected second token %q while paused", tok)
	default:
	}
	cancel()
	waitStopped(t, done)
}

func TestResumeRestartsDetection(t *testing.T) {
	l, _, cancel, done := startListener(t, []domain.Utterance{
		domain.Heard("sami"),
		domain.Heard("hey sami"),
	})
	defer cancel()

	waitToken(t, l)
	l.Resume()
	if tok := waitToken(t, l); tok != "sami" {
		t.Errorf("token after resume = %q, want %q", tok, "sami")
	}
	cancel()
	waitStopped(t, done)
}

func TestPauseBeforeRunHoldsDetection(t *testing.T) {
	// An externally paused listener holds off probing entirely.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ears := &scriptedEars{script: []domain.Utterance{domain.Heard("sami")}, cancel: cancel}
	l := New("sami", ears, logger.New(logger.LevelOff, nil))
	l.Pause()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if got := ears.callCount(); got != 0 {
		t.Errorf("Listen called %d times while paused, want 0", got)
	}

	l.Resume()
	if tok := waitToken(t, l); tok != "sami" {
		t.Errorf("token = %q, want %q", tok, "sami")
	}
	cancel()
	waitStopped(t, done)
}
