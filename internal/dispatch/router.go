package dispatch

import (
	"context"
	"fmt"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
	"github.com/samivoice/sami/internal/speech"
)

// Router executes classified commands. Everything it can handle is
// spoken back directly; utterances it cannot handle are reported as
// unhandled so the session escalates them to the conversation backend.
type Router struct {
	vocab    Vocabulary
	launcher domain.Launcher
	voice    domain.Synthesizer
	skills   []domain.Skill
	log      *logger.Logger
}

var _ domain.Router = (*Router)(nil)

// NewRouter creates a router. skills may be empty.
func NewRouter(vocab Vocabulary, launcher domain.Launcher, voice domain.Synthesizer, skills []domain.Skill, log *logger.Logger) *Router {
	return &Router{
		vocab:    vocab,
		launcher: launcher,
		voice:    voice,
		skills:   skills,
		log:      log,
	}
}

// Route classifies the utterance and acts on it. Launch failures are
// spoken, never returned; a launch attempt counts as handled regardless
// of outcome. The returned error reports skill failures only, and the
// session treats those as recoverable.
func (r *Router) Route(ctx context.Context, utterance string) (bool, error) {
	c := Classify(utterance, r.vocab)
	r.log.Debug("dispatch: %q classified as %s (app=%q)", utterance, c.Kind, c.App)

	switch c.Kind {
	case KindGreeting:
		r.voice.Speak(ctx, speech.LineGreeting)
		return true, nil

	case KindLaunchApp:
		if c.App == "" {
			r.voice.Speak(ctx, speech.LineWhichApp)
			return true, nil
		}
		r.launchAndReport(ctx, c.App)
		return true, nil

	case KindLegacyNotepad:
		r.launchAndReport(ctx, "notepad")
		return true, nil

	case KindEmptyInput:
		r.voice.Speak(ctx, speech.LineDidNotCatch)
		return true, nil
	}

	for _, skill := range r.skills {
		if !skill.Match(utterance) {
			continue
		}
		r.log.Info("dispatch: skill %s claimed %q", skill.Name(), utterance)
		reply, err := skill.Handle(ctx, utterance)
		if err != nil {
			return true, fmt.Errorf("skill %s: %w", skill.Name(), err)
		}
		r.voice.Speak(ctx, reply)
		return true, nil
	}

	return false, nil
}

func (r *Router) launchAndReport(ctx context.Context, app string) {
	r.voice.Speak(ctx, speech.LineOpening(app))
	if err := r.launcher.Launch(ctx, app); err != nil {
		r.log.Warn("dispatch: launch %q failed: %v", app, err)
		r.voice.Speak(ctx, speech.LineLaunchFailed(app))
	}
}
