package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
	"github.com/samivoice/sami/internal/speech"
)

type recordingVoice struct {
	lines []string
}

func (v *recordingVoice) Speak(_ context.Context, text string) {
	v.lines = append(v.lines, text)
}

type fakeLauncher struct {
	launched []string
	err      error
}

func (l *fakeLauncher) Launch(_ context.Context, name string) error {
	l.launched = append(l.launched, name)
	return l.err
}

type fakeSkill struct {
	name  string
	match string
	reply string
	err   error
}

func (s *fakeSkill) Name() string        { return s.name }
func (s *fakeSkill) Match(u string) bool { return strings.Contains(u, s.match) }
func (s *fakeSkill) Handle(context.Context, string) (string, error) {
	return s.reply, s.err
}

func newTestRouter(t *testing.T, launcher *fakeLauncher, voice *recordingVoice, skills ...domain.Skill) *Router {
	t.Helper()
	vocab := fakeVocab{"chrome": true, "notepad": true}
	return NewRouter(vocab, launcher, voice, skills, logger.New(logger.LevelOff, nil))
}

func TestRouteGreeting(t *testing.T) {
	voice := &recordingVoice{}
	r := newTestRouter(t, &fakeLauncher{}, voice)

	handled, err := r.Route(context.Background(), "hello there")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(voice.lines) != 1 || voice.lines[0] != speech.LineGreeting {
		t.Errorf("spoken = %v, want greeting line", voice.lines)
	}
}

func TestRouteLaunch(t *testing.T) {
	voice := &recordingVoice{}
	launcher := &fakeLauncher{}
	r := newTestRouter(t, launcher, voice)

	handled, err := r.Route(context.Background(), "please open chrome")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(launcher.launched) != 1 || launcher.launched[0] != "chrome" {
		t.Errorf("launched = %v, want [chrome]", launcher.launched)
	}
	if len(voice.lines) != 1 || voice.lines[0] != speech.LineOpening("chrome") {
		t.Errorf("spoken = %v, want opening line", voice.lines)
	}
}

func TestRouteLaunchFailureIsSpokenNotReturned(t *testing.T) {
	voice := &recordingVoice{}
	launcher := &fakeLauncher{err: errors.New("no such app")}
	r := newTestRouter(t, launcher, voice)

	handled, err := r.Route(context.Background(), "open chrome")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(voice.lines) != 2 || voice.lines[1] != speech.LineLaunchFailed("chrome") {
		t.Errorf("spoken = %v, want failure line second", voice.lines)
	}
}

func TestRouteLaunchWithoutAppName(t *testing.T) {
	voice := &recordingVoice{}
	launcher := &fakeLauncher{}
	r := newTestRouter(t, launcher, voice)

	handled, err := r.Route(context.Background(), "open")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(launcher.launched) != 0 {
		t.Errorf("launched = %v, want none", launcher.launched)
	}
	if len(voice.lines) != 1 || voice.lines[0] != speech.LineWhichApp {
		t.Errorf("spoken = %v, want which-app prompt", voice.lines)
	}
}

func TestRouteLegacyNotepad(t *testing.T) {
	launcher := &fakeLauncher{}
	r := newTestRouter(t, launcher, &recordingVoice{})

	handled, err := r.Route(context.Background(), "notepad")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(launcher.launched) != 1 || launcher.launched[0] != "notepad" {
		t.Errorf("launched = %v, want [notepad]", launcher.launched)
	}
}

func TestRouteEmptyInput(t *testing.T) {
	voice := &recordingVoice{}
	r := newTestRouter(t, &fakeLauncher{}, voice)

	handled, err := r.Route(context.Background(), "")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(voice.lines) != 1 || voice.lines[0] != speech.LineDidNotCatch {
		t.Errorf("spoken = %v, want did-not-catch line", voice.lines)
	}
}

func TestRouteSkill(t *testing.T) {
	voice := &recordingVoice{}
	skill := &fakeSkill{name: "weather", match: "weather", reply: "It is sunny."}
	r := newTestRouter(t, &fakeLauncher{}, voice, skill)

	handled, err := r.Route(context.Background(), "what's the weather in paris")
	if err != nil || !handled {
		t.Fatalf("Route = %v, %v; want handled, nil", handled, err)
	}
	if len(voice.lines) != 1 || voice.lines[0] != "It is sunny." {
		t.Errorf("spoken = %v, want skill reply", voice.lines)
	}
}

func TestRouteSkillFailure(t *testing.T) {
	skill := &fakeSkill{name: "weather", match: "weather", err: errors.New("api down")}
	r := newTestRouter(t, &fakeLauncher{}, &recordingVoice{}, skill)

	handled, err := r.Route(context.Background(), "weather please")
	if !handled {
		t.Fatal("Route should report skill matches as handled")
	}
	if err == nil {
		t.Fatal("Route should surface skill errors")
	}
}

func TestRouteUnhandled(t *testing.T) {
	r := newTestRouter(t, &fakeLauncher{}, &recordingVoice{})

	handled, err := r.Route(context.Background(), "tell me a story")
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if handled {
		t.Error("Route should leave chat for the backend")
	}
}
