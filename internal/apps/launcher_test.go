package apps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, nil)
}

func writeRegistryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistryFile(t, `{"Chrome": "/usr/bin/chrome", "notepad": "notepad.exe"}`)
	r := LoadRegistry(path, testLogger())

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if target, ok := r.Lookup("chrome"); !ok || target != "/usr/bin/chrome" {
		t.Errorf("Lookup(chrome) = %q, %v", target, ok)
	}
	if !r.Has("CHROME") {
		t.Error("Has should be case-insensitive")
	}
}

func TestLoadRegistryDegrades(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.json")},
		{"malformed json", writeRegistryFile(t, `{"chrome": `)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := LoadRegistry(tt.path, testLogger())
			if r.Len() != 0 {
				t.Errorf("Len() = %d, want 0", r.Len())
			}
		})
	}
}

func TestLaunchExact(t *testing.T) {
	var started []string
	l := NewLauncher(
		NewRegistry(map[string]string{"notepad": "notepad.exe"}, testLogger()),
		testLogger(),
		WithStarter(func(path string) error {
			started = append(started, path)
			return nil
		}),
	)

	if err := l.Launch(context.Background(), "notepad"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(started) != 1 || started[0] != "notepad.exe" {
		t.Errorf("started = %v, want [notepad.exe]", started)
	}
}

func TestLaunchFuzzy(t *testing.T) {
	var started []string
	l := NewLauncher(
		NewRegistry(map[string]string{
			"chrome":  "chrome.exe",
			"firefox": "firefox.exe",
		}, testLogger()),
		testLogger(),
		WithStarter(func(path string) error {
			started = append(started, path)
			return nil
		}),
	)

	// "crome" is a typical transcription of "chrome".
	if err := l.Launch(context.Background(), "crome"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(started) != 1 || started[0] != "chrome.exe" {
		t.Errorf("started = %v, want [chrome.exe]", started)
	}
}

func TestLaunchBelowThreshold(t *testing.T) {
	var started []string
	l := NewLauncher(
		NewRegistry(map[string]string{"chrome": "chrome.exe"}, testLogger()),
		testLogger(),
		WithStarter(func(path string) error {
			started = append(started, path)
			return nil
		}),
	)

	err := l.Launch(context.Background(), "spreadsheet")
	if !errors.Is(err, domain.ErrAppNotFound) {
		t.Fatalf("Launch error = %v, want ErrAppNotFound", err)
	}
	if len(started) != 0 {
		t.Errorf("started = %v, want none", started)
	}
}

func TestLaunchInvalidTargetNoFuzzyRescue(t *testing.T) {
	var started []string
	l := NewLauncher(
		NewRegistry(map[string]string{
			"editor": filepath.Join(t.TempDir(), "missing-binary"),
		}, testLogger()),
		testLogger(),
		WithStarter(func(path string) error {
			started = append(started, path)
			return nil
		}),
	)

	err := l.Launch(context.Background(), "editor")
	if !errors.Is(err, domain.ErrBadLaunchPath) {
		t.Fatalf("Launch error = %v, want ErrBadLaunchPath", err)
	}
	if len(started) != 0 {
		t.Errorf("started = %v, want none", started)
	}
}

func TestLaunchFuzzyFailureNotRetried(t *testing.T) {
	attempts := 0
	l := NewLauncher(
		NewRegistry(map[string]string{"chrome": "chrome.exe"}, testLogger()),
		testLogger(),
		WithStarter(func(path string) error {
			attempts++
			return errors.New("busy")
		}),
	)

	if err := l.Launch(context.Background(), "crome"); err == nil {
		t.Fatal("Launch should surface the start failure")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestLaunchEmptyName(t *testing.T) {
	l := NewLauncher(NewRegistry(nil, testLogger()), testLogger(),
		WithStarter(func(string) error { return nil }))
	if err := l.Launch(context.Background(), "  "); !errors.Is(err, domain.ErrAppNotFound) {
		t.Errorf("Launch error = %v, want ErrAppNotFound", err)
	}
}
