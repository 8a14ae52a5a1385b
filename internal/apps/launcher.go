package apps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// defaultThreshold is the minimum similarity ratio for a fuzzy name
// match. Below it, transcription noise is more likely than a real miss.
const defaultThreshold = 0.6

// Launcher resolves spoken application names against the registry and
// starts the matched executable detached from the assistant process.
type Launcher struct {
	registry  *Registry
	log       *logger.Logger
	threshold float64
	start     func(path string) error
}

var _ domain.Launcher = (*Launcher)(nil)

// Option configures a Launcher.
type Option func(*Launcher)

// WithThreshold overrides the fuzzy match cutoff.
func WithThreshold(t float64) Option {
	return func(l *Launcher) { l.threshold = t }
}

// WithStarter replaces the process starter. Tests use this to observe
// launches without spawning anything.
func WithStarter(start func(path string) error) Option {
	return func(l *Launcher) { l.start = start }
}

// NewLauncher creates a launcher over the given registry.
func NewLauncher(registry *Registry, log *logger.Logger, opts ...Option) *Launcher {
	l := &Launcher{
		registry:  registry,
		log:       log,
		threshold: defaultThreshold,
		start:     startDetached,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the application registered under name. Resolution order:
//
//  1. exact registry lookup; an exact hit with an invalid target fails
//     immediately, no fuzzy rescue for a misconfigured entry
//  2. fuzzy match against all registered names, best candidate above
//     the threshold
//
// Unmatched names return domain.ErrAppNotFound.
func (l *Launcher) Launch(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return domain.ErrAppNotFound
	}

	if target, ok := l.registry.Lookup(name); ok {
		if !validTarget(target) {
			l.log.Warn("apps: registry entry %q points at invalid target %q", name, target)
			return fmt.Errorf("%q -> %q: %w", name, target, domain.ErrBadLaunchPath)
		}
		l.log.Info("apps: launching %q (%s)", name, target)
		return l.startOnce(target)
	}

	match, ratio := l.closestName(name)
	if match == "" || ratio < l.threshold {
		l.log.Debug("apps: no match for %q (best %q at %.2f)", name, match, ratio)
		return fmt.Errorf("%q: %w", name, domain.ErrAppNotFound)
	}

	target, _ := l.registry.Lookup(match)
	if !validTarget(target) {
		l.log.Warn("apps: registry entry %q points at invalid target %q", match, target)
		return fmt.Errorf("%q -> %q: %w", match, target, domain.ErrBadLaunchPath)
	}

	l.log.Info("apps: fuzzy matched %q -> %q (%.2f), launching %s", name, match, ratio, target)
	return l.startOnce(target)
}

func (l *Launcher) startOnce(target string) error {
	if err := l.start(target); err != nil {
		return fmt.Errorf("start %s: %w", target, err)
	}
	return nil
}

// closestName returns the best fuzzy candidate among registered names
// and its similarity ratio, comparing character sequences the way a
// spell checker would.
func (l *Launcher) closestName(name string) (string, float64) {
	var best string
	var bestRatio float64
	for _, candidate := range l.registry.Keys() {
		m := difflib.NewMatcher(splitChars(name), splitChars(candidate))
		if ratio := m.Ratio(); ratio > bestRatio {
			best, bestRatio = candidate, ratio
		}
	}
	return best, bestRatio
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// launchWhitelist names bare commands that are allowed without a
// resolvable filesystem path (they live on PATH on their platforms).
var launchWhitelist = map[string]bool{
	"notepad.exe": true,
	"calc.exe":    true,
	"notepad":     true,
	"calc":        true,
}

// validTarget accepts targets that exist on disk, end in .exe, or are
// whitelisted bare commands.
func validTarget(target string) bool {
	if target == "" {
		return false
	}
	if launchWhitelist[strings.ToLower(target)] {
		return true
	}
	if strings.HasSuffix(strings.ToLower(target), ".exe") {
		return true
	}
	_, err := os.Stat(target)
	return err == nil
}

// startDetached spawns the target without waiting for it; the child is
// reaped in the background so it never zombifies.
func startDetached(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
