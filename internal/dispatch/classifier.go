// Package dispatch turns transcribed utterances into actions. The
// classifier decides what a command is; the router carries it out.
package dispatch

import (
	"regexp"
	"strings"
)

// Kind is the category a classified utterance falls into.
type Kind int

const (
	// KindUnclassified means no local command matched; callers should
	// hand the utterance to the conversation backend.
	KindUnclassified Kind = iota
	// KindEmptyInput means there was nothing to classify.
	KindEmptyInput
	// KindGreeting is a hello of some shape.
	KindGreeting
	// KindLaunchApp is a request to open an application; App carries the
	// extracted name (possibly empty when the user named nothing).
	KindLaunchApp
	// KindLegacyNotepad is the bare "notepad" shortcut, kept for users
	// who ask for it without a launch verb.
	KindLegacyNotepad
)

// String returns a human-readable kind.
func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty"
	case KindGreeting:
		return "greeting"
	case KindLaunchApp:
		return "launch"
	case KindLegacyNotepad:
		return "notepad"
	default:
		return "unclassified"
	}
}

// Classification is the result of classifying a single utterance.
type Classification struct {
	Kind Kind
	App  string
}

// Vocabulary answers whether a candidate application name is known.
// The app registry satisfies it.
type Vocabulary interface {
	Has(name string) bool
}

var (
	greetingTokens = []string{"hello", "hi", "hey", "good morning", "good afternoon"}
	launchTokens   = []string{"open", "launch", "start", "run"}

	// Words stripped from a launch phrase before the remainder is taken
	// as the application name.
	stopWords = regexp.MustCompile(`\b(open|launch|start|run|please|can you|could you)\b`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Classify categorizes a normalized utterance. Priority order: empty
// input, greeting, launch request, bare notepad, unclassified. Matching
// is deliberately substring-based, so "run" inside another word still
// classifies as a launch request; session history depends on keeping
// that behavior.
func Classify(utterance string, vocab Vocabulary) Classification {
	utterance = strings.ToLower(strings.TrimSpace(utterance))

	if utterance == "" {
		return Classification{Kind: KindEmptyInput}
	}

	for _, tok := range greetingTokens {
		if strings.Contains(utterance, tok) {
			return Classification{Kind: KindGreeting}
		}
	}

	for _, tok := range launchTokens {
		if strings.Contains(utterance, tok) {
			return Classification{
				Kind: KindLaunchApp,
				App:  extractAppName(utterance, vocab),
			}
		}
	}

	if strings.Contains(utterance, "notepad") {
		return Classification{Kind: KindLegacyNotepad}
	}

	return Classification{Kind: KindUnclassified}
}

// extractAppName pulls the application name out of a launch phrase.
// It strips the launch verbs and politeness filler, then looks for the
// longest contiguous word run that names a registered application, so
// "open visual studio code" matches "visual studio code" rather than
// "code". When nothing registered matches, the cleaned remainder is
// returned as-is for fuzzy resolution downstream.
func extractAppName(utterance string, vocab Vocabulary) string {
	cleaned := stopWords.ReplaceAllString(utterance, " ")
	cleaned = strings.TrimSpace(spaces.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return ""
	}

	if vocab != nil {
		words := strings.Fields(cleaned)
		for length := len(words); length > 0; length-- {
			for start := 0; start+length <= len(words); start++ {
				candidate := strings.Join(words[start:start+length], " ")
				if vocab.Has(candidate) {
					return candidate
				}
			}
		}
	}

	return cleaned
}
