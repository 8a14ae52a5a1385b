// Package domain defines the core types and interfaces for the assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// UtteranceKind classifies the outcome of one listening attempt.
type UtteranceKind int

const (
	// UtteranceHeard means speech was captured and transcribed.
	UtteranceHeard UtteranceKind = iota
	// UtteranceSilence means a phrase was captured but nothing usable
	// came out of transcription (unrecognized speech or empty text).
	UtteranceSilence
	// UtteranceTimeout means the listening window expired before any
	// speech started.
	UtteranceTimeout
)

// String returns a human-readable utterance kind.
func (k UtteranceKind) String() string {
	switch k {
	case UtteranceHeard:
		return "heard"
	case UtteranceSilence:
		return "silence"
	case UtteranceTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Utterance is one normalized unit of transcribed speech for a single
// turn. Text is trimmed and lowercased; it is empty unless Kind is
// UtteranceHeard.
type Utterance struct {
	Text string
	Kind UtteranceKind
}

// Heard wraps transcribed text in an Utterance.
func Heard(text string) Utterance {
	return Utterance{Text: text, Kind: UtteranceHeard}
}

// Role identifies the author of a conversation message.
type Role string

// Chat roles understood by the conversation backend.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to the conversation backend.
type Message struct {
	Role    Role
	Content string
}

// AssistantState is the externally visible activity of the assistant,
// mirrored to the optional status front-end.
type AssistantState string

const (
	StateListening AssistantState = "listening"
	StateThinking  AssistantState = "thinking"
	StateSpeaking  AssistantState = "speaking"
	StateIdle      AssistantState = "idle"
)

// StatusUpdate is emitted on every assistant state change.
type StatusUpdate struct {
	State     AssistantState
	Text      string
	Timestamp time.Time
}
