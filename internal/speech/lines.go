// Package speech — lines.go centralises every spoken string.
// Edit this file to change Sami's personality. Keep lines short and
// direct; the TTS engine handles inflection.
package speech

import "fmt"

// ── Session lifecycle ────────────────────────────────────────────

const (
	// LineSessionStart acknowledges the wake word.
	LineSessionStart = "Yes, Sir?"

	// LineStillListening is spoken when the user repeats the wake word
	// during an already-active session.
	LineStillListening = "Yes, Sir? I'm still listening."

	// LineFirstPrompt nudges a silent user on the first turn.
	LineFirstPrompt = "How may I assist you, Sir?"

	// LineNextPrompt nudges a silent user on subsequent turns.
	LineNextPrompt = "Anything else, Sir?"

	// LineSilentMode is spoken when the listening window expires.
	LineSilentMode = "I haven't heard anything for a while, Sir. I'll return to silent mode now."

	// LineDismiss ends a session on an exit phrase.
	LineDismiss = "Very well, Sir. I'll be here if you need me."

	// LineDismissThanks ends a session on a thank-you exit phrase.
	LineDismissThanks = "You're welcome, Sir. I live to serve."

	// LineFarewell is spoken on shutdown.
	LineFarewell = "Goodbye, Sir."
)

// ── Turn handling ────────────────────────────────────────────────

const (
	LineGreeting = "Hello, Sir. How can I help you?"

	LineWhichApp = "What application would you like me to open, Sir?"

	LineDidNotCatch = "Sorry, I didn't catch that."

	// LineTurnError covers any unexpected failure while processing a
	// turn; the session continues afterwards.
	LineTurnError = "I apologize, Sir. I encountered an error. Please try again."

	// LineBackendApology is spoken when the conversation backend fails.
	LineBackendApology = "I'm sorry, I couldn't process that request."

	// LineBackendUnavailable is spoken when no backend is configured.
	LineBackendUnavailable = "Sorry, I'm unable to process that request right now."

	// LineSkillFailed is spoken when a skill matched but couldn't finish.
	LineSkillFailed = "I'm sorry, Sir. That didn't work. Please try again later."
)

// LineOpening announces an application launch.
func LineOpening(app string) string {
	return fmt.Sprintf("Opening %s, Sir.", app)
}

// LineLaunchFailed reports a failed launch.
func LineLaunchFailed(app string) string {
	return fmt.Sprintf("I apologize, Sir. I couldn't open %s.", app)
}

// PersonaLines returns every fixed line so they can be prefetched into
// the TTS cache at startup.
func PersonaLines() []string {
	return []string{
		LineSessionStart,
		LineStillListening,
		LineFirstPrompt,
		LineNextPrompt,
		LineSilentMode,
		LineDismiss,
		LineDismissThanks,
		LineFarewell,
		LineGreeting,
		LineWhichApp,
		LineDidNotCatch,
		LineTurnError,
		LineBackendApology,
		LineBackendUnavailable,
		LineSkillFailed,
	}
}
