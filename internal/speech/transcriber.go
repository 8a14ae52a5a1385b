package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// envAnnotation matches whisper environmental annotations like
// "(keyboard clicking)", "[laughter]", "(speaking French)", etc.
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s]*[\)\]]`)

// MicOption configures the Mic.
type MicOption func(*Mic)

// WithChunkDuration sets how long each recording chunk lasts.
func WithChunkDuration(d time.Duration) MicOption {
	return func(m *Mic) { m.chunkDuration = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) MicOption {
	return func(m *Mic) { m.tempDir = dir }
}

// Mic captures speech from the microphone through a local Whisper
// model. One Listen call records chunk by chunk until the speaker goes
// quiet or the window expires, then returns the whole phrase as a
// single normalized utterance.
//
// Listen is serialized: the wake listener and an active session share
// one microphone, so overlapping calls queue up instead of fighting
// over the device.
type Mic struct {
	whisperBin    string
	modelPath     string
	tempDir       string
	chunkDuration time.Duration
	log           *logger.Logger

	mu sync.Mutex
}

var _ domain.Transcriber = (*Mic)(nil)

// NewMic creates a microphone transcriber.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
func NewMic(whisperBin, modelPath string, log *logger.Logger, opts ...MicOption) *Mic {
	m := &Mic{
		whisperBin:    whisperBin,
		modelPath:     modelPath,
		tempDir:       ".sami-stt",
		chunkDuration: 2 * time.Second,
		log:           log,
	}
	for _, opt := range opts {
		opt(m)
	}

	if _, err := exec.LookPath(m.whisperBin); err != nil {
		log.Error("mic: whisper binary %q not found in PATH: %v", m.whisperBin, err)
	}

	return m
}

// Listen records until the speaker finishes a phrase or the timeout
// expires with nothing heard. Silence after speech ends the capture;
// a window that expires before any speech yields UtteranceTimeout, and
// captured audio that cleans down to nothing yields UtteranceSilence.
func (m *Mic) Listen(ctx context.Context, timeout time.Duration) (domain.Utterance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := time.Now().Add(timeout)
	var parts []string
	sawAudio := false
	emptyRuns := 0

	// Once the speaker has started, two quiet chunks in a row mean the
	// phrase is over.
	const postSpeechEmpty = 2

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return domain.Utterance{}, err
		}

		raw, err := m.recordChunk(ctx, m.chunkDuration)
		if err != nil {
			return domain.Utterance{}, err
		}
		if strings.TrimSpace(raw) != "" {
			sawAudio = true
		}

		chunk := cleanTranscription(raw)
		if chunk == "" {
			if len(parts) > 0 {
				emptyRuns++
				if emptyRuns >= postSpeechEmpty {
					break
				}
			}
			continue
		}

		emptyRuns = 0
		m.log.Debug("mic: chunk %q", chunk)
		parts = append(parts, chunk)
	}

	combined := normalize(strings.Join(parts, " "))
	switch {
	case combined != "":
		m.log.Info("mic: heard %q", combined)
		return domain.Heard(combined), nil
	case sawAudio:
		m.log.Debug("mic: audio captured but nothing usable transcribed")
		return domain.Utterance{Kind: domain.UtteranceSilence}, nil
	default:
		m.log.Debug("mic: listen window expired")
		return domain.Utterance{Kind: domain.UtteranceTimeout}, nil
	}
}

// recordChunk does one record-transcribe cycle and returns the raw
// transcription.
func (m *Mic) recordChunk(ctx context.Context, duration time.Duration) (string, error) {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := m.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		m.whisperBin,
		m.modelPath,
		m.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		m.log.Error("mic: transcriber init failed: %v", err)
		time.Sleep(2 * time.Second)
		return "", nil
	}

	if err := t.Start(); err != nil {
		m.log.Error("mic: recording start failed: %v", err)
		time.Sleep(2 * time.Second)
		return "", nil
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return "", ctx.Err()
	}

	t.Stop()
	wg.Wait()

	return result, nil
}

// normalize lowercases and trims an utterance for classification.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// cleanTranscription strips whitespace, normalizes newlines, and
// removes whisper artifacts: blank-audio markers, environmental
// annotations, timestamp prefixes, and the stock hallucinations the
// model emits over silence.
func cleanTranscription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)

	// Markers the annotation regex below can't reach (underscores,
	// mixed case variants).
	for _, junk := range []string{"[BLANK_AUDIO]", "[blank_audio]", "[BLANK AUDIO]", "*BLANK_AUDIO*"} {
		s = strings.ReplaceAll(s, junk, "")
	}

	// "(dog barking)", "[laughter]", "(speaking French)", ...
	s = envAnnotation.ReplaceAllString(s, "")

	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)

	// If what remains is just a known hallucination, discard entirely.
	hallucinations := []string{
		"...",
		"you",
		"thank you.",
		"thanks for watching!",
		"thank you for watching.",
		"bye.",
		"bye!",
		"the end.",
		"sous-titres réalisés para la communauté d'amara.org",
	}
	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if h == lower {
			return ""
		}
	}

	// Strip whisper timestamp prefixes like "[00:00:00.000 --> 00:00:05.000]".
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			s = strings.TrimSpace(s[idx+1:])
		}
	}

	return s
}
