package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// Console is a typed-input stand-in for the microphone, used in text
// mode and in environments without audio hardware. Each line of input
// is one utterance.
type Console struct {
	lines chan string
	log   *logger.Logger
}

var _ domain.Transcriber = (*Console)(nil)

// NewConsole creates a console transcriber reading from r (normally
// os.Stdin). The reader goroutine lives for the life of the process.
func NewConsole(r io.Reader, log *logger.Logger) *Console {
	c := &Console{
		lines: make(chan string),
		log:   log,
	}

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
		close(c.lines)
	}()

	return c
}

// Listen waits for one typed line or the timeout.
func (c *Console) Listen(ctx context.Context, timeout time.Duration) (domain.Utterance, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return domain.Utterance{}, io.EOF
		}
		text := normalize(line)
		if text == "" {
			return domain.Utterance{Kind: domain.UtteranceSilence}, nil
		}
		return domain.Heard(text), nil
	case <-time.After(timeout):
		return domain.Utterance{Kind: domain.UtteranceTimeout}, nil
	case <-ctx.Done():
		return domain.Utterance{}, ctx.Err()
	}
}

// ConsoleVoice prints lines instead of speaking them, for text mode
// and for running without TTS credentials.
type ConsoleVoice struct {
	w io.Writer
}

var _ domain.Synthesizer = (*ConsoleVoice)(nil)

// NewConsoleVoice creates a printing synthesizer.
func NewConsoleVoice(w io.Writer) *ConsoleVoice {
	return &ConsoleVoice{w: w}
}

// Speak writes the line to the console.
func (v *ConsoleVoice) Speak(_ context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(v.w, "Sami: %s\n", text)
}
