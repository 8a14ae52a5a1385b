package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/samivoice/sami/internal/logger"
)

// Player sends synthesized WAV audio to the speakers. One oto context
// is opened per process; playback itself is strictly one clip at a
// time, which is all a spoken reply needs.
type Player struct {
	otoCtx *oto.Context
	log    *logger.Logger

	mu      sync.Mutex
	current *oto.Player // clip being played, nil between replies
}

// NewPlayer opens the system audio device. Fails when no output device
// is available, in which case the caller falls back to console output.
func NewPlayer(log *logger.Logger) (*Player, error) {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	log.Debug("player: ready (%d Hz, %d channel)", SampleRate, ChannelCount)
	return &Player{otoCtx: otoCtx, log: log}, nil
}

// Play voices one WAV clip and blocks until it finishes or Stop cuts
// it off.
func (p *Player) Play(clip []byte) error {
	pcm, err := pcmPayload(clip)
	if err != nil {
		return fmt.Errorf("decode clip: %w", err)
	}

	player := p.otoCtx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	p.current = player
	p.mu.Unlock()

	p.log.Debug("player: voicing %d PCM bytes", len(pcm))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	return player.Close()
}

// Stop cuts off the clip currently being voiced. A no-op when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current != nil {
		current.Pause()
		p.log.Debug("player: cut off")
	}
}

// pcmPayload walks the RIFF chunks of a WAV clip and returns the raw
// samples from its data chunk.
func pcmPayload(clip []byte) ([]byte, error) {
	if len(clip) < 44 {
		return nil, errors.New("clip shorter than a WAV header")
	}
	if string(clip[0:4]) != "RIFF" || string(clip[8:12]) != "WAVE" {
		return nil, errors.New("clip is not RIFF/WAVE")
	}

	pos := 12
	for pos+8 <= len(clip) {
		id := string(clip[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(clip[pos+4 : pos+8]))
		body := pos + 8

		if id == "data" {
			end := body + size
			if end > len(clip) {
				end = len(clip)
			}
			return clip[body:end], nil
		}

		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	return nil, errors.New("no data chunk in clip")
}
