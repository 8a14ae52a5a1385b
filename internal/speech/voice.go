package speech

import (
	"context"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// Voice speaks text through Azure TTS and the local audio player.
// Speak is synchronous so a turn never overlaps its own reply, and it
// never raises: a failed synthesis or playback is logged and the
// assistant carries on silently.
type Voice struct {
	tts    *AzureClient
	player *Player
	cache  *AudioCache
	log    *logger.Logger
}

var _ domain.Synthesizer = (*Voice)(nil)

// NewVoice creates a speaking synthesizer. cache may be nil.
func NewVoice(tts *AzureClient, player *Player, cache *AudioCache, log *logger.Logger) *Voice {
	return &Voice{tts: tts, player: player, cache: cache, log: log}
}

// Speak renders the text and blocks until playback finishes.
func (v *Voice) Speak(ctx context.Context, text string) {
	if text == "" {
		return
	}

	audio, ok := v.cachedAudio(text)
	if !ok {
		var err error
		audio, err = v.tts.Synthesize(ctx, text)
		if err != nil {
			v.log.Error("voice: synthesis failed: %v", err)
			return
		}
		if v.cache != nil {
			v.cache.Put(text, audio)
		}
	}

	if err := v.player.Play(audio); err != nil {
		v.log.Error("voice: playback failed: %v", err)
	}
}

// Prefetch synthesizes the given lines into the cache so frequently
// spoken phrases play instantly. Safe to call in a goroutine.
func (v *Voice) Prefetch(ctx context.Context, lines []string) {
	if v.cache == nil {
		return
	}
	for _, line := range lines {
		if ctx.Err() != nil {
			return
		}
		if v.cache.Has(line) {
			continue
		}
		audio, err := v.tts.Synthesize(ctx, line)
		if err != nil {
			v.log.Warn("voice: prefetch of %q failed: %v", truncateForLog(line, 40), err)
			continue
		}
		v.cache.Put(line, audio)
	}
	v.log.Debug("voice: prefetched %d lines", len(lines))
}

func (v *Voice) cachedAudio(text string) ([]byte, bool) {
	if v.cache == nil {
		return nil, false
	}
	return v.cache.Get(text)
}
