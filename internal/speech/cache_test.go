package speech

import (
	"bytes"
	"testing"

	"github.com/samivoice/sami/internal/logger"
)

func TestAudioCacheMemory(t *testing.T) {
	c := NewAudioCache("test-voice", "", logger.New(logger.LevelOff, nil))

	if _, ok := c.Get("hello"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put("hello", []byte("wav-bytes"))
	data, ok := c.Get("hello")
	if !ok || !bytes.Equal(data, []byte("wav-bytes")) {
		t.Fatalf("Get = %q, %v", data, ok)
	}
	if !c.Has("hello") || c.Has("other") {
		t.Error("Has gave wrong answers")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestAudioCacheDiskSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	log := logger.New(logger.LevelOff, nil)

	first := NewAudioCache("test-voice", dir, log)
	first.Put("hello", []byte("wav-bytes"))

	second := NewAudioCache("test-voice", dir, log)
	data, ok := second.Get("hello")
	if !ok || !bytes.Equal(data, []byte("wav-bytes")) {
		t.Fatalf("disk Get = %q, %v", data, ok)
	}
}

func TestAudioCacheKeyIncludesVoice(t *testing.T) {
	dir := t.TempDir()
	log := logger.New(logger.LevelOff, nil)

	NewAudioCache("voice-a", dir, log).Put("hello", []byte("a"))
	if _, ok := NewAudioCache("voice-b", dir, log).Get("hello"); ok {
		t.Error("cache entry leaked across voices")
	}
}
