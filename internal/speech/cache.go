package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/samivoice/sami/internal/logger"
)

// AudioCache is a thread-safe two-tier cache (in-memory + filesystem)
// for synthesized audio. The cache key is sha256(voice + ":" + text) so
// a voice change automatically causes misses until switched back. The
// disk layer gives the fixed persona lines a warm start across runs.
type AudioCache struct {
	mu       sync.RWMutex
	entries  map[string][]byte // hash -> WAV bytes
	log      *logger.Logger
	voice    string // included in every cache key
	cacheDir string // filesystem cache directory (empty = no disk layer)
}

// NewAudioCache creates an audio cache. If cacheDir is empty the disk
// layer is disabled entirely (pure in-memory).
func NewAudioCache(voice, cacheDir string, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries:  make(map[string][]byte),
		log:      log,
		voice:    voice,
		cacheDir: cacheDir,
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", cacheDir, err)
			c.cacheDir = ""
		}
	}

	return c
}

// Get returns cached audio for the given text and true, or nil and
// false. It checks the in-memory map first, then the disk cache.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.hashKey(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.log.Debug("cache hit (mem): %s (%d bytes)", truncateForLog(text, 40), len(data))
		return data, true
	}

	if c.cacheDir != "" {
		if diskData, err := os.ReadFile(c.diskPath(key)); err == nil {
			// Promote to memory for faster subsequent hits.
			c.mu.Lock()
			c.entries[key] = diskData
			c.mu.Unlock()
			c.log.Debug("cache hit (disk): %s (%d bytes)", truncateForLog(text, 40), len(diskData))
			return diskData, true
		}
	}

	return nil, false
}

// Put stores audio for the given text in memory and, when a cache
// directory is configured, on disk.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.hashKey(text)

	c.mu.Lock()
	c.entries[key] = audio
	size := len(c.entries)
	c.mu.Unlock()

	c.log.Debug("cache store: %s (%d bytes, %d entries)", truncateForLog(text, 40), len(audio), size)

	if c.cacheDir != "" {
		path := c.diskPath(key)
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			c.log.Error("cache: disk write failed for %s: %v", path, err)
		}
	}
}

// Has reports whether audio for the text is cached (memory or disk).
func (c *AudioCache) Has(text string) bool {
	key := c.hashKey(text)

	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return true
	}

	if c.cacheDir != "" {
		_, err := os.Stat(c.diskPath(key))
		return err == nil
	}
	return false
}

// Len returns the number of in-memory cached entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *AudioCache) hashKey(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) diskPath(key string) string {
	return filepath.Join(c.cacheDir, key+".wav")
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
