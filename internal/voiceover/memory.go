package voiceover

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	sceneID    int
	scriptHash string
	voiceID    string
}

// MemoryCache is an in-process Cache. It backs tests and single-node setups
// that run without Supabase; entries do not survive a restart.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[memoryKey]Entry
	blobs   Uploader

	// Lookups and Stores count cache traffic so callers can assert on it.
	Lookups int
	Stores  int
}

// NewMemoryCache creates an empty in-memory cache. blobs may be nil, in which
// case audio bytes are dropped and only the entry bookkeeping is kept.
func NewMemoryCache(blobs Uploader) *MemoryCache {
	return &MemoryCache{entries: make(map[memoryKey]Entry), blobs: blobs}
}

func (c *MemoryCache) Lookup(ctx context.Context, sceneID int, script, voiceID string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Lookups++
	entry, ok := c.entries[memoryKey{sceneID, ScriptHash(script), voiceID}]
	if !ok {
		return nil, nil
	}
	out := entry
	return &out, nil
}

func (c *MemoryCache) Store(ctx context.Context, sceneID int, script, voiceID string, audio []byte) (*Entry, error) {
	path := AudioPath(sceneID, script, voiceID)
	if c.blobs != nil {
		if _, err := c.blobs.Upload(ctx, "voiceovers", path, audio, "audio/mpeg"); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stores++
	entry := Entry{AudioPath: path, GeneratedAt: time.Now().UTC()}
	c.entries[memoryKey{sceneID, ScriptHash(script), voiceID}] = entry
	out := entry
	return &out, nil
}
