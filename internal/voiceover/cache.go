package voiceover

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Entry is a cached narration reference: where the audio lives and when it was
// generated. Entries are created only by successful synthesis and are replaced,
// never mutated.
type Entry struct {
	AudioPath   string
	GeneratedAt time.Time
}

// Cache is the content-addressed voiceover store. The key is the content
// identity of a narration: scene id plus the exact script text and voice.
// Changing either script or voice is a different key, so stale audio can never
// be served for edited narration.
//
// Lookup never triggers synthesis. Store is idempotent under key collision:
// re-storing for an identical key overwrites.
type Cache interface {
	// Lookup returns the cached entry for the key, or nil when absent.
	Lookup(ctx context.Context, sceneID int, script, voiceID string) (*Entry, error)
	// Store persists freshly synthesized audio under the key and returns its entry.
	Store(ctx context.Context, sceneID int, script, voiceID string, audio []byte) (*Entry, error)
}

// ScriptHash returns the content hash used in cache keys and audio paths.
func ScriptHash(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// AudioPath returns the canonical storage path for a cache key inside the
// voiceovers bucket.
func AudioPath(sceneID int, script, voiceID string) string {
	return fmt.Sprintf("%d/%s_%s.mp3", sceneID, ScriptHash(script), voiceID)
}
