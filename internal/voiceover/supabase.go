package voiceover

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"storyreel/internal/mediastore"
	"storyreel/models"
)

const cacheTable = "voiceover_cache"

// Uploader is the slice of the media store the cache needs for writing audio.
type Uploader interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}

// SupabaseCache persists cache entries in the voiceover_cache table and the
// audio bytes in the voiceovers storage bucket.
type SupabaseCache struct {
	db     *postgrest.Client
	blobs  Uploader
	logger *logrus.Logger
}

// NewSupabaseCache creates a cache backed by the given postgrest client and blob store.
func NewSupabaseCache(db *postgrest.Client, blobs Uploader, logger *logrus.Logger) *SupabaseCache {
	return &SupabaseCache{db: db, blobs: blobs, logger: logger}
}

// Lookup returns the cached entry for the key, or nil on a miss. It never
// touches the synthesis service.
func (c *SupabaseCache) Lookup(ctx context.Context, sceneID int, script, voiceID string) (*Entry, error) {
	bodyBytes, _, err := c.db.From(cacheTable).
		Select("*", "", false).
		Eq("scene_id", strconv.Itoa(sceneID)).
		Eq("script_hash", ScriptHash(script)).
		Eq("voice_id", voiceID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("voiceover cache lookup for scene %d: %w", sceneID, err)
	}

	var rows []models.VoiceoverCacheEntry
	if err := json.Unmarshal(bodyBytes, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal voiceover cache rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &Entry{AudioPath: rows[0].AudioPath, GeneratedAt: rows[0].GeneratedAt}, nil
}

// Store uploads the audio before writing the row, so a concurrent lookup
// either misses or sees a fully written object; a half-finished store is never
// observable as a hit. Re-storing an identical key overwrites both blob and row.
func (c *SupabaseCache) Store(ctx context.Context, sceneID int, script, voiceID string, audio []byte) (*Entry, error) {
	path := AudioPath(sceneID, script, voiceID)
	if _, err := c.blobs.Upload(ctx, mediastore.BucketVoiceovers, path, audio, "audio/mpeg"); err != nil {
		return nil, fmt.Errorf("store voiceover audio for scene %d: %w", sceneID, err)
	}

	row := models.VoiceoverCacheEntry{
		SceneID:     sceneID,
		ScriptHash:  ScriptHash(script),
		VoiceID:     voiceID,
		AudioPath:   path,
		GeneratedAt: time.Now().UTC(),
	}
	var results []models.VoiceoverCacheEntry
	_, err := c.db.From(cacheTable).
		Insert(row, true, "scene_id,script_hash,voice_id", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("upsert voiceover cache row for scene %d: %w", sceneID, err)
	}

	c.logger.WithFields(logrus.Fields{"scene_id": sceneID, "voice_id": voiceID, "path": path}).
		Info("Stored voiceover cache entry")
	return &Entry{AudioPath: row.AudioPath, GeneratedAt: row.GeneratedAt}, nil
}
