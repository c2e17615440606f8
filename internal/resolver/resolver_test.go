package resolver_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel/internal/mediastore"
	"storyreel/internal/resolver"
	"storyreel/internal/storyboard"
	"storyreel/internal/voiceover"
	"storyreel/models"
)

func strPtr(s string) *string { return &s }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fakeBlobStore is an in-memory media store counting fetches per object.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fetches map[string]int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, fetches: map[string]int{}}
}

func (f *fakeBlobStore) put(bucket, path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+path] = data
}

func (f *fakeBlobStore) Fetch(ctx context.Context, bucket, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := bucket + "/" + path
	f.fetches[key]++
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", key, models.ErrNotFound)
	}
	return data, nil
}

func (f *fakeBlobStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	f.put(bucket, path, data)
	return path, nil
}

func (f *fakeBlobStore) fetchCount(bucket, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[bucket+"/"+path]
}

// fakeSynth counts synthesis calls and returns deterministic audio.
type fakeSynth struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("synthesis backend unavailable")
	}
	return []byte("audio:" + voiceID + ":" + text), nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func twoSceneBoard() *storyboard.Storyboard {
	board := &storyboard.Storyboard{
		Sections: []storyboard.Section{{
			Label: "Hook",
			Scenes: []storyboard.Scene{
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/a.mp4"), Script: strPtr("Hello"), VoiceID: strPtr("v1")},
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/b.mp4"), Script: strPtr("Hello"), VoiceID: strPtr("v1")},
			},
		}},
	}
	board.Renumber()
	return board
}

func TestResolve_CacheBehavior(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.put(mediastore.BucketClips, "uploads/a.mp4", []byte("clip-a"))
	blobs.put(mediastore.BucketClips, "uploads/b.mp4", []byte("clip-b"))
	synth := &fakeSynth{}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())
	board := twoSceneBoard()

	// First pass: identical scripts but distinct scene ids mean distinct
	// cache keys, so both scenes synthesize.
	res, err := r.Resolve(context.Background(), board)
	require.NoError(t, err)
	assert.Equal(t, 2, synth.callCount())
	assert.Equal(t, 2, res.ReadyCount())
	for i := range res.Scenes {
		assert.True(t, res.Scenes[i].Ready)
		assert.NotEmpty(t, res.Scenes[i].Narration)
		assert.NotEmpty(t, res.Scenes[i].NarrationPath)
	}

	// Second pass of the same storyboard: all hits, zero synthesis.
	_, err = r.Resolve(context.Background(), board)
	require.NoError(t, err)
	assert.Equal(t, 2, synth.callCount())
}

func TestResolve_CacheInvalidation(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.put(mediastore.BucketClips, "uploads/a.mp4", []byte("clip-a"))
	blobs.put(mediastore.BucketClips, "uploads/b.mp4", []byte("clip-b"))
	synth := &fakeSynth{}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())
	board := twoSceneBoard()

	_, err := r.Resolve(context.Background(), board)
	require.NoError(t, err)
	require.Equal(t, 2, synth.callCount())

	t.Run("edited script misses the cache", func(t *testing.T) {
		board.Sections[0].Scenes[0].Script = strPtr("Goodbye")
		_, err := r.Resolve(context.Background(), board)
		require.NoError(t, err)
		assert.Equal(t, 3, synth.callCount())
	})

	t.Run("changed voice misses the cache", func(t *testing.T) {
		board.Sections[0].Scenes[1].VoiceID = strPtr("v2")
		_, err := r.Resolve(context.Background(), board)
		require.NoError(t, err)
		assert.Equal(t, 4, synth.callCount())
	})
}

func TestResolve_CollectsPerSceneErrors(t *testing.T) {
	blobs := newFakeBlobStore()
	// Only the second scene's clip exists.
	blobs.put(mediastore.BucketClips, "uploads/b.mp4", []byte("clip-b"))
	synth := &fakeSynth{}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())
	board := twoSceneBoard()

	res, err := r.Resolve(context.Background(), board)
	require.NoError(t, err, "a missing clip must not abort the pass")

	assert.ErrorIs(t, res.Scenes[0].ClipErr, models.ErrNotFound)
	assert.False(t, res.Scenes[0].Ready)
	assert.NoError(t, res.Scenes[1].ClipErr)
	assert.True(t, res.Scenes[1].Ready)
	assert.Equal(t, 1, res.ReadyCount())
}

func TestResolve_SynthesisFailure(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.put(mediastore.BucketClips, "uploads/a.mp4", []byte("clip-a"))
	blobs.put(mediastore.BucketClips, "uploads/b.mp4", []byte("clip-b"))
	synth := &fakeSynth{fail: true}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())

	res, err := r.Resolve(context.Background(), twoSceneBoard())
	require.NoError(t, err)

	for i := range res.Scenes {
		assert.ErrorIs(t, res.Scenes[i].NarrationErr, models.ErrSynthesisFailed)
		assert.False(t, res.Scenes[i].Ready)
	}
	assert.Equal(t, 0, res.ReadyCount())
}

func TestResolve_SharedClipFetchedOnce(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.put(mediastore.BucketClips, "uploads/shared.mp4", []byte("clip"))
	synth := &fakeSynth{}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())

	board := &storyboard.Storyboard{
		Sections: []storyboard.Section{{
			Scenes: []storyboard.Scene{
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/shared.mp4")},
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/shared.mp4")},
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/shared.mp4")},
			},
		}},
	}
	board.Renumber()

	res, err := r.Resolve(context.Background(), board)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ReadyCount())
	assert.Equal(t, 1, blobs.fetchCount(mediastore.BucketClips, "uploads/shared.mp4"))
}

func TestResolve_Music(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.put(mediastore.BucketClips, "uploads/a.mp4", []byte("clip-a"))
	blobs.put(mediastore.BucketMusic, "calm.mp3", []byte("music"))
	synth := &fakeSynth{}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())

	board := &storyboard.Storyboard{
		MusicID: strPtr("calm.mp3"),
		Sections: []storyboard.Section{{
			Scenes: []storyboard.Scene{
				// Scene-level music is advisory; only the storyboard selection is fetched.
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/a.mp4"), MusicID: strPtr("other.mp3")},
			},
		}},
	}
	board.Renumber()

	res, err := r.Resolve(context.Background(), board)
	require.NoError(t, err)
	assert.Equal(t, []byte("music"), res.Music)
	assert.NoError(t, res.MusicErr)
	assert.Equal(t, 0, blobs.fetchCount(mediastore.BucketMusic, "other.mp3"))
}

func TestResolve_ScriptWithoutVoiceDoesNotBlockReadiness(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.put(mediastore.BucketClips, "uploads/a.mp4", []byte("clip-a"))
	synth := &fakeSynth{}
	cache := voiceover.NewMemoryCache(blobs)
	r := resolver.New(cache, blobs, synth, testLogger())

	board := &storyboard.Storyboard{
		Sections: []storyboard.Section{{
			Scenes: []storyboard.Scene{
				{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/a.mp4"), Script: strPtr("unvoiced")},
			},
		}},
	}
	board.Renumber()

	res, err := r.Resolve(context.Background(), board)
	require.NoError(t, err)
	assert.True(t, res.Scenes[0].Ready)
	assert.Equal(t, 0, synth.callCount())
	assert.Empty(t, res.Scenes[0].Narration)
}
