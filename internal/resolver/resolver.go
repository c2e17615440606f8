package resolver

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"storyreel/internal/mediastore"
	"storyreel/internal/storyboard"
	"storyreel/internal/voiceover"
	"storyreel/models"
)

// Fetcher is the slice of the media store the resolver reads assets through.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, path string) ([]byte, error)
}

// Synthesizer produces narration audio from text and a voice id.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// SceneResult carries the resolved payloads for one scene, aligned with its
// flattened position, plus the per-scene errors that explain anything missing.
type SceneResult struct {
	SceneID  int
	Position int
	Script   string

	Clip          []byte
	Narration     []byte
	NarrationPath string // cache audio path, for writing back as the scene's voiceoverRef

	ClipErr      error
	NarrationErr error

	// Ready gates submission: the clip resolved, and narration either resolved
	// or was never wanted (no script, or no voice assigned).
	Ready bool
}

// Result is a complete readiness picture for one resolution pass. Scene errors
// are collected here rather than aborting the pass, so the caller always sees
// the full storyboard's state.
type Result struct {
	Scenes   []SceneResult
	Music    []byte
	MusicErr error
}

// ReadyCount returns how many scenes are submittable.
func (r *Result) ReadyCount() int {
	n := 0
	for i := range r.Scenes {
		if r.Scenes[i].Ready {
			n++
		}
	}
	return n
}

// Resolver turns a storyboard's stored references into binary payloads. It is
// cache-first for narration: the voiceover cache is consulted before every
// synthesis call, and every fresh synthesis is stored back before use, so
// re-resolving an unchanged storyboard performs zero synthesis calls.
type Resolver struct {
	cache  voiceover.Cache
	blobs  Fetcher
	synth  Synthesizer
	logger *logrus.Logger
}

// New creates a Resolver with its collaborators.
func New(cache voiceover.Cache, blobs Fetcher, synth Synthesizer, logger *logrus.Logger) *Resolver {
	return &Resolver{cache: cache, blobs: blobs, synth: synth, logger: logger}
}

type clipFetch struct {
	data []byte
	err  error
}

// Resolve walks the flattened storyboard and resolves every scene's clip and
// narration plus the storyboard-level music track. Independent fetches run
// concurrently and the call returns only once all of them have finished.
// Duplicate clip references are downloaded once per pass.
func (r *Resolver) Resolve(ctx context.Context, board *storyboard.Storyboard) (*Result, error) {
	flat := board.Flatten()
	result := &Result{Scenes: make([]SceneResult, len(flat))}

	// One fetch slot per distinct clip path, allocated up front so the
	// goroutines below write to disjoint structs without a lock.
	clips := make(map[string]*clipFetch)
	for _, scene := range flat {
		if scene.ClipID != nil && *scene.ClipID != "" {
			clips[*scene.ClipID] = &clipFetch{}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	for path, slot := range clips {
		path, slot := path, slot
		g.Go(func() error {
			slot.data, slot.err = r.blobs.Fetch(gctx, mediastore.BucketClips, path)
			return nil
		})
	}

	for i, scene := range flat {
		i, scene := i, scene
		result.Scenes[i].SceneID = scene.ID
		result.Scenes[i].Position = i
		if scene.Script != nil {
			result.Scenes[i].Script = *scene.Script
		}
		if !scene.HasNarration() {
			continue
		}
		g.Go(func() error {
			audio, path, err := r.resolveNarration(gctx, scene)
			result.Scenes[i].Narration = audio
			result.Scenes[i].NarrationPath = path
			result.Scenes[i].NarrationErr = err
			return nil
		})
	}

	if board.MusicID != nil && *board.MusicID != "" {
		musicID := *board.MusicID
		g.Go(func() error {
			result.Music, result.MusicErr = r.blobs.Fetch(gctx, mediastore.BucketMusic, musicID)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve storyboard: %w", err)
	}

	for i, scene := range flat {
		res := &result.Scenes[i]
		if scene.ClipID == nil || *scene.ClipID == "" {
			res.ClipErr = fmt.Errorf("scene %d has no clip: %w", scene.ID, models.ErrNotFound)
		} else {
			slot := clips[*scene.ClipID]
			res.Clip = slot.data
			res.ClipErr = slot.err
		}
		res.Ready = res.ClipErr == nil && (!scene.HasNarration() || res.NarrationErr == nil)
	}

	r.logger.WithFields(logrus.Fields{
		"scenes": len(flat),
		"ready":  result.ReadyCount(),
	}).Info("Storyboard resolution finished")
	return result, nil
}

// resolveNarration fetches cached narration for the scene or synthesizes it on
// a miss, storing the fresh audio before returning it. An unreadable cached
// blob is treated as a miss and regenerated rather than failing the scene.
func (r *Resolver) resolveNarration(ctx context.Context, scene *storyboard.Scene) (audio []byte, path string, err error) {
	script, voiceID := *scene.Script, *scene.VoiceID

	entry, err := r.cache.Lookup(ctx, scene.ID, script, voiceID)
	if err != nil {
		return nil, "", fmt.Errorf("cache lookup for scene %d: %v: %w", scene.ID, err, models.ErrSynthesisFailed)
	}
	if entry != nil {
		audio, fetchErr := r.blobs.Fetch(ctx, mediastore.BucketVoiceovers, entry.AudioPath)
		if fetchErr == nil {
			return audio, entry.AudioPath, nil
		}
		r.logger.WithFields(logrus.Fields{"scene_id": scene.ID, "path": entry.AudioPath}).
			Warn("Cached narration audio unreadable, regenerating")
	}

	audio, synthErr := r.synth.Synthesize(ctx, script, voiceID)
	if synthErr != nil {
		return nil, "", fmt.Errorf("synthesize narration for scene %d: %v: %w", scene.ID, synthErr, models.ErrSynthesisFailed)
	}
	stored, storeErr := r.cache.Store(ctx, scene.ID, script, voiceID, audio)
	if storeErr != nil {
		return nil, "", fmt.Errorf("store narration for scene %d: %v: %w", scene.ID, storeErr, models.ErrSynthesisFailed)
	}
	return audio, stored.AudioPath, nil
}
