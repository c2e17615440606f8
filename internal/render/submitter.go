package render

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"storyreel/internal/resolver"
	"storyreel/models"
)

// BackendSubmitter is the slice of the backend client the submitter depends
// on, so tests can count submissions without a live backend.
type BackendSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
}

// SubmitOptions carry the job-level knobs that end up in the metadata field.
type SubmitOptions struct {
	OutputResolution      string
	BackgroundMusicVolume float64
	SceneDuration         float64
	VideoTitle            string
	VideoDescription      string
}

// Submitter packages a resolution result into one render job request. Scenes
// that failed resolution are left out; their errors stay visible in the
// resolver result the caller already holds.
type Submitter struct {
	backend BackendSubmitter
	logger  *logrus.Logger
}

// NewSubmitter creates a Submitter sending jobs through the given backend.
func NewSubmitter(backend BackendSubmitter, logger *logrus.Logger) *Submitter {
	return &Submitter{backend: backend, logger: logger}
}

// Submit builds and sends the composite job request. With zero ready scenes it
// fails fast with models.ErrValidationFailed before any network traffic.
func (s *Submitter) Submit(ctx context.Context, res *resolver.Result, opts SubmitOptions) (string, error) {
	if res.ReadyCount() == 0 {
		return "", fmt.Errorf("no scene is ready for rendering: %w", models.ErrValidationFailed)
	}

	req := SubmitRequest{
		Music: res.Music,
		Metadata: JobMetadata{
			OutputResolution:      opts.OutputResolution,
			BackgroundMusicVolume: opts.BackgroundMusicVolume,
			VideoTitle:            opts.VideoTitle,
			VideoDescription:      opts.VideoDescription,
		},
	}

	for i := range res.Scenes {
		scene := &res.Scenes[i]
		if !scene.Ready {
			s.logger.WithFields(logrus.Fields{"scene_id": scene.SceneID, "position": scene.Position}).
				Warn("Skipping scene that is not ready")
			continue
		}

		voiceoverOrder := -1
		if len(scene.Narration) > 0 {
			voiceoverOrder = len(req.Voiceovers)
			req.Voiceovers = append(req.Voiceovers, scene.Narration)
		}
		req.Metadata.Scenes = append(req.Metadata.Scenes, SceneMetadata{
			ClipOrder:      len(req.Clips),
			ClipDuration:   opts.SceneDuration,
			Script:         scene.Script,
			VoiceoverOrder: voiceoverOrder,
		})
		req.Clips = append(req.Clips, scene.Clip)
	}

	return s.backend.Submit(ctx, req)
}
