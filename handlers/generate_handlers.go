package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storyreel/internal/render"
	"storyreel/internal/resolver"
	"storyreel/models"
	"storyreel/utils"
)

// SceneReadiness is the per-scene readiness report returned from generate
// requests so the caller sees the complete picture of what is and isn't ready.
type SceneReadiness struct {
	SceneID        int     `json:"scene_id"`
	Position       int     `json:"position"`
	Ready          bool    `json:"ready"`
	ClipError      *string `json:"clip_error,omitempty"`
	NarrationError *string `json:"narration_error,omitempty"`
}

func readinessReport(res *resolver.Result) []SceneReadiness {
	report := make([]SceneReadiness, 0, len(res.Scenes))
	for i := range res.Scenes {
		scene := &res.Scenes[i]
		entry := SceneReadiness{SceneID: scene.SceneID, Position: scene.Position, Ready: scene.Ready}
		if scene.ClipErr != nil {
			msg := scene.ClipErr.Error()
			entry.ClipError = &msg
		}
		if scene.NarrationErr != nil {
			msg := scene.NarrationErr.Error()
			entry.NarrationError = &msg
		}
		report = append(report, entry)
	}
	return report
}

// GenerateVideo handles POST /api/v1/storyboards/:id/generate: it resolves all
// scene assets, submits one composite render job, and starts the job monitor.
func (h *ApplicationHandler) GenerateVideo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}

	// Cheap rejection before doing any asset work; Launch re-checks under the
	// supervisor lock in case two generate requests race.
	if m := h.Supervisor.Get(id.String()); m != nil && m.Active() {
		return utils.RespondWithError(c, fiber.StatusConflict, "A render job is already active for this storyboard")
	}

	rec, err := h.Store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Storyboard not found")
		}
		h.Logger.WithField("error", err.Error()).Error("Failed to fetch storyboard")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve storyboard")
	}

	board := rec.Board()
	res, err := h.Resolver.Resolve(c.Context(), board)
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Asset resolution failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Asset resolution failed")
	}

	// Write freshly resolved voiceover references back onto the scene tree so
	// the persisted storyboard reflects what the cache now holds.
	flat := board.Flatten()
	changed := false
	for i := range res.Scenes {
		path := res.Scenes[i].NarrationPath
		if path == "" || i >= len(flat) {
			continue
		}
		if flat[i].VoiceoverRef == nil || *flat[i].VoiceoverRef != path {
			ref := path
			flat[i].VoiceoverRef = &ref
			changed = true
		}
	}
	if changed {
		if err := h.Store.UpdateSections(c.Context(), id, board.Sections); err != nil {
			h.Logger.WithField("error", err.Error()).Warn("Failed to persist voiceover references")
		}
	}

	opts := h.SubmitOptions
	opts.VideoTitle = rec.Title
	if rec.Description != nil {
		opts.VideoDescription = *rec.Description
	}

	jobID, err := h.Submitter.Submit(c.Context(), res, opts)
	if err != nil {
		if errors.Is(err, models.ErrValidationFailed) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"status":  "error",
				"message": "No scene is ready for rendering",
				"scenes":  readinessReport(res),
			})
		}
		h.Logger.WithField("error", err.Error()).Error("Render job submission rejected")
		return utils.RespondWithError(c, fiber.StatusBadGateway, fmt.Sprintf("Render job submission failed: %v", err))
	}

	monitor := render.NewMonitor(id.String(), jobID, h.Backend, h.Store, h.Logger, h.PollInterval, h.JobTimeout)
	if err := h.Supervisor.Launch(monitor); err != nil {
		if errors.Is(err, models.ErrJobAlreadyActive) {
			return utils.RespondWithError(c, fiber.StatusConflict, "A render job is already active for this storyboard")
		}
		h.Logger.WithField("error", err.Error()).Error("Failed to launch job monitor")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not start job monitoring")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"job_id":       jobID,
			"ready_scenes": res.ReadyCount(),
			"scenes":       readinessReport(res),
		},
	})
}

// GetRenderJob handles GET /api/v1/storyboards/:id/job.
func (h *ApplicationHandler) GetRenderJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}

	monitor := h.Supervisor.Get(id.String())
	if monitor == nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "No render job for this storyboard")
	}

	snap := monitor.Snapshot()
	data := fiber.Map{
		"job_id":   snap.JobID,
		"status":   string(snap.Status),
		"progress": snap.Progress,
	}
	if snap.ResultURL != "" {
		data["video_url"] = snap.ResultURL
	}
	if snap.Err != nil {
		data["error"] = snap.Err.Error()
		if errors.Is(snap.Err, models.ErrJobTimeout) {
			data["error_kind"] = "timeout"
		} else if errors.Is(snap.Err, models.ErrJobFailed) {
			data["error_kind"] = "backend_failure"
		}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, data)
}

// CancelRenderJob handles POST /api/v1/storyboards/:id/job/cancel. It stops
// monitoring only; the backend job keeps running to completion on its own.
func (h *ApplicationHandler) CancelRenderJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}

	if err := h.Supervisor.Cancel(id.String()); err != nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "No render job for this storyboard")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"cancelled": true})
}
