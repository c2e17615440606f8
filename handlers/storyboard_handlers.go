package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storyreel/internal/storyboard"
	"storyreel/models"
	"storyreel/utils"
)

// ScenePayload is the wire shape of a scene at creation time. Ids are never
// accepted from the client; renumbering assigns them.
type ScenePayload struct {
	Kind              string   `json:"kind" validate:"required,oneof=text image video"`
	Content           string   `json:"content"`
	Script            *string  `json:"script,omitempty"`
	VoiceID           *string  `json:"voice_id,omitempty"`
	ClipID            *string  `json:"clip_id,omitempty"`
	MusicID           *string  `json:"music_id,omitempty"`
	CharactersInScene []string `json:"characters_in_scene,omitempty" validate:"omitempty,max=3"`
	SpeakerCharacter  *string  `json:"speaker_character_id,omitempty"`
}

func (p *ScenePayload) toScene() storyboard.Scene {
	return storyboard.Scene{
		Kind:              storyboard.SceneKind(p.Kind),
		Content:           p.Content,
		Script:            p.Script,
		VoiceID:           p.VoiceID,
		ClipID:            p.ClipID,
		MusicID:           p.MusicID,
		CharactersInScene: p.CharactersInScene,
		SpeakerCharacter:  p.SpeakerCharacter,
	}
}

// SectionPayload is the wire shape of a section at creation time.
type SectionPayload struct {
	Label       string         `json:"label" validate:"required"`
	Description string         `json:"description"`
	Scenes      []ScenePayload `json:"scenes" validate:"dive"`
}

// CreateStoryboardRequest defines the expected request body for creating a storyboard.
type CreateStoryboardRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description *string          `json:"description,omitempty"`
	MusicID     *string          `json:"music_id,omitempty"`
	Sections    []SectionPayload `json:"sections" validate:"dive"`
}

// CreateStoryboard handles POST /api/v1/storyboards.
func (h *ApplicationHandler) CreateStoryboard(c *fiber.Ctx) error {
	req := new(CreateStoryboardRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse storyboard JSON: %v", err))
	}
	if err := h.Validate.Struct(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Invalid storyboard: %v", utils.FormatValidationErrors(err)))
	}

	board := &storyboard.Storyboard{MusicID: req.MusicID}
	for _, sp := range req.Sections {
		section := storyboard.Section{Label: sp.Label, Description: sp.Description}
		for i := range sp.Scenes {
			section.Scenes = append(section.Scenes, sp.Scenes[i].toScene())
		}
		board.Sections = append(board.Sections, section)
	}
	board.Renumber()

	rec, err := h.Store.Create(c.Context(), models.StoryboardRecord{
		Title:       req.Title,
		Description: req.Description,
		MusicID:     req.MusicID,
		Sections:    board.Sections,
	})
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Failed to create storyboard")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create storyboard")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, rec)
}

// GetStoryboard handles GET /api/v1/storyboards/:id.
func (h *ApplicationHandler) GetStoryboard(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}

	rec, err := h.Store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Storyboard not found")
		}
		h.Logger.WithField("error", err.Error()).Error("Failed to fetch storyboard")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve storyboard")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, rec)
}

// UpdateStoryboardRequest patches top-level storyboard fields.
type UpdateStoryboardRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	MusicID     *string `json:"music_id,omitempty"`
}

// UpdateStoryboard handles PATCH /api/v1/storyboards/:id.
func (h *ApplicationHandler) UpdateStoryboard(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}
	req := new(UpdateStoryboardRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse update JSON: %v", err))
	}

	if err := h.Store.UpdateMeta(c.Context(), id, req.Title, req.Description, req.MusicID); err != nil {
		h.Logger.WithField("error", err.Error()).Error("Failed to update storyboard")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not update storyboard")
	}
	rec, err := h.Store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Storyboard not found")
		}
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve storyboard")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, rec)
}

// InsertSceneRequest places a new scene at a section/position.
type InsertSceneRequest struct {
	SectionIndex int          `json:"section_index"`
	Position     int          `json:"position"`
	Scene        ScenePayload `json:"scene" validate:"required"`
}

// InsertScene handles POST /api/v1/storyboards/:id/scenes.
func (h *ApplicationHandler) InsertScene(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}
	req := new(InsertSceneRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse scene JSON: %v", err))
	}
	if err := h.Validate.Struct(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Invalid scene: %v", utils.FormatValidationErrors(err)))
	}

	return h.mutateBoard(c, id, func(board *storyboard.Storyboard) error {
		return board.InsertScene(req.SectionIndex, req.Position, req.Scene.toScene())
	})
}

// RemoveScene handles DELETE /api/v1/storyboards/:id/scenes/:sceneId.
func (h *ApplicationHandler) RemoveScene(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}
	sceneID, err := strconv.Atoi(c.Params("sceneId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid scene ID format")
	}

	return h.mutateBoard(c, id, func(board *storyboard.Storyboard) error {
		return board.RemoveScene(sceneID)
	})
}

// ReorderRequest moves a scene between flattened timeline positions.
type ReorderRequest struct {
	SourceIndex      int `json:"source_index"`
	DestinationIndex int `json:"destination_index"`
}

// ReorderScenes handles POST /api/v1/storyboards/:id/reorder.
func (h *ApplicationHandler) ReorderScenes(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid storyboard ID format")
	}
	req := new(ReorderRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse reorder JSON: %v", err))
	}

	return h.mutateBoard(c, id, func(board *storyboard.Storyboard) error {
		return board.Reorder(req.SourceIndex, req.DestinationIndex)
	})
}

// mutateBoard loads the storyboard, applies a structural change, and persists
// the renumbered scene tree.
func (h *ApplicationHandler) mutateBoard(c *fiber.Ctx, id uuid.UUID, mutate func(*storyboard.Storyboard) error) error {
	rec, err := h.Store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Storyboard not found")
		}
		h.Logger.WithField("error", err.Error()).Error("Failed to fetch storyboard")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve storyboard")
	}

	board := rec.Board()
	if err := mutate(board); err != nil {
		if errors.Is(err, storyboard.ErrSceneNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, err.Error())
		}
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.Store.UpdateSections(c.Context(), id, board.Sections); err != nil {
		h.Logger.WithField("error", err.Error()).Error("Failed to persist storyboard sections")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not persist storyboard")
	}

	rec.Sections = board.Sections
	return utils.RespondWithJSON(c, fiber.StatusOK, rec)
}
