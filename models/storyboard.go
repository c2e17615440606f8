package models

import (
	"time"

	"github.com/google/uuid"

	"storyreel/internal/storyboard"
)

// StoryboardRecord represents a row of the storyboards table. Sections carry
// the full scene tree as JSONB.
type StoryboardRecord struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description *string              `json:"description,omitempty"`
	MusicID     *string              `json:"music_id,omitempty"` // storyboard-level selection, authoritative for the render
	Sections    []storyboard.Section `json:"sections"`
	VideoURL    *string              `json:"video_url,omitempty"`  // set when a render completes
	RenderedAt  *time.Time           `json:"rendered_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Board reconstructs the in-memory storyboard from a record.
func (r *StoryboardRecord) Board() *storyboard.Storyboard {
	return &storyboard.Storyboard{Sections: r.Sections, MusicID: r.MusicID}
}

// RenderResult represents a row of the render_results table, written once per
// completed job.
type RenderResult struct {
	StoryboardID uuid.UUID `json:"storyboard_id"`
	JobID        string    `json:"job_id"`
	VideoURL     string    `json:"video_url"`
	CompletedAt  time.Time `json:"completed_at"`
}
