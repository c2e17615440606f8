package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"storyreel/internal/storyboard"
	"storyreel/models"
)

const (
	storyboardsTable   = "storyboards"
	renderResultsTable = "render_results"
)

// StoryboardStore persists storyboards and render results through PostgREST.
type StoryboardStore struct {
	db     *postgrest.Client
	logger *logrus.Logger
}

// New creates a StoryboardStore on the given client.
func New(db *postgrest.Client, logger *logrus.Logger) *StoryboardStore {
	return &StoryboardStore{db: db, logger: logger}
}

// Create inserts a new storyboard row and returns it as stored.
func (s *StoryboardStore) Create(ctx context.Context, rec models.StoryboardRecord) (*models.StoryboardRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Sections == nil {
		rec.Sections = []storyboard.Section{}
	}

	var results []models.StoryboardRecord
	_, err := s.db.From(storyboardsTable).
		Insert(rec, false, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("insert storyboard: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no record returned after insert, storyboard_id: %s", rec.ID)
	}

	s.logger.WithField("storyboard_id", rec.ID.String()).Info("Created storyboard")
	return &results[0], nil
}

// Get fetches a storyboard row by id, reporting models.ErrNotFound when absent.
func (s *StoryboardStore) Get(ctx context.Context, id uuid.UUID) (*models.StoryboardRecord, error) {
	bodyBytes, _, err := s.db.From(storyboardsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetch storyboard %s: %w", id, err)
	}

	var rows []models.StoryboardRecord
	if err := json.Unmarshal(bodyBytes, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal storyboard %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("storyboard %s: %w", id, models.ErrNotFound)
	}
	return &rows[0], nil
}

// UpdateSections writes back the scene tree after a structural change.
func (s *StoryboardStore) UpdateSections(ctx context.Context, id uuid.UUID, sections []storyboard.Section) error {
	return s.update(ctx, id, map[string]interface{}{"sections": sections})
}

// UpdateMeta patches title/description/music selection. Nil fields are left alone.
func (s *StoryboardStore) UpdateMeta(ctx context.Context, id uuid.UUID, title *string, description, musicID *string) error {
	fields := map[string]interface{}{}
	if title != nil {
		fields["title"] = *title
	}
	if description != nil {
		fields["description"] = *description
	}
	if musicID != nil {
		fields["music_id"] = *musicID
	}
	if len(fields) == 0 {
		return nil
	}
	return s.update(ctx, id, fields)
}

func (s *StoryboardStore) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()

	var results []models.StoryboardRecord
	_, err := s.db.From(storyboardsTable).
		Update(fields, "", "").
		Eq("id", id.String()).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("update storyboard %s: %w", id, err)
	}
	return nil
}

// SaveRenderResult archives a completed job's output and stamps the storyboard
// row with the final video reference. Called by the job monitor on completion.
func (s *StoryboardStore) SaveRenderResult(ctx context.Context, storyboardID, jobID, videoURL string) error {
	id, err := uuid.Parse(storyboardID)
	if err != nil {
		return fmt.Errorf("invalid storyboard id %q: %w", storyboardID, err)
	}
	completedAt := time.Now().UTC()

	result := models.RenderResult{
		StoryboardID: id,
		JobID:        jobID,
		VideoURL:     videoURL,
		CompletedAt:  completedAt,
	}
	var inserted []models.RenderResult
	_, err = s.db.From(renderResultsTable).
		Insert(result, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("insert render result for job %s: %w", jobID, err)
	}

	if err := s.update(ctx, id, map[string]interface{}{
		"video_url":   videoURL,
		"rendered_at": completedAt,
	}); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"storyboard_id": storyboardID, "job_id": jobID}).
		Info("Persisted render result")
	return nil
}
