package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"storyreel/models"
)

// SceneMetadata is the per-scene alignment record the backend uses to stitch
// files in the right order, independent of multipart field ordering.
type SceneMetadata struct {
	ClipOrder      int     `json:"clip_order"`
	ClipDuration   float64 `json:"clip_duration"`
	Script         string  `json:"script"`
	VoiceoverOrder int     `json:"voiceover_order"`
}

// JobMetadata is the JSON `metadata` field of a render job submission.
type JobMetadata struct {
	Scenes                []SceneMetadata `json:"scenes"`
	OutputResolution      string          `json:"output_resolution"`
	BackgroundMusicVolume float64         `json:"background_music_volume"`
	VideoTitle            string          `json:"video_title"`
	VideoDescription      string          `json:"video_description"`
}

// SubmitRequest is one composite render job: ordered clip payloads, narration
// payloads aligned via the metadata, and an optional shared music track.
type SubmitRequest struct {
	Clips      [][]byte
	Voiceovers [][]byte
	Music      []byte
	Metadata   JobMetadata
}

// JobStatus is one poll response from the rendering backend.
type JobStatus struct {
	Status   string  `json:"status"`
	Progress *int    `json:"progress,omitempty"`
	VideoURL *string `json:"video_url,omitempty"`
	Error    *string `json:"error,omitempty"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
}

// Client speaks the rendering backend's wire contract: a multipart submission
// endpoint and a job-status poll endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a rendering-backend client for the service at baseURL.
func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
	}
}

// Submit sends one multipart job request and returns the backend-assigned job
// id. It performs exactly one request; retry policy belongs to the caller.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for i, clip := range req.Clips {
		part, err := writer.CreateFormFile("clips", fmt.Sprintf("clip_%03d.mp4", i))
		if err != nil {
			return "", fmt.Errorf("create clip part %d: %w", i, err)
		}
		if _, err := part.Write(clip); err != nil {
			return "", fmt.Errorf("write clip part %d: %w", i, err)
		}
	}
	for i, vo := range req.Voiceovers {
		part, err := writer.CreateFormFile("voiceovers", fmt.Sprintf("voiceover_%03d.mp3", i))
		if err != nil {
			return "", fmt.Errorf("create voiceover part %d: %w", i, err)
		}
		if _, err := part.Write(vo); err != nil {
			return "", fmt.Errorf("write voiceover part %d: %w", i, err)
		}
	}
	if len(req.Music) > 0 {
		part, err := writer.CreateFormFile("music", "music.mp3")
		if err != nil {
			return "", fmt.Errorf("create music part: %w", err)
		}
		if _, err := part.Write(req.Music); err != nil {
			return "", fmt.Errorf("write music part: %w", err)
		}
	}

	metadataJSON, err := json.Marshal(req.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal job metadata: %w", err)
	}
	if err := writer.WriteField("metadata", string(metadataJSON)); err != nil {
		return "", fmt.Errorf("write metadata field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-video", &body)
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.WithFields(logrus.Fields{
		"clips":      len(req.Clips),
		"voiceovers": len(req.Voiceovers),
		"has_music":  len(req.Music) > 0,
	}).Info("Submitting render job")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit render job: %v: %w", err, models.ErrSubmissionRejected)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("render backend returned status %d: %s: %w",
			resp.StatusCode, string(respBody), models.ErrSubmissionRejected)
	}

	var submitResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decode submit response: %v: %w", err, models.ErrSubmissionRejected)
	}
	if !submitResp.Success || submitResp.JobID == "" {
		return "", fmt.Errorf("render backend did not accept the job: %w", models.ErrSubmissionRejected)
	}

	c.logger.WithField("job_id", submitResp.JobID).Info("Render job accepted")
	return submitResp.JobID, nil
}

// PollStatus fetches the current status of a render job.
func (c *Client) PollStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/job-status/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("poll job %s: backend returned status %d", jobID, resp.StatusCode)
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode poll response for job %s: %w", jobID, err)
	}
	return &status, nil
}
