package mediastore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	storage_go "github.com/supabase-community/storage-go"

	"storyreel/models"
)

// Bucket names used by the composition pipeline.
const (
	BucketClips      = "clips"
	BucketMusic      = "music"
	BucketVoiceovers = "voiceovers"
)

// Store wraps the Supabase storage client for clip, music and narration blobs.
type Store struct {
	client *storage_go.Client
	logger *logrus.Logger
}

// New creates a Store backed by the given Supabase storage client.
func New(client *storage_go.Client, logger *logrus.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Upload writes data to bucket/path, overwriting any existing object at that
// path, and returns the storage path. Overwrite matters for the voiceover
// cache: re-storing under an identical key must replace the old audio.
func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	s.logger.WithFields(logrus.Fields{"bucket": bucket, "path": path, "bytes": len(data)}).
		Info("Uploaded object to storage")
	return path, nil
}

// Fetch retrieves the object at bucket/path. Download failures surface as
// models.ErrNotFound: for resolution purposes the asset is unavailable either way.
func (s *Store) Fetch(ctx context.Context, bucket, path string) ([]byte, error) {
	data, err := s.client.DownloadFile(bucket, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %v: %w", bucket, path, err, models.ErrNotFound)
	}
	return data, nil
}

// SignedURL returns a time-limited retrieval URL for the object at bucket/path.
func (s *Store) SignedURL(ctx context.Context, bucket, path string, expiresInSeconds int) (string, error) {
	resp, err := s.client.CreateSignedUrl(bucket, path, expiresInSeconds)
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, path, err)
	}
	return resp.SignedURL, nil
}
