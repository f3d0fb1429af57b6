package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

// TranscriptArchive stores raw transcript payloads (WebVTT) in object
// storage. The database keeps the parsed text; the archive preserves the
// exact bytes Graph returned for audits and manual re-parsing.
type TranscriptArchive struct {
	client *minio.Client
	bucket string
}

// NewTranscriptArchive creates the archive client and ensures the bucket exists
func NewTranscriptArchive(cfg *config.StorageConfig) (*TranscriptArchive, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archive := &TranscriptArchive{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return archive, nil
}

func (a *TranscriptArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Put archives raw transcript content and returns the object key
func (a *TranscriptArchive) Put(ctx context.Context, meetingID, transcriptID, content string) (string, error) {
	key := fmt.Sprintf("transcripts/%s/%s.vtt", meetingID, transcriptID)
	reader := strings.NewReader(content)

	_, err := a.client.PutObject(ctx, a.bucket, key, reader, int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/vtt",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive transcript: %w", err)
	}
	return key, nil
}

// Get retrieves archived transcript content by object key
func (a *TranscriptArchive) Get(ctx context.Context, key string) (string, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to fetch archived transcript: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("failed to read archived transcript: %w", err)
	}
	return string(data), nil
}
