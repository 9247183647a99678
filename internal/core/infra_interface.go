package core

import (
	"context"
	"io"

	"github.com/okezie-c/docingest/internal/models"
)

// JobStore defines the persistence operations the worker loop needs.
// It abstracts the Postgres job table so the worker never sees SQL.
type JobStore interface {
	// ClaimNext atomically transitions the oldest queued job to processing
	// and returns it. Returns (nil, nil) when no job is queued. Concurrent
	// callers never receive the same job.
	ClaimNext(ctx context.Context) (*models.ProcessingJob, error)

	// Update applies a partial status write to a job.
	Update(ctx context.Context, jobID string, upd models.JobUpdate) error

	Close() error
}

// VectorIndex is the similarity-searchable store keyed by deterministic ids.
// Upsert overwrites on id collision, so concurrent writers converge.
type VectorIndex interface {
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, rec models.EmbeddingRecord) error
}

// LayoutEngine converts raw document bytes into a structured document tree.
// Implementations translate their native output into the core's plain data
// shapes at the boundary.
type LayoutEngine interface {
	Convert(ctx context.Context, filePath string, contentType string) (*models.StructuredDocument, error)

	// Available reports whether the engine can accept work right now.
	Available(ctx context.Context) bool
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so AWS can be swapped for MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
