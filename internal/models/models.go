package models

import (
	"time"
)

// ContentType classifies a chunk's primary payload.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeTable ContentType = "table"
)

// Coordinates is a bounding box on the source page, in page units.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TableStructure carries the recognized cell matrix of a table element.
type TableStructure struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Caption string     `json:"caption,omitempty"`
}

// ContentChunk is the smallest retrievable unit of document content.
// Content is always populated, even for image and table chunks where it
// holds a human-readable summary. Chunks are immutable once produced.
type ContentChunk struct {
	Content        string          `json:"content"`
	ContentType    ContentType     `json:"content_type"`
	Page           int             `json:"page,omitempty"` // 1-based
	Coordinates    *Coordinates    `json:"coordinates,omitempty"`
	ImageData      string          `json:"image_data,omitempty"` // base64 inline payload
	ImageURL       string          `json:"image_url,omitempty"`  // set when uploaded to object storage
	TableStructure *TableStructure `json:"table_structure,omitempty"`
}

// JobStatus is the lifecycle state of a processing job.
// Transitions are monotonic forward: queued → processing → {completed|failed}.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ProcessingJob is the persisted unit of work. Rows are created by the
// upstream submission API in "queued"; exactly one worker claims and
// mutates a row until it reaches a terminal state.
type ProcessingJob struct {
	ID               string     `db:"id" json:"id"`
	Status           JobStatus  `db:"status" json:"status"`
	Progress         int        `db:"progress" json:"progress"` // 0..100
	Message          string     `db:"message" json:"message,omitempty"`
	ErrorMessage     string     `db:"error_message" json:"error_message,omitempty"`
	SourceURL        string     `db:"source_url" json:"source_url"`
	Filename         string     `db:"filename" json:"filename"`
	FileType         string     `db:"file_type" json:"file_type"`
	ContentHash      string     `db:"content_hash" json:"content_hash"`
	ChunksCount      int        `db:"chunks_count" json:"chunks_count"`
	TotalPages       int        `db:"total_pages" json:"total_pages"`
	ProcessingTimeMS int64      `db:"processing_time_ms" json:"processing_time_ms"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	StartedAt        *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// JobUpdate is a partial status write against a claimed job.
// Nil pointer fields are left untouched in the store.
type JobUpdate struct {
	Status           JobStatus
	Progress         int
	Message          string
	ErrorMessage     string
	ChunksCount      *int
	TotalPages       *int
	ProcessingTimeMS *int64
}

// EmbeddingMetadata is the payload stored alongside a vector.
type EmbeddingMetadata struct {
	Content          string       `json:"content"` // truncated, see store adapter
	Source           string       `json:"source"`
	Page             int          `json:"page"`
	Filename         string       `json:"filename"`
	ContentHash      string       `json:"content_hash"`
	ContentType      ContentType  `json:"content_type"`
	Section          string       `json:"section,omitempty"`
	RelatedImageURLs []string     `json:"related_image_urls,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
}

// EmbeddingRecord is one persisted vector entry. ID is a pure function of
// the chunk content and metadata so re-processing the same logical chunk
// yields the same id (the dedup key).
type EmbeddingRecord struct {
	ID       string
	Vector   []float32
	Metadata EmbeddingMetadata
}

// TextSpan is one text fragment with page provenance, produced by a layout
// engine binding. Page is always 1-based by the time it reaches the core.
type TextSpan struct {
	Text        string
	Page        int
	Coordinates *Coordinates
}

// Picture is one image element with its raw payload already resolved by the
// layout binding (bindings perform any accessor probing at the boundary).
type Picture struct {
	Data        []byte // raw encoded image bytes, nil when unresolvable
	Page        int
	Coordinates *Coordinates
}

// Table is one recognized table element.
type Table struct {
	Page        int
	Headers     []string
	Rows        [][]string
	Caption     string
	Coordinates *Coordinates
}

// StructuredDocument is the layout engine's output translated into plain
// data shapes the core can walk without speculative attribute probing.
type StructuredDocument struct {
	TotalPages int
	Texts      []TextSpan
	Pictures   []Picture
	Tables     []Table
}

// ProcessingResponse is the synchronous /process-document reply.
type ProcessingResponse struct {
	Success        bool           `json:"success"`
	Chunks         []ContentChunk `json:"chunks"`
	TotalPages     int            `json:"total_pages"`
	ProcessingTime float64        `json:"processing_time"` // seconds
	Error          string         `json:"error,omitempty"`
}
