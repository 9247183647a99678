package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/okezie-c/docingest/internal/config"
	"github.com/okezie-c/docingest/internal/models"
)

// DatabaseClient backs both the job store and the vector index on one
// Postgres pool.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for a worker + API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// ClaimNext atomically claims the oldest queued job. FOR UPDATE SKIP LOCKED
// guarantees that concurrent worker processes never claim the same row; a
// contended row is simply skipped by the losing transaction.
func (c *DatabaseClient) ClaimNext(ctx context.Context) (*models.ProcessingJob, error) {
	const q = `
		UPDATE document_processing_jobs
		SET status = 'processing',
		    started_at = now(),
		    updated_at = now(),
		    progress = 0,
		    message = 'Starting document processing...'
		WHERE id = (
			SELECT id FROM document_processing_jobs
			WHERE status = 'queued'
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, status, progress, message, error_message, source_url,
		          filename, file_type, content_hash, chunks_count, total_pages,
		          processing_time_ms, created_at, started_at, completed_at
	`

	var (
		j          models.ProcessingJob
		message    sql.NullString
		errMessage sql.NullString
		startedAt  sql.NullTime
		completed  sql.NullTime
	)
	err := c.db.QueryRowContext(ctx, q).Scan(
		&j.ID, &j.Status, &j.Progress, &message, &errMessage, &j.SourceURL,
		&j.Filename, &j.FileType, &j.ContentHash, &j.ChunksCount, &j.TotalPages,
		&j.ProcessingTimeMS, &j.CreatedAt, &startedAt, &completed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}

	j.Message = message.String
	j.ErrorMessage = errMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		j.CompletedAt = &t
	}
	return &j, nil
}

// Update applies a partial status write. completed_at is stamped exactly
// when the job reaches a terminal state.
func (c *DatabaseClient) Update(ctx context.Context, jobID string, upd models.JobUpdate) error {
	sets := []string{"status = $1", "progress = $2", "updated_at = now()"}
	args := []any{string(upd.Status), upd.Progress}
	next := 3

	appendArg := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, next))
		args = append(args, v)
		next++
	}

	if upd.Message != "" {
		appendArg("message", upd.Message)
	}
	if upd.ErrorMessage != "" {
		appendArg("error_message", upd.ErrorMessage)
	}
	if upd.ChunksCount != nil {
		appendArg("chunks_count", *upd.ChunksCount)
	}
	if upd.TotalPages != nil {
		appendArg("total_pages", *upd.TotalPages)
	}
	if upd.ProcessingTimeMS != nil {
		appendArg("processing_time_ms", *upd.ProcessingTimeMS)
	}
	if upd.Status == models.JobStatusCompleted || upd.Status == models.JobStatusFailed {
		sets = append(sets, "completed_at = now()")
	}

	args = append(args, jobID)
	q := fmt.Sprintf(
		"UPDATE document_processing_jobs SET %s WHERE id = $%d",
		strings.Join(sets, ", "), next,
	)

	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}
