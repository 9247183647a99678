package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/okezie-c/docingest/internal/models"
)

// Exists reports whether an embedding record with the given deterministic
// id is already indexed.
func (c *DatabaseClient) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM document_embeddings WHERE id = $1)`
	var exists bool
	if err := c.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("embedding exists check: %w", err)
	}
	return exists, nil
}

// Upsert writes an embedding record, overwriting on id collision so
// concurrent writers converge on last-write-wins.
func (c *DatabaseClient) Upsert(ctx context.Context, rec models.EmbeddingRecord) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal embedding metadata: %w", err)
	}

	const q = `
		INSERT INTO document_embeddings (id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding,
		    metadata = EXCLUDED.metadata
	`
	vec := pgvector.NewVector(rec.Vector)
	if _, err := c.db.ExecContext(ctx, q, rec.ID, vec, metaJSON); err != nil {
		return fmt.Errorf("upsert embedding %s: %w", rec.ID, err)
	}
	return nil
}
