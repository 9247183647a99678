package ingestion_engine

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/models"
)

// metadataContentLimit caps the content copy stored in vector metadata.
const metadataContentLimit = 40000

// EmbedStore converts content chunks into embedding records and upserts
// them into the vector index, skipping records that already exist. Ids are
// content-derived, so re-processing an unchanged document is a no-op.
type EmbedStore struct {
	embedder core.EmbeddingProvider
	index    core.VectorIndex
	pacing   time.Duration
}

func NewEmbedStore(embedder core.EmbeddingProvider, index core.VectorIndex, cfg *PipelineConfig) *EmbedStore {
	return &EmbedStore{embedder: embedder, index: index, pacing: cfg.StorePacing}
}

// StoreChunks embeds and persists each chunk, returning how many records
// were actually written. A single chunk's failure is logged and skipped;
// only context cancellation aborts the batch.
func (s *EmbedStore) StoreChunks(ctx context.Context, chunks []models.ContentChunk, filename, contentHash, source string) (int, error) {
	stored := 0

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		meta := chunkMetadata(chunk, filename, contentHash, source)

		vector, err := s.embed(ctx, chunk)
		if err != nil {
			log.Printf("embed store: skipping chunk %d/%d (%s): %v", i+1, len(chunks), chunk.ContentType, err)
			continue
		}

		id := GenerateDocumentID(chunk.Content, meta)

		exists, err := s.index.Exists(ctx, id)
		if err != nil {
			log.Printf("embed store: existence check failed for chunk %d/%d: %v", i+1, len(chunks), err)
			continue
		}
		if exists {
			log.Printf("embed store: chunk %d/%d already indexed, skipping", i+1, len(chunks))
			continue
		}

		if err := s.index.Upsert(ctx, models.EmbeddingRecord{ID: id, Vector: vector, Metadata: meta}); err != nil {
			log.Printf("embed store: upsert failed for chunk %d/%d: %v", i+1, len(chunks), err)
			continue
		}
		stored++

		if s.pacing > 0 && i < len(chunks)-1 {
			select {
			case <-time.After(s.pacing):
			case <-ctx.Done():
				return stored, ctx.Err()
			}
		}
	}

	return stored, nil
}

// embed picks the embedding variant by content type. Image chunks with an
// inline payload use the image embedding; providers without image support
// fall back to embedding the chunk's description text.
func (s *EmbedStore) embed(ctx context.Context, chunk models.ContentChunk) ([]float32, error) {
	if chunk.ContentType == models.ContentTypeImage && chunk.ImageData != "" {
		data, err := base64.StdEncoding.DecodeString(chunk.ImageData)
		if err != nil {
			return nil, fmt.Errorf("decode inline image: %w", err)
		}
		vector, err := s.embedder.EmbedImage(ctx, data)
		if err == nil {
			return vector, nil
		}
		if !errors.Is(err, core.ErrImageEmbeddingUnsupported) {
			return nil, err
		}
	}

	if strings.TrimSpace(chunk.Content) == "" {
		return nil, fmt.Errorf("empty content")
	}
	return s.embedder.EmbedText(ctx, chunk.Content)
}

func chunkMetadata(chunk models.ContentChunk, filename, contentHash, source string) models.EmbeddingMetadata {
	page := chunk.Page
	if page < 1 {
		page = 1
	}

	content := truncateRunes(chunk.Content, metadataContentLimit)

	meta := models.EmbeddingMetadata{
		Content:     content,
		Source:      source,
		Page:        page,
		Filename:    filename,
		ContentHash: contentHash,
		ContentType: chunk.ContentType,
		Coordinates: chunk.Coordinates,
	}
	if chunk.ImageURL != "" {
		meta.RelatedImageURLs = []string{chunk.ImageURL}
	}
	return meta
}

// GenerateDocumentID derives the deterministic record id from the chunk
// content prefix and its provenance metadata. The scheme is fixed: any
// change breaks dedup against previously indexed documents.
func GenerateDocumentID(content string, meta models.EmbeddingMetadata) string {
	base := meta.ContentHash
	if base == "" {
		base = meta.Source
	}

	var chunkHash string
	if content != "" {
		prefix := truncateRunes(content, 256)
		chunkHash = md5Hex([]byte(prefix))[:8]
	} else {
		coords, _ := json.Marshal(meta.Coordinates)
		chunkHash = md5Hex(coords)[:8]
	}

	idSource := fmt.Sprintf("%s|%d|%s|%s", base, meta.Page, meta.Section, chunkHash)
	return md5Hex([]byte(idSource))
}

// truncateRunes cuts s at limit bytes, backing up so a multi-byte rune is
// never split. Chunk content is valid UTF-8 by the time it reaches the
// store, so the result stays valid too.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
