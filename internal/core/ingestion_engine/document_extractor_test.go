package ingestion_engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okezie-c/docingest/internal/models"
)

func newTestExtractor(t *testing.T) *DocumentExtractor {
	t.Helper()
	cfg := DefaultPipelineConfig()
	chunker := NewChunker(cfg.MaxChunkSize, cfg.OverlapFraction)
	images := NewImagePipeline(nil, nil, "", cfg)
	return NewDocumentExtractor(chunker, images)
}

func TestExtract_NilDocumentFails(t *testing.T) {
	ex := newTestExtractor(t)
	chunks, err := ex.Extract(context.Background(), nil, "report.pdf")
	assert.Error(t, err)
	assert.Nil(t, chunks)
}

func TestExtract_EmptyDocumentYieldsNoChunks(t *testing.T) {
	ex := newTestExtractor(t)
	chunks, err := ex.Extract(context.Background(), &models.StructuredDocument{}, "empty.pdf")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestExtract_GroupsSpansByPageInOrder(t *testing.T) {
	ex := newTestExtractor(t)
	doc := &models.StructuredDocument{
		TotalPages: 3,
		Texts: []models.TextSpan{
			{Text: "Third page text.", Page: 3},
			{Text: "First page opening.", Page: 1},
			{Text: "Second page body.", Page: 2},
			{Text: "First page continued.", Page: 1},
		},
	}

	chunks, err := ex.Extract(context.Background(), doc, "ordered.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[1].Page)
	assert.Equal(t, 3, chunks[2].Page)

	// Spans on the same page are concatenated in input order.
	assert.Contains(t, chunks[0].Content, "First page opening.")
	assert.Contains(t, chunks[0].Content, "First page continued.")
	assert.Less(t,
		strings.Index(chunks[0].Content, "opening"),
		strings.Index(chunks[0].Content, "continued"))
}

func TestExtract_MissingPageDefaultsToOne(t *testing.T) {
	ex := newTestExtractor(t)
	doc := &models.StructuredDocument{
		Texts: []models.TextSpan{
			{Text: "No provenance here.", Page: 0},
			{Text: "Negative provenance.", Page: -2},
		},
	}

	chunks, err := ex.Extract(context.Background(), doc, "noprov.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Page)
}

func TestExtract_SkipsBlankSpans(t *testing.T) {
	ex := newTestExtractor(t)
	doc := &models.StructuredDocument{
		Texts: []models.TextSpan{
			{Text: "   ", Page: 1},
			{Text: "\n\t", Page: 2},
			{Text: "Real content survives.", Page: 2},
		},
	}

	chunks, err := ex.Extract(context.Background(), doc, "blanks.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
	assert.Equal(t, "Real content survives.", chunks[0].Content)
}

func TestExtract_TableChunks(t *testing.T) {
	ex := newTestExtractor(t)
	doc := &models.StructuredDocument{
		Tables: []models.Table{
			{
				Page:    2,
				Caption: "Quarterly revenue",
				Headers: []string{"Quarter", "Revenue"},
				Rows:    [][]string{{"Q1", "100"}, {"Q2", "150"}},
			},
			{Page: 3}, // empty, skipped
		},
	}

	chunks, err := ex.Extract(context.Background(), doc, "tables.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ch := chunks[0]
	assert.Equal(t, models.ContentTypeTable, ch.ContentType)
	assert.Equal(t, 2, ch.Page)
	assert.Contains(t, ch.Content, "Quarterly revenue")
	assert.Contains(t, ch.Content, "Quarter | Revenue")
	assert.Contains(t, ch.Content, "Q2 | 150")
	require.NotNil(t, ch.TableStructure)
	assert.Equal(t, []string{"Quarter", "Revenue"}, ch.TableStructure.Headers)
	assert.Len(t, ch.TableStructure.Rows, 2)
}

func TestExtract_TextThenTablesThenImages(t *testing.T) {
	ex := newTestExtractor(t)
	doc := &models.StructuredDocument{
		Texts: []models.TextSpan{{Text: "Body text.", Page: 1}},
		Tables: []models.Table{
			{Page: 1, Headers: []string{"A"}, Rows: [][]string{{"1"}}},
		},
		Pictures: []models.Picture{
			{Data: make([]byte, 4096), Page: 1},
		},
	}

	chunks, err := ex.Extract(context.Background(), doc, "mixed.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, models.ContentTypeText, chunks[0].ContentType)
	assert.Equal(t, models.ContentTypeTable, chunks[1].ContentType)
	assert.Equal(t, models.ContentTypeImage, chunks[2].ContentType)
}

func TestExtract_Deterministic(t *testing.T) {
	ex := newTestExtractor(t)
	doc := &models.StructuredDocument{
		Texts: []models.TextSpan{
			{Text: "Alpha section. With two sentences.", Page: 2},
			{Text: "Intro paragraph.", Page: 1},
		},
		Tables: []models.Table{
			{Page: 2, Headers: []string{"k", "v"}, Rows: [][]string{{"x", "y"}}},
		},
	}

	first, err := ex.Extract(context.Background(), doc, "same.pdf")
	require.NoError(t, err)
	second, err := ex.Extract(context.Background(), doc, "same.pdf")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
