package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/okezie-c/docingest/internal/core/textnorm"
	"github.com/okezie-c/docingest/internal/models"
)

// DocumentExtractor walks a structured document and produces the ordered
// chunk sequence: per-page text chunks first, then table chunks, then image
// chunks. A malformed element is logged and skipped; only a nil document
// fails the whole extraction.
type DocumentExtractor struct {
	chunker *Chunker
	images  *ImagePipeline
}

func NewDocumentExtractor(chunker *Chunker, images *ImagePipeline) *DocumentExtractor {
	return &DocumentExtractor{chunker: chunker, images: images}
}

// Extract converts the structured document into content chunks. Image
// description and upload may perform network calls; every other step is
// pure and deterministic for identical input.
func (e *DocumentExtractor) Extract(ctx context.Context, doc *models.StructuredDocument, filename string) ([]models.ContentChunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil structured document for %q", filename)
	}

	chunks := e.extractText(doc)

	for _, tbl := range doc.Tables {
		ch, ok := tableChunk(tbl)
		if !ok {
			log.Printf("extractor: skipping empty table element on page %d of %s", tbl.Page, filename)
			continue
		}
		chunks = append(chunks, ch)
	}

	imageChunks := e.images.Process(ctx, doc.Pictures, filename)
	chunks = append(chunks, imageChunks...)

	return chunks, nil
}

// extractText groups text spans by page, normalizes the concatenated page
// text and chunks each page in ascending page order.
func (e *DocumentExtractor) extractText(doc *models.StructuredDocument) []models.ContentChunk {
	byPage := map[int][]string{}
	for _, span := range doc.Texts {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		page := span.Page
		if page < 1 {
			page = 1 // missing provenance defaults to page 1
		}
		byPage[page] = append(byPage[page], text)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var chunks []models.ContentChunk
	for _, p := range pages {
		pageText := textnorm.Normalize(strings.Join(byPage[p], "\n"))
		chunks = append(chunks, e.chunker.ChunkPage(pageText, p)...)
	}
	return chunks
}

// tableChunk synthesizes a descriptive chunk for a recognized table. The
// content field carries a readable rendering; the structured cells ride
// along for consumers that want them.
func tableChunk(tbl models.Table) (models.ContentChunk, bool) {
	if len(tbl.Headers) == 0 && len(tbl.Rows) == 0 {
		return models.ContentChunk{}, false
	}

	var b strings.Builder
	if tbl.Caption != "" {
		b.WriteString(tbl.Caption)
		b.WriteString("\n")
	}
	if len(tbl.Headers) > 0 {
		b.WriteString(strings.Join(tbl.Headers, " | "))
		b.WriteString("\n")
	}
	for _, row := range tbl.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}

	page := tbl.Page
	if page < 1 {
		page = 1
	}

	return models.ContentChunk{
		Content:     textnorm.Normalize(b.String()),
		ContentType: models.ContentTypeTable,
		Page:        page,
		Coordinates: tbl.Coordinates,
		TableStructure: &models.TableStructure{
			Headers: tbl.Headers,
			Rows:    tbl.Rows,
			Caption: tbl.Caption,
		},
	}, true
}
