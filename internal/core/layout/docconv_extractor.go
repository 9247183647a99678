package layout

import (
	"context"
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"

	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/models"
)

// DocconvEngine is the local fallback layout engine used when no docling
// sidecar is configured. It extracts plain text only: no pictures, no
// tables, no page provenance beyond page 1.
type DocconvEngine struct{}

func NewDocconvEngine() *DocconvEngine {
	return &DocconvEngine{}
}

func (e *DocconvEngine) Convert(ctx context.Context, filePath string, contentType string) (*models.StructuredDocument, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	if contentType == "" {
		contentType = docconv.MimeTypeByExtension(filePath)
	}

	res, err := docconv.Convert(f, contentType, false)
	if err != nil {
		return nil, fmt.Errorf("docconv: extraction failed for content type %q: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &models.StructuredDocument{TotalPages: 1}
	for _, line := range strings.Split(res.Body, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		doc.Texts = append(doc.Texts, models.TextSpan{Text: line, Page: 1})
	}
	return doc, nil
}

func (e *DocconvEngine) Available(ctx context.Context) bool { return true }

var _ core.LayoutEngine = (*DocconvEngine)(nil)
