package ingestion_engine

import (
	"strings"

	"github.com/okezie-c/docingest/internal/models"
)

// Chunker splits normalized per-page text into bounded, overlapping chunks.
// Output is deterministic: identical input and parameters always produce
// identical chunk boundaries.
type Chunker struct {
	maxChunkSize    int
	overlapFraction float64
}

func NewChunker(maxChunkSize int, overlapFraction float64) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlapFraction < 0 {
		overlapFraction = 0
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlapFraction: overlapFraction}
}

// ChunkPage splits one page's text into text chunks tagged with the page
// number. Empty or whitespace-only input yields no chunks. A single
// sentence longer than the chunk bound is emitted as its own oversized
// chunk, never split mid-sentence.
func (c *Chunker) ChunkPage(pageText string, page int) []models.ContentChunk {
	units := splitSentenceUnits(pageText)
	if len(units) == 0 {
		return nil
	}

	overlapBudget := int(c.overlapFraction * float64(c.maxChunkSize))

	var chunks []models.ContentChunk
	var buf []string
	bufLen := 0

	emit := func() {
		chunks = append(chunks, models.ContentChunk{
			Content:     strings.Join(buf, " "),
			ContentType: models.ContentTypeText,
			Page:        page,
		})
	}

	for _, unit := range units {
		if bufLen > 0 && bufLen+1+len(unit) > c.maxChunkSize {
			emit()

			// Seed the next buffer with a trailing overlap of whole units,
			// then trim from the front until the incoming unit still fits.
			buf = overlapTail(buf, overlapBudget)
			bufLen = joinedLen(buf)
			for len(buf) > 0 && bufLen+1+len(unit) > c.maxChunkSize {
				buf = buf[1:]
				bufLen = joinedLen(buf)
			}
		}
		buf = append(buf, unit)
		if bufLen == 0 {
			bufLen = len(unit)
		} else {
			bufLen += 1 + len(unit)
		}
	}
	if bufLen > 0 {
		emit()
	}
	return chunks
}

// splitSentenceUnits breaks text into sentence-like units on the ". "
// terminator heuristic, re-appending a period to fragments that lost it.
func splitSentenceUnits(text string) []string {
	parts := strings.Split(text, ". ")
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p[len(p)-1:], ".!?:;") {
			p += "."
		}
		units = append(units, p)
	}
	return units
}

// overlapTail walks backward through the just-emitted units, keeping whole
// units until adding another would exceed the overlap budget. At least one
// unit is kept so consecutive chunks always share context.
func overlapTail(units []string, budget int) []string {
	if len(units) == 0 || budget <= 0 {
		return nil
	}
	keep := len(units) - 1
	acc := len(units[keep])
	for keep > 0 && acc+1+len(units[keep-1]) <= budget {
		keep--
		acc += 1 + len(units[keep])
	}
	tail := make([]string, len(units)-keep)
	copy(tail, units[keep:])
	return tail
}

func joinedLen(units []string) int {
	if len(units) == 0 {
		return 0
	}
	n := len(units) - 1 // separators
	for _, u := range units {
		n += len(u)
	}
	return n
}
