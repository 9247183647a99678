package ingestion_engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/core/textnorm"
	"github.com/okezie-c/docingest/internal/models"
)

// visionPrompt is the fixed instruction for the description model. The
// leading logo directive is a contract: consumers filter on the "LOGO:"
// prefix, so it must survive into stored content untouched.
const visionPrompt = `If this image is a logo, watermark or purely decorative symbol, respond with "LOGO:" followed by a short label and nothing else. Otherwise describe the image in two or three sentences, including any visible text, chart axes, or diagram structure.`

// ImagePipeline turns raw picture elements into image chunks. Vision
// description and object storage are both optional collaborators; absence
// of either degrades gracefully rather than failing.
type ImagePipeline struct {
	vision      core.VisionProvider // nil when unconfigured
	objects     core.ObjectClient   // nil when unconfigured
	bucket      string
	minBytes    int
	concurrency int
}

func NewImagePipeline(vision core.VisionProvider, objects core.ObjectClient, bucket string, cfg *PipelineConfig) *ImagePipeline {
	concurrency := cfg.ImageConcurrency
	if concurrency <= 0 || concurrency > 10 {
		concurrency = 10
	}
	return &ImagePipeline{
		vision:      vision,
		objects:     objects,
		bucket:      bucket,
		minBytes:    cfg.MinImageBytes,
		concurrency: concurrency,
	}
}

// Process fans out over all pictures with bounded parallelism. A single
// image's failure yields no chunk for that image and never fails the batch.
// Results keep input order so repeated runs produce identical sequences.
func (p *ImagePipeline) Process(ctx context.Context, pictures []models.Picture, filename string) []models.ContentChunk {
	if len(pictures) == 0 {
		return nil
	}

	results := make([]*models.ContentChunk, len(pictures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for idx, pic := range pictures {
		g.Go(func() error {
			ch, err := p.processOne(gctx, pic, filename)
			if err != nil {
				log.Printf("image pipeline: skipping image %d (page %d) of %s: %v", idx, pic.Page, filename, err)
				return nil
			}
			results[idx] = ch
			return nil
		})
	}
	_ = g.Wait() // workers only return nil; errors stay per-image

	chunks := make([]models.ContentChunk, 0, len(pictures))
	for _, r := range results {
		if r != nil {
			chunks = append(chunks, *r)
		}
	}
	return chunks
}

// processOne handles a single picture: size filter, description, upload.
// Returning (nil, nil) means the image was filtered out, not failed.
func (p *ImagePipeline) processOne(ctx context.Context, pic models.Picture, filename string) (*models.ContentChunk, error) {
	if len(pic.Data) == 0 {
		return nil, fmt.Errorf("no extractable image payload")
	}
	if len(pic.Data) < p.minBytes {
		// Decorative noise; dropped before any external call is made.
		return nil, nil
	}

	page := pic.Page
	if page < 1 {
		page = 1
	}

	description := p.describe(ctx, pic.Data, page, filename)

	chunk := &models.ContentChunk{
		Content:     description,
		ContentType: models.ContentTypeImage,
		Page:        page,
		Coordinates: pic.Coordinates,
		ImageData:   base64.StdEncoding.EncodeToString(pic.Data),
	}

	// Swap the inline payload for a storage URL only after a successful
	// upload, so upload failure preserves the inline fallback path.
	if p.objects != nil && p.bucket != "" {
		key := fmt.Sprintf("images/%s.png", uuid.NewString())
		url, err := p.objects.UploadFile(ctx, p.bucket, key, pic.Data, "image/png")
		if err != nil {
			log.Printf("image pipeline: upload failed for page %d of %s, keeping inline payload: %v", page, filename, err)
		} else {
			chunk.ImageURL = url
			chunk.ImageData = ""
		}
	}

	return chunk, nil
}

func (p *ImagePipeline) describe(ctx context.Context, data []byte, page int, filename string) string {
	fallback := fmt.Sprintf("Image extracted from page %d of %s", page, filename)
	if p.vision == nil {
		return fallback
	}
	text, err := p.vision.Describe(ctx, data, page, filename)
	if err != nil {
		log.Printf("image pipeline: vision description failed for page %d of %s: %v", page, filename, err)
		return fallback
	}
	text = textnorm.Normalize(text)
	if text == "" {
		return fallback
	}
	return text
}

// VisionPrompt exposes the fixed instruction used for description calls so
// provider bindings send exactly the same directive.
func VisionPrompt() string { return visionPrompt }
