package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/okezie-c/docingest/internal/core"
)

const (
	embedMaxRetries = 3
	embedRetryDelay = 2 * time.Second
)

// OpenAIEmbedder is the alternative text-embedding provider, selected with
// EMBED_PROVIDER=openai. The OpenAI API has no image-embedding endpoint, so
// EmbedImage reports ErrImageEmbeddingUnsupported and the store adapter
// embeds the image's description text instead.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	m := openai.EmbeddingModel(model)
	if model == "" {
		m = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: m}, nil
}

func (o *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(embedRetryDelay, attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		resp, err := o.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: o.model,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("attempt %d: no embeddings returned", attempt+1)
			continue
		}
		return resp.Data[0].Embedding, nil
	}

	return nil, fmt.Errorf("openai embed failed after %d attempts: %w", embedMaxRetries+1, lastErr)
}

func (o *OpenAIEmbedder) EmbedImage(ctx context.Context, imageData []byte) ([]float32, error) {
	return nil, core.ErrImageEmbeddingUnsupported
}

// backoff doubles the base delay per attempt, capped at 30 seconds.
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

var _ core.EmbeddingProvider = (*OpenAIEmbedder)(nil)
