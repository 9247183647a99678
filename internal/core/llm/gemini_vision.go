package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/core/ingestion_engine"
)

const visionCallTimeout = 45 * time.Second

// GeminiVision describes extracted images with a vision-capable model.
type GeminiVision struct {
	client    *genai.Client
	modelName string
}

func NewGeminiVision(ctx context.Context, apiKey, modelName string) (*GeminiVision, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiVision{client: cl, modelName: modelName}, nil
}

func (g *GeminiVision) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiVision) Describe(ctx context.Context, imageData []byte, page int, filename string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, visionCallTimeout)
	defer cancel()

	m := g.client.GenerativeModel(g.modelName)
	resp, err := m.GenerateContent(callCtx,
		genai.ImageData("png", imageData),
		genai.Text(ingestion_engine.VisionPrompt()),
	)
	if err != nil {
		return "", fmt.Errorf("gemini describe (page %d of %s): %w", page, filename, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini describe: empty response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.VisionProvider = (*GeminiVision)(nil)
