package core

import (
	"context"
	"errors"
)

// ErrImageEmbeddingUnsupported is returned by providers that can only embed
// text. The store adapter falls back to embedding the chunk's description.
var ErrImageEmbeddingUnsupported = errors.New("provider does not support image embeddings")

// EmbeddingProvider produces fixed-dimensionality vectors for text and image
// content. Both variants must emit the same dimensionality.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageData []byte) ([]float32, error)
}

// VisionProvider turns an image into a short semantic description.
// May be absent entirely (nil handle) when unconfigured.
type VisionProvider interface {
	Describe(ctx context.Context, imageData []byte, page int, filename string) (string, error)
}
