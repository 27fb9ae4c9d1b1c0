// Package embedding turns text and images into vectors for the similarity
// index. Text goes through the OpenAI embeddings API; images go through a
// separate CLIP-style HTTP service because the two spaces have different
// dimensionality.
package embedding

import "context"

// TextEmbedder embeds a natural language string.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder embeds a normalized JPEG image.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, jpeg []byte) ([]float32, error)
}
