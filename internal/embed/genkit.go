package embed

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// Genkit adapts a Genkit ai.Embedder to the Provider contract. The
// output dimensionality is pinned so larger models truncate to the
// schema's vector size.
type Genkit struct {
	embedder ai.Embedder
	dim      int32
}

// NewGenkit creates the adapter.
func NewGenkit(embedder ai.Embedder) (*Genkit, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	return &Genkit{embedder: embedder, dim: Dimension}, nil
}

// Embed generates a vector for text. Every failure wraps ErrUnavailable.
func (g *Genkit) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := g.dim
	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w: %v", ErrUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response: %w", ErrUnavailable)
	}
	return resp.Embeddings[0].Embedding, nil
}
