package embedding

import (
	"context"
	"fmt"

	"ragqa/internal/domain"
)

// Factory returns a fresh embedder. Embedders that learn state from a corpus
// need one instance per index, so callers ask the factory for each build or load.
type Factory func() (domain.Embedder, error)

// Shared returns a factory that always hands out e. Use it only for
// embedders without corpus state.
func Shared(e domain.Embedder) Factory {
	return func() (domain.Embedder, error) { return e, nil }
}

// EmbedAll embeds texts in order, in a single batch call when the embedder
// supports it.
func EmbedAll(ctx context.Context, e domain.Embedder, texts []string) ([][]float64, error) {
	if b, ok := e.(domain.BatchEmbedder); ok {
		vectors, err := b.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder %s returned %d vectors for %d texts", e.Name(), len(vectors), len(texts))
		}
		return vectors, nil
	}

	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}
