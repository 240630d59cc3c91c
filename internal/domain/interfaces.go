package domain

import "context"

// Chunk is a contiguous piece of a source document used for indexing.
// Offset is the rune offset of Text inside the source.
type Chunk struct {
	Source string
	Index  int
	Offset int
	Text   string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the outcome of one question asked against an index.
type Answer struct {
	Query   string
	Text    string
	Sources []SearchResult
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts in one call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// StatefulEmbedder is implemented by embedders whose vectors depend on state
// derived during Prepare. The state travels with the persisted index.
type StatefulEmbedder interface {
	MarshalState() ([]byte, error)
	RestoreState(data []byte) error
}

// Splitter cuts a document into bounded chunks in document order.
type Splitter interface {
	Split(text string) []string
}

// VectorIndex supports nearest-neighbour lookup over chunk embeddings.
type VectorIndex interface {
	Search(vector []float64, topK int) ([]SearchResult, error)
	Chunks() []Chunk
	Len() int
}

// Completer sends a single prompt to a language model and returns its text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Asker answers a question about a named source file.
type Asker interface {
	Ask(ctx context.Context, filename, query string) (*Answer, error)
}
