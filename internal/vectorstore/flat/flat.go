package flat

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ragqa/internal/domain"
)

// formatVersion changes whenever the on-disk layout changes.
const formatVersion = 1

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrLengthMismatch    = errors.New("chunks and vectors length mismatch")
)

// Index is a flat vector index using brute-force cosine similarity.
// It is persisted as a single gob file.
type Index struct {
	mu        sync.RWMutex
	embedder  string
	dimension int
	state     []byte
	vectors   [][]float64
	chunks    []domain.Chunk
}

type fileFormat struct {
	Version       int
	Embedder      string
	Dimension     int
	EmbedderState []byte
	Chunks        []domain.Chunk
	Vectors       [][]float64
}

// New creates an empty index for vectors produced by the named embedder.
func New(embedder string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	return &Index{embedder: embedder, dimension: dimension}, nil
}

// Add appends chunks with their vectors, keeping insertion order.
func (s *Index) Add(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return ErrDimensionMismatch
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search returns up to topK chunks ordered by descending similarity. Ties keep
// document order.
func (s *Index) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 4
	}
	results := make([]domain.SearchResult, len(s.vectors))
	for i := range s.vectors {
		results[i] = domain.SearchResult{Chunk: s.chunks[i], Score: cosine(s.vectors[i], vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Chunks returns the indexed chunks in document order.
func (s *Index) Chunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Embedder returns the name of the embedder the vectors came from.
func (s *Index) Embedder() string { return s.embedder }

func (s *Index) Dimension() int { return s.dimension }

// SetEmbedderState attaches opaque embedder state to be stored with the index.
func (s *Index) SetEmbedderState(state []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Index) EmbedderState() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Save writes the index to path. The file is written to a temporary name in
// the same directory and renamed into place, so path either holds the full
// index or is left untouched.
func (s *Index) Save(path string) error {
	s.mu.RLock()
	data := fileFormat{
		Version:       formatVersion,
		Embedder:      s.embedder,
		Dimension:     s.dimension,
		EmbedderState: s.state,
		Chunks:        s.chunks,
		Vectors:       s.vectors,
	}
	s.mu.RUnlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpName := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(&data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("moving index into place: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data fileFormat
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding index %s: %w", path, err)
	}
	if data.Version != formatVersion {
		return nil, fmt.Errorf("index %s has format v%d, want v%d", path, data.Version, formatVersion)
	}
	if len(data.Chunks) != len(data.Vectors) {
		return nil, fmt.Errorf("index %s: %w", path, ErrLengthMismatch)
	}
	return &Index{
		embedder:  data.Embedder,
		dimension: data.Dimension,
		state:     data.EmbedderState,
		chunks:    data.Chunks,
		vectors:   data.Vectors,
	}, nil
}

// Exists reports whether an index file is present at path.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
