package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ragqa/internal/domain"
	"ragqa/internal/embedding"
	"ragqa/internal/splitter"
	"ragqa/internal/vectorstore/flat"
)

const (
	DefaultTopK         = 4
	DefaultBuildTimeout = 10 * time.Minute
)

var (
	ErrEmptySource      = errors.New("source text is empty")
	ErrEmptyQuery       = errors.New("query is empty")
	ErrEmbedderMismatch = errors.New("index was built with a different embedder")
	ErrInvalidFilename  = errors.New("filename must be a plain base name")
)

// Index is a loaded vector index together with the embedder that can embed
// queries against it.
type Index struct {
	Name     string
	Store    *flat.Index
	embedder domain.Embedder
}

type Options struct {
	// Dir holds {name}.txt sources and {name}.index files.
	Dir    string
	TopK   int
	Logger *slog.Logger
	// BuildTimeout bounds a shared load or build. It runs detached from any
	// single caller's context.
	BuildTimeout time.Duration
}

// Pipeline builds or loads indexes and answers questions against them.
type Pipeline struct {
	splitter    domain.Splitter
	newEmbedder embedding.Factory
	completer   domain.Completer
	dir         string
	topK        int
	buildTTL    time.Duration
	log         *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*Index
}

func NewPipeline(s domain.Splitter, newEmbedder embedding.Factory, c domain.Completer, opts Options) *Pipeline {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = DefaultBuildTimeout
	}
	return &Pipeline{
		splitter:    s,
		newEmbedder: newEmbedder,
		completer:   c,
		dir:         opts.Dir,
		topK:        opts.TopK,
		buildTTL:    opts.BuildTimeout,
		log:         opts.Logger,
		cache:       make(map[string]*Index),
	}
}

// SourcePath is where the text for filename lives.
func (p *Pipeline) SourcePath(filename string) string {
	return filepath.Join(p.dir, filename+".txt")
}

// IndexPath is where the index for filename is persisted.
func (p *Pipeline) IndexPath(filename string) string {
	return filepath.Join(p.dir, filename+".index")
}

// ValidateFilename accepts only base names without directories or extensions
// that would escape the working area.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

// CreateIndex returns the index for filename, loading it from disk when a
// persisted copy exists and building it from the source text otherwise.
// Concurrent calls for the same filename share one load or build; a caller
// whose ctx ends stops waiting without cancelling the build for the others.
func (p *Pipeline) CreateIndex(ctx context.Context, filename string) (*Index, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	p.mu.RLock()
	idx, ok := p.cache[filename]
	p.mu.RUnlock()
	if ok {
		return idx, nil
	}

	ch := p.group.DoChan(filename, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.buildTTL)
		defer cancel()
		idx, err := p.loadOrBuild(buildCtx, filename)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[filename] = idx
		p.mu.Unlock()
		return idx, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for index %s: %w", filename, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.log.Debug("index build shared", "file", filename)
		}
		return res.Val.(*Index), nil
	}
}

func (p *Pipeline) loadOrBuild(ctx context.Context, filename string) (*Index, error) {
	path := p.IndexPath(filename)
	exists, err := flat.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking index %s: %w", path, err)
	}
	if exists {
		p.log.Info("existing vector store found, loading", "file", filename, "path", path)
		return p.load(filename, path)
	}
	p.log.Info("existing vector store not found, creating a new one", "file", filename)
	return p.build(ctx, filename, path)
}

func (p *Pipeline) load(filename, path string) (*Index, error) {
	store, err := flat.Load(path)
	if err != nil {
		return nil, err
	}
	emb, err := p.newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	if store.Embedder() != emb.Name() {
		return nil, fmt.Errorf("%w: %s has %q, configured %q", ErrEmbedderMismatch, path, store.Embedder(), emb.Name())
	}
	if st, ok := emb.(domain.StatefulEmbedder); ok {
		if err := st.RestoreState(store.EmbedderState()); err != nil {
			return nil, fmt.Errorf("restoring embedder state from %s: %w", path, err)
		}
	}
	p.log.Debug("index loaded", "file", filename, "chunks", store.Len(), "dimension", store.Dimension())
	return &Index{Name: filename, Store: store, embedder: emb}, nil
}

func (p *Pipeline) build(ctx context.Context, filename, path string) (*Index, error) {
	src := p.SourcePath(filename)
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", src, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptySource)
	}

	parts := p.splitter.Split(text)
	chunks := splitter.Chunks(filename, parts)

	emb, err := p.newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	if err := emb.Prepare(parts); err != nil {
		return nil, fmt.Errorf("preparing embedder: %w", err)
	}
	vectors, err := embedding.EmbedAll(ctx, emb, parts)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", filename, err)
	}

	store, err := flat.New(emb.Name(), len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := store.Add(chunks, vectors); err != nil {
		return nil, err
	}
	if st, ok := emb.(domain.StatefulEmbedder); ok {
		state, err := st.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("saving embedder state: %w", err)
		}
		store.SetEmbedderState(state)
	}
	if err := store.Save(path); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}
	p.log.Info("index built", "file", filename, "chunks", len(chunks), "dimension", store.Dimension(), "path", path)
	return &Index{Name: filename, Store: store, embedder: emb}, nil
}

// Answer retrieves the chunks closest to query and asks the completion model
// to answer from them.
func (p *Pipeline) Answer(ctx context.Context, query string, idx *Index) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	vec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	sources, err := idx.Store.Search(vec, p.topK)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", idx.Name, err)
	}

	prompt := RenderPrompt(sources, query)
	text, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	p.log.Info("answered", "file", idx.Name, "query", query, "sources", len(sources), "answer", text)
	return &domain.Answer{Query: query, Text: text, Sources: sources}, nil
}

// Ask builds or loads the index for filename and answers query against it.
func (p *Pipeline) Ask(ctx context.Context, filename, query string) (*domain.Answer, error) {
	idx, err := p.CreateIndex(ctx, filename)
	if err != nil {
		return nil, err
	}
	return p.Answer(ctx, query, idx)
}
