// Package app assembles components from the application config.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"ragqa/internal/completion/openai"
	"ragqa/internal/config"
	"ragqa/internal/domain"
	"ragqa/internal/embedding"
	embopenai "ragqa/internal/embedding/openai"
	"ragqa/internal/embedding/tfidf"
	"ragqa/internal/service"
	"ragqa/internal/splitter"
	"ragqa/internal/summarizer"
)

// NewLogger builds the process logger. Output goes to w, normally stderr.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}
}

// EmbedderFactory returns a factory for the configured embedder. TF-IDF gets
// a fresh instance per index; the OpenAI client is shared.
func EmbedderFactory(cfg config.EmbedderConfig) (embedding.Factory, error) {
	switch cfg.Type {
	case "tfidf":
		return func() (domain.Embedder, error) { return tfidf.NewEmbedder(), nil }, nil
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return embedding.Shared(client), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func Completer(cfg config.CompletionConfig) (domain.Completer, error) {
	switch cfg.Type {
	case "openai", "":
		temperature := float32(openai.DefaultTemperature)
		if cfg.Temperature != nil {
			temperature = *cfg.Temperature
		}
		c, err := openai.NewClient(openai.Config{
			BaseURL:     cfg.BaseURL,
			APIKeyEnv:   cfg.APIKeyEnv,
			Model:       cfg.Model,
			Temperature: temperature,
			Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai completion init failed: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completion: %s", cfg.Type)
	}
}

func Summarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

// Pipeline wires splitter, embedder and completer into the question pipeline.
func Pipeline(cfg *config.AppConfig, logger *slog.Logger) (*service.Pipeline, error) {
	newEmbedder, err := EmbedderFactory(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	completer, err := Completer(cfg.Completion)
	if err != nil {
		return nil, err
	}
	sp := splitter.NewRecursiveSplitter(cfg.Splitter.ChunkSize, cfg.Splitter.Separators)
	return service.NewPipeline(sp, newEmbedder, completer, service.Options{
		Dir:    cfg.Workdir,
		TopK:   cfg.Retrieval.TopK,
		Logger: logger,
	}), nil
}
