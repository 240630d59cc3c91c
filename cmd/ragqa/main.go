package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ragqa/internal/app"
	"ragqa/internal/config"
	"ragqa/internal/selector"
	"ragqa/internal/service"
	"ragqa/internal/session"
	"ragqa/internal/summarizer"
	"ragqa/internal/tui"
)

const queryPrompt = "Enter a query: "

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		useTUI  bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragqa/config.yaml if not provided)")
	flag.BoolVar(&useTUI, "tui", false, "Ask questions in a full-screen loop instead of a single query")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	store, err := session.Load(cfg.SessionPath())
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prompter := tui.NewPrompter()
	sel := selector.New(prompter, store, selector.Options{
		Dir:         cfg.Workdir,
		MaxAttempts: cfg.Selector.MaxAttempts,
		Out:         os.Stdout,
		Logger:      logger,
	})
	filename, err := sel.PromptForFile(ctx)
	if err != nil {
		var ce *selector.CopyError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "Error copying file: %v\n", err)
			os.Exit(1)
		}
		log.Fatalf("no file selected: %v", err)
	}

	pipeline, err := app.Pipeline(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}

	if useTUI {
		if err := runTUI(ctx, cfg, pipeline, filename); err != nil {
			log.Fatal(err)
		}
		return
	}

	query, err := prompter.Prompt(ctx, queryPrompt)
	if err != nil {
		log.Fatalf("no query: %v", err)
	}
	fmt.Printf("Query received: %s\n", query)

	idx, err := pipeline.CreateIndex(ctx, filename)
	if err != nil {
		log.Fatalf("failed to create index: %v", err)
	}
	answer, err := pipeline.Answer(ctx, query, idx)
	if err != nil {
		log.Fatalf("failed to answer: %v", err)
	}
	fmt.Println(answer.Text)
}

func runTUI(ctx context.Context, cfg *config.AppConfig, pipeline *service.Pipeline, filename string) error {
	idx, err := pipeline.CreateIndex(ctx, filename)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	sum, err := app.Summarizer(cfg.Summarizer)
	if err != nil {
		return err
	}
	summary, err := summarizer.Chunks(sum, idx.Store.Chunks(), cfg.Summarizer.MaxSentences)
	if err != nil {
		return fmt.Errorf("summarizing %s: %w", filename, err)
	}

	m := tui.New(ctx, pipeline, filename, summary)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
