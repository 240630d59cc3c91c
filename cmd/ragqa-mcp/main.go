package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"ragqa/internal/app"
	"ragqa/internal/config"
	"ragqa/internal/mcpserver"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/ragqa/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// stdout carries the protocol
	logger, err := app.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	pipeline, err := app.Pipeline(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}

	if err := server.ServeStdio(mcpserver.New(pipeline, version, logger)); err != nil {
		log.Fatal(err)
	}
}
