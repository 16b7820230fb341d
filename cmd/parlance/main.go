// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/ai/openai"
	"github.com/poiesic/parlance/index/pgvector"
	"github.com/poiesic/parlance/reindex"
	"github.com/poiesic/parlance/server"
)

func main() {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "parlance",
		Usage: "Retrieval-augmented chatbot backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"PARLANCE_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Usage:   "Address to listen on",
						Value:   ":8080",
						EnvVars: []string{"PARLANCE_LISTEN"},
					},
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "Postgres connection string (requires the pgvector extension)",
						Required: true,
						EnvVars:  []string{"PARLANCE_DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:    "ai-host",
						Usage:   "OpenAI-compatible service host URL for embeddings and chat",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"PARLANCE_AI_HOST"},
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						Value:   "text-embedding-3-small",
						EnvVars: []string{"PARLANCE_EMBEDDING_MODEL"},
					},
					&cli.StringFlag{
						Name:    "chat-model",
						Usage:   "Chat completion model name",
						Value:   "gpt-4o",
						EnvVars: []string{"PARLANCE_CHAT_MODEL"},
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Bearer token for the AI services (use \"none\" for local services)",
						Value:   "none",
						EnvVars: []string{"PARLANCE_API_KEY"},
					},
					&cli.Float64Flag{
						Name:    "temperature",
						Usage:   "Sampling temperature for chat completions",
						Value:   0.3,
						EnvVars: []string{"PARLANCE_TEMPERATURE"},
					},
					&cli.BoolFlag{
						Name:    "browser",
						Usage:   "Enable the headless-browser fallback for JavaScript-heavy pages",
						EnvVars: []string{"PARLANCE_BROWSER"},
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every entry of a collection with a new embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "Postgres connection string (requires the pgvector extension)",
						Required: true,
						EnvVars:  []string{"PARLANCE_DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Collection to reindex",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "ai-host",
						Usage:   "OpenAI-compatible service host URL for embeddings",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"PARLANCE_AI_HOST"},
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Bearer token for the AI services (use \"none\" for local services)",
						Value:   "none",
						EnvVars: []string{"PARLANCE_API_KEY"},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithTemperature(c.Float64("temperature")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	ctx := context.Background()
	srv, err := server.New(ctx, server.Config{
		ListenAddr:  c.String("listen"),
		DatabaseURL: c.String("database-url"),
		AI:          aiConfig,
		UseBrowser:  c.Bool("browser"),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	vectors, err := pgvector.OpenIndex(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	defer vectors.Close()

	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := reindex.NewReindexer(vectors, provider.Embedder(), config, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Collection: %s\n", c.String("collection"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("ai-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))

	return reindexer.Run(ctx, c.String("collection"))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
