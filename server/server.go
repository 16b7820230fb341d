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


package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/parlance"
	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/api"
	"github.com/poiesic/parlance/ingestion"
)

// Config holds everything the server needs to come up.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string

	// DatabaseURL is the Postgres connection string. It backs both the
	// session store and the vector index.
	DatabaseURL string

	// AI configures the embedding and chat completion services.
	AI *ai.Config

	// UseBrowser enables the headless-browser fallback for pages that
	// serve an empty shell to plain HTTP clients.
	UseBrowser bool
}

// Server serves the HTTP API over a parlance.System.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	app      *fiber.App
	system   *parlance.System
	pipeline *ingestion.Pipeline
}

// New builds a fully wired server. It connects to Postgres, constructs the
// AI provider, and mounts all routes. Call Run to start listening and
// Shutdown to tear everything down.
func New(ctx context.Context, cfg Config) (*Server, error) {
	systemOpts := []parlance.SystemOption{parlance.WithAIConfig(cfg.AI)}
	if cfg.UseBrowser {
		systemOpts = append(systemOpts, parlance.WithBrowserRenderer())
	}

	system, err := parlance.NewSystem(ctx, cfg.DatabaseURL, systemOpts...)
	if err != nil {
		return nil, err
	}

	pipeline, err := system.NewIngestionPipeline()
	if err != nil {
		system.Close()
		return nil, err
	}

	manager := system.NewSessionManager()
	history := system.NewHistory()
	engine := system.NewRetrievalEngine()

	app := fiber.New(fiber.Config{
		AppName:      "parlance",
		ErrorHandler: api.ErrorHandler,
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	api.RegisterRoutes(app,
		api.NewIngestHandler(pipeline),
		api.NewSessionHandler(manager, history),
		api.NewChatHandler(engine),
	)

	return &Server{
		cfg:      cfg,
		logger:   slog.Default().With("component", "server"),
		app:      app,
		system:   system,
		pipeline: pipeline,
	}, nil
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("listening", "addr", s.cfg.ListenAddr)
	return s.app.Listen(s.cfg.ListenAddr)
}

// Shutdown drains in-flight requests and releases every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	err := s.app.ShutdownWithTimeout(time.Until(deadline))

	s.pipeline.Release()
	if closeErr := s.system.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	s.logger.Info("server stopped")
	return err
}
