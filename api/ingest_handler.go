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


package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/ingestion"
)

var validate = validator.New()

// IngestHandler serves the content ingestion endpoints.
type IngestHandler struct {
	pipeline *ingestion.Pipeline
}

// NewIngestHandler creates an ingestion handler.
func NewIngestHandler(pipeline *ingestion.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// IngestRequest is the body of every process-data endpoint. References are
// the source URLs to ingest into the named collection.
type IngestRequest struct {
	Collection string   `json:"collection" validate:"required"`
	References []string `json:"references" validate:"required,min=1,dive,required,url"`
}

// HandleURL ingests web pages.
func (h *IngestHandler) HandleURL(c *fiber.Ctx) error {
	return h.handle(c, core.SourceKindURL)
}

// HandlePDF ingests PDF documents.
func (h *IngestHandler) HandlePDF(c *fiber.Ctx) error {
	return h.handle(c, core.SourceKindPDF)
}

// HandleVideo ingests video transcripts.
func (h *IngestHandler) HandleVideo(c *fiber.Ctx) error {
	return h.handle(c, core.SourceKindVideo)
}

func (h *IngestHandler) handle(c *fiber.Ctx, kind core.SourceKind) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid JSON request")
	}
	if err := validate.Struct(&req); err != nil {
		return newValidationError(err)
	}

	report, err := h.pipeline.Ingest(c.Context(), req.Collection, kind, req.References)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}
