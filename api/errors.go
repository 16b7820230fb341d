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
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
	"github.com/poiesic/parlance/ingestion"
	"github.com/poiesic/parlance/retrieval"
	"github.com/poiesic/parlance/storage"
)

// Error is the JSON error envelope returned by every failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

// ValidationError carries per-field validation failures.
type ValidationError struct {
	Code   int               `json:"code"`
	Fields map[string]string `json:"fields"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func newValidationError(err error) ValidationError {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return ValidationError{Code: fiber.StatusUnprocessableEntity, Fields: fields}
}

func errBadRequest(message string) Error {
	return Error{Code: fiber.StatusBadRequest, Message: message}
}

// ErrorHandler maps domain errors onto HTTP statuses. It is installed as
// the fiber app's error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Code).JSON(valErr)
	}

	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		slog.Default().Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(Error{Code: status, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, index.ErrCollectionConflict),
		errors.Is(err, core.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, storage.ErrSessionNotFound),
		errors.Is(err, storage.ErrMessageNotFound),
		errors.Is(err, index.ErrCollectionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ingestion.ErrNothingIngested):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmptyCollectionName),
		errors.Is(err, ingestion.ErrNoReferences),
		errors.Is(err, retrieval.ErrEmptyQuery),
		errors.Is(err, core.ErrInvalidStatus):
		return fiber.StatusBadRequest
	case errors.Is(err, index.ErrEmbeddingService),
		errors.Is(err, retrieval.ErrBackend):
		return fiber.StatusBadGateway
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}
}
