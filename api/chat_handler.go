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
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/poiesic/parlance/retrieval"
)

// ChatHandler serves the conversational query endpoint.
type ChatHandler struct {
	engine *retrieval.Engine
}

// NewChatHandler creates a chat handler.
func NewChatHandler(engine *retrieval.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// ChatRequest is one user turn in a session. Collection names the document
// collection to retrieve from; when empty the bot answers from conversation
// alone.
type ChatRequest struct {
	SessionID  string `json:"session_id" validate:"required,uuid"`
	Message    string `json:"message" validate:"required"`
	Collection string `json:"collection"`
}

// HandleChat answers one user query.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid JSON request")
	}
	if err := validate.Struct(&req); err != nil {
		return newValidationError(err)
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return errBadRequest("invalid session id")
	}

	answer, err := h.engine.Answer(c.Context(), sessionID, req.Message, req.Collection)
	if err != nil {
		return err
	}
	return c.JSON(answer)
}
