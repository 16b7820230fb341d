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

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/session"
)

// SessionHandler serves the conversation session endpoints.
type SessionHandler struct {
	manager *session.Manager
	history *session.History
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(manager *session.Manager, history *session.History) *SessionHandler {
	return &SessionHandler{manager: manager, history: history}
}

// CreateSessionRequest opens a new conversation session.
type CreateSessionRequest struct {
	UserID      string            `json:"user_id" validate:"required"`
	ChatbotID   string            `json:"chatbot_id" validate:"required"`
	TopicName   string            `json:"topic_name"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// HandleCreate opens a session.
func (h *SessionHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid JSON request")
	}
	if err := validate.Struct(&req); err != nil {
		return newValidationError(err)
	}

	created, err := h.manager.Create(c.Context(), req.UserID, req.ChatbotID, req.TopicName, req.Description, req.Metadata)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleGet returns one session.
func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	found, err := h.manager.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(found)
}

// HandleList returns the user's sessions with a chatbot, optionally
// filtered by status.
func (h *SessionHandler) HandleList(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	chatbotID := c.Query("chatbot_id")
	if userID == "" || chatbotID == "" {
		return errBadRequest("user_id and chatbot_id query parameters are required")
	}

	var status *core.SessionStatus
	if raw := c.Query("status"); raw != "" {
		s := core.SessionStatus(raw)
		if err := core.ValidateStatus(s); err != nil {
			return err
		}
		status = &s
	}

	sessions, err := h.manager.List(c.Context(), userID, chatbotID, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// UpdateStatusRequest moves a session through its lifecycle.
type UpdateStatusRequest struct {
	Status core.SessionStatus `json:"status" validate:"required"`
}

// HandleUpdateStatus transitions a session.
func (h *SessionHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid JSON request")
	}
	if err := validate.Struct(&req); err != nil {
		return newValidationError(err)
	}

	updated, err := h.manager.Transition(c.Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// HandleDelete removes a session and its history.
func (h *SessionHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	if err := h.manager.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMessages returns a session's messages in conversation order.
func (h *SessionHandler) HandleMessages(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	messages, err := h.history.List(c.Context(), id, c.Query("sender_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// UpdateMessageRequest replaces the content of a message.
type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleUpdateMessage edits one message.
func (h *SessionHandler) HandleUpdateMessage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errBadRequest("invalid message id")
	}

	var req UpdateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid JSON request")
	}
	if err := validate.Struct(&req); err != nil {
		return newValidationError(err)
	}

	updated, err := h.history.Update(c.Context(), id, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// HandleDeleteMessage removes one message.
func (h *SessionHandler) HandleDeleteMessage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errBadRequest("invalid message id")
	}

	if err := h.history.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errBadRequest("invalid session id")
	}
	return id, nil
}
