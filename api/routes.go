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

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts all handlers under /api.
func RegisterRoutes(app *fiber.App, ingest *IngestHandler, sessions *SessionHandler, chat *ChatHandler) {
	root := app.Group("/api")

	data := root.Group("/process-data")
	data.Post("/url", ingest.HandleURL)
	data.Post("/pdf", ingest.HandlePDF)
	data.Post("/video", ingest.HandleVideo)

	bot := root.Group("/chatbot")
	bot.Post("/session", sessions.HandleCreate)
	bot.Get("/session", sessions.HandleList)
	bot.Get("/session/:id", sessions.HandleGet)
	bot.Patch("/session/:id/status", sessions.HandleUpdateStatus)
	bot.Delete("/session/:id", sessions.HandleDelete)
	bot.Get("/session/:id/messages", sessions.HandleMessages)
	bot.Patch("/message/:id", sessions.HandleUpdateMessage)
	bot.Delete("/message/:id", sessions.HandleDeleteMessage)
	bot.Post("/chat", chat.HandleChat)
}
