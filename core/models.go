package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Fingerprint is a deterministic content-based identifier.
// Identical content always produces the same fingerprint, which makes it
// usable as a stable reference for embedded passages.
type Fingerprint uint64

// FingerprintFromContent generates a deterministic fingerprint from text
// content using BLAKE2b hashing.
func FingerprintFromContent(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// SourceKind identifies the origin of ingested content.
type SourceKind string

const (
	// SourceKindURL is content crawled from a web page.
	SourceKindURL SourceKind = "url"
	// SourceKindPDF is content extracted from a PDF document.
	SourceKindPDF SourceKind = "pdf"
	// SourceKindVideo is content taken from a video transcript.
	SourceKindVideo SourceKind = "video"
)

// TitleSuffix returns the human-readable suffix appended to synthesized
// titles for this source kind.
func (k SourceKind) TitleSuffix() string {
	switch k {
	case SourceKindURL:
		return "Web"
	case SourceKindPDF:
		return "PDF"
	case SourceKindVideo:
		return "Video"
	default:
		return "Document"
	}
}

// Document is a normalized unit of ingested content. It is immutable once
// created: produced by the normalizer, consumed by the embedding indexer.
// A document has no identity beyond its position in a batch; its fingerprint
// serves only as a stable passage reference.
type Document struct {
	Content        string
	Metadata       map[string]string // always contains "title"
	LemmatizedText string
}

// Title returns the document title from metadata.
func (d *Document) Title() string {
	if t, ok := d.Metadata["title"]; ok && t != "" {
		return t
	}
	return "No Title"
}

// Fingerprint returns the content-based reference for this document.
func (d *Document) Fingerprint() Fingerprint {
	return FingerprintFromContent(d.Content)
}

// Collection is a named partition of the vector index holding embeddings for
// one logical content set. Collections are created lazily on first successful
// ingestion; the unique name is the idempotency boundary.
type Collection struct {
	Name         string
	EmbeddingDim int
	CreatedAt    time.Time
}

// SessionStatus is the lifecycle state of a conversation session.
type SessionStatus string

const (
	// StatusActive is a session accepting new turns.
	StatusActive SessionStatus = "ACTIVE"
	// StatusPaused is a session temporarily suspended; it can be resumed.
	StatusPaused SessionStatus = "PAUSED"
	// StatusArchived is a terminal state. No transitions leave it.
	StatusArchived SessionStatus = "ARCHIVED"
)

// CanTransitionTo reports whether the status graph permits moving from s to
// target. The graph is closed: ACTIVE to PAUSED and back, ACTIVE to ARCHIVED,
// PAUSED to ARCHIVED. ARCHIVED is terminal.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case StatusActive:
		return target == StatusPaused || target == StatusArchived
	case StatusPaused:
		return target == StatusActive || target == StatusArchived
	default:
		return false
	}
}

// MessageType identifies the sender role of a chat message.
type MessageType string

const (
	// MessageUser is a message written by a human user.
	MessageUser MessageType = "user"
	// MessageAI is a message generated by the model.
	MessageAI MessageType = "ai"
	// MessageSystem is an instruction or summary injected by the system.
	MessageSystem MessageType = "system"
)

// ConversationSession is a bounded, stateful conversation between a user and
// a chatbot. Sessions are mutated only through status transitions and are
// never hard-deleted except by an explicit delete.
type ConversationSession struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"user_id"`
	ChatbotID   string            `json:"chatbot_id"`
	TopicName   string            `json:"topic_name"`
	Description string            `json:"description,omitempty"`
	Status      SessionStatus     `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ChatMessage is a single turn in a conversation session. Messages are
// append-only per session; ordering by (CreatedAt, Seq) is the authoritative
// conversation order.
type ChatMessage struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	SenderID  string      `json:"sender_id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Seq       int64       `json:"seq"` // insertion sequence, tiebreaker for equal timestamps
}
