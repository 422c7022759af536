package events

import (
	"time"

	"github.com/clientcare/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventCommentAdded  EventType = "comment_added"
	EventStatusChanged EventType = "status_changed"
	EventTicketRated   EventType = "ticket_rated"
	EventSyncFailed    EventType = "sync_failed"
)

// Actor identifies who triggered an event: the owning client, a manager
// (local API or CRM-originated), or the system itself.
type Actor struct {
	Type domain.AuthorType `json:"type"`
	Name string            `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string             `json:"title"`
	Criticality domain.Criticality `json:"criticality"`
	Tag         string             `json:"tag"`
	Department  string             `json:"department"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   int64             `json:"comment_id"`
	AuthorType  domain.AuthorType `json:"author_type"`
	AuthorName  string            `json:"author_name"`
	TextPreview string            `json:"text_preview"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketRatedPayload payload.
type TicketRatedPayload struct {
	Rating int `json:"rating"`
}

// SyncFailedPayload payload.
type SyncFailedPayload struct {
	Method string `json:"method"`
	Detail string `json:"detail"`
}
