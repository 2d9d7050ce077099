package events

import (
	"time"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketTransferred EventType = "ticket_transferred"
	EventTicketClosed      EventType = "ticket_closed"
	EventTicketReopened    EventType = "ticket_reopened"
	EventCommentCreated    EventType = "comment_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code          string                `json:"code"`
	BuildingID    string                `json:"building_id"`
	RecipientRole domain.Role           `json:"recipient_role"`
	Priority      domain.TicketPriority `json:"priority"`
	Title         string                `json:"title"`
}

// TicketTransferredPayload payload.
type TicketTransferredPayload struct {
	FromRole domain.Role `json:"from_role"`
	ToRole   domain.Role `json:"to_role"`
	Note     string      `json:"note,omitempty"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosedBy string    `json:"closed_by"`
	ClosedAt time.Time `json:"closed_at"`
}

// CommentCreatedPayload carries what the notification tracker and the
// websocket feed need to route a comment-insert event.
type CommentCreatedPayload struct {
	CommentID       string             `json:"comment_id"`
	TicketID        string             `json:"ticket_id"`
	TicketCreatorID string             `json:"ticket_creator_id"`
	RecipientRole   domain.Role        `json:"recipient_role"`
	AuthorID        string             `json:"author_id"`
	CommentType     domain.CommentType `json:"comment_type"`
	BodyPreview     string             `json:"body_preview"`
}
