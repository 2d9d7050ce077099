package dto

import (
	"time"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	CategoryID    string                `json:"category_id"`
	BuildingID    string                `json:"building_id"`
	RecipientRole domain.Role           `json:"recipient_role"`
	Priority      domain.TicketPriority `json:"priority"`
	Attachments   []string              `json:"attachments"`
}

// TransferRequest payload.
type TransferRequest struct {
	Target domain.Role `json:"target"`
	Note   string      `json:"note"`
}

// ReplyRequest payload; attachment URLs come from prior /uploads calls or
// from multipart parts handled by the reply endpoint itself.
type ReplyRequest struct {
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	Code          string                `json:"code"`
	Title         string                `json:"title"`
	CategoryID    string                `json:"category_id"`
	BuildingID    string                `json:"building_id"`
	CreatorID     string                `json:"creator_id"`
	RecipientRole domain.Role           `json:"recipient_role"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string            `json:"description"`
	Attachments []string          `json:"attachments"`
	ClosedAt    *time.Time        `json:"closed_at"`
	ClosedBy    *string           `json:"closed_by"`
	Comments    []CommentResponse `json:"comments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID        string             `json:"id"`
	AuthorID  string             `json:"author_id"`
	Type      domain.CommentType `json:"type"`
	Body      string             `json:"body"`
	CreatedAt time.Time          `json:"created_at"`
}

// NotificationCountResponse carries the unread-activity counter.
type NotificationCountResponse struct {
	Count int `json:"count"`
}
