package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "open"
	TicketStatusInProgress  TicketStatus = "in_progress"
	TicketStatusTransferred TicketStatus = "transferred"
	TicketStatusClosed      TicketStatus = "closed"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket is the aggregate for copropriété requests. RecipientRole is the
// destinataire, the role currently responsible for acting on the ticket.
type Ticket struct {
	ID            string
	Code          string
	Title         string
	Description   string
	CategoryID    string
	BuildingID    string
	CreatorID     string
	RecipientRole Role
	Status        TicketStatus
	Priority      TicketPriority
	Attachments   []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
	ClosedBy      *string
}
