package domain

import "time"

// CommentType differentiates replies from transfer notices.
type CommentType string

const (
	CommentTypeReply    CommentType = "reply"
	CommentTypeTransfer CommentType = "transfer"
)

// Comment is an append-only entry in a ticket thread.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Type      CommentType
	Body      string
	CreatedAt time.Time
}
