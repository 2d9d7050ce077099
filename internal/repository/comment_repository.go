package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

// CommentRepository manages ticket thread comments. Comments are
// append-only; there is no update or delete.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
	LatestByTicket(ctx context.Context, ticketID string) (*domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, type, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Type,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, type, body, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Type,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

// LatestByTicket returns the most recent comment, or pgx.ErrNoRows when the
// thread is empty.
func (r *commentRepository) LatestByTicket(ctx context.Context, ticketID string) (*domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, type, body, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT 1`
	var comment domain.Comment
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Type,
		&comment.Body,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}
