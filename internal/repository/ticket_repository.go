package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

// TicketFilter captures the composed visibility predicate plus the
// user-selected filters. RecipientRoles is an OR within the clause; all
// clauses combine conjunctively.
type TicketFilter struct {
	CreatorID      *string
	BuildingID     *string
	RecipientRoles []domain.Role
	Status         *domain.TicketStatus
	CreatedFrom    *time.Time
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Touch(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListRelevant(ctx context.Context, userID string, role domain.Role) ([]domain.Ticket, error)
	ApplyTransfer(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, code, title, description, category_id, building_id, creator_id,
               recipient_role, status, priority, attachments, created_at, updated_at, closed_at, closed_by`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, title, description, category_id, building_id, creator_id, recipient_role, status, priority, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Code,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.BuildingID,
		ticket.CreatorID,
		ticket.RecipientRole,
		ticket.Status,
		ticket.Priority,
		ticket.Attachments,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category_id=$3, building_id=$4, recipient_role=$5,
            status=$6, priority=$7, attachments=$8, closed_at=$9, closed_by=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.BuildingID,
		ticket.RecipientRole,
		ticket.Status,
		ticket.Priority,
		ticket.Attachments,
		ticket.ClosedAt,
		ticket.ClosedBy,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return err
	}
	return nil
}

// Touch refreshes updated_at without changing anything else; replies use it.
func (r *ticketRepository) Touch(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE code=$1`, code)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.BuildingID,
		&ticket.CreatorID,
		&ticket.RecipientRole,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Attachments,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	builder := newClauseBuilder()

	if filter.CreatorID != nil {
		builder.add("creator_id=", *filter.CreatorID)
	}
	if filter.BuildingID != nil {
		builder.add("building_id=", *filter.BuildingID)
	}
	if len(filter.RecipientRoles) > 0 {
		placeholders := make([]string, len(filter.RecipientRoles))
		for i, role := range filter.RecipientRoles {
			placeholders[i] = builder.placeholder(role)
		}
		builder.addRaw("recipient_role IN (" + strings.Join(placeholders, ",") + ")")
	}
	if filter.Status != nil {
		builder.add("status=", *filter.Status)
	}
	if filter.CreatedFrom != nil {
		builder.add("created_at >= ", *filter.CreatedFrom)
	}

	query := builder.build(base, "created_at DESC", filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, builder.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListRelevant returns tickets the user created or whose destinataire is the
// user's role; the notification tracker's relevance test.
func (r *ticketRepository) ListRelevant(ctx context.Context, userID string, role domain.Role) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE creator_id=$1 OR recipient_role=$2
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ApplyTransfer applies the recipient change, status flip, timestamp refresh
// and transfer comment in a single transaction so callers never observe a
// partial transfer.
func (r *ticketRepository) ApplyTransfer(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateQuery = `
        UPDATE tickets SET recipient_role=$1, status=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateQuery,
		ticket.RecipientRole,
		ticket.Status,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return err
	}

	const commentQuery = `
        INSERT INTO comments (ticket_id, author_id, type, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, commentQuery,
		comment.TicketID,
		comment.AuthorID,
		comment.Type,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Code,
			&ticket.Title,
			&ticket.Description,
			&ticket.CategoryID,
			&ticket.BuildingID,
			&ticket.CreatorID,
			&ticket.RecipientRole,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Attachments,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
			&ticket.ClosedBy,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
