package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/events"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// listRetries is the number of extra attempts for the ticket list query
// before the error surfaces. Other operations never retry.
const listRetries = 2

// TicketService coordinates ticket workflows: creation, replies, transfers
// along the escalation chain, and close/reopen.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	categories repository.CategoryRepository
	buildings  repository.BuildingRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.CommentRepository
	CategoryRepo repository.CategoryRepository
	BuildingRepo repository.BuildingRepository
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title         string
	Description   string
	CategoryID    string
	BuildingID    string
	RecipientRole domain.Role
	Priority      domain.TicketPriority
	Attachments   []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		categories: deps.CategoryRepo,
		buildings:  deps.BuildingRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket for a user. Pending accounts may not create
// tickets. For proprietaires the building is forced to their own and the
// destinataire to conseil_syndical regardless of the submitted values.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if creator.Role == domain.RolePending {
		return nil, apperrors.NewForbidden("account pending validation")
	}

	if creator.Role == domain.RoleProprietaire {
		if creator.BuildingID == nil {
			return nil, apperrors.NewValidationError("account has no building assigned", nil)
		}
		input.BuildingID = *creator.BuildingID
		input.RecipientRole = domain.RoleConseilSyndical
	}

	if strings.TrimSpace(input.Title) == "" || input.CategoryID == "" || input.BuildingID == "" {
		return nil, apperrors.NewValidationError("title, category_id, building_id required", nil)
	}
	if !domain.CanAddress(creator.Role, input.RecipientRole) {
		return nil, apperrors.NewForbidden(fmt.Sprintf("role %s may not address %s", creator.Role, input.RecipientRole))
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("category inactive", nil)
	}
	building, err := s.buildings.GetByID(ctx, input.BuildingID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !building.IsActive {
		return nil, apperrors.NewValidationError("building inactive", nil)
	}

	ticket := &domain.Ticket{
		Code:          generateTicketCode(),
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		CategoryID:    input.CategoryID,
		BuildingID:    input.BuildingID,
		CreatorID:     creator.ID,
		RecipientRole: input.RecipientRole,
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		Attachments:   input.Attachments,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []string{}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.ID,
		Payload: events.TicketCreatedPayload{
			Code:          ticket.Code,
			BuildingID:    ticket.BuildingID,
			RecipientRole: ticket.RecipientRole,
			Priority:      ticket.Priority,
			Title:         ticket.Title,
		},
	})
	return ticket, nil
}

// ListTickets resolves visibility for the user and runs the list query.
// The list query is the one operation with automatic retries.
func (s *TicketService) ListTickets(ctx context.Context, user *domain.User, filters VisibilityFilters) ([]domain.Ticket, error) {
	filter, ok := ResolveVisibility(user, filters, time.Now())
	if !ok {
		return []domain.Ticket{}, nil
	}

	var lastErr error
	for attempt := 0; attempt <= listRetries; attempt++ {
		tickets, err := s.tickets.ListWithFilter(ctx, filter)
		if err == nil {
			return tickets, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, apperrors.MapError(lastErr)
}

// GetTicket fetches a ticket with its thread, enforcing visibility.
func (s *TicketService) GetTicket(ctx context.Context, user *domain.User, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !s.userCanSeeTicket(user, ticket) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// GetTicketByCode resolves a ticket by its human-readable code, with the
// same visibility enforcement as GetTicket.
func (s *TicketService) GetTicketByCode(ctx context.Context, user *domain.User, code string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !s.userCanSeeTicket(user, ticket) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// Reply appends a reply comment. Public URLs of uploaded attachments are
// appended to the body text, and the ticket's update timestamp refreshes.
func (s *TicketService) Reply(ctx context.Context, author *domain.User, ticketID, body string, attachmentURLs []string) (*domain.Comment, error) {
	if strings.TrimSpace(body) == "" && len(attachmentURLs) == 0 {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.userCanSeeTicket(author, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	text := strings.TrimSpace(body)
	for _, url := range attachmentURLs {
		if text != "" {
			text += "\n"
		}
		text += url
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: author.ID,
		Type:     domain.CommentTypeReply,
		Body:     text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	// a reply always refreshes the update timestamp; the first reply from
	// someone other than the creator moves an open ticket to in_progress
	if ticket.Status == domain.TicketStatusOpen && author.ID != ticket.CreatorID {
		ticket.Status = domain.TicketStatusInProgress
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	} else if err := s.tickets.Touch(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishCommentEvent(ctx, ticket, comment)
	return comment, nil
}

// Transfer advances a ticket to the chosen destinataire. Recipient change,
// status flip, timestamp refresh and the transfer comment apply atomically.
func (s *TicketService) Transfer(ctx context.Context, actor *domain.User, ticketID string, target domain.Role, note string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.userCanSeeTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("closed tickets cannot be transferred", nil)
	}
	if !domain.CanAddress(actor.Role, target) {
		return nil, apperrors.NewForbidden(fmt.Sprintf("role %s may not transfer to %s", actor.Role, target))
	}

	fromRole := ticket.RecipientRole
	ticket.RecipientRole = target
	ticket.Status = domain.TicketStatusTransferred

	body := fmt.Sprintf("Ticket transféré à %s", target)
	if strings.TrimSpace(note) != "" {
		body += "\n" + strings.TrimSpace(note)
	}
	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Type:     domain.CommentTypeTransfer,
		Body:     body,
	}

	if err := s.tickets.ApplyTransfer(ctx, ticket, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketTransferred,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketTransferredPayload{
			FromRole: fromRole,
			ToRole:   target,
			Note:     note,
		},
	})
	s.publishCommentEvent(ctx, ticket, comment)
	return ticket, nil
}

// Close sets the ticket closed, stamping closer identity and closure time.
func (s *TicketService) Close(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.userCanSeeTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket already closed", nil)
	}

	now := time.Now()
	actorID := actor.ID
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.ClosedBy = &actorID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketClosedPayload{ClosedBy: actor.ID, ClosedAt: now},
	})
	return ticket, nil
}

// Reopen flips a closed ticket back to open, clearing closer fields.
func (s *TicketService) Reopen(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.userCanSeeTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket is not closed", nil)
	}

	ticket.Status = domain.TicketStatusOpen
	ticket.ClosedAt = nil
	ticket.ClosedBy = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
	})
	return ticket, nil
}

// userCanSeeTicket applies the role predicate to a single ticket; same
// rules as ResolveVisibility.
func (s *TicketService) userCanSeeTicket(user *domain.User, ticket *domain.Ticket) bool {
	switch user.Role {
	case domain.RoleProprietaire:
		return ticket.CreatorID == user.ID
	case domain.RoleConseilSyndical:
		return user.BuildingID != nil && *user.BuildingID == ticket.BuildingID &&
			(ticket.RecipientRole == domain.RoleConseilSyndical || ticket.RecipientRole == domain.RoleProprietaire)
	case domain.RoleSyndic:
		return user.BuildingID != nil && *user.BuildingID == ticket.BuildingID &&
			(ticket.RecipientRole == domain.RoleSyndic || ticket.RecipientRole == domain.RoleConseilSyndical)
	case domain.RoleASL, domain.RoleSuperadmin:
		return true
	default:
		return false
	}
}

// generateTicketCode builds the human-readable code: a timestamp suffix plus
// a short random suffix. Collisions are treated as negligible; there is no
// uniqueness retry.
func generateTicketCode() string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("GC-%s-%s", time.Now().Format("20060102150405"), random)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) publishCommentEvent(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentCreated,
		TicketID: ticket.ID,
		ActorID:  comment.AuthorID,
		Payload: events.CommentCreatedPayload{
			CommentID:       comment.ID,
			TicketID:        ticket.ID,
			TicketCreatorID: ticket.CreatorID,
			RecipientRole:   ticket.RecipientRole,
			AuthorID:        comment.AuthorID,
			CommentType:     comment.Type,
			BodyPreview:     bodyPreview(comment.Body, 120),
		},
	})
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
