package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

type memTicketRepo struct {
	tickets  map[string]*domain.Ticket
	comments *memCommentRepo
	seq      int
	listErrs int
}

func newMemTicketRepo(comments *memCommentRepo) *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]*domain.Ticket), comments: comments}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("t%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = stored.UpdatedAt.Add(time.Second)
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) Touch(_ context.Context, id string) error {
	stored, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.UpdatedAt = stored.UpdatedAt.Add(time.Second)
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memTicketRepo) GetByCode(_ context.Context, code string) (*domain.Ticket, error) {
	for _, stored := range r.tickets {
		if stored.Code == code {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if r.listErrs > 0 {
		r.listErrs--
		return nil, errors.New("transient")
	}
	out := []domain.Ticket{}
	for _, stored := range r.tickets {
		if filter.CreatorID != nil && stored.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.BuildingID != nil && stored.BuildingID != *filter.BuildingID {
			continue
		}
		if len(filter.RecipientRoles) > 0 {
			match := false
			for _, role := range filter.RecipientRoles {
				if stored.RecipientRole == role {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		if filter.CreatedFrom != nil && stored.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (r *memTicketRepo) ListRelevant(_ context.Context, userID string, role domain.Role) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, stored := range r.tickets {
		if stored.CreatorID == userID || stored.RecipientRole == role {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *memTicketRepo) ApplyTransfer(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error {
	if err := r.Update(ctx, ticket); err != nil {
		return err
	}
	return r.comments.Create(ctx, comment)
}

type memCommentRepo struct {
	comments []domain.Comment
	seq      int
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = fmt.Sprintf("c%d", r.seq)
	comment.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCommentRepo) LatestByTicket(_ context.Context, ticketID string) (*domain.Comment, error) {
	var latest *domain.Comment
	for i := range r.comments {
		if r.comments[i].TicketID != ticketID {
			continue
		}
		if latest == nil || r.comments[i].CreatedAt.After(latest.CreatedAt) {
			latest = &r.comments[i]
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

type memCategoryRepo struct{ categories map[string]*domain.Category }

func (r *memCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.categories[category.ID] = category
	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	r.categories[category.ID] = category
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return category, nil
}

func (r *memCategoryRepo) List(_ context.Context, includeInactive bool) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, c := range r.categories {
		if c.IsActive || includeInactive {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memBuildingRepo struct{ buildings map[string]*domain.Building }

func (r *memBuildingRepo) Create(_ context.Context, building *domain.Building) error {
	r.buildings[building.ID] = building
	return nil
}

func (r *memBuildingRepo) Update(_ context.Context, building *domain.Building) error {
	r.buildings[building.ID] = building
	return nil
}

func (r *memBuildingRepo) GetByID(_ context.Context, id string) (*domain.Building, error) {
	building, ok := r.buildings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return building, nil
}

func (r *memBuildingRepo) List(_ context.Context, includeInactive bool) ([]domain.Building, error) {
	out := []domain.Building{}
	for _, b := range r.buildings {
		if b.IsActive || includeInactive {
			out = append(out, *b)
		}
	}
	return out, nil
}

func newTicketFixture() (*TicketService, *memTicketRepo, *memCommentRepo) {
	comments := &memCommentRepo{}
	tickets := newMemTicketRepo(comments)
	categories := &memCategoryRepo{categories: map[string]*domain.Category{
		"cat1": {ID: "cat1", Name: "Plomberie", IsActive: true},
		"cat2": {ID: "cat2", Name: "Archivée", IsActive: false},
	}}
	buildings := &memBuildingRepo{buildings: map[string]*domain.Building{
		"b1": {ID: "b1", Name: "Résidence A", IsActive: true},
		"b2": {ID: "b2", Name: "Résidence B", IsActive: true},
	}}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		CommentRepo:  comments,
		CategoryRepo: categories,
		BuildingRepo: buildings,
	})
	return svc, tickets, comments
}

func owner(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleProprietaire, BuildingID: strPtr("b1"), Active: true}
}

func council(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleConseilSyndical, BuildingID: strPtr("b1"), Active: true}
}

func TestCreateTicketForcesOwnerScope(t *testing.T) {
	svc, _, _ := newTicketFixture()

	// submitted building and destinataire are overridden for owners
	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title:         "Fuite d'eau",
		Description:   "Fuite dans la cave",
		CategoryID:    "cat1",
		BuildingID:    "b2",
		RecipientRole: domain.RoleSyndic,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.BuildingID != "b1" {
		t.Fatalf("expected owner's building b1, got %s", ticket.BuildingID)
	}
	if ticket.RecipientRole != domain.RoleConseilSyndical {
		t.Fatalf("expected conseil destinataire, got %s", ticket.RecipientRole)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("expected open status, got %s", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("expected default medium priority, got %s", ticket.Priority)
	}
}

func TestCreateTicketCodeFormat(t *testing.T) {
	svc, _, _ := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Ascenseur", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	parts := strings.Split(ticket.Code, "-")
	if len(parts) != 3 || parts[0] != "GC" || len(parts[1]) != 14 || len(parts[2]) != 6 {
		t.Fatalf("unexpected code format %q", ticket.Code)
	}
	if ticket.Code != strings.ToUpper(ticket.Code) {
		t.Fatalf("code must be uppercase, got %q", ticket.Code)
	}
}

func TestCreateTicketPendingForbidden(t *testing.T) {
	svc, _, _ := newTicketFixture()

	pending := &domain.User{ID: "u9", Role: domain.RolePending, Active: true}
	_, err := svc.CreateTicket(context.Background(), pending, TicketCreateInput{
		Title: "x", CategoryID: "cat1", BuildingID: "b1", RecipientRole: domain.RoleConseilSyndical,
	})
	assertErrorCode(t, err, "FORBIDDEN")
}

func TestCreateTicketRejectsChainSkip(t *testing.T) {
	svc, _, _ := newTicketFixture()

	// conseil may only address the syndic, not the asl two steps up
	_, err := svc.CreateTicket(context.Background(), council("u2"), TicketCreateInput{
		Title: "Toiture", CategoryID: "cat1", BuildingID: "b1", RecipientRole: domain.RoleASL,
	})
	assertErrorCode(t, err, "FORBIDDEN")
}

func TestCreateTicketInactiveCategory(t *testing.T) {
	svc, _, _ := newTicketFixture()

	_, err := svc.CreateTicket(context.Background(), council("u2"), TicketCreateInput{
		Title: "Toiture", CategoryID: "cat2", BuildingID: "b1", RecipientRole: domain.RoleSyndic,
	})
	assertErrorCode(t, err, "VALIDATION_FAILED")
}

func TestReplyMovesOpenTicketToInProgress(t *testing.T) {
	svc, tickets, comments := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// the creator's own reply keeps the ticket open
	if _, err := svc.Reply(context.Background(), owner("u1"), ticket.ID, "précision", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	stored, _ := tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("creator reply must not change status, got %s", stored.Status)
	}

	if _, err := svc.Reply(context.Background(), council("u2"), ticket.ID, "pris en charge", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	stored, _ = tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusInProgress {
		t.Fatalf("expected in_progress after responder reply, got %s", stored.Status)
	}
	if len(comments.comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments.comments))
	}
}

func TestReplyAppendsAttachmentURLs(t *testing.T) {
	svc, _, _ := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	comment, err := svc.Reply(context.Background(), owner("u1"), ticket.ID, "photo jointe",
		[]string{"/files/a.jpg", "/files/b.jpg"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	want := "photo jointe\n/files/a.jpg\n/files/b.jpg"
	if comment.Body != want {
		t.Fatalf("expected body %q, got %q", want, comment.Body)
	}
}

func TestReplyDeniedOutsideScope(t *testing.T) {
	svc, _, _ := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stranger := &domain.User{ID: "u8", Role: domain.RoleProprietaire, BuildingID: strPtr("b1"), Active: true}
	_, err = svc.Reply(context.Background(), stranger, ticket.ID, "bonjour", nil)
	assertErrorCode(t, err, "FORBIDDEN")
}

func TestTransferEffects(t *testing.T) {
	svc, tickets, comments := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Toiture", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, _ := tickets.GetByID(context.Background(), ticket.ID)

	transferred, err := svc.Transfer(context.Background(), council("u2"), ticket.ID, domain.RoleSyndic, "hors périmètre conseil")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if transferred.RecipientRole != domain.RoleSyndic {
		t.Fatalf("expected syndic destinataire, got %s", transferred.RecipientRole)
	}
	if transferred.Status != domain.TicketStatusTransferred {
		t.Fatalf("expected transferred status, got %s", transferred.Status)
	}

	stored, _ := tickets.GetByID(context.Background(), ticket.ID)
	if !stored.UpdatedAt.After(before.UpdatedAt) {
		t.Fatal("transfer must refresh the update timestamp")
	}

	transferComments := 0
	for _, c := range comments.comments {
		if c.TicketID == ticket.ID && c.Type == domain.CommentTypeTransfer {
			transferComments++
			if !strings.Contains(c.Body, string(domain.RoleSyndic)) {
				t.Fatalf("transfer comment must name the destinataire, got %q", c.Body)
			}
			if !strings.Contains(c.Body, "hors périmètre conseil") {
				t.Fatalf("transfer comment must carry the note, got %q", c.Body)
			}
		}
	}
	if transferComments != 1 {
		t.Fatalf("expected exactly one transfer comment, got %d", transferComments)
	}
}

func TestTransferClosedTicketRejected(t *testing.T) {
	svc, _, _ := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Toiture", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Close(context.Background(), council("u2"), ticket.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = svc.Transfer(context.Background(), council("u2"), ticket.ID, domain.RoleSyndic, "")
	assertErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCloseAndReopen(t *testing.T) {
	svc, tickets, _ := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	closed, err := svc.Close(context.Background(), council("u2"), ticket.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.ClosedAt == nil || closed.ClosedBy == nil || *closed.ClosedBy != "u2" {
		t.Fatalf("unexpected closed state %+v", closed)
	}

	// closing twice conflicts
	_, err = svc.Close(context.Background(), council("u2"), ticket.ID)
	assertErrorCode(t, err, "CONFLICT")

	reopened, err := svc.Reopen(context.Background(), owner("u1"), ticket.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen || reopened.ClosedAt != nil || reopened.ClosedBy != nil {
		t.Fatalf("unexpected reopened state %+v", reopened)
	}

	// reopening an open ticket conflicts
	_, err = svc.Reopen(context.Background(), owner("u1"), ticket.ID)
	assertErrorCode(t, err, "CONFLICT")

	stored, _ := tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("expected open after reopen, got %s", stored.Status)
	}
}

func TestGetTicketByCode(t *testing.T) {
	svc, _, _ := newTicketFixture()

	ticket, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, _, err := svc.GetTicketByCode(context.Background(), owner("u1"), ticket.Code)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if found.ID != ticket.ID {
		t.Fatalf("expected ticket %s, got %s", ticket.ID, found.ID)
	}

	// another owner cannot resolve the code
	stranger := &domain.User{ID: "u8", Role: domain.RoleProprietaire, BuildingID: strPtr("b1"), Active: true}
	_, _, err = svc.GetTicketByCode(context.Background(), stranger, ticket.Code)
	assertErrorCode(t, err, "FORBIDDEN")

	_, _, err = svc.GetTicketByCode(context.Background(), owner("u1"), "GC-00000000000000-FFFFFF")
	assertErrorCode(t, err, "NOT_FOUND")
}

func TestListTicketsRetriesTransientErrors(t *testing.T) {
	svc, tickets, _ := newTicketFixture()

	if _, err := svc.CreateTicket(context.Background(), owner("u1"), TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tickets.listErrs = 2
	listed, err := svc.ListTickets(context.Background(), owner("u1"), VisibilityFilters{})
	if err != nil {
		t.Fatalf("list should succeed after retries: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(listed))
	}

	// three consecutive failures exhaust the attempts
	tickets.listErrs = 3
	if _, err := svc.ListTickets(context.Background(), owner("u1"), VisibilityFilters{}); err == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
}

func TestListTicketsPendingGetsEmpty(t *testing.T) {
	svc, _, _ := newTicketFixture()

	pending := &domain.User{ID: "u9", Role: domain.RolePending}
	listed, err := svc.ListTickets(context.Background(), pending, VisibilityFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("pending must see nothing, got %d tickets", len(listed))
	}
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
}
