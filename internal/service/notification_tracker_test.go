package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/events"
	"github.com/SaschaHYR/G-Copro-sub000/internal/notify"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
)

type memUserRepo struct{ users map[string]*domain.User }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	out := []domain.User{}
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

type trackerFixture struct {
	service    *TicketService
	tracker    *NotificationTracker
	dispatcher events.Dispatcher
	users      *memUserRepo
}

func newTrackerFixture() trackerFixture {
	comments := &memCommentRepo{}
	tickets := newMemTicketRepo(comments)
	categories := &memCategoryRepo{categories: map[string]*domain.Category{
		"cat1": {ID: "cat1", Name: "Plomberie", IsActive: true},
	}}
	buildings := &memBuildingRepo{buildings: map[string]*domain.Building{
		"b1": {ID: "b1", Name: "Résidence A", IsActive: true},
	}}
	users := &memUserRepo{users: map[string]*domain.User{
		"owner":   owner("owner"),
		"council": council("council"),
	}}

	dispatcher := events.NewInMemoryDispatcher()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		CommentRepo:  comments,
		CategoryRepo: categories,
		BuildingRepo: buildings,
		Dispatcher:   dispatcher,
	})
	tracker := NewNotificationTracker(NotificationDependencies{
		TicketRepo:  tickets,
		CommentRepo: comments,
		UserRepo:    users,
		ReadSet:     notify.NewMemoryReadSet(),
	})
	tracker.RegisterHandlers(dispatcher)
	return trackerFixture{service: svc, tracker: tracker, dispatcher: dispatcher, users: users}
}

func TestRecountCountsUnseenActivity(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, f.users.users["owner"], TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Reply(ctx, f.users.users["council"], ticket.ID, "pris en charge", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}

	count, err := f.tracker.Recount(ctx, f.users.users["owner"])
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}

	// the latest comment on the council's side is their own, so no unread
	count, err = f.tracker.Recount(ctx, f.users.users["council"])
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread for the last author, got %d", count)
	}
}

func TestRecountSkipsTicketsWithoutComments(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()

	if _, err := f.service.CreateTicket(ctx, f.users.users["owner"], TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := f.tracker.Recount(ctx, f.users.users["council"])
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 0 {
		t.Fatalf("a ticket with no comments must not count, got %d", count)
	}
}

func TestMarkReadIdempotentAndNeverNegative(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, f.users.users["owner"], TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Reply(ctx, f.users.users["council"], ticket.ID, "réponse", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := f.tracker.Recount(ctx, f.users.users["owner"]); err != nil {
		t.Fatalf("recount: %v", err)
	}

	if err := f.tracker.MarkRead(ctx, "owner", ticket.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got := f.tracker.Count("owner"); got != 0 {
		t.Fatalf("expected 0 after mark read, got %d", got)
	}

	// repeating the same mark must not push the counter below zero
	for i := 0; i < 3; i++ {
		if err := f.tracker.MarkRead(ctx, "owner", ticket.ID); err != nil {
			t.Fatalf("mark read: %v", err)
		}
	}
	if got := f.tracker.Count("owner"); got != 0 {
		t.Fatalf("counter went negative: %d", got)
	}

	// marking an unknown ticket on a zero counter stays at zero
	if err := f.tracker.MarkRead(ctx, "owner", "t999"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got := f.tracker.Count("owner"); got != 0 {
		t.Fatalf("counter went negative: %d", got)
	}
}

func TestStreamingIncrementOnLiveComment(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, f.users.users["owner"], TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// both sessions are live with a loaded counter
	if _, err := f.tracker.Recount(ctx, f.users.users["owner"]); err != nil {
		t.Fatalf("recount: %v", err)
	}
	if _, err := f.tracker.Recount(ctx, f.users.users["council"]); err != nil {
		t.Fatalf("recount: %v", err)
	}

	if _, err := f.service.Reply(ctx, f.users.users["council"], ticket.ID, "pris en charge", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if got := f.tracker.Count("owner"); got != 1 {
		t.Fatalf("expected owner counter 1 after live comment, got %d", got)
	}
	// the author never counts their own comment
	if got := f.tracker.Count("council"); got != 0 {
		t.Fatalf("expected council counter 0, got %d", got)
	}
}

func TestStreamingIncrementSkipsReadTickets(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, f.users.users["owner"], TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.tracker.Recount(ctx, f.users.users["owner"]); err != nil {
		t.Fatalf("recount: %v", err)
	}
	if err := f.tracker.MarkRead(ctx, "owner", ticket.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if _, err := f.service.Reply(ctx, f.users.users["council"], ticket.ID, "suivi", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got := f.tracker.Count("owner"); got != 0 {
		t.Fatalf("read tickets must not increment, got %d", got)
	}
}

func TestResetZeroesCounterAndReadSet(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, f.users.users["owner"], TicketCreateInput{
		Title: "Fuite", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Reply(ctx, f.users.users["council"], ticket.ID, "réponse", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := f.tracker.Recount(ctx, f.users.users["owner"]); err != nil {
		t.Fatalf("recount: %v", err)
	}
	if err := f.tracker.MarkRead(ctx, "owner", ticket.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if err := f.tracker.Reset(ctx, "owner"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := f.tracker.Count("owner"); got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}

	// the cleared read set makes the activity unread again
	count, err := f.tracker.Recount(ctx, f.users.users["owner"])
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread after reset, got %d", count)
	}
}

func TestOwnerCouncilNotificationScenario(t *testing.T) {
	f := newTrackerFixture()
	ctx := context.Background()
	ownerUser := f.users.users["owner"]
	councilUser := f.users.users["council"]

	ticket, err := f.service.CreateTicket(ctx, ownerUser, TicketCreateInput{
		Title: "Infiltration", CategoryID: "cat1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.tracker.Recount(ctx, ownerUser); err != nil {
		t.Fatalf("recount: %v", err)
	}
	if _, err := f.tracker.Recount(ctx, councilUser); err != nil {
		t.Fatalf("recount: %v", err)
	}

	// council answers: only the owner gains an unread
	if _, err := f.service.Reply(ctx, councilUser, ticket.ID, "devis demandé", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if f.tracker.Count("owner") != 1 || f.tracker.Count("council") != 0 {
		t.Fatalf("after council reply: owner=%d council=%d", f.tracker.Count("owner"), f.tracker.Count("council"))
	}

	// owner reads, then answers back: counters swap
	if err := f.tracker.MarkRead(ctx, "owner", ticket.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := f.service.Reply(ctx, ownerUser, ticket.ID, "merci", nil); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if f.tracker.Count("owner") != 0 || f.tracker.Count("council") != 1 {
		t.Fatalf("after owner reply: owner=%d council=%d", f.tracker.Count("owner"), f.tracker.Count("council"))
	}

	// a fresh recount for the council agrees with the streamed counter
	count, err := f.tracker.Recount(ctx, councilUser)
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 1 {
		t.Fatalf("recount disagrees with streamed counter: %d", count)
	}
}
