package service

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/events"
	"github.com/SaschaHYR/G-Copro-sub000/internal/notify"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// NotificationTracker maintains, per user, a count of tickets with unseen
// activity from someone else. The durable part is the read set; counters
// live in memory and are recomputed on demand.
//
// The streaming increment on a live comment event can drift from a full
// recompute when a relevant ticket collects several qualifying comments
// between refreshes. That approximation is accepted; Recount reconciles.
type NotificationTracker struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	readSet  notify.ReadSetStore
	logger   *zap.Logger

	mu       sync.Mutex
	counters map[string]int
}

// NotificationDependencies bundles requirements for the tracker.
type NotificationDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	ReadSet     notify.ReadSetStore
	Logger      *zap.Logger
}

// NewNotificationTracker constructs the tracker.
func NewNotificationTracker(deps NotificationDependencies) *NotificationTracker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationTracker{
		tickets:  deps.TicketRepo,
		comments: deps.CommentRepo,
		users:    deps.UserRepo,
		readSet:  deps.ReadSet,
		logger:   logger,
	}
}

// RegisterHandlers subscribes the tracker to the comment feed.
func (t *NotificationTracker) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventCommentCreated, t.handleCommentCreated)
}

// Recount recomputes the user's unread count from scratch: every relevant
// ticket whose latest comment was written by someone else and which the
// user has not marked read counts once.
func (t *NotificationTracker) Recount(ctx context.Context, user *domain.User) (int, error) {
	tickets, err := t.tickets.ListRelevant(ctx, user.ID, user.Role)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	count := 0
	for i := range tickets {
		latest, err := t.comments.LatestByTicket(ctx, tickets[i].ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return 0, apperrors.MapError(err)
		}
		if latest.AuthorID == user.ID {
			continue
		}
		read, err := t.readSet.Contains(ctx, user.ID, tickets[i].ID)
		if err != nil {
			return 0, apperrors.MapError(err)
		}
		if !read {
			count++
		}
	}

	t.mu.Lock()
	if t.counters == nil {
		t.counters = make(map[string]int)
	}
	t.counters[user.ID] = count
	t.mu.Unlock()
	return count, nil
}

// Count returns the current in-memory counter for the user.
func (t *NotificationTracker) Count(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[userID]
}

// MarkRead adds the ticket to the user's read set. It decrements the
// counter at most once per ticket and never below zero.
func (t *NotificationTracker) MarkRead(ctx context.Context, userID, ticketID string) error {
	added, err := t.readSet.Add(ctx, userID, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !added {
		return nil
	}
	t.mu.Lock()
	if t.counters[userID] > 0 {
		t.counters[userID]--
	}
	t.mu.Unlock()
	return nil
}

// Reset clears the read set and zeroes the counter unconditionally; used on
// logout and account switch.
func (t *NotificationTracker) Reset(ctx context.Context, userID string) error {
	if err := t.readSet.Clear(ctx, userID); err != nil {
		return apperrors.MapError(err)
	}
	t.mu.Lock()
	delete(t.counters, userID)
	t.mu.Unlock()
	return nil
}

// handleCommentCreated performs the streaming increment: one per event,
// never a full recompute. Every user with a live counter is checked against
// the same relevance test the recompute uses (ticket creator or recipient
// role match).
func (t *NotificationTracker) handleCommentCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentCreatedPayload)
	if !ok {
		return nil
	}

	t.mu.Lock()
	userIDs := make([]string, 0, len(t.counters))
	for id := range t.counters {
		userIDs = append(userIDs, id)
	}
	t.mu.Unlock()

	for _, userID := range userIDs {
		if userID == payload.AuthorID {
			continue
		}
		user, err := t.users.GetByID(ctx, userID)
		if err != nil {
			t.logger.Warn("notification increment: user lookup failed",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if !commentRelevantTo(user, payload) {
			continue
		}
		read, err := t.readSet.Contains(ctx, userID, payload.TicketID)
		if err != nil {
			t.logger.Warn("notification increment: read set lookup failed",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if read {
			continue
		}
		t.mu.Lock()
		t.counters[userID]++
		t.mu.Unlock()
	}
	return nil
}

// commentRelevantTo is the shared relevance test: the user created the
// ticket or holds the ticket's destinataire role.
func commentRelevantTo(user *domain.User, payload events.CommentCreatedPayload) bool {
	return payload.TicketCreatorID == user.ID || payload.RecipientRole == user.Role
}
