package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SaschaHYR/G-Copro-sub000/internal/api/dto"
	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/service"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// NotificationsHandler exposes the unread-activity counter.
type NotificationsHandler struct {
	tracker *service.NotificationTracker
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(tracker *service.NotificationTracker) *NotificationsHandler {
	return &NotificationsHandler{tracker: tracker}
}

// Count GET /notifications/count. Recomputes from the store so a fresh
// session starts accurate; live comment events then increment in place.
func (h *NotificationsHandler) Count(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.tracker.Recount(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotificationCountResponse{Count: count}})
}

// MarkRead POST /notifications/read/:ticketID.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tracker.MarkRead(c.Context(), principal.User.ID, c.Params("ticketID")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotificationCountResponse{Count: h.tracker.Count(principal.User.ID)}})
}

// Reset POST /notifications/reset.
func (h *NotificationsHandler) Reset(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tracker.Reset(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotificationCountResponse{Count: 0}})
}
