package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/SaschaHYR/G-Copro-sub000/internal/api/dto"
	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/service"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// AuthHandler exposes registration and session endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	tracker *service.NotificationTracker
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, tracker *service.NotificationTracker) *AuthHandler {
	return &AuthHandler{auth: authService, tracker: tracker}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, token, exp, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /auth/logout. The notification state resets so an
// account switch on the same device starts from a clean counter.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tracker.Reset(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "signed_out"}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": userResponse(principal.User)})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		BuildingID: user.BuildingID,
		Active:     user.Active,
		CreatedAt:  user.CreatedAt,
	}
}
