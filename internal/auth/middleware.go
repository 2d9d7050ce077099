package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// Role returns the caller's role.
func (p *Principal) Role() domain.Role {
	if p == nil || p.User == nil {
		return domain.RolePending
	}
	return p.User.Role
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens        *TokenManager
	users         repository.UserRepository
	lookupTimeout time.Duration
}

// NewAuthMiddleware constructs middleware. lookupTimeout bounds the session
// validation query; an expired lookup is reported as an absent session.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, lookupTimeout time.Duration) *AuthMiddleware {
	if lookupTimeout <= 0 {
		lookupTimeout = 15 * time.Second
	}
	return &AuthMiddleware{tokens: tokens, users: users, lookupTimeout: lookupTimeout}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), m.lookupTimeout)
	defer cancel()

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewUnauthorized("user not found")
		case errors.Is(err, context.DeadlineExceeded):
			return apperrors.NewTimeout("session check timed out")
		default:
			return apperrors.MapError(err)
		}
	}
	if !user.Active {
		return apperrors.NewForbidden("account disabled")
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
