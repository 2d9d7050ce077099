package service

import (
	"context"
	"strings"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// AdminService manages the directory: accounts, categories and buildings.
// Role checks happen here, before any write is issued.
type AdminService struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	buildings  repository.BuildingRepository
}

// AdminDependencies bundles repositories for the admin service.
type AdminDependencies struct {
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	BuildingRepo repository.BuildingRepository
}

// UserUpdateInput carries the fields an administrator may change. Nil means
// leave untouched. Accounts are never hard-deleted; deactivation flips
// Active instead.
type UserUpdateInput struct {
	Role       *domain.Role
	BuildingID *string
	Active     *bool
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		buildings:  deps.BuildingRepo,
	}
}

func requireSuperadmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleSuperadmin {
		return apperrors.NewForbidden("superadmin role required")
	}
	return nil
}

func requirePrivileged(actor *domain.User) error {
	if actor == nil || !actor.Role.IsPrivileged() {
		return apperrors.NewForbidden("privileged role required")
	}
	return nil
}

// ListUsers returns directory accounts; ASL and superadmin may list.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UpdateUser mutates role, building and active flag; superadmin only.
func (s *AdminService) UpdateUser(ctx context.Context, actor *domain.User, userID string, input UserUpdateInput) (*domain.User, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if input.Role != nil {
		if !validRole(*input.Role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
	}
	if input.BuildingID != nil {
		if *input.BuildingID == "" {
			user.BuildingID = nil
		} else {
			if _, err := s.buildings.GetByID(ctx, *input.BuildingID); err != nil {
				return nil, apperrors.MapError(err)
			}
			user.BuildingID = input.BuildingID
		}
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// CreateCategory adds a ticket category.
func (s *AdminService) CreateCategory(ctx context.Context, actor *domain.User, name, description string) (*domain.Category, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	category := &domain.Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories; any authenticated caller may list
// active ones, only privileged roles see inactive.
func (s *AdminService) ListCategories(ctx context.Context, actor *domain.User, includeInactive bool) ([]domain.Category, error) {
	if includeInactive {
		if err := requirePrivileged(actor); err != nil {
			return nil, err
		}
	}
	categories, err := s.categories.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// UpdateCategory renames or toggles a category.
func (s *AdminService) UpdateCategory(ctx context.Context, actor *domain.User, id, name, description string, isActive *bool) (*domain.Category, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(name) != "" {
		category.Name = strings.TrimSpace(name)
	}
	if description != "" {
		category.Description = strings.TrimSpace(description)
	}
	if isActive != nil {
		category.IsActive = *isActive
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// CreateBuilding adds a copropriété.
func (s *AdminService) CreateBuilding(ctx context.Context, actor *domain.User, name, address string) (*domain.Building, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	building := &domain.Building{
		Name:     strings.TrimSpace(name),
		Address:  strings.TrimSpace(address),
		IsActive: true,
	}
	if err := s.buildings.Create(ctx, building); err != nil {
		return nil, apperrors.MapError(err)
	}
	return building, nil
}

// ListBuildings returns buildings.
func (s *AdminService) ListBuildings(ctx context.Context, actor *domain.User, includeInactive bool) ([]domain.Building, error) {
	if includeInactive {
		if err := requirePrivileged(actor); err != nil {
			return nil, err
		}
	}
	buildings, err := s.buildings.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return buildings, nil
}

// UpdateBuilding renames or toggles a building.
func (s *AdminService) UpdateBuilding(ctx context.Context, actor *domain.User, id, name, address string, isActive *bool) (*domain.Building, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	building, err := s.buildings.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(name) != "" {
		building.Name = strings.TrimSpace(name)
	}
	if address != "" {
		building.Address = strings.TrimSpace(address)
	}
	if isActive != nil {
		building.IsActive = *isActive
	}
	if err := s.buildings.Update(ctx, building); err != nil {
		return nil, apperrors.MapError(err)
	}
	return building, nil
}

func validRole(role domain.Role) bool {
	switch role {
	case domain.RolePending, domain.RoleProprietaire, domain.RoleConseilSyndical,
		domain.RoleSyndic, domain.RoleASL, domain.RoleSuperadmin:
		return true
	default:
		return false
	}
}
