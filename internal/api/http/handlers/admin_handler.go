package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/SaschaHYR/G-Copro-sub000/internal/api/dto"
	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	"github.com/SaschaHYR/G-Copro-sub000/internal/service"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// AdminHandler exposes directory management: users, categories, buildings.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.UserFilter{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	if building := c.Query("building"); building != "" {
		filter.BuildingID = &building
	}

	users, err := h.admin.ListUsers(c.Context(), principal.User, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateUser PATCH /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.admin.UpdateUser(c.Context(), principal.User, c.Params("id"), service.UserUpdateInput{
		Role:       req.Role,
		BuildingID: req.BuildingID,
		Active:     req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// CreateCategory POST /admin/categories.
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.admin.CreateCategory(c.Context(), principal.User, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories GET /admin/categories.
func (h *AdminHandler) ListCategories(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	categories, err := h.admin.ListCategories(c.Context(), principal.User, c.QueryBool("include_inactive"))
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateCategory PATCH /admin/categories/:id.
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.admin.UpdateCategory(c.Context(), principal.User, c.Params("id"), req.Name, req.Description, req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// CreateBuilding POST /admin/buildings.
func (h *AdminHandler) CreateBuilding(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BuildingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	building, err := h.admin.CreateBuilding(c.Context(), principal.User, req.Name, req.Address)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": buildingResponse(building)})
}

// ListBuildings GET /admin/buildings.
func (h *AdminHandler) ListBuildings(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	buildings, err := h.admin.ListBuildings(c.Context(), principal.User, c.QueryBool("include_inactive"))
	if err != nil {
		return err
	}
	items := make([]dto.BuildingResponse, 0, len(buildings))
	for i := range buildings {
		items = append(items, buildingResponse(&buildings[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateBuilding PATCH /admin/buildings/:id.
func (h *AdminHandler) UpdateBuilding(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BuildingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	building, err := h.admin.UpdateBuilding(c.Context(), principal.User, c.Params("id"), req.Name, req.Address, req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": buildingResponse(building)})
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
		CreatedAt:   category.CreatedAt,
	}
}

func buildingResponse(building *domain.Building) dto.BuildingResponse {
	return dto.BuildingResponse{
		ID:        building.ID,
		Name:      building.Name,
		Address:   building.Address,
		IsActive:  building.IsActive,
		CreatedAt: building.CreatedAt,
	}
}
