package dto

import (
	"time"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

// UpdateUserRequest carries admin account mutations; omitted fields stay.
type UpdateUserRequest struct {
	Role       *domain.Role `json:"role"`
	BuildingID *string      `json:"building_id"`
	Active     *bool        `json:"active"`
}

// CategoryRequest payload for create/update.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// BuildingRequest payload for create/update.
type BuildingRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

// BuildingResponse view.
type BuildingResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
