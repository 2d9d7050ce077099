package service

import (
	"strconv"
	"time"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
)

// FilterAll is the sentinel for "no constraint" on a ticket list filter.
const FilterAll = "all"

// VisibilityFilters are the user-selected ticket list filters. Zero values
// and FilterAll both mean unconstrained.
type VisibilityFilters struct {
	Status   string
	Building string
	// Period is "created within N days", expressed as the raw string from
	// the client ("7", "30", "90"). Anything non-numeric is ignored.
	Period string
	Limit  int
	Offset int
}

// ResolveVisibility computes the repository predicate determining which
// tickets the user may see. The role predicate is evaluated first, then the
// user filters apply conjunctively. ok is false when the role sees nothing
// and no query should be issued at all.
func ResolveVisibility(user *domain.User, filters VisibilityFilters, now time.Time) (repository.TicketFilter, bool) {
	filter := repository.TicketFilter{
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}

	switch user.Role {
	case domain.RoleProprietaire:
		creatorID := user.ID
		filter.CreatorID = &creatorID
	case domain.RoleConseilSyndical:
		if user.BuildingID == nil {
			return repository.TicketFilter{}, false
		}
		filter.BuildingID = user.BuildingID
		filter.RecipientRoles = []domain.Role{domain.RoleConseilSyndical, domain.RoleProprietaire}
	case domain.RoleSyndic:
		if user.BuildingID == nil {
			return repository.TicketFilter{}, false
		}
		filter.BuildingID = user.BuildingID
		filter.RecipientRoles = []domain.Role{domain.RoleSyndic, domain.RoleConseilSyndical}
	case domain.RoleASL, domain.RoleSuperadmin:
		// unrestricted
	default:
		return repository.TicketFilter{}, false
	}

	if filters.Status != "" && filters.Status != FilterAll {
		status := domain.TicketStatus(filters.Status)
		filter.Status = &status
	}
	if filters.Building != "" && filters.Building != FilterAll {
		// the building filter only ever narrows: when the role scope is
		// already bound to a building, selecting a different one matches
		// nothing
		if filter.BuildingID != nil && *filter.BuildingID != filters.Building {
			return repository.TicketFilter{}, false
		}
		building := filters.Building
		filter.BuildingID = &building
	}
	if filters.Period != "" && filters.Period != FilterAll {
		if days, err := strconv.Atoi(filters.Period); err == nil && days > 0 {
			from := now.AddDate(0, 0, -days)
			filter.CreatedFrom = &from
		}
		// non-numeric period values are silently skipped
	}

	return filter, true
}
