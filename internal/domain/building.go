package domain

import "time"

// Building represents a managed copropriété; users and tickets are scoped
// to one.
type Building struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
