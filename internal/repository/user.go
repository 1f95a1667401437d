package repository

import (
	"context"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// UserRepository defines the read operations for user accounts.
type UserRepository interface {
	// GetByIDs retrieves the users that exist among ids, keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}
