package repository

import (
	"context"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// DriverSource resolves drivers from one identity store.
type DriverSource interface {
	// Kind returns the driver kind this source backs.
	Kind() domain.DriverKind

	// GetDriver retrieves a driver by ID.
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
}
