package repository

import (
	"context"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// TripFilter narrows a trip search. Zero values disable a criterion.
type TripFilter struct {
	PickupCity  string
	DropoffCity string
	DateFrom    time.Time // Inclusive
	DateTo      time.Time // Exclusive
	RideType    domain.RideType
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// Search returns bookable trips (available, with free seats) matching
	// the filter, ordered by date then time of day.
	Search(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// ListByDriver returns the driver's trips, optionally restricted to the
	// given statuses.
	ListByDriver(ctx context.Context, driverID string, statuses ...domain.TripStatus) ([]*domain.Trip, error)

	// ReserveSeat takes one seat for userID if, at write time, the trip is
	// bookable and has a free seat. It reports whether a seat was taken.
	ReserveSeat(ctx context.Context, tripID, userID string) (bool, error)

	// ReleaseSeat returns userID's seat to the trip. Seats never exceed the
	// trip's capacity.
	ReleaseSeat(ctx context.Context, tripID, userID string) error

	// TransitionStatus moves the trip to status `to` only if its current
	// status is one of `from`. It reports whether the row changed.
	TransitionStatus(ctx context.Context, id string, to domain.TripStatus, from ...domain.TripStatus) (bool, error)
}
