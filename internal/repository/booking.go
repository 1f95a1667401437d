package repository

import (
	"context"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking. Returns ErrDuplicate if the user already
	// holds an active booking on the trip.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// FindActive returns the user's non-cancelled booking on the trip.
	// Returns nil if none exists.
	FindActive(ctx context.Context, userID, tripID string) (*domain.Booking, error)

	// ListByUser returns all of the user's bookings, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)

	// ListByTrips returns bookings against any of the trips, newest first,
	// optionally restricted to the given statuses.
	ListByTrips(ctx context.Context, tripIDs []string, statuses ...domain.BookingStatus) ([]*domain.Booking, error)

	// TransitionStatus moves the booking to status `to` only if its current
	// status is one of `from`. It reports whether the row changed.
	TransitionStatus(ctx context.Context, id string, to domain.BookingStatus, from ...domain.BookingStatus) (bool, error)

	// UpdatePaymentStatus sets the payment status of a booking.
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
}
