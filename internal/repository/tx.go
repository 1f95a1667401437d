package repository

import "context"

// Repositories groups the repositories that share a transaction.
type Repositories struct {
	Trips    TripRepository
	Bookings BookingRepository
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
