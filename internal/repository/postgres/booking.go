package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

const bookingColumns = `id, user_id, trip_id, pickup_time, status, fare_amount, payment_status, created_at, updated_at`

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking. The partial unique index on
// (user_id, trip_id) for non-cancelled rows rejects a second active booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var pickupTime sql.NullString
	if booking.PickupTime != "" {
		pickupTime = sql.NullString{String: booking.PickupTime, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.TripID,
		pickupTime,
		booking.Status,
		booking.FareAmount,
		booking.PaymentStatus,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// FindActive returns the user's non-cancelled booking on the trip.
// Returns nil if none exists.
func (r *BookingRepository) FindActive(ctx context.Context, userID, tripID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1 AND trip_id = $2 AND status <> $3
		LIMIT 1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, userID, tripID, domain.BookingStatusCancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return booking, nil
}

// ListByUser returns all of the user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, userID)
}

// ListByTrips returns bookings against any of the trips, newest first.
func (r *BookingRepository) ListByTrips(ctx context.Context, tripIDs []string, statuses ...domain.BookingStatus) ([]*domain.Booking, error) {
	if len(tripIDs) == 0 {
		return nil, nil
	}

	if len(statuses) == 0 {
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE trip_id = ANY($1) ORDER BY created_at DESC`
		return r.queryBookings(ctx, query, pq.Array(tripIDs))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE trip_id = ANY($1) AND status = ANY($2)
		ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, pq.Array(tripIDs), pq.Array(bookingStatusStrings(statuses)))
}

// TransitionStatus conditionally updates the booking status.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, to domain.BookingStatus, from ...domain.BookingStatus) (bool, error) {
	var (
		result sql.Result
		err    error
	)
	if len(from) == 0 {
		result, err = r.q.ExecContext(ctx,
			`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, to, id)
	} else {
		result, err = r.q.ExecContext(ctx,
			`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = ANY($3)`,
			to, id, pq.Array(bookingStatusStrings(from)))
	}
	if err != nil {
		return false, err
	}
	return affected(result)
}

// UpdatePaymentStatus sets the payment status of a booking.
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $1, updated_at = now() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking    domain.Booking
		pickupTime sql.NullString
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.TripID,
		&pickupTime,
		&booking.Status,
		&booking.FareAmount,
		&booking.PaymentStatus,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pickupTime.Valid {
		booking.PickupTime = pickupTime.String
	}
	return &booking, nil
}

func bookingStatusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
