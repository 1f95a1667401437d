package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

const tripColumns = `id, driver_id, driver_kind,
	pickup_address, pickup_city, pickup_province,
	dropoff_address, dropoff_city, dropoff_province,
	trip_date, time_of_day, seat_capacity, available_seats, ride_type,
	base_fare, taxes_and_fees, total_fare, status, passengers, created_at`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	passengers := trip.Passengers
	if passengers == nil {
		passengers = []string{}
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.Driver.ID,
		trip.Driver.Kind,
		trip.Pickup.Address,
		trip.Pickup.City,
		trip.Pickup.Province,
		trip.Dropoff.Address,
		trip.Dropoff.City,
		trip.Dropoff.Province,
		trip.Date,
		trip.Time.String(),
		trip.SeatCapacity,
		trip.AvailableSeats,
		trip.RideType,
		trip.BaseFare,
		trip.TaxesAndFees,
		trip.TotalFare,
		trip.Status,
		pq.Array(passengers),
		trip.CreatedAt,
	)
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// Search returns bookable trips matching the filter.
// time_of_day is zero-padded HH:MM, so ordering by it is chronological.
func (r *TripRepository) Search(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	conds := []string{"status = $1", "available_seats > 0"}
	args := []any{domain.TripStatusAvailable}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.PickupCity != "" {
		add("pickup_city = $%d", filter.PickupCity)
	}
	if filter.DropoffCity != "" {
		add("dropoff_city = $%d", filter.DropoffCity)
	}
	if !filter.DateFrom.IsZero() {
		add("trip_date >= $%d", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		add("trip_date < $%d", filter.DateTo)
	}
	if filter.RideType != "" && filter.RideType != domain.RideTypeAll {
		add("ride_type = $%d", filter.RideType)
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY trip_date ASC, time_of_day ASC`

	return r.queryTrips(ctx, query, args...)
}

// ListByDriver returns the driver's trips, newest departure first.
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string, statuses ...domain.TripStatus) ([]*domain.Trip, error) {
	if len(statuses) == 0 {
		query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 ORDER BY trip_date DESC`
		return r.queryTrips(ctx, query, driverID)
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 AND status = ANY($2) ORDER BY trip_date DESC`
	return r.queryTrips(ctx, query, driverID, pq.Array(tripStatusStrings(statuses)))
}

// ReserveSeat decrements the seat count and appends the passenger in a
// single conditional statement, so concurrent bookings cannot oversell.
func (r *TripRepository) ReserveSeat(ctx context.Context, tripID, userID string) (bool, error) {
	query := `
		UPDATE trips
		SET available_seats = available_seats - 1,
		    passengers = array_append(passengers, $2)
		WHERE id = $1 AND status = ANY($3) AND available_seats > 0
	`

	result, err := r.q.ExecContext(ctx, query, tripID, userID, pq.Array(tripStatusStrings(domain.BookableTripStatuses)))
	if err != nil {
		return false, err
	}
	return affected(result)
}

// ReleaseSeat increments the seat count, capped at capacity, and removes the
// passenger.
func (r *TripRepository) ReleaseSeat(ctx context.Context, tripID, userID string) error {
	query := `
		UPDATE trips
		SET available_seats = LEAST(available_seats + 1, seat_capacity),
		    passengers = array_remove(passengers, $2)
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, tripID, userID)
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

// TransitionStatus conditionally updates the trip status.
func (r *TripRepository) TransitionStatus(ctx context.Context, id string, to domain.TripStatus, from ...domain.TripStatus) (bool, error) {
	var (
		result sql.Result
		err    error
	)
	if len(from) == 0 {
		result, err = r.q.ExecContext(ctx, `UPDATE trips SET status = $1 WHERE id = $2`, to, id)
	} else {
		result, err = r.q.ExecContext(ctx,
			`UPDATE trips SET status = $1 WHERE id = $2 AND status = ANY($3)`,
			to, id, pq.Array(tripStatusStrings(from)))
	}
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (r *TripRepository) queryTrips(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var (
		trip      domain.Trip
		timeOfDay string
	)

	err := row.Scan(
		&trip.ID,
		&trip.Driver.ID,
		&trip.Driver.Kind,
		&trip.Pickup.Address,
		&trip.Pickup.City,
		&trip.Pickup.Province,
		&trip.Dropoff.Address,
		&trip.Dropoff.City,
		&trip.Dropoff.Province,
		&trip.Date,
		&timeOfDay,
		&trip.SeatCapacity,
		&trip.AvailableSeats,
		&trip.RideType,
		&trip.BaseFare,
		&trip.TaxesAndFees,
		&trip.TotalFare,
		&trip.Status,
		pq.Array(&trip.Passengers),
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.Time, err = domain.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("trip %s: %w", trip.ID, err)
	}
	return &trip, nil
}

func tripStatusStrings(statuses []domain.TripStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
