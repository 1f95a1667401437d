package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/redis"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// bookingLockTTL bounds how long a crashed instance can block a trip.
const bookingLockTTL = 10 * time.Second

// BookingService handles the booking ledger and seat allocation.
type BookingService struct {
	tx                  repository.Transactor
	tripRepo            repository.TripRepository
	bookingRepo         repository.BookingRepository
	locks               redis.LockStoreInterface // Optional
	cache               redis.TripCacheInterface // Optional
	notificationService *NotificationService
	logger              *slog.Logger
}

// NewBookingService creates a new BookingService. locks and cache may be nil.
func NewBookingService(
	tx repository.Transactor,
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	locks redis.LockStoreInterface,
	cache redis.TripCacheInterface,
	notificationService *NotificationService,
	logger *slog.Logger,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	if notificationService == nil {
		notificationService = NewNotificationService(logger)
	}
	return &BookingService{
		tx:                  tx,
		tripRepo:            tripRepo,
		bookingRepo:         bookingRepo,
		locks:               locks,
		cache:               cache,
		notificationService: notificationService,
		logger:              logger,
	}
}

// Book reserves a seat on a trip for a user at the fare in force now.
func (s *BookingService) Book(ctx context.Context, userID, tripID string) (*domain.Booking, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	unlock, err := s.lockTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		booking *domain.Booking
		trip    *domain.Trip
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		trip, err = getTrip(ctx, repos.Trips, tripID)
		if err != nil {
			return err
		}

		if trip.AvailableSeats <= 0 {
			return ErrSeatsUnavailable
		}

		if !trip.Bookable() {
			return ErrTripNotBookable
		}

		existing, err := repos.Bookings.FindActive(ctx, userID, tripID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateBooking
		}

		now := time.Now()
		booking = &domain.Booking{
			ID:            uuid.New().String(),
			UserID:        userID,
			TripID:        tripID,
			Status:        domain.BookingStatusConfirmed,
			FareAmount:    domain.ComputeFare(trip),
			PaymentStatus: domain.PaymentStatusPaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		// The conditional update is the authority on seat count; the
		// check above only gives an early answer.
		reserved, err := repos.Trips.ReserveSeat(ctx, tripID, userID)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrSeatsUnavailable
		}

		if err := repos.Bookings.Create(ctx, booking); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateBooking
			}
			return err
		}

		trip.AvailableSeats--
		trip.Passengers = append(trip.Passengers, userID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, tripID)
	s.notificationService.NotifyBookingConfirmed(ctx, booking, trip)

	s.logger.InfoContext(ctx, "trip booked",
		"booking_id", booking.ID,
		"trip_id", tripID,
		"user_id", userID,
		"fare", booking.FareAmount,
		"seats_left", trip.AvailableSeats,
	)

	return booking, nil
}

// Cancel cancels a passenger's own booking and returns the seat. Cancelling
// an already-cancelled booking returns it unchanged.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	var (
		booking *domain.Booking
		trip    *domain.Trip
		changed bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		booking, err = getBooking(ctx, repos.Bookings, bookingID)
		if err != nil {
			return err
		}

		if booking.UserID != userID {
			return ErrForbidden
		}

		changed, err = cancelBooking(ctx, repos, booking)
		if err != nil || !changed {
			return err
		}

		trip, err = getTrip(ctx, repos.Trips, booking.TripID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidateTrip(ctx, booking.TripID)
		s.notificationService.NotifyBookingCancelled(ctx, booking, trip)
		s.logger.InfoContext(ctx, "booking cancelled", "booking_id", booking.ID, "trip_id", booking.TripID, "user_id", userID)
	}

	return booking, nil
}

// AcceptByDriver confirms a booking on one of the driver's trips. The first
// acceptance moves an available trip to in-progress.
func (s *BookingService) AcceptByDriver(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var (
		booking *domain.Booking
		trip    *domain.Trip
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		booking, trip, err = getOwnedBooking(ctx, repos, bookingID, driverID)
		if err != nil {
			return err
		}

		if !booking.Status.CanTransitionTo(domain.BookingStatusConfirmed) {
			return fmt.Errorf("%w: cannot accept %s booking", ErrInvalidTransition, booking.Status)
		}

		changed, err := repos.Bookings.TransitionStatus(ctx, booking.ID, domain.BookingStatusConfirmed,
			domain.BookingStatusPending, domain.BookingStatusConfirmed)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidTransition, booking.ID)
		}
		booking.Status = domain.BookingStatusConfirmed

		if trip.Status == domain.TripStatusAvailable {
			moved, err := repos.Trips.TransitionStatus(ctx, trip.ID, domain.TripStatusInProgress, domain.TripStatusAvailable)
			if err != nil {
				return err
			}
			if moved {
				trip.Status = domain.TripStatusInProgress
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, trip.ID)
	s.notificationService.NotifyBookingAccepted(ctx, booking, trip)
	s.logger.InfoContext(ctx, "booking accepted", "booking_id", booking.ID, "trip_id", trip.ID, "trip_status", trip.Status)

	return booking, nil
}

// DeclineByDriver cancels a booking on one of the driver's trips and returns
// the seat.
func (s *BookingService) DeclineByDriver(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var (
		booking *domain.Booking
		trip    *domain.Trip
		changed bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		booking, trip, err = getOwnedBooking(ctx, repos, bookingID, driverID)
		if err != nil {
			return err
		}

		changed, err = cancelBooking(ctx, repos, booking)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidateTrip(ctx, trip.ID)
		s.notificationService.NotifyBookingDeclined(ctx, booking, trip)
		s.logger.InfoContext(ctx, "booking declined", "booking_id", booking.ID, "trip_id", trip.ID, "driver_id", driverID)
	}

	return booking, nil
}

// CompleteTripResult summarizes a trip completion.
type CompleteTripResult struct {
	Trip      *domain.Trip
	Completed []*domain.Booking
	Cancelled []*domain.Booking // Pending bookings the driver never accepted
}

// CompleteTrip closes out one of the driver's trips. Confirmed bookings
// complete and count toward earnings; pending bookings are cancelled and
// refunded.
func (s *BookingService) CompleteTrip(ctx context.Context, tripID, driverID string) (*CompleteTripResult, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	result := &CompleteTripResult{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		trip, err := getTrip(ctx, repos.Trips, tripID)
		if err != nil {
			return err
		}
		if !trip.OwnedBy(driverID) {
			return ErrForbidden
		}
		if !trip.Bookable() {
			return fmt.Errorf("%w: trip is %s", ErrInvalidTransition, trip.Status)
		}

		bookings, err := repos.Bookings.ListByTrips(ctx, []string{tripID},
			domain.BookingStatusPending, domain.BookingStatusConfirmed)
		if err != nil {
			return err
		}

		for _, b := range bookings {
			if b.Status == domain.BookingStatusPending {
				if _, err := cancelBooking(ctx, repos, b); err != nil {
					return err
				}
				result.Cancelled = append(result.Cancelled, b)
				continue
			}

			changed, err := repos.Bookings.TransitionStatus(ctx, b.ID, domain.BookingStatusCompleted, domain.BookingStatusConfirmed)
			if err != nil {
				return err
			}
			if changed {
				b.Status = domain.BookingStatusCompleted
				result.Completed = append(result.Completed, b)
			}
		}

		moved, err := repos.Trips.TransitionStatus(ctx, tripID, domain.TripStatusCompleted, domain.BookableTripStatuses...)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: trip %s changed concurrently", ErrInvalidTransition, tripID)
		}

		result.Trip, err = getTrip(ctx, repos.Trips, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, tripID)
	s.notificationService.NotifyTripCompleted(ctx, result.Trip, result.Completed)
	s.logger.InfoContext(ctx, "trip completed",
		"trip_id", tripID,
		"completed_bookings", len(result.Completed),
		"cancelled_bookings", len(result.Cancelled),
	)

	return result, nil
}

// BookingView is a booking with its trip.
type BookingView struct {
	Booking *domain.Booking
	Trip    *domain.Trip
}

// GetBooking returns one of the user's own bookings.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string) (*BookingView, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	booking, err := getBooking(ctx, s.bookingRepo, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrForbidden
	}

	trip, err := getTrip(ctx, s.tripRepo, booking.TripID)
	if err != nil {
		return nil, err
	}

	return &BookingView{Booking: booking, Trip: trip}, nil
}

// MyTrips partitions a user's bookings by trip date.
type MyTrips struct {
	Upcoming []BookingView
	Past     []BookingView
}

// ListMyTrips returns the user's bookings, newest first, split into trips
// dated now or later and trips dated before now.
func (s *BookingService) ListMyTrips(ctx context.Context, userID string) (*MyTrips, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &MyTrips{Upcoming: []BookingView{}, Past: []BookingView{}}
	trips := make(map[string]*domain.Trip)
	now := time.Now()

	for _, b := range bookings {
		trip, ok := trips[b.TripID]
		if !ok {
			trip, err = s.tripRepo.GetByID(ctx, b.TripID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					s.logger.WarnContext(ctx, "booking references missing trip", "booking_id", b.ID, "trip_id", b.TripID)
					continue
				}
				return nil, err
			}
			trips[b.TripID] = trip
		}

		view := BookingView{Booking: b, Trip: trip}
		if trip.Date.Before(now) {
			result.Past = append(result.Past, view)
		} else {
			result.Upcoming = append(result.Upcoming, view)
		}
	}

	return result, nil
}

// lockTrip serializes booking attempts on a trip across instances. It
// returns a release func that is safe to call when no lock store is set.
func (s *BookingService) lockTrip(ctx context.Context, tripID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	token, acquired, err := s.locks.AcquireTripLock(ctx, tripID, bookingLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire trip lock: %w", err)
	}
	if !acquired {
		return nil, ErrBookingConflict
	}

	return func() {
		// Release with a fresh context so a cancelled request still unlocks.
		if err := s.locks.ReleaseTripLock(context.WithoutCancel(ctx), tripID, token); err != nil {
			s.logger.WarnContext(ctx, "trip lock release failed", "trip_id", tripID, "error", err)
		}
	}, nil
}

func (s *BookingService) invalidateTrip(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTrip(ctx, tripID); err != nil {
		s.logger.WarnContext(ctx, "trip cache invalidation failed", "trip_id", tripID, "error", err)
	}
}

// cancelBooking moves booking to cancelled, returns its seat, and refunds
// it if it was paid. It reports false without error when the booking was
// already cancelled. The conditional status update gates the seat release
// so the seat is returned at most once.
func cancelBooking(ctx context.Context, repos repository.Repositories, booking *domain.Booking) (bool, error) {
	if booking.Status == domain.BookingStatusCancelled {
		return false, nil
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusCancelled) {
		return false, fmt.Errorf("%w: cannot cancel %s booking", ErrInvalidTransition, booking.Status)
	}

	changed, err := repos.Bookings.TransitionStatus(ctx, booking.ID, domain.BookingStatusCancelled,
		domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return false, err
	}
	if !changed {
		current, err := getBooking(ctx, repos.Bookings, booking.ID)
		if err != nil {
			return false, err
		}
		*booking = *current
		if current.Status == domain.BookingStatusCancelled {
			return false, nil
		}
		return false, fmt.Errorf("%w: cannot cancel %s booking", ErrInvalidTransition, current.Status)
	}
	booking.Status = domain.BookingStatusCancelled

	if err := repos.Trips.ReleaseSeat(ctx, booking.TripID, booking.UserID); err != nil {
		return false, err
	}

	if booking.PaymentStatus == domain.PaymentStatusPaid {
		if err := repos.Bookings.UpdatePaymentStatus(ctx, booking.ID, domain.PaymentStatusRefunded); err != nil {
			return false, err
		}
		booking.PaymentStatus = domain.PaymentStatusRefunded
	}

	return true, nil
}

// getOwnedBooking loads a booking and its trip, failing with ErrForbidden
// unless driverID posted the trip.
func getOwnedBooking(ctx context.Context, repos repository.Repositories, bookingID, driverID string) (*domain.Booking, *domain.Trip, error) {
	booking, err := getBooking(ctx, repos.Bookings, bookingID)
	if err != nil {
		return nil, nil, err
	}

	trip, err := getTrip(ctx, repos.Trips, booking.TripID)
	if err != nil {
		return nil, nil, err
	}

	if !trip.OwnedBy(driverID) {
		return nil, nil, ErrForbidden
	}
	return booking, trip, nil
}

func getTrip(ctx context.Context, repo repository.TripRepository, id string) (*domain.Trip, error) {
	trip, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func getBooking(ctx context.Context, repo repository.BookingRepository, id string) (*domain.Booking, error) {
	booking, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}
