package service

import (
	"context"
	"log/slog"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// DriverQueueService is the driver-side view of the booking ledger.
type DriverQueueService struct {
	tripRepo    repository.TripRepository
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	logger      *slog.Logger
}

// NewDriverQueueService creates a new DriverQueueService.
func NewDriverQueueService(
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	logger *slog.Logger,
) *DriverQueueService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriverQueueService{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// RideRequest is a booking as a driver sees it.
type RideRequest struct {
	Booking     *domain.Booking
	Trip        *domain.Trip
	Passenger   *domain.User // nil if the account no longer exists
	Route       string
	DisplayTime string
}

// ListPendingForDriver returns pending and confirmed bookings on the
// driver's open trips, newest first.
func (s *DriverQueueService) ListPendingForDriver(ctx context.Context, driverID string) ([]*RideRequest, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	trips, err := s.tripRepo.ListByDriver(ctx, driverID, domain.BookableTripStatuses...)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return []*RideRequest{}, nil
	}

	byID := make(map[string]*domain.Trip, len(trips))
	tripIDs := make([]string, 0, len(trips))
	for _, t := range trips {
		byID[t.ID] = t
		tripIDs = append(tripIDs, t.ID)
	}

	bookings, err := s.bookingRepo.ListByTrips(ctx, tripIDs,
		domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		userIDs = append(userIDs, b.UserID)
	}

	users := map[string]*domain.User{}
	if len(userIDs) > 0 {
		users, err = s.userRepo.GetByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
	}

	requests := make([]*RideRequest, 0, len(bookings))
	for _, b := range bookings {
		requests = append(requests, newRideRequest(b, byID[b.TripID], users[b.UserID]))
	}

	return requests, nil
}

// GetBookingForDriver returns a booking on one of the driver's trips,
// regardless of its status.
func (s *DriverQueueService) GetBookingForDriver(ctx context.Context, bookingID, driverID string) (*RideRequest, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	booking, err := getBooking(ctx, s.bookingRepo, bookingID)
	if err != nil {
		return nil, err
	}

	trip, err := getTrip(ctx, s.tripRepo, booking.TripID)
	if err != nil {
		return nil, err
	}

	if !trip.OwnedBy(driverID) {
		return nil, ErrForbidden
	}

	users, err := s.userRepo.GetByIDs(ctx, []string{booking.UserID})
	if err != nil {
		return nil, err
	}

	return newRideRequest(booking, trip, users[booking.UserID]), nil
}

func newRideRequest(b *domain.Booking, trip *domain.Trip, passenger *domain.User) *RideRequest {
	return &RideRequest{
		Booking:     b,
		Trip:        trip,
		Passenger:   passenger,
		Route:       trip.Route(),
		DisplayTime: trip.DisplayTime(),
	}
}
