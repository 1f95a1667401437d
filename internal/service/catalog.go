package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/redis"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// CatalogService handles trip search, creation, and lookup.
type CatalogService struct {
	tripRepo repository.TripRepository
	userRepo repository.UserRepository
	drivers  *DriverResolver
	cache    redis.TripCacheInterface // Optional
	logger   *slog.Logger
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	drivers *DriverResolver,
	cache redis.TripCacheInterface,
	logger *slog.Logger,
) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		tripRepo: tripRepo,
		userRepo: userRepo,
		drivers:  drivers,
		cache:    cache,
		logger:   logger,
	}
}

// SearchTripsRequest contains the search criteria.
type SearchTripsRequest struct {
	PickupCity  string `validate:"required"`
	DropoffCity string `validate:"required"`
	Date        string // Optional, YYYY-MM-DD or RFC 3339
	RideType    string // Optional, "all" disables the filter
}

// Search returns bookable trips between two cities.
func (s *CatalogService) Search(ctx context.Context, req SearchTripsRequest) ([]*domain.Trip, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	filter := repository.TripFilter{
		PickupCity:  req.PickupCity,
		DropoffCity: req.DropoffCity,
	}

	if req.Date != "" {
		day, err := parseTripDate(req.Date)
		if err != nil {
			return nil, err
		}
		filter.DateFrom = day
		filter.DateTo = day.Add(24 * time.Hour)
	}

	rideType := domain.RideType(req.RideType)
	if rideType != "" && rideType != domain.RideTypeAll {
		if !rideType.Valid() {
			return nil, fmt.Errorf("%w: unknown ride type %q", ErrValidation, req.RideType)
		}
		filter.RideType = rideType
	}

	return s.tripRepo.Search(ctx, filter)
}

// LocationInput is a pickup or dropoff point as supplied by a driver.
type LocationInput struct {
	Address  string `validate:"max=200"`
	City     string `validate:"required,max=100"`
	Province string `validate:"max=100"`
}

// CreateTripRequest contains the parameters for posting a trip.
type CreateTripRequest struct {
	DriverID       string
	Pickup         LocationInput
	Dropoff        LocationInput
	Date           string          `validate:"required"`
	Time           string          `validate:"required"`
	RideType       domain.RideType `validate:"omitempty,oneof=private pooling women-only"`
	AvailableSeats *int            `validate:"omitempty,min=0,max=8"` // Defaults to 4
}

// Create posts a new trip for a driver at the standard fare.
func (s *CatalogService) Create(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	date, err := parseTripDate(req.Date)
	if err != nil {
		return nil, err
	}

	tod, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	rideType := req.RideType
	if rideType == "" {
		rideType = domain.DefaultRideType
	}

	seats := domain.DefaultSeatCapacity
	if req.AvailableSeats != nil {
		seats = *req.AvailableSeats
	}

	driverRef, err := s.drivers.Classify(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:     uuid.New().String(),
		Driver: driverRef,
		Pickup: domain.Location{
			Address:  strings.TrimSpace(req.Pickup.Address),
			City:     strings.TrimSpace(req.Pickup.City),
			Province: strings.TrimSpace(req.Pickup.Province),
		},
		Dropoff: domain.Location{
			Address:  strings.TrimSpace(req.Dropoff.Address),
			City:     strings.TrimSpace(req.Dropoff.City),
			Province: strings.TrimSpace(req.Dropoff.Province),
		},
		Date:           date,
		Time:           tod,
		SeatCapacity:   seats,
		AvailableSeats: seats,
		RideType:       rideType,
		BaseFare:       domain.StandardBaseFare,
		TaxesAndFees:   domain.StandardTaxesAndFees,
		TotalFare:      domain.StandardBaseFare + domain.StandardTaxesAndFees,
		Status:         domain.TripStatusAvailable,
		Passengers:     []string{},
		CreatedAt:      time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "trip created",
		"trip_id", trip.ID,
		"driver_id", trip.Driver.ID,
		"driver_kind", trip.Driver.Kind,
		"route", trip.Route(),
	)

	return trip, nil
}

// TripDetails is a trip with its driver and passengers resolved.
type TripDetails struct {
	Trip       *domain.Trip
	Driver     *domain.Driver // nil if the driver account no longer exists
	Passengers []*domain.User // In booking order
}

// GetByID returns a trip with driver and passenger profiles.
func (s *CatalogService) GetByID(ctx context.Context, tripID string) (*TripDetails, error) {
	trip, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	details := &TripDetails{Trip: trip}

	driver, err := s.drivers.Resolve(ctx, trip.Driver)
	switch {
	case err == nil:
		details.Driver = driver
	case errors.Is(err, repository.ErrNotFound):
		s.logger.WarnContext(ctx, "trip driver missing", "trip_id", trip.ID, "driver_id", trip.Driver.ID)
	default:
		return nil, err
	}

	details.Passengers, err = s.passengers(ctx, trip)
	if err != nil {
		return nil, err
	}

	return details, nil
}

// PoolQuote compares the private and pooled price of a trip.
type PoolQuote struct {
	TripID       string
	CoPassengers []*domain.User
	PrivateFare  float64
	PoolFare     float64
	Savings      float64
}

// PoolQuote returns the trip's current co-passengers and pooling savings.
func (s *CatalogService) PoolQuote(ctx context.Context, tripID string) (*PoolQuote, error) {
	trip, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	coPassengers, err := s.passengers(ctx, trip)
	if err != nil {
		return nil, err
	}

	poolFare := domain.PoolFare(trip.TotalFare)
	return &PoolQuote{
		TripID:       trip.ID,
		CoPassengers: coPassengers,
		PrivateFare:  trip.TotalFare,
		PoolFare:     poolFare,
		Savings:      trip.TotalFare - poolFare,
	}, nil
}

// loadTrip reads through the cache when one is configured. Cache failures
// fall back to the repository. The cache version is taken before the
// repository read, so a booking that commits in between keeps this read
// out of the cache.
func (s *CatalogService) loadTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	cacheable := false
	var version int64
	if s.cache != nil {
		cached, err := s.cache.GetTrip(ctx, tripID)
		if err != nil {
			s.logger.WarnContext(ctx, "trip cache read failed", "trip_id", tripID, "error", err)
		} else if cached != nil {
			return cached, nil
		}

		version, err = s.cache.TripVersion(ctx, tripID)
		if err != nil {
			s.logger.WarnContext(ctx, "trip cache version read failed", "trip_id", tripID, "error", err)
		} else {
			cacheable = true
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if cacheable {
		stored, err := s.cache.SetTrip(ctx, trip, version)
		if err != nil {
			s.logger.WarnContext(ctx, "trip cache write failed", "trip_id", tripID, "error", err)
		} else if !stored {
			s.logger.DebugContext(ctx, "trip changed during read; not cached", "trip_id", tripID)
		}
	}

	return trip, nil
}

// passengers resolves the trip's passenger profiles in booking order,
// skipping accounts that no longer exist.
func (s *CatalogService) passengers(ctx context.Context, trip *domain.Trip) ([]*domain.User, error) {
	if len(trip.Passengers) == 0 {
		return []*domain.User{}, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, trip.Passengers)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.User, 0, len(trip.Passengers))
	for _, id := range trip.Passengers {
		if u, ok := users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}
