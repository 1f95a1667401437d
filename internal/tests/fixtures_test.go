package tests

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/service"
)

// testEnv wires every service against one set of mocks.
type testEnv struct {
	trips    *MockTripRepository
	bookings *MockBookingRepository
	users    *MockUserRepository
	drivers  *MockDriverSource
	tx       *MockTransactor
	locks    *MockLockStore
	cache    *MockTripCache

	catalog  *service.CatalogService
	booking  *service.BookingService
	queue    *service.DriverQueueService
	earnings *service.EarningsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		trips:    NewMockTripRepository(),
		bookings: NewMockBookingRepository(),
		users:    NewMockUserRepository(),
		drivers:  NewMockDriverSource(),
		locks:    NewMockLockStore(),
		cache:    NewMockTripCache(),
	}
	env.tx = NewMockTransactor(env.trips, env.bookings)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := service.NewDriverResolver(env.drivers, env.users)
	notifications := service.NewNotificationService(logger)

	env.catalog = service.NewCatalogService(env.trips, env.users, resolver, env.cache, logger)
	env.booking = service.NewBookingService(env.tx, env.trips, env.bookings, env.locks, env.cache, notifications, logger)
	env.queue = service.NewDriverQueueService(env.trips, env.bookings, env.users, logger)
	env.earnings = service.NewEarningsService(env.trips, env.bookings, resolver)
	return env
}

// newTrip returns an available trip with the standard fare, departing
// tomorrow at 09:30.
func newTrip(id, driverID string, rideType domain.RideType, seats int) *domain.Trip {
	tomorrow := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	return &domain.Trip{
		ID:             id,
		Driver:         domain.DriverRef{ID: driverID, Kind: domain.DriverKindRecord},
		Pickup:         domain.Location{City: "Toronto", Province: "ON"},
		Dropoff:        domain.Location{City: "Ottawa", Province: "ON"},
		Date:           tomorrow,
		Time:           domain.MustParseTimeOfDay("09:30"),
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
}

// assertSeatInvariant checks that seats held by active bookings plus free
// seats equal the trip's capacity, and that the passenger list matches the
// set of active bookings.
func assertSeatInvariant(t *testing.T, env *testEnv, tripID string) {
	t.Helper()

	trip := env.trips.GetTrip(tripID)
	if trip == nil {
		t.Fatalf("trip %s not found", tripID)
	}

	active := env.bookings.CountActive(tripID)
	if trip.AvailableSeats+active != trip.SeatCapacity {
		t.Errorf("seat invariant broken: available=%d active=%d capacity=%d",
			trip.AvailableSeats, active, trip.SeatCapacity)
	}
	if len(trip.Passengers) != active {
		t.Errorf("passenger list has %d entries, want %d active bookings", len(trip.Passengers), active)
	}
	for _, p := range trip.Passengers {
		b, err := env.bookings.FindActive(t.Context(), p, tripID)
		if err != nil || b == nil {
			t.Errorf("passenger %s has no active booking on %s", p, tripID)
		}
	}
}
