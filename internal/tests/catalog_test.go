package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/service"
)

// ──────────────────────────────────────────────
// 10. TRIP SEARCH
// ──────────────────────────────────────────────

func TestSearch_FiltersByRouteStatusAndSeats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("match", "driver-1", domain.RideTypePooling, 4))

	full := newTrip("full", "driver-1", domain.RideTypePooling, 4)
	full.AvailableSeats = 0
	env.trips.AddTrip(full)

	started := newTrip("started", "driver-1", domain.RideTypePooling, 4)
	started.Status = domain.TripStatusInProgress
	env.trips.AddTrip(started)

	elsewhere := newTrip("elsewhere", "driver-1", domain.RideTypePooling, 4)
	elsewhere.Dropoff.City = "Montreal"
	env.trips.AddTrip(elsewhere)

	lower := newTrip("lowercase", "driver-1", domain.RideTypePooling, 4)
	lower.Pickup.City = "toronto"
	env.trips.AddTrip(lower)

	trips, err := env.catalog.Search(context.Background(), service.SearchTripsRequest{
		PickupCity:  "Toronto",
		DropoffCity: "Ottawa",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(trips) != 1 || trips[0].ID != "match" {
		ids := make([]string, 0, len(trips))
		for _, tr := range trips {
			ids = append(ids, tr.ID)
		}
		t.Errorf("expected only [match], got %v", ids)
	}
}

func TestSearch_DateWindowIsOneDay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	day := time.Date(2030, 3, 7, 0, 0, 0, 0, time.UTC)

	for id, d := range map[string]time.Time{
		"before": day.AddDate(0, 0, -1),
		"on":     day,
		"after":  day.AddDate(0, 0, 1),
	} {
		tr := newTrip(id, "driver-1", domain.RideTypePrivate, 4)
		tr.Date = d
		env.trips.AddTrip(tr)
	}

	trips, err := env.catalog.Search(context.Background(), service.SearchTripsRequest{
		PickupCity:  "Toronto",
		DropoffCity: "Ottawa",
		Date:        "2030-03-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != "on" {
		t.Errorf("expected only the trip on 2030-03-07, got %d trips", len(trips))
	}
}

func TestSearch_RideTypeFilterAndAllSentinel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("private", "driver-1", domain.RideTypePrivate, 4))
	env.trips.AddTrip(newTrip("pool", "driver-1", domain.RideTypePooling, 4))
	env.trips.AddTrip(newTrip("women", "driver-1", domain.RideTypeWomenOnly, 4))
	ctx := context.Background()

	tests := []struct {
		rideType string
		want     int
	}{
		{"", 3},
		{"all", 3},
		{"pooling", 1},
		{"women-only", 1},
	}

	for _, tt := range tests {
		trips, err := env.catalog.Search(ctx, service.SearchTripsRequest{
			PickupCity:  "Toronto",
			DropoffCity: "Ottawa",
			RideType:    tt.rideType,
		})
		if err != nil {
			t.Fatalf("ride type %q: unexpected error: %v", tt.rideType, err)
		}
		if len(trips) != tt.want {
			t.Errorf("ride type %q: expected %d trips, got %d", tt.rideType, tt.want, len(trips))
		}
	}
}

func TestSearch_OrderedChronologically(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	day := time.Date(2030, 3, 7, 0, 0, 0, 0, time.UTC)

	// "9:30" sorts after "10:00" as free text; stored zero-padded it sorts first.
	times := map[string]string{"late": "2:15 PM", "mid": "10:00", "early": "9:30"}
	for id, tod := range times {
		tr := newTrip(id, "driver-1", domain.RideTypePrivate, 4)
		tr.Date = day
		tr.Time = domain.MustParseTimeOfDay(tod)
		env.trips.AddTrip(tr)
	}
	nextDay := newTrip("next-day", "driver-1", domain.RideTypePrivate, 4)
	nextDay.Date = day.AddDate(0, 0, 1)
	nextDay.Time = domain.MustParseTimeOfDay("06:00")
	env.trips.AddTrip(nextDay)

	trips, err := env.catalog.Search(context.Background(), service.SearchTripsRequest{
		PickupCity:  "Toronto",
		DropoffCity: "Ottawa",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"early", "mid", "late", "next-day"}
	if len(trips) != len(want) {
		t.Fatalf("expected %d trips, got %d", len(want), len(trips))
	}
	for i, id := range want {
		if trips[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, trips[i].ID)
		}
	}
}

func TestSearch_ValidationErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  service.SearchTripsRequest
	}{
		{"malformed date", service.SearchTripsRequest{PickupCity: "Toronto", DropoffCity: "Ottawa", Date: "next tuesday"}},
		{"unknown ride type", service.SearchTripsRequest{PickupCity: "Toronto", DropoffCity: "Ottawa", RideType: "limo"}},
		{"missing pickup", service.SearchTripsRequest{DropoffCity: "Ottawa"}},
		{"missing dropoff", service.SearchTripsRequest{PickupCity: "Toronto"}},
	}

	for _, tt := range tests {
		if _, err := env.catalog.Search(ctx, tt.req); !errors.Is(err, service.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

// ──────────────────────────────────────────────
// 11. TRIP CREATION
// ──────────────────────────────────────────────

func validCreateRequest(driverID string) service.CreateTripRequest {
	return service.CreateTripRequest{
		DriverID: driverID,
		Pickup:   service.LocationInput{Address: "Union Station", City: "Toronto", Province: "ON"},
		Dropoff:  service.LocationInput{City: "Ottawa", Province: "ON"},
		Date:     "2030-03-07",
		Time:     "9:30",
	}
}

func TestCreate_AppliesStandardFareAndDefaults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.drivers.AddDriver(&domain.Driver{ID: "driver-1"})

	trip, err := env.catalog.Create(context.Background(), validCreateRequest("driver-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.BaseFare != 110 || trip.TaxesAndFees != 10 || trip.TotalFare != 120 {
		t.Errorf("unexpected fare %v + %v = %v", trip.BaseFare, trip.TaxesAndFees, trip.TotalFare)
	}
	if trip.Status != domain.TripStatusAvailable {
		t.Errorf("expected available, got %s", trip.Status)
	}
	if trip.RideType != domain.RideTypePooling {
		t.Errorf("expected default pooling, got %s", trip.RideType)
	}
	if trip.SeatCapacity != 4 || trip.AvailableSeats != 4 {
		t.Errorf("expected 4 seats, got %d/%d", trip.AvailableSeats, trip.SeatCapacity)
	}
	if trip.Time.String() != "09:30" {
		t.Errorf("expected 09:30, got %s", trip.Time)
	}
	if !trip.Date.Equal(time.Date(2030, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", trip.Date)
	}
	if env.trips.GetTrip(trip.ID) == nil {
		t.Error("trip not persisted")
	}
}

func TestCreate_DriverKindResolution(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.drivers.AddDriver(&domain.Driver{ID: "record-driver"})
	env.users.AddUser(&domain.User{ID: "account-driver", Role: domain.UserRoleDriver})
	ctx := context.Background()

	tests := []struct {
		driverID string
		want     domain.DriverKind
	}{
		{"record-driver", domain.DriverKindRecord},
		{"account-driver", domain.DriverKindUser},
		{"unknown", domain.DriverKindUser},
	}

	for _, tt := range tests {
		trip, err := env.catalog.Create(ctx, validCreateRequest(tt.driverID))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.driverID, err)
		}
		if trip.Driver.Kind != tt.want {
			t.Errorf("%s: expected kind %s, got %s", tt.driverID, tt.want, trip.Driver.Kind)
		}
	}
}

func TestCreate_ExplicitSeatsAndRideType(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := validCreateRequest("driver-1")
	seats := 2
	req.AvailableSeats = &seats
	req.RideType = domain.RideTypeWomenOnly
	req.Time = "2:05 pm"

	trip, err := env.catalog.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.SeatCapacity != 2 || trip.RideType != domain.RideTypeWomenOnly {
		t.Errorf("got %d seats of %s", trip.SeatCapacity, trip.RideType)
	}
	if trip.Time.String() != "14:05" {
		t.Errorf("expected 14:05, got %s", trip.Time)
	}
}

func TestCreate_ZeroSeatsAcceptedButNeverBookable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	req := validCreateRequest("driver-1")
	zero := 0
	req.AvailableSeats = &zero

	trip, err := env.catalog.Create(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.SeatCapacity != 0 || trip.AvailableSeats != 0 {
		t.Errorf("expected 0 seats, got %d/%d", trip.AvailableSeats, trip.SeatCapacity)
	}

	if _, err := env.booking.Book(ctx, "user-a", trip.ID); !errors.Is(err, service.ErrSeatsUnavailable) {
		t.Errorf("expected ErrSeatsUnavailable, got %v", err)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	tooMany := 12

	tests := []struct {
		name   string
		mutate func(*service.CreateTripRequest)
	}{
		{"missing pickup city", func(r *service.CreateTripRequest) { r.Pickup.City = "" }},
		{"missing dropoff city", func(r *service.CreateTripRequest) { r.Dropoff.City = "" }},
		{"bad date", func(r *service.CreateTripRequest) { r.Date = "07/03/2030" }},
		{"bad time", func(r *service.CreateTripRequest) { r.Time = "25:00" }},
		{"missing time", func(r *service.CreateTripRequest) { r.Time = "" }},
		{"unknown ride type", func(r *service.CreateTripRequest) { r.RideType = "limo" }},
		{"too many seats", func(r *service.CreateTripRequest) { r.AvailableSeats = &tooMany }},
	}

	for _, tt := range tests {
		req := validCreateRequest("driver-1")
		tt.mutate(&req)
		if _, err := env.catalog.Create(ctx, req); !errors.Is(err, service.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}

	if _, err := env.catalog.Create(ctx, validCreateRequest("")); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 12. TRIP DETAILS
// ──────────────────────────────────────────────

func TestGetByID_ResolvesDriverAndPassengers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.drivers.AddDriver(&domain.Driver{ID: "driver-1", Name: "Dana", CarModel: "Civic"})
	env.users.AddUser(&domain.User{ID: "user-a", Name: "Asha"})
	env.users.AddUser(&domain.User{ID: "user-b", Name: "Ben"})

	trip := newTrip("trip-1", "driver-1", domain.RideTypePooling, 4)
	trip.Passengers = []string{"user-b", "user-a", "deleted"}
	env.trips.AddTrip(trip)

	details, err := env.catalog.GetByID(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.Driver == nil || details.Driver.Name != "Dana" {
		t.Errorf("expected driver Dana, got %+v", details.Driver)
	}
	if len(details.Passengers) != 2 || details.Passengers[0].Name != "Ben" || details.Passengers[1].Name != "Asha" {
		t.Errorf("unexpected passengers %+v", details.Passengers)
	}
}

func TestGetByID_UserAccountDriver(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.users.AddUser(&domain.User{ID: "driver-u", Name: "Uma", Role: domain.UserRoleDriver})
	trip := newTrip("trip-1", "driver-u", domain.RideTypePooling, 4)
	trip.Driver.Kind = domain.DriverKindUser
	env.trips.AddTrip(trip)

	details, err := env.catalog.GetByID(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Driver == nil || details.Driver.Name != "Uma" {
		t.Errorf("expected driver Uma, got %+v", details.Driver)
	}
	if env.drivers.GetDriverCallCount != 0 {
		t.Error("user-kind reference should not consult driver records")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	if _, err := env.catalog.GetByID(context.Background(), "missing"); !errors.Is(err, service.ErrTripNotFound) {
		t.Errorf("expected ErrTripNotFound, got %v", err)
	}
}

func TestGetByID_ServedFromCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 4))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.catalog.GetByID(ctx, "trip-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if env.trips.GetByIDCallCount != 1 {
		t.Errorf("expected 1 repository read, got %d", env.trips.GetByIDCallCount)
	}
}

func TestGetByID_ReadOverlappingBookingIsNotCached(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 4))
	ctx := context.Background()

	// A booking commits and invalidates after the read has been taken.
	var once sync.Once
	env.trips.GetByIDHook = func(*domain.Trip) {
		once.Do(func() {
			if _, err := env.trips.ReserveSeat(ctx, "trip-1", "user-a"); err != nil {
				t.Errorf("reserve seat: %v", err)
			}
			if err := env.cache.InvalidateTrip(ctx, "trip-1"); err != nil {
				t.Errorf("invalidate: %v", err)
			}
		})
	}

	details, err := env.catalog.GetByID(ctx, "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Trip.AvailableSeats != 4 {
		t.Fatalf("expected the overlapping read to see 4 seats, got %d", details.Trip.AvailableSeats)
	}
	if env.cache.Has("trip-1") {
		t.Error("stale read was written to the cache")
	}
	if got := atomic.LoadInt32(&env.cache.StaleSetCount); got != 1 {
		t.Errorf("expected 1 rejected cache write, got %d", got)
	}

	details, err = env.catalog.GetByID(ctx, "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Trip.AvailableSeats != 3 || !env.cache.Has("trip-1") {
		t.Errorf("expected the fresh read (3 seats) to be cached, got %d", details.Trip.AvailableSeats)
	}
}

func TestGetByID_CacheFailureFallsBackToRepository(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 4))
	env.cache.GetError = ErrMockTimeout

	if _, err := env.catalog.GetByID(context.Background(), "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPoolQuote(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.users.AddUser(&domain.User{ID: "user-a", Name: "Asha"})
	trip := newTrip("trip-1", "driver-1", domain.RideTypePooling, 4)
	trip.Passengers = []string{"user-a"}
	env.trips.AddTrip(trip)

	quote, err := env.catalog.PoolQuote(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.PrivateFare != 120 || quote.PoolFare != 60 || quote.Savings != 60 {
		t.Errorf("unexpected quote %+v", quote)
	}
	if len(quote.CoPassengers) != 1 || quote.CoPassengers[0].Name != "Asha" {
		t.Errorf("unexpected co-passengers %+v", quote.CoPassengers)
	}
}
