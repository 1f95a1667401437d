package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/service"
)

// ──────────────────────────────────────────────
// 1. BOOKING
// ──────────────────────────────────────────────

func TestBook_ConfirmedAndPaidWithFrozenFare(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 3))
	ctx := context.Background()

	booking, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected status %s, got %s", domain.BookingStatusConfirmed, booking.Status)
	}
	if booking.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("expected payment %s, got %s", domain.PaymentStatusPaid, booking.PaymentStatus)
	}
	if booking.FareAmount != 120 {
		t.Errorf("expected fare 120, got %v", booking.FareAmount)
	}

	trip := env.trips.GetTrip("trip-1")
	if trip.AvailableSeats != 2 {
		t.Errorf("expected 2 seats left, got %d", trip.AvailableSeats)
	}
	if !trip.HasPassenger("user-a") {
		t.Error("expected user-a in passengers")
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestBook_DoesNotMoveTripToInProgress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 4))

	if _, err := env.booking.Book(context.Background(), "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := env.trips.GetTrip("trip-1").Status; got != domain.TripStatusAvailable {
		t.Errorf("booking must not change trip status, got %s", got)
	}
}

func TestBook_TripNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.booking.Book(context.Background(), "user-a", "missing")
	if !errors.Is(err, service.ErrTripNotFound) {
		t.Errorf("expected ErrTripNotFound, got %v", err)
	}
}

func TestBook_NoSeatsFailsWithoutStateChange(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	trip := newTrip("trip-1", "driver-1", domain.RideTypePrivate, 1)
	env.trips.AddTrip(trip)
	ctx := context.Background()

	if _, err := env.booking.Book(ctx, "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := env.trips.GetTrip("trip-1")
	count := env.bookings.CountBookings()

	_, err := env.booking.Book(ctx, "user-b", "trip-1")
	if !errors.Is(err, service.ErrSeatsUnavailable) {
		t.Fatalf("expected ErrSeatsUnavailable, got %v", err)
	}

	after := env.trips.GetTrip("trip-1")
	if after.AvailableSeats != before.AvailableSeats || len(after.Passengers) != len(before.Passengers) {
		t.Error("failed booking changed the trip")
	}
	if env.bookings.CountBookings() != count {
		t.Error("failed booking inserted a row")
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestBook_StaleSeatCountRejectedByConditionalReserve(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 1))
	ctx := context.Background()

	if _, err := env.booking.Book(ctx, "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The read still shows the seat user-a just took.
	env.trips.GetByIDHook = func(trip *domain.Trip) {
		trip.AvailableSeats = 1
		trip.Passengers = []string{}
	}
	reserveCalls := atomic.LoadInt32(&env.trips.ReserveSeatCallCount)
	count := env.bookings.CountBookings()

	_, err := env.booking.Book(ctx, "user-b", "trip-1")
	if !errors.Is(err, service.ErrSeatsUnavailable) {
		t.Fatalf("expected ErrSeatsUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&env.trips.ReserveSeatCallCount); got != reserveCalls+1 {
		t.Errorf("expected the conditional reserve to run once, ran %d times", got-reserveCalls)
	}

	env.trips.GetByIDHook = nil
	trip := env.trips.GetTrip("trip-1")
	if trip.AvailableSeats != 0 {
		t.Errorf("expected 0 seats, got %d", trip.AvailableSeats)
	}
	if len(trip.Passengers) != 1 || trip.HasPassenger("user-b") {
		t.Errorf("expected passengers [user-a], got %v", trip.Passengers)
	}
	if env.bookings.CountBookings() != count {
		t.Error("failed booking inserted a row")
	}
	if b, _ := env.bookings.FindActive(ctx, "user-b", "trip-1"); b != nil {
		t.Error("user-b has an active booking")
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestBook_DuplicateActiveBookingRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 4))
	ctx := context.Background()

	if _, err := env.booking.Book(ctx, "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := env.booking.Book(ctx, "user-a", "trip-1")
	if !errors.Is(err, service.ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}

	if seats := env.trips.GetTrip("trip-1").AvailableSeats; seats != 3 {
		t.Errorf("expected 3 seats left, got %d", seats)
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestBook_UniqueIndexViolationMapsToDuplicate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 4))
	// A concurrent insert won the race after FindActive looked.
	env.bookings.AddBooking(&domain.Booking{
		ID: "other", UserID: "user-a", TripID: "trip-1", Status: domain.BookingStatusConfirmed,
	})
	env.bookings.SkipFindActive = true

	_, err := env.booking.Book(context.Background(), "user-a", "trip-1")
	if !errors.Is(err, service.ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}

	// The reserved seat is rolled back with the failed insert.
	trip := env.trips.GetTrip("trip-1")
	if trip.AvailableSeats != 4 || trip.HasPassenger("user-a") {
		t.Errorf("seat not rolled back: seats=%d passengers=%v", trip.AvailableSeats, trip.Passengers)
	}
}

func TestBook_CompletedTripNotBookable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	trip := newTrip("trip-1", "driver-1", domain.RideTypePrivate, 4)
	trip.Status = domain.TripStatusCompleted
	env.trips.AddTrip(trip)

	_, err := env.booking.Book(context.Background(), "user-a", "trip-1")
	if !errors.Is(err, service.ErrTripNotBookable) {
		t.Errorf("expected ErrTripNotBookable, got %v", err)
	}
}

func TestBook_ClosedTripWithNoSeatsReportsSeatsUnavailable(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.TripStatus{domain.TripStatusCompleted, domain.TripStatusCancelled} {
		env := newTestEnv(t)
		trip := newTrip("trip-1", "driver-1", domain.RideTypePrivate, 1)
		trip.AvailableSeats = 0
		trip.Status = status
		env.trips.AddTrip(trip)

		_, err := env.booking.Book(context.Background(), "user-b", "trip-1")
		if !errors.Is(err, service.ErrSeatsUnavailable) {
			t.Errorf("%s trip: expected ErrSeatsUnavailable, got %v", status, err)
		}
		if env.bookings.CountBookings() != 0 {
			t.Errorf("%s trip: failed booking inserted a row", status)
		}
	}
}

func TestBook_InProgressTripStillBookable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	trip := newTrip("trip-1", "driver-1", domain.RideTypePooling, 4)
	trip.Status = domain.TripStatusInProgress
	env.trips.AddTrip(trip)

	if _, err := env.booking.Book(context.Background(), "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestBook_InsertFailureRollsBackSeat(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	env.bookings.CreateError = ErrMockDBConstraint

	_, err := env.booking.Book(context.Background(), "user-a", "trip-1")
	if !errors.Is(err, ErrMockDBConstraint) {
		t.Fatalf("expected injected error, got %v", err)
	}

	trip := env.trips.GetTrip("trip-1")
	if trip.AvailableSeats != 2 || len(trip.Passengers) != 0 {
		t.Errorf("seat not rolled back: seats=%d passengers=%v", trip.AvailableSeats, trip.Passengers)
	}
	if env.tx.RollbackCount != 1 {
		t.Errorf("expected 1 rollback, got %d", env.tx.RollbackCount)
	}
}

func TestBook_LockHeldReturnsConflict(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	env.locks.ForceAcquireFailure = true

	_, err := env.booking.Book(context.Background(), "user-a", "trip-1")
	if !errors.Is(err, service.ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict, got %v", err)
	}
	if env.trips.ReserveSeatCallCount != 0 {
		t.Error("seat reserved without holding the trip lock")
	}
}

func TestBook_LockReleasedAfterBooking(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))

	if _, err := env.booking.Book(context.Background(), "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.locks.IsLocked("trip-1") {
		t.Error("trip lock still held after booking")
	}
	if env.locks.ReleaseCallCount != 1 {
		t.Errorf("expected 1 release, got %d", env.locks.ReleaseCallCount)
	}
}

func TestBook_InvalidatesCachedTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	ctx := context.Background()

	// Warm the cache.
	if _, err := env.catalog.GetByID(ctx, "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.cache.Has("trip-1") {
		t.Fatal("expected trip to be cached")
	}

	if _, err := env.booking.Book(ctx, "user-a", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.cache.Has("trip-1") {
		t.Error("expected cached trip to be invalidated")
	}
}

func TestBook_EmptyIDs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.booking.Book(ctx, "", "trip-1"); !errors.Is(err, service.ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got %v", err)
	}
	if _, err := env.booking.Book(ctx, "user-a", ""); !errors.Is(err, service.ErrInvalidTripID) {
		t.Errorf("expected ErrInvalidTripID, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. CONCURRENT BOOKING
// ──────────────────────────────────────────────

func TestBook_ConcurrentNeverOversells(t *testing.T) {
	t.Parallel()

	const seats = 3
	const passengers = 20

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, seats))
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		succeeded int32
		start     = make(chan struct{})
	)
	for i := 0; i < passengers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			userID := fmt.Sprintf("user-%d", i)
			// Retry on lock contention the way a client would.
			for {
				_, err := env.booking.Book(ctx, userID, "trip-1")
				if errors.Is(err, service.ErrBookingConflict) {
					continue
				}
				if err == nil {
					atomic.AddInt32(&succeeded, 1)
				} else if !errors.Is(err, service.ErrSeatsUnavailable) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if succeeded != seats {
		t.Errorf("expected %d successful bookings, got %d", seats, succeeded)
	}
	if got := env.trips.GetTrip("trip-1").AvailableSeats; got != 0 {
		t.Errorf("expected 0 seats left, got %d", got)
	}
	assertSeatInvariant(t, env, "trip-1")
}

// ──────────────────────────────────────────────
// 3. CANCELLATION
// ──────────────────────────────────────────────

func TestCancel_ReleasesSeatAndRefunds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	ctx := context.Background()

	booking, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := env.booking.Cancel(ctx, booking.ID, "user-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.PaymentStatus != domain.PaymentStatusRefunded {
		t.Errorf("expected refunded, got %s", cancelled.PaymentStatus)
	}

	trip := env.trips.GetTrip("trip-1")
	if trip.AvailableSeats != 2 {
		t.Errorf("expected 2 seats, got %d", trip.AvailableSeats)
	}
	if trip.HasPassenger("user-a") {
		t.Error("user-a still listed as passenger")
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestCancel_Idempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	ctx := context.Background()

	booking, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.booking.Book(ctx, "user-b", "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := env.booking.Cancel(ctx, booking.ID, "user-a")
		if err != nil {
			t.Fatalf("cancel #%d: unexpected error: %v", i+1, err)
		}
		if got.Status != domain.BookingStatusCancelled {
			t.Errorf("cancel #%d: expected cancelled, got %s", i+1, got.Status)
		}
	}

	if seats := env.trips.GetTrip("trip-1").AvailableSeats; seats != 1 {
		t.Errorf("repeated cancel double-incremented seats: got %d, want 1", seats)
	}
	if env.trips.ReleaseSeatCallCount != 1 {
		t.Errorf("expected 1 seat release, got %d", env.trips.ReleaseSeatCallCount)
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestCancel_ConcurrentCallsReleaseOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	ctx := context.Background()

	booking, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.booking.Cancel(ctx, booking.ID, "user-a"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if seats := env.trips.GetTrip("trip-1").AvailableSeats; seats != 2 {
		t.Errorf("expected 2 seats, got %d", seats)
	}
	assertSeatInvariant(t, env, "trip-1")
}

func TestCancel_OtherUsersBookingForbidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	ctx := context.Background()

	booking, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = env.booking.Cancel(ctx, booking.ID, "user-b")
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if got := env.bookings.GetBooking(booking.ID).Status; got != domain.BookingStatusConfirmed {
		t.Errorf("forbidden cancel changed status to %s", got)
	}
}

func TestCancel_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.booking.Cancel(context.Background(), "missing", "user-a")
	if !errors.Is(err, service.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestCancel_CompletedBookingRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	env.bookings.AddBooking(&domain.Booking{
		ID: "b-1", UserID: "user-a", TripID: "trip-1",
		Status: domain.BookingStatusCompleted, PaymentStatus: domain.PaymentStatusPaid,
	})

	_, err := env.booking.Cancel(context.Background(), "b-1", "user-a")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 4. SEAT SCENARIO
// ──────────────────────────────────────────────

func TestScenario_PoolingSingleSeatBookCancelRebook(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePooling, 1))
	ctx := context.Background()

	// User A books: fare is half of 120.
	first, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("A book: %v", err)
	}
	if first.FareAmount != 60 {
		t.Errorf("expected fare 60, got %v", first.FareAmount)
	}
	if seats := env.trips.GetTrip("trip-1").AvailableSeats; seats != 0 {
		t.Errorf("expected 0 seats, got %d", seats)
	}

	// User B is turned away.
	if _, err := env.booking.Book(ctx, "user-b", "trip-1"); !errors.Is(err, service.ErrSeatsUnavailable) {
		t.Errorf("B book: expected ErrSeatsUnavailable, got %v", err)
	}

	// User A cancels.
	if _, err := env.booking.Cancel(ctx, first.ID, "user-a"); err != nil {
		t.Fatalf("A cancel: %v", err)
	}
	if seats := env.trips.GetTrip("trip-1").AvailableSeats; seats != 1 {
		t.Errorf("expected 1 seat after cancel, got %d", seats)
	}
	if got := env.bookings.GetBooking(first.ID).Status; got != domain.BookingStatusCancelled {
		t.Errorf("expected first booking cancelled, got %s", got)
	}

	// User A books again and gets a new row at the same fare.
	second, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("A rebook: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new booking row")
	}
	if second.FareAmount != 60 {
		t.Errorf("expected fare 60, got %v", second.FareAmount)
	}
	assertSeatInvariant(t, env, "trip-1")
}

// ──────────────────────────────────────────────
// 5. READS
// ──────────────────────────────────────────────

func TestGetBooking_OwnerOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.trips.AddTrip(newTrip("trip-1", "driver-1", domain.RideTypePrivate, 2))
	ctx := context.Background()

	booking, err := env.booking.Book(ctx, "user-a", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := env.booking.GetBooking(ctx, booking.ID, "user-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Trip.ID != "trip-1" {
		t.Errorf("expected trip-1, got %s", view.Trip.ID)
	}

	if _, err := env.booking.GetBooking(ctx, booking.ID, "user-b"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestListMyTrips_PartitionsByDateNewestFirst(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	past := newTrip("trip-past", "driver-1", domain.RideTypePrivate, 4)
	past.Date = past.Date.AddDate(0, 0, -10)
	env.trips.AddTrip(past)
	env.trips.AddTrip(newTrip("trip-next", "driver-1", domain.RideTypePrivate, 4))
	later := newTrip("trip-later", "driver-1", domain.RideTypePrivate, 4)
	later.Date = later.Date.AddDate(0, 0, 7)
	env.trips.AddTrip(later)

	env.bookings.AddBooking(&domain.Booking{ID: "b-past", UserID: "user-a", TripID: "trip-past", Status: domain.BookingStatusCompleted})
	env.bookings.AddBooking(&domain.Booking{ID: "b-later", UserID: "user-a", TripID: "trip-later", Status: domain.BookingStatusConfirmed})
	env.bookings.AddBooking(&domain.Booking{ID: "b-next", UserID: "user-a", TripID: "trip-next", Status: domain.BookingStatusConfirmed})
	env.bookings.AddBooking(&domain.Booking{ID: "b-other", UserID: "user-b", TripID: "trip-next", Status: domain.BookingStatusConfirmed})

	trips, err := env.booking.ListMyTrips(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(trips.Upcoming) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(trips.Upcoming))
	}
	if trips.Upcoming[0].Booking.ID != "b-next" || trips.Upcoming[1].Booking.ID != "b-later" {
		t.Errorf("upcoming not newest-first: %s, %s", trips.Upcoming[0].Booking.ID, trips.Upcoming[1].Booking.ID)
	}
	if len(trips.Past) != 1 || trips.Past[0].Booking.ID != "b-past" {
		t.Errorf("expected b-past in past, got %+v", trips.Past)
	}
}
