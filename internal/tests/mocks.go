package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/redis"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// Ensure mocks implement the interfaces the services depend on.
var (
	_ repository.TripRepository    = (*MockTripRepository)(nil)
	_ repository.BookingRepository = (*MockBookingRepository)(nil)
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.DriverSource      = (*MockUserRepository)(nil)
	_ repository.DriverSource      = (*MockDriverSource)(nil)
	_ repository.Transactor        = (*MockTransactor)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ redis.TripCacheInterface     = (*MockTripCache)(nil)
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	GetByIDCallCount     int32
	ReserveSeatCallCount int32
	ReleaseSeatCallCount int32

	// Error injection
	CreateError      error
	GetByIDError     error
	SearchError      error
	ReserveSeatError error
	ReleaseSeatError error

	// GetByIDHook, when set, sees each trip GetByID returns after the read
	// has been taken. Tests use it to make the read stale.
	GetByIDHook func(trip *domain.Trip)
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = cloneTrip(trip)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	trip, ok := m.trips[id]
	if ok {
		trip = cloneTrip(trip)
	}
	m.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.GetByIDHook != nil {
		m.GetByIDHook(trip)
	}
	return trip, nil
}

func (m *MockTripRepository) Search(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.Status != domain.TripStatusAvailable || t.AvailableSeats <= 0 {
			continue
		}
		if filter.PickupCity != "" && t.Pickup.City != filter.PickupCity {
			continue
		}
		if filter.DropoffCity != "" && t.Dropoff.City != filter.DropoffCity {
			continue
		}
		if !filter.DateFrom.IsZero() && t.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && !t.Date.Before(filter.DateTo) {
			continue
		}
		if filter.RideType != "" && t.RideType != filter.RideType {
			continue
		}
		result = append(result, cloneTrip(t))
	}

	// Same ordering as the SQL: date, then the stored HH:MM string.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Time.String() < result[j].Time.String()
	})
	return result, nil
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, driverID string, statuses ...domain.TripStatus) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.Driver.ID != driverID {
			continue
		}
		if len(statuses) > 0 && !containsTripStatus(statuses, t.Status) {
			continue
		}
		result = append(result, cloneTrip(t))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (m *MockTripRepository) ReserveSeat(ctx context.Context, tripID, userID string) (bool, error) {
	atomic.AddInt32(&m.ReserveSeatCallCount, 1)
	if m.ReserveSeatError != nil {
		return false, m.ReserveSeatError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok || !trip.Bookable() || trip.AvailableSeats <= 0 {
		return false, nil
	}
	trip.AvailableSeats--
	trip.Passengers = append(trip.Passengers, userID)
	return true, nil
}

func (m *MockTripRepository) ReleaseSeat(ctx context.Context, tripID, userID string) error {
	atomic.AddInt32(&m.ReleaseSeatCallCount, 1)
	if m.ReleaseSeatError != nil {
		return m.ReleaseSeatError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	if trip.AvailableSeats < trip.SeatCapacity {
		trip.AvailableSeats++
	}
	passengers := trip.Passengers[:0]
	for _, p := range trip.Passengers {
		if p != userID {
			passengers = append(passengers, p)
		}
	}
	trip.Passengers = passengers
	return nil
}

func (m *MockTripRepository) TransitionStatus(ctx context.Context, id string, to domain.TripStatus, from ...domain.TripStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok || !containsTripStatus(from, trip.Status) {
		return false, nil
	}
	trip.Status = to
	return true, nil
}

// GetTrip returns a copy of the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil
	}
	return cloneTrip(trip)
}

func (m *MockTripRepository) snapshot() map[string]*domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Trip, len(m.trips))
	for id, t := range m.trips {
		snap[id] = cloneTrip(t)
	}
	return snap
}

func (m *MockTripRepository) restore(snap map[string]*domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = snap
}

func cloneTrip(t *domain.Trip) *domain.Trip {
	c := *t
	c.Passengers = append([]string{}, t.Passengers...)
	return &c
}

func containsTripStatus(statuses []domain.TripStatus, s domain.TripStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
// Listing order follows insertion order, newest first.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	order    []string

	// Counters for verification
	CreateCallCount           int32
	TransitionStatusCallCount int32

	// Error injection
	CreateError     error
	FindActiveError error

	// SkipFindActive makes FindActive report no booking, as if a concurrent
	// insert landed after the check.
	SkipFindActive bool
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository without constraint checks.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *booking
	m.bookings[booking.ID] = &c
	m.order = append(m.order, booking.ID)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == booking.UserID && b.TripID == booking.TripID && b.IsActive() {
			return repository.ErrDuplicate
		}
	}
	c := *booking
	m.bookings[booking.ID] = &c
	m.order = append(m.order, booking.ID)
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (m *MockBookingRepository) FindActive(ctx context.Context, userID, tripID string) (*domain.Booking, error) {
	if m.FindActiveError != nil {
		return nil, m.FindActiveError
	}
	if m.SkipFindActive {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.TripID == tripID && b.IsActive() {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.UserID == userID }), nil
}

func (m *MockBookingRepository) ListByTrips(ctx context.Context, tripIDs []string, statuses ...domain.BookingStatus) ([]*domain.Booking, error) {
	ids := make(map[string]bool, len(tripIDs))
	for _, id := range tripIDs {
		ids[id] = true
	}
	return m.list(func(b *domain.Booking) bool {
		if !ids[b.TripID] {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if b.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (m *MockBookingRepository) TransitionStatus(ctx context.Context, id string, to domain.BookingStatus, from ...domain.BookingStatus) (bool, error) {
	atomic.AddInt32(&m.TransitionStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if b.Status == f {
			b.Status = to
			b.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentStatus = status
	b.UpdatedAt = time.Now()
	return nil
}

// GetBooking returns a copy of the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	c := *b
	return &c
}

// CountActive returns the number of non-cancelled bookings on a trip.
func (m *MockBookingRepository) CountActive(tripID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, b := range m.bookings {
		if b.TripID == tripID && b.IsActive() {
			n++
		}
	}
	return n
}

// CountBookings returns the total number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) list(match func(*domain.Booking) bool) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		b := m.bookings[m.order[i]]
		if match(b) {
			c := *b
			result = append(result, &c)
		}
	}
	return result
}

type bookingSnapshot struct {
	bookings map[string]*domain.Booking
	order    []string
}

func (m *MockBookingRepository) snapshot() bookingSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := bookingSnapshot{
		bookings: make(map[string]*domain.Booking, len(m.bookings)),
		order:    append([]string{}, m.order...),
	}
	for id, b := range m.bookings {
		c := *b
		snap.bookings[id] = &c
	}
	return snap
}

func (m *MockBookingRepository) restore(snap bookingSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = snap.bookings
	m.order = snap.order
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs transactions one at a time against the mock
// repositories and restores their prior state when fn fails.
type MockTransactor struct {
	mu       sync.Mutex
	trips    *MockTripRepository
	bookings *MockBookingRepository

	// Counters
	CommitCount   int32
	RollbackCount int32

	// Error injection
	BeginError error
}

// NewMockTransactor creates a transactor over the given repositories.
func NewMockTransactor(trips *MockTripRepository, bookings *MockBookingRepository) *MockTransactor {
	return &MockTransactor{trips: trips, bookings: bookings}
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tripSnap := m.trips.snapshot()
	bookingSnap := m.bookings.snapshot()

	if err := fn(ctx, repository.Repositories{Trips: m.trips, Bookings: m.bookings}); err != nil {
		m.trips.restore(tripSnap)
		m.bookings.restore(bookingSnap)
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}

	atomic.AddInt32(&m.CommitCount, 1)
	return nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository. It also
// serves user accounts with the driver role as a DriverSource.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Error injection
	GetByIDsError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	if m.GetByIDsError != nil {
		return nil, m.GetByIDsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			c := *u
			result[id] = &c
		}
	}
	return result, nil
}

func (m *MockUserRepository) Kind() domain.DriverKind {
	return domain.DriverKindUser
}

func (m *MockUserRepository) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok || u.Role != domain.UserRoleDriver {
		return nil, repository.ErrNotFound
	}
	return &domain.Driver{
		ID:    u.ID,
		Kind:  domain.DriverKindUser,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER SOURCE
// ──────────────────────────────────────────────

// MockDriverSource is a mock DriverSource backed by dedicated driver records.
type MockDriverSource struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters
	GetDriverCallCount int32

	// Error injection
	GetDriverError error
}

// NewMockDriverSource creates a new mock driver source.
func NewMockDriverSource() *MockDriverSource {
	return &MockDriverSource{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver record to the mock source.
func (m *MockDriverSource) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver.Kind = domain.DriverKindRecord
	m.drivers[driver.ID] = driver
}

func (m *MockDriverSource) Kind() domain.DriverKind {
	return domain.DriverKindRecord
}

func (m *MockDriverSource) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	atomic.AddInt32(&m.GetDriverCallCount, 1)
	if m.GetDriverError != nil {
		return nil, m.GetDriverError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]heldLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

type heldLock struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]heldLock),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, exists := m.locks[tripID]; exists && time.Now().Before(held.expiry) {
		return "", false, nil
	}

	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[tripID] = heldLock{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, exists := m.locks[tripID]; exists && held.token == token {
		delete(m.locks, tripID)
	}
	return nil
}

// IsLocked checks if a trip is locked (for test assertions).
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, exists := m.locks[tripID]
	return exists && time.Now().Before(held.expiry)
}

// ──────────────────────────────────────────────
// MOCK TRIP CACHE
// ──────────────────────────────────────────────

// MockTripCache is a mock implementation of TripCacheInterface.
type MockTripCache struct {
	mu       sync.Mutex
	trips    map[string]*domain.Trip
	versions map[string]int64

	// Counters
	GetCallCount        int32
	SetCallCount        int32
	StaleSetCount       int32
	InvalidateCallCount int32

	// Error injection
	GetError error
}

// NewMockTripCache creates a new mock trip cache.
func NewMockTripCache() *MockTripCache {
	return &MockTripCache{
		trips:    make(map[string]*domain.Trip),
		versions: make(map[string]int64),
	}
}

func (m *MockTripCache) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return nil, nil
	}
	return cloneTrip(t), nil
}

func (m *MockTripCache) TripVersion(ctx context.Context, tripID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[tripID], nil
}

func (m *MockTripCache) SetTrip(ctx context.Context, trip *domain.Trip, version int64) (bool, error) {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[trip.ID] != version {
		atomic.AddInt32(&m.StaleSetCount, 1)
		return false, nil
	}
	m.trips[trip.ID] = cloneTrip(trip)
	return true, nil
}

func (m *MockTripCache) InvalidateTrip(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[tripID]++
	delete(m.trips, tripID)
	return nil
}

// Has reports whether a trip is cached.
func (m *MockTripCache) Has(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.trips[tripID]
	return ok
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
