package redis

import (
	"context"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// TripCacheInterface defines the interface for trip caching. Writers pass
// the version they saw before reading the trip; SetTrip drops the write if
// an invalidation has happened since.
type TripCacheInterface interface {
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	TripVersion(ctx context.Context, tripID string) (int64, error)
	SetTrip(ctx context.Context, trip *domain.Trip, version int64) (bool, error)
	InvalidateTrip(ctx context.Context, tripID string) error
}

// LockStoreInterface defines the per-trip booking lock.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseTripLock(ctx context.Context, tripID, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ TripCacheInterface = (*CacheStore)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
