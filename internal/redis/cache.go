package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// TripCacheTTL bounds how stale a cached trip may be if an invalidation is lost.
const TripCacheTTL = 60 * time.Second

// tripVersionTTL outlives any cache entry so a version is never reset while
// a reader still holds it.
const tripVersionTTL = 24 * time.Hour

const (
	tripCachePrefix   = "cache:trip:"
	tripVersionPrefix = "cache:trip-version:"
)

// setIfVersionScript writes KEYS[1] only while KEYS[2] still holds ARGV[1].
// A missing version counts as 0.
var setIfVersionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// CacheStore handles trip caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedTrip is the JSON form of a trip held in cache.
type CachedTrip struct {
	ID              string    `json:"id"`
	DriverID        string    `json:"driver_id"`
	DriverKind      string    `json:"driver_kind"`
	PickupAddress   string    `json:"pickup_address"`
	PickupCity      string    `json:"pickup_city"`
	PickupProvince  string    `json:"pickup_province"`
	DropoffAddress  string    `json:"dropoff_address"`
	DropoffCity     string    `json:"dropoff_city"`
	DropoffProvince string    `json:"dropoff_province"`
	Date            time.Time `json:"date"`
	Time            string    `json:"time"`
	SeatCapacity    int       `json:"seat_capacity"`
	AvailableSeats  int       `json:"available_seats"`
	RideType        string    `json:"ride_type"`
	BaseFare        float64   `json:"base_fare"`
	TaxesAndFees    float64   `json:"taxes_and_fees"`
	TotalFare       float64   `json:"total_fare"`
	Status          string    `json:"status"`
	Passengers      []string  `json:"passengers"`
	CreatedAt       time.Time `json:"created_at"`
}

// GetTrip retrieves a trip from cache. Returns nil on a cache miss.
func (s *CacheStore) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	data, err := s.client.Get(ctx, tripCachePrefix+tripID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedTrip
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.toDomain()
}

// TripVersion returns the trip's invalidation counter, 0 if it was never
// invalidated.
func (s *CacheStore) TripVersion(ctx context.Context, tripID string) (int64, error) {
	version, err := s.client.Get(ctx, tripVersionPrefix+tripID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// SetTrip stores a trip read at version. It reports false, without error,
// when the trip was invalidated after that version was taken.
func (s *CacheStore) SetTrip(ctx context.Context, trip *domain.Trip, version int64) (bool, error) {
	data, err := json.Marshal(newCachedTrip(trip))
	if err != nil {
		return false, err
	}

	keys := []string{tripCachePrefix + trip.ID, tripVersionPrefix + trip.ID}
	stored, err := setIfVersionScript.Run(ctx, s.client, keys,
		strconv.FormatInt(version, 10), data, TripCacheTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// InvalidateTrip removes a trip from cache and bumps its version, so a
// reader that loaded the trip earlier cannot write it back.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, tripVersionPrefix+tripID)
		pipe.Expire(ctx, tripVersionPrefix+tripID, tripVersionTTL)
		pipe.Del(ctx, tripCachePrefix+tripID)
		return nil
	})
	return err
}

func newCachedTrip(t *domain.Trip) *CachedTrip {
	return &CachedTrip{
		ID:              t.ID,
		DriverID:        t.Driver.ID,
		DriverKind:      string(t.Driver.Kind),
		PickupAddress:   t.Pickup.Address,
		PickupCity:      t.Pickup.City,
		PickupProvince:  t.Pickup.Province,
		DropoffAddress:  t.Dropoff.Address,
		DropoffCity:     t.Dropoff.City,
		DropoffProvince: t.Dropoff.Province,
		Date:            t.Date,
		Time:            t.Time.String(),
		SeatCapacity:    t.SeatCapacity,
		AvailableSeats:  t.AvailableSeats,
		RideType:        string(t.RideType),
		BaseFare:        t.BaseFare,
		TaxesAndFees:    t.TaxesAndFees,
		TotalFare:       t.TotalFare,
		Status:          string(t.Status),
		Passengers:      t.Passengers,
		CreatedAt:       t.CreatedAt,
	}
}

func (c *CachedTrip) toDomain() (*domain.Trip, error) {
	tod, err := domain.ParseTimeOfDay(c.Time)
	if err != nil {
		return nil, err
	}
	return &domain.Trip{
		ID:             c.ID,
		Driver:         domain.DriverRef{ID: c.DriverID, Kind: domain.DriverKind(c.DriverKind)},
		Pickup:         domain.Location{Address: c.PickupAddress, City: c.PickupCity, Province: c.PickupProvince},
		Dropoff:        domain.Location{Address: c.DropoffAddress, City: c.DropoffCity, Province: c.DropoffProvince},
		Date:           c.Date,
		Time:           tod,
		SeatCapacity:   c.SeatCapacity,
		AvailableSeats: c.AvailableSeats,
		RideType:       domain.RideType(c.RideType),
		BaseFare:       c.BaseFare,
		TaxesAndFees:   c.TaxesAndFees,
		TotalFare:      c.TotalFare,
		Status:         domain.TripStatus(c.Status),
		Passengers:     c.Passengers,
		CreatedAt:      c.CreatedAt,
	}, nil
}
