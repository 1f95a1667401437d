package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tripLockPrefix = "lock:trip:"

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore serializes booking attempts on a trip across API instances.
type LockStore struct {
	client redis.Cmdable
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireTripLock attempts to take the booking lock for a trip. ok is false
// if another holder has it. The returned token must be passed to
// ReleaseTripLock.
func (s *LockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = s.client.SetNX(ctx, tripLockKey(tripID), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseTripLock releases the trip lock if it is still held under token. A
// lock that expired and was taken by someone else is left alone.
func (s *LockStore) ReleaseTripLock(ctx context.Context, tripID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{tripLockKey(tripID)}, token).Err()
}

func tripLockKey(tripID string) string {
	return tripLockPrefix + tripID
}
