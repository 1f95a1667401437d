package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/Pallavikandikanti846/InterCityGo/internal/config"
)

// NewRedisClient connects to the Redis instance backing trip locks, the trip
// cache and idempotency keys. Commands are reported to New Relic when nrApp
// is set.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if nrApp != nil {
		client.AddHook(datastoreHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// datastoreHook records each command as a datastore segment on the request's
// New Relic transaction, grouped by keyspace.
type datastoreHook struct{}

func (datastoreHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (datastoreHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			defer startSegment(txn, cmd.Name(), keyspace(cmd)).End()
		}
		return next(ctx, cmd)
	}
}

func (datastoreHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			collection := "pipeline"
			for _, cmd := range cmds {
				if cmd.Name() != "multi" {
					collection = keyspace(cmd)
					break
				}
			}
			defer startSegment(txn, "pipeline", collection).End()
		}
		return next(ctx, cmds)
	}
}

func startSegment(txn *newrelic.Transaction, operation, collection string) *newrelic.DatastoreSegment {
	return &newrelic.DatastoreSegment{
		StartTime:  txn.StartSegmentNow(),
		Product:    newrelic.DatastoreRedis,
		Operation:  operation,
		Collection: collection,
	}
}

// keyspace names the key family a command touches, e.g. "lock:trip" for
// "lock:trip:<id>". EVALSHA carries its key after the SHA and key count.
func keyspace(cmd redis.Cmder) string {
	args := cmd.Args()
	idx := 1
	if name := cmd.Name(); name == "evalsha" || name == "eval" {
		idx = 3
	}
	if len(args) <= idx {
		return "redis"
	}

	key, ok := args[idx].(string)
	if !ok {
		return "redis"
	}
	if i := strings.LastIndex(key, ":"); i > 0 {
		prefix := key[:i]
		// Idempotency keys embed the request path; keep only the family.
		if strings.HasPrefix(prefix, "idempotency:") {
			return "idempotency"
		}
		return prefix
	}
	return "redis"
}
