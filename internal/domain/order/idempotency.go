// internal/domain/order/idempotency.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// idempotencyPending marks a key whose first request is still in flight
const idempotencyPending = "pending"

// IdempotencyStore is the key-value slice backing the create-order
// idempotency protocol: reserve-once, look up the recorded outcome,
// store it, or release the reservation after a failure.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, marker string, ttl time.Duration) (bool, error)
	Lookup(ctx context.Context, key string) (value string, found bool, err error)
	Store(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

func idempotencyKey(userID uint, key string) string {
	return fmt.Sprintf("order:idem:%d:%s", userID, key)
}

// redisIdempotency backs the protocol with Redis: Reserve is SETNX, so
// exactly one of any number of concurrent reservations wins.
type redisIdempotency struct {
	client *redis.Client
}

func (r *redisIdempotency) Reserve(ctx context.Context, key, marker string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, marker, ttl).Result()
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindPersistence, err, "failed to reserve idempotency key")
	}
	return ok, nil
}

func (r *redisIdempotency) Lookup(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.KindPersistence, err, "failed to read idempotency key")
	}
	return val, true, nil
}

func (r *redisIdempotency) Store(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisIdempotency) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
