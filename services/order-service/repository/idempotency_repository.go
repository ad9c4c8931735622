package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idemPending = "pending"

// IdempotencyRepository maps (buyer, Idempotency-Key) to the order it created.
type IdempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{client: client, ttl: ttl}
}

func (r *IdempotencyRepository) getKey(buyer, key string) string {
	return "idem:order:" + buyer + ":" + key
}

// Claim reserves key for buyer. When the key was already used it returns the
// stored order id, or "" with claimed=false while the first call is in flight.
func (r *IdempotencyRepository) Claim(ctx context.Context, buyer, key string) (orderID string, claimed bool, err error) {
	k := r.getKey(buyer, key)
	ok, err := r.client.SetNX(ctx, k, idemPending, r.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}

	val, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return r.Claim(ctx, buyer, key)
	}
	if err != nil {
		return "", false, err
	}
	if val == idemPending {
		return "", false, nil
	}
	return val, false, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, buyer, key, orderID string) error {
	return r.client.Set(ctx, r.getKey(buyer, key), orderID, r.ttl).Err()
}

// Release drops a claim whose request failed so the client can retry.
func (r *IdempotencyRepository) Release(ctx context.Context, buyer, key string) error {
	return r.client.Del(ctx, r.getKey(buyer, key)).Err()
}
