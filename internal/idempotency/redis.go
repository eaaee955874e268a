package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gigpay-backend/internal/escrow"
)

const keyPrefix = "gigpay:idem:"

// Connect initializes a Redis client from URL or host:port input.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisStore keeps Idempotency-Key reservations in Redis hashes with a TTL,
// so a retried money-moving command replays the stored response instead of
// charging twice.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*escrow.IdempotencyRecord, error) {
	data, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	rec := &escrow.IdempotencyRecord{RequestHash: data["request_hash"]}
	if body, ok := data["response"]; ok {
		rec.Response = []byte(body)
	}
	return rec, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key, requestHash string) error {
	redisKey := keyPrefix + key

	reserved, err := s.client.HSetNX(ctx, redisKey, "request_hash", requestHash).Result()
	if err != nil {
		return err
	}
	if !reserved {
		// Someone holds the key already; the Get path replays completed
		// responses, so any surviving reservation is a conflict.
		return escrow.ErrIdempotencyConflict
	}

	return s.client.Expire(ctx, redisKey, s.ttl).Err()
}

// Release drops a reservation whose transition failed, so the same key can
// back an honest retry instead of being refused for the rest of the TTL.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

func (s *RedisStore) Complete(ctx context.Context, key string, response []byte) error {
	redisKey := keyPrefix + key
	if err := s.client.HSet(ctx, redisKey, "response", response).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, redisKey, s.ttl).Err()
}
