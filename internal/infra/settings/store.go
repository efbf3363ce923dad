// Package settings keeps the small key-value state the checkout flow needs
// between creating a preference and reconciling its result.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/domain"

	"github.com/go-redis/redis/v8"
)

const (
	lastPreferencePrefix = "checkout:last_preference:"
	pendingPrefix        = "checkout:pending:"
)

type Store interface {
	SaveLastPreference(ctx context.Context, userID, preferenceID string) error
	LastPreference(ctx context.Context, userID string) (string, error)
	SavePending(ctx context.Context, pc *domain.PendingCheckout) error
	Pending(ctx context.Context, preferenceID string) (*domain.PendingCheckout, error)
	DeletePending(ctx context.Context, preferenceID string) error
	ListPending(ctx context.Context) ([]string, error)
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore keeps entries for ttl; zero means no expiry.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) SaveLastPreference(ctx context.Context, userID, preferenceID string) error {
	return s.rdb.Set(ctx, lastPreferencePrefix+userID, preferenceID, s.ttl).Err()
}

// LastPreference returns "" when the user has none.
func (s *RedisStore) LastPreference(ctx context.Context, userID string) (string, error) {
	v, err := s.rdb.Get(ctx, lastPreferencePrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) SavePending(ctx context.Context, pc *domain.PendingCheckout) error {
	b, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("encode pending checkout: %w", err)
	}
	return s.rdb.Set(ctx, pendingPrefix+pc.PreferenceID, b, s.ttl).Err()
}

// Pending returns nil, nil for an unknown preference.
func (s *RedisStore) Pending(ctx context.Context, preferenceID string) (*domain.PendingCheckout, error) {
	b, err := s.rdb.Get(ctx, pendingPrefix+preferenceID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var pc domain.PendingCheckout
	if err := json.Unmarshal(b, &pc); err != nil {
		return nil, fmt.Errorf("decode pending checkout %s: %w", preferenceID, err)
	}
	return &pc, nil
}

func (s *RedisStore) DeletePending(ctx context.Context, preferenceID string) error {
	return s.rdb.Del(ctx, pendingPrefix+preferenceID).Err()
}

// ListPending returns the preference ids of all stored pending checkouts.
func (s *RedisStore) ListPending(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.rdb.Scan(ctx, 0, pendingPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(pendingPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
