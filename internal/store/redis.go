package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jonathan/fitness-planner/internal/types"
)

const redisKeyPrefix = "plan:"

// RedisStore keeps each program as a JSON value with an expiry.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisStore connects to the server at url (redis://...) and verifies it
// with a ping. A ttl of zero keeps values until they are overwritten.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Get implements PlanStore.
func (s *RedisStore) Get(ctx context.Context, userID string) (*types.Program, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	var program types.Program
	if err := json.Unmarshal(raw, &program); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &program, nil
}

// Set implements PlanStore.
func (s *RedisStore) Set(ctx context.Context, userID string, program *types.Program) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	raw, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+userID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Close implements PlanStore.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
