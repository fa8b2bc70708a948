package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisState is a State shared by every instance pointing at the same
// Redis database.
type RedisState struct {
	rdb    *goredis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisState connects to Redis and verifies the connection with a ping.
func NewRedisState(cfg config.AuthStateConfig, logger *zap.Logger) (*RedisState, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, domain.WrapError("redis ping", fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err), true)
	}

	return NewRedisStateFromClient(rdb, cfg.KeyPrefix, logger), nil
}

// NewRedisStateFromClient wraps an existing client.
func NewRedisStateFromClient(rdb *goredis.Client, prefix string, logger *zap.Logger) *RedisState {
	return &RedisState{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.Named("redis_state"),
	}
}

func (r *RedisState) key(k string) string {
	return r.prefix + k
}

// Get returns the value for key, if present.
func (r *RedisState) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.WrapError("redis get", err, true)
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
func (r *RedisState) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return domain.WrapError("redis set", err, true)
	}
	return nil
}

// Delete removes key.
func (r *RedisState) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return domain.WrapError("redis del", err, true)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *RedisState) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisState) Close() error {
	r.logger.Debug("closing redis client")
	return r.rdb.Close()
}
