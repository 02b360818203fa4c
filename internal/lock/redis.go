package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL    = 30 * time.Second
	defaultRetry      = 50 * time.Millisecond
	releaseTimeout    = 5 * time.Second
	redisLockPrefix   = "lock:"
	releaseIfOwnerLua = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`
	renewIfOwnerLua = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`
)

// redisLockAPI is the subset of *redis.Client used by Redis.
type redisLockAPI interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Redis is a lease-based lock shared by every process using the same Redis. The holder
// renews its lease while it runs; a crashed holder's lease expires after the TTL.
type Redis struct {
	rdb    redisLockAPI
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

func NewRedis(rdb redisLockAPI, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	if rdb == nil {
		return nil, errors.New("lock: redis client must not be nil")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{rdb: rdb, ttl: ttl, retry: defaultRetry, logger: logger}, nil
}

// Lock polls until the lease on key is acquired or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisLockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			l := keepAlive(redisKey, r.ttl, r.renewer(redisKey, token), r.logger)
			return r.unlockFunc(redisKey, token, l), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock: acquire %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Redis) renewer(redisKey, token string) renewFunc {
	return func(ctx context.Context) (bool, error) {
		n, err := r.rdb.Eval(ctx, renewIfOwnerLua, []string{redisKey}, token, r.ttl.Milliseconds()).Int64()
		if err != nil {
			return false, err
		}
		return n == 1, nil
	}
}

func (r *Redis) unlockFunc(redisKey, token string, l *lease) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.stop()
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := r.rdb.Eval(ctx, releaseIfOwnerLua, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("lock release failed", "key", redisKey, "err", err)
			}
		})
	}
}
