package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"seminar-bot/internal/domain"
)

const redisSessionPrefix = "session:"

// redisAPI is the subset of *redis.Client used by RedisSessionStore.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisSessionStore keeps conversation sessions as JSON values in Redis.
type RedisSessionStore struct {
	rdb redisAPI
	ttl time.Duration
}

// NewRedisSessionStore creates a session store. A non-positive ttl keeps sessions
// for 30 days.
func NewRedisSessionStore(rdb redisAPI, ttl time.Duration) (*RedisSessionStore, error) {
	if rdb == nil {
		return nil, errors.New("repository: redis client must not be nil")
	}
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}, nil
}

func sessionKey(chatID int64) string {
	return redisSessionPrefix + strconv.FormatInt(chatID, 10)
}

func (s *RedisSessionStore) GetSession(ctx context.Context, chatID int64) (domain.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewSession(), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession unmarshal: %w", err)
	}
	return session.Clone(), nil
}

func (s *RedisSessionStore) PutSession(ctx context.Context, chatID int64, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("repository: PutSession marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(chatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("repository: PutSession: %w", err)
	}
	return nil
}
