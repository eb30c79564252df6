package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

const (
	presenceKey = "presence:online"
	// presenceTTL is how long a user stays online without a heartbeat.
	presenceTTL = 30 * time.Second
)

// RedisStore handles Redis operations for presence, cooldowns and rate limiting.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying client for the rate limiter.
func (s *RedisStore) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func observeRedis(start time.Time) {
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
}

// SetOnline records a heartbeat for userID in the presence set.
func (s *RedisStore) SetOnline(ctx context.Context, userID string) error {
	defer observeRedis(time.Now())

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: userID,
	})
	pipe.Expire(ctx, presenceKey, presenceTTL*2)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline removes userID from the presence set.
func (s *RedisStore) SetOffline(ctx context.Context, userID string) error {
	defer observeRedis(time.Now())
	return s.client.ZRem(ctx, presenceKey, userID).Err()
}

// IsOnline reports whether userID sent a heartbeat within the presence window.
func (s *RedisStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	defer observeRedis(time.Now())

	score, err := s.client.ZScore(ctx, presenceKey, userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(time.Unix(int64(score), 0)) <= presenceTTL, nil
}

// OnlineUsers returns the users seen within the presence window, pruning stale entries.
func (s *RedisStore) OnlineUsers(ctx context.Context) ([]string, error) {
	defer observeRedis(time.Now())

	threshold := time.Now().Add(-presenceTTL).Unix()
	s.client.ZRemRangeByScore(ctx, presenceKey, "-inf", "("+strconv.FormatInt(threshold, 10))
	return s.client.ZRange(ctx, presenceKey, 0, -1).Result()
}

// cooldownKey returns the key guarding a repeated action.
func cooldownKey(action, subject string) string {
	return fmt.Sprintf("cooldown:%s:%s", action, subject)
}

// AcquireCooldown reports true when no cooldown is active for (action, subject)
// and starts one lasting ttl.
func (s *RedisStore) AcquireCooldown(ctx context.Context, action, subject string, ttl time.Duration) (bool, error) {
	defer observeRedis(time.Now())
	return s.client.SetNX(ctx, cooldownKey(action, subject), "1", ttl).Result()
}
