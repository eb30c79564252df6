package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreFromClient(client), mr
}

func TestRedisPresence(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s, mr := newTestRedis(t)

	online, err := s.IsOnline(ctx, "u1")
	req.NoError(err)
	req.False(online)

	req.NoError(s.SetOnline(ctx, "u1"))
	req.NoError(s.SetOnline(ctx, "u2"))

	online, err = s.IsOnline(ctx, "u1")
	req.NoError(err)
	req.True(online)

	// A heartbeat older than the window counts as offline and is pruned
	_, err = mr.ZAdd(presenceKey, float64(time.Now().Add(-2*presenceTTL).Unix()), "stale")
	req.NoError(err)
	online, err = s.IsOnline(ctx, "stale")
	req.NoError(err)
	req.False(online)

	users, err := s.OnlineUsers(ctx)
	req.NoError(err)
	req.ElementsMatch([]string{"u1", "u2"}, users)

	req.NoError(s.SetOffline(ctx, "u1"))
	users, err = s.OnlineUsers(ctx)
	req.NoError(err)
	req.Equal([]string{"u2"}, users)
}

func TestRedisCooldown(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s, mr := newTestRedis(t)

	ok, err := s.AcquireCooldown(ctx, "resend", "jane@example.com", time.Minute)
	req.NoError(err)
	req.True(ok)

	ok, err = s.AcquireCooldown(ctx, "resend", "jane@example.com", time.Minute)
	req.NoError(err)
	req.False(ok)

	// Other subjects are independent
	ok, err = s.AcquireCooldown(ctx, "resend", "john@example.com", time.Minute)
	req.NoError(err)
	req.True(ok)

	mr.FastForward(2 * time.Minute)
	ok, err = s.AcquireCooldown(ctx, "resend", "jane@example.com", time.Minute)
	req.NoError(err)
	req.True(ok)
}

func TestRedisStoreNilClient(t *testing.T) {
	var s *RedisStore
	require.Nil(t, s.Client())
}
