package realtime

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

func TestMemoryRegistry(t *testing.T) {
	t.Run("register replaces and returns previous handle", func(t *testing.T) {
		req := require.New(t)
		reg := NewMemoryRegistry()
		first, second := newFakeConn("u1"), newFakeConn("u1")

		req.Nil(reg.Register("u1", first))
		req.Equal(Conn(first), reg.Register("u1", second))

		got, ok := reg.Lookup("u1")
		req.True(ok)
		req.Same(second, got)
		req.Equal(1, reg.Len())
	})

	t.Run("remove if stale handle keeps current", func(t *testing.T) {
		req := require.New(t)
		reg := NewMemoryRegistry()
		stale, current := newFakeConn("u1"), newFakeConn("u1")
		reg.Register("u1", stale)
		reg.Register("u1", current)

		req.False(reg.RemoveIf("u1", stale))
		got, ok := reg.Lookup("u1")
		req.True(ok)
		req.Same(current, got)

		req.True(reg.RemoveIf("u1", current))
		_, ok = reg.Lookup("u1")
		req.False(ok)
	})

	t.Run("remove", func(t *testing.T) {
		req := require.New(t)
		reg := NewMemoryRegistry()
		reg.Register("u1", newFakeConn("u1"))

		reg.Remove("u1")
		reg.Remove("missing")

		_, ok := reg.Lookup("u1")
		req.False(ok)
		req.Zero(reg.Len())
	})
}

func TestPresenceRegistry(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	presence := store.NewRedisStoreFromClient(client)

	reg := NewPresenceRegistry(NewMemoryRegistry(), presence, zerolog.Nop())
	stale, current := newFakeConn("u1"), newFakeConn("u1")

	reg.Register("u1", stale)
	online, err := presence.IsOnline(ctx, "u1")
	req.NoError(err)
	req.True(online)

	// Given a replaced connection
	reg.Register("u1", current)
	// When the stale one goes away
	req.False(reg.RemoveIf("u1", stale))
	// Then the user is still online
	online, err = presence.IsOnline(ctx, "u1")
	req.NoError(err)
	req.True(online)

	req.True(reg.RemoveIf("u1", current))
	online, err = presence.IsOnline(ctx, "u1")
	req.NoError(err)
	req.False(online)

	users, err := presence.OnlineUsers(ctx)
	req.NoError(err)
	req.Empty(users)
}
