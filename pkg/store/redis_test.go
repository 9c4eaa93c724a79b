package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStoreFromClient(client, "")
}

func TestRedisStore(t *testing.T) {
	_, s := newRedisStore(t)
	exercise(t, s)
}

func TestRedisStoreKeys(t *testing.T) {
	mr, s := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "d1", samplePayload("One")))
	assert.True(t, mr.Exists("flowbuilder:draft:d1"))

	members, err := mr.ZMembers("flowbuilder:drafts")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, members)
}

func TestRedisStoreListOrder(t *testing.T) {
	_, s := newRedisStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		require.NoError(t, s.Save(ctx, id, samplePayload(id)))
	}

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "new", infos[0].ID)
	assert.Equal(t, "old", infos[2].ID)
	assert.True(t, infos[0].UpdatedAt.Equal(base.Add(2*time.Hour)))
}

func TestRedisStoreListSkipsDanglingIndex(t *testing.T) {
	mr, s := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "kept", samplePayload("Kept")))
	_, err := mr.ZAdd("flowbuilder:drafts", 1, "ghost")
	require.NoError(t, err)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "kept", infos[0].ID)
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewRedisStore(ctx, Config{Backend: BackendRedis, Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
