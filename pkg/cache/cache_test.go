package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "principal", time.Minute), mr
}

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "alice", entry{Name: "alice", Roles: []string{"ROLE_USER"}}))
	assert.True(t, mr.Exists("principal:alice"))
	assert.Equal(t, time.Minute, mr.TTL("principal:alice"))

	var got entry
	found, err := c.Get(ctx, "alice", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ROLE_USER"}, got.Roles)

	require.NoError(t, c.Delete(ctx, "alice"))
	found, err = c.Get(ctx, "alice", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Expires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "bob", entry{Name: "bob"}))
	mr.FastForward(2 * time.Minute)

	var got entry
	found, err := c.Get(ctx, "bob", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_NilClient(t *testing.T) {
	ctx := context.Background()
	c := New(nil, "principal", time.Minute)

	assert.False(t, c.Enabled())
	assert.NoError(t, c.Set(ctx, "x", entry{}))
	found, err := c.Get(ctx, "x", &entry{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Delete(ctx, "x"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = rdb.Close()

	_, err = Connect(context.Background(), "://bad")
	assert.Error(t, err)
}
