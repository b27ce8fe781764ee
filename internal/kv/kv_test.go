package kv

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	ctx := context.Background()
	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Set(ctx, "demo_clients:s1", []byte(`[1]`), 0))
	got, err := s.Get(ctx, "demo_clients:s1")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, s.Delete(ctx, "demo_clients:s1"))
	_, err = s.Get(ctx, "demo_clients:s1")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, s.Delete(ctx, "demo_clients:s1"), "deleting a missing key is not an error")
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestMemory_TTL(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "rate", []byte("1470"), time.Hour))

	now = now.Add(59 * time.Minute)
	_, err := m.Get(ctx, "rate")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "rate")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_PurgeDropsExpiredKeys(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "demo_clients:old", []byte("[]"), time.Hour))
	require.NoError(t, m.Set(ctx, "demo_clients:new", []byte("[]"), 3*time.Hour))
	require.NoError(t, m.Set(ctx, "rate", []byte("1470"), 0))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Purge())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 0, m.Purge())

	now = now.Add(2 * time.Hour)
	_, err := m.Get(ctx, "demo_clients:new")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, m.Len(), "expired keys are dropped on read")
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	in := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", in, 0))
	in[0] = 'x'
	out, _ := m.Get(ctx, "k")
	out[1] = 'y'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	r, err := NewRedis(context.Background(), addr, "", 0, "ledger-test:")
	require.NoError(t, err)
	defer r.Close()
	exerciseStorage(t, r)
}
