package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-scout/internal/models"
)

func newMiniRedisStore(t *testing.T, ttl time.Duration) (*RedisStatusStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStatusStore(mr.Addr(), "", ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStatusStoreRoundTrip(t *testing.T) {
	s, mr := newMiniRedisStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	status := models.CrawlStatus{
		RunID:      "20260119120000",
		Place:      "Oregon",
		State:      models.RunStateExtracting,
		Advertised: 12,
		Emitted:    4,
		Failed:     1,
		UpdatedAt:  time.Date(2026, 1, 19, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SetStatus(ctx, status))
	assert.True(t, mr.Exists(DefaultPrefix+"oregon"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultPrefix+"oregon"))

	got, ok, err := s.GetStatus(ctx, "oregon")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, status, got)
}

func TestRedisStatusStoreMissingAndExpired(t *testing.T) {
	s, mr := newMiniRedisStore(t, time.Minute)
	ctx := context.Background()

	_, ok, err := s.GetStatus(ctx, "utah")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetStatus(ctx, models.CrawlStatus{Place: "utah", State: models.RunStateDone}))
	mr.FastForward(2 * time.Minute)

	_, ok, err = s.GetStatus(ctx, "utah")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStatusStoreCorruptPayload(t *testing.T) {
	s, mr := newMiniRedisStore(t, 0)
	require.NoError(t, mr.Set(DefaultPrefix+"ohio", "{not json"))

	_, _, err := s.GetStatus(context.Background(), "ohio")
	assert.Error(t, err)
}
