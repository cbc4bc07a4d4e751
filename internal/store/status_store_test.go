package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-scout/internal/models"
)

func TestMemoryStatusStoreKeysByPlace(t *testing.T) {
	s := NewMemoryStatusStore()
	ctx := context.Background()

	_, ok, err := s.GetStatus(ctx, "oregon")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetStatus(ctx, models.CrawlStatus{RunID: "1", Place: "Oregon", State: models.RunStateDiscovering}))
	require.NoError(t, s.SetStatus(ctx, models.CrawlStatus{RunID: "1", Place: "oregon ", State: models.RunStateDone, Emitted: 12}))

	got, ok, err := s.GetStatus(ctx, " OREGON")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RunStateDone, got.State)
	assert.Equal(t, 12, got.Emitted)
}

func TestPlaceKey(t *testing.T) {
	assert.Equal(t, "new york", PlaceKey("  New York "))
}

func TestRedisStatusStoreKey(t *testing.T) {
	s := NewRedisStatusStoreWithClient(nil, "", 0)
	assert.Equal(t, DefaultPrefix+"oregon", s.key("Oregon"))
	assert.NoError(t, s.Close())
}
