package store

import (
	"context"
	"strings"
	"sync"

	"broker-scout/internal/models"
)

// StatusStore persists the latest run status per place.
type StatusStore interface {
	SetStatus(ctx context.Context, status models.CrawlStatus) error
	GetStatus(ctx context.Context, place string) (models.CrawlStatus, bool, error)
}

// PlaceKey normalizes a place name for use as a status key.
func PlaceKey(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// MemoryStatusStore keeps statuses in process. Used when no Redis is configured.
type MemoryStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]models.CrawlStatus
}

// NewMemoryStatusStore returns an empty store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: make(map[string]models.CrawlStatus)}
}

// SetStatus implements StatusStore.
func (s *MemoryStatusStore) SetStatus(_ context.Context, status models.CrawlStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[PlaceKey(status.Place)] = status
	return nil
}

// GetStatus implements StatusStore.
func (s *MemoryStatusStore) GetStatus(_ context.Context, place string) (models.CrawlStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[PlaceKey(place)]
	return status, ok, nil
}
