package crawler

import (
	"context"
	"errors"
	"sync"

	"broker-scout/internal/logger"
	"broker-scout/internal/models"
)

// LogFailures logs skipped profiles and keeps nothing.
type LogFailures struct {
	Log logger.Logger
}

// Failed implements FailureHook.
func (h LogFailures) Failed(_ context.Context, f models.CrawlFailure) error {
	h.Log.Warn("profile skipped",
		logger.String("place", f.Place),
		logger.String("url", f.URL),
		logger.String("broker", f.BrokerName),
		logger.Int("position", f.Position),
		logger.String("error", f.Error),
	)
	return nil
}

// MemoryFailures collects skipped profiles for inspection after a run.
type MemoryFailures struct {
	mu       sync.Mutex
	failures []models.CrawlFailure
}

// Failed implements FailureHook.
func (h *MemoryFailures) Failed(_ context.Context, f models.CrawlFailure) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, f)
	return nil
}

// All returns the collected failures in the order they happened.
func (h *MemoryFailures) All() []models.CrawlFailure {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.CrawlFailure, len(h.failures))
	copy(out, h.failures)
	return out
}

// URLs returns the failed profile URLs.
func (h *MemoryFailures) URLs() []string {
	all := h.All()
	out := make([]string, len(all))
	for i, f := range all {
		out[i] = f.URL
	}
	return out
}

// FailureHooks fans a failure out to every hook and joins their errors.
type FailureHooks []FailureHook

// Failed implements FailureHook.
func (hs FailureHooks) Failed(ctx context.Context, f models.CrawlFailure) error {
	var errs []error
	for _, h := range hs {
		if err := h.Failed(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
