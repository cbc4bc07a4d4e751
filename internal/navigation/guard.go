// Package navigation retries page navigations and contains their failures so a
// single unreachable URL never stops a crawl.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broker-scout/internal/browser"
	"broker-scout/internal/logger"
	"broker-scout/internal/metrics"
)

// ErrUnreachable wraps the last attempt's error once all attempts are spent.
var ErrUnreachable = errors.New("url unreachable")

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 25 * time.Second
	// MaxTimeout caps the configurable per-attempt timeout.
	MaxTimeout = 45 * time.Second
)

// Config tunes the guard. Attempts are immediate retries, no backoff.
type Config struct {
	MaxAttempts int
	Timeout     time.Duration
	// IsRetryable classifies an attempt error; nil retries everything.
	IsRetryable func(error) bool
}

// Outcome is the result of one guarded navigation. Page is nil on failure.
type Outcome struct {
	Page     browser.Page
	Response browser.Response
	Attempts int
	Err      error
}

// OK reports whether the page reached the requested load condition.
func (o Outcome) OK() bool {
	return o.Page != nil && o.Err == nil
}

// Guard wraps navigation on a single page with bounded retries.
type Guard struct {
	page    browser.Page
	cfg     Config
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewGuard builds a guard around page. m may be nil.
func NewGuard(page browser.Page, cfg Config, log logger.Logger, m *metrics.Metrics) *Guard {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout > MaxTimeout {
		cfg.Timeout = MaxTimeout
	}
	return &Guard{page: page, cfg: cfg, log: log, metrics: m}
}

// Navigate visits url with the configured attempt cap.
func (g *Guard) Navigate(ctx context.Context, url string, cond browser.LoadCondition) Outcome {
	return g.NavigateWithAttempts(ctx, url, cond, g.cfg.MaxAttempts)
}

// NavigateWithAttempts visits url, retrying up to maxAttempts times. Failures
// are logged and returned in the Outcome, never as a panic or separate error.
func (g *Guard) NavigateWithAttempts(ctx context.Context, url string, cond browser.LoadCondition, maxAttempts int) Outcome {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		attempt++
		g.log.Info("visiting url", logger.String("url", url), logger.Int("attempt", attempt))

		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		resp, err := g.page.Goto(attemptCtx, url, cond)
		cancel()
		elapsed := time.Since(start)

		if err == nil {
			g.metrics.ObserveNavigation(metrics.OutcomeSuccess, elapsed)
			g.log.Debug("page done loading", logger.String("url", url), logger.Int("status", resp.Status))
			return Outcome{Page: g.page, Response: resp, Attempts: attempt}
		}

		lastErr = err
		g.metrics.ObserveNavigation(metrics.OutcomeRetry, elapsed)
		g.log.Error("navigation attempt failed",
			logger.String("url", url),
			logger.Int("attempt", attempt),
			logger.Err(err),
		)
		if ctx.Err() != nil || !g.retryable(err) {
			break
		}
	}

	g.metrics.ObserveNavigation(metrics.OutcomeFailed, 0)
	g.log.Warn("skipping unreachable url", logger.String("url", url), logger.Int("attempts", attempt))
	return Outcome{Attempts: attempt, Err: fmt.Errorf("%w: %s: %w", ErrUnreachable, url, lastErr)}
}

func (g *Guard) retryable(err error) bool {
	if g.cfg.IsRetryable == nil {
		return true
	}
	return g.cfg.IsRetryable(err)
}
