// Package crawler drives one place through discovery and profile extraction.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"broker-scout/internal/browser"
	"broker-scout/internal/ibba"
	"broker-scout/internal/logger"
	"broker-scout/internal/metrics"
	"broker-scout/internal/models"
	"broker-scout/internal/navigation"
)

// ErrDisallowed marks a profile skipped because robots.txt forbids it.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Deps are the collaborators a Crawler drives. Guard, Discoverer, Extractor,
// Collector and Log are required; the rest may be nil.
type Deps struct {
	Guard      *navigation.Guard
	Discoverer *ibba.Discoverer
	Extractor  *ibba.Extractor
	Collector  Collector
	Failures   FailureHook
	Status     StatusWriter
	Metrics    *metrics.Metrics
	Log        logger.Logger
}

// Options select what a single run does.
type Options struct {
	Place string
	// RunID defaults to a timestamp.
	RunID string
	// ProfileCondition is the load condition for profile pages.
	ProfileCondition browser.LoadCondition
	// WarmUpURL is visited once before discovery. Failure there is only logged.
	WarmUpURL string
	// Robots filters profile URLs; nil allows all.
	Robots *ibba.RobotsRules
}

// Crawler runs the discover then extract loop on a single page.
type Crawler struct {
	deps Deps
	now  func() time.Time
}

// New builds a crawler.
func New(deps Deps) *Crawler {
	if deps.Failures == nil {
		deps.Failures = LogFailures{Log: deps.Log}
	}
	return &Crawler{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// run tracks the counters of one Run call.
type run struct {
	status  models.CrawlStatus
	started time.Time
}

// Run discovers the place's profiles and extracts each one in queue order.
// A structural error from discovery aborts the run and is returned; profiles
// that cannot be reached are handed to the failure hook and skipped.
func (c *Crawler) Run(ctx context.Context, opts Options) (models.RunSummary, error) {
	place := strings.TrimSpace(opts.Place)
	if place == "" {
		return models.RunSummary{}, errors.New("place is required")
	}
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID(c.now())
	}
	cond := opts.ProfileCondition
	if cond == "" {
		cond = browser.LoadConditionNetworkIdle
	}

	r := &run{
		started: c.now(),
		status:  models.CrawlStatus{RunID: runID, Place: place},
	}
	log := c.deps.Log.With(logger.String("run_id", runID), logger.String("place", place))

	c.transition(ctx, r, models.RunStateDiscovering)
	if opts.WarmUpURL != "" {
		if out := c.deps.Guard.Navigate(ctx, opts.WarmUpURL, browser.LoadConditionLoad); !out.OK() {
			log.Warn("warm-up visit failed", logger.String("url", opts.WarmUpURL), logger.Err(out.Err))
		}
	}

	queue, err := c.deps.Discoverer.Discover(ctx, place)
	if err != nil {
		r.status.Error = err.Error()
		c.transition(ctx, r, models.RunStateAborted)
		log.Error("discovery aborted", logger.Err(err))
		return c.summary(r), fmt.Errorf("discover %s: %w", place, err)
	}

	r.status.Advertised = queue.Size()
	if c.deps.Metrics != nil {
		c.deps.Metrics.ProfilesDiscovered.Set(float64(queue.Size()))
	}
	c.transition(ctx, r, models.RunStateExtracting)
	log.Info("extracting profiles", logger.Int("queued", queue.Size()))

	for job, ok := queue.Dequeue(); ok; job, ok = queue.Dequeue() {
		if err := ctx.Err(); err != nil {
			return c.abort(ctx, log, r, err)
		}
		c.visit(ctx, log, r, opts, cond, job)
		c.writeStatus(ctx, r)
		log.Debug("profile processed", logger.Int("position", job.Position), logger.Int("remaining", queue.Remaining()))
	}
	if err := ctx.Err(); err != nil {
		return c.abort(ctx, log, r, err)
	}

	c.transition(ctx, r, models.RunStateDone)
	log.Info("crawl finished",
		logger.Int("advertised", r.status.Advertised),
		logger.Int("emitted", r.status.Emitted),
		logger.Int("failed", r.status.Failed),
	)
	return c.summary(r), nil
}

func (c *Crawler) visit(ctx context.Context, log logger.Logger, r *run, opts Options, cond browser.LoadCondition, job models.ProfileJob) {
	if !opts.Robots.Allowed(job.URL) {
		c.fail(ctx, log, r, job, fmt.Errorf("%w: %s", ErrDisallowed, job.URL))
		return
	}

	out := c.deps.Guard.Navigate(ctx, job.URL, cond)
	if !out.OK() {
		if ctx.Err() != nil {
			return
		}
		c.fail(ctx, log, r, job, out.Err)
		return
	}

	rec, err := c.deps.Extractor.ExtractPage(ctx, out.Page, job.URL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.fail(ctx, log, r, job, err)
		return
	}

	r.status.Emitted++
	if c.deps.Metrics != nil {
		c.deps.Metrics.RecordsEmitted.Inc()
	}
	log.Info("record extracted", logger.String("broker", rec.Name), logger.String("url", rec.URL))
	if err := c.deps.Collector.Accept(ctx, rec); err != nil {
		log.Error("collector rejected record", logger.String("url", rec.URL), logger.Err(err))
	}
}

// abort records a cancelled run. The interrupted profile is neither emitted
// nor dead-lettered.
func (c *Crawler) abort(ctx context.Context, log logger.Logger, r *run, cause error) (models.RunSummary, error) {
	r.status.Error = cause.Error()
	c.transition(ctx, r, models.RunStateAborted)
	log.Warn("crawl cancelled",
		logger.Int("emitted", r.status.Emitted),
		logger.Int("failed", r.status.Failed),
		logger.Err(cause),
	)
	return c.summary(r), cause
}

func (c *Crawler) fail(ctx context.Context, log logger.Logger, r *run, job models.ProfileJob, cause error) {
	r.status.Failed++
	if c.deps.Metrics != nil {
		c.deps.Metrics.ProfilesFailed.Inc()
	}
	failure := models.CrawlFailure{
		RunID:      r.status.RunID,
		Place:      r.status.Place,
		URL:        job.URL,
		BrokerName: job.BrokerName,
		Position:   job.Position,
		FailedAt:   c.now(),
	}
	if cause != nil {
		failure.Error = cause.Error()
	}
	if err := c.deps.Failures.Failed(ctx, failure); err != nil {
		log.Error("failure hook error", logger.String("url", job.URL), logger.Err(err))
	}
}

func (c *Crawler) transition(ctx context.Context, r *run, state models.RunState) {
	r.status.State = state
	c.writeStatus(ctx, r)
}

func (c *Crawler) writeStatus(ctx context.Context, r *run) {
	if c.deps.Status == nil {
		return
	}
	r.status.UpdatedAt = c.now()
	// An aborted run may carry a cancelled ctx; the final state is still written.
	writeCtx := context.WithoutCancel(ctx)
	if err := c.deps.Status.SetStatus(writeCtx, r.status); err != nil {
		c.deps.Log.Warn("status write failed", logger.String("place", r.status.Place), logger.Err(err))
	}
}

func (c *Crawler) summary(r *run) models.RunSummary {
	return models.RunSummary{
		RunID:      r.status.RunID,
		Place:      r.status.Place,
		Advertised: r.status.Advertised,
		Emitted:    r.status.Emitted,
		Failed:     r.status.Failed,
		StartedAt:  r.started,
		FinishedAt: c.now(),
	}
}

// NewRunID returns a sortable timestamp id.
func NewRunID(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format("20060102150405.000000000"), ".", "")
}
