// Package sink holds the record collectors the crawl loop can emit to.
package sink

import (
	"context"
	"errors"
	"fmt"

	"broker-scout/internal/logger"
	"broker-scout/internal/metrics"
	"broker-scout/internal/models"
)

// Sink is a named, closable record collector.
type Sink interface {
	Name() string
	Accept(ctx context.Context, rec models.Record) error
	Close() error
}

// Multi fans every record out to all sinks. Every sink sees every record even
// when an earlier one fails; the errors are joined.
type Multi struct {
	sinks   []Sink
	metrics *metrics.Metrics
}

// NewMulti combines sinks. m may be nil.
func NewMulti(m *metrics.Metrics, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, metrics: m}
}

// Name implements Sink.
func (m *Multi) Name() string {
	return "multi"
}

// Len is the number of combined sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Accept implements Sink.
func (m *Multi) Accept(ctx context.Context, rec models.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Accept(ctx, rec); err != nil {
			if m.metrics != nil {
				m.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each record's labelled fields to the logger.
type LogSink struct {
	log logger.Logger
}

// NewLogSink builds a log sink.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Name implements Sink.
func (s *LogSink) Name() string {
	return "log"
}

// Accept implements Sink.
func (s *LogSink) Accept(_ context.Context, rec models.Record) error {
	labeled := rec.Labeled()
	fields := make([]logger.Field, 0, len(labeled))
	for _, lv := range labeled {
		fields = append(fields, logger.String(lv.Label, lv.Value))
	}
	s.log.Info("broker record", fields...)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error {
	return nil
}
