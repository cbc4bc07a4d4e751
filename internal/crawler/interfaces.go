package crawler

import (
	"context"

	"github.com/segmentio/kafka-go"

	"broker-scout/internal/models"
)

// MessageReader abstracts kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter abstracts kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Collector receives every record the crawl loop emits.
type Collector interface {
	Accept(ctx context.Context, rec models.Record) error
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context, rec models.Record) error

// Accept implements Collector.
func (f CollectorFunc) Accept(ctx context.Context, rec models.Record) error {
	return f(ctx, rec)
}

// FailureHook is told about every profile the loop had to skip.
type FailureHook interface {
	Failed(ctx context.Context, failure models.CrawlFailure) error
}

// StatusWriter persists run state transitions.
type StatusWriter interface {
	SetStatus(ctx context.Context, status models.CrawlStatus) error
}
