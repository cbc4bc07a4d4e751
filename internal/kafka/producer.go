package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"broker-scout/internal/crawler"
	"broker-scout/internal/models"
)

// Producer wraps a Kafka writer for one topic.
type Producer struct {
	writer crawler.MessageWriter
	runID  string
	now    func() time.Time
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: false,
	})
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer crawler.MessageWriter) *Producer {
	return &Producer{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

// ForRun tags published messages with runID.
func (p *Producer) ForRun(runID string) *Producer {
	cp := *p
	cp.runID = runID
	return &cp
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Name identifies the producer as a sink.
func (p *Producer) Name() string {
	return "kafka"
}

// PublishRecord writes one broker record keyed by its profile URL.
func (p *Producer) PublishRecord(ctx context.Context, place string, rec models.Record) error {
	payload, err := json.Marshal(models.RecordMessage{
		RunID:     p.runID,
		Place:     place,
		Record:    rec,
		EmittedAt: p.now(),
	})
	if err != nil {
		return err
	}
	return p.write(ctx, rec.URL, payload)
}

// Failed publishes a skipped profile to the dead-letter topic.
func (p *Producer) Failed(ctx context.Context, failure models.CrawlFailure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return err
	}
	return p.write(ctx, failure.URL, payload)
}

func (p *Producer) write(ctx context.Context, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  p.now(),
	}
	return p.writer.WriteMessages(ctx, msg)
}

// RecordSink adapts a Producer to the crawler's collector contract for one place.
type RecordSink struct {
	producer *Producer
	place    string
}

// NewRecordSink publishes every accepted record under place.
func NewRecordSink(producer *Producer, place string) *RecordSink {
	return &RecordSink{producer: producer, place: place}
}

// Name implements sink.Sink.
func (s *RecordSink) Name() string {
	return "kafka"
}

// Accept implements crawler.Collector.
func (s *RecordSink) Accept(ctx context.Context, rec models.Record) error {
	return s.producer.PublishRecord(ctx, s.place, rec)
}

// Close closes the producer.
func (s *RecordSink) Close() error {
	return s.producer.Close()
}
