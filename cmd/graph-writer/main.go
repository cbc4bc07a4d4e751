package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"broker-scout/common"
	"broker-scout/internal/crawler"
	"broker-scout/internal/graph"
	"broker-scout/internal/logger"
	"broker-scout/internal/metrics"
	"broker-scout/internal/models"
)

// recordWriter applies one decoded record message to the graph.
type recordWriter interface {
	WriteRecord(ctx context.Context, msg models.RecordMessage) error
}

// consumerMetrics counts records fetched from Kafka and their Neo4j outcome.
type consumerMetrics struct {
	received prometheus.Counter
	written  prometheus.Counter
	failed   prometheus.Counter
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "broker_scout",
			Subsystem: "graph_writer",
			Name:      name,
			Help:      help,
		})
	}
	return &consumerMetrics{
		received: counter("records_received_total", "Record messages fetched from Kafka."),
		written:  counter("records_written_total", "Record messages written to Neo4j."),
		failed:   counter("records_failed_total", "Record messages that could not be decoded or written."),
	}
}

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topic := common.GetEnv("KAFKA_RECORDS_TOPIC", "broker-scout.records")
	group := common.GetEnv("KAFKA_RECORDS_GROUP", "broker-scout-graph")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9091")

	neo4jURI := common.GetEnv("NEO4J_URI", "neo4j://localhost:7687")
	neo4jUser := common.GetEnv("NEO4J_USER", "neo4j")
	neo4jPassword := common.GetEnv("NEO4J_PASSWORD", "neo4j")

	log, err := logger.New(logger.Config{Level: common.GetEnv("LOG_LEVEL", "info")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	driver, err := graph.NewDriver(neo4jURI, neo4jUser, neo4jPassword)
	if err != nil {
		log.Error("neo4j driver error", logger.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := driver.Close(context.Background()); err != nil {
			log.Warn("neo4j close error", logger.Err(err))
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: group,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Warn("records reader close error", logger.Err(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := newConsumerMetrics(reg)
	if metricsAddr != "" {
		metrics.Serve(ctx, metricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log)
	}

	log.Info("graph writer consuming", logger.String("topic", topic), logger.String("group", group))
	consumeRecords(ctx, reader, graph.NewWriter(driver, log), m, log)
}

// consumeRecords commits a message only after it was written. Undecodable
// messages are committed and dropped; write failures are left uncommitted.
func consumeRecords(ctx context.Context, reader crawler.MessageReader, writer recordWriter, m *consumerMetrics, log logger.Logger) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("records fetch error", logger.Err(err))
			time.Sleep(500 * time.Millisecond)
			continue
		}
		m.received.Inc()

		var rec models.RecordMessage
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			m.failed.Inc()
			log.Error("undecodable record message", logger.Int("partition", msg.Partition), logger.Err(err))
			commit(ctx, reader, msg, log)
			continue
		}

		if err := writer.WriteRecord(ctx, rec); err != nil {
			m.failed.Inc()
			log.Error("records write error", logger.String("url", rec.Record.URL), logger.Err(err))
			continue
		}
		m.written.Inc()
		commit(ctx, reader, msg, log)
	}
}

func commit(ctx context.Context, reader crawler.MessageReader, msg kafka.Message, log logger.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Warn("records commit error", logger.Err(err))
	}
}
