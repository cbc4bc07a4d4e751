package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"broker-scout/common"
)

// partitionReader is the part of *kafka.Conn the check needs.
type partitionReader interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
}

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topics := []string{
		common.GetEnv("KAFKA_RECORDS_TOPIC", "broker-scout.records"),
		common.GetEnv("KAFKA_DLQ_TOPIC", "broker-scout.dlq"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Kafka at %s: %v\n", broker, err)
		os.Exit(1)
	}
	defer conn.Close()

	counts, err := topicPartitions(conn, topics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read metadata: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("connected to Kafka at %s\n", broker)
	missing := false
	for _, topic := range topics {
		n := counts[topic]
		if n == 0 {
			missing = true
			fmt.Printf("  %s: missing\n", topic)
			continue
		}
		fmt.Printf("  %s: %d partitions\n", topic, n)
	}
	if missing {
		os.Exit(1)
	}
}

// topicPartitions counts partitions per wanted topic; absent topics map to 0.
func topicPartitions(conn partitionReader, topics []string) (map[string]int, error) {
	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(topics))
	for _, topic := range topics {
		counts[topic] = 0
	}
	for _, p := range partitions {
		if _, ok := counts[p.Topic]; ok {
			counts[p.Topic]++
		}
	}
	return counts, nil
}
