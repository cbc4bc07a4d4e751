package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-scout/internal/logger"
	"broker-scout/internal/models"
	"broker-scout/mocks"
)

type fakeWriter struct {
	written []models.RecordMessage
	err     error
}

func (f *fakeWriter) WriteRecord(_ context.Context, msg models.RecordMessage) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msg)
	return nil
}

func recordPayload(t *testing.T, url string) []byte {
	t.Helper()
	payload, err := json.Marshal(models.RecordMessage{RunID: "r1", Place: "oregon", Record: models.Record{URL: url, Name: "Jane Doe"}})
	require.NoError(t, err)
	return payload
}

func TestConsumeRecordsCommitsOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	reader := mocks.NewMockMessageReader(ctrl)
	writer := &fakeWriter{}
	m := newConsumerMetrics(prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gomock.InOrder(
		reader.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{Value: recordPayload(t, "https://www.ibba.org/broker/a/")}, nil),
		reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, ...kafka.Message) error {
				cancel()
				return nil
			},
		),
		reader.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, context.Canceled),
	)

	consumeRecords(ctx, reader, writer, m, logger.NewNop())

	require.Len(t, writer.written, 1)
	assert.Equal(t, "oregon", writer.written[0].Place)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.written))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.received))
}

func TestConsumeRecordsSkipsCommitOnWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	reader := mocks.NewMockMessageReader(ctrl)
	writer := &fakeWriter{err: errors.New("neo4j unavailable")}
	m := newConsumerMetrics(prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gomock.InOrder(
		reader.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{Value: recordPayload(t, "u")}, nil),
		reader.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(func(context.Context) (kafka.Message, error) {
			cancel()
			return kafka.Message{}, context.Canceled
		}),
	)
	reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Times(0)

	consumeRecords(ctx, reader, writer, m, logger.NewNop())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.written))
}

func TestConsumeRecordsCommitsUndecodableMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	reader := mocks.NewMockMessageReader(ctrl)
	writer := &fakeWriter{}
	m := newConsumerMetrics(prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gomock.InOrder(
		reader.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{Value: []byte("{broken")}, nil),
		reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, ...kafka.Message) error {
				cancel()
				return nil
			},
		),
		reader.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, context.Canceled),
	)

	consumeRecords(ctx, reader, writer, m, logger.NewNop())

	assert.Empty(t, writer.written)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed))
}
