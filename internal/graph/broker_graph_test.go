package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-scout/internal/graph"
	"broker-scout/internal/logger"
	"broker-scout/internal/models"
	"broker-scout/mocks"
)

// fakeTx records queries; the embedded interface satisfies the rest of
// neo4j.ManagedTransaction.
type fakeTx struct {
	neo4j.ManagedTransaction
	queries []string
	params  []map[string]any
	err     error
}

func (f *fakeTx) Run(_ context.Context, query string, params map[string]any) (neo4j.ResultWithContext, error) {
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	return nil, f.err
}

func newMockedWriter(t *testing.T, tx *fakeTx) *graph.Writer {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	driver := mocks.NewMockDriverSessioner(ctrl)
	session := mocks.NewMockSessionRunner(ctrl)
	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).Return(session)
	session.EXPECT().Close(gomock.Any()).Return(nil)
	session.EXPECT().ExecuteWrite(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, work neo4j.ManagedTransactionWork, _ ...func(*neo4j.TransactionConfig)) (any, error) {
			return work(tx)
		},
	)
	return graph.NewWriter(driver, logger.NewNop())
}

func sampleMessage() models.RecordMessage {
	return models.RecordMessage{
		RunID: "run-1",
		Place: "oregon",
		Record: models.Record{
			URL:        "https://www.ibba.org/broker/jane-doe/",
			Name:       "Jane Doe",
			IsCBI:      models.CBIYes,
			City:       "Portland, Oregon",
			Speciality: "Manufacturing, Distribution",
		},
	}
}

func TestBrokerStatements(t *testing.T) {
	stmts := graph.BrokerStatements(sampleMessage())

	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0].Query, "MERGE (b:Broker {url: $url})")
	assert.Equal(t, true, stmts[0].Params["cbi"])
	assert.Equal(t, "Jane Doe", stmts[0].Params["name"])
	assert.Nil(t, stmts[0].Params["email"])
	assert.Contains(t, stmts[1].Query, "LOCATED_IN")
	assert.Equal(t, "Portland, Oregon", stmts[1].Params["name"])
	assert.Contains(t, stmts[2].Query, "SPECIALIZES_IN")
	assert.Equal(t, "Manufacturing", stmts[2].Params["name"])
	assert.Equal(t, "Distribution", stmts[3].Params["name"])
}

func TestBrokerStatementsWithoutURL(t *testing.T) {
	assert.Empty(t, graph.BrokerStatements(models.RecordMessage{}))
}

func TestSplitSpeciality(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, graph.SplitSpeciality(" A ,, B,"))
	assert.Nil(t, graph.SplitSpeciality(""))
}

func TestWriterRunsAllStatementsInOneTransaction(t *testing.T) {
	tx := &fakeTx{}
	w := newMockedWriter(t, tx)

	require.NoError(t, w.WriteRecord(context.Background(), sampleMessage()))
	assert.Len(t, tx.queries, 4)
	assert.Equal(t, "run-1", tx.params[0]["run_id"])
}

func TestWriterReturnsRunError(t *testing.T) {
	tx := &fakeTx{err: errors.New("constraint violated")}
	w := newMockedWriter(t, tx)

	assert.Error(t, w.WriteRecord(context.Background(), sampleMessage()))
	assert.Len(t, tx.queries, 1)
}

func TestWriterSkipsRecordWithoutURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	driver := mocks.NewMockDriverSessioner(ctrl)

	w := graph.NewWriter(driver, logger.NewNop())
	assert.NoError(t, w.WriteRecord(context.Background(), models.RecordMessage{}))
}
