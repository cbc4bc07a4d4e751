package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldSpecsCoverElevenKeys(t *testing.T) {
	specs := FieldSpecs()
	require.Len(t, specs, 11)
	assert.Equal(t, FieldURL, specs[0].Key)
	assert.Equal(t, "Broker Speciality", specs[10].Label)

	specs[0].Label = "mutated"
	assert.Equal(t, "Broker URL", FieldSpecs()[0].Label)
}

func TestRecordValueCoversEveryKey(t *testing.T) {
	rec := Record{URL: "https://example.com/broker/a"}
	for _, spec := range FieldSpecs() {
		_, ok := rec.Value(spec.Key)
		assert.True(t, ok, "missing key %s", spec.Key)
	}
	v, _ := rec.Value(FieldURL)
	assert.Equal(t, "https://example.com/broker/a", v)
}

func TestRecordJSONKeepsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(Record{Name: "Jane"})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 11)
	assert.Equal(t, "Jane", decoded["name"])
}

func TestRecordValueUnknownKey(t *testing.T) {
	_, ok := Record{}.Value("fax")
	assert.False(t, ok)
}

func TestLabeledFollowsSchemaOrder(t *testing.T) {
	labeled := Record{Name: "Jane", IsCBI: CBIYes}.Labeled()
	require.Len(t, labeled, 11)
	assert.Equal(t, LabeledValue{Label: "Broker Name", Value: "Jane"}, labeled[2])
	assert.Equal(t, LabeledValue{Label: "Broker is CBI", Value: "Yes"}, labeled[3])
}

func TestWorkQueueFIFO(t *testing.T) {
	q := NewWorkQueue([]ProfileJob{{URL: "a"}, {URL: "b"}})
	assert.Equal(t, 2, q.Size())

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", first.URL)
	assert.Equal(t, 1, q.Remaining())

	second, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", second.URL)

	_, ok = q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, 2, q.Size())
	assert.Equal(t, 0, q.Remaining())
}

func TestNewRecordMessage(t *testing.T) {
	raw, err := NewRecordMessage("run-1", "oregon", Record{URL: "u"})
	require.NoError(t, err)

	var msg RecordMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, "u", msg.Record.URL)
	assert.False(t, msg.EmittedAt.IsZero())
}
