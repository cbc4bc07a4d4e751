package models

import (
	"encoding/json"
	"time"
)

// RecordMessage is the payload written to the records topic.
type RecordMessage struct {
	RunID     string    `json:"run_id"`
	Place     string    `json:"place"`
	Record    Record    `json:"record"`
	EmittedAt time.Time `json:"emitted_at"`
}

// NewRecordMessage marshals a record for publishing.
func NewRecordMessage(runID, place string, record Record) ([]byte, error) {
	return json.Marshal(RecordMessage{
		RunID:     runID,
		Place:     place,
		Record:    record,
		EmittedAt: time.Now().UTC(),
	})
}
