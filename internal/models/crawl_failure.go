package models

import "time"

// CrawlFailure captures a profile that could not be visited, for the dead-letter hook.
type CrawlFailure struct {
	RunID      string    `json:"run_id"`
	Place      string    `json:"place"`
	URL        string    `json:"url"`
	BrokerName string    `json:"broker_name,omitempty"`
	Position   int       `json:"position"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}
