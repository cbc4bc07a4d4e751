package models

import "time"

// RunState is the crawl loop state.
type RunState string

const (
	RunStateDiscovering RunState = "discovering"
	RunStateExtracting  RunState = "extracting"
	RunStateDone        RunState = "done"
	RunStateAborted     RunState = "aborted"
)

// CrawlStatus tracks a crawl run for one place.
type CrawlStatus struct {
	RunID      string    `json:"run_id"`
	Place      string    `json:"place"`
	State      RunState  `json:"state"`
	Advertised int       `json:"advertised"`
	Emitted    int       `json:"emitted"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunSummary is returned once the crawl loop terminates.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Place      string    `json:"place"`
	Advertised int       `json:"advertised"`
	Emitted    int       `json:"emitted"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
