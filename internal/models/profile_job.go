package models

// ProfileJob is one entry of the work queue built from a listing page.
type ProfileJob struct {
	Place      string `json:"place"`
	URL        string `json:"url"`
	BrokerName string `json:"broker_name,omitempty"`
	Position   int    `json:"position"`
}
