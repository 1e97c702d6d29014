package reporting

import "time"

// CampaignReport represents a complete campaign execution report:
// the Worker Pool Aggregator's final summed output plus per-worker
// detail for diagnostics.
type CampaignReport struct {
	CampaignID string    `json:"campaign_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   string    `json:"duration"`

	Status  CampaignStatus `json:"status"`
	Message string         `json:"message,omitempty"`

	TotalRPS float64 `json:"total_rps"`
	Elapsed  string  `json:"elapsed"`
	Failed   int64   `json:"failed"`
	TimedOut int64   `json:"timed_out"`

	Workers []WorkerReport `json:"workers"`

	Errors []string `json:"errors,omitempty"`
}

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	StatusRunning   CampaignStatus = "running"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
	StatusStopped   CampaignStatus = "stopped"
)

// WorkerReport is one worker engine's outcome within a campaign.
type WorkerReport struct {
	Index    int     `json:"index"`
	RPS      float64 `json:"rps"`
	Elapsed  string  `json:"elapsed"`
	Failed   int64   `json:"failed"`
	TimedOut int64   `json:"timed_out"`
	Error    string  `json:"error,omitempty"`
}

// LiveCampaignState represents the current state of a running
// campaign, sampled for progress reporting.
type LiveCampaignState struct {
	CampaignID string        `json:"campaign_id"`
	State      string        `json:"state"`
	StartTime  time.Time     `json:"start_time"`
	Elapsed    time.Duration `json:"elapsed"`

	WorkersActive int     `json:"workers_active"`
	CurrentRPS    float64 `json:"current_rps"`
	Failed        int64   `json:"failed"`
	TimedOut      int64   `json:"timed_out"`
}
