package domain

import "time"

// Queue item status constants.
const (
	QueueStatusPending    = "pending"
	QueueStatusInProgress = "in_progress"
	QueueStatusDone       = "done"
	QueueStatusFailed     = "failed"
)

// CrawlQueueItem is one URL in the persistent frontier. URL is unique across
// the table. SeedURL is retained even after the seed row is deleted so
// per-seed claims keep working for orphaned items.
type CrawlQueueItem struct {
	ID            string     `db:"id"              json:"id"`
	URL           string     `db:"url"             json:"url"`
	SeedID        *string    `db:"seed_id"         json:"seed_id,omitempty"`
	SeedURL       string     `db:"seed_url"        json:"seed_url"`
	Depth         int        `db:"depth"           json:"depth"`
	Status        string     `db:"status"          json:"status"`
	DiscoveredAt  time.Time  `db:"discovered_at"   json:"discovered_at"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	Attempts      int        `db:"attempts"        json:"attempts"`
	LastError     string     `db:"last_error"      json:"last_error"`
}

// QueueCounts holds per-status totals for the frontier.
type QueueCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
}
