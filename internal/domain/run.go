package domain

import "time"

// Run status constants. At most one run is in the running state per process.
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// CrawlRun records one execution of the crawl engine. EndedAt is set iff the
// run finished (done or failed).
type CrawlRun struct {
	ID              string     `db:"id"               json:"id"`
	Status          string     `db:"status"           json:"status"`
	Objective       string     `db:"objective"        json:"objective"`
	UseLLMFiltering bool       `db:"use_llm_filtering" json:"use_llm_filtering"`
	StartedAt       time.Time  `db:"started_at"       json:"started_at"`
	EndedAt         *time.Time `db:"ended_at"         json:"ended_at,omitempty"`
	PagesProcessed  int        `db:"pages_processed"  json:"pages_processed"`
	ArticlesCreated int        `db:"articles_created" json:"articles_created"`
	QueuedURLs      int        `db:"queued_urls"      json:"queued_urls"`
	LastError       string     `db:"last_error"       json:"last_error"`
}
