package domain

import "time"

// CrawlSeed is a root URL crawling starts from. A seed participates in a run
// iff it is active and either has no config binding or is bound to the
// current config. A seed whose queue item fails its first fetch is
// deactivated by the engine.
type CrawlSeed struct {
	ID            string     `db:"id"              json:"id"`
	URL           string     `db:"url"             json:"url"`
	ConfigID      *string    `db:"config_id"       json:"config_id,omitempty"`
	IsActive      bool       `db:"is_active"       json:"is_active"`
	LastFetchedAt *time.Time `db:"last_fetched_at" json:"last_fetched_at,omitempty"`
	LastError     string     `db:"last_error"      json:"last_error"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"      json:"updated_at"`
}
