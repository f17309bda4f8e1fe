package domain

import "time"

// Article is a stored news item, deduplicated by URL. The engine upserts by
// URL: the latest crawl of the same page overwrites the previous row.
type Article struct {
	ID          string    `db:"id"           json:"id"`
	URL         string    `db:"url"          json:"url"`
	Source      string    `db:"source"       json:"source"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	FetchedAt   time.Time `db:"fetched_at"   json:"fetched_at"`
	Title       string    `db:"title"        json:"title"`
	Body        string    `db:"body"         json:"body"`
	Language    string    `db:"language"     json:"language"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}
