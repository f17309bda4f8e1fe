// Package metrics exposes Prometheus counters for the crawl engine. The
// /metrics endpoint serves them via the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts successfully fetched and cleaned pages.
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "pages_fetched_total",
		Help:      "Number of pages fetched and cleaned successfully.",
	})

	// FetchFailures counts failed page fetches, including empty-context pages.
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "fetch_failures_total",
		Help:      "Number of page fetches that failed.",
	})

	// ArticlesCreated counts newly stored articles. Upserts that overwrite
	// an existing row are not counted.
	ArticlesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "articles_created_total",
		Help:      "Number of new articles stored.",
	})

	// URLsQueued counts newly enqueued frontier items.
	URLsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "urls_queued_total",
		Help:      "Number of new URLs added to the crawl queue.",
	})

	// RunsStarted counts crawl runs started by the supervisor.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "runs_started_total",
		Help:      "Number of crawl runs started.",
	})
)
