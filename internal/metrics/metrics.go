// Package metrics exposes Prometheus collectors for the permit crawler. The
// crawler runs as a batch job, so values are exported through a node-exporter
// textfile instead of a scrape endpoint.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsTotal            *prometheus.CounterVec
	listingPagesTotal       prometheus.Counter
	entriesDiscoveredTotal  prometheus.Counter
	navigationFailuresTotal *prometheus.CounterVec
	detailFetchSeconds      prometheus.Histogram
	pacingDelaySeconds      prometheus.Histogram
	lastRunTimestamp        prometheus.Gauge
	lastRunDurationSeconds  prometheus.Gauge

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permits_records_total",
				Help: "Records handled, labeled by outcome (written, duplicate, failed).",
			},
			[]string{"outcome"},
		)

		listingPagesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "permits_listing_pages_total",
				Help: "Listing loads, the initial page included.",
			},
		)

		entriesDiscoveredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "permits_entries_discovered_total",
				Help: "Distinct listing entries discovered.",
			},
		)

		navigationFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permits_navigation_failures_total",
				Help: "Pages that failed to load, labeled by stage and site.",
			},
			[]string{"stage", "site"},
		)

		detailFetchSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "permits_detail_fetch_seconds",
				Help:    "Histogram of detail page load durations, retries included.",
				Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30},
			},
		)

		pacingDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "permits_pacing_delay_seconds",
				Help:    "Time spent waiting before a detail page load to respect the pacing interval.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2},
			},
		)

		lastRunTimestamp = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "permits_last_run_timestamp_seconds",
				Help: "Unix time the last run finished.",
			},
		)

		lastRunDurationSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "permits_last_run_duration_seconds",
				Help: "Wall-clock duration of the last run.",
			},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveRecord counts one record outcome.
func ObserveRecord(outcome string) {
	recordsTotal.WithLabelValues(outcome).Inc()
}

// ObserveListingPages adds listing loads.
func ObserveListingPages(n int) {
	if n > 0 {
		listingPagesTotal.Add(float64(n))
	}
}

// ObserveDiscovered adds discovered entries.
func ObserveDiscovered(n int) {
	if n > 0 {
		entriesDiscoveredTotal.Add(float64(n))
	}
}

// ObserveNavigationFailure counts a page that failed to load.
func ObserveNavigationFailure(stage, rawURL string) {
	navigationFailuresTotal.WithLabelValues(stage, SanitizeSite(rawURL)).Inc()
}

// ObserveDetailFetch records how long a detail page took to load.
func ObserveDetailFetch(d time.Duration) {
	detailFetchSeconds.Observe(d.Seconds())
}

// ObservePacingDelay records a wait imposed by detail pacing.
func ObservePacingDelay(d time.Duration) {
	if d > time.Millisecond {
		pacingDelaySeconds.Observe(d.Seconds())
	}
}

// ObserveRun records the end of a run.
func ObserveRun(finished time.Time, duration time.Duration) {
	lastRunTimestamp.Set(float64(finished.Unix()))
	lastRunDurationSeconds.Set(duration.Seconds())
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
