package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	scrapePagesTotal   *prometheus.CounterVec
	scrapeRetriesTotal *prometheus.CounterVec
	parseFailuresTotal *prometheus.CounterVec
	mutationsTotal     *prometheus.CounterVec
	cacheReadsTotal    *prometheus.CounterVec
	refreshRunsTotal   *prometheus.CounterVec
	aiCallsTotal       *prometheus.CounterVec
	eventClientsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API,
// the scrape orchestrator, and the background refresher.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		scrapePagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrape_pages_total",
			Help: "Total number of LMS pages fetched, by page kind and outcome.",
		}, []string{"kind", "outcome"})

		scrapeRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrape_retries_total",
			Help: "Total number of scrape retries after network failures.",
		}, []string{"kind"})

		parseFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parse_failures_total",
			Help: "Total number of pages whose markup could not be parsed.",
		}, []string{"kind"})

		mutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_mutations_total",
			Help: "Total number of LMS mutation calls, by operation and outcome.",
		}, []string{"op", "outcome"})

		cacheReadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_reads_total",
			Help: "Total number of disk cache reads, by outcome.",
		}, []string{"outcome"})

		refreshRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refresh_runs_total",
			Help: "Total number of background refresh runs, by outcome.",
		}, []string{"outcome"})

		aiCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Total number of rubric/grading model calls, by operation and outcome.",
		}, []string{"op", "outcome"})

		eventClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "event_clients_active",
			Help: "Number of clients currently subscribed to refresh events.",
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			scrapePagesTotal, scrapeRetriesTotal, parseFailuresTotal,
			mutationsTotal, cacheReadsTotal, refreshRunsTotal, aiCallsTotal,
			eventClientsActive,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ScrapePages exposes the counter for fetched LMS pages.
func ScrapePages() *prometheus.CounterVec {
	RegisterMetrics()
	return scrapePagesTotal
}

// ScrapeRetries exposes the counter for scrape retries.
func ScrapeRetries() *prometheus.CounterVec {
	RegisterMetrics()
	return scrapeRetriesTotal
}

// ParseFailures exposes the counter for unparseable pages.
func ParseFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return parseFailuresTotal
}

// Mutations exposes the counter for LMS mutation calls.
func Mutations() *prometheus.CounterVec {
	RegisterMetrics()
	return mutationsTotal
}

// CacheReads exposes the counter for disk cache reads.
func CacheReads() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheReadsTotal
}

// RefreshRuns exposes the counter for background refresh runs.
func RefreshRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return refreshRunsTotal
}

// AICalls exposes the counter for model-backed rubric operations.
func AICalls() *prometheus.CounterVec {
	RegisterMetrics()
	return aiCallsTotal
}

// EventClients exposes the gauge for active refresh-event subscribers.
func EventClients() prometheus.Gauge {
	RegisterMetrics()
	return eventClientsActive
}
