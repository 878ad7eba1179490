package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrapeConcurrencyLimit caps concurrent /metrics scrapes so a
// misconfigured Prometheus (or a second scraper added during a
// migration) can't pile up goroutines collecting the same
// request/cost/provider-health series this package tracks.
const scrapeConcurrencyLimit = 4

// Handler returns an HTTP handler exposing every registered request,
// cost, provider-health, policy, and cache metric in Prometheus
// exposition format. Mount it at the path named in MetricsConfig
// (typically "/metrics"):
//
//	collector := metrics.NewCollector(cfg, nil)
//	http.Handle("/metrics", collector.Handler())
//	http.ListenAndServe(":8080", nil)
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics:   true,
			Timeout:             5 * time.Second,
			MaxRequestsInFlight: scrapeConcurrencyLimit,
			ErrorHandling:       promhttp.ContinueOnError,
		},
	)
}

// HandlerWithOptions returns an HTTP handler with custom options.
//
// This allows for more control over the handler behavior, such as:
//   - Setting a timeout for metric collection
//   - Limiting concurrent scrape requests
//   - Custom error handling
//
// Example:
//
//	handler := collector.HandlerWithOptions(promhttp.HandlerOpts{
//		Timeout: 10 * time.Second,
//		MaxRequestsInFlight: 5,
//		ErrorHandling: promhttp.HTTPErrorOnError,
//	})
//	http.Handle("/metrics", handler)
func (c *Collector) HandlerWithOptions(opts promhttp.HandlerOpts) http.Handler {
	return promhttp.HandlerFor(c.registry, opts)
}
