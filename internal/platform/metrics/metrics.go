package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reg = prometheus.NewRegistry()

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "urlinfo_lookups_total", Help: "Lookups by outcome"},
		[]string{"outcome"},
	)
	IngestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "urlinfo_ingests_total", Help: "Ingestion attempts by outcome"},
		[]string{"outcome"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
)

var registered atomic.Bool

func Register() {
	if registered.Swap(true) {
		return
	}
	reg.MustRegister(
		LookupsTotal,
		IngestsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler { Register(); return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}) }

func ObserveLookup(outcome string) { LookupsTotal.WithLabelValues(outcome).Inc() }

func ObserveIngest(outcome string) { IngestsTotal.WithLabelValues(outcome).Inc() }

// Recorder feeds engine outcomes into the lookup and ingest counters.
type Recorder struct{}

func (Recorder) ObserveLookup(outcome string) { ObserveLookup(outcome) }

func (Recorder) ObserveIngest(outcome string) { ObserveIngest(outcome) }

// ObserveRequest records one served request. route is the matched pattern, not the raw path.
func ObserveRequest(method, route string, status int, dur time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}
