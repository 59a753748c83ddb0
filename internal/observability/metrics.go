package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight",
		Help: "In-flight HTTP requests",
	})
	RequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Total errors by type",
		}, []string{"type"},
	)

	BannerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banner_events_total",
			Help: "Recorded banner usage events",
		}, []string{"event"},
	)
	EvaluationsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "banner_evaluations_skipped_total",
		Help: "Banners left out of a selection because their rules could not be evaluated",
	})
	SelectionSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "banner_selection_size",
		Help:    "Number of banners returned per page request",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, RequestErrors,
		BannerEvents, EvaluationsSkipped, SelectionSize)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
