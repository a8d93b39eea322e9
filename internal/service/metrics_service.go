package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the generation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	genDuration     prometheus.Histogram
	genSlots        prometheus.Histogram
	genShortfalls   prometheus.Counter
	genRuns         prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	genDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of committed timetable generation runs",
		Buckets: prometheus.DefBuckets,
	})

	genSlots := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_slots_created",
		Help:    "Slots created per committed generation run",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800},
	})

	genShortfalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_shortfalls_total",
		Help: "Assignments that missed their weekly session target",
	})

	genRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Committed timetable generation runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, genDuration, genSlots, genShortfalls, genRuns, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		genDuration:     genDuration,
		genSlots:        genSlots,
		genShortfalls:   genShortfalls,
		genRuns:         genRuns,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records per-request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records one committed generation run.
func (m *MetricsService) ObserveGeneration(duration time.Duration, slotsCreated, shortfalls int) {
	if m == nil {
		return
	}
	m.genRuns.Inc()
	m.genDuration.Observe(duration.Seconds())
	m.genSlots.Observe(float64(slotsCreated))
	m.genShortfalls.Add(float64(shortfalls))
}
