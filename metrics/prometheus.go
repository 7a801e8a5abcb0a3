package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	wbRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wb_api_requests_total",
			Help: "Total number of requests issued to the Wildberries API.",
		},
		[]string{"family", "status"},
	)

	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of finished sync jobs.",
		},
		[]string{"sync_type", "result"},
	)
	syncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync jobs.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"sync_type"},
	)
)

// RecordRequest записывает метрики для HTTP-запроса.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordWBRequest записывает один вызов WB API по семейству эндпоинтов.
func RecordWBRequest(family, status string) {
	wbRequestsTotal.WithLabelValues(family, status).Inc()
}

// ObserveSyncRun записывает результат и длительность задания синхронизации.
func ObserveSyncRun(syncType string, ok bool, duration time.Duration) {
	result := "success"
	if !ok {
		result = "failed"
	}
	syncRunsTotal.WithLabelValues(syncType, result).Inc()
	syncDuration.WithLabelValues(syncType).Observe(duration.Seconds())
}

// classifyStatus классифицирует HTTP-статус код в строку.
func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
