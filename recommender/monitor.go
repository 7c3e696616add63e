package recommender

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求结果状态
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded" // 画像含目录中未出现的取值
	StatusError    = "error"
)

// Monitor 记录推荐请求的运行指标。实现需并发安全。
type Monitor interface {
	// ObserveRequest 记录一次请求的状态、耗时与返回条数
	ObserveRequest(status string, d time.Duration, results int)

	// RecordUnknown 记录画像中某属性给出了未知取值
	RecordUnknown(attribute string)

	// RecordCache 记录缓存命中/未命中
	RecordCache(hit bool)
}

type nopMonitor struct{}

func (nopMonitor) ObserveRequest(string, time.Duration, int) {}
func (nopMonitor) RecordUnknown(string)                      {}
func (nopMonitor) RecordCache(bool)                          {}

// PrometheusMonitor 是基于 Prometheus 的 Monitor。
type PrometheusMonitor struct {
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
	unknown  *prometheus.CounterVec
	results  prometheus.Histogram
	cache    *prometheus.CounterVec
}

// NewPrometheusMonitor 在 reg 上注册指标；reg 为 nil 时使用 prometheus.DefaultRegisterer。
// 同一 registerer 重复注册会 panic。
func NewPrometheusMonitor(reg prometheus.Registerer) *PrometheusMonitor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusMonitor{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servicerec_requests_total",
				Help: "Total number of recommendation requests by status",
			},
			[]string{"status"},
		),
		latency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "servicerec_request_duration_seconds",
				Help:    "Duration of recommendation requests in seconds",
				Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		unknown: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servicerec_unknown_values_total",
				Help: "Profile values not present in the fitted vocabulary, by attribute",
			},
			[]string{"attribute"},
		),
		results: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "servicerec_results",
				Help:    "Number of recommendations returned per request",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
			},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servicerec_cache_total",
				Help: "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
	}
}

func (m *PrometheusMonitor) ObserveRequest(status string, d time.Duration, results int) {
	m.requests.WithLabelValues(status).Inc()
	m.latency.Observe(d.Seconds())
	if status != StatusError {
		m.results.Observe(float64(results))
	}
}

func (m *PrometheusMonitor) RecordUnknown(attribute string) {
	m.unknown.WithLabelValues(attribute).Inc()
}

func (m *PrometheusMonitor) RecordCache(hit bool) {
	if hit {
		m.cache.WithLabelValues("hit").Inc()
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}
