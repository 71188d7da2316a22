package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总 API 服务器导出的 Prometheus 指标。
// 使用独立的 Registry，测试中可以多次创建而不会重复注册。
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Registrations   prometheus.Counter
	PostsCreated    prometheus.Counter
	CommentsCreated *prometheus.CounterVec
	LikesToggled    *prometheus.CounterVec
	FriendRequests  *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		Registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Number of accounts registered",
			},
		),
		PostsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_created_total",
				Help:      "Number of posts created",
			},
		),
		CommentsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comments_created_total",
				Help:      "Number of comments and replies created",
			},
			[]string{"kind"},
		),
		LikesToggled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "likes_toggled_total",
				Help:      "Number of like toggles by target kind",
			},
			[]string{"target"},
		),
		FriendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "friend_requests_total",
				Help:      "Friend requests sent and answered, by status",
			},
			[]string{"status"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Registrations,
		m.PostsCreated,
		m.CommentsCreated,
		m.LikesToggled,
		m.FriendRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) IncRegistration() {
	if m != nil {
		m.Registrations.Inc()
	}
}

func (m *Metrics) IncPost() {
	if m != nil {
		m.PostsCreated.Inc()
	}
}

func (m *Metrics) IncComment(kind string) {
	if m != nil {
		m.CommentsCreated.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncLike(target string) {
	if m != nil {
		m.LikesToggled.WithLabelValues(target).Inc()
	}
}

func (m *Metrics) IncFriendRequest(status string) {
	if m != nil {
		m.FriendRequests.WithLabelValues(status).Inc()
	}
}
