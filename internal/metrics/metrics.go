package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SuccessfulRequests *prometheus.CounterVec
	BadRequests        *prometheus.CounterVec
	ServerErrors       *prometheus.CounterVec
	PostsCreated       prometheus.Counter
	PostsEdited        prometheus.Counter
	CommentsCreated    prometheus.Counter
	FollowRequests     prometheus.Counter
	UnfollowRequests   prometheus.Counter
	IndexCache         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SuccessfulRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_request",
				Help: "Total number of successful (2xx and 3xx) HTTP requests",
			},
			[]string{"route"},
		),
		BadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unsuccessful_request",
				Help: "Total number of unsuccessful (4xx) HTTP requests",
			},
			[]string{"route"},
		),
		ServerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "server_error",
				Help: "Total number of failed (5xx) HTTP requests",
			},
			[]string{"route"},
		),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "successful_posts",
			Help: "Total number of created posts",
		}),
		PostsEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "successful_post_edits",
			Help: "Total number of edited posts",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "successful_comments",
			Help: "Total number of created comments",
		}),
		FollowRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "successful_follows",
			Help: "Total number of follow edges created",
		}),
		UnfollowRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "successful_unfollows",
			Help: "Total number of follow edges removed",
		}),
		IndexCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_cache_lookups",
				Help: "Index page cache lookups by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SuccessfulRequests,
		m.BadRequests,
		m.ServerErrors,
		m.PostsCreated,
		m.PostsEdited,
		m.CommentsCreated,
		m.FollowRequests,
		m.UnfollowRequests,
		m.IndexCache,
	)
	return m
}

// ObserveStatus counts a finished request under route.
func (m *Metrics) ObserveStatus(route string, status int) {
	switch {
	case status >= 500:
		m.ServerErrors.WithLabelValues(route).Inc()
	case status >= 400:
		m.BadRequests.WithLabelValues(route).Inc()
	default:
		m.SuccessfulRequests.WithLabelValues(route).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
