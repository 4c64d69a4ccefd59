// Package metrics declares the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kingdomkids"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	RewardsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rewards_credited_total",
		Help:      "Lesson completions that credited reward minutes.",
	})

	RewardMinutes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reward_minutes_credited_total",
		Help:      "Reward minutes credited to ledgers.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_events_published_total",
		Help:      "Ledger events published by type and outcome.",
	}, []string{"type", "result"})

	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_created_total",
		Help:      "Parent alerts persisted by kind.",
	}, []string{"kind"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
