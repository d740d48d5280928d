package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maqsadm_api_requests_total",
			Help: "Total API requests by method and status",
		},
		[]string{"method", "status"},
	)
	aiRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maqsadm_ai_rate_limited_total",
			Help: "Total AI requests blocked by the rate limiter",
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(apiRequests)
	prometheus.MustRegister(aiRateLimited)
}
