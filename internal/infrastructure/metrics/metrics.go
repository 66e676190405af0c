package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway metrics
var (
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glot",
			Subsystem: "gateway",
			Name:      "auth_failures_total",
			Help:      "Total rejected request signatures",
		},
		[]string{"reason"},
	)

	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glot",
			Subsystem: "gateway",
			Name:      "proxy_requests_total",
			Help:      "Total proxied requests",
		},
		[]string{"route", "status"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glot",
			Subsystem: "gateway",
			Name:      "upstream_errors_total",
			Help:      "Total upstream transport failures",
		},
		[]string{"route"},
	)

	ModelAccessRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glot",
			Subsystem: "gateway",
			Name:      "model_access_rejections_total",
			Help:      "Total model allow-list and entitlement rejections",
		},
		[]string{"kind"},
	)
)

// RecordAuthFailure increments the auth failure counter for a reason.
func RecordAuthFailure(reason string) {
	AuthFailuresTotal.WithLabelValues(reason).Inc()
}
