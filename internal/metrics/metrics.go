package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wirechat_connections_active",
			Help: "Open websocket connections",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_connections_total",
			Help: "Total websocket connections accepted",
		},
	)

	// Chat metrics
	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_messages_relayed_total",
			Help: "Total chat messages relayed to rooms",
		},
		[]string{"room_type"}, // "public" or "private"
	)

	PrivateInvites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_private_invites_total",
			Help: "Total private chat invitations delivered",
		},
	)

	CommandErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_command_errors_total",
			Help: "Commands rejected by the hub",
		},
		[]string{"code"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_events_dropped_total",
			Help: "Events dropped because a client was too slow",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_rate_limit_hits_total",
			Help: "Inbound frames rejected by the per-connection rate limit",
		},
	)
)

// RoomType labels a room for the room_type metric label.
func RoomType(private bool) string {
	if private {
		return "private"
	}
	return "public"
}
