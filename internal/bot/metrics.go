package bot

import "github.com/prometheus/client_golang/prometheus"

var (
	// updatesTotal counts handled updates by kind (message|command|callback|other).
	updatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tapeat_bot_updates_total",
		Help: "Telegram updates handled, by kind.",
	}, []string{"kind"})

	// updateDuration observes handler latency by update kind.
	updateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tapeat_bot_update_duration_seconds",
		Help:    "Time spent handling one update.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// sendErrors counts failed Bot API calls by operation (send|edit|callback|notify).
	sendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tapeat_bot_send_errors_total",
		Help: "Failed Telegram Bot API calls, by operation.",
	}, []string{"op"})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tapeat_bot_rate_limited_total",
		Help: "Updates dropped by the per-user rate limiter.",
	})

	handlerPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tapeat_bot_handler_panics_total",
		Help: "Panics recovered while handling an update.",
	})
)

func init() {
	prometheus.MustRegister(updatesTotal, updateDuration, sendErrors, rateLimited, handlerPanics)
}
