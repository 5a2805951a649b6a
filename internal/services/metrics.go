package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// ordersPlaced counts confirmed orders.
	ordersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tapeat_orders_placed_total",
		Help: "Total number of confirmed orders.",
	})

	// orderCodeCollisions counts order-code retries caused by a unique violation.
	orderCodeCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tapeat_order_code_collisions_total",
		Help: "Order code collisions retried on insert.",
	})

	// statusChanges counts admin status transitions by target status.
	statusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tapeat_order_status_changes_total",
		Help: "Order status transitions applied by the administrator.",
	}, []string{"status"})

	// intakeSteps counts intake answers by step and outcome (accepted|invalid).
	intakeSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tapeat_intake_steps_total",
		Help: "Intake form answers by step and outcome.",
	}, []string{"step", "outcome"})

	// notificationsTotal counts notification attempts by audience and result.
	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tapeat_notifications_total",
		Help: "Notification deliveries by audience and result.",
	}, []string{"audience", "result"})
)

func init() {
	prometheus.MustRegister(ordersPlaced, orderCodeCollisions, statusChanges, intakeSteps, notificationsTotal)
}
