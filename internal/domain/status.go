package domain

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusRejected  OrderStatus = "rejected"
	StatusDelivered OrderStatus = "delivered"
)

// ParseStatus maps an admin action verb or a status name onto an
// OrderStatus. Unknown input returns false.
func ParseStatus(s string) (OrderStatus, bool) {
	switch s {
	case "accept", string(StatusAccepted):
		return StatusAccepted, true
	case "reject", string(StatusRejected):
		return StatusRejected, true
	case "deliver", string(StatusDelivered):
		return StatusDelivered, true
	case string(StatusPending):
		return StatusPending, true
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusRejected || s == StatusDelivered
}

// CanTransition reports whether an order may move from s to next.
// Allowed: pending→accepted, pending→rejected, accepted→delivered.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusDelivered
	}
	return false
}

// Label is the short human form used in listings.
func (s OrderStatus) Label() string {
	switch s {
	case StatusPending:
		return "⏳ Pending"
	case StatusAccepted:
		return "👨‍🍳 Preparing"
	case StatusRejected:
		return "❌ Rejected"
	case StatusDelivered:
		return "✅ Delivered"
	}
	return string(s)
}
