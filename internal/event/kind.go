package event

// Kind discriminates the eleven order event variants.
type Kind string

const (
	KindCreated              Kind = "order.created"
	KindConfirmed            Kind = "order.confirmed"
	KindCancelled            Kind = "order.cancelled"
	KindPaymentProcessed     Kind = "payment.processed"
	KindPaymentFailed        Kind = "payment.failed"
	KindInventoryReserved    Kind = "inventory.reserved"
	KindInventoryUnavailable Kind = "inventory.unavailable"
	KindShipped              Kind = "order.shipped"
	KindDelivered            Kind = "order.delivered"
	KindRefunded             Kind = "order.refunded"
	KindUpdated              Kind = "order.updated"
)

// descriptions maps each kind to its human-readable description.
var descriptions = map[Kind]string{
	KindCreated:              "Order has been created",
	KindConfirmed:            "Order has been confirmed",
	KindCancelled:            "Order has been cancelled",
	KindPaymentProcessed:     "Payment has been processed successfully",
	KindPaymentFailed:        "Payment processing has failed",
	KindInventoryReserved:    "Inventory has been reserved",
	KindInventoryUnavailable: "Requested inventory is unavailable",
	KindShipped:              "Order has been shipped",
	KindDelivered:            "Order has been delivered",
	KindRefunded:             "Order has been refunded",
	KindUpdated:              "Order has been updated",
}

// Description returns the fixed human-readable description for the kind.
func (k Kind) Description() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return "Unknown order event"
}

// Failure reports whether the kind represents a failed lifecycle outcome.
// The classification is derived from the tag alone so it can never drift.
func (k Kind) Failure() bool {
	switch k {
	case KindPaymentFailed, KindCancelled, KindInventoryUnavailable:
		return true
	}
	return false
}

// Success is the complement of Failure.
func (k Kind) Success() bool { return !k.Failure() }
