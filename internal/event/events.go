package event

import (
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/order"
)

// OrderEvent is implemented by every event variant. There is no polymorphic
// base type: variants compose an Envelope and an order reference, and the
// interface only exposes what dispatch and routing need.
type OrderEvent interface {
	EventKind() Kind
	EventEnvelope() Envelope
	AggregateID() string
}

// IsFailureEvent reports whether e represents a failed lifecycle outcome.
func IsFailureEvent(e OrderEvent) bool { return e.EventKind().Failure() }

// IsSuccessEvent reports whether e represents a successful lifecycle outcome.
func IsSuccessEvent(e OrderEvent) bool { return e.EventKind().Success() }

// Created is emitted when an order enters the system.
type Created struct {
	Envelope
	orderRef
	Order order.Order `json:"order"`
}

func (Created) EventKind() Kind { return KindCreated }

// NewCreated builds a created event carrying the full order snapshot.
func NewCreated(o *order.Order, source, correlationID string) *Created {
	return &Created{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: o.ID},
		Order:    *o,
	}
}

// Confirmed is emitted once payment and inventory checks have passed.
type Confirmed struct {
	Envelope
	orderRef
	Total float64 `json:"total"`
}

func (Confirmed) EventKind() Kind { return KindConfirmed }

func NewConfirmed(o *order.Order, source, correlationID string) *Confirmed {
	return &Confirmed{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: o.ID},
		Total:    o.Total,
	}
}

// Cancelled is emitted when an order is cancelled; it always carries the
// cancellation reason.
type Cancelled struct {
	Envelope
	orderRef
	Reason string `json:"reason"`
}

func (Cancelled) EventKind() Kind { return KindCancelled }

func NewCancelled(o *order.Order, reason, source, correlationID string) *Cancelled {
	return &Cancelled{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: o.ID},
		Reason:   reason,
	}
}

// PaymentProcessed records a successful charge against the order.
type PaymentProcessed struct {
	Envelope
	orderRef
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transaction_id"`
}

func (PaymentProcessed) EventKind() Kind { return KindPaymentProcessed }

func NewPaymentProcessed(o *order.Order, amount float64, method, transactionID, source, correlationID string) *PaymentProcessed {
	return &PaymentProcessed{
		Envelope:      newEnvelope(source, correlationID),
		orderRef:      orderRef{OrderID: o.ID},
		Amount:        amount,
		Method:        method,
		TransactionID: transactionID,
	}
}

// PaymentFailed records a declined or errored charge.
type PaymentFailed struct {
	Envelope
	orderRef
	Reason string `json:"reason"`
}

func (PaymentFailed) EventKind() Kind { return KindPaymentFailed }

func NewPaymentFailed(o *order.Order, reason, source, correlationID string) *PaymentFailed {
	return &PaymentFailed{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: o.ID},
		Reason:   reason,
	}
}

// InventoryReserved records a successful stock reservation.
type InventoryReserved struct {
	Envelope
	orderRef
	ReservationID string `json:"reservation_id"`
}

func (InventoryReserved) EventKind() Kind { return KindInventoryReserved }

func NewInventoryReserved(o *order.Order, reservationID, source, correlationID string) *InventoryReserved {
	return &InventoryReserved{
		Envelope:      newEnvelope(source, correlationID),
		orderRef:      orderRef{OrderID: o.ID},
		ReservationID: reservationID,
	}
}

// InventoryUnavailable records a failed stock reservation.
type InventoryUnavailable struct {
	Envelope
	orderRef
	Reason string `json:"reason"`
}

func (InventoryUnavailable) EventKind() Kind { return KindInventoryUnavailable }

func NewInventoryUnavailable(o *order.Order, reason, source, correlationID string) *InventoryUnavailable {
	return &InventoryUnavailable{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: o.ID},
		Reason:   reason,
	}
}

// Shipped is emitted when the carrier accepts the parcel.
type Shipped struct {
	Envelope
	orderRef
	Carrier           string    `json:"carrier"`
	TrackingNumber    string    `json:"tracking_number"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

func (Shipped) EventKind() Kind { return KindShipped }

func NewShipped(o *order.Order, carrier, trackingNumber string, estimatedDelivery time.Time, source, correlationID string) *Shipped {
	return &Shipped{
		Envelope:          newEnvelope(source, correlationID),
		orderRef:          orderRef{OrderID: o.ID},
		Carrier:           carrier,
		TrackingNumber:    trackingNumber,
		EstimatedDelivery: estimatedDelivery,
	}
}

// Delivered is emitted on confirmed delivery.
type Delivered struct {
	Envelope
	orderRef
	DeliveredAt time.Time `json:"delivered_at"`
}

func (Delivered) EventKind() Kind { return KindDelivered }

func NewDelivered(o *order.Order, deliveredAt time.Time, source, correlationID string) *Delivered {
	return &Delivered{
		Envelope:    newEnvelope(source, correlationID),
		orderRef:    orderRef{OrderID: o.ID},
		DeliveredAt: deliveredAt,
	}
}

// Refunded records money returned to the customer.
type Refunded struct {
	Envelope
	orderRef
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func (Refunded) EventKind() Kind { return KindRefunded }

func NewRefunded(o *order.Order, amount float64, reason, source, correlationID string) *Refunded {
	return &Refunded{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: o.ID},
		Amount:   amount,
		Reason:   reason,
	}
}

// Updated carries both the current and previous order snapshots so consumers
// can diff the transition without a separate status field.
type Updated struct {
	Envelope
	orderRef
	Current  order.Order `json:"current"`
	Previous order.Order `json:"previous"`
}

func (Updated) EventKind() Kind { return KindUpdated }

func NewUpdated(current, previous *order.Order, source, correlationID string) *Updated {
	return &Updated{
		Envelope: newEnvelope(source, correlationID),
		orderRef: orderRef{OrderID: current.ID},
		Current:  *current,
		Previous: *previous,
	}
}
