// Package order holds the order snapshot consumed by the dispatch engine
// and the transformation pipeline. Orders are owned by an upstream service;
// this module only reads them.
package order

import "time"

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// Priority is the fulfillment priority assigned upstream.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Address is the shipping destination for an order.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Order is an immutable snapshot of one order at a point in its lifecycle.
type Order struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Total         float64   `json:"total"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	PaymentMethod string    `json:"payment_method"`
	Shipping      Address   `json:"shipping"`
	CreatedAt     time.Time `json:"created_at"`
}

// HighValueThreshold is the total above which an order is considered
// high-value. Shared by the priority bucket derivation and the high-value
// notification gate so the two can never disagree.
const HighValueThreshold = 1000.0

// PriorityBucket is the routing bucket derived from the order total.
type PriorityBucket string

const (
	BucketHigh   PriorityBucket = "HIGH"
	BucketMedium PriorityBucket = "MEDIUM"
	BucketLow    PriorityBucket = "LOW"
)

// Bucket returns the routing priority bucket for the order total.
// Comparisons are strict: a total of exactly 100 is LOW.
func (o *Order) Bucket() PriorityBucket {
	switch {
	case o.Total > HighValueThreshold:
		return BucketHigh
	case o.Total > 100:
		return BucketMedium
	default:
		return BucketLow
	}
}

// HighValue reports whether the order total exceeds the high-value threshold.
func (o *Order) HighValue() bool {
	return o.Total > HighValueThreshold
}
