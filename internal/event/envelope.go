// Package event defines the order lifecycle event model: a shared envelope
// plus one concrete variant per event kind. Variants are immutable after
// construction and carry only the fields meaningful to their kind.
package event

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every envelope at construction.
const SchemaVersion = "1.0"

// AggregateUnknown is the aggregate id used when no order is attached.
const AggregateUnknown = "unknown"

// Envelope is the metadata common to every event. It is composed into each
// variant, not inherited from.
type Envelope struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Version       string    `json:"version"`
	Metadata      string    `json:"metadata,omitempty"`
}

// newEnvelope stamps a fresh envelope with a unique id and the current time.
func newEnvelope(source, correlationID string) Envelope {
	return Envelope{
		EventID:       uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		Source:        source,
		CorrelationID: correlationID,
		Version:       SchemaVersion,
	}
}

// EventEnvelope returns the shared envelope. Promoted onto every variant.
func (e Envelope) EventEnvelope() Envelope { return e }

// Valid reports whether the envelope satisfies the envelope invariant:
// id, timestamp, source, and version all non-empty.
func (e Envelope) Valid() bool {
	return e.EventID != "" && !e.Timestamp.IsZero() && e.Source != "" && e.Version != ""
}

// orderRef ties a variant to its originating order.
type orderRef struct {
	OrderID string `json:"order_id,omitempty"`
}

// AggregateID returns the associated order id, or AggregateUnknown when the
// variant carries no order.
func (r orderRef) AggregateID() string {
	if r.OrderID == "" {
		return AggregateUnknown
	}
	return r.OrderID
}
