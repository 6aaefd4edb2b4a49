// Package channel abstracts the message sinks the dispatch engine and the
// transformation pipeline talk to. Destinations are logical names; the
// registry maps them to a physical transport (in-process channels or Kafka
// topics). The registry is treated as a call-level-atomic sink: a Publish
// either fully succeeds or fully fails.
package channel

import "context"

// Logical destination names used by the dispatch engine. Configuration maps
// these to physical topics or queues.
const (
	DestOrderEvents   = "order-events"
	DestStatusEvents  = "order-status-events"
	DestFulfillment   = "order-fulfillment"
	DestAnalytics     = "analytics-events"
	DestNotifications = "notification-events"
)

// Message is one unit published to or consumed from a destination.
// Headers carry routing metadata; Payload is an opaque (JSON) body.
type Message struct {
	Key     string
	Payload []byte
	Headers map[string]string
}

// Header returns the named header, or "" when absent.
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// WithHeader returns a copy of m with the header set. The original message
// is never mutated, so already-emitted messages stay stable.
func (m Message) WithHeader(key, value string) Message {
	headers := make(map[string]string, len(m.Headers)+1)
	for k, v := range m.Headers {
		headers[k] = v
	}
	headers[key] = value
	m.Headers = headers
	return m
}

// Registry is the external message sink. Delivery is at-least-once,
// best-effort; a non-nil error from Publish means "not delivered".
type Registry interface {
	// Publish submits one message to the named destination.
	Publish(ctx context.Context, destination string, msg Message) error

	// Consume returns a channel of messages arriving on the destination.
	// The channel is closed when ctx is cancelled.
	Consume(ctx context.Context, destination, group string) (<-chan Message, error)
}
