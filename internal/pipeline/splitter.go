package pipeline

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
)

// statusEvents maps an order status to the ordered synthetic events it
// generates. Urgent PROCESSING orders additionally request priority
// processing; every status gets an analytics request appended last.
var statusEvents = map[order.Status][]string{
	order.StatusPending:    {"order-created", "inventory-check-requested", "payment-requested"},
	order.StatusConfirmed:  {"order-confirmed", "fulfillment-requested"},
	order.StatusProcessing: {"order-processing-started"},
	order.StatusShipped:    {"order-shipped", "tracking-notification-requested"},
	order.StatusDelivered:  {"order-delivered", "customer-survey-requested"},
	order.StatusCancelled:  {"order-cancelled", "refund-requested"},
}

// SplitEvents is the splitter's output: the full ordered event sequence for
// one order, under a fresh correlation id.
type SplitEvents struct {
	OrderID       string   `json:"order_id"`
	CorrelationID string   `json:"correlation_id"`
	EventCount    int      `json:"event_count"`
	Events        []string `json:"events"`
}

// Splitter expands one order message into its status-driven event sequence.
type Splitter struct{}

func (Splitter) Name() string { return StageSplitter }

func (s Splitter) Transform(ctx context.Context, msg channel.Message) (channel.Message, error) {
	o, err := decodeOrder(s.Name(), msg)
	if err != nil {
		return channel.Message{}, err
	}

	descs := append([]string(nil), statusEvents[o.Status]...)
	if o.Status == order.StatusProcessing && o.Priority == order.PriorityUrgent {
		descs = append(descs, "priority-processing-requested")
	}
	descs = append(descs, "analytics-data-requested")

	events := make([]string, len(descs))
	for i, d := range descs {
		events[i] = d + ":" + o.ID
	}

	split := SplitEvents{
		OrderID:       o.ID,
		CorrelationID: uuid.New().String(),
		EventCount:    len(events),
		Events:        events,
	}
	payload, err := json.Marshal(split)
	if err != nil {
		return channel.Message{}, fatal(s.Name(), "encode split events: %w", err)
	}

	out := msg
	out.Payload = payload
	out = out.WithHeader(HeaderCorrelationID, split.CorrelationID)
	out = out.WithHeader(HeaderOrderID, o.ID)
	out = out.WithHeader(HeaderEventCount, strconv.Itoa(split.EventCount))
	return appendPath(out, s.Name()), nil
}
