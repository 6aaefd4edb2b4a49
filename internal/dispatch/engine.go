// Package dispatch builds order lifecycle events and publishes them to named
// destinations through the channel registry. Every publish operation follows
// one failure contract: errors are caught, logged with the order id, and
// converted to a false result. Callers never see a raised error.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/retry"
)

// Header keys attached to outgoing messages.
const (
	HeaderEventType        = "event-type"
	HeaderOrderID          = "order-id"
	HeaderUserID           = "user-id"
	HeaderSource           = "source-service"
	HeaderPreviousStatus   = "previous-status"
	HeaderNewStatus        = "new-status"
	HeaderStatusChanged    = "status-changed"
	HeaderCancelReason     = "cancellation-reason"
	HeaderOrderValue       = "order-value"
	HeaderPriority         = "priority"
	HeaderNotificationType = "notification-type"
	HeaderRoutingKey       = "routing-key"
)

// Engine publishes order events. It is safe for concurrent use: all state is
// read-only after construction.
type Engine struct {
	reg    channel.Registry
	source string
	policy retry.Policy
}

// New creates an Engine publishing through reg, stamping events with the
// given source-service name and retrying with the production policy.
func New(reg channel.Registry, source string) *Engine {
	return &Engine{reg: reg, source: source, policy: retry.Production()}
}

// NewWithPolicy is New with an explicit retry policy. Tests use the fast
// profile here.
func NewWithPolicy(reg channel.Registry, source string, policy retry.Policy) *Engine {
	return &Engine{reg: reg, source: source, policy: policy}
}

// publish marshals payload and submits it with headers. This is the single
// funnel implementing the failure-as-value contract.
func (e *Engine) publish(ctx context.Context, destination, orderID string, payload any, headers map[string]string) bool {
	start := time.Now()
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("event marshal failed", "order_id", orderID, "destination", destination, "err", err)
		metrics.Published.WithLabelValues(destination, "error").Inc()
		return false
	}
	msg := channel.Message{Key: orderID, Payload: data, Headers: headers}
	if err := e.reg.Publish(ctx, destination, msg); err != nil {
		slog.Error("publish failed", "order_id", orderID, "destination", destination, "err", err)
		metrics.Published.WithLabelValues(destination, "error").Inc()
		return false
	}
	metrics.Published.WithLabelValues(destination, "ok").Inc()
	metrics.PublishDuration.Observe(float64(time.Since(start).Milliseconds()))
	slog.Debug("published", "order_id", orderID, "destination", destination)
	return true
}

func (e *Engine) baseHeaders(eventType string, o *order.Order) map[string]string {
	return map[string]string{
		HeaderEventType: eventType,
		HeaderOrderID:   o.ID,
		HeaderUserID:    o.UserID,
		HeaderSource:    e.source,
	}
}

// Event-type tags for raw order routings that carry no event envelope.
const (
	typeFulfillmentRequest = "order.fulfillment-request"
	typeAnalyticsFeed      = "order.analytics"
	typeHighValueAlert     = "order.high-value"
)

// SendOrderCreated publishes a created event to the order-events destination.
func (e *Engine) SendOrderCreated(ctx context.Context, o *order.Order) bool {
	ev := event.NewCreated(o, e.source, "")
	return e.publish(ctx, channel.DestOrderEvents, o.ID, ev, e.baseHeaders(string(ev.EventKind()), o))
}

// SendStatusUpdate publishes an updated event carrying the previous snapshot
// to the order-status-events destination.
func (e *Engine) SendStatusUpdate(ctx context.Context, o *order.Order, previous order.Status) bool {
	prev := *o
	prev.Status = previous
	ev := event.NewUpdated(o, &prev, e.source, "")
	headers := e.baseHeaders(string(ev.EventKind()), o)
	headers[HeaderPreviousStatus] = string(previous)
	headers[HeaderNewStatus] = string(o.Status)
	headers[HeaderStatusChanged] = strconv.FormatBool(previous != o.Status)
	return e.publish(ctx, channel.DestStatusEvents, o.ID, ev, headers)
}

// SendOrderCancelled publishes a cancelled event with the cancellation
// reason to the order-events destination.
func (e *Engine) SendOrderCancelled(ctx context.Context, o *order.Order, reason string) bool {
	ev := event.NewCancelled(o, reason, e.source, "")
	headers := e.baseHeaders(string(ev.EventKind()), o)
	headers[HeaderCancelReason] = reason
	return e.publish(ctx, channel.DestOrderEvents, o.ID, ev, headers)
}

// SendToFulfillment routes the raw order to the fulfillment destination,
// annotated with its derived priority bucket.
func (e *Engine) SendToFulfillment(ctx context.Context, o *order.Order) bool {
	headers := e.baseHeaders(typeFulfillmentRequest, o)
	headers[HeaderPriority] = string(o.Bucket())
	headers[HeaderOrderValue] = strconv.FormatFloat(o.Total, 'f', 2, 64)
	return e.publish(ctx, channel.DestFulfillment, o.ID, o, headers)
}

// SendAnalytics routes the raw order to the analytics destination.
func (e *Engine) SendAnalytics(ctx context.Context, o *order.Order) bool {
	headers := e.baseHeaders(typeAnalyticsFeed, o)
	headers[HeaderRoutingKey] = "orders.analytics"
	return e.publish(ctx, channel.DestAnalytics, o.ID, o, headers)
}

// SendHighValueNotification notifies on orders above the high-value
// threshold. Orders at or below it are skipped and reported as delivered,
// so fan-out callers can treat the gate as a trivially-successful task.
func (e *Engine) SendHighValueNotification(ctx context.Context, o *order.Order) bool {
	if !o.HighValue() {
		return true
	}
	headers := e.baseHeaders(typeHighValueAlert, o)
	headers[HeaderNotificationType] = "high-value-order"
	headers[HeaderOrderValue] = strconv.FormatFloat(o.Total, 'f', 2, 64)
	return e.publish(ctx, channel.DestNotifications, o.ID, o, headers)
}

// SendToMultipleDestinations fans the order out to analytics, fulfillment,
// and the high-value notification concurrently. All three tasks run to
// completion before any result is evaluated; the combined outcome is the
// AND of the three, so one failing destination is never masked by the
// others succeeding.
func (e *Engine) SendToMultipleDestinations(ctx context.Context, o *order.Order) bool {
	tasks := []func() bool{
		func() bool { return e.SendAnalytics(ctx, o) },
		func() bool { return e.SendToFulfillment(ctx, o) },
		func() bool { return e.SendHighValueNotification(ctx, o) },
	}

	results := make([]bool, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func() bool) {
			defer wg.Done()
			results[i] = task()
		}(i, task)
	}
	wg.Wait()

	ok := true
	for _, r := range results {
		ok = ok && r
	}
	status := "ok"
	if !ok {
		status = "partial_failure"
		slog.Warn("fan-out incomplete", "order_id", o.ID, "results", fmt.Sprint(results))
	}
	metrics.Fanouts.WithLabelValues(status).Inc()
	return ok
}

// SendWithRetry wraps SendOrderCreated in the engine's retry policy, with
// one initial attempt plus up to maxRetries retries.
func (e *Engine) SendWithRetry(ctx context.Context, o *order.Order, maxRetries int) bool {
	metrics.RetryAttempts.Inc()
	opID := "order-created-" + o.ID
	return e.policy.Run(ctx, opID, maxRetries, func() (bool, error) {
		return e.SendOrderCreated(ctx, o), nil
	})
}
