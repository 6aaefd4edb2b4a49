package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/retry"
)

// fakeRegistry records publishes and can fail selected destinations.
type fakeRegistry struct {
	mu        sync.Mutex
	published map[string][]channel.Message
	fail      map[string]bool
	failFirst int // fail this many publishes overall before succeeding
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		published: make(map[string][]channel.Message),
		fail:      make(map[string]bool),
	}
}

func (f *fakeRegistry) Publish(ctx context.Context, destination string, msg channel.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("injected failure")
	}
	if f.fail[destination] {
		return errors.New("injected failure for " + destination)
	}
	f.published[destination] = append(f.published[destination], msg)
	return nil
}

func (f *fakeRegistry) Consume(ctx context.Context, destination, group string) (<-chan channel.Message, error) {
	ch := make(chan channel.Message)
	close(ch)
	return ch, nil
}

func (f *fakeRegistry) count(destination string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published[destination])
}

func (f *fakeRegistry) last(t *testing.T, destination string) channel.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.published[destination]
	if len(msgs) == 0 {
		t.Fatalf("nothing published to %s", destination)
	}
	return msgs[len(msgs)-1]
}

func testOrder(total float64) *order.Order {
	return &order.Order{
		ID:       "ord-55",
		UserID:   "user-9",
		Total:    total,
		Status:   order.StatusPending,
		Priority: order.PriorityNormal,
	}
}

func TestSendOrderCreated(t *testing.T) {
	reg := newFakeRegistry()
	eng := New(reg, "order-service")

	if !eng.SendOrderCreated(context.Background(), testOrder(80)) {
		t.Fatal("expected delivery")
	}
	msg := reg.last(t, channel.DestOrderEvents)
	if msg.Header(HeaderEventType) != string(event.KindCreated) {
		t.Errorf("event-type header = %q", msg.Header(HeaderEventType))
	}
	if msg.Header(HeaderOrderID) != "ord-55" || msg.Header(HeaderUserID) != "user-9" {
		t.Errorf("routing headers wrong: %v", msg.Headers)
	}
	if msg.Header(HeaderSource) != "order-service" {
		t.Errorf("source header = %q", msg.Header(HeaderSource))
	}

	var ev event.Created
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if !ev.Valid() {
		t.Errorf("published event envelope invalid: %+v", ev.Envelope)
	}
	if ev.Order.ID != "ord-55" {
		t.Errorf("payload order id = %q", ev.Order.ID)
	}
}

func TestSendOrderCreatedFailureAsValue(t *testing.T) {
	reg := newFakeRegistry()
	reg.fail[channel.DestOrderEvents] = true
	eng := New(reg, "order-service")

	// A failed publish is a false result, never a panic or an error.
	if eng.SendOrderCreated(context.Background(), testOrder(80)) {
		t.Error("expected false on registry failure")
	}
}

func TestSendStatusUpdateHeaders(t *testing.T) {
	reg := newFakeRegistry()
	eng := New(reg, "order-service")

	o := testOrder(80)
	o.Status = order.StatusConfirmed
	if !eng.SendStatusUpdate(context.Background(), o, order.StatusPending) {
		t.Fatal("expected delivery")
	}
	msg := reg.last(t, channel.DestStatusEvents)
	if msg.Header(HeaderPreviousStatus) != "PENDING" || msg.Header(HeaderNewStatus) != "CONFIRMED" {
		t.Errorf("status headers wrong: %v", msg.Headers)
	}
	if msg.Header(HeaderStatusChanged) != "true" {
		t.Errorf("status-changed = %q", msg.Header(HeaderStatusChanged))
	}

	var ev event.Updated
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if ev.Previous.Status != order.StatusPending || ev.Current.Status != order.StatusConfirmed {
		t.Errorf("snapshots wrong: prev=%s cur=%s", ev.Previous.Status, ev.Current.Status)
	}
}

func TestSendOrderCancelled(t *testing.T) {
	reg := newFakeRegistry()
	eng := New(reg, "order-service")

	if !eng.SendOrderCancelled(context.Background(), testOrder(80), "changed my mind") {
		t.Fatal("expected delivery")
	}
	msg := reg.last(t, channel.DestOrderEvents)
	if msg.Header(HeaderCancelReason) != "changed my mind" {
		t.Errorf("cancellation-reason = %q", msg.Header(HeaderCancelReason))
	}
}

func TestSendToFulfillmentPriority(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{1500, "HIGH"},
		{500, "MEDIUM"},
		{50, "LOW"},
		{100, "LOW"},
	}
	for _, c := range cases {
		reg := newFakeRegistry()
		eng := New(reg, "order-service")
		if !eng.SendToFulfillment(context.Background(), testOrder(c.total)) {
			t.Fatalf("total %v: expected delivery", c.total)
		}
		msg := reg.last(t, channel.DestFulfillment)
		if got := msg.Header(HeaderPriority); got != c.want {
			t.Errorf("total %v: priority header = %q, want %q", c.total, got, c.want)
		}
	}
}

func TestHighValueGating(t *testing.T) {
	reg := newFakeRegistry()
	eng := New(reg, "order-service")

	// At or below the threshold: trivially successful, nothing published.
	if !eng.SendHighValueNotification(context.Background(), testOrder(1000)) {
		t.Error("non-high-value order must report success")
	}
	if reg.count(channel.DestNotifications) != 0 {
		t.Error("non-high-value order must not publish a notification")
	}

	if !eng.SendHighValueNotification(context.Background(), testOrder(1200)) {
		t.Fatal("expected delivery")
	}
	msg := reg.last(t, channel.DestNotifications)
	if msg.Header(HeaderNotificationType) != "high-value-order" {
		t.Errorf("notification-type = %q", msg.Header(HeaderNotificationType))
	}
}

func TestFanOutAllSucceed(t *testing.T) {
	reg := newFakeRegistry()
	eng := New(reg, "order-service")

	if !eng.SendToMultipleDestinations(context.Background(), testOrder(1200)) {
		t.Fatal("expected combined success")
	}
	for _, dest := range []string{channel.DestAnalytics, channel.DestFulfillment, channel.DestNotifications} {
		if reg.count(dest) != 1 {
			t.Errorf("%s: published %d messages, want 1", dest, reg.count(dest))
		}
	}
}

func TestFanOutSingleFailureNotMasked(t *testing.T) {
	for _, failing := range []string{channel.DestAnalytics, channel.DestFulfillment, channel.DestNotifications} {
		reg := newFakeRegistry()
		reg.fail[failing] = true
		eng := New(reg, "order-service")

		if eng.SendToMultipleDestinations(context.Background(), testOrder(1200)) {
			t.Errorf("failing %s: two successes must not mask one failure", failing)
		}
	}
}

func TestFanOutNonHighValue(t *testing.T) {
	reg := newFakeRegistry()
	eng := New(reg, "order-service")

	// The notification task trivially succeeds for a non-high-value order,
	// so the combined result depends only on analytics and fulfillment.
	if !eng.SendToMultipleDestinations(context.Background(), testOrder(500)) {
		t.Fatal("expected combined success")
	}
	if reg.count(channel.DestNotifications) != 0 {
		t.Error("unexpected notification for non-high-value order")
	}
}

func TestSendWithRetryRecovers(t *testing.T) {
	reg := newFakeRegistry()
	reg.failFirst = 2
	eng := NewWithPolicy(reg, "order-service", retry.FastTest())

	if !eng.SendWithRetry(context.Background(), testOrder(80), 3) {
		t.Fatal("expected recovery within retry budget")
	}
	if reg.count(channel.DestOrderEvents) != 1 {
		t.Errorf("published %d created events, want 1", reg.count(channel.DestOrderEvents))
	}
}

func TestSendWithRetryExhausted(t *testing.T) {
	reg := newFakeRegistry()
	reg.fail[channel.DestOrderEvents] = true
	eng := NewWithPolicy(reg, "order-service", retry.FastTest())

	if eng.SendWithRetry(context.Background(), testOrder(80), 2) {
		t.Error("expected false after exhausting retries")
	}
}
