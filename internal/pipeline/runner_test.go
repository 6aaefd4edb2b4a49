package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
)

func TestRunnerEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := channel.NewMemory(16)
	runner := NewRunner(reg, "test-group")

	bindings := []Binding{
		{Stage: StageFinancial, Input: "orders.incoming", Output: "orders.enriched"},
	}
	if err := runner.Start(ctx, bindings, 2, 16); err != nil {
		t.Fatalf("start: %v", err)
	}

	o := &order.Order{ID: "ord-9", Total: 600, Priority: order.PriorityNormal}
	if err := reg.Publish(ctx, "orders.incoming", orderMessage(t, o)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	out, err := reg.Consume(ctx, "orders.enriched", "test-group")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	select {
	case msg := <-out:
		var e EnrichedOrder
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.FinalTotal != 618.00 {
			t.Errorf("final total = %v, want 618.00", e.FinalTotal)
		}
		if msg.Header(HeaderMessagePath) != StageFinancial {
			t.Errorf("message path = %q", msg.Header(HeaderMessagePath))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enriched message")
	}
}

func TestRunnerIsolatesPoisonMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := channel.NewMemory(16)
	runner := NewRunner(reg, "test-group")

	bindings := []Binding{
		{Stage: StageSplitter, Input: "orders.split-in", Output: "orders.split-out"},
	}
	if err := runner.Start(ctx, bindings, 1, 16); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A malformed message followed by a valid one: the poison message is
	// dropped and must not block its sibling.
	if err := reg.Publish(ctx, "orders.split-in", channel.Message{Payload: []byte("garbage")}); err != nil {
		t.Fatal(err)
	}
	o := &order.Order{ID: "ord-10", Status: order.StatusPending}
	if err := reg.Publish(ctx, "orders.split-in", orderMessage(t, o)); err != nil {
		t.Fatal(err)
	}

	out, err := reg.Consume(ctx, "orders.split-out", "test-group")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-out:
		var split SplitEvents
		if err := json.Unmarshal(msg.Payload, &split); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if split.OrderID != "ord-10" {
			t.Errorf("order id = %q, want ord-10", split.OrderID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid message blocked behind poison message")
	}
}

func TestRunnerRejectsUnknownStage(t *testing.T) {
	reg := channel.NewMemory(4)
	runner := NewRunner(reg, "g")
	err := runner.Start(context.Background(), []Binding{{Stage: "no-such-stage", Input: "in"}}, 1, 4)
	if err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestRunnerRejectsMissingInput(t *testing.T) {
	reg := channel.NewMemory(4)
	runner := NewRunner(reg, "g")
	err := runner.Start(context.Background(), []Binding{{Stage: StageAudit}}, 1, 4)
	if err == nil {
		t.Fatal("expected error for binding without input")
	}
}
