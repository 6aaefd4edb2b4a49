// Package pipeline contains the four stateless order transformation stages
// and the runner that binds them to channel destinations. Stages are
// independent: each consumes one order message and emits exactly one derived
// message, and a failure in one message never affects siblings.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
)

// Stage names, referenced by pipeline bindings in configuration.
const (
	StageFinancial = "financial-enrichment"
	StageSplitter  = "event-splitter"
	StageAnalytics = "analytics-transformer"
	StageAudit     = "audit-transformer"
)

// Header keys used across stages.
const (
	HeaderCorrelationID = "correlation-id"
	HeaderMessagePath   = "message-path"
	HeaderOrderID       = "order-id"
	HeaderEventCount    = "event-count"
	HeaderSchema        = "analytics-schema"
	HeaderRetention     = "retention"
)

// Stage transforms one inbound order message into one derived message.
type Stage interface {
	Name() string
	Transform(ctx context.Context, msg channel.Message) (channel.Message, error)
}

// FatalError wraps a stage failure. It is scoped to one message: the runner
// drops that message and moves on.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(stage string, format string, args ...any) error {
	return &FatalError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// decodeOrder unmarshals the inbound order payload, producing a stage-scoped
// fatal error on malformed input.
func decodeOrder(stage string, msg channel.Message) (*order.Order, error) {
	var o order.Order
	if err := json.Unmarshal(msg.Payload, &o); err != nil {
		return nil, fatal(stage, "decode order: %w", err)
	}
	return &o, nil
}

// appendPath returns msg with this stage's name appended to the message-path
// trail header, so the trail accumulates across passes.
func appendPath(msg channel.Message, stage string) channel.Message {
	path := msg.Header(HeaderMessagePath)
	if path == "" {
		path = stage
	} else {
		path = path + "|" + stage
	}
	return msg.WithHeader(HeaderMessagePath, path)
}
