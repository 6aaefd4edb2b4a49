package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
)

// Audit header keys. The order payload passes through untouched; the audit
// trail lives entirely in message metadata.
const (
	headerAuditTimestamp = "audit-timestamp"
	headerAuditActor     = "audit-actor"
	headerAuditAction    = "audit-action"
	headerAuditSource    = "audit-source"
	headerAuditOrderID   = "audit-order-id"
	headerAuditUserID    = "audit-user-id"
	headerAuditValue     = "audit-order-value"
	headerAuditStatus    = "audit-status"
	headerAuditPriority  = "audit-priority"
	headerGDPRCompliant  = "gdpr-compliant"
	headerPCICompliant   = "pci-compliant"
)

// Audit annotates a message with an audit trail and appends a hop marker to
// the message path. Passing a message through twice yields two hop markers
// in call order.
type Audit struct {
	// Now is the clock used for the audit timestamp; nil means time.Now.
	Now func() time.Time
}

func (Audit) Name() string { return StageAudit }

func (a Audit) Transform(ctx context.Context, msg channel.Message) (channel.Message, error) {
	o, err := decodeOrder(a.Name(), msg)
	if err != nil {
		return channel.Message{}, err
	}

	now := time.Now().UTC()
	if a.Now != nil {
		now = a.Now()
	}

	out := msg.
		WithHeader(headerAuditTimestamp, now.Format(time.RFC3339Nano)).
		WithHeader(headerAuditActor, "system").
		WithHeader(headerAuditAction, "ORDER_PROCESSED").
		WithHeader(headerAuditSource, a.Name()).
		WithHeader(headerAuditOrderID, o.ID).
		WithHeader(headerAuditUserID, o.UserID).
		WithHeader(headerAuditValue, strconv.FormatFloat(o.Total, 'f', 2, 64)).
		WithHeader(headerAuditStatus, string(o.Status)).
		WithHeader(headerAuditPriority, string(o.Priority)).
		WithHeader(headerGDPRCompliant, "true").
		WithHeader(headerPCICompliant, "true")

	return appendPath(out, a.Name()), nil
}
