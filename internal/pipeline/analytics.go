package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
)

// AnalyticsSchema tags analytics projections so downstream warehouses can
// route them by shape.
const AnalyticsSchema = "order-analytics-v1"

// retentionPeriod is the fixed retention hint attached to every projection.
const retentionPeriod = "90d"

// stateRegions maps US state codes to coarse shipping regions.
var stateRegions = map[string]string{
	"CA": "WEST", "WA": "WEST", "OR": "WEST", "NV": "WEST", "CO": "WEST",
	"NY": "NORTHEAST", "NJ": "NORTHEAST", "MA": "NORTHEAST", "PA": "NORTHEAST", "CT": "NORTHEAST",
	"TX": "SOUTHWEST", "AZ": "SOUTHWEST", "NM": "SOUTHWEST", "OK": "SOUTHWEST",
	"FL": "SOUTHEAST", "GA": "SOUTHEAST", "NC": "SOUTHEAST", "VA": "SOUTHEAST", "TN": "SOUTHEAST",
	"IL": "MIDWEST", "OH": "MIDWEST", "MI": "MIDWEST", "MN": "MIDWEST", "WI": "MIDWEST",
}

// Analytics projects an order into the flat key/value shape consumed by the
// analytics warehouse. The inbound correlation id is propagated unchanged.
type Analytics struct {
	// Now is the clock used for processing-time fields; nil means time.Now.
	Now func() time.Time
}

func (Analytics) Name() string { return StageAnalytics }

func (a Analytics) Transform(ctx context.Context, msg channel.Message) (channel.Message, error) {
	o, err := decodeOrder(a.Name(), msg)
	if err != nil {
		return channel.Message{}, err
	}

	now := time.Now().UTC()
	if a.Now != nil {
		now = a.Now()
	}

	projection := map[string]any{
		"order_id":        o.ID,
		"user_id":         o.UserID,
		"order_timestamp": o.CreatedAt,
		"amount":          o.Total,
		"status":          string(o.Status),
		"priority":        string(o.Priority),
		"value_category":  valueCategory(o.Total),
		"payment_method":  paymentMethod(o),
		"hour_of_day":     now.Hour(),
		"day_of_week":     now.Weekday().String(),
		"month":           int(now.Month()),
		"quarter":         (int(now.Month())-1)/3 + 1,
		"high_value":      o.HighValue(),
		"urgent":          o.Priority == order.PriorityUrgent,
		"shipping_region": shippingRegion(o.Shipping.State),
	}

	payload, err := json.Marshal(projection)
	if err != nil {
		return channel.Message{}, fatal(a.Name(), "encode projection: %w", err)
	}

	out := msg
	out.Payload = payload
	out = out.WithHeader(HeaderSchema, AnalyticsSchema)
	out = out.WithHeader(HeaderRetention, retentionPeriod)
	return appendPath(out, a.Name()), nil
}

// valueCategory buckets the order amount for reporting. Strict comparisons.
func valueCategory(amount float64) string {
	switch {
	case amount > 1000:
		return "HIGH"
	case amount > 500:
		return "MEDIUM"
	case amount > 100:
		return "STANDARD"
	default:
		return "LOW"
	}
}

func paymentMethod(o *order.Order) string {
	if o.PaymentMethod == "" {
		return "UNKNOWN"
	}
	return o.PaymentMethod
}

func shippingRegion(state string) string {
	if r, ok := stateRegions[state]; ok {
		return r
	}
	return "OTHER"
}
