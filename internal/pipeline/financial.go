package pipeline

import (
	"context"
	"encoding/json"
	"math"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
)

// Financial enrichment constants. Shipping is free at or above the
// threshold; urgent orders below it pay double the standard rate.
const (
	taxRate           = 0.08
	freeShippingFloor = 100.0
	standardShipping  = 9.99
	discountFloor     = 500.0
	discountRate      = 0.05
)

// EnrichedOrder is the original order annotated with computed financials.
type EnrichedOrder struct {
	order.Order
	Subtotal             float64 `json:"subtotal"`
	Tax                  float64 `json:"tax"`
	TaxRate              float64 `json:"tax_rate"`
	ShippingCost         float64 `json:"shipping_cost"`
	Discount             float64 `json:"discount"`
	FinalTotal           float64 `json:"final_total"`
	FreeShippingEligible bool    `json:"free_shipping_eligible"`
}

// Financial computes tax, shipping, discount, and final total for an order.
type Financial struct{}

func (Financial) Name() string { return StageFinancial }

func (f Financial) Transform(ctx context.Context, msg channel.Message) (channel.Message, error) {
	o, err := decodeOrder(f.Name(), msg)
	if err != nil {
		return channel.Message{}, err
	}

	subtotal := o.Total
	tax := round2(subtotal * taxRate)

	var shipping float64
	switch {
	case subtotal >= freeShippingFloor:
		shipping = 0
	case o.Priority == order.PriorityUrgent:
		shipping = 2 * standardShipping
	default:
		shipping = standardShipping
	}

	var discount float64
	if subtotal > discountFloor {
		discount = round2(subtotal * discountRate)
	}

	enriched := EnrichedOrder{
		Order:                *o,
		Subtotal:             subtotal,
		Tax:                  tax,
		TaxRate:              taxRate,
		ShippingCost:         shipping,
		Discount:             discount,
		FinalTotal:           round2(subtotal + tax + shipping - discount),
		FreeShippingEligible: shipping == 0,
	}

	payload, err := json.Marshal(enriched)
	if err != nil {
		return channel.Message{}, fatal(f.Name(), "encode enriched order: %w", err)
	}
	out := msg
	out.Payload = payload
	return appendPath(out, f.Name()), nil
}

// round2 rounds to two decimal places, half up.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
