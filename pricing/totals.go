package pricing

import (
	"github.com/shopspring/decimal"

	"mars3lo-orders/models"
)

var (
	hundred    = decimal.NewFromInt(100)
	maxPercent = hundred
)

// PricedLine is anything that carries a quantity and a unit price
type PricedLine struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// ClampDiscount limits a discount percentage to [0, 100]
func ClampDiscount(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	if percent.GreaterThan(maxPercent) {
		return maxPercent
	}
	return percent
}

// Compute calculates gross, discount and net for a set of lines.
// gross = Σ(qty * unitPrice), net = gross * (1 - discount/100).
// The discount percentage is used as given; callers clamp it with ClampDiscount.
func Compute(lines []PricedLine, discountPercent decimal.Decimal) models.Totals {
	gross := decimal.Zero
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		gross = gross.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	discount := gross.Mul(discountPercent).Div(hundred).Round(2)
	net := gross.Sub(discount)

	return models.Totals{
		Gross:           gross.Round(2),
		DiscountPercent: discountPercent,
		Discount:        discount,
		Net:             net.Round(2),
	}
}

// RequestedLines returns the priced lines of an order using the requested quantities
func RequestedLines(lines []models.OrderLine) []PricedLine {
	out := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, PricedLine{Qty: l.RequestedQty, UnitPrice: l.UnitPrice})
	}
	return out
}

// ConfirmedLines returns the priced lines of an order using the confirmed quantities.
// Unreviewed lines count as 0.
func ConfirmedLines(lines []models.OrderLine) []PricedLine {
	out := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, PricedLine{Qty: l.Confirmed(), UnitPrice: l.UnitPrice})
	}
	return out
}

// BuildView derives the read-only view of an order with requested and confirmed totals
func BuildView(order models.OrderWithLines) models.OrderView {
	discount := ClampDiscount(order.Discount)
	return models.OrderView{
		OrderWithLines: order,
		Requested:      Compute(RequestedLines(order.Lines), discount),
		Confirmed:      Compute(ConfirmedLines(order.Lines), discount),
	}
}
