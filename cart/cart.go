package cart

import (
	"github.com/shopspring/decimal"

	"mars3lo-orders/models"
	"mars3lo-orders/pricing"
	"mars3lo-orders/utils"
)

// Line is one staged SKU of a cart, keyed by SKU
type Line struct {
	SKU       string          `json:"sku"`
	Article   string          `json:"articolo"`
	Color     string          `json:"colore"`
	Size      string          `json:"taglia"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"prezzo"`
}

// Cart is the showroom staging area for one session.
// It is a value: every operation returns a new Cart and never mutates its receiver.
type Cart struct {
	Lines []Line `json:"lines"`
}

// ArticleMeta carries the stock metadata copied onto a cart line
type ArticleMeta struct {
	Article string
	Color   string
	Size    string
}

// MetaFromStock returns the article metadata of a stock item
func MetaFromStock(item models.StockItem) ArticleMeta {
	return ArticleMeta{Article: item.Article, Color: item.Color, Size: item.Size}
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Find returns the line for sku, if present
func (c Cart) Find(sku string) (Line, bool) {
	for _, l := range c.Lines {
		if l.SKU == sku {
			return l, true
		}
	}
	return Line{}, false
}

// Upsert inserts or replaces the line for sku. A quantity <= 0 removes the line.
// Replacing keeps the line's position in the cart.
func Upsert(c Cart, sku string, qty int, unitPrice decimal.Decimal, meta ArticleMeta) Cart {
	if qty <= 0 {
		return Remove(c, sku)
	}

	line := Line{
		SKU:       sku,
		Article:   meta.Article,
		Color:     meta.Color,
		Size:      meta.Size,
		Qty:       qty,
		UnitPrice: unitPrice,
	}

	out := make([]Line, 0, len(c.Lines)+1)
	replaced := false
	for _, l := range c.Lines {
		if l.SKU == sku {
			if !replaced {
				out = append(out, line)
				replaced = true
			}
			continue
		}
		out = append(out, l)
	}
	if !replaced {
		out = append(out, line)
	}
	return Cart{Lines: out}
}

// Remove drops the line for sku
func Remove(c Cart, sku string) Cart {
	return filter(c, func(l Line) bool { return l.SKU != sku })
}

// ClearArticleColor drops every line of one (article, color) group
func ClearArticleColor(c Cart, article, color string) Cart {
	key := utils.GroupKey{Article: article, Color: color}
	return filter(c, func(l Line) bool {
		return utils.GroupKey{Article: l.Article, Color: l.Color} != key
	})
}

// Clear returns an empty cart
func Clear(Cart) Cart {
	return Cart{Lines: []Line{}}
}

// Totals computes gross and net for the cart with the given discount percentage.
// The percentage is clamped to [0, 100].
func Totals(c Cart, discountPercent decimal.Decimal) models.Totals {
	return pricing.Compute(PricedLines(c), pricing.ClampDiscount(discountPercent))
}

// PricedLines returns the cart lines as pricing input
func PricedLines(c Cart) []pricing.PricedLine {
	out := make([]pricing.PricedLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, pricing.PricedLine{Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	return out
}

// TotalQty returns the sum of the staged quantities
func TotalQty(c Cart) int {
	total := 0
	for _, l := range c.Lines {
		total += l.Qty
	}
	return total
}

// OrderLines converts the cart into unreviewed order lines for orderID
func OrderLines(c Cart, orderID string) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, models.OrderLine{
			OrderID:      orderID,
			SKU:          l.SKU,
			Article:      l.Article,
			Color:        l.Color,
			Size:         l.Size,
			RequestedQty: l.Qty,
			UnitPrice:    l.UnitPrice,
		})
	}
	return out
}

func filter(c Cart, keep func(Line) bool) Cart {
	out := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	return Cart{Lines: out}
}
