package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending            OrderStatus = "pending"
	StatusConfirmed          OrderStatus = "confirmed"
	StatusPartiallyFulfilled OrderStatus = "partially_fulfilled"
	StatusCancelled          OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s
func (s OrderStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusPartiallyFulfilled || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// Order represents an order header in the database
type Order struct {
	ID        string          `json:"id"`
	Customer  string          `json:"customer"`
	Status    OrderStatus     `json:"stato"`
	Discount  decimal.Decimal `json:"sconto"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OrderLine represents one requested SKU of an order.
// ConfirmedQty is nil until the warehouse reviews the order.
type OrderLine struct {
	ID           int64           `json:"id"`
	OrderID      string          `json:"orderId"`
	SKU          string          `json:"sku"`
	Article      string          `json:"articolo"`
	Color        string          `json:"colore"`
	Size         string          `json:"taglia"`
	RequestedQty int             `json:"richiesti"`
	ConfirmedQty *int            `json:"confermati"`
	UnitPrice    decimal.Decimal `json:"prezzo"`
}

// Confirmed returns the confirmed quantity, 0 while the line is unreviewed
func (l OrderLine) Confirmed() int {
	if l.ConfirmedQty == nil {
		return 0
	}
	return *l.ConfirmedQty
}

// OrderWithLines is an order together with all of its lines
type OrderWithLines struct {
	Order
	Lines []OrderLine `json:"lines"`
}

// Totals is the gross / discount / net breakdown of a set of lines
type Totals struct {
	Gross           decimal.Decimal `json:"gross"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Discount        decimal.Decimal `json:"discount"`
	Net             decimal.Decimal `json:"net"`
}

// OrderView is the read-only snapshot of an order consumed by the API and the exporters.
// Example response:
// {
//   "id": "3f0c5c1e-6a43-4c1b-9d0e-2b1f3f6f4c11",
//   "customer": "Boutique Rossi",
//   "stato": "partially_fulfilled",
//   "sconto": "10",
//   "lines": [
//     {"id": 1, "sku": "GB101-NERO-48", "richiesti": 5, "confermati": 5, "prezzo": "10.00"},
//     {"id": 2, "sku": "C200-BIANCO-M", "richiesti": 3, "confermati": 2, "prezzo": "25.00"}
//   ],
//   "requested": {"gross": "125", "discountPercent": "10", "discount": "12.5", "net": "112.5"},
//   "confirmed": {"gross": "100", "discountPercent": "10", "discount": "10", "net": "90"}
// }
type OrderView struct {
	OrderWithLines
	Requested Totals `json:"requested"`
	Confirmed Totals `json:"confirmed"`
}

// OrderListItem represents an order in a list response
type OrderListItem struct {
	Order
	LineCount    int `json:"lineCount"`
	RequestedQty int `json:"requestedQty"`
}

// SubmitOrderRequest represents the request body for submitting the session cart
// Example: {"customer": "Boutique Rossi", "discount": 10}
type SubmitOrderRequest struct {
	Customer string          `json:"customer"`
	Discount decimal.Decimal `json:"discount"`
}

// ReviewLineInput is the warehouse-entered confirmed quantity for one line
type ReviewLineInput struct {
	LineID    int64 `json:"lineId"`
	Confirmed int   `json:"confirmed"`
}

// ReviewOrderRequest represents the request body for reviewing an order
// Example: {"lines": [{"lineId": 1, "confirmed": 5}, {"lineId": 2, "confirmed": 2}]}
type ReviewOrderRequest struct {
	Lines []ReviewLineInput `json:"lines"`
}

// LineIssue flags a line whose confirmation was reduced or refused during review
type LineIssue struct {
	LineID    int64  `json:"lineId"`
	SKU       string `json:"sku"`
	Entered   int    `json:"entered"`
	Confirmed int    `json:"confirmed"`
	Reason    string `json:"reason"`
}

// ReviewResponse is returned after a review commits
type ReviewResponse struct {
	Order  OrderView   `json:"order"`
	Issues []LineIssue `json:"issues"`
}
