package models

import "encoding/json"

// Tables that emit change notifications
const (
	TableStock      = "stock"
	TableOrders     = "orders"
	TableOrderLines = "order_lines"
)

// Change is one row-level change notification published by the database triggers.
// Example payload: {"table": "stock", "op": "UPDATE", "row": {"sku": "GB101-NERO-48", "qty": 3, ...}}
type Change struct {
	Table string          `json:"table"`
	Op    string          `json:"op"`
	Row   json.RawMessage `json:"row,omitempty"`
}

// OrderEvent is published on the order events topic after a lifecycle step commits
type OrderEvent struct {
	Type    string      `json:"type"`
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
	At      string      `json:"at"`
}

// Order event types
const (
	EventOrderSubmitted = "order.submitted"
	EventOrderReviewed  = "order.reviewed"
	EventOrderCancelled = "order.cancelled"
	EventOrderRemoved   = "order.removed"
)
