package controller

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mars3lo-orders/models"
	"mars3lo-orders/service"
)

// OrderController handles HTTP requests for submitted orders
type OrderController struct {
	orders  *service.OrderService
	reviews *service.ReconciliationService
	exports *service.ExportService
	archive *service.ArchiveService
}

// NewOrderController creates a new OrderController. archive may be nil when
// Drive archiving is not configured.
func NewOrderController(orders *service.OrderService, reviews *service.ReconciliationService, exports *service.ExportService, archive *service.ArchiveService) *OrderController {
	return &OrderController{orders: orders, reviews: reviews, exports: exports, archive: archive}
}

func orderID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", fmt.Errorf("%w: order id parameter is required", models.ErrValidation)
	}
	return id, nil
}

// List handles GET /orders
// Query parameters: status (pending, confirmed, partially_fulfilled, cancelled)
// Example response:
// [
//   {"id": "3f0c5c1e-...", "customer": "Boutique Rossi", "stato": "pending", "sconto": "10",
//    "createdAt": "2024-03-09T10:00:00Z", "lineCount": 2, "requestedQty": 8}
// ]
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ListOrders: Received %s request to %s", r.Method, r.URL.Path)

	var status *models.OrderStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s := models.OrderStatus(raw)
		status = &s
	}

	orders, err := c.orders.List(r.Context(), status)
	if err != nil {
		writeError(w, "ListOrders", err)
		return
	}
	if orders == nil {
		orders = []models.OrderListItem{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /orders/{id}
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 GetOrder: Received %s request to %s", r.Method, r.URL.Path)

	id, err := orderID(r)
	if err != nil {
		writeError(w, "GetOrder", err)
		return
	}

	view, err := c.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, "GetOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Export handles GET /orders/{id}/export?format=pdf|xlsx|csv
// Pending orders export requested quantities, reviewed orders their confirmed quantities.
func (c *OrderController) Export(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ExportOrder: Received %s request to %s", r.Method, r.URL.Path)

	id, err := orderID(r)
	if err != nil {
		writeError(w, "ExportOrder", err)
		return
	}

	view, err := c.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, "ExportOrder", err)
		return
	}

	file, err := c.exports.Render(r.Context(), service.SnapshotFromOrder(*view), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "ExportOrder", err)
		return
	}
	writeFile(w, file.Name, file.ContentType, file.Data)
}

// Review handles POST /orders/{id}/review
// Example request:
// POST /orders/3f0c5c1e-.../review
// {"lines": [{"lineId": 1, "confirmed": 5}, {"lineId": 2, "confirmed": 3}]}
// Example response:
// {
//   "order": {"id": "3f0c5c1e-...", "stato": "partially_fulfilled", ...},
//   "issues": [{"lineId": 2, "sku": "C200-BIANCO-M", "entered": 3, "confirmed": 2, "reason": "insufficient stock"}]
// }
func (c *OrderController) Review(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ReviewOrder: Received %s request to %s", r.Method, r.URL.Path)

	id, err := orderID(r)
	if err != nil {
		writeError(w, "ReviewOrder", err)
		return
	}

	var req models.ReviewOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "ReviewOrder", err)
		return
	}

	resp, err := c.reviews.Review(r.Context(), id, req)
	if err != nil {
		writeError(w, "ReviewOrder", err)
		return
	}

	log.Printf("✅ ReviewOrder: order %s is %s with %d issue(s)", id, resp.Order.Status, len(resp.Issues))
	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles POST /orders/{id}/cancel
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 CancelOrder: Received %s request to %s", r.Method, r.URL.Path)

	id, err := orderID(r)
	if err != nil {
		writeError(w, "CancelOrder", err)
		return
	}

	view, err := c.reviews.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, "CancelOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Archive handles POST /orders/{id}/archive
// Example response: {"fileId": "1AbC...", "fileName": "Boutique_Rossi_3f0c5c1e_20240309.pdf"}
func (c *OrderController) Archive(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ArchiveOrder: Received %s request to %s", r.Method, r.URL.Path)

	if c.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "drive archive is not configured"})
		return
	}

	id, err := orderID(r)
	if err != nil {
		writeError(w, "ArchiveOrder", err)
		return
	}

	view, err := c.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, "ArchiveOrder", err)
		return
	}

	result, err := c.archive.Archive(r.Context(), service.SnapshotFromOrder(*view))
	if err != nil {
		writeError(w, "ArchiveOrder", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Delete handles DELETE /orders/{id}. The order lines are removed with it.
func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 DeleteOrder: Received %s request to %s", r.Method, r.URL.Path)

	id, err := orderID(r)
	if err != nil {
		writeError(w, "DeleteOrder", err)
		return
	}

	if err := c.orders.Remove(r.Context(), id); err != nil {
		writeError(w, "DeleteOrder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
