package controller

import (
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"mars3lo-orders/cart"
	"mars3lo-orders/models"
	"mars3lo-orders/service"
)

// CartController handles HTTP requests for the showroom cart of the logged-in session
type CartController struct {
	carts   *service.CartService
	exports *service.ExportService
}

// NewCartController creates a new CartController
func NewCartController(carts *service.CartService, exports *service.ExportService) *CartController {
	return &CartController{carts: carts, exports: exports}
}

// SetLineRequest represents the request body for PUT /cart/lines
// Example: {"sku": "GB101-NERO-48", "qty": 3}
type SetLineRequest struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// cartResponse is a cart with its undiscounted totals
type cartResponse struct {
	cart.Cart
	Totals models.Totals `json:"totals"`
}

func newCartResponse(c cart.Cart) cartResponse {
	if c.Lines == nil {
		c.Lines = []cart.Line{}
	}
	return cartResponse{Cart: c, Totals: cart.Totals(c, decimal.Zero)}
}

// Get handles GET /cart
// Example response:
// {
//   "lines": [{"sku": "GB101-NERO-48", "articolo": "GB101", "colore": "NERO", "taglia": "48", "qty": 3, "prezzo": "89"}],
//   "totals": {"gross": "267", "discountPercent": "0", "discount": "0", "net": "267"}
// }
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 GetCart: Received %s request to %s", r.Method, r.URL.Path)

	result, err := c.carts.Get(r.Context(), sessionIDFrom(r.Context()))
	if err != nil {
		writeError(w, "GetCart", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(result))
}

// SetLine handles PUT /cart/lines. A qty of zero or less removes the line.
func (c *CartController) SetLine(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 SetCartLine: Received %s request to %s", r.Method, r.URL.Path)

	var req SetLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "SetCartLine", err)
		return
	}

	result, err := c.carts.SetLine(r.Context(), sessionIDFrom(r.Context()), req.SKU, req.Qty)
	if err != nil {
		writeError(w, "SetCartLine", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(result))
}

// ClearGroup handles DELETE /cart/groups?article=GB101&color=NERO
func (c *CartController) ClearGroup(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ClearCartGroup: Received %s request to %s", r.Method, r.URL.Path)

	article := strings.TrimSpace(r.URL.Query().Get("article"))
	color := strings.TrimSpace(r.URL.Query().Get("color"))
	if article == "" || color == "" {
		http.Error(w, "article and color parameters are required", http.StatusBadRequest)
		return
	}

	result, err := c.carts.ClearGroup(r.Context(), sessionIDFrom(r.Context()), article, color)
	if err != nil {
		writeError(w, "ClearCartGroup", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(result))
}

// Clear handles DELETE /cart
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ClearCart: Received %s request to %s", r.Method, r.URL.Path)

	if err := c.carts.Clear(r.Context(), sessionIDFrom(r.Context())); err != nil {
		writeError(w, "ClearCart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Totals handles GET /cart/totals?discount=10
// Example response: {"gross": "45", "discountPercent": "10", "discount": "4.5", "net": "40.5"}
func (c *CartController) Totals(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 CartTotals: Received %s request to %s", r.Method, r.URL.Path)

	discount, err := parseDiscount(r)
	if err != nil {
		writeError(w, "CartTotals", err)
		return
	}

	totals, err := c.carts.Totals(r.Context(), sessionIDFrom(r.Context()), discount)
	if err != nil {
		writeError(w, "CartTotals", err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// Export handles GET /cart/export?format=pdf&customer=Rossi&discount=10
func (c *CartController) Export(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ExportCart: Received %s request to %s", r.Method, r.URL.Path)

	discount, err := parseDiscount(r)
	if err != nil {
		writeError(w, "ExportCart", err)
		return
	}

	current, err := c.carts.Get(r.Context(), sessionIDFrom(r.Context()))
	if err != nil {
		writeError(w, "ExportCart", err)
		return
	}
	if current.IsEmpty() {
		http.Error(w, "cart is empty", http.StatusBadRequest)
		return
	}

	snap := service.SnapshotFromCart(current, r.URL.Query().Get("customer"), discount)
	file, err := c.exports.Render(r.Context(), snap, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "ExportCart", err)
		return
	}
	writeFile(w, file.Name, file.ContentType, file.Data)
}

// Submit handles POST /cart/submit
// Example request:
// POST /cart/submit
// {"customer": "Boutique Rossi", "discount": 10}
// Example response: the created order view with status "pending"
func (c *CartController) Submit(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 SubmitCart: Received %s request to %s", r.Method, r.URL.Path)

	var req models.SubmitOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "SubmitCart", err)
		return
	}

	view, err := c.carts.Submit(r.Context(), sessionIDFrom(r.Context()), req)
	if err != nil {
		writeError(w, "SubmitCart", err)
		return
	}

	log.Printf("✅ SubmitCart: order %s created for %s", view.ID, view.Customer)
	writeJSON(w, http.StatusCreated, view)
}
