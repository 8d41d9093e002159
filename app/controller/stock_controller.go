package controller

import (
	"log"
	"net/http"
	"strconv"

	"mars3lo-orders/models"
	"mars3lo-orders/repository"
	"mars3lo-orders/utils"
)

// StockController handles HTTP requests for the stock ledger
type StockController struct {
	repository repository.StockRepositoryInterface
}

// NewStockController creates a new StockController
func NewStockController(repo repository.StockRepositoryInterface) *StockController {
	return &StockController{repository: repo}
}

// List handles GET /stock
// Query parameters: category (GB, MG, PM, G, P, C), article (code prefix), grouped (true|false)
// Example response with grouped=true:
// [
//   {
//     "articolo": "GB101",
//     "colore": "NERO",
//     "categoria": "GB",
//     "categoriaLabel": "Giubbotti",
//     "sizes": [{"sku": "GB101-NERO-48", "taglia": "48", "qty": 4, "prezzo": "89"}]
//   }
// ]
func (c *StockController) List(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ListStock: Received %s request to %s", r.Method, r.URL.Path)

	q := r.URL.Query()
	filter := models.StockFilter{
		Category: q.Get("category"),
		Article:  q.Get("article"),
	}

	grouped := false
	if raw := q.Get("grouped"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid grouped parameter", http.StatusBadRequest)
			return
		}
		grouped = v
	}

	items, err := c.repository.List(r.Context(), filter)
	if err != nil {
		writeError(w, "ListStock", err)
		return
	}

	if grouped {
		groups := utils.GroupStock(items)
		if groups == nil {
			groups = []models.StockGroup{}
		}
		writeJSON(w, http.StatusOK, groups)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Categories handles GET /stock/categories
// Example response: [{"code": "GB", "label": "Giubbotti"}, ...]
func (c *StockController) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, utils.Categories())
}
