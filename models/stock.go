package models

import "github.com/shopspring/decimal"

// StockItem represents one row of the stock table: the available units of one
// (article, color, size) combination.
type StockItem struct {
	SKU      string          `json:"sku"`
	Article  string          `json:"articolo"`
	Category string          `json:"categoria"`
	Color    string          `json:"colore"`
	Size     string          `json:"taglia"`
	Qty      int             `json:"qty"`
	Price    decimal.Decimal `json:"prezzo"`
}

// StockGroup is the showroom view of one article in one color, with all of its sizes.
// Example response:
// {
//   "articolo": "GB101",
//   "colore": "NERO",
//   "categoria": "GB",
//   "categoriaLabel": "Giubbotti",
//   "sizes": [{"sku": "GB101-NERO-48", "taglia": "48", "qty": 4, "prezzo": "89.00"}]
// }
type StockGroup struct {
	Article       string      `json:"articolo"`
	Color         string      `json:"colore"`
	Category      string      `json:"categoria"`
	CategoryLabel string      `json:"categoriaLabel"`
	Sizes         []StockItem `json:"sizes"`
}

// StockFilter narrows a stock listing
type StockFilter struct {
	Category string
	Article  string
}
