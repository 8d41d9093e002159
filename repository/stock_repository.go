package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"mars3lo-orders/models"
	"mars3lo-orders/utils"
)

// StockRepository handles database operations for the stock ledger
type StockRepository struct {
	conn *sql.DB
}

// NewStockRepository creates a new StockRepository
func NewStockRepository(conn *sql.DB) *StockRepository {
	return &StockRepository{conn: conn}
}

// Ensure StockRepository implements StockRepositoryInterface
var _ StockRepositoryInterface = (*StockRepository)(nil)

// List returns the stock rows ordered by article, color and size.
// An empty categoria column is filled from the article code prefix.
func (r *StockRepository) List(ctx context.Context, filter models.StockFilter) ([]models.StockItem, error) {
	log.Printf("📦 ListStock: category=%q article=%q", filter.Category, filter.Article)

	query := `
		SELECT sku, articolo, categoria, colore, taglia, qty, prezzo
		FROM stock
	`
	var args []any
	if article := strings.TrimSpace(filter.Article); article != "" {
		query += ` WHERE articolo ILIKE $1`
		args = append(args, article+"%")
	}
	query += ` ORDER BY articolo, colore, taglia`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("❌ ListStock: Error querying stock: %v", err)
		return nil, persistenceError("list stock", err)
	}
	defer rows.Close()

	category := strings.ToUpper(strings.TrimSpace(filter.Category))
	items := []models.StockItem{}
	for rows.Next() {
		var item models.StockItem
		if err := rows.Scan(&item.SKU, &item.Article, &item.Category, &item.Color, &item.Size, &item.Qty, &item.Price); err != nil {
			log.Printf("❌ ListStock: Error scanning row: %v", err)
			return nil, persistenceError("scan stock row", err)
		}
		if item.Category == "" {
			item.Category = utils.CategoryForArticle(item.Article).Code
		}
		if category != "" && !strings.EqualFold(item.Category, category) {
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Printf("❌ ListStock: Error iterating rows: %v", err)
		return nil, persistenceError("iterate stock rows", err)
	}

	log.Printf("✅ ListStock: Found %d stock rows", len(items))
	return items, nil
}

// GetBySKU returns one stock row
func (r *StockRepository) GetBySKU(ctx context.Context, sku string) (*models.StockItem, error) {
	query := `
		SELECT sku, articolo, categoria, colore, taglia, qty, prezzo
		FROM stock
		WHERE sku = $1
	`

	var item models.StockItem
	err := r.conn.QueryRowContext(ctx, query, sku).Scan(
		&item.SKU, &item.Article, &item.Category, &item.Color, &item.Size, &item.Qty, &item.Price,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
		}
		log.Printf("❌ GetStock: Error fetching sku=%s: %v", sku, err)
		return nil, persistenceError("get stock", err)
	}
	if item.Category == "" {
		item.Category = utils.CategoryForArticle(item.Article).Code
	}

	return &item, nil
}

// Available returns the current quantity of sku
func (r *StockRepository) Available(ctx context.Context, sku string) (int, error) {
	return availableQty(ctx, r.conn, sku)
}

// Decrement atomically removes up to amount units of sku, see decrementStock
func (r *StockRepository) Decrement(ctx context.Context, sku string, amount int) (int, error) {
	return decrementStock(ctx, r.conn, sku, amount)
}

func availableQty(ctx context.Context, q querier, sku string) (int, error) {
	var qty int
	err := q.QueryRowContext(ctx, `SELECT qty FROM stock WHERE sku = $1`, sku).Scan(&qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
		}
		log.Printf("❌ Available: Error reading sku=%s: %v", sku, err)
		return 0, persistenceError("read stock", err)
	}
	return qty, nil
}

// decrementStock calls the decrement_stock procedure, which takes the row lock and
// removes min(amount, qty). When less than amount was removed the applied amount is
// returned together with models.ErrInsufficientStock.
func decrementStock(ctx context.Context, q querier, sku string, amount int) (int, error) {
	log.Printf("📦 Decrement: sku=%s amount=%d", sku, amount)

	if amount < 0 {
		return 0, fmt.Errorf("%w: decrement amount must be >= 0, got %d", models.ErrValidation, amount)
	}

	var applied, remaining int
	err := q.QueryRowContext(ctx, `SELECT applied, remaining FROM decrement_stock($1, $2)`, sku, amount).Scan(&applied, &remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("❌ Decrement: sku not found: %s", sku)
			return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
		}
		log.Printf("❌ Decrement: Error decrementing sku=%s: %v", sku, err)
		return 0, persistenceError("decrement stock", err)
	}

	if applied < amount {
		log.Printf("⚠️  Decrement: sku=%s capped, requested=%d applied=%d remaining=%d", sku, amount, applied, remaining)
		return applied, fmt.Errorf("sku %s: requested %d, applied %d: %w", sku, amount, applied, models.ErrInsufficientStock)
	}

	log.Printf("✅ Decrement: sku=%s applied=%d remaining=%d", sku, applied, remaining)
	return applied, nil
}
