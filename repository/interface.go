package repository

import (
	"context"
	"database/sql"

	"mars3lo-orders/cart"
	"mars3lo-orders/models"
	"mars3lo-orders/reconcile"
)

// StockRepositoryInterface defines the contract for the stock ledger
type StockRepositoryInterface interface {
	List(ctx context.Context, filter models.StockFilter) ([]models.StockItem, error)
	GetBySKU(ctx context.Context, sku string) (*models.StockItem, error)
	Available(ctx context.Context, sku string) (int, error)
	Decrement(ctx context.Context, sku string, amount int) (int, error)
}

// ReviewFunc runs inside the review transaction with the order row locked
type ReviewFunc func(ctx context.Context, order *models.OrderWithLines, store reconcile.Store) error

// OrderRepositoryInterface defines the contract for order repository operations
type OrderRepositoryInterface interface {
	Create(ctx context.Context, order models.Order, lines []models.OrderLine) (*models.OrderWithLines, error)
	GetByID(ctx context.Context, id string) (*models.OrderWithLines, error)
	List(ctx context.Context, status *models.OrderStatus) ([]models.OrderListItem, error)
	LockForReview(ctx context.Context, id string, fn ReviewFunc) (*models.OrderWithLines, error)
	Delete(ctx context.Context, id string) error
}

// CartStoreInterface stores the cart of each showroom session
type CartStoreInterface interface {
	Load(ctx context.Context, sessionID string) (cart.Cart, error)
	Save(ctx context.Context, sessionID string, c cart.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
