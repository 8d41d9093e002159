package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"mars3lo-orders/models"
	"mars3lo-orders/reconcile"
)

// OrderRepository handles database operations for orders and their lines
type OrderRepository struct {
	conn *sql.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(conn *sql.DB) *OrderRepository {
	return &OrderRepository{conn: conn}
}

// Ensure OrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

const orderColumns = `id, customer, stato, sconto, created_at, updated_at`

const lineColumns = `id, order_id, sku, articolo, colore, taglia, richiesti, confermati, prezzo`

// Create inserts the order header and all of its lines in one transaction.
// Either everything is written or nothing is.
func (r *OrderRepository) Create(ctx context.Context, order models.Order, lines []models.OrderLine) (*models.OrderWithLines, error) {
	log.Printf("📦 CreateOrder: id=%s customer=%q lines=%d", order.ID, order.Customer, len(lines))

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("❌ CreateOrder: Error starting transaction: %v", err)
		return nil, models.NewStepError("begin submission", persistenceError("start transaction", err))
	}
	defer tx.Rollback()

	queryOrder := `
		INSERT INTO orders (id, customer, stato, sconto)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	order.Status = models.StatusPending
	err = tx.QueryRowContext(ctx, queryOrder, order.ID, order.Customer, string(order.Status), order.Discount).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		log.Printf("❌ CreateOrder: Error inserting order: %v", err)
		return nil, models.NewStepError("insert order", persistenceError("insert order", err))
	}

	queryLine := `
		INSERT INTO order_lines (order_id, sku, articolo, colore, taglia, richiesti, prezzo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	saved := make([]models.OrderLine, 0, len(lines))
	for i, line := range lines {
		line.OrderID = order.ID
		line.ConfirmedQty = nil
		err := tx.QueryRowContext(ctx, queryLine,
			line.OrderID, line.SKU, line.Article, line.Color, line.Size, line.RequestedQty, line.UnitPrice,
		).Scan(&line.ID)
		if err != nil {
			log.Printf("❌ CreateOrder: Error inserting line %d (sku=%s): %v", i+1, line.SKU, err)
			return nil, models.NewStepError(fmt.Sprintf("insert line %d (%s)", i+1, line.SKU), persistenceError("insert order line", err))
		}
		saved = append(saved, line)
	}

	if err := tx.Commit(); err != nil {
		log.Printf("❌ CreateOrder: Error committing transaction: %v", err)
		return nil, models.NewStepError("commit submission", persistenceError("commit order", err))
	}

	log.Printf("✅ CreateOrder: Successfully created order id=%s with %d lines", order.ID, len(saved))
	return &models.OrderWithLines{Order: order, Lines: saved}, nil
}

// GetByID returns an order with its lines
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.OrderWithLines, error) {
	return getOrder(ctx, r.conn, id, false)
}

// List returns orders newest first, optionally filtered by status
func (r *OrderRepository) List(ctx context.Context, status *models.OrderStatus) ([]models.OrderListItem, error) {
	log.Printf("📦 ListOrders: status=%v", status)

	query := `
		SELECT o.id, o.customer, o.stato, o.sconto, o.created_at, o.updated_at,
		       COUNT(l.id), COALESCE(SUM(l.richiesti), 0)
		FROM orders o
		LEFT JOIN order_lines l ON l.order_id = o.id
	`
	var args []any
	if status != nil {
		query += ` WHERE o.stato = $1`
		args = append(args, string(*status))
	}
	query += `
		GROUP BY o.id
		ORDER BY o.created_at DESC
	`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("❌ ListOrders: Error querying orders: %v", err)
		return nil, persistenceError("list orders", err)
	}
	defer rows.Close()

	orders := []models.OrderListItem{}
	for rows.Next() {
		var item models.OrderListItem
		if err := rows.Scan(
			&item.ID, &item.Customer, &item.Status, &item.Discount, &item.CreatedAt, &item.UpdatedAt,
			&item.LineCount, &item.RequestedQty,
		); err != nil {
			log.Printf("❌ ListOrders: Error scanning row: %v", err)
			return nil, persistenceError("scan order row", err)
		}
		orders = append(orders, item)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate order rows", err)
	}

	log.Printf("✅ ListOrders: Found %d orders", len(orders))
	return orders, nil
}

// LockForReview locks the order row, runs fn with a store bound to the same
// transaction and commits when fn succeeds. Any error from fn rolls back every
// stock decrement and line update made inside it.
func (r *OrderRepository) LockForReview(ctx context.Context, id string, fn ReviewFunc) (*models.OrderWithLines, error) {
	log.Printf("📦 LockForReview: id=%s", id)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("❌ LockForReview: Error starting transaction: %v", err)
		return nil, models.NewStepError("begin review", persistenceError("start transaction", err))
	}
	defer tx.Rollback()

	order, err := getOrder(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := fn(ctx, order, &txStore{tx: tx}); err != nil {
		log.Printf("❌ LockForReview: id=%s rolled back: %v", id, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Printf("❌ LockForReview: Error committing id=%s: %v", id, err)
		return nil, models.NewStepError("commit review", persistenceError("commit review", err))
	}

	log.Printf("✅ LockForReview: id=%s committed", id)
	return r.GetByID(ctx, id)
}

// Delete removes an order; its lines go with it through ON DELETE CASCADE
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	log.Printf("📦 DeleteOrder: id=%s", id)

	result, err := r.conn.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		log.Printf("❌ DeleteOrder: Error deleting id=%s: %v", id, err)
		return persistenceError("delete order", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistenceError("delete order", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}

	log.Printf("✅ DeleteOrder: id=%s removed", id)
	return nil
}

func getOrder(ctx context.Context, q querier, id string, forUpdate bool) (*models.OrderWithLines, error) {
	queryOrder := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		queryOrder += ` FOR UPDATE`
	}

	var order models.OrderWithLines
	err := q.QueryRowContext(ctx, queryOrder, id).Scan(
		&order.ID, &order.Customer, &order.Status, &order.Discount, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("❌ GetOrder: Order not found: id=%s", id)
			return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
		}
		log.Printf("❌ GetOrder: Error fetching order: %v", err)
		return nil, persistenceError("fetch order", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		log.Printf("❌ GetOrder: Error fetching lines: %v", err)
		return nil, persistenceError("fetch order lines", err)
	}
	defer rows.Close()

	order.Lines = []models.OrderLine{}
	for rows.Next() {
		var line models.OrderLine
		var confirmed sql.NullInt64
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.SKU, &line.Article, &line.Color, &line.Size,
			&line.RequestedQty, &confirmed, &line.UnitPrice,
		); err != nil {
			log.Printf("❌ GetOrder: Error scanning line: %v", err)
			return nil, persistenceError("scan order line", err)
		}
		if confirmed.Valid {
			c := int(confirmed.Int64)
			line.ConfirmedQty = &c
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate order lines", err)
	}

	return &order, nil
}

// txStore is the reconcile.Store of one review transaction
type txStore struct {
	tx *sql.Tx
}

var _ reconcile.Store = (*txStore)(nil)

func (s *txStore) Available(ctx context.Context, sku string) (int, error) {
	return availableQty(ctx, s.tx, sku)
}

func (s *txStore) Decrement(ctx context.Context, sku string, amount int) (int, error) {
	return decrementStock(ctx, s.tx, sku, amount)
}

func (s *txStore) SetLineConfirmed(ctx context.Context, lineID int64, qty int) error {
	result, err := s.tx.ExecContext(ctx, `UPDATE order_lines SET confermati = $1 WHERE id = $2`, qty, lineID)
	if err != nil {
		log.Printf("❌ SetLineConfirmed: line=%d: %v", lineID, err)
		return persistenceError("update order line", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("order line %d: %w", lineID, models.ErrNotFound)
	}
	return nil
}

func (s *txStore) SetStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	_, err := s.tx.ExecContext(ctx, `UPDATE orders SET stato = $1, updated_at = NOW() WHERE id = $2`, string(status), orderID)
	if err != nil {
		log.Printf("❌ SetStatus: order=%s: %v", orderID, err)
		return persistenceError("update order status", err)
	}
	return nil
}
