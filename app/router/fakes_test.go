package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mars3lo-orders/models"
	"mars3lo-orders/reconcile"
	"mars3lo-orders/repository"
)

// fakeDB backs both repositories with maps. Reviews write straight through.
type fakeDB struct {
	mu       sync.Mutex
	stock    map[string]models.StockItem
	skus     []string
	orders   map[string]*models.OrderWithLines
	nextLine int64
}

func newFakeDB(items ...models.StockItem) *fakeDB {
	db := &fakeDB{stock: map[string]models.StockItem{}, orders: map[string]*models.OrderWithLines{}}
	for _, it := range items {
		db.stock[it.SKU] = it
		db.skus = append(db.skus, it.SKU)
	}
	return db
}

func item(sku, article, color, size string, qty int, price string) models.StockItem {
	return models.StockItem{
		SKU: sku, Article: article, Color: color, Size: size, Qty: qty,
		Price: decimal.RequireFromString(price),
	}
}

type fakeStock struct{ *fakeDB }

var _ repository.StockRepositoryInterface = fakeStock{}

func (s fakeStock) List(_ context.Context, filter models.StockFilter) ([]models.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.StockItem{}
	for _, sku := range s.skus {
		it := s.stock[sku]
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s fakeStock) GetBySKU(_ context.Context, sku string) (*models.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.stock[sku]
	if !ok {
		return nil, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	return &it, nil
}

func (s fakeStock) Available(ctx context.Context, sku string) (int, error) {
	it, err := s.GetBySKU(ctx, sku)
	if err != nil {
		return 0, err
	}
	return it.Qty, nil
}

func (s fakeStock) Decrement(_ context.Context, sku string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.stock[sku]
	if !ok {
		return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	applied := min(amount, it.Qty)
	it.Qty -= applied
	s.stock[sku] = it
	if applied < amount {
		return applied, models.ErrInsufficientStock
	}
	return applied, nil
}

type fakeOrders struct{ *fakeDB }

var _ repository.OrderRepositoryInterface = fakeOrders{}

func (o fakeOrders) Create(_ context.Context, order models.Order, lines []models.OrderLine) (*models.OrderWithLines, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order.CreatedAt = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	order.UpdatedAt = order.CreatedAt
	saved := &models.OrderWithLines{Order: order}
	for _, l := range lines {
		o.nextLine++
		l.ID = o.nextLine
		saved.Lines = append(saved.Lines, l)
	}
	o.orders[order.ID] = saved
	return copyOrder(saved), nil
}

func (o fakeOrders) GetByID(_ context.Context, id string) (*models.OrderWithLines, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	saved, ok := o.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return copyOrder(saved), nil
}

func (o fakeOrders) List(_ context.Context, status *models.OrderStatus) ([]models.OrderListItem, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.OrderListItem
	for _, saved := range o.orders {
		if status != nil && saved.Status != *status {
			continue
		}
		out = append(out, models.OrderListItem{Order: saved.Order, LineCount: len(saved.Lines)})
	}
	return out, nil
}

func (o fakeOrders) LockForReview(ctx context.Context, id string, fn repository.ReviewFunc) (*models.OrderWithLines, error) {
	locked, err := o.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, locked, fakeTx{o}); err != nil {
		return nil, err
	}
	return o.GetByID(ctx, id)
}

func (o fakeOrders) Delete(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	delete(o.orders, id)
	return nil
}

// fakeTx applies review writes directly
type fakeTx struct{ fakeOrders }

var _ reconcile.Store = fakeTx{}

func (t fakeTx) Available(ctx context.Context, sku string) (int, error) {
	return fakeStock{t.fakeDB}.Available(ctx, sku)
}

func (t fakeTx) Decrement(ctx context.Context, sku string, amount int) (int, error) {
	return fakeStock{t.fakeDB}.Decrement(ctx, sku, amount)
}

func (t fakeTx) SetLineConfirmed(_ context.Context, lineID int64, qty int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range t.orders {
		for i := range o.Lines {
			if o.Lines[i].ID == lineID {
				q := qty
				o.Lines[i].ConfirmedQty = &q
				return nil
			}
		}
	}
	return fmt.Errorf("line %d: %w", lineID, models.ErrNotFound)
}

func (t fakeTx) SetStatus(_ context.Context, orderID string, status models.OrderStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	o.Status = status
	return nil
}

func copyOrder(o *models.OrderWithLines) *models.OrderWithLines {
	c := &models.OrderWithLines{Order: o.Order, Lines: make([]models.OrderLine, len(o.Lines))}
	for i, l := range o.Lines {
		if l.ConfirmedQty != nil {
			q := *l.ConfirmedQty
			l.ConfirmedQty = &q
		}
		c.Lines[i] = l
	}
	return c
}
