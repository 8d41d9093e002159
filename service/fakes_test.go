package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mars3lo-orders/models"
	"mars3lo-orders/reconcile"
	"mars3lo-orders/repository"
)

// memDB is an in-memory stand-in for the Postgres repositories. Reviews work on a
// copy and only replace the stored state when the review function succeeds.
type memDB struct {
	mu       sync.Mutex
	stock    map[string]models.StockItem
	orders   map[string]*models.OrderWithLines
	nextLine int64

	failCreate error
}

func newMemDB(items ...models.StockItem) *memDB {
	m := &memDB{stock: map[string]models.StockItem{}, orders: map[string]*models.OrderWithLines{}}
	for _, it := range items {
		m.stock[it.SKU] = it
	}
	return m
}

func stockItem(sku string, qty int, price string) models.StockItem {
	return models.StockItem{
		SKU: sku, Article: "GB1", Color: "NERO", Size: sku, Qty: qty,
		Price: decimal.RequireFromString(price),
	}
}

// memDB as StockRepositoryInterface

func (m *memDB) List(_ context.Context, _ models.StockFilter) ([]models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StockItem
	for _, it := range m.stock {
		out = append(out, it)
	}
	return out, nil
}

func (m *memDB) GetBySKU(_ context.Context, sku string) (*models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.stock[sku]
	if !ok {
		return nil, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	return &it, nil
}

func (m *memDB) Available(_ context.Context, sku string) (int, error) {
	it, err := m.GetBySKU(context.Background(), sku)
	if err != nil {
		return 0, err
	}
	return it.Qty, nil
}

func (m *memDB) Decrement(_ context.Context, sku string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decrementIn(m.stock, sku, amount)
}

func decrementIn(stock map[string]models.StockItem, sku string, amount int) (int, error) {
	it, ok := stock[sku]
	if !ok {
		return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	applied := min(amount, it.Qty)
	it.Qty -= applied
	stock[sku] = it
	if applied < amount {
		return applied, fmt.Errorf("sku %s: %w", sku, models.ErrInsufficientStock)
	}
	return applied, nil
}

var _ repository.StockRepositoryInterface = (*memDB)(nil)

// memOrders exposes memDB as OrderRepositoryInterface
type memOrders struct{ *memDB }

var _ repository.OrderRepositoryInterface = memOrders{}

func (o memOrders) Create(_ context.Context, order models.Order, lines []models.OrderLine) (*models.OrderWithLines, error) {
	if o.failCreate != nil {
		return nil, models.NewStepError("insert order", o.failCreate)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	saved := &models.OrderWithLines{Order: order}
	for _, l := range lines {
		o.nextLine++
		l.ID = o.nextLine
		saved.Lines = append(saved.Lines, l)
	}
	o.orders[order.ID] = saved
	return cloneOrder(saved), nil
}

func (o memOrders) GetByID(_ context.Context, id string) (*models.OrderWithLines, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	saved, ok := o.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return cloneOrder(saved), nil
}

func (o memOrders) List(_ context.Context, status *models.OrderStatus) ([]models.OrderListItem, error) {
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

func (o memOrders) LockForReview(ctx context.Context, id string, fn repository.ReviewFunc) (*models.OrderWithLines, error) {
	o.mu.Lock()
	saved, ok := o.orders[id]
	if !ok {
		o.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	tx := &memTx{order: cloneOrder(saved), stock: map[string]models.StockItem{}}
	for k, v := range o.stock {
		tx.stock[k] = v
	}
	o.mu.Unlock()

	if err := fn(ctx, cloneOrder(saved), tx); err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.stock = tx.stock
	o.orders[id] = tx.order
	o.mu.Unlock()
	return o.GetByID(ctx, id)
}

func (o memOrders) Delete(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	delete(o.orders, id)
	return nil
}

// memTx is the uncommitted state of one review
type memTx struct {
	order *models.OrderWithLines
	stock map[string]models.StockItem
}

var _ reconcile.Store = (*memTx)(nil)

func (t *memTx) Available(_ context.Context, sku string) (int, error) {
	it, ok := t.stock[sku]
	if !ok {
		return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	return it.Qty, nil
}

func (t *memTx) Decrement(_ context.Context, sku string, amount int) (int, error) {
	return decrementIn(t.stock, sku, amount)
}

func (t *memTx) SetLineConfirmed(_ context.Context, lineID int64, qty int) error {
	for i := range t.order.Lines {
		if t.order.Lines[i].ID == lineID {
			q := qty
			t.order.Lines[i].ConfirmedQty = &q
			return nil
		}
	}
	return fmt.Errorf("line %d: %w", lineID, models.ErrNotFound)
}

func (t *memTx) SetStatus(_ context.Context, _ string, status models.OrderStatus) error {
	t.order.Status = status
	return nil
}

func cloneOrder(o *models.OrderWithLines) *models.OrderWithLines {
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

// recordingPublisher keeps published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakePDF returns a fixed document and remembers the HTML it was given
type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

// fakeDrive records uploads
type fakeDrive struct {
	folder string
	name   string
	mime   string
	size   int
}

func (d *fakeDrive) Upload(_ context.Context, folderID, name, mimeType string, data []byte) (string, error) {
	if folderID == "" {
		return "", errors.New("missing folder")
	}
	d.folder, d.name, d.mime, d.size = folderID, name, mimeType, len(data)
	return "drive-file-1", nil
}
