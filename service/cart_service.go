package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"mars3lo-orders/cart"
	"mars3lo-orders/models"
	"mars3lo-orders/repository"
)

// CartService applies cart operations to the cart owned by one showroom session
type CartService struct {
	store  repository.CartStoreInterface
	stock  repository.StockRepositoryInterface
	orders *OrderService
}

// NewCartService creates a new CartService
func NewCartService(store repository.CartStoreInterface, stock repository.StockRepositoryInterface, orders *OrderService) *CartService {
	return &CartService{store: store, stock: stock, orders: orders}
}

// Get returns the session's cart
func (s *CartService) Get(ctx context.Context, sessionID string) (cart.Cart, error) {
	return s.store.Load(ctx, sessionID)
}

// SetLine stages qty units of sku. A quantity <= 0 removes the line.
// Article metadata and the unit price are copied from the stock row.
func (s *CartService) SetLine(ctx context.Context, sessionID, sku string, qty int) (cart.Cart, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return cart.Cart{}, fmt.Errorf("%w: sku cannot be empty", models.ErrValidation)
	}

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return cart.Cart{}, err
	}

	if qty <= 0 {
		c = cart.Remove(c, sku)
	} else {
		item, err := s.stock.GetBySKU(ctx, sku)
		if err != nil {
			return cart.Cart{}, err
		}
		c = cart.Upsert(c, item.SKU, qty, item.Price, cart.MetaFromStock(*item))
	}

	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return cart.Cart{}, err
	}
	log.Printf("✓ Cart: session=%s sku=%s qty=%d lines=%d", shortID(sessionID), sku, qty, len(c.Lines))
	return c, nil
}

// ClearGroup removes every line of one (article, color) group
func (s *CartService) ClearGroup(ctx context.Context, sessionID, article, color string) (cart.Cart, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return cart.Cart{}, err
	}
	c = cart.ClearArticleColor(c, article, color)
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return cart.Cart{}, err
	}
	return c, nil
}

// Clear empties the session's cart
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// Totals computes gross and net of the session's cart
func (s *CartService) Totals(ctx context.Context, sessionID string, discount decimal.Decimal) (models.Totals, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return models.Totals{}, err
	}
	return cart.Totals(c, discount), nil
}

// Submit sends the session's cart as a new order and clears the cart on success
func (s *CartService) Submit(ctx context.Context, sessionID string, req models.SubmitOrderRequest) (*models.OrderView, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view, err := s.orders.Submit(ctx, req.Customer, req.Discount, c)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		// The order is committed; a stale cart only needs a manual clear.
		log.Printf("⚠️  Cart: order %s submitted but cart of session %s was not cleared: %v", view.ID, shortID(sessionID), err)
	}
	return view, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
