package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mars3lo-orders/cart"
	"mars3lo-orders/models"
	"mars3lo-orders/pricing"
	"mars3lo-orders/repository"
)

// OrderService handles order submission and read access to orders
type OrderService struct {
	orders    repository.OrderRepositoryInterface
	publisher EventPublisherInterface
	newID     func() string
}

// NewOrderService creates a new OrderService
func NewOrderService(orders repository.OrderRepositoryInterface, publisher EventPublisherInterface) *OrderService {
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		newID:     func() string { return uuid.New().String() },
	}
}

// Submit turns a non-empty cart and a customer name into a pending order.
// Nothing is written when validation fails.
func (s *OrderService) Submit(ctx context.Context, customer string, discount decimal.Decimal, c cart.Cart) (*models.OrderView, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, fmt.Errorf("%w: customer cannot be empty", models.ErrValidation)
	}
	if c.IsEmpty() {
		return nil, fmt.Errorf("%w: cart is empty", models.ErrValidation)
	}

	order := models.Order{
		ID:       s.newID(),
		Customer: customer,
		Status:   models.StatusPending,
		Discount: pricing.ClampDiscount(discount),
	}

	log.Printf("📦 Submit: order=%s customer=%q lines=%d", order.ID, customer, len(c.Lines))
	created, err := s.orders.Create(ctx, order, cart.OrderLines(c, order.ID))
	if err != nil {
		log.Printf("❌ Submit: order=%s failed: %v", order.ID, err)
		return nil, err
	}

	publishEvent(ctx, s.publisher, newOrderEvent(models.EventOrderSubmitted, created.ID, created.Status))

	view := pricing.BuildView(*created)
	log.Printf("✅ Submit: order=%s submitted, gross=%s", created.ID, view.Requested.Gross.StringFixed(2))
	return &view, nil
}

// Get returns the read-only view of one order
func (s *OrderService) Get(ctx context.Context, id string) (*models.OrderView, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := pricing.BuildView(*order)
	return &view, nil
}

// List returns orders newest first, optionally filtered by status
func (s *OrderService) List(ctx context.Context, status *models.OrderStatus) ([]models.OrderListItem, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, *status)
	}
	return s.orders.List(ctx, status)
}

// Remove deletes an order and its lines. This is the administrative
// "remove from list" action and is distinct from cancelling.
func (s *OrderService) Remove(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.publisher, newOrderEvent(models.EventOrderRemoved, id, ""))
	return nil
}
