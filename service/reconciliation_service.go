package service

import (
	"context"
	"fmt"
	"log"

	"mars3lo-orders/models"
	"mars3lo-orders/pricing"
	"mars3lo-orders/reconcile"
	"mars3lo-orders/repository"
)

// ReconciliationService runs warehouse reviews and cancellations inside one
// transaction per order
type ReconciliationService struct {
	orders    repository.OrderRepositoryInterface
	publisher EventPublisherInterface
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(orders repository.OrderRepositoryInterface, publisher EventPublisherInterface) *ReconciliationService {
	return &ReconciliationService{orders: orders, publisher: publisher}
}

// Review confirms the order with the warehouse-entered quantities.
// Lines missing from the request are confirmed at their requested quantity.
func (s *ReconciliationService) Review(ctx context.Context, orderID string, req models.ReviewOrderRequest) (*models.ReviewResponse, error) {
	entered := make(map[int64]int, len(req.Lines))
	for _, l := range req.Lines {
		if _, dup := entered[l.LineID]; dup {
			return nil, fmt.Errorf("%w: line %d entered twice", models.ErrValidation, l.LineID)
		}
		entered[l.LineID] = l.Confirmed
	}

	log.Printf("📦 Review: order=%s entries=%d", orderID, len(entered))

	var result *reconcile.Result
	order, err := s.orders.LockForReview(ctx, orderID, func(ctx context.Context, locked *models.OrderWithLines, store reconcile.Store) error {
		var err error
		result, err = reconcile.Review(ctx, store, *locked, entered)
		return err
	})
	if err != nil {
		log.Printf("❌ Review: order=%s failed: %v", orderID, err)
		return nil, err
	}

	publishEvent(ctx, s.publisher, newOrderEvent(models.EventOrderReviewed, order.ID, order.Status))

	issues := result.Issues
	if issues == nil {
		issues = []models.LineIssue{}
	}
	log.Printf("✅ Review: order=%s status=%s issues=%d", order.ID, order.Status, len(issues))
	return &models.ReviewResponse{Order: pricing.BuildView(*order), Issues: issues}, nil
}

// Cancel zeroes a pending order without touching stock.
// Cancelling an already cancelled order succeeds and changes nothing.
func (s *ReconciliationService) Cancel(ctx context.Context, orderID string) (*models.OrderView, error) {
	log.Printf("📦 Cancel: order=%s", orderID)

	alreadyCancelled := false
	order, err := s.orders.LockForReview(ctx, orderID, func(ctx context.Context, locked *models.OrderWithLines, store reconcile.Store) error {
		alreadyCancelled = locked.Status == models.StatusCancelled
		_, err := reconcile.Cancel(ctx, store, *locked)
		return err
	})
	if err != nil {
		log.Printf("❌ Cancel: order=%s failed: %v", orderID, err)
		return nil, err
	}

	if !alreadyCancelled {
		publishEvent(ctx, s.publisher, newOrderEvent(models.EventOrderCancelled, order.ID, order.Status))
	}

	view := pricing.BuildView(*order)
	log.Printf("✅ Cancel: order=%s cancelled", order.ID)
	return &view, nil
}
