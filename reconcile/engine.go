package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mars3lo-orders/models"
)

// Reasons attached to line issues
const (
	ReasonSKUNotFound       = "sku not found in stock"
	ReasonInsufficientStock = "insufficient stock"
)

// Ledger is the stock ledger as seen by reconciliation
type Ledger interface {
	// Available returns the current quantity of sku, models.ErrNotFound when the sku is absent
	Available(ctx context.Context, sku string) (int, error)
	// Decrement atomically removes up to amount units and returns how many were removed.
	// When amount exceeds the current quantity the removal is capped and
	// models.ErrInsufficientStock is returned together with the applied amount.
	Decrement(ctx context.Context, sku string, amount int) (int, error)
}

// LineWriter persists the outcome of a review or cancel
type LineWriter interface {
	SetLineConfirmed(ctx context.Context, lineID int64, qty int) error
	SetStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

// Store is everything a review needs, usually one database transaction
type Store interface {
	Ledger
	LineWriter
}

// Result is the outcome of a review
type Result struct {
	Lines  []models.OrderLine
	Status models.OrderStatus
	Issues []models.LineIssue
}

// Review resolves the requested quantities of a pending order into confirmed quantities.
// Lines are processed one after the other. For each line the entered quantity
// (defaulting to the requested one) is clamped to [0, requested], capped at the
// available stock and decremented from the ledger before the line is persisted.
// A missing sku or a short decrement flags the line and continues with the next one;
// any other ledger or write failure aborts the review with a *models.StepError.
func Review(ctx context.Context, store Store, order models.OrderWithLines, entered map[int64]int) (*Result, error) {
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", models.ErrInvalidTransition, order.ID, order.Status)
	}
	if err := checkEntered(order, entered); err != nil {
		return nil, err
	}

	result := &Result{Lines: make([]models.OrderLine, 0, len(order.Lines))}

	for _, line := range order.Lines {
		want, ok := entered[line.ID]
		if !ok {
			want = line.RequestedQty
		}
		target := clamp(want, 0, line.RequestedQty)

		confirmed, issue, err := confirmLine(ctx, store, line, target)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			issue.Entered = want
			result.Issues = append(result.Issues, *issue)
			log.Printf("⚠️  Review: order %s line %d (%s): %s, confirmed %d of %d", order.ID, line.ID, line.SKU, issue.Reason, confirmed, target)
		}

		if err := store.SetLineConfirmed(ctx, line.ID, confirmed); err != nil {
			return nil, models.NewStepError(fmt.Sprintf("persist line %d", line.ID), err)
		}

		line.ConfirmedQty = &confirmed
		result.Lines = append(result.Lines, line)
	}

	result.Status = StatusFor(result.Lines)
	if err := store.SetStatus(ctx, order.ID, result.Status); err != nil {
		return nil, models.NewStepError("persist order status", err)
	}

	return result, nil
}

// confirmLine checks and decrements stock for one line and returns the quantity actually confirmed
func confirmLine(ctx context.Context, ledger Ledger, line models.OrderLine, target int) (int, *models.LineIssue, error) {
	if target == 0 {
		return 0, nil, nil
	}

	available, err := ledger.Available(ctx, line.SKU)
	if errors.Is(err, models.ErrNotFound) {
		return 0, newIssue(line, 0, ReasonSKUNotFound), nil
	}
	if err != nil {
		return 0, nil, models.NewStepError(fmt.Sprintf("check stock %s", line.SKU), err)
	}

	var issue *models.LineIssue
	if available < target {
		target = max(available, 0)
		issue = newIssue(line, target, ReasonInsufficientStock)
		if target == 0 {
			return 0, issue, nil
		}
	}

	applied, err := ledger.Decrement(ctx, line.SKU, target)
	switch {
	case err == nil:
		return applied, issue, nil
	case errors.Is(err, models.ErrInsufficientStock):
		// Stock moved between the check and the decrement; keep what was applied.
		return applied, newIssue(line, applied, ReasonInsufficientStock), nil
	case errors.Is(err, models.ErrNotFound):
		return 0, newIssue(line, 0, ReasonSKUNotFound), nil
	default:
		return 0, nil, models.NewStepError(fmt.Sprintf("decrement stock %s", line.SKU), err)
	}
}

// Cancel zeroes every line of a pending order and marks it cancelled. Stock is never touched.
// Cancelling an order that is already cancelled does nothing and succeeds.
func Cancel(ctx context.Context, writer LineWriter, order models.OrderWithLines) (*Result, error) {
	if order.Status == models.StatusCancelled {
		return &Result{Lines: order.Lines, Status: models.StatusCancelled}, nil
	}
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", models.ErrInvalidTransition, order.ID, order.Status)
	}

	result := &Result{Lines: make([]models.OrderLine, 0, len(order.Lines)), Status: models.StatusCancelled}
	for _, line := range order.Lines {
		zero := 0
		if err := writer.SetLineConfirmed(ctx, line.ID, zero); err != nil {
			return nil, models.NewStepError(fmt.Sprintf("persist line %d", line.ID), err)
		}
		line.ConfirmedQty = &zero
		result.Lines = append(result.Lines, line)
	}

	if err := writer.SetStatus(ctx, order.ID, models.StatusCancelled); err != nil {
		return nil, models.NewStepError("persist order status", err)
	}

	return result, nil
}

// StatusFor derives the terminal status from the confirmed quantities.
// Every line fully confirmed gives Confirmed, every line at zero gives Cancelled,
// anything else is PartiallyFulfilled. An order without lines is Cancelled.
func StatusFor(lines []models.OrderLine) models.OrderStatus {
	if len(lines) == 0 {
		return models.StatusCancelled
	}

	allFull, allZero := true, true
	for _, l := range lines {
		c := l.Confirmed()
		if c != l.RequestedQty {
			allFull = false
		}
		if c != 0 {
			allZero = false
		}
	}

	switch {
	case allFull:
		return models.StatusConfirmed
	case allZero:
		return models.StatusCancelled
	default:
		return models.StatusPartiallyFulfilled
	}
}

func checkEntered(order models.OrderWithLines, entered map[int64]int) error {
	known := make(map[int64]bool, len(order.Lines))
	for _, l := range order.Lines {
		known[l.ID] = true
	}
	for id := range entered {
		if !known[id] {
			return fmt.Errorf("%w: line %d does not belong to order %s", models.ErrValidation, id, order.ID)
		}
	}
	return nil
}

func newIssue(line models.OrderLine, confirmed int, reason string) *models.LineIssue {
	return &models.LineIssue{
		LineID:    line.ID,
		SKU:       line.SKU,
		Confirmed: confirmed,
		Reason:    reason,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
