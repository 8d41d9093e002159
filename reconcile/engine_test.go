package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"mars3lo-orders/models"
)

// memStore is an in-memory Store with a capped decrement, like the decrement_stock procedure
type memStore struct {
	stock     map[string]int
	confirmed map[int64]int
	status    map[string]models.OrderStatus

	decrementCalls int
	failLine       int64
	failDecrement  string
	// steal is removed from a sku's stock right after Available, simulating a concurrent review
	steal map[string]int
}

func newMemStore(stock map[string]int) *memStore {
	return &memStore{
		stock:     stock,
		confirmed: map[int64]int{},
		status:    map[string]models.OrderStatus{},
		steal:     map[string]int{},
	}
}

func (s *memStore) Available(_ context.Context, sku string) (int, error) {
	qty, ok := s.stock[sku]
	if !ok {
		return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	if n := s.steal[sku]; n > 0 {
		s.stock[sku] = max(qty-n, 0)
	}
	return qty, nil
}

func (s *memStore) Decrement(_ context.Context, sku string, amount int) (int, error) {
	s.decrementCalls++
	if sku == s.failDecrement {
		return 0, errors.New("connection reset")
	}
	qty, ok := s.stock[sku]
	if !ok {
		return 0, fmt.Errorf("sku %s: %w", sku, models.ErrNotFound)
	}
	applied := min(amount, qty)
	s.stock[sku] = qty - applied
	if applied < amount {
		return applied, fmt.Errorf("sku %s: %w", sku, models.ErrInsufficientStock)
	}
	return applied, nil
}

func (s *memStore) SetLineConfirmed(_ context.Context, lineID int64, qty int) error {
	if lineID == s.failLine {
		return errors.New("write timeout")
	}
	s.confirmed[lineID] = qty
	return nil
}

func (s *memStore) SetStatus(_ context.Context, orderID string, status models.OrderStatus) error {
	s.status[orderID] = status
	return nil
}

func pendingOrder(lines ...models.OrderLine) models.OrderWithLines {
	for i := range lines {
		lines[i].ID = int64(i + 1)
		lines[i].OrderID = "o1"
	}
	return models.OrderWithLines{
		Order: models.Order{ID: "o1", Customer: "Boutique Rossi", Status: models.StatusPending},
		Lines: lines,
	}
}

func TestReviewPartialFulfilment(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10, "B": 2})
	order := pendingOrder(
		models.OrderLine{SKU: "A", RequestedQty: 5},
		models.OrderLine{SKU: "B", RequestedQty: 3},
	)

	res, err := Review(context.Background(), store, order, map[int64]int{1: 5, 2: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, store.stock["A"])
	assert.Equal(t, 0, store.stock["B"])
	assert.Equal(t, models.StatusPartiallyFulfilled, res.Status)
	assert.Equal(t, models.StatusPartiallyFulfilled, store.status["o1"])
	assert.Equal(t, 5, store.confirmed[1])
	assert.Equal(t, 2, store.confirmed[2])
	assert.Equal(t, 2, res.Lines[1].Confirmed())

	require.Len(t, res.Issues, 1)
	assert.Equal(t, int64(2), res.Issues[0].LineID)
	assert.Equal(t, 3, res.Issues[0].Entered)
	assert.Equal(t, 2, res.Issues[0].Confirmed)
	assert.Equal(t, ReasonInsufficientStock, res.Issues[0].Reason)
}

func TestReviewFullConfirmation(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10, "B": 5})
	order := pendingOrder(
		models.OrderLine{SKU: "A", RequestedQty: 5},
		models.OrderLine{SKU: "B", RequestedQty: 3},
	)

	// No entries: every line defaults to its requested quantity.
	res, err := Review(context.Background(), store, order, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, res.Status)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 5, store.stock["A"])
	assert.Equal(t, 2, store.stock["B"])
}

func TestReviewClampsEnteredQuantities(t *testing.T) {
	store := newMemStore(map[string]int{"A": 100, "B": 100})
	order := pendingOrder(
		models.OrderLine{SKU: "A", RequestedQty: 5},
		models.OrderLine{SKU: "B", RequestedQty: 3},
	)

	res, err := Review(context.Background(), store, order, map[int64]int{1: 50, 2: -4})
	require.NoError(t, err)

	assert.Equal(t, 5, store.confirmed[1])
	assert.Equal(t, 0, store.confirmed[2])
	assert.Equal(t, 95, store.stock["A"])
	assert.Equal(t, 100, store.stock["B"])
	assert.Equal(t, models.StatusPartiallyFulfilled, res.Status)
}

func TestReviewAllZeroCancels(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 5})

	res, err := Review(context.Background(), store, order, map[int64]int{1: 0})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, res.Status)
	assert.Equal(t, 10, store.stock["A"])
	assert.Zero(t, store.decrementCalls)
}

func TestReviewSkipsMissingSKU(t *testing.T) {
	store := newMemStore(map[string]int{"B": 10})
	order := pendingOrder(
		models.OrderLine{SKU: "A", RequestedQty: 5},
		models.OrderLine{SKU: "B", RequestedQty: 3},
	)

	res, err := Review(context.Background(), store, order, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, store.confirmed[1])
	assert.Equal(t, 3, store.confirmed[2])
	assert.Equal(t, 7, store.stock["B"])
	assert.Equal(t, models.StatusPartiallyFulfilled, res.Status)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, ReasonSKUNotFound, res.Issues[0].Reason)
}

func TestReviewConcurrentDepletionKeepsAppliedAmount(t *testing.T) {
	store := newMemStore(map[string]int{"A": 5})
	store.steal["A"] = 3
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 5})

	res, err := Review(context.Background(), store, order, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, store.confirmed[1])
	assert.Equal(t, 0, store.stock["A"])
	assert.Equal(t, models.StatusPartiallyFulfilled, res.Status)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 2, res.Issues[0].Confirmed)
}

func TestReviewAbortsOnLineWriteFailure(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10, "B": 10})
	store.failLine = 2
	order := pendingOrder(
		models.OrderLine{SKU: "A", RequestedQty: 1},
		models.OrderLine{SKU: "B", RequestedQty: 1},
	)

	_, err := Review(context.Background(), store, order, nil)
	require.Error(t, err)

	var stepErr *models.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "persist line 2", stepErr.Step)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.NotContains(t, store.status, "o1")
}

func TestReviewAbortsOnDecrementFailure(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	store.failDecrement = "A"
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 1})

	_, err := Review(context.Background(), store, order, nil)

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Contains(t, err.Error(), "decrement stock A")
}

func TestReviewRejectsNonPending(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 1})
	order.Status = models.StatusConfirmed

	_, err := Review(context.Background(), store, order, nil)

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Zero(t, store.decrementCalls)
}

func TestReviewRejectsUnknownLine(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 1})

	_, err := Review(context.Background(), store, order, map[int64]int{99: 1})

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, store.decrementCalls)
}

func TestCancel(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	order := pendingOrder(
		models.OrderLine{SKU: "A", RequestedQty: 5},
		models.OrderLine{SKU: "A", RequestedQty: 1},
	)

	res, err := Cancel(context.Background(), store, order)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, res.Status)
	assert.Equal(t, 0, store.confirmed[1])
	assert.Equal(t, 0, store.confirmed[2])
	assert.Equal(t, 10, store.stock["A"])
	assert.Zero(t, store.decrementCalls)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 5})

	res, err := Cancel(context.Background(), store, order)
	require.NoError(t, err)

	order.Status = res.Status
	order.Lines = res.Lines
	_, err = Cancel(context.Background(), store, order)
	require.NoError(t, err)

	assert.Equal(t, 10, store.stock["A"])
	assert.Zero(t, store.decrementCalls)
}

func TestCancelRejectsReviewedOrder(t *testing.T) {
	store := newMemStore(map[string]int{"A": 10})
	order := pendingOrder(models.OrderLine{SKU: "A", RequestedQty: 5})
	order.Status = models.StatusPartiallyFulfilled

	_, err := Cancel(context.Background(), store, order)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestStatusFor(t *testing.T) {
	conf := func(req, c int) models.OrderLine {
		return models.OrderLine{RequestedQty: req, ConfirmedQty: &c}
	}

	assert.Equal(t, models.StatusConfirmed, StatusFor([]models.OrderLine{conf(2, 2), conf(1, 1)}))
	assert.Equal(t, models.StatusCancelled, StatusFor([]models.OrderLine{conf(2, 0), conf(1, 0)}))
	assert.Equal(t, models.StatusPartiallyFulfilled, StatusFor([]models.OrderLine{conf(2, 2), conf(1, 0)}))
	assert.Equal(t, models.StatusPartiallyFulfilled, StatusFor([]models.OrderLine{conf(2, 1)}))
	assert.Equal(t, models.StatusCancelled, StatusFor(nil))
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.IntRange(0, 50).Draw(t, "qty")
		amount := rapid.IntRange(0, 80).Draw(t, "amount")
		store := newMemStore(map[string]int{"A": qty})

		applied, err := store.Decrement(context.Background(), "A", amount)

		if store.stock["A"] < 0 {
			t.Fatalf("stock went negative: %d", store.stock["A"])
		}
		if amount > qty {
			if !errors.Is(err, models.ErrInsufficientStock) {
				t.Fatalf("expected insufficient stock, got %v", err)
			}
			if applied != qty {
				t.Fatalf("applied %d, want %d", applied, qty)
			}
		} else if err != nil || applied != amount {
			t.Fatalf("applied %d err %v, want %d", applied, err, amount)
		}
	})
}

func TestReviewInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		skus := []string{"A", "B", "C"}
		stock := map[string]int{}
		for _, s := range skus {
			stock[s] = rapid.IntRange(0, 10).Draw(t, "stock_"+s)
		}
		initial := map[string]int{}
		for k, v := range stock {
			initial[k] = v
		}
		store := newMemStore(stock)

		n := rapid.IntRange(1, 6).Draw(t, "lines")
		var lines []models.OrderLine
		entered := map[int64]int{}
		for i := 0; i < n; i++ {
			lines = append(lines, models.OrderLine{
				SKU:          rapid.SampledFrom(append(skus, "MISSING")).Draw(t, "sku"),
				RequestedQty: rapid.IntRange(1, 8).Draw(t, "requested"),
			})
			if rapid.Bool().Draw(t, "entered") {
				entered[int64(i+1)] = rapid.IntRange(-3, 12).Draw(t, "confirmed")
			}
		}
		order := pendingOrder(lines...)

		res, err := Review(context.Background(), store, order, entered)
		if err != nil {
			t.Fatalf("review failed: %v", err)
		}

		used := map[string]int{}
		for _, l := range res.Lines {
			c := l.Confirmed()
			if c < 0 || c > l.RequestedQty {
				t.Fatalf("line %d confirmed %d outside [0, %d]", l.ID, c, l.RequestedQty)
			}
			used[l.SKU] += c
		}
		for _, s := range skus {
			if store.stock[s] < 0 {
				t.Fatalf("stock %s negative", s)
			}
			if initial[s]-store.stock[s] != used[s] {
				t.Fatalf("stock %s moved by %d, confirmed %d", s, initial[s]-store.stock[s], used[s])
			}
		}
		if res.Status != StatusFor(res.Lines) || store.status["o1"] != res.Status {
			t.Fatalf("status %s not derived from lines", res.Status)
		}
	})
}
