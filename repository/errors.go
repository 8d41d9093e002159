package repository

import (
	"context"
	"errors"
	"fmt"

	"mars3lo-orders/models"
)

// persistenceError marks err as a backend failure. A deadline hit during a write
// leaves the outcome unknown, so the message asks for a manual re-check.
func persistenceError(action string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s (outcome unknown, re-check before retrying): %w: %w", action, models.ErrPersistence, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", action, models.ErrPersistence, err)
}
