package storage

import (
	"context"

	"github.com/chris/membership-rewards/pkg/models"
)

// DistributionStore defines the highly-privileged commit point of the
// engine. Applying a distribution touches several tables (accounts, ledger,
// trigger events, shelter rewards, the buy-back pool) and must land as one
// atomic unit: either every wallet mutation and ledger write commits, or
// none do.
type DistributionStore interface {
	// ApplyDistribution atomically commits a distribution. It returns
	// ErrDuplicateTrigger when the distribution's idempotency event
	// already exists, ErrInsufficientBalance when a debit posting's
	// balance condition fails, and ErrVersionConflict when a concurrent
	// trigger won the optimistic-locking race on a touched account.
	ApplyDistribution(ctx context.Context, d *models.Distribution) error
}

// BuyBackReader exposes the singleton buy-back pool for admin views.
type BuyBackReader interface {
	// GetBuyBackPool retrieves the singleton pool record.
	GetBuyBackPool(ctx context.Context) (*models.BuyBackPool, error)
}
