package storage

import (
	"context"
	"time"

	"github.com/chris/membership-rewards/pkg/models"
)

// EmpowermentStore defines persistence for the empowerment lifecycle.
type EmpowermentStore interface {
	// CreateEmpowerment creates a package together with its activation
	// audit row. At most one package may exist per sponsor/beneficiary
	// pairing; a second create fails.
	CreateEmpowerment(ctx context.Context, pkg *models.EmpowermentPackage, audit *models.EmpowermentTransaction) (*models.EmpowermentPackage, error)

	// GetEmpowerment retrieves a package by its ID.
	GetEmpowerment(ctx context.Context, packageID string) (*models.EmpowermentPackage, error)

	// ListMaturedActive retrieves ACTIVE packages whose maturity date is at
	// or before the given instant. Used by the external maturity sweep.
	ListMaturedActive(ctx context.Context, asOf time.Time) ([]models.EmpowermentPackage, error)

	// ApplyTransition atomically applies a lifecycle transition: the
	// status change (guarded by a condition on the current status), any
	// wallet credits or debits, the ledger entries, and the audit row.
	// Returns ErrInvalidState when the package is no longer in the
	// transition's from-state, and ErrInsufficientBalance when a debit
	// posting's balance condition fails.
	ApplyTransition(ctx context.Context, t *models.EmpowermentTransition) error

	// ListTransitions retrieves the audit rows for a package.
	ListTransitions(ctx context.Context, packageID string) ([]models.EmpowermentTransaction, error)
}
