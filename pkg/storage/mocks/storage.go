// Package mocks provides a hand-rolled testify mock of the full Storage
// interface for engine, service, and handler tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/chris/membership-rewards/pkg/models"
)

// Storage is a mock implementation of storage.Storage. Tests depending on a
// narrower interface (EngineStore, EmpowermentStore) can use it as-is.
type Storage struct {
	mock.Mock
}

func (m *Storage) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *Storage) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *Storage) ListAccounts(ctx context.Context) ([]models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *Storage) GetPackage(ctx context.Context, packageID string) (*models.RewardPackage, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RewardPackage), args.Error(1)
}

func (m *Storage) PutPackage(ctx context.Context, pkg *models.RewardPackage) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *Storage) ListPackages(ctx context.Context) ([]models.RewardPackage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RewardPackage), args.Error(1)
}

func (m *Storage) GetReferrer(ctx context.Context, accountID string) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

func (m *Storage) CreateEdge(ctx context.Context, edge *models.ReferralEdge) error {
	args := m.Called(ctx, edge)
	return args.Error(0)
}

func (m *Storage) ApplyDistribution(ctx context.Context, d *models.Distribution) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *Storage) GetBuyBackPool(ctx context.Context) (*models.BuyBackPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BuyBackPool), args.Error(1)
}

func (m *Storage) ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *Storage) ListEntriesBySource(ctx context.Context, sourceAccountID string) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, sourceAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *Storage) PurgeCategory(ctx context.Context, category string) (int, error) {
	args := m.Called(ctx, category)
	return args.Int(0), args.Error(1)
}

func (m *Storage) CreateEmpowerment(ctx context.Context, pkg *models.EmpowermentPackage, audit *models.EmpowermentTransaction) (*models.EmpowermentPackage, error) {
	args := m.Called(ctx, pkg, audit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmpowermentPackage), args.Error(1)
}

func (m *Storage) GetEmpowerment(ctx context.Context, packageID string) (*models.EmpowermentPackage, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmpowermentPackage), args.Error(1)
}

func (m *Storage) ListMaturedActive(ctx context.Context, asOf time.Time) ([]models.EmpowermentPackage, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmpowermentPackage), args.Error(1)
}

func (m *Storage) ApplyTransition(ctx context.Context, t *models.EmpowermentTransition) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *Storage) ListTransitions(ctx context.Context, packageID string) ([]models.EmpowermentTransaction, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmpowermentTransaction), args.Error(1)
}
