package storage

import (
	"context"

	"github.com/chris/membership-rewards/pkg/models"
)

// AccountStore defines the interface for managing member accounts.
type AccountStore interface {
	// GetAccount retrieves an account by its ID.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// CreateAccount creates a new account, optionally linked to a referrer.
	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)

	// ListAccounts retrieves all accounts.
	ListAccounts(ctx context.Context) ([]models.Account, error)
}
