package storage

import (
	"context"

	"github.com/chris/membership-rewards/pkg/models"
)

// PackageStore defines the interface for reward package configuration.
// Packages are written by admin tooling and read-only to the engine.
type PackageStore interface {
	// GetPackage retrieves a reward package by its ID.
	GetPackage(ctx context.Context, packageID string) (*models.RewardPackage, error)

	// PutPackage creates or replaces a reward package.
	PutPackage(ctx context.Context, pkg *models.RewardPackage) error

	// ListPackages retrieves all reward packages.
	ListPackages(ctx context.Context) ([]models.RewardPackage, error)
}
