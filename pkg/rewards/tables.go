package rewards

import (
	"context"
	"fmt"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
)

// Table selects which per-level reward table of a package to read.
type Table string

const (
	TableActivation Table = "activation"
	TableRenewal    Table = "renewal"
	TableShelter    Table = "shelter"
)

// LevelRewards returns the reward vector configured for one referral level
// of a package. Levels are 1-based; a level past the configured table
// resolves to the zero vector, never an error. For the shelter table only
// the Cash component is populated.
func LevelRewards(pkg *models.RewardPackage, level int, table Table) (Vector, error) {
	if level < 1 {
		return Vector{}, fmt.Errorf("invalid referral level %d", level)
	}
	idx := level - 1
	switch table {
	case TableActivation:
		if idx >= len(pkg.Levels) {
			return Vector{}, nil
		}
		return fromLevelReward(pkg.Levels[idx]), nil
	case TableRenewal:
		if idx >= len(pkg.RenewalLevels) {
			return Vector{}, nil
		}
		return fromRenewalReward(pkg.RenewalLevels[idx]), nil
	case TableShelter:
		if idx >= len(pkg.ShelterLevels) {
			return Vector{}, nil
		}
		return Vector{Cash: pkg.ShelterLevels[idx]}, nil
	}
	return Vector{}, fmt.Errorf("unknown reward table %q", string(table))
}

// TableResolver resolves reward tables by package id. It has no side
// effects.
type TableResolver struct {
	packages storage.PackageStore
}

// NewTableResolver creates a TableResolver backed by the given store.
func NewTableResolver(packages storage.PackageStore) *TableResolver {
	return &TableResolver{packages: packages}
}

// Resolve looks up the package and returns the reward vector for the given
// level and table. Returns storage.ErrNotFound when the package does not
// exist.
func (r *TableResolver) Resolve(ctx context.Context, packageID string, level int, table Table) (Vector, error) {
	pkg, err := r.packages.GetPackage(ctx, packageID)
	if err != nil {
		return Vector{}, fmt.Errorf("resolve package %s: %w", packageID, err)
	}
	return LevelRewards(pkg, level, table)
}
