package rewards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
	"github.com/chris/membership-rewards/pkg/storage/mocks"
)

func TestLevelRewards(t *testing.T) {
	pkg := &models.RewardPackage{
		ID: "gold",
		Levels: []models.LevelReward{
			{Cash: 450, Palliative: 100, Token: 50, Cashback: 10},
			{Cash: 225},
		},
		RenewalLevels: []models.RenewalLevelReward{
			{Cash: 100, Health: 30, Meal: 20, Security: 10},
		},
		ShelterLevels: []int64{1000, 500},
	}

	t.Run("Activation Level", func(t *testing.T) {
		vec, err := LevelRewards(pkg, 1, TableActivation)
		assert.NoError(t, err)
		assert.Equal(t, Vector{Cash: 450, Palliative: 100, Token: 50, Cashback: 10}, vec)
	})

	t.Run("Renewal Level Carries Extra Components", func(t *testing.T) {
		vec, err := LevelRewards(pkg, 1, TableRenewal)
		assert.NoError(t, err)
		assert.Equal(t, Vector{Cash: 100, Health: 30, Meal: 20, Security: 10}, vec)
	})

	t.Run("Shelter Level Is Cash Only", func(t *testing.T) {
		vec, err := LevelRewards(pkg, 2, TableShelter)
		assert.NoError(t, err)
		assert.Equal(t, Vector{Cash: 500}, vec)
	})

	t.Run("Past Table End Is Zero Not Error", func(t *testing.T) {
		vec, err := LevelRewards(pkg, 3, TableActivation)
		assert.NoError(t, err)
		assert.True(t, vec.IsZero())

		vec, err = LevelRewards(pkg, 11, TableShelter)
		assert.NoError(t, err)
		assert.True(t, vec.IsZero())
	})

	t.Run("Invalid Level", func(t *testing.T) {
		_, err := LevelRewards(pkg, 0, TableActivation)
		assert.Error(t, err)
	})

	t.Run("Unknown Table", func(t *testing.T) {
		_, err := LevelRewards(pkg, 1, Table("bonus"))
		assert.Error(t, err)
	})
}

func TestTableResolver(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		resolver := NewTableResolver(mockStore)

		pkg := &models.RewardPackage{ID: "gold", Levels: []models.LevelReward{{Cash: 450}}}
		mockStore.On("GetPackage", context.Background(), "gold").Return(pkg, nil)

		vec, err := resolver.Resolve(context.Background(), "gold", 1, TableActivation)

		assert.NoError(t, err)
		assert.Equal(t, int64(450), vec.Cash)
		mockStore.AssertExpectations(t)
	})

	t.Run("Unknown Package", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		resolver := NewTableResolver(mockStore)

		mockStore.On("GetPackage", context.Background(), "missing").Return(nil, storage.ErrNotFound)

		_, err := resolver.Resolve(context.Background(), "missing", 1, TableActivation)

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockStore.AssertExpectations(t)
	})
}
