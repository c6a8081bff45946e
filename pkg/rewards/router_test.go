package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris/membership-rewards/pkg/models"
)

func TestRoutePalliative(t *testing.T) {
	t.Run("Activated Selection Routes To Specific Wallet", func(t *testing.T) {
		recipient := &models.Account{
			PalliativeTier:   models.TierHigher,
			PalliativeActive: true,
			PalliativeType:   models.PalliativeCar,
		}
		assert.Equal(t, models.WalletCar, RoutePalliative(recipient))
	})

	t.Run("Every Selection Has A Wallet", func(t *testing.T) {
		selections := map[models.PalliativeType]models.Wallet{
			models.PalliativeCar:       models.WalletCar,
			models.PalliativeHouse:     models.WalletHouse,
			models.PalliativeLand:      models.WalletLand,
			models.PalliativeBusiness:  models.WalletBusiness,
			models.PalliativeSolar:     models.WalletSolar,
			models.PalliativeEducation: models.WalletEducation,
		}
		for selection, wallet := range selections {
			recipient := &models.Account{PalliativeActive: true, PalliativeType: selection}
			assert.Equal(t, wallet, RoutePalliative(recipient))
		}
	})

	t.Run("Lower Tier Pools", func(t *testing.T) {
		recipient := &models.Account{PalliativeTier: models.TierLower}
		assert.Equal(t, models.WalletGiftPool, RoutePalliative(recipient))
	})

	t.Run("Higher Tier Unactivated Pools", func(t *testing.T) {
		recipient := &models.Account{PalliativeTier: models.TierHigher, PalliativeActive: false}
		assert.Equal(t, models.WalletGiftPool, RoutePalliative(recipient))
	})

	t.Run("Legacy Account Pools", func(t *testing.T) {
		assert.Equal(t, models.WalletGiftPool, RoutePalliative(&models.Account{}))
	})

	t.Run("Activated Without Recognized Selection Pools", func(t *testing.T) {
		recipient := &models.Account{PalliativeActive: true, PalliativeType: models.PalliativeNone}
		assert.Equal(t, models.WalletGiftPool, RoutePalliative(recipient))
	})
}
