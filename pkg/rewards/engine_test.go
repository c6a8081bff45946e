package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
	"github.com/chris/membership-rewards/pkg/storage/mocks"
)

func confirmedReceipt() Receipt {
	return Receipt{Reference: "pay-1", Confirmed: true}
}

func countCategory(entries []models.LedgerEntry, category string) int {
	n := 0
	for _, e := range entries {
		if e.Category == category {
			n++
		}
	}
	return n
}

func TestEngineActivate(t *testing.T) {
	member := &models.Account{ID: "member", ReferrerID: "p1"}
	p1 := &models.Account{ID: "p1"}
	p2 := &models.Account{ID: "p2"}

	goldPkg := &models.RewardPackage{
		ID:    "gold",
		Name:  "Gold",
		Price: 1000,
		Levels: []models.LevelReward{
			{Cash: 450},
			{Cash: 225},
		},
	}

	t.Run("Two Level Cash Chain", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(goldPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("p2", nil)
		mockStore.On("GetReferrer", mock.Anything, "p2").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("GetAccount", mock.Anything, "p2").Return(p2, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.AnythingOfType("*models.Distribution")).Return(nil)

		d, err := engine.Activate(context.Background(), "member", "gold", models.PalliativeNone, confirmedReceipt())

		assert.NoError(t, err)
		byAccount := d.PostingsByAccount()
		assert.Equal(t, int64(450), byAccount["p1"][models.WalletMain])
		assert.Equal(t, int64(225), byAccount["p2"][models.WalletMain])
		assert.Equal(t, 1, countCategory(d.Entries, models.ReferralCashCategory(1)))
		assert.Equal(t, 1, countCategory(d.Entries, models.ReferralCashCategory(2)))
		assert.Equal(t, 1, countCategory(d.Entries, models.CategoryActivation))

		assert.Equal(t, models.TriggerActivation, d.Event.Trigger)
		assert.Equal(t, "gold", *d.Mutation.ActivePackageID)
		assert.False(t, *d.Mutation.PalliativeActive)
		mockStore.AssertExpectations(t)
	})

	t.Run("Token Reward Splits With Pool", func(t *testing.T) {
		tokenPkg := &models.RewardPackage{
			ID:     "token",
			Name:   "Token",
			Price:  500,
			Levels: []models.LevelReward{{Token: 100}},
		}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "token").Return(tokenPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Activate(context.Background(), "member", "token", models.PalliativeNone, confirmedReceipt())

		assert.NoError(t, err)
		assert.Equal(t, int64(50), d.PostingsByAccount()["p1"][models.WalletToken])
		assert.Equal(t, int64(50), d.BuyBack)
		assert.Equal(t, 1, countCategory(d.Entries, models.ReferralTokenCategory(1)))
		mockStore.AssertExpectations(t)
	})

	t.Run("Palliative Routed By Recipient State", func(t *testing.T) {
		palliativePkg := &models.RewardPackage{
			ID:     "plus",
			Name:   "Plus",
			Price:  2000,
			Levels: []models.LevelReward{{Palliative: 300}},
		}
		activated := &models.Account{
			ID:               "p1",
			PalliativeTier:   models.TierHigher,
			PalliativeActive: true,
			PalliativeType:   models.PalliativeSolar,
		}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "plus").Return(palliativePkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(activated, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Activate(context.Background(), "member", "plus", models.PalliativeNone, confirmedReceipt())

		assert.NoError(t, err)
		assert.Equal(t, int64(300), d.PostingsByAccount()["p1"][models.WalletSolar])
		mockStore.AssertExpectations(t)
	})

	t.Run("Shelter Eligible Walks Ten Levels", func(t *testing.T) {
		shelterPkg := &models.RewardPackage{
			ID:              "estate",
			Name:            "Estate",
			Price:           10000,
			Levels:          []models.LevelReward{{Cash: 450}},
			ShelterEligible: true,
			ShelterLevels:   []int64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10},
		}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "estate").Return(shelterPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("p2", nil)
		mockStore.On("GetReferrer", mock.Anything, "p2").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Activate(context.Background(), "member", "estate", models.PalliativeNone, confirmedReceipt())

		assert.NoError(t, err)
		byAccount := d.PostingsByAccount()
		assert.Equal(t, int64(100), byAccount["p1"][models.WalletShelter])
		assert.Equal(t, int64(90), byAccount["p2"][models.WalletShelter])
		assert.Len(t, d.Shelter, 2)
		assert.Equal(t, 1, countCategory(d.Entries, models.ShelterCategory(1)))
		assert.Equal(t, 1, countCategory(d.Entries, models.ShelterCategory(2)))
		mockStore.AssertExpectations(t)
	})

	t.Run("Palliative Selection Activates On Higher Tier", func(t *testing.T) {
		higherPkg := &models.RewardPackage{
			ID:             "plus",
			Name:           "Plus",
			Price:          2000,
			PalliativeTier: models.TierHigher,
			Levels:         []models.LevelReward{{Cash: 450}},
		}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "plus").Return(higherPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Activate(context.Background(), "member", "plus", models.PalliativeHouse, confirmedReceipt())

		assert.NoError(t, err)
		assert.True(t, *d.Mutation.PalliativeActive)
		assert.Equal(t, models.PalliativeHouse, *d.Mutation.PalliativeType)
		mockStore.AssertExpectations(t)
	})

	t.Run("Unconfirmed Payment Rejected", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		_, err := engine.Activate(context.Background(), "member", "gold", models.PalliativeNone, Receipt{Confirmed: false})

		assert.ErrorIs(t, err, storage.ErrNotEligible)
		mockStore.AssertNotCalled(t, "ApplyDistribution", mock.Anything, mock.Anything)
	})

	t.Run("Duplicate Trigger Rejected By Store", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(goldPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("", storage.ErrNotFound)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(storage.ErrDuplicateTrigger)

		_, err := engine.Activate(context.Background(), "member", "gold", models.PalliativeNone, confirmedReceipt())

		assert.ErrorIs(t, err, storage.ErrDuplicateTrigger)
	})

	t.Run("Orphaned Ancestor Is A Data Integrity Error", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(goldPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("ghost", nil)
		mockStore.On("GetReferrer", mock.Anything, "ghost").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "ghost").Return(nil, storage.ErrNotFound)

		_, err := engine.Activate(context.Background(), "member", "gold", models.PalliativeNone, confirmedReceipt())

		assert.ErrorIs(t, err, storage.ErrDataIntegrity)
		mockStore.AssertNotCalled(t, "ApplyDistribution", mock.Anything, mock.Anything)
	})
}

func TestEngineRenew(t *testing.T) {
	now := time.Now().UTC()

	renewablePkg := &models.RewardPackage{
		ID:               "gold",
		Name:             "Gold",
		Price:            1000,
		RenewalCycleDays: 365,
		Levels:           []models.LevelReward{{Cash: 450}},
		RenewalLevels: []models.RenewalLevelReward{
			{Cash: 100, Health: 30, Meal: 20, Security: 10},
		},
	}

	t.Run("Outside Renewal Window", func(t *testing.T) {
		member := &models.Account{
			ID:              "member",
			ActivePackageID: "gold",
			ExpiresAt:       now.AddDate(0, 0, 60),
		}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(renewablePkg, nil)

		_, err := engine.Renew(context.Background(), "member", confirmedReceipt())

		assert.ErrorIs(t, err, storage.ErrNotEligible)
		mockStore.AssertNotCalled(t, "ApplyDistribution", mock.Anything, mock.Anything)
	})

	t.Run("Inside Renewal Window", func(t *testing.T) {
		expiry := now.AddDate(0, 0, 10)
		member := &models.Account{
			ID:              "member",
			ActivePackageID: "gold",
			ExpiresAt:       expiry,
			RenewalCount:    2,
		}
		p1 := &models.Account{ID: "p1"}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(renewablePkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Renew(context.Background(), "member", confirmedReceipt())

		assert.NoError(t, err)

		// Renewal extends from the current expiry, not from today.
		assert.Equal(t, expiry.AddDate(0, 0, 365), *d.Mutation.ExpiresAt)
		assert.True(t, d.Mutation.IncrementRenewal)
		assert.Equal(t, int64(3), d.Renewal.RenewalNumber)

		byAccount := d.PostingsByAccount()
		assert.Equal(t, int64(100), byAccount["p1"][models.WalletMain])
		assert.Equal(t, int64(30), byAccount["p1"][models.WalletHealth])
		assert.Equal(t, int64(20), byAccount["p1"][models.WalletMeal])
		assert.Equal(t, int64(10), byAccount["p1"][models.WalletSecurity])
		mockStore.AssertExpectations(t)
	})

	t.Run("Expired Membership Extends From Now", func(t *testing.T) {
		member := &models.Account{
			ID:              "member",
			ActivePackageID: "gold",
			ExpiresAt:       now.AddDate(0, 0, -30),
		}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(renewablePkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("", storage.ErrNotFound)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Renew(context.Background(), "member", confirmedReceipt())

		assert.NoError(t, err)
		assert.True(t, d.Mutation.ExpiresAt.After(now.AddDate(0, 0, 364)))
		mockStore.AssertExpectations(t)
	})

	t.Run("Package Without Renewal Table", func(t *testing.T) {
		oneShot := &models.RewardPackage{ID: "basic", Price: 100, Levels: []models.LevelReward{{Cash: 50}}}
		member := &models.Account{ID: "member", ActivePackageID: "basic", ExpiresAt: now.AddDate(0, 0, 5)}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "basic").Return(oneShot, nil)

		_, err := engine.Renew(context.Background(), "member", confirmedReceipt())

		assert.ErrorIs(t, err, storage.ErrNotEligible)
	})

	t.Run("No Active Package", func(t *testing.T) {
		member := &models.Account{ID: "member"}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)

		_, err := engine.Renew(context.Background(), "member", confirmedReceipt())

		assert.ErrorIs(t, err, storage.ErrNotEligible)
	})
}

func TestEngineUpgrade(t *testing.T) {
	oldPkg := &models.RewardPackage{
		ID:    "silver",
		Name:  "Silver",
		Price: 1000,
		Levels: []models.LevelReward{
			{Cash: 450, Cashback: 50},
		},
	}
	newPkg := &models.RewardPackage{
		ID:    "gold",
		Name:  "Gold",
		Price: 1500,
		Levels: []models.LevelReward{
			{Cash: 700, Cashback: 20},
		},
	}

	t.Run("Positive Delta Only", func(t *testing.T) {
		member := &models.Account{ID: "member", ActivePackageID: "silver", Main: 5000}
		p1 := &models.Account{ID: "p1"}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "silver").Return(oldPkg, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(newPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Upgrade(context.Background(), "member", "gold", models.PalliativeNone)

		assert.NoError(t, err)
		byAccount := d.PostingsByAccount()

		// Price difference debited from the upgrader's main wallet.
		assert.Equal(t, int64(-500), byAccount["member"][models.WalletMain])

		// Cash delta 700-450=250 paid; cashback delta 20-50 clamps to zero.
		assert.Equal(t, int64(250), byAccount["p1"][models.WalletMain])
		assert.NotContains(t, byAccount["p1"], models.WalletCashback)
		assert.Equal(t, "gold", *d.Mutation.ActivePackageID)
		mockStore.AssertExpectations(t)
	})

	t.Run("Downgrade Rejected", func(t *testing.T) {
		member := &models.Account{ID: "member", ActivePackageID: "gold", Main: 5000}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(newPkg, nil)
		mockStore.On("GetPackage", mock.Anything, "silver").Return(oldPkg, nil)

		_, err := engine.Upgrade(context.Background(), "member", "silver", models.PalliativeNone)

		assert.ErrorIs(t, err, storage.ErrNotEligible)
	})

	t.Run("Insufficient Main Balance", func(t *testing.T) {
		member := &models.Account{ID: "member", ActivePackageID: "silver", Main: 100}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "silver").Return(oldPkg, nil)
		mockStore.On("GetPackage", mock.Anything, "gold").Return(newPkg, nil)

		_, err := engine.Upgrade(context.Background(), "member", "gold", models.PalliativeNone)

		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
		mockStore.AssertNotCalled(t, "ApplyDistribution", mock.Anything, mock.Anything)
	})

	t.Run("Tier Crossing Moves Pooled Funds", func(t *testing.T) {
		premiumPkg := &models.RewardPackage{
			ID:             "premium",
			Name:           "Premium",
			Price:          3000,
			PalliativeTier: models.TierHigher,
			Levels:         []models.LevelReward{{Cash: 900}},
		}
		member := &models.Account{
			ID:              "member",
			ActivePackageID: "silver",
			Main:            5000,
			GiftPool:        750,
			PalliativeTier:  models.TierLower,
		}
		p1 := &models.Account{ID: "p1"}

		mockStore := new(mocks.Storage)
		engine := NewEngine(mockStore, nil, nil)

		mockStore.On("GetAccount", mock.Anything, "member").Return(member, nil)
		mockStore.On("GetPackage", mock.Anything, "silver").Return(oldPkg, nil)
		mockStore.On("GetPackage", mock.Anything, "premium").Return(premiumPkg, nil)
		mockStore.On("GetReferrer", mock.Anything, "member").Return("p1", nil)
		mockStore.On("GetReferrer", mock.Anything, "p1").Return("", storage.ErrNotFound)
		mockStore.On("GetAccount", mock.Anything, "p1").Return(p1, nil)
		mockStore.On("ApplyDistribution", mock.Anything, mock.Anything).Return(nil)

		d, err := engine.Upgrade(context.Background(), "member", "premium", models.PalliativeLand)

		assert.NoError(t, err)
		byAccount := d.PostingsByAccount()
		assert.Equal(t, int64(-750), byAccount["member"][models.WalletGiftPool])
		assert.Equal(t, int64(750), byAccount["member"][models.WalletLand])
		assert.Equal(t, 1, countCategory(d.Entries, models.CategoryGiftPoolTransfer))
		assert.Equal(t, models.TierHigher, *d.Mutation.PalliativeTier)
		assert.True(t, *d.Mutation.PalliativeActive)
		mockStore.AssertExpectations(t)
	})
}
