package models

import "time"

// LevelReward holds the four reward components paid to the ancestor at one
// referral level when a package is first activated.
type LevelReward struct {
	Cash       int64 `dynamodbav:"cash"`
	Palliative int64 `dynamodbav:"palliative"`
	Token      int64 `dynamodbav:"token"`
	Cashback   int64 `dynamodbav:"cashback"`
}

// RenewalLevelReward is the parallel per-level table used on renewal. It
// carries the activation components plus the wellness wallets that only
// renewals fund.
type RenewalLevelReward struct {
	Cash       int64 `dynamodbav:"cash"`
	Palliative int64 `dynamodbav:"palliative"`
	Token      int64 `dynamodbav:"token"`
	Cashback   int64 `dynamodbav:"cashback"`
	Health     int64 `dynamodbav:"health"`
	Meal       int64 `dynamodbav:"meal"`
	Security   int64 `dynamodbav:"security"`
}

// RewardPackage is the admin-configured membership package. It is immutable
// once published; the engine only ever reads it.
type RewardPackage struct {
	ID    string `dynamodbav:"id"`
	Name  string `dynamodbav:"name"`
	Price int64  `dynamodbav:"price"`
	VAT   int64  `dynamodbav:"vat"`

	PalliativeTier   PalliativeTier `dynamodbav:"palliative_tier"`
	RenewalCycleDays int            `dynamodbav:"renewal_cycle_days"`
	ShelterEligible  bool           `dynamodbav:"shelter_eligible"`

	// Levels is indexed by referral level minus one. A chain longer than
	// the table simply earns nothing at the deeper levels.
	Levels        []LevelReward        `dynamodbav:"levels"`
	RenewalLevels []RenewalLevelReward `dynamodbav:"renewal_levels"`

	// ShelterLevels funds the extended ten-level payout for premium tiers.
	ShelterLevels []int64 `dynamodbav:"shelter_levels"`

	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// SupportsRenewal reports whether the package has a renewal reward table.
func (p *RewardPackage) SupportsRenewal() bool {
	return len(p.RenewalLevels) > 0 && p.RenewalCycleDays > 0
}

// ShelterReward is the admin-visible record of one shelter-tier payout.
type ShelterReward struct {
	ID              string    `dynamodbav:"id"`
	AccountID       string    `dynamodbav:"account_id"`
	SourceAccountID string    `dynamodbav:"source_account_id"`
	PackageID       string    `dynamodbav:"package_id"`
	Level           int       `dynamodbav:"level"`
	Amount          int64     `dynamodbav:"amount"`
	CreatedAt       time.Time `dynamodbav:"created_at"`
}

// BuyBackPool is the singleton system account that accumulates the non-user
// half of every token reward plus burn events.
type BuyBackPool struct {
	ID        string    `dynamodbav:"id"`
	Balance   int64     `dynamodbav:"balance"`
	Burned    int64     `dynamodbav:"burned"`
	Version   int64     `dynamodbav:"version"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// BuyBackPoolID is the fixed key of the singleton pool record.
const BuyBackPoolID = "buyback"

// RenewalRecord summarizes the totals distributed by one renewal.
type RenewalRecord struct {
	ID              string    `dynamodbav:"id"`
	AccountID       string    `dynamodbav:"account_id"`
	PackageID       string    `dynamodbav:"package_id"`
	RenewalNumber   int64     `dynamodbav:"renewal_number"`
	TotalCash       int64     `dynamodbav:"total_cash"`
	TotalPalliative int64     `dynamodbav:"total_palliative"`
	TotalToken      int64     `dynamodbav:"total_token"`
	TotalCashback   int64     `dynamodbav:"total_cashback"`
	NewExpiresAt    time.Time `dynamodbav:"new_expires_at"`
	CreatedAt       time.Time `dynamodbav:"created_at"`
}
