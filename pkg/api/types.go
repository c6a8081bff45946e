// Package api holds the request/response types of the HTTP surface and the
// mapping helpers between them and the domain models.
package api

import "time"

// NewAccount is the request body for creating an account.
type NewAccount struct {
	ID         string `json:"id"`
	ReferrerID string `json:"referrer_id,omitempty"`
}

// Account is the API view of a member account. Balances are grouped into a
// wallet map so new wallets never change the shape of the payload.
type Account struct {
	ID               string           `json:"id"`
	ReferrerID       string           `json:"referrer_id,omitempty"`
	ActivePackageID  string           `json:"active_package_id,omitempty"`
	ActivatedAt      *time.Time       `json:"activated_at,omitempty"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	PalliativeTier   string           `json:"palliative_tier,omitempty"`
	PalliativeActive bool             `json:"palliative_active"`
	PalliativeType   string           `json:"palliative_type,omitempty"`
	RenewalCount     int64            `json:"renewal_count"`
	Wallets          map[string]int64 `json:"wallets"`
	Version          int64            `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Payment is the pre-validated payment outcome attached to a trigger
// request. Collection happens upstream; the engine only checks the flag.
type Payment struct {
	Reference string `json:"reference"`
	Confirmed bool   `json:"confirmed"`
}

// ActivateMembership is the request body for a first activation.
type ActivateMembership struct {
	AccountID           string  `json:"account_id"`
	PackageID           string  `json:"package_id"`
	PalliativeSelection string  `json:"palliative_selection,omitempty"`
	Payment             Payment `json:"payment"`
}

// RenewMembership is the request body for a renewal.
type RenewMembership struct {
	AccountID string  `json:"account_id"`
	Payment   Payment `json:"payment"`
}

// UpgradeMembership is the request body for a differential upgrade.
type UpgradeMembership struct {
	AccountID           string `json:"account_id"`
	PackageID           string `json:"package_id"`
	PalliativeSelection string `json:"palliative_selection,omitempty"`
}

// LevelReward is the API form of one activation reward level.
type LevelReward struct {
	Cash       int64 `json:"cash"`
	Palliative int64 `json:"palliative"`
	Token      int64 `json:"token"`
	Cashback   int64 `json:"cashback"`
}

// RenewalLevelReward is the API form of one renewal reward level.
type RenewalLevelReward struct {
	Cash       int64 `json:"cash"`
	Palliative int64 `json:"palliative"`
	Token      int64 `json:"token"`
	Cashback   int64 `json:"cashback"`
	Health     int64 `json:"health"`
	Meal       int64 `json:"meal"`
	Security   int64 `json:"security"`
}

// RewardPackage is the API view of an admin-configured package.
type RewardPackage struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Price            int64                `json:"price"`
	VAT              int64                `json:"vat"`
	PalliativeTier   string               `json:"palliative_tier"`
	RenewalCycleDays int                  `json:"renewal_cycle_days"`
	ShelterEligible  bool                 `json:"shelter_eligible"`
	Levels           []LevelReward        `json:"levels"`
	RenewalLevels    []RenewalLevelReward `json:"renewal_levels,omitempty"`
	ShelterLevels    []int64              `json:"shelter_levels,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// DistributionResult summarizes a committed distribution.
type DistributionResult struct {
	EventID       string `json:"event_id"`
	AccountID     string `json:"account_id"`
	PackageID     string `json:"package_id"`
	Trigger       string `json:"trigger"`
	Postings      int    `json:"postings"`
	LedgerEntries int    `json:"ledger_entries"`
	BuyBackCredit int64  `json:"buy_back_credit"`
}

// LedgerEntry is the API view of one ledger row.
type LedgerEntry struct {
	Reference       string    `json:"reference"`
	AccountID       string    `json:"account_id"`
	Category        string    `json:"category"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	SourceAccountID string    `json:"source_account_id,omitempty"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}

// PurgeResult reports an admin category purge.
type PurgeResult struct {
	Category string `json:"category"`
	Deleted  int    `json:"deleted"`
}

// NewEmpowerment is the request body for activating an empowerment package.
type NewEmpowerment struct {
	SponsorID     string  `json:"sponsor_id"`
	BeneficiaryID string  `json:"beneficiary_id"`
	Fee           int64   `json:"fee"`
	VAT           int64   `json:"vat"`
	GrossValue    int64   `json:"gross_value"`
	GrossReward   int64   `json:"gross_reward"`
	FallbackGross int64   `json:"fallback_gross"`
	Payment       Payment `json:"payment"`
}

// Empowerment is the API view of an empowerment package.
type Empowerment struct {
	ID               string     `json:"id"`
	SponsorID        string     `json:"sponsor_id"`
	BeneficiaryID    string     `json:"beneficiary_id"`
	Fee              int64      `json:"fee"`
	VAT              int64      `json:"vat"`
	GrossValue       int64      `json:"gross_value"`
	NetValue         int64      `json:"net_value"`
	GrossReward      int64      `json:"gross_reward"`
	NetReward        int64      `json:"net_reward"`
	TaxRateBps       int64      `json:"tax_rate_bps"`
	TotalTax         int64      `json:"total_tax"`
	FallbackGross    int64      `json:"fallback_gross"`
	FallbackNet      int64      `json:"fallback_net"`
	Converted        bool       `json:"converted"`
	ConversionAmount int64      `json:"conversion_amount,omitempty"`
	Status           string     `json:"status"`
	ActivatedAt      time.Time  `json:"activated_at"`
	MaturityAt       time.Time  `json:"maturity_at"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
}

// ConvertEmpowerment is the request body for a sponsor conversion.
type ConvertEmpowerment struct {
	SponsorID       string `json:"sponsor_id"`
	TargetPackageID string `json:"target_package_id"`
}

// EmpowermentTransaction is the API view of one audit row.
type EmpowermentTransaction struct {
	ID        string    `json:"id"`
	PackageID string    `json:"package_id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	Gross     int64     `json:"gross"`
	Tax       int64     `json:"tax"`
	Net       int64     `json:"net"`
	Timestamp time.Time `json:"timestamp"`
}

// BuyBackPool is the API view of the singleton buy-back pool.
type BuyBackPool struct {
	Balance   int64     `json:"balance"`
	Burned    int64     `json:"burned"`
	UpdatedAt time.Time `json:"updated_at"`
}
