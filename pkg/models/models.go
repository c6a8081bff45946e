package models

import (
	"fmt"
	"time"
)

// Wallet identifies one of the named balances held by an Account.
// Routing always goes through this closed set; there is no dynamic
// field selection by string key anywhere in the engine.
type Wallet string

const (
	WalletMain            Wallet = "main"
	WalletSpendable       Wallet = "spendable"
	WalletCashback        Wallet = "cashback"
	WalletToken           Wallet = "token"
	WalletGiftPool        Wallet = "gift_pool"
	WalletShelter         Wallet = "shelter"
	WalletCommunity       Wallet = "community"
	WalletHealth          Wallet = "health"
	WalletEducation       Wallet = "education"
	WalletMeal            Wallet = "meal"
	WalletSecurity        Wallet = "security"
	WalletBusiness        Wallet = "business"
	WalletLand            Wallet = "land"
	WalletCar             Wallet = "car"
	WalletSolar           Wallet = "solar"
	WalletHouse           Wallet = "house"
	WalletShareholder     Wallet = "shareholder"
	WalletSocialMedia     Wallet = "social_media"
	WalletStudentCashback Wallet = "student_cashback"
)

// PalliativeTier classifies an account's palliative eligibility, derived
// from the price tier of its active package.
type PalliativeTier string

const (
	TierNone   PalliativeTier = ""
	TierLower  PalliativeTier = "lower"
	TierHigher PalliativeTier = "higher"
)

// PalliativeType is the in-kind reward category an account selects once
// it activates a qualifying tier.
type PalliativeType string

const (
	PalliativeNone      PalliativeType = ""
	PalliativeCar       PalliativeType = "car"
	PalliativeHouse     PalliativeType = "house"
	PalliativeLand      PalliativeType = "land"
	PalliativeBusiness  PalliativeType = "business"
	PalliativeSolar     PalliativeType = "solar"
	PalliativeEducation PalliativeType = "education"
)

// Account is the internal domain model for a member account. Balances are
// int64 minor units and are mutated only through the engine's distributions,
// never directly by handler code.
type Account struct {
	ID         string `dynamodbav:"id"`
	ReferrerID string `dynamodbav:"referrer_id,omitempty"`

	ActivePackageID  string         `dynamodbav:"active_package_id,omitempty"`
	ActivatedAt      time.Time      `dynamodbav:"activated_at,omitempty"`
	ExpiresAt        time.Time      `dynamodbav:"expires_at,omitempty"`
	PalliativeTier   PalliativeTier `dynamodbav:"palliative_tier,omitempty"`
	PalliativeActive bool           `dynamodbav:"palliative_active"`
	PalliativeType   PalliativeType `dynamodbav:"palliative_type,omitempty"`
	RenewalCount     int64          `dynamodbav:"renewal_count"`

	Main            int64 `dynamodbav:"main"`
	Spendable       int64 `dynamodbav:"spendable"`
	Cashback        int64 `dynamodbav:"cashback"`
	Token           int64 `dynamodbav:"token"`
	GiftPool        int64 `dynamodbav:"gift_pool"`
	Shelter         int64 `dynamodbav:"shelter"`
	Community       int64 `dynamodbav:"community"`
	Health          int64 `dynamodbav:"health"`
	Education       int64 `dynamodbav:"education"`
	Meal            int64 `dynamodbav:"meal"`
	Security        int64 `dynamodbav:"security"`
	Business        int64 `dynamodbav:"business"`
	Land            int64 `dynamodbav:"land"`
	Car             int64 `dynamodbav:"car"`
	Solar           int64 `dynamodbav:"solar"`
	House           int64 `dynamodbav:"house"`
	Shareholder     int64 `dynamodbav:"shareholder"`
	SocialMedia     int64 `dynamodbav:"social_media"`
	StudentCashback int64 `dynamodbav:"student_cashback"`

	Version   int64     `dynamodbav:"version"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// Balance returns the current balance for the given wallet.
func (a *Account) Balance(w Wallet) int64 {
	switch w {
	case WalletMain:
		return a.Main
	case WalletSpendable:
		return a.Spendable
	case WalletCashback:
		return a.Cashback
	case WalletToken:
		return a.Token
	case WalletGiftPool:
		return a.GiftPool
	case WalletShelter:
		return a.Shelter
	case WalletCommunity:
		return a.Community
	case WalletHealth:
		return a.Health
	case WalletEducation:
		return a.Education
	case WalletMeal:
		return a.Meal
	case WalletSecurity:
		return a.Security
	case WalletBusiness:
		return a.Business
	case WalletLand:
		return a.Land
	case WalletCar:
		return a.Car
	case WalletSolar:
		return a.Solar
	case WalletHouse:
		return a.House
	case WalletShareholder:
		return a.Shareholder
	case WalletSocialMedia:
		return a.SocialMedia
	case WalletStudentCashback:
		return a.StudentCashback
	}
	return 0
}

// WalletAttribute maps a wallet identifier to its storage attribute name.
// Update expressions must always be built from this mapping.
func WalletAttribute(w Wallet) (string, error) {
	switch w {
	case WalletMain, WalletSpendable, WalletCashback, WalletToken,
		WalletGiftPool, WalletShelter, WalletCommunity, WalletHealth,
		WalletEducation, WalletMeal, WalletSecurity, WalletBusiness,
		WalletLand, WalletCar, WalletSolar, WalletHouse,
		WalletShareholder, WalletSocialMedia, WalletStudentCashback:
		return string(w), nil
	}
	return "", fmt.Errorf("unknown wallet %q", string(w))
}

// PalliativeWallet maps a selected palliative type to its dedicated wallet.
func PalliativeWallet(t PalliativeType) (Wallet, bool) {
	switch t {
	case PalliativeCar:
		return WalletCar, true
	case PalliativeHouse:
		return WalletHouse, true
	case PalliativeLand:
		return WalletLand, true
	case PalliativeBusiness:
		return WalletBusiness, true
	case PalliativeSolar:
		return WalletSolar, true
	case PalliativeEducation:
		return WalletEducation, true
	}
	return "", false
}

// ReferralEdgeStatus flags whether a referral edge still counts for rewards.
type ReferralEdgeStatus string

const (
	EdgeActive   ReferralEdgeStatus = "active"
	EdgeInactive ReferralEdgeStatus = "inactive"
)

// ReferralEdge is the directed referrer -> referred link created once at
// registration. Edges are immutable apart from the status flag; RewardPaid
// is reserved for future use.
type ReferralEdge struct {
	ReferrerID string             `dynamodbav:"referrer_id"`
	ReferredID string             `dynamodbav:"referred_id"`
	Status     ReferralEdgeStatus `dynamodbav:"status"`
	RewardPaid bool               `dynamodbav:"reward_paid"`
	CreatedAt  time.Time          `dynamodbav:"created_at"`
}
