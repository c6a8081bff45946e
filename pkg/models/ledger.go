package models

import (
	"fmt"
	"time"
)

// LedgerEntryStatus marks whether an entry is settled or has been voided by
// an admin backfill.
type LedgerEntryStatus string

const (
	EntrySettled LedgerEntryStatus = "SETTLED"
	EntryVoided  LedgerEntryStatus = "VOIDED"
)

// LedgerEntry is one immutable row of the value-movement ledger. Entries are
// only ever appended inside a distribution; the sole exception is the admin
// category purge, which deletes and regenerates a category en masse.
//
// SourceAccountID is the authoritative link back to the account whose
// trigger produced the entry. The description stays human-readable but is
// never parsed.
type LedgerEntry struct {
	Reference       string            `dynamodbav:"reference"`
	AccountID       string            `dynamodbav:"account_id"`
	Category        string            `dynamodbav:"category"`
	Amount          int64             `dynamodbav:"amount"`
	Description     string            `dynamodbav:"description"`
	SourceAccountID string            `dynamodbav:"source_account_id,omitempty"`
	Status          LedgerEntryStatus `dynamodbav:"status"`
	Timestamp       time.Time         `dynamodbav:"timestamp"`
}

// Fixed ledger categories.
const (
	CategoryActivation       = "MEMBERSHIP_ACTIVATION"
	CategoryRenewal          = "MEMBERSHIP_RENEWAL"
	CategoryUpgrade          = "MEMBERSHIP_UPGRADE"
	CategoryVAT              = "VAT"
	CategoryGiftPoolTransfer = "GIFT_POOL_TRANSFER"
	CategoryEmpowerRelease   = "EMPOWERMENT_RELEASE"
	CategoryEmpowerReward    = "EMPOWERMENT_SPONSOR_REWARD"
	CategoryEmpowerFallback  = "EMPOWERMENT_FALLBACK"
	CategoryEmpowerConvert   = "EMPOWERMENT_CONVERSION"
)

// Per-level referral categories, e.g. REFERRAL_CASH_L2.

func ReferralCashCategory(level int) string {
	return fmt.Sprintf("REFERRAL_CASH_L%d", level)
}

func ReferralGiftCategory(level int) string {
	return fmt.Sprintf("REFERRAL_GIFT_L%d", level)
}

func ReferralTokenCategory(level int) string {
	return fmt.Sprintf("REFERRAL_BPT_L%d", level)
}

func ReferralCashbackCategory(level int) string {
	return fmt.Sprintf("REFERRAL_CASHBACK_L%d", level)
}

func ReferralHealthCategory(level int) string {
	return fmt.Sprintf("REFERRAL_HEALTH_L%d", level)
}

func ReferralMealCategory(level int) string {
	return fmt.Sprintf("REFERRAL_MEAL_L%d", level)
}

func ReferralSecurityCategory(level int) string {
	return fmt.Sprintf("REFERRAL_SECURITY_L%d", level)
}

func ShelterCategory(level int) string {
	return fmt.Sprintf("SHELTER_REWARD_L%d", level)
}

// TriggerType names the engine entry point that produced a distribution.
type TriggerType string

const (
	TriggerActivation TriggerType = "activation"
	TriggerRenewal    TriggerType = "renewal"
	TriggerUpgrade    TriggerType = "upgrade"
)

// TriggerEvent is the idempotency guard for a distribution. Its key is
// unique per (account, package, trigger, day bucket) and is written in the
// same database transaction as the balance mutations, so re-running a
// trigger cannot double-credit the chain.
type TriggerEvent struct {
	EventID   string      `dynamodbav:"event_id"`
	AccountID string      `dynamodbav:"account_id"`
	PackageID string      `dynamodbav:"package_id"`
	Trigger   TriggerType `dynamodbav:"trigger"`
	CreatedAt time.Time   `dynamodbav:"created_at"`
}

// TriggerEventID builds the bucketed uniqueness key for a trigger.
func TriggerEventID(accountID, packageID string, trigger TriggerType, at time.Time) string {
	return fmt.Sprintf("%s#%s#%s#%s", accountID, packageID, trigger, at.UTC().Format("2006-01-02"))
}
