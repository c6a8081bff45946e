package models

import "time"

// EmpowermentStatus is the current state of an empowerment package's
// lifecycle. Transitions are enforced by the state machine and by a
// conditional status check inside the database transaction that applies
// them.
type EmpowermentStatus string

const (
	EmpowermentActive          EmpowermentStatus = "ACTIVE"
	EmpowermentPendingMaturity EmpowermentStatus = "PENDING_MATURITY"
	EmpowermentApproved        EmpowermentStatus = "APPROVED"
	EmpowermentReleased        EmpowermentStatus = "RELEASED"
	EmpowermentFallback        EmpowermentStatus = "FALLBACK"
	EmpowermentConverted       EmpowermentStatus = "CONVERTED"
)

// Terminal reports whether no further transition is possible from s.
func (s EmpowermentStatus) Terminal() bool {
	switch s {
	case EmpowermentReleased, EmpowermentFallback, EmpowermentConverted:
		return true
	}
	return false
}

// EmpowermentPackage is the sponsor-funded, beneficiary-targeted long-horizon
// reward instrument. One package exists per sponsor/beneficiary pairing.
//
// TaxRateBps is frozen at activation so the net values shown to the sponsor
// can never diverge from the tax applied at approval.
type EmpowermentPackage struct {
	ID            string `dynamodbav:"id"`
	SponsorID     string `dynamodbav:"sponsor_id"`
	BeneficiaryID string `dynamodbav:"beneficiary_id"`

	Fee int64 `dynamodbav:"fee"`
	VAT int64 `dynamodbav:"vat"`

	GrossValue  int64 `dynamodbav:"gross_value"`
	NetValue    int64 `dynamodbav:"net_value"`
	GrossReward int64 `dynamodbav:"gross_reward"`
	NetReward   int64 `dynamodbav:"net_reward"`

	TaxRateBps int64 `dynamodbav:"tax_rate_bps"`
	TotalTax   int64 `dynamodbav:"total_tax"`

	FallbackGross int64 `dynamodbav:"fallback_gross"`
	FallbackNet   int64 `dynamodbav:"fallback_net"`

	Converted        bool  `dynamodbav:"converted"`
	ConversionAmount int64 `dynamodbav:"conversion_amount"`

	Status EmpowermentStatus `dynamodbav:"status"`

	ActivatedAt time.Time `dynamodbav:"activated_at"`
	MaturityAt  time.Time `dynamodbav:"maturity_at"`
	ApprovedAt  time.Time `dynamodbav:"approved_at,omitempty"`
	ReleasedAt  time.Time `dynamodbav:"released_at,omitempty"`

	Version   int64     `dynamodbav:"version"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// EmpowermentTransition is the atomic unit of work for one lifecycle step:
// the guarded status change plus any wallet movements, ledger entries, and
// the audit row. Nil Set pointers leave the package field untouched.
type EmpowermentTransition struct {
	PackageID string
	From      EmpowermentStatus
	To        EmpowermentStatus

	TotalTax         *int64
	ApprovedAt       *time.Time
	ReleasedAt       *time.Time
	Converted        *bool
	ConversionAmount *int64

	Postings []Posting
	Entries  []LedgerEntry
	Audit    EmpowermentTransaction
}

// EmpowermentTransaction is the audit row appended by every lifecycle
// transition.
type EmpowermentTransaction struct {
	ID        string    `dynamodbav:"id"`
	PackageID string    `dynamodbav:"package_id"`
	Action    string    `dynamodbav:"action"`
	ActorID   string    `dynamodbav:"actor_id"`
	Gross     int64     `dynamodbav:"gross"`
	Tax       int64     `dynamodbav:"tax"`
	Net       int64     `dynamodbav:"net"`
	Timestamp time.Time `dynamodbav:"timestamp"`
}
