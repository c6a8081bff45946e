package storage

// Storage defines the root interface for the entire data layer.
// It composes all available storage operations. Components should depend on
// the more granular interfaces (EngineStore, EmpowermentStore, etc.)
// instead of this one.
type Storage interface {
	EngineStore
	EmpowermentStore
	LedgerStore
	PackageStore
	ReferralStore
	BuyBackReader
}

// EngineStore is the complete set of operations the reward distribution
// engine needs: account reads, package reads, referral walks, and the
// atomic distribution commit.
type EngineStore interface {
	AccountStore
	PackageStore
	ReferralReader
	DistributionStore
}
