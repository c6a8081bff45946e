package models

import "time"

// Posting is a single wallet movement inside a distribution. A negative
// amount is a debit; the store guards every debit with a balance condition
// so the commit fails rather than driving a wallet below zero.
type Posting struct {
	AccountID string
	Wallet    Wallet
	Amount    int64
}

// AccountMutation carries the non-balance field changes a trigger applies to
// the acting account. Nil pointers leave the field untouched.
type AccountMutation struct {
	AccountID string

	ActivePackageID  *string
	ActivatedAt      *time.Time
	ExpiresAt        *time.Time
	PalliativeTier   *PalliativeTier
	PalliativeActive *bool
	PalliativeType   *PalliativeType
	IncrementRenewal bool
}

// Distribution is the unit of work produced by one trigger. Everything in
// it commits atomically or not at all: postings, ledger entries, the
// idempotency event, shelter records, the buy-back pool credit, and the
// acting account's field mutation.
type Distribution struct {
	Event     *TriggerEvent
	Postings  []Posting
	Entries   []LedgerEntry
	Mutation  *AccountMutation
	Shelter   []ShelterReward
	BuyBack   int64
	Renewal   *RenewalRecord
}

// AddPosting appends a wallet movement, dropping zero amounts.
func (d *Distribution) AddPosting(accountID string, w Wallet, amount int64) {
	if amount == 0 {
		return
	}
	d.Postings = append(d.Postings, Posting{AccountID: accountID, Wallet: w, Amount: amount})
}

// AddEntry appends a ledger entry.
func (d *Distribution) AddEntry(e LedgerEntry) {
	d.Entries = append(d.Entries, e)
}

// PostingsByAccount aggregates postings into one wallet->amount map per
// account, the shape the store needs to build a single update per account.
func (d *Distribution) PostingsByAccount() map[string]map[Wallet]int64 {
	out := make(map[string]map[Wallet]int64)
	for _, p := range d.Postings {
		m, ok := out[p.AccountID]
		if !ok {
			m = make(map[Wallet]int64)
			out[p.AccountID] = m
		}
		m[p.Wallet] += p.Amount
	}
	return out
}
