package storage

import (
	"context"

	"github.com/chris/membership-rewards/pkg/models"
)

// LedgerReader defines the interface for reading ledger data.
type LedgerReader interface {
	// ListLedgerEntries retrieves the most recent ledger entries for an
	// account.
	ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error)

	// ListEntriesBySource retrieves every entry whose SourceAccountID is
	// the given account, i.e. all earnings produced by that referral.
	ListEntriesBySource(ctx context.Context, sourceAccountID string) ([]models.LedgerEntry, error)
}

// LedgerAdmin defines the privileged backfill operation. It is the only way
// ledger rows are ever removed.
type LedgerAdmin interface {
	// PurgeCategory deletes every entry in the given category and returns
	// the number of rows removed, so an admin backfill can regenerate the
	// category from scratch.
	PurgeCategory(ctx context.Context, category string) (int, error)
}

// LedgerStore combines the reader and admin interfaces.
type LedgerStore interface {
	LedgerReader
	LedgerAdmin
}
