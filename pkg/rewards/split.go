package rewards

import (
	"time"

	"github.com/google/uuid"

	"github.com/chris/membership-rewards/pkg/models"
)

// SplitToken divides a gross token reward between the recipient and the
// buy-back pool. The halves always sum to the gross amount exactly; when
// the gross is odd in the smallest unit, the remainder goes to the pool.
func SplitToken(gross int64) (recipient, pool int64) {
	recipient = gross / 2
	pool = gross - recipient
	return recipient, pool
}

// creditToken applies a token reward to a distribution: the recipient half
// lands in the token wallet with a ledger entry, the pool half accrues on
// the buy-back pool. Pool-side accounting is internal and gets no
// user-visible ledger row.
func creditToken(d *models.Distribution, recipientID string, gross int64, category, description, sourceID string, at time.Time) {
	if gross <= 0 {
		return
	}
	recipientShare, poolShare := SplitToken(gross)
	d.AddPosting(recipientID, models.WalletToken, recipientShare)
	d.BuyBack += poolShare
	if recipientShare > 0 {
		d.AddEntry(models.LedgerEntry{
			Reference:       uuid.New().String(),
			AccountID:       recipientID,
			Category:        category,
			Amount:          recipientShare,
			Description:     description,
			SourceAccountID: sourceID,
			Status:          models.EntrySettled,
			Timestamp:       at,
		})
	}
}
