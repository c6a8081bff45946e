package rewards

import "github.com/chris/membership-rewards/pkg/models"

// RoutePalliative decides which wallet a palliative-type reward lands in
// for the given recipient. Exactly one wallet is returned per call; the
// caller performs the credit and writes the ledger entry.
func RoutePalliative(recipient *models.Account) models.Wallet {
	switch {
	case recipient.PalliativeActive:
		if w, ok := models.PalliativeWallet(recipient.PalliativeType); ok {
			return w
		}
		// Activated but no recognized selection; pool it.
		return models.WalletGiftPool
	case recipient.PalliativeTier == models.TierLower:
		return models.WalletGiftPool
	default:
		// Tier unset or legacy account.
		return models.WalletGiftPool
	}
}
