package api

import (
	"github.com/chris/membership-rewards/pkg/models"
)

// ToAccount converts a domain Account to its API view.
func ToAccount(a *models.Account) *Account {
	out := &Account{
		ID:               a.ID,
		ReferrerID:       a.ReferrerID,
		ActivePackageID:  a.ActivePackageID,
		PalliativeTier:   string(a.PalliativeTier),
		PalliativeActive: a.PalliativeActive,
		PalliativeType:   string(a.PalliativeType),
		RenewalCount:     a.RenewalCount,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		Wallets: map[string]int64{
			string(models.WalletMain):            a.Main,
			string(models.WalletSpendable):       a.Spendable,
			string(models.WalletCashback):        a.Cashback,
			string(models.WalletToken):           a.Token,
			string(models.WalletGiftPool):        a.GiftPool,
			string(models.WalletShelter):         a.Shelter,
			string(models.WalletCommunity):       a.Community,
			string(models.WalletHealth):          a.Health,
			string(models.WalletEducation):       a.Education,
			string(models.WalletMeal):            a.Meal,
			string(models.WalletSecurity):        a.Security,
			string(models.WalletBusiness):        a.Business,
			string(models.WalletLand):            a.Land,
			string(models.WalletCar):             a.Car,
			string(models.WalletSolar):           a.Solar,
			string(models.WalletHouse):           a.House,
			string(models.WalletShareholder):     a.Shareholder,
			string(models.WalletSocialMedia):     a.SocialMedia,
			string(models.WalletStudentCashback): a.StudentCashback,
		},
	}
	if !a.ActivatedAt.IsZero() {
		t := a.ActivatedAt
		out.ActivatedAt = &t
	}
	if !a.ExpiresAt.IsZero() {
		t := a.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// ToDomainNewAccount converts a NewAccount request to a domain Account.
func ToDomainNewAccount(n *NewAccount) *models.Account {
	return &models.Account{
		ID:         n.ID,
		ReferrerID: n.ReferrerID,
	}
}

// ToRewardPackage converts a domain package to its API view.
func ToRewardPackage(p *models.RewardPackage) *RewardPackage {
	out := &RewardPackage{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		VAT:              p.VAT,
		PalliativeTier:   string(p.PalliativeTier),
		RenewalCycleDays: p.RenewalCycleDays,
		ShelterEligible:  p.ShelterEligible,
		ShelterLevels:    p.ShelterLevels,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for _, l := range p.Levels {
		out.Levels = append(out.Levels, LevelReward{
			Cash: l.Cash, Palliative: l.Palliative, Token: l.Token, Cashback: l.Cashback,
		})
	}
	for _, l := range p.RenewalLevels {
		out.RenewalLevels = append(out.RenewalLevels, RenewalLevelReward{
			Cash: l.Cash, Palliative: l.Palliative, Token: l.Token, Cashback: l.Cashback,
			Health: l.Health, Meal: l.Meal, Security: l.Security,
		})
	}
	return out
}

// ToDomainRewardPackage converts an API package to the domain model.
func ToDomainRewardPackage(p *RewardPackage) *models.RewardPackage {
	out := &models.RewardPackage{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		VAT:              p.VAT,
		PalliativeTier:   models.PalliativeTier(p.PalliativeTier),
		RenewalCycleDays: p.RenewalCycleDays,
		ShelterEligible:  p.ShelterEligible,
		ShelterLevels:    p.ShelterLevels,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for _, l := range p.Levels {
		out.Levels = append(out.Levels, models.LevelReward{
			Cash: l.Cash, Palliative: l.Palliative, Token: l.Token, Cashback: l.Cashback,
		})
	}
	for _, l := range p.RenewalLevels {
		out.RenewalLevels = append(out.RenewalLevels, models.RenewalLevelReward{
			Cash: l.Cash, Palliative: l.Palliative, Token: l.Token, Cashback: l.Cashback,
			Health: l.Health, Meal: l.Meal, Security: l.Security,
		})
	}
	return out
}

// ToDistributionResult summarizes a committed distribution for the response.
func ToDistributionResult(d *models.Distribution) *DistributionResult {
	return &DistributionResult{
		EventID:       d.Event.EventID,
		AccountID:     d.Event.AccountID,
		PackageID:     d.Event.PackageID,
		Trigger:       string(d.Event.Trigger),
		Postings:      len(d.Postings),
		LedgerEntries: len(d.Entries),
		BuyBackCredit: d.BuyBack,
	}
}

// ToLedgerEntry converts a domain ledger row to its API view.
func ToLedgerEntry(e *models.LedgerEntry) *LedgerEntry {
	return &LedgerEntry{
		Reference:       e.Reference,
		AccountID:       e.AccountID,
		Category:        e.Category,
		Amount:          e.Amount,
		Description:     e.Description,
		SourceAccountID: e.SourceAccountID,
		Status:          string(e.Status),
		Timestamp:       e.Timestamp,
	}
}

// ToEmpowerment converts a domain empowerment package to its API view.
func ToEmpowerment(p *models.EmpowermentPackage) *Empowerment {
	out := &Empowerment{
		ID:               p.ID,
		SponsorID:        p.SponsorID,
		BeneficiaryID:    p.BeneficiaryID,
		Fee:              p.Fee,
		VAT:              p.VAT,
		GrossValue:       p.GrossValue,
		NetValue:         p.NetValue,
		GrossReward:      p.GrossReward,
		NetReward:        p.NetReward,
		TaxRateBps:       p.TaxRateBps,
		TotalTax:         p.TotalTax,
		FallbackGross:    p.FallbackGross,
		FallbackNet:      p.FallbackNet,
		Converted:        p.Converted,
		ConversionAmount: p.ConversionAmount,
		Status:           string(p.Status),
		ActivatedAt:      p.ActivatedAt,
		MaturityAt:       p.MaturityAt,
	}
	if !p.ApprovedAt.IsZero() {
		t := p.ApprovedAt
		out.ApprovedAt = &t
	}
	if !p.ReleasedAt.IsZero() {
		t := p.ReleasedAt
		out.ReleasedAt = &t
	}
	return out
}

// ToEmpowermentTransaction converts an audit row to its API view.
func ToEmpowermentTransaction(t *models.EmpowermentTransaction) *EmpowermentTransaction {
	return &EmpowermentTransaction{
		ID:        t.ID,
		PackageID: t.PackageID,
		Action:    t.Action,
		ActorID:   t.ActorID,
		Gross:     t.Gross,
		Tax:       t.Tax,
		Net:       t.Net,
		Timestamp: t.Timestamp,
	}
}

// ToBuyBackPool converts the domain pool record to its API view.
func ToBuyBackPool(p *models.BuyBackPool) *BuyBackPool {
	return &BuyBackPool{Balance: p.Balance, Burned: p.Burned, UpdatedAt: p.UpdatedAt}
}
