package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/notifier"
	"github.com/chris/membership-rewards/pkg/storage"
)

// RenewalWindow is how far before expiry a renewal becomes eligible.
const RenewalWindow = 30 * 24 * time.Hour

// MembershipTermDays is the validity of a first activation.
const MembershipTermDays = 365

// Receipt is the pre-validated payment outcome handed in by the upstream
// payment collaborator. The engine never contacts a gateway itself.
type Receipt struct {
	Reference string
	Confirmed bool
}

// Engine orchestrates reward distribution for the three membership
// triggers: first activation, renewal, and differential upgrade. Each
// trigger builds one Distribution and commits it atomically through the
// store; notifications go out only after the commit succeeds.
type Engine struct {
	store    storage.EngineStore
	chain    *ChainResolver
	notifier notifier.Notifier
	log      *slog.Logger
}

// NewEngine creates an Engine. A nil notifier disables dispatch; a nil
// logger falls back to slog.Default().
func NewEngine(store storage.EngineStore, n notifier.Notifier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:    store,
		chain:    NewChainResolver(store),
		notifier: n,
		log:      log,
	}
}

// Activate distributes first-activation rewards across the referral chain
// of accountID and activates the package on the account.
func (e *Engine) Activate(ctx context.Context, accountID, packageID string, selection models.PalliativeType, receipt Receipt) (*models.Distribution, error) {
	if !receipt.Confirmed {
		return nil, fmt.Errorf("payment not confirmed: %w", storage.ErrNotEligible)
	}

	if _, err := e.store.GetAccount(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to get activating account: %w", err)
	}
	pkg, err := e.store.GetPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	now := time.Now().UTC()
	chain, err := e.resolveChain(ctx, accountID, pkg)
	if err != nil {
		return nil, err
	}

	d := &models.Distribution{
		Event: &models.TriggerEvent{
			EventID:   models.TriggerEventID(accountID, packageID, models.TriggerActivation, now),
			AccountID: accountID,
			PackageID: packageID,
			Trigger:   models.TriggerActivation,
			CreatedAt: now,
		},
	}

	// The activation cost and its VAT were paid upstream; the ledger
	// records them against the activator for audit.
	d.AddEntry(models.LedgerEntry{
		Reference:       uuid.New().String(),
		AccountID:       accountID,
		Category:        models.CategoryActivation,
		Amount:          -pkg.Price,
		Description:     fmt.Sprintf("Activation of package %s by %s", pkg.Name, accountID),
		SourceAccountID: accountID,
		Status:          models.EntrySettled,
		Timestamp:       now,
	})
	if pkg.VAT > 0 {
		d.AddEntry(models.LedgerEntry{
			Reference:       uuid.New().String(),
			AccountID:       accountID,
			Category:        models.CategoryVAT,
			Amount:          -pkg.VAT,
			Description:     fmt.Sprintf("VAT on activation of package %s by %s", pkg.Name, accountID),
			SourceAccountID: accountID,
			Status:          models.EntrySettled,
			Timestamp:       now,
		})
	}

	vectorAt := func(level int) (Vector, error) {
		return LevelRewards(pkg, level, TableActivation)
	}
	rewarded, _, err := e.distributeChain(ctx, d, chain, accountID, now, vectorAt, "activation")
	if err != nil {
		return nil, err
	}
	if err := e.distributeShelter(d, chain, pkg, nil, accountID, now); err != nil {
		return nil, err
	}

	active := selection != models.PalliativeNone && pkg.PalliativeTier == models.TierHigher
	expires := now.AddDate(0, 0, MembershipTermDays)
	mut := &models.AccountMutation{
		AccountID:        accountID,
		ActivePackageID:  &packageID,
		ActivatedAt:      &now,
		ExpiresAt:        &expires,
		PalliativeTier:   &pkg.PalliativeTier,
		PalliativeActive: &active,
	}
	if active {
		mut.PalliativeType = &selection
	}
	d.Mutation = mut

	if err := e.store.ApplyDistribution(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}

	e.log.Info("activation distributed",
		slog.String("account_id", accountID),
		slog.String("package_id", packageID),
		slog.Int("rewarded_ancestors", len(rewarded)))

	for _, ancestorID := range rewarded {
		e.notify(ctx, "referral.reward", ancestorID, map[string]string{
			"source_account_id": accountID,
			"package_id":        packageID,
			"trigger":           string(models.TriggerActivation),
		})
	}
	e.notify(ctx, "membership.activated", accountID, map[string]string{
		"package_id": packageID,
		"expires_at": expires.Format(time.RFC3339),
	})

	return d, nil
}

// Renew distributes renewal rewards and extends the membership. The account
// must hold an active, renewable package and be within the renewal window
// of its expiry (or already expired).
func (e *Engine) Renew(ctx context.Context, accountID string, receipt Receipt) (*models.Distribution, error) {
	if !receipt.Confirmed {
		return nil, fmt.Errorf("payment not confirmed: %w", storage.ErrNotEligible)
	}

	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get renewing account: %w", err)
	}
	if account.ActivePackageID == "" {
		return nil, fmt.Errorf("account %s has no active package: %w", accountID, storage.ErrNotEligible)
	}
	pkg, err := e.store.GetPackage(ctx, account.ActivePackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if !pkg.SupportsRenewal() {
		return nil, fmt.Errorf("package %s does not support renewal: %w", pkg.ID, storage.ErrNotEligible)
	}

	now := time.Now().UTC()
	if account.ExpiresAt.Sub(now) > RenewalWindow {
		return nil, fmt.Errorf("renewal window opens %s before expiry %s: %w",
			RenewalWindow, account.ExpiresAt.Format(time.RFC3339), storage.ErrNotEligible)
	}

	chain, err := e.resolveChain(ctx, accountID, pkg)
	if err != nil {
		return nil, err
	}

	d := &models.Distribution{
		Event: &models.TriggerEvent{
			EventID:   models.TriggerEventID(accountID, pkg.ID, models.TriggerRenewal, now),
			AccountID: accountID,
			PackageID: pkg.ID,
			Trigger:   models.TriggerRenewal,
			CreatedAt: now,
		},
	}

	d.AddEntry(models.LedgerEntry{
		Reference:       uuid.New().String(),
		AccountID:       accountID,
		Category:        models.CategoryRenewal,
		Amount:          -pkg.Price,
		Description:     fmt.Sprintf("Renewal of package %s by %s", pkg.Name, accountID),
		SourceAccountID: accountID,
		Status:          models.EntrySettled,
		Timestamp:       now,
	})

	vectorAt := func(level int) (Vector, error) {
		return LevelRewards(pkg, level, TableRenewal)
	}
	rewarded, totals, err := e.distributeChain(ctx, d, chain, accountID, now, vectorAt, "renewal")
	if err != nil {
		return nil, err
	}
	if err := e.distributeShelter(d, chain, pkg, nil, accountID, now); err != nil {
		return nil, err
	}

	// Extend from the later of now and the current expiry.
	base := account.ExpiresAt
	if now.After(base) {
		base = now
	}
	newExpiry := base.AddDate(0, 0, pkg.RenewalCycleDays)
	d.Mutation = &models.AccountMutation{
		AccountID:        accountID,
		ExpiresAt:        &newExpiry,
		IncrementRenewal: true,
	}
	d.Renewal = &models.RenewalRecord{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		PackageID:       pkg.ID,
		RenewalNumber:   account.RenewalCount + 1,
		TotalCash:       totals.Cash,
		TotalPalliative: totals.Palliative,
		TotalToken:      totals.Token,
		TotalCashback:   totals.Cashback,
		NewExpiresAt:    newExpiry,
		CreatedAt:       now,
	}

	if err := e.store.ApplyDistribution(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to commit renewal: %w", err)
	}

	e.log.Info("renewal distributed",
		slog.String("account_id", accountID),
		slog.String("package_id", pkg.ID),
		slog.Int64("renewal_number", account.RenewalCount+1))

	for _, ancestorID := range rewarded {
		e.notify(ctx, "referral.reward", ancestorID, map[string]string{
			"source_account_id": accountID,
			"package_id":        pkg.ID,
			"trigger":           string(models.TriggerRenewal),
		})
	}
	e.notify(ctx, "membership.renewed", accountID, map[string]string{
		"package_id": pkg.ID,
		"expires_at": newExpiry.Format(time.RFC3339),
	})

	return d, nil
}

// Upgrade moves the account to a more expensive package, debiting the price
// difference from the main wallet and distributing only the positive
// per-level, per-component delta between the two reward tables.
func (e *Engine) Upgrade(ctx context.Context, accountID, newPackageID string, selection models.PalliativeType) (*models.Distribution, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get upgrading account: %w", err)
	}
	if account.ActivePackageID == "" {
		return nil, fmt.Errorf("account %s has no active package: %w", accountID, storage.ErrNotEligible)
	}
	oldPkg, err := e.store.GetPackage(ctx, account.ActivePackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current package: %w", err)
	}
	newPkg, err := e.store.GetPackage(ctx, newPackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target package: %w", err)
	}

	priceDiff := newPkg.Price - oldPkg.Price
	if priceDiff <= 0 {
		return nil, fmt.Errorf("upgrade must target a higher-priced package: %w", storage.ErrNotEligible)
	}
	// The commit re-checks this under a balance condition; failing early
	// just gives the caller a cleaner error.
	if account.Main < priceDiff {
		return nil, fmt.Errorf("upgrade costs %d, main wallet holds %d: %w",
			priceDiff, account.Main, storage.ErrInsufficientBalance)
	}

	now := time.Now().UTC()
	chain, err := e.resolveChain(ctx, accountID, newPkg)
	if err != nil {
		return nil, err
	}

	d := &models.Distribution{
		Event: &models.TriggerEvent{
			EventID:   models.TriggerEventID(accountID, newPackageID, models.TriggerUpgrade, now),
			AccountID: accountID,
			PackageID: newPackageID,
			Trigger:   models.TriggerUpgrade,
			CreatedAt: now,
		},
	}

	d.AddPosting(accountID, models.WalletMain, -priceDiff)
	d.AddEntry(models.LedgerEntry{
		Reference:       uuid.New().String(),
		AccountID:       accountID,
		Category:        models.CategoryUpgrade,
		Amount:          -priceDiff,
		Description:     fmt.Sprintf("Upgrade from package %s to %s by %s", oldPkg.Name, newPkg.Name, accountID),
		SourceAccountID: accountID,
		Status:          models.EntrySettled,
		Timestamp:       now,
	})

	vectorAt := func(level int) (Vector, error) {
		newVec, err := LevelRewards(newPkg, level, TableActivation)
		if err != nil {
			return Vector{}, err
		}
		oldVec, err := LevelRewards(oldPkg, level, TableActivation)
		if err != nil {
			return Vector{}, err
		}
		return newVec.Sub(oldVec).ClampNonNegative(), nil
	}
	rewarded, _, err := e.distributeChain(ctx, d, chain, accountID, now, vectorAt, "upgrade")
	if err != nil {
		return nil, err
	}
	if err := e.distributeShelter(d, chain, newPkg, oldPkg, accountID, now); err != nil {
		return nil, err
	}

	mut := &models.AccountMutation{
		AccountID:       accountID,
		ActivePackageID: &newPackageID,
	}
	if newPkg.PalliativeTier == models.TierHigher && account.PalliativeTier != models.TierHigher {
		tier := models.TierHigher
		mut.PalliativeTier = &tier
		if !account.PalliativeActive && selection != models.PalliativeNone {
			active := true
			mut.PalliativeActive = &active
			mut.PalliativeType = &selection
			// Funds pooled while unactivated follow the member into the
			// newly selected wallet.
			if w, ok := models.PalliativeWallet(selection); ok && account.GiftPool > 0 {
				d.AddPosting(accountID, models.WalletGiftPool, -account.GiftPool)
				d.AddPosting(accountID, w, account.GiftPool)
				d.AddEntry(models.LedgerEntry{
					Reference:       uuid.New().String(),
					AccountID:       accountID,
					Category:        models.CategoryGiftPoolTransfer,
					Amount:          account.GiftPool,
					Description:     fmt.Sprintf("Pooled palliative balance moved to %s wallet on upgrade", w),
					SourceAccountID: accountID,
					Status:          models.EntrySettled,
					Timestamp:       now,
				})
			}
		}
	}
	d.Mutation = mut

	if err := e.store.ApplyDistribution(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to commit upgrade: %w", err)
	}

	e.log.Info("upgrade distributed",
		slog.String("account_id", accountID),
		slog.String("from_package", oldPkg.ID),
		slog.String("to_package", newPkg.ID))

	for _, ancestorID := range rewarded {
		e.notify(ctx, "referral.reward", ancestorID, map[string]string{
			"source_account_id": accountID,
			"package_id":        newPackageID,
			"trigger":           string(models.TriggerUpgrade),
		})
	}
	e.notify(ctx, "membership.upgraded", accountID, map[string]string{
		"from_package_id": oldPkg.ID,
		"to_package_id":   newPkg.ID,
	})

	return d, nil
}

// resolveChain walks as deep as the package can reward: ten levels for
// shelter-eligible packages, four otherwise.
func (e *Engine) resolveChain(ctx context.Context, accountID string, pkg *models.RewardPackage) ([]string, error) {
	depth := StandardDepth
	if pkg.ShelterEligible && len(pkg.ShelterLevels) > 0 {
		depth = ShelterDepth
	}
	chain, err := e.chain.Resolve(ctx, accountID, depth)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral chain: %w", err)
	}
	return chain, nil
}

// distributeChain credits each present ancestor with the vector for its
// level, routing every component to its wallet and writing one ledger entry
// per non-zero component. It returns the ids of ancestors who received
// anything plus the summed totals.
func (e *Engine) distributeChain(ctx context.Context, d *models.Distribution, chain []string, sourceID string, now time.Time, vectorAt func(level int) (Vector, error), trigger string) ([]string, Vector, error) {
	var rewarded []string
	var totals Vector

	for i, ancestorID := range chain {
		level := i + 1
		vec, err := vectorAt(level)
		if err != nil {
			return nil, Vector{}, fmt.Errorf("failed to resolve level %d rewards: %w", level, err)
		}
		if vec.IsZero() {
			continue
		}

		ancestor, err := e.store.GetAccount(ctx, ancestorID)
		if err != nil {
			// The chain named an account that does not exist; the edge is
			// orphaned.
			return nil, Vector{}, fmt.Errorf("ancestor %s at level %d: %v: %w", ancestorID, level, err, storage.ErrDataIntegrity)
		}

		entry := func(category string, amount int64, what string) models.LedgerEntry {
			return models.LedgerEntry{
				Reference:       uuid.New().String(),
				AccountID:       ancestorID,
				Category:        category,
				Amount:          amount,
				Description:     fmt.Sprintf("Level %d %s reward from %s by %s", level, what, trigger, sourceID),
				SourceAccountID: sourceID,
				Status:          models.EntrySettled,
				Timestamp:       now,
			}
		}

		if vec.Cash > 0 {
			d.AddPosting(ancestorID, models.WalletMain, vec.Cash)
			d.AddEntry(entry(models.ReferralCashCategory(level), vec.Cash, "cash"))
		}
		if vec.Palliative > 0 {
			d.AddPosting(ancestorID, RoutePalliative(ancestor), vec.Palliative)
			d.AddEntry(entry(models.ReferralGiftCategory(level), vec.Palliative, "palliative"))
		}
		if vec.Cashback > 0 {
			d.AddPosting(ancestorID, models.WalletCashback, vec.Cashback)
			d.AddEntry(entry(models.ReferralCashbackCategory(level), vec.Cashback, "cashback"))
		}
		if vec.Token > 0 {
			creditToken(d, ancestorID, vec.Token,
				models.ReferralTokenCategory(level),
				fmt.Sprintf("Level %d token reward from %s by %s", level, trigger, sourceID),
				sourceID, now)
		}
		if vec.Health > 0 {
			d.AddPosting(ancestorID, models.WalletHealth, vec.Health)
			d.AddEntry(entry(models.ReferralHealthCategory(level), vec.Health, "health"))
		}
		if vec.Meal > 0 {
			d.AddPosting(ancestorID, models.WalletMeal, vec.Meal)
			d.AddEntry(entry(models.ReferralMealCategory(level), vec.Meal, "meal"))
		}
		if vec.Security > 0 {
			d.AddPosting(ancestorID, models.WalletSecurity, vec.Security)
			d.AddEntry(entry(models.ReferralSecurityCategory(level), vec.Security, "security"))
		}

		rewarded = append(rewarded, ancestorID)
		totals.Cash += vec.Cash
		totals.Palliative += vec.Palliative
		totals.Token += vec.Token
		totals.Cashback += vec.Cashback
		totals.Health += vec.Health
		totals.Meal += vec.Meal
		totals.Security += vec.Security
	}

	return rewarded, totals, nil
}

// distributeShelter applies the extended shelter-tier payout for eligible
// packages. When oldPkg is non-nil (upgrade) only the positive delta per
// level is paid.
func (e *Engine) distributeShelter(d *models.Distribution, chain []string, pkg, oldPkg *models.RewardPackage, sourceID string, now time.Time) error {
	if !pkg.ShelterEligible || len(pkg.ShelterLevels) == 0 {
		return nil
	}

	for i, ancestorID := range chain {
		level := i + 1
		vec, err := LevelRewards(pkg, level, TableShelter)
		if err != nil {
			return fmt.Errorf("failed to resolve level %d shelter reward: %w", level, err)
		}
		amount := vec.Cash
		if oldPkg != nil {
			oldVec, err := LevelRewards(oldPkg, level, TableShelter)
			if err != nil {
				return fmt.Errorf("failed to resolve level %d shelter reward: %w", level, err)
			}
			amount -= oldVec.Cash
		}
		if amount <= 0 {
			continue
		}

		d.AddPosting(ancestorID, models.WalletShelter, amount)
		d.Shelter = append(d.Shelter, models.ShelterReward{
			ID:              uuid.New().String(),
			AccountID:       ancestorID,
			SourceAccountID: sourceID,
			PackageID:       pkg.ID,
			Level:           level,
			Amount:          amount,
			CreatedAt:       now,
		})
		d.AddEntry(models.LedgerEntry{
			Reference:       uuid.New().String(),
			AccountID:       ancestorID,
			Category:        models.ShelterCategory(level),
			Amount:          amount,
			Description:     fmt.Sprintf("Level %d shelter reward triggered by %s", level, sourceID),
			SourceAccountID: sourceID,
			Status:          models.EntrySettled,
			Timestamp:       now,
		})
	}

	return nil
}

// notify dispatches one event without letting a delivery failure surface to
// the caller.
func (e *Engine) notify(ctx context.Context, kind, recipientID string, payload map[string]string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, kind, recipientID, payload); err != nil {
		e.log.Warn("notification dispatch failed",
			slog.String("kind", kind),
			slog.String("recipient_id", recipientID),
			slog.String("error", err.Error()))
	}
}
