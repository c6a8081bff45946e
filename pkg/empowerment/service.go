// Package empowerment drives the sponsor/beneficiary empowerment package
// through its maturity, approval, release, fallback, and conversion
// lifecycle. Transitions are admin- or sponsor-gated and every one of them
// appends an audit row inside the same database transaction as its effects.
package empowerment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/notifier"
	"github.com/chris/membership-rewards/pkg/rewards"
	"github.com/chris/membership-rewards/pkg/storage"
)

// DefaultTaxRateBps is the empowerment tax rate, 7.5%, frozen onto each
// package at activation so the net values shown to the sponsor can never
// drift from the tax applied at approval.
const DefaultTaxRateBps = 750

// MaturityMonths is the empowerment holding period.
const MaturityMonths = 24

// AdminChannel is the broadcast recipient for admin-facing notifications.
const AdminChannel = "admins"

// Store is the persistence the state machine needs.
type Store interface {
	storage.EmpowermentStore
	storage.AccountStore
	storage.PackageStore
}

// PackageActivator activates a standard membership package; Convert uses it
// to move the sponsor onto a regular plan. *rewards.Engine satisfies it.
type PackageActivator interface {
	Activate(ctx context.Context, accountID, packageID string, selection models.PalliativeType, receipt rewards.Receipt) (*models.Distribution, error)
}

// Service is the empowerment lifecycle state machine.
type Service struct {
	store     Store
	activator PackageActivator
	notifier  notifier.Notifier
	log       *slog.Logger
}

// NewService creates a Service. A nil notifier disables dispatch; a nil
// logger falls back to slog.Default().
func NewService(store Store, activator PackageActivator, n notifier.Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, activator: activator, notifier: n, log: log}
}

// ActivateParams carries the sponsor's funding of a new package.
type ActivateParams struct {
	SponsorID     string
	BeneficiaryID string
	Fee           int64
	VAT           int64
	GrossValue    int64
	GrossReward   int64
	FallbackGross int64
	Receipt       rewards.Receipt
}

// Activate creates a package in ACTIVE state with the countdown running.
// Net values are precomputed for display from the frozen tax rate; no funds
// move until release.
func (s *Service) Activate(ctx context.Context, params ActivateParams) (*models.EmpowermentPackage, error) {
	if !params.Receipt.Confirmed {
		return nil, fmt.Errorf("payment not confirmed: %w", storage.ErrNotEligible)
	}
	if _, err := s.store.GetAccount(ctx, params.SponsorID); err != nil {
		return nil, fmt.Errorf("failed to get sponsor account: %w", err)
	}
	if _, err := s.store.GetAccount(ctx, params.BeneficiaryID); err != nil {
		return nil, fmt.Errorf("failed to get beneficiary account: %w", err)
	}

	now := time.Now().UTC()
	pkg := &models.EmpowermentPackage{
		ID:            uuid.New().String(),
		SponsorID:     params.SponsorID,
		BeneficiaryID: params.BeneficiaryID,
		Fee:           params.Fee,
		VAT:           params.VAT,
		GrossValue:    params.GrossValue,
		NetValue:      netOf(params.GrossValue, DefaultTaxRateBps),
		GrossReward:   params.GrossReward,
		NetReward:     netOf(params.GrossReward, DefaultTaxRateBps),
		TaxRateBps:    DefaultTaxRateBps,
		FallbackGross: params.FallbackGross,
		FallbackNet:   netOf(params.FallbackGross, DefaultTaxRateBps),
		Status:        models.EmpowermentActive,
		ActivatedAt:   now,
		MaturityAt:    now.AddDate(0, MaturityMonths, 0),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	audit := &models.EmpowermentTransaction{
		ID:        uuid.New().String(),
		PackageID: pkg.ID,
		Action:    "activate",
		ActorID:   params.SponsorID,
		Gross:     params.GrossValue + params.GrossReward,
		Net:       pkg.NetValue + pkg.NetReward,
		Timestamp: now,
	}

	created, err := s.store.CreateEmpowerment(ctx, pkg, audit)
	if err != nil {
		return nil, fmt.Errorf("failed to create empowerment package: %w", err)
	}

	s.log.Info("empowerment package activated",
		slog.String("package_id", created.ID),
		slog.String("sponsor_id", params.SponsorID),
		slog.String("beneficiary_id", params.BeneficiaryID))
	s.notify(ctx, "empowerment.activated", params.SponsorID, created.ID)
	s.notify(ctx, "empowerment.activated", params.BeneficiaryID, created.ID)

	return created, nil
}

// CheckMaturity moves a matured ACTIVE package to PENDING_MATURITY. Called
// by the external sweep or an admin; fails with ErrNotMature before the
// maturity date.
func (s *Service) CheckMaturity(ctx context.Context, packageID, actorID string) (*models.EmpowermentPackage, error) {
	pkg, err := s.store.GetEmpowerment(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get empowerment package: %w", err)
	}
	if pkg.Status != models.EmpowermentActive {
		return nil, fmt.Errorf("maturity check requires %s, package is %s: %w",
			models.EmpowermentActive, pkg.Status, storage.ErrInvalidState)
	}
	now := time.Now().UTC()
	if now.Before(pkg.MaturityAt) {
		return nil, fmt.Errorf("package matures %s: %w", pkg.MaturityAt.Format(time.RFC3339), storage.ErrNotMature)
	}

	t := &models.EmpowermentTransition{
		PackageID: packageID,
		From:      models.EmpowermentActive,
		To:        models.EmpowermentPendingMaturity,
		Audit: models.EmpowermentTransaction{
			ID:        uuid.New().String(),
			PackageID: packageID,
			Action:    "check_maturity",
			ActorID:   actorID,
			Gross:     pkg.GrossValue + pkg.GrossReward,
			Timestamp: now,
		},
	}
	if err := s.store.ApplyTransition(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to apply maturity transition: %w", err)
	}
	pkg.Status = models.EmpowermentPendingMaturity

	s.notify(ctx, "empowerment.matured", pkg.SponsorID, packageID)
	s.notify(ctx, "empowerment.matured", pkg.BeneficiaryID, packageID)
	s.notify(ctx, "empowerment.matured", AdminChannel, packageID)

	return pkg, nil
}

// Approve computes and stores the total tax from the rate frozen at
// activation. Admin only; requires PENDING_MATURITY.
func (s *Service) Approve(ctx context.Context, packageID, adminID string, isAdmin bool) (*models.EmpowermentPackage, error) {
	if !isAdmin {
		return nil, fmt.Errorf("approve is admin-only: %w", storage.ErrUnauthorized)
	}
	pkg, err := s.store.GetEmpowerment(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get empowerment package: %w", err)
	}
	if pkg.Status != models.EmpowermentPendingMaturity {
		return nil, fmt.Errorf("approve requires %s, package is %s: %w",
			models.EmpowermentPendingMaturity, pkg.Status, storage.ErrInvalidState)
	}

	now := time.Now().UTC()
	gross := pkg.GrossValue + pkg.GrossReward
	tax := taxOf(gross, pkg.TaxRateBps)

	t := &models.EmpowermentTransition{
		PackageID:  packageID,
		From:       models.EmpowermentPendingMaturity,
		To:         models.EmpowermentApproved,
		TotalTax:   &tax,
		ApprovedAt: &now,
		Audit: models.EmpowermentTransaction{
			ID:        uuid.New().String(),
			PackageID: packageID,
			Action:    "approve",
			ActorID:   adminID,
			Gross:     gross,
			Tax:       tax,
			Net:       gross - tax,
			Timestamp: now,
		},
	}
	if err := s.store.ApplyTransition(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to apply approval: %w", err)
	}
	pkg.Status = models.EmpowermentApproved
	pkg.TotalTax = tax
	pkg.ApprovedAt = now

	s.notify(ctx, "empowerment.approved", pkg.SponsorID, packageID)

	return pkg, nil
}

// Release pays out an APPROVED package: the net empowerment value lands in
// the beneficiary's education wallet (viewable, not withdrawable) and the
// net sponsor reward in the sponsor's main wallet. Admin only; terminal.
func (s *Service) Release(ctx context.Context, packageID, adminID string, isAdmin bool) (*models.EmpowermentPackage, error) {
	if !isAdmin {
		return nil, fmt.Errorf("release is admin-only: %w", storage.ErrUnauthorized)
	}
	pkg, err := s.store.GetEmpowerment(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get empowerment package: %w", err)
	}
	if pkg.Status != models.EmpowermentApproved {
		return nil, fmt.Errorf("release requires %s, package is %s: %w",
			models.EmpowermentApproved, pkg.Status, storage.ErrInvalidState)
	}

	now := time.Now().UTC()
	t := &models.EmpowermentTransition{
		PackageID:  packageID,
		From:       models.EmpowermentApproved,
		To:         models.EmpowermentReleased,
		ReleasedAt: &now,
		Postings: []models.Posting{
			{AccountID: pkg.BeneficiaryID, Wallet: models.WalletEducation, Amount: pkg.NetValue},
			{AccountID: pkg.SponsorID, Wallet: models.WalletMain, Amount: pkg.NetReward},
		},
		Entries: []models.LedgerEntry{
			{
				Reference:       uuid.New().String(),
				AccountID:       pkg.BeneficiaryID,
				Category:        models.CategoryEmpowerRelease,
				Amount:          pkg.NetValue,
				Description:     fmt.Sprintf("Empowerment release funded by %s", pkg.SponsorID),
				SourceAccountID: pkg.SponsorID,
				Status:          models.EntrySettled,
				Timestamp:       now,
			},
			{
				Reference:       uuid.New().String(),
				AccountID:       pkg.SponsorID,
				Category:        models.CategoryEmpowerReward,
				Amount:          pkg.NetReward,
				Description:     fmt.Sprintf("Sponsor reward for empowerment of %s", pkg.BeneficiaryID),
				SourceAccountID: pkg.SponsorID,
				Status:          models.EntrySettled,
				Timestamp:       now,
			},
		},
		Audit: models.EmpowermentTransaction{
			ID:        uuid.New().String(),
			PackageID: packageID,
			Action:    "release",
			ActorID:   adminID,
			Gross:     pkg.GrossValue + pkg.GrossReward,
			Tax:       pkg.TotalTax,
			Net:       pkg.NetValue + pkg.NetReward,
			Timestamp: now,
		},
	}
	if err := s.store.ApplyTransition(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to apply release: %w", err)
	}
	pkg.Status = models.EmpowermentReleased
	pkg.ReleasedAt = now

	s.log.Info("empowerment package released",
		slog.String("package_id", packageID),
		slog.Int64("net_value", pkg.NetValue),
		slog.Int64("net_reward", pkg.NetReward))
	s.notify(ctx, "empowerment.released", pkg.SponsorID, packageID)
	s.notify(ctx, "empowerment.released", pkg.BeneficiaryID, packageID)

	return pkg, nil
}

// TriggerFallback credits the sponsor with the precomputed fallback net
// amount. Admin only; valid from PENDING_MATURITY or APPROVED, never after
// release. Terminal.
func (s *Service) TriggerFallback(ctx context.Context, packageID, adminID string, isAdmin bool) (*models.EmpowermentPackage, error) {
	if !isAdmin {
		return nil, fmt.Errorf("fallback is admin-only: %w", storage.ErrUnauthorized)
	}
	pkg, err := s.store.GetEmpowerment(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get empowerment package: %w", err)
	}
	if pkg.Status != models.EmpowermentPendingMaturity && pkg.Status != models.EmpowermentApproved {
		return nil, fmt.Errorf("fallback requires %s or %s, package is %s: %w",
			models.EmpowermentPendingMaturity, models.EmpowermentApproved, pkg.Status, storage.ErrInvalidState)
	}

	now := time.Now().UTC()
	t := &models.EmpowermentTransition{
		PackageID: packageID,
		From:      pkg.Status,
		To:        models.EmpowermentFallback,
		Postings: []models.Posting{
			{AccountID: pkg.SponsorID, Wallet: models.WalletMain, Amount: pkg.FallbackNet},
		},
		Entries: []models.LedgerEntry{
			{
				Reference:       uuid.New().String(),
				AccountID:       pkg.SponsorID,
				Category:        models.CategoryEmpowerFallback,
				Amount:          pkg.FallbackNet,
				Description:     fmt.Sprintf("Fallback protection payout for empowerment of %s", pkg.BeneficiaryID),
				SourceAccountID: pkg.SponsorID,
				Status:          models.EntrySettled,
				Timestamp:       now,
			},
		},
		Audit: models.EmpowermentTransaction{
			ID:        uuid.New().String(),
			PackageID: packageID,
			Action:    "fallback",
			ActorID:   adminID,
			Gross:     pkg.FallbackGross,
			Tax:       pkg.FallbackGross - pkg.FallbackNet,
			Net:       pkg.FallbackNet,
			Timestamp: now,
		},
	}
	if err := s.store.ApplyTransition(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to apply fallback: %w", err)
	}
	pkg.Status = models.EmpowermentFallback

	s.notify(ctx, "empowerment.fallback", pkg.SponsorID, packageID)

	return pkg, nil
}

// Convert lets the sponsor abandon the empowerment track before release:
// the conversion cost (the target package's price) is drawn from the
// sponsor's main wallet and a standard package is activated for them.
// Terminal and mutually exclusive with release/fallback.
func (s *Service) Convert(ctx context.Context, packageID, sponsorID, targetPackageID string) (*models.EmpowermentPackage, error) {
	pkg, err := s.store.GetEmpowerment(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get empowerment package: %w", err)
	}
	if sponsorID != pkg.SponsorID {
		return nil, fmt.Errorf("conversion is sponsor-only: %w", storage.ErrUnauthorized)
	}
	if pkg.Converted || pkg.Status.Terminal() {
		return nil, fmt.Errorf("conversion only valid before release, package is %s: %w",
			pkg.Status, storage.ErrInvalidState)
	}

	target, err := s.store.GetPackage(ctx, targetPackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target package: %w", err)
	}
	sponsor, err := s.store.GetAccount(ctx, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsor account: %w", err)
	}
	if sponsor.Main < target.Price {
		return nil, fmt.Errorf("conversion costs %d, main wallet holds %d: %w",
			target.Price, sponsor.Main, storage.ErrInsufficientBalance)
	}

	now := time.Now().UTC()
	converted := true
	t := &models.EmpowermentTransition{
		PackageID:        packageID,
		From:             pkg.Status,
		To:               models.EmpowermentConverted,
		Converted:        &converted,
		ConversionAmount: &target.Price,
		Postings: []models.Posting{
			{AccountID: sponsorID, Wallet: models.WalletMain, Amount: -target.Price},
		},
		Entries: []models.LedgerEntry{
			{
				Reference:       uuid.New().String(),
				AccountID:       sponsorID,
				Category:        models.CategoryEmpowerConvert,
				Amount:          -target.Price,
				Description:     fmt.Sprintf("Conversion of empowerment package to %s", target.Name),
				SourceAccountID: sponsorID,
				Status:          models.EntrySettled,
				Timestamp:       now,
			},
		},
		Audit: models.EmpowermentTransaction{
			ID:        uuid.New().String(),
			PackageID: packageID,
			Action:    "convert",
			ActorID:   sponsorID,
			Gross:     target.Price,
			Net:       target.Price,
			Timestamp: now,
		},
	}
	if err := s.store.ApplyTransition(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to apply conversion: %w", err)
	}
	pkg.Status = models.EmpowermentConverted
	pkg.Converted = true
	pkg.ConversionAmount = target.Price

	if s.activator != nil {
		receipt := rewards.Receipt{
			Reference: fmt.Sprintf("empowerment-conversion-%s", packageID),
			Confirmed: true,
		}
		if _, err := s.activator.Activate(ctx, sponsorID, targetPackageID, models.PalliativeNone, receipt); err != nil {
			// The conversion debit stands; activation can be retried by an
			// admin without charging the sponsor again.
			s.log.Error("conversion debit applied but package activation failed",
				slog.String("package_id", packageID),
				slog.String("sponsor_id", sponsorID),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("conversion recorded but activation failed: %w", err)
		}
	}

	s.notify(ctx, "empowerment.converted", sponsorID, packageID)

	return pkg, nil
}

// SweepMaturity finds ACTIVE packages past their maturity date and moves
// each to PENDING_MATURITY. Returns how many transitioned.
func (s *Service) SweepMaturity(ctx context.Context, actorID string) (int, error) {
	matured, err := s.store.ListMaturedActive(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list matured packages: %w", err)
	}

	moved := 0
	for _, pkg := range matured {
		if _, err := s.CheckMaturity(ctx, pkg.ID, actorID); err != nil {
			s.log.Warn("maturity sweep skipped package",
				slog.String("package_id", pkg.ID),
				slog.String("error", err.Error()))
			continue
		}
		moved++
	}
	return moved, nil
}

func (s *Service) notify(ctx context.Context, kind, recipientID, packageID string) {
	if s.notifier == nil {
		return
	}
	payload := map[string]string{"empowerment_id": packageID}
	if err := s.notifier.Notify(ctx, kind, recipientID, payload); err != nil {
		s.log.Warn("notification dispatch failed",
			slog.String("kind", kind),
			slog.String("recipient_id", recipientID),
			slog.String("error", err.Error()))
	}
}

func taxOf(gross, rateBps int64) int64 {
	return gross * rateBps / 10_000
}

func netOf(gross, rateBps int64) int64 {
	return gross - taxOf(gross, rateBps)
}
