package storage

import (
	"context"

	"github.com/chris/membership-rewards/pkg/models"
)

// ReferralReader defines the read side of the referral forest. The chain
// resolver walks ancestors through this interface; nothing in the engine
// ever mutates an edge.
type ReferralReader interface {
	// GetReferrer returns the account id of the direct referrer of
	// accountID, or ErrNotFound when the account has no referrer.
	GetReferrer(ctx context.Context, accountID string) (string, error)
}

// ReferralStore adds the registration-time write.
type ReferralStore interface {
	ReferralReader

	// CreateEdge records the referrer -> referred link created once at
	// registration.
	CreateEdge(ctx context.Context, edge *models.ReferralEdge) error
}
