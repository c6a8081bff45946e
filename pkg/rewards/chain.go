package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/membership-rewards/pkg/storage"
)

// Referral chain depths. Standard rewards walk four levels; shelter-tier
// payouts extend to ten.
const (
	StandardDepth = 4
	ShelterDepth  = 10
)

// ChainResolver walks the referral forest upward from an account.
type ChainResolver struct {
	refs storage.ReferralReader
}

// NewChainResolver creates a ChainResolver backed by the given reader.
func NewChainResolver(refs storage.ReferralReader) *ChainResolver {
	return &ChainResolver{refs: refs}
}

// Resolve returns the ordered ancestor chain of accountID: index 0 is the
// direct referrer (level 1). The chain is at most maxDepth long and stops
// early when an account has no referrer. Trees are acyclic by construction,
// but a repeated id still aborts the walk with storage.ErrDataIntegrity
// rather than looping.
func (c *ChainResolver) Resolve(ctx context.Context, accountID string, maxDepth int) ([]string, error) {
	chain := make([]string, 0, maxDepth)
	seen := map[string]bool{accountID: true}

	current := accountID
	for len(chain) < maxDepth {
		referrer, err := c.refs.GetReferrer(ctx, current)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolve referrer of %s: %w", current, err)
		}
		if seen[referrer] {
			return nil, fmt.Errorf("referral chain of %s revisits %s: %w", accountID, referrer, storage.ErrDataIntegrity)
		}
		seen[referrer] = true
		chain = append(chain, referrer)
		current = referrer
	}

	return chain, nil
}
