package rewards

import "github.com/chris/membership-rewards/pkg/models"

// Vector holds the per-level reward components as one value, so the
// activation, renewal, and upgrade paths share the same arithmetic instead
// of subtracting fields ad hoc.
type Vector struct {
	Cash       int64
	Palliative int64
	Token      int64
	Cashback   int64
	Health     int64
	Meal       int64
	Security   int64
}

// Sub returns the elementwise difference v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{
		Cash:       v.Cash - o.Cash,
		Palliative: v.Palliative - o.Palliative,
		Token:      v.Token - o.Token,
		Cashback:   v.Cashback - o.Cashback,
		Health:     v.Health - o.Health,
		Meal:       v.Meal - o.Meal,
		Security:   v.Security - o.Security,
	}
}

// ClampNonNegative zeroes every negative component. Upgrades distribute
// only positive deltas; a previous reward is never clawed back.
func (v Vector) ClampNonNegative() Vector {
	clamp := func(n int64) int64 {
		if n < 0 {
			return 0
		}
		return n
	}
	return Vector{
		Cash:       clamp(v.Cash),
		Palliative: clamp(v.Palliative),
		Token:      clamp(v.Token),
		Cashback:   clamp(v.Cashback),
		Health:     clamp(v.Health),
		Meal:       clamp(v.Meal),
		Security:   clamp(v.Security),
	}
}

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

func fromLevelReward(r models.LevelReward) Vector {
	return Vector{Cash: r.Cash, Palliative: r.Palliative, Token: r.Token, Cashback: r.Cashback}
}

func fromRenewalReward(r models.RenewalLevelReward) Vector {
	return Vector{
		Cash:       r.Cash,
		Palliative: r.Palliative,
		Token:      r.Token,
		Cashback:   r.Cashback,
		Health:     r.Health,
		Meal:       r.Meal,
		Security:   r.Security,
	}
}
