package pricing

import "time"

// TrustDiscountConfig controls how an external trust score discounts the
// progressive price.
type TrustDiscountConfig struct {
	Enabled bool

	// FreeAbove is the trust score at or above which price drops to 0.
	FreeAbove int

	// DiscountAbove is the trust score at or above which DiscountPercent
	// applies (below FreeAbove, otherwise no discount).
	DiscountAbove int

	// DiscountPercent is the percentage shaved off price for scores in
	// [DiscountAbove, FreeAbove).
	DiscountPercent int
}

// CooldownConfig controls the bonus applied when an agent's last committed
// action is stale (or nonexistent).
type CooldownConfig struct {
	Enabled bool

	// Window is how recently the agent must have acted for no bonus to
	// apply.
	Window time.Duration

	BonusPercent int
}

// Config holds the pricing engine's tunables. Every field has a documented
// default via DefaultConfig.
type Config struct {
	BaseSats int64

	// ProgressiveMultiplier is the geometric factor applied per prior
	// action in the same (agent, context) pair.
	ProgressiveMultiplier float64

	// ProgressiveCap hard-ceilings the progressive component.
	ProgressiveCap int64

	TrustDiscount TrustDiscountConfig
	Cooldown      CooldownConfig
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		BaseSats:              1,
		ProgressiveMultiplier: 1.5,
		ProgressiveCap:        50,
		TrustDiscount: TrustDiscountConfig{
			Enabled:         true,
			FreeAbove:       80,
			DiscountAbove:   30,
			DiscountPercent: 50,
		},
		Cooldown: CooldownConfig{
			Enabled:      true,
			Window:       60 * time.Second,
			BonusPercent: 25,
		},
	}
}
