package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noCooldownNoTrust() Config {
	cfg := DefaultConfig()
	cfg.TrustDiscount.Enabled = false
	cfg.Cooldown.Enabled = false
	return cfg
}

func TestCalculateBaseCase(t *testing.T) {
	e := New(noCooldownNoTrust())

	sats, breakdown := e.Calculate("a", "t", nil, false)
	require.EqualValues(t, 1, sats)
	require.EqualValues(t, 0, breakdown.PriorActionsInContext)
}

func TestCalculateProgressionMatchesGeometricFormula(t *testing.T) {
	cfg := noCooldownNoTrust()
	e := New(cfg)

	for k := 0; k < 10; k++ {
		want := int64(cfg.BaseSats)
		if k > 0 {
			raw := float64(cfg.BaseSats) * math.Pow(cfg.ProgressiveMultiplier, float64(k))
			want = int64(math.Ceil(raw))
			if want > cfg.ProgressiveCap {
				want = cfg.ProgressiveCap
			}
		}

		sats, breakdown := e.Calculate("a", "t", nil, false)
		require.EqualValuesf(t, want, sats, "k=%d", k)
		require.EqualValues(t, k, breakdown.PriorActionsInContext)
	}

	// The 11th call (k=10) saturates at the cap: 1.5^10 ~= 57.7,
	// which exceeds cap=50.
	sats, _ := e.Calculate("a", "t", nil, true)
	require.EqualValues(t, cfg.ProgressiveCap, sats)
}

func TestCrossContextIndependence(t *testing.T) {
	e := New(noCooldownNoTrust())

	for i := 0; i < 3; i++ {
		e.Calculate("a", "t1", nil, false)
	}

	sats, breakdown := e.Calculate("a", "t2", nil, true)
	require.EqualValues(t, 1, sats)
	require.EqualValues(t, 0, breakdown.PriorActionsInContext)
}

func TestTrustFreePass(t *testing.T) {
	cfg := noCooldownNoTrust()
	cfg.BaseSats = 10
	cfg.TrustDiscount.Enabled = true
	e := New(cfg)

	score := 85
	sats, breakdown := e.Calculate("a", "t", &score, true)
	require.EqualValues(t, 0, sats)
	require.EqualValues(t, 10, breakdown.TrustDiscount)
}

func TestTrustPartialDiscount(t *testing.T) {
	cfg := noCooldownNoTrust()
	cfg.BaseSats = 10
	cfg.TrustDiscount.Enabled = true
	cfg.TrustDiscount.DiscountPercent = 50
	e := New(cfg)

	score := 50
	sats, _ := e.Calculate("a", "t", &score, true)
	require.EqualValues(t, 5, sats)
}

func TestCooldownBonusOnFirstAction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseSats = 10
	cfg.TrustDiscount.Enabled = false
	cfg.Cooldown.Enabled = true
	cfg.Cooldown.Window = 0
	cfg.Cooldown.BonusPercent = 25
	e := New(cfg)

	sats, breakdown := e.Calculate("a", "t", nil, true)
	require.EqualValues(t, 8, sats)
	require.EqualValues(t, 2, breakdown.CooldownBonus)
}

func TestTrustFreePassSkipsCooldown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseSats = 10
	e := New(cfg)

	score := 95
	sats, breakdown := e.Calculate("a", "t", &score, true)
	require.EqualValues(t, 0, sats)
	require.Zero(t, breakdown.CooldownBonus)
}

func TestDryRunDoesNotAdvanceState(t *testing.T) {
	e := New(noCooldownNoTrust())

	for i := 0; i < 5; i++ {
		e.Calculate("a", "t", nil, true)
	}

	stats := e.Stats()
	require.Zero(t, stats.TotalActions)

	sats, _ := e.Calculate("a", "t", nil, true)
	require.EqualValues(t, 1, sats)
}

func TestUnknownTrustScoreSkipsTrustBranchEntirely(t *testing.T) {
	cfg := noCooldownNoTrust()
	cfg.TrustDiscount.Enabled = true
	cfg.BaseSats = 10
	e := New(cfg)

	withNil, _ := e.Calculate("a", "t", nil, true)

	e2 := New(cfg)
	zero := 0
	withZero, _ := e2.Calculate("a", "t", &zero, true)

	require.EqualValues(t, 10, withNil)
	require.EqualValues(t, 10, withZero)
}

func TestAnonymousAndDefaultFallbacks(t *testing.T) {
	e := New(noCooldownNoTrust())

	e.Calculate("", "", nil, false)

	stats := e.Stats()
	require.Equal(t, 1, stats.Contexts)
	require.Equal(t, 1, stats.Agents)
}

func TestCleanupDropsOldActivity(t *testing.T) {
	e := New(noCooldownNoTrust())
	e.Calculate("a", "t", nil, false)

	e.Cleanup(-time.Second) // everything is "older" than now - (-1s)

	stats := e.Stats()
	require.Zero(t, stats.TotalActions)
	require.Zero(t, stats.Contexts)
}

func TestResetClearsState(t *testing.T) {
	e := New(noCooldownNoTrust())
	e.Calculate("a", "t", nil, false)
	e.Reset()

	stats := e.Stats()
	require.Zero(t, stats.TotalActions)
	require.Zero(t, stats.Contexts)
	require.Zero(t, stats.Agents)
}
