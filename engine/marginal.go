/*
marginal.go - Tier-weighted payout across multiplier bands

PURPOSE:
  For stepped and gated metrics, payout is NOT achievement x allocation x
  a single band's multiplier. Each band earns at its own multiplier for
  the slice of achievement it covers, like marginal tax brackets:

    payout = sum over bands of (covered width / 100) x allocation x multiplier

  where covered width is the part of [0, achievement] inside the band.
  The top band's coverage is uncapped above its max.

  The equivalent weighted-average multiplier is reported alongside so UIs
  can display a single number that reproduces the same payout.

GATE SHORT-CIRCUIT:
  If a gated metric's achievement is at or below the gate threshold, the
  whole computation is skipped and payout is 0 - bands above the gate
  never rescue a gated miss.
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// MarginalResult is the tier-weighted outcome for one metric.
type MarginalResult struct {
	GrossUSD decimal.Decimal

	// EffectiveMultiplier is the single multiplier that, applied to
	// achievement x allocation, reproduces GrossUSD. Zero when achievement
	// or allocation is zero.
	EffectiveMultiplier decimal.Decimal
}

// MarginalPayout computes the tier-weighted payout for an allocation of
// variable OTE at the given achievement percentage.
func (g GridLookupSpec) MarginalPayout(achievementPct, allocationUSD decimal.Decimal) MarginalResult {
	if achievementPct.IsNegative() || !achievementPct.IsPositive() || allocationUSD.IsZero() {
		return MarginalResult{GrossUSD: decimal.Zero, EffectiveMultiplier: decimal.Zero}
	}
	if g.Gated(achievementPct) {
		return MarginalResult{GrossUSD: decimal.Zero, EffectiveMultiplier: decimal.Zero}
	}

	if g.Logic == LogicLinear {
		gross := allocationUSD.Mul(achievementPct).Div(hundred)
		return MarginalResult{GrossUSD: gross, EffectiveMultiplier: decimal.NewFromInt(1)}
	}

	gross := decimal.Zero
	for i, b := range g.Bands {
		hi := b.MaxPct
		if i == len(g.Bands)-1 && achievementPct.GreaterThan(hi) {
			hi = achievementPct // top band is uncapped
		}
		if hi.GreaterThan(achievementPct) {
			hi = achievementPct
		}
		width := hi.Sub(b.MinPct)
		if !width.IsPositive() {
			continue
		}
		gross = gross.Add(width.Div(hundred).Mul(allocationUSD).Mul(b.Multiplier))
	}

	earnedBase := achievementPct.Div(hundred).Mul(allocationUSD)
	eff := decimal.Zero
	if earnedBase.IsPositive() {
		eff = gross.Div(earnedBase)
	}
	return MarginalResult{GrossUSD: gross, EffectiveMultiplier: eff}
}
