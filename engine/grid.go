/*
grid.go - Achievement-to-multiplier resolution

PURPOSE:
  Maps an achievement percentage onto a plan metric's multiplier grid.
  This is the leaf calculator: everything stepped or gated builds on it.

GRID LOOKUP SPEC:
  Both real metrics and hypothetical (what-if) lookups resolve through the
  same GridLookupSpec value type. Simulation callers construct a throwaway
  spec instead of a persisted PlanMetric, so the resolution path is
  identical either way.

RESOLUTION RULES:
  Linear:              multiplier is always 1.0, bands are ignored
  Gated, at/below gate: multiplier is 0 (a hard cliff, "<=" is strict)
  Stepped or gated:    find the band whose [min, max) contains achievement
  Above the top band:  the top band's multiplier applies, uncapped
  Below the lowest:    multiplier is 0
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// GridLookupSpec is the pure value type the resolver operates on. Build one
// from a PlanMetric with SpecForMetric, or construct it directly for
// simulated inputs.
type GridLookupSpec struct {
	Logic   LogicType
	GatePct *decimal.Decimal
	Bands   []GridBand
}

// SpecForMetric derives the lookup spec for a configured plan metric.
func SpecForMetric(m PlanMetric) GridLookupSpec {
	return GridLookupSpec{Logic: m.Logic, GatePct: m.GateThresholdPct, Bands: m.Grid}
}

// Gated reports whether the achievement falls at or below the gate.
func (g GridLookupSpec) Gated(achievementPct decimal.Decimal) bool {
	return g.Logic == LogicGatedThreshold && g.GatePct != nil &&
		!achievementPct.GreaterThan(*g.GatePct)
}

// Multiplier resolves a single multiplier for the achievement percentage.
// Exactly one multiplier is returned for any achievement >= 0.
func (g GridLookupSpec) Multiplier(achievementPct decimal.Decimal) decimal.Decimal {
	if g.Logic == LogicLinear {
		return decimal.NewFromInt(1)
	}
	if g.Gated(achievementPct) {
		return decimal.Zero
	}
	if len(g.Bands) == 0 {
		return decimal.Zero
	}

	top := g.Bands[len(g.Bands)-1]
	if !achievementPct.LessThan(top.MaxPct) {
		// Beyond every band: the highest multiplier applies uncapped.
		return top.Multiplier
	}
	for _, b := range g.Bands {
		if !achievementPct.LessThan(b.MinPct) && achievementPct.LessThan(b.MaxPct) {
			return b.Multiplier
		}
	}
	// Below the lowest band's min.
	return decimal.Zero
}
