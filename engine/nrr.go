/*
nrr.go - Net Revenue Retention overlay

PURPOSE:
  Aggregates two deal-value families - change requests + enhancements, and
  implementations - each filtered independently by its own minimum margin.
  Deals under the margin floor are excluded from the numerator entirely,
  not discounted. Both family targets combine into a single denominator:

    achievement = (eligible CR/ER + eligible impl) / (CR/ER target + impl target)
    payout      = variable OTE x nrr OTE pct / 100 x achievement

  There is no multiplier grid: the overlay scales linearly, and an OTE
  percentage of zero disables it outright.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NRRTargets is the combined denominator, supplied by the caller.
type NRRTargets struct {
	CRERUSD decimal.Decimal
	ImplUSD decimal.Decimal
}

func (t NRRTargets) Total() decimal.Decimal { return t.CRERUSD.Add(t.ImplUSD) }

// NRRResult is the computed overlay outcome.
type NRRResult struct {
	EligibleCRERUSD decimal.Decimal
	EligibleImplUSD decimal.Decimal
	ActualsUSD      decimal.Decimal
	AchievementPct  decimal.Decimal
	GrossUSD        decimal.Decimal
	Exclusions      []Exclusion
}

// EvaluateNRR computes the overlay for a deal set against combined targets.
// A zero combined target yields zero achievement and zero payout.
func EvaluateNRR(cfg NRRConfig, deals []Deal, targets NRRTargets, variableOTEUSD decimal.Decimal) NRRResult {
	res := NRRResult{
		EligibleCRERUSD: decimal.Zero,
		EligibleImplUSD: decimal.Zero,
		ActualsUSD:      decimal.Zero,
		AchievementPct:  decimal.Zero,
		GrossUSD:        decimal.Zero,
	}

	for _, d := range deals {
		switch d.Type {
		case DealChangeRequest, DealEnhancement:
			if d.GrossMarginPct.LessThan(cfg.MinCRERMarginPct) {
				res.Exclusions = append(res.Exclusions, marginExclusion(d, cfg.MinCRERMarginPct))
				continue
			}
			res.EligibleCRERUSD = res.EligibleCRERUSD.Add(d.ValueUSD)
		case DealImplementation:
			if d.GrossMarginPct.LessThan(cfg.MinImplMarginPct) {
				res.Exclusions = append(res.Exclusions, marginExclusion(d, cfg.MinImplMarginPct))
				continue
			}
			res.EligibleImplUSD = res.EligibleImplUSD.Add(d.ValueUSD)
		}
	}

	res.ActualsUSD = res.EligibleCRERUSD.Add(res.EligibleImplUSD)

	total := targets.Total()
	if !total.IsPositive() {
		return res
	}
	ratio := res.ActualsUSD.Div(total)
	res.AchievementPct = ratio.Mul(hundred)

	if cfg.OTEPct.IsZero() {
		return res
	}
	res.GrossUSD = variableOTEUSD.Mul(cfg.OTEPct).Div(hundred).Mul(ratio)
	return res
}

func marginExclusion(d Deal, minPct decimal.Decimal) Exclusion {
	return Exclusion{
		DealID: d.ID,
		Reason: ExcludedBelowMinMargin,
		Detail: fmt.Sprintf("margin %s%% below minimum %s%%", d.GrossMarginPct, minPct),
	}
}
