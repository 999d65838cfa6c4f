/*
commission.go - Deal-based commission calculation

PURPOSE:
  Pays a flat rate on eligible deal value. Eligibility is a cliff, never a
  ramp: a deal at $1 below the minimum value, or 0.1 points under the
  minimum margin, contributes exactly nothing. Filtered deals are reported
  as exclusions so callers can distinguish them from deals that simply
  don't exist.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CommissionResult aggregates one commission type over a deal set.
type CommissionResult struct {
	Type            CommissionType
	EligibleUSD     decimal.Decimal
	GrossUSD        decimal.Decimal
	EligibleDealIDs []DealID
	Exclusions      []Exclusion
}

// EvaluateCommission applies one plan commission to the deals of its type.
// Deals of other types are skipped silently; deals of the right type that
// fail a cliff are recorded as exclusions.
func EvaluateCommission(pc PlanCommission, deals []Deal) CommissionResult {
	res := CommissionResult{
		Type:        pc.Type,
		EligibleUSD: decimal.Zero,
		GrossUSD:    decimal.Zero,
	}

	for _, d := range deals {
		ct, ok := d.CommissionType()
		if !ok || ct != pc.Type {
			continue
		}
		if excl, ok := commissionExclusion(pc, d); ok {
			res.Exclusions = append(res.Exclusions, excl)
			continue
		}
		res.EligibleUSD = res.EligibleUSD.Add(d.ValueUSD)
		res.EligibleDealIDs = append(res.EligibleDealIDs, d.ID)
	}

	res.GrossUSD = res.EligibleUSD.Mul(pc.RatePct).Div(hundred)
	return res
}

// DealCommissionGross returns the gross commission one eligible deal earns,
// and false if the deal is excluded. The clawback reconciler uses this to
// attribute held tranches back to individual deals.
func DealCommissionGross(pc PlanCommission, d Deal) (decimal.Decimal, bool) {
	if _, excluded := commissionExclusion(pc, d); excluded {
		return decimal.Zero, false
	}
	return d.ValueUSD.Mul(pc.RatePct).Div(hundred), true
}

func commissionExclusion(pc PlanCommission, d Deal) (Exclusion, bool) {
	if pc.MinDealValueUSD != nil && d.ValueUSD.LessThan(*pc.MinDealValueUSD) {
		return Exclusion{
			DealID: d.ID,
			Reason: ExcludedBelowMinValue,
			Detail: fmt.Sprintf("deal value %s below minimum %s", d.ValueUSD, *pc.MinDealValueUSD),
		}, true
	}
	if pc.MinGrossMarginPct != nil && d.GrossMarginPct.LessThan(*pc.MinGrossMarginPct) {
		return Exclusion{
			DealID: d.ID,
			Reason: ExcludedBelowMinMargin,
			Detail: fmt.Sprintf("margin %s%% below minimum %s%%", d.GrossMarginPct, *pc.MinGrossMarginPct),
		}, true
	}
	return Exclusion{}, false
}
