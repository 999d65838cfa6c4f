package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newSoftwareCommission(ratePct, minValue, minMargin float64) engine.PlanCommission {
	minV := dec(minValue)
	minM := dec(minMargin)
	return engine.PlanCommission{
		Type:              engine.CommissionNewSoftware,
		RatePct:           dec(ratePct),
		MinDealValueUSD:   &minV,
		MinGrossMarginPct: &minM,
		Split:             engine.NewSplit(50, 50, 0),
	}
}

func deal(id engine.DealID, dt engine.DealType, valueUSD, marginPct float64) engine.Deal {
	return engine.Deal{
		ID:             id,
		Type:           dt,
		ValueUSD:       dec(valueUSD),
		TCVUSD:         dec(valueUSD),
		GrossMarginPct: dec(marginPct),
		BookingMonth:   month(2026, time.March),
	}
}

// =============================================================================
// COMMISSION EVALUATION
// =============================================================================

func TestEvaluateCommission_RateOnEligibleValue(t *testing.T) {
	// GIVEN: A 2% new-software commission and two clean deals
	// WHEN: Evaluating
	// THEN: Gross is the flat rate on the summed eligible value

	pc := newSoftwareCommission(2, 50_000, 25)
	res := engine.EvaluateCommission(pc, []engine.Deal{
		deal("d1", engine.DealNewSoftware, 500_000, 70),
		deal("d2", engine.DealNewSoftware, 250_000, 40),
	})

	eq(t, 750_000, res.EligibleUSD)
	eq(t, 15_000, res.GrossUSD)
	assert.ElementsMatch(t, []engine.DealID{"d1", "d2"}, res.EligibleDealIDs)
	assert.Empty(t, res.Exclusions)
}

func TestEvaluateCommission_CliffsAreNotRamps(t *testing.T) {
	// GIVEN: A $50k minimum value and a 25% minimum margin
	// WHEN: Deals land just under each cliff
	// THEN: They contribute exactly nothing and are reported as exclusions

	pc := newSoftwareCommission(2, 50_000, 25)
	res := engine.EvaluateCommission(pc, []engine.Deal{
		deal("d-small", engine.DealNewSoftware, 49_999, 70),
		deal("d-thin", engine.DealNewSoftware, 100_000, 24.9),
		deal("d-ok", engine.DealNewSoftware, 50_000, 25), // exactly at both minimums
	})

	eq(t, 50_000, res.EligibleUSD)
	eq(t, 1_000, res.GrossUSD)

	require.Len(t, res.Exclusions, 2)
	byDeal := map[engine.DealID]engine.Exclusion{}
	for _, e := range res.Exclusions {
		byDeal[e.DealID] = e
	}
	assert.Equal(t, engine.ExcludedBelowMinValue, byDeal["d-small"].Reason)
	assert.Equal(t, engine.ExcludedBelowMinMargin, byDeal["d-thin"].Reason)
	assert.Contains(t, byDeal["d-small"].Detail, "below minimum")
}

func TestEvaluateCommission_OtherDealTypesSkippedSilently(t *testing.T) {
	// GIVEN: A managed-services deal in a new-software commission's deal set
	// WHEN: Evaluating
	// THEN: It neither pays nor shows up as an exclusion

	pc := newSoftwareCommission(2, 50_000, 25)
	res := engine.EvaluateCommission(pc, []engine.Deal{
		deal("d-ms", engine.DealManagedServices, 900_000, 80),
	})

	assert.True(t, res.GrossUSD.IsZero())
	assert.Empty(t, res.Exclusions)
	assert.Empty(t, res.EligibleDealIDs)
}

func TestEvaluateCommission_UnconstrainedWhenMinimumsNil(t *testing.T) {
	// GIVEN: A commission with no minimum value or margin
	// WHEN: Evaluating a tiny low-margin deal
	// THEN: It still earns

	pc := engine.PlanCommission{
		Type:    engine.CommissionNewSoftware,
		RatePct: dec(2),
		Split:   engine.NewSplit(100, 0, 0),
	}
	res := engine.EvaluateCommission(pc, []engine.Deal{
		deal("d-tiny", engine.DealNewSoftware, 1_000, 5),
	})

	eq(t, 20, res.GrossUSD)
}

func TestDealCommissionGross_PerDealAttribution(t *testing.T) {
	// GIVEN: One eligible and one excluded deal
	// WHEN: Attributing per-deal gross
	// THEN: The eligible deal returns its own commission; the excluded one
	//   returns zero and false

	pc := newSoftwareCommission(2, 50_000, 25)

	gross, ok := engine.DealCommissionGross(pc, deal("d1", engine.DealNewSoftware, 500_000, 70))
	assert.True(t, ok)
	eq(t, 10_000, gross)

	gross, ok = engine.DealCommissionGross(pc, deal("d2", engine.DealNewSoftware, 10_000, 70))
	assert.False(t, ok)
	assert.True(t, gross.IsZero())
}
