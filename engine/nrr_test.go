package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func nrrConfig() engine.NRRConfig {
	return engine.NRRConfig{
		OTEPct:           dec(20),
		MinCRERMarginPct: dec(60),
		MinImplMarginPct: dec(30),
		Split:            engine.NewSplit(100, 0, 0),
	}
}

// =============================================================================
// NRR OVERLAY
// =============================================================================

func TestEvaluateNRR_MarginFilteredFamilies(t *testing.T) {
	// GIVEN: A 20% overlay with 60% CR/ER and 30% implementation margin
	//   floors, $300k combined target, and $20k variable OTE
	// WHEN: Evaluating a mixed deal set where one CR misses its floor
	// THEN: Eligible actuals are $120k, achievement 40%, payout $1,600

	deals := []engine.Deal{
		deal("d-cr-good", engine.DealChangeRequest, 80_000, 65),
		deal("d-cr-thin", engine.DealChangeRequest, 50_000, 55),
		deal("d-impl", engine.DealImplementation, 40_000, 35),
	}
	targets := engine.NRRTargets{CRERUSD: dec(200_000), ImplUSD: dec(100_000)}

	res := engine.EvaluateNRR(nrrConfig(), deals, targets, dec(20_000))

	eq(t, 80_000, res.EligibleCRERUSD)
	eq(t, 40_000, res.EligibleImplUSD)
	eq(t, 120_000, res.ActualsUSD)
	eq(t, 40, res.AchievementPct)
	// 20000 x 20% x 40% achievement
	eq(t, 1_600, res.GrossUSD)

	require.Len(t, res.Exclusions, 1)
	assert.Equal(t, engine.DealID("d-cr-thin"), res.Exclusions[0].DealID)
	assert.Equal(t, engine.ExcludedBelowMinMargin, res.Exclusions[0].Reason)
}

func TestEvaluateNRR_FamiliesFilterIndependently(t *testing.T) {
	// GIVEN: An implementation deal at 35% margin, over its own 30% floor
	//   but under the CR/ER floor of 60%
	// WHEN: Evaluating
	// THEN: The implementation floor is the one that applies

	deals := []engine.Deal{
		deal("d-impl", engine.DealImplementation, 40_000, 35),
		deal("d-er", engine.DealEnhancement, 30_000, 62),
	}
	targets := engine.NRRTargets{CRERUSD: dec(100_000), ImplUSD: dec(100_000)}

	res := engine.EvaluateNRR(nrrConfig(), deals, targets, dec(20_000))

	eq(t, 30_000, res.EligibleCRERUSD, "enhancements count toward CR/ER")
	eq(t, 40_000, res.EligibleImplUSD)
	assert.Empty(t, res.Exclusions)
}

func TestEvaluateNRR_ZeroTargetPaysNothing(t *testing.T) {
	// GIVEN: No NRR targets set
	// WHEN: Evaluating eligible deals
	// THEN: Achievement and payout are zero rather than a division blowup

	deals := []engine.Deal{
		deal("d-cr", engine.DealChangeRequest, 80_000, 65),
	}

	res := engine.EvaluateNRR(nrrConfig(), deals, engine.NRRTargets{}, dec(20_000))

	assert.True(t, res.AchievementPct.IsZero())
	assert.True(t, res.GrossUSD.IsZero())
	eq(t, 80_000, res.ActualsUSD, "eligible actuals still reported")
}

func TestEvaluateNRR_SoftwareDealsDoNotCount(t *testing.T) {
	// GIVEN: A large new-software deal
	// WHEN: Evaluating the overlay
	// THEN: It contributes nothing; the overlay only measures NRR deal types

	deals := []engine.Deal{
		deal("d-sw", engine.DealNewSoftware, 500_000, 70),
	}
	targets := engine.NRRTargets{CRERUSD: dec(100_000), ImplUSD: dec(0)}

	res := engine.EvaluateNRR(nrrConfig(), deals, targets, dec(20_000))

	assert.True(t, res.ActualsUSD.IsZero())
	assert.True(t, res.GrossUSD.IsZero())
	assert.Empty(t, res.Exclusions)
}
