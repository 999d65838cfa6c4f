package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/factory"
	"github.com/warp/comp-engine/plans"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const validPlanJSON = `{
	"id": "ae-ent-2026",
	"name": "Enterprise Account Executive",
	"effective_year": 2026,
	"payout_frequency": "monthly",
	"metrics": [
		{
			"name": "software_bookings",
			"weightage_pct": 60,
			"logic": "stepped_accelerator",
			"split": {"booking_pct": 60, "collection_pct": 30, "year_end_pct": 10},
			"grid": [
				{"min_pct": 0, "max_pct": 50, "multiplier": 0.5},
				{"min_pct": 50, "max_pct": 100, "multiplier": 1.0},
				{"min_pct": 100, "max_pct": 150, "multiplier": 1.5}
			]
		},
		{
			"name": "managed_services",
			"weightage_pct": 40,
			"logic": "gated_threshold",
			"gate_threshold_pct": 40,
			"split": {"booking_pct": 60, "collection_pct": 30, "year_end_pct": 10},
			"grid": [
				{"min_pct": 0, "max_pct": 100, "multiplier": 1.0}
			]
		}
	],
	"commissions": [
		{
			"type": "new_software",
			"rate_pct": 2,
			"min_deal_value_usd": 50000,
			"min_gross_margin_pct": 25,
			"split": {"booking_pct": 50, "collection_pct": 50, "year_end_pct": 0}
		}
	],
	"spiffs": [
		{
			"name": "large-deal",
			"kind": "large_deal",
			"linked_metric": "software_bookings",
			"rate_pct": 25,
			"min_deal_value_usd": 400000,
			"split": {"booking_pct": 100, "collection_pct": 0, "year_end_pct": 0}
		}
	],
	"nrr": {
		"ote_pct": 20,
		"min_crer_margin_pct": 60,
		"min_impl_margin_pct": 30,
		"split": {"booking_pct": 100, "collection_pct": 0, "year_end_pct": 0}
	},
	"commissioned_roles": ["primary_rep"]
}`

// =============================================================================
// PARSING
// =============================================================================

func TestParsePlan_CompleteDefinition(t *testing.T) {
	// GIVEN: A full JSON plan definition
	// WHEN: Parsing
	// THEN: Every section converts and the plan passes semantic validation

	f := factory.NewPlanFactory()
	plan, err := f.ParsePlan(validPlanJSON)
	require.NoError(t, err)

	assert.Equal(t, engine.PlanID("ae-ent-2026"), plan.ID)
	assert.Equal(t, 2026, plan.EffectiveYear)
	assert.Equal(t, engine.PayoutMonthly, plan.PayoutFrequency)

	require.Len(t, plan.Metrics, 2)
	sw := plan.Metrics[0]
	assert.Equal(t, engine.MetricSoftwareBookings, sw.Name)
	assert.Equal(t, engine.LogicSteppedAccelerator, sw.Logic)
	require.Len(t, sw.Grid, 3)
	assert.True(t, sw.Grid[2].Multiplier.Equal(decimalFromFloat(1.5)))

	ms := plan.Metrics[1]
	require.NotNil(t, ms.GateThresholdPct)
	assert.True(t, ms.GateThresholdPct.Equal(decimalFromFloat(40)))

	require.Len(t, plan.Commissions, 1)
	require.NotNil(t, plan.Commissions[0].MinDealValueUSD)
	assert.True(t, plan.Commissions[0].MinDealValueUSD.Equal(decimalFromFloat(50_000)))

	require.Len(t, plan.Spiffs, 1)
	assert.Equal(t, engine.SpiffLargeDeal, plan.Spiffs[0].Kind)

	assert.True(t, plan.NRR.OTEPct.Equal(decimalFromFloat(20)))
	assert.Equal(t, []engine.ParticipantRole{engine.RolePrimaryRep}, plan.CommissionedRoles)
}

func TestParsePlan_MalformedJSON(t *testing.T) {
	f := factory.NewPlanFactory()
	_, err := f.ParsePlan(`{"id": "broken"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse plan JSON")
}

func TestParsePlan_StructuralValidation(t *testing.T) {
	// GIVEN: A definition with an unknown logic value
	// WHEN: Parsing
	// THEN: The struct tags reject it before any conversion runs

	f := factory.NewPlanFactory()
	_, err := f.ParsePlan(`{
		"id": "p1", "name": "Bad", "effective_year": 2026,
		"metrics": [{
			"name": "software_bookings", "weightage_pct": 100, "logic": "parabolic",
			"split": {"booking_pct": 100, "collection_pct": 0, "year_end_pct": 0}
		}]
	}`)

	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))

	var cfg *engine.PlanConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "json", cfg.Field)
}

func TestParsePlan_SemanticValidation(t *testing.T) {
	// GIVEN: A structurally sound definition whose split sums to 95
	// WHEN: Parsing
	// THEN: CompPlan.Validate catches it after conversion

	f := factory.NewPlanFactory()
	_, err := f.ParsePlan(`{
		"id": "p1", "name": "Bad split", "effective_year": 2026,
		"metrics": [{
			"name": "software_bookings", "weightage_pct": 100, "logic": "linear",
			"split": {"booking_pct": 60, "collection_pct": 30, "year_end_pct": 5}
		}]
	}`)

	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))
}

func TestParsePlan_MissingRequiredFields(t *testing.T) {
	f := factory.NewPlanFactory()
	_, err := f.ParsePlan(`{"name": "No ID or year"}`)
	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestToJSON_RoundTripsPreset(t *testing.T) {
	// GIVEN: A Go preset plan
	// WHEN: Converting to JSON and back
	// THEN: The rebuilt plan matches the original section by section

	f := factory.NewPlanFactory()
	original := plans.EnterpriseAEPlan("ae-ent-2026", 2026)

	rebuilt, err := f.FromJSON(f.ToJSON(original))
	require.NoError(t, err)

	assert.Equal(t, original.ID, rebuilt.ID)
	assert.Equal(t, original.EffectiveYear, rebuilt.EffectiveYear)
	require.Len(t, rebuilt.Metrics, len(original.Metrics))
	for i := range original.Metrics {
		assert.Equal(t, original.Metrics[i].Name, rebuilt.Metrics[i].Name)
		assert.Equal(t, original.Metrics[i].Logic, rebuilt.Metrics[i].Logic)
		assert.True(t, original.Metrics[i].WeightagePct.Equal(rebuilt.Metrics[i].WeightagePct))
		require.Len(t, rebuilt.Metrics[i].Grid, len(original.Metrics[i].Grid))
	}
	require.Len(t, rebuilt.Commissions, len(original.Commissions))
	require.Len(t, rebuilt.Spiffs, len(original.Spiffs))
	assert.True(t, original.NRR.OTEPct.Equal(rebuilt.NRR.OTEPct))
	assert.Equal(t, original.CommissionedRoles, rebuilt.CommissionedRoles)
}

func TestParsePlan_DefaultFrequencyIsMonthly(t *testing.T) {
	f := factory.NewPlanFactory()
	plan, err := f.ParsePlan(`{
		"id": "p1", "name": "Minimal", "effective_year": 2026,
		"metrics": [{
			"name": "software_bookings", "weightage_pct": 100, "logic": "linear",
			"split": {"booking_pct": 100, "collection_pct": 0, "year_end_pct": 0}
		}]
	}`)
	require.NoError(t, err)
	assert.Equal(t, engine.PayoutMonthly, plan.PayoutFrequency)
}

// decimalFromFloat keeps assertions readable next to JSON numbers.
func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
