/*
plans.go - Pre-built compensation plan configurations

PURPOSE:
  Provides ready-to-use plan configurations for common sales roles.
  These are convenience functions that assemble CompPlan + metrics +
  commissions + SPIFFs according to typical enterprise sales patterns.

AVAILABLE PLANS:
  EnterpriseAEPlan:   Quota-carrying account executive with a stepped
                      accelerator grid, new-software commission, NRR
                      overlay, and a large-deal SPIFF
  ServicesLeadPlan:   Delivery-side lead paid on a gated services metric
                      plus a deal-team pool SPIFF
  SalesHeadPlan:      Clawback-exempt manager plan with linear metrics
                      across the whole book

PLAN COMPONENTS:
  Each plan configuration includes:
  - Metrics: weighted slices of variable OTE with payout logic and grids
  - Commissions: flat-rate deal payouts with eligibility cliffs
  - Spiffs: bonus programs layered on top of metrics
  - Splits: booking/collection/year-end tranche percentages per component

CUSTOMIZATION:
  These are starting points. Real implementations often need:
  - Territory-specific grids and gates
  - Different tranche splits per region
  - Quarterly instead of monthly payout cadence
  - Role exclusions tuned to the org chart

EXAMPLE:
  // Create a standard enterprise AE plan for 2026
  plan := plans.EnterpriseAEPlan("ae-ent-2026", 2026)

  // Access components
  software := plan.Metric(engine.MetricSoftwareBookings)
  nrr := plan.NRR

  // Customize if needed
  plan.PayoutFrequency = engine.PayoutQuarterly

SEE ALSO:
  - factory/plan.go: JSON-based plan creation
  - engine/plan.go: CompPlan type definition and validation
*/
package plans

import (
	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// COMMON SALES COMPENSATION PLANS
// =============================================================================

// EnterpriseAEPlan returns a quota-carrying account executive plan: stepped
// software bookings, gated managed services, an NRR overlay, new-software
// commission, and a large-deal SPIFF linked to the software metric.
func EnterpriseAEPlan(id engine.PlanID, year int) *engine.CompPlan {
	gate := decimal.NewFromInt(40)
	minDeal := decimal.NewFromInt(400_000)
	minCommissionDeal := decimal.NewFromInt(50_000)
	minMargin := decimal.NewFromInt(25)

	return &engine.CompPlan{
		ID:              id,
		Name:            "Enterprise Account Executive",
		EffectiveYear:   year,
		PayoutFrequency: engine.PayoutMonthly,
		Metrics: []engine.PlanMetric{
			{
				Name:         engine.MetricSoftwareBookings,
				WeightagePct: decimal.NewFromInt(60),
				Logic:        engine.LogicSteppedAccelerator,
				Split:        engine.NewSplit(60, 30, 10),
				Grid:         StandardAcceleratorGrid(),
			},
			{
				Name:             engine.MetricManagedServices,
				WeightagePct:     decimal.NewFromInt(40),
				Logic:            engine.LogicGatedThreshold,
				GateThresholdPct: &gate,
				Split:            engine.NewSplit(60, 30, 10),
				Grid:             GatedRecoveryGrid(),
			},
		},
		Commissions: []engine.PlanCommission{
			{
				Type:              engine.CommissionNewSoftware,
				RatePct:           decimal.NewFromInt(2),
				MinDealValueUSD:   &minCommissionDeal,
				MinGrossMarginPct: &minMargin,
				Split:             engine.NewSplit(50, 50, 0),
			},
		},
		Spiffs: []engine.PlanSpiff{
			{
				Name:            "large-deal",
				Kind:            engine.SpiffLargeDeal,
				LinkedMetric:    engine.MetricSoftwareBookings,
				RatePct:         decimal.NewFromInt(25),
				MinDealValueUSD: &minDeal,
				Split:           engine.NewSplit(100, 0, 0),
			},
		},
		NRR: engine.NRRConfig{
			OTEPct:           decimal.NewFromInt(20),
			MinCRERMarginPct: decimal.NewFromInt(60),
			MinImplMarginPct: decimal.NewFromInt(30),
			Split:            engine.NewSplit(100, 0, 0),
		},
		CommissionedRoles: []engine.ParticipantRole{engine.RolePrimaryRep},
	}
}

// ServicesLeadPlan returns a delivery-side plan: a gated services metric and
// a deal-team pool SPIFF that rewards non-commissioned deal participants.
func ServicesLeadPlan(id engine.PlanID, year int) *engine.CompPlan {
	gate := decimal.NewFromInt(50)
	minPoolDeal := decimal.NewFromInt(250_000)

	return &engine.CompPlan{
		ID:              id,
		Name:            "Services Lead",
		EffectiveYear:   year,
		PayoutFrequency: engine.PayoutMonthly,
		Metrics: []engine.PlanMetric{
			{
				Name:             engine.MetricServicesRevenue,
				WeightagePct:     decimal.NewFromInt(100),
				Logic:            engine.LogicGatedThreshold,
				GateThresholdPct: &gate,
				Split:            engine.NewSplit(70, 20, 10),
				Grid:             GatedRecoveryGrid(),
			},
		},
		Spiffs: []engine.PlanSpiff{
			{
				Name:            "delivery-pool",
				Kind:            engine.SpiffDealTeamPool,
				PoolUSD:         decimal.NewFromInt(5_000),
				MinDealValueUSD: &minPoolDeal,
				Split:           engine.NewSplit(100, 0, 0),
			},
		},
		CommissionedRoles: []engine.ParticipantRole{engine.RolePrimaryRep, engine.RoleSalesHead},
	}
}

// SalesHeadPlan returns a manager plan: linear metrics over the whole book,
// exempt from clawback on individual deal collections.
func SalesHeadPlan(id engine.PlanID, year int) *engine.CompPlan {
	return &engine.CompPlan{
		ID:              id,
		Name:            "Sales Head",
		EffectiveYear:   year,
		ClawbackExempt:  true,
		PayoutFrequency: engine.PayoutQuarterly,
		Metrics: []engine.PlanMetric{
			{
				Name:         engine.MetricSoftwareBookings,
				WeightagePct: decimal.NewFromInt(70),
				Logic:        engine.LogicLinear,
				Split:        engine.NewSplit(50, 30, 20),
			},
			{
				Name:         engine.MetricManagedServices,
				WeightagePct: decimal.NewFromInt(30),
				Logic:        engine.LogicLinear,
				Split:        engine.NewSplit(50, 30, 20),
			},
		},
		CommissionedRoles: []engine.ParticipantRole{engine.RolePrimaryRep},
	}
}

// =============================================================================
// SHARED GRIDS
// =============================================================================

// StandardAcceleratorGrid is the common four-band accelerator: under-plan
// achievement decelerates, over-plan achievement accelerates, and the top
// band is uncapped.
func StandardAcceleratorGrid() []engine.GridBand {
	return []engine.GridBand{
		engine.NewBand(0, 50, 0.5),
		engine.NewBand(50, 100, 1.0),
		engine.NewBand(100, 150, 1.5),
		engine.NewBand(150, 200, 2.0),
	}
}

// GatedRecoveryGrid pairs with a gate threshold: bands start at zero so the
// marginal walk covers the full achievement range once the gate is cleared.
func GatedRecoveryGrid() []engine.GridBand {
	return []engine.GridBand{
		engine.NewBand(0, 100, 1.0),
		engine.NewBand(100, 150, 1.25),
		engine.NewBand(150, 200, 1.5),
	}
}
