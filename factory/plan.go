/*
Package factory provides JSON to Go plan conversion.

PURPOSE:
  Converts JSON plan definitions into engine.CompPlan objects. This enables
  plan configuration without code changes - comp admins can define plans in
  JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify plans
  - Easy integration with admin UI
  - Version control for plan definitions
  - Database storage of plan configs

JSON SCHEMA:
  {
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
          {"min_pct": 50, "max_pct": 100, "multiplier": 1.0}
        ]
      }
    ],
    "commissions": [
      {"type": "new_software", "rate_pct": 2, "min_gross_margin_pct": 25,
       "split": {"booking_pct": 50, "collection_pct": 50, "year_end_pct": 0}}
    ],
    "nrr": {"ote_pct": 20, "min_crer_margin_pct": 60, "min_impl_margin_pct": 30,
            "split": {"booking_pct": 100, "collection_pct": 0, "year_end_pct": 0}}
  }

KEY FEATURES:
  - Structural validation with struct tags before any number parsing
  - Semantic validation through CompPlan.Validate after conversion
  - Round-trip: ToJSON reproduces a JSON definition from a Go plan

USAGE:
  f := factory.NewPlanFactory()

  // From JSON string
  plan, err := f.ParsePlan(jsonString)

  // From Go preset (recommended)
  import "github.com/warp/comp-engine/plans"
  plan := plans.EnterpriseAEPlan("ae-ent-2026", 2026)
  pj := f.ToJSON(plan)

SEE ALSO:
  - engine/plan.go: CompPlan type definition and validation
  - plans/plans.go: Go-based plan configurations
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PlanJSON is the JSON representation of a compensation plan.
type PlanJSON struct {
	ID                string           `json:"id" validate:"required"`
	Name              string           `json:"name" validate:"required"`
	EffectiveYear     int              `json:"effective_year" validate:"required,min=2000,max=2100"`
	ClawbackExempt    bool             `json:"clawback_exempt,omitempty"`
	PayoutFrequency   string           `json:"payout_frequency,omitempty" validate:"omitempty,oneof=monthly quarterly"`
	Metrics           []MetricJSON     `json:"metrics,omitempty" validate:"dive"`
	Commissions       []CommissionJSON `json:"commissions,omitempty" validate:"dive"`
	Spiffs            []SpiffJSON      `json:"spiffs,omitempty" validate:"dive"`
	NRR               *NRRJSON         `json:"nrr,omitempty"`
	CommissionedRoles []string         `json:"commissioned_roles,omitempty"`
}

// MetricJSON represents one weighted metric.
type MetricJSON struct {
	Name             string     `json:"name" validate:"required"`
	WeightagePct     float64    `json:"weightage_pct" validate:"min=0,max=100"`
	Logic            string     `json:"logic" validate:"required,oneof=linear stepped_accelerator gated_threshold"`
	GateThresholdPct *float64   `json:"gate_threshold_pct,omitempty"`
	Split            SplitJSON  `json:"split"`
	Grid             []BandJSON `json:"grid,omitempty"`
}

// BandJSON represents one multiplier grid band.
type BandJSON struct {
	MinPct     float64 `json:"min_pct" validate:"min=0"`
	MaxPct     float64 `json:"max_pct" validate:"min=0"`
	Multiplier float64 `json:"multiplier" validate:"min=0"`
}

// SplitJSON represents a booking/collection/year-end tranche partition.
type SplitJSON struct {
	BookingPct    float64 `json:"booking_pct" validate:"min=0,max=100"`
	CollectionPct float64 `json:"collection_pct" validate:"min=0,max=100"`
	YearEndPct    float64 `json:"year_end_pct" validate:"min=0,max=100"`
}

// CommissionJSON represents a flat-rate deal commission.
type CommissionJSON struct {
	Type              string    `json:"type" validate:"required,oneof=new_software managed_services perpetual_license"`
	RatePct           float64   `json:"rate_pct" validate:"min=0"`
	MinDealValueUSD   *float64  `json:"min_deal_value_usd,omitempty"`
	MinGrossMarginPct *float64  `json:"min_gross_margin_pct,omitempty"`
	Split             SplitJSON `json:"split"`
}

// SpiffJSON represents a SPIFF bonus program.
type SpiffJSON struct {
	Name            string    `json:"name" validate:"required"`
	Kind            string    `json:"kind" validate:"required,oneof=large_deal deal_team_pool"`
	LinkedMetric    string    `json:"linked_metric,omitempty"`
	RatePct         float64   `json:"rate_pct,omitempty" validate:"min=0"`
	PoolUSD         float64   `json:"pool_usd,omitempty" validate:"min=0"`
	MinDealValueUSD *float64  `json:"min_deal_value_usd,omitempty"`
	Split           SplitJSON `json:"split"`
}

// NRRJSON represents the net-revenue-retention overlay configuration.
type NRRJSON struct {
	OTEPct           float64   `json:"ote_pct" validate:"min=0,max=100"`
	MinCRERMarginPct float64   `json:"min_crer_margin_pct" validate:"min=0,max=100"`
	MinImplMarginPct float64   `json:"min_impl_margin_pct" validate:"min=0,max=100"`
	Split            SplitJSON `json:"split"`
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts JSON plans to Go structs.
type PlanFactory struct {
	validate *validator.Validate
}

// NewPlanFactory creates a new plan factory.
func NewPlanFactory() *PlanFactory {
	return &PlanFactory{validate: validator.New()}
}

// ParsePlan parses a JSON string into a validated CompPlan.
func (f *PlanFactory) ParsePlan(jsonStr string) (*engine.CompPlan, error) {
	var pj PlanJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PlanJSON to a validated CompPlan. Structural problems
// (missing fields, out-of-range values) surface from the struct tags first;
// semantic problems (split sums, band contiguity, missing gates) from
// CompPlan.Validate after conversion.
func (f *PlanFactory) FromJSON(pj PlanJSON) (*engine.CompPlan, error) {
	if err := f.validate.Struct(pj); err != nil {
		return nil, &engine.PlanConfigError{
			PlanID: engine.PlanID(pj.ID),
			Field:  "json",
			Reason: err.Error(),
		}
	}

	plan := &engine.CompPlan{
		ID:              engine.PlanID(pj.ID),
		Name:            pj.Name,
		EffectiveYear:   pj.EffectiveYear,
		ClawbackExempt:  pj.ClawbackExempt,
		PayoutFrequency: parseFrequency(pj.PayoutFrequency),
	}

	for _, mj := range pj.Metrics {
		metric := engine.PlanMetric{
			Name:         engine.MetricName(mj.Name),
			WeightagePct: decimal.NewFromFloat(mj.WeightagePct),
			Logic:        engine.LogicType(mj.Logic),
			Split:        parseSplit(mj.Split),
			Grid:         parseGrid(mj.Grid),
		}
		if mj.GateThresholdPct != nil {
			gate := decimal.NewFromFloat(*mj.GateThresholdPct)
			metric.GateThresholdPct = &gate
		}
		plan.Metrics = append(plan.Metrics, metric)
	}

	for _, cj := range pj.Commissions {
		commission := engine.PlanCommission{
			Type:    engine.CommissionType(cj.Type),
			RatePct: decimal.NewFromFloat(cj.RatePct),
			Split:   parseSplit(cj.Split),
		}
		commission.MinDealValueUSD = optionalDecimal(cj.MinDealValueUSD)
		commission.MinGrossMarginPct = optionalDecimal(cj.MinGrossMarginPct)
		plan.Commissions = append(plan.Commissions, commission)
	}

	for _, sj := range pj.Spiffs {
		spiff := engine.PlanSpiff{
			Name:         sj.Name,
			Kind:         engine.SpiffKind(sj.Kind),
			LinkedMetric: engine.MetricName(sj.LinkedMetric),
			RatePct:      decimal.NewFromFloat(sj.RatePct),
			PoolUSD:      decimal.NewFromFloat(sj.PoolUSD),
			Split:        parseSplit(sj.Split),
		}
		spiff.MinDealValueUSD = optionalDecimal(sj.MinDealValueUSD)
		plan.Spiffs = append(plan.Spiffs, spiff)
	}

	if pj.NRR != nil {
		plan.NRR = engine.NRRConfig{
			OTEPct:           decimal.NewFromFloat(pj.NRR.OTEPct),
			MinCRERMarginPct: decimal.NewFromFloat(pj.NRR.MinCRERMarginPct),
			MinImplMarginPct: decimal.NewFromFloat(pj.NRR.MinImplMarginPct),
			Split:            parseSplit(pj.NRR.Split),
		}
	}

	for _, role := range pj.CommissionedRoles {
		plan.CommissionedRoles = append(plan.CommissionedRoles, engine.ParticipantRole(role))
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// ToJSON converts a CompPlan to PlanJSON.
func (f *PlanFactory) ToJSON(plan *engine.CompPlan) PlanJSON {
	pj := PlanJSON{
		ID:              string(plan.ID),
		Name:            plan.Name,
		EffectiveYear:   plan.EffectiveYear,
		ClawbackExempt:  plan.ClawbackExempt,
		PayoutFrequency: string(plan.PayoutFrequency),
	}

	for _, m := range plan.Metrics {
		mj := MetricJSON{
			Name:         string(m.Name),
			WeightagePct: floatOf(m.WeightagePct),
			Logic:        string(m.Logic),
			Split:        splitJSON(m.Split),
		}
		if m.GateThresholdPct != nil {
			v := floatOf(*m.GateThresholdPct)
			mj.GateThresholdPct = &v
		}
		for _, b := range m.Grid {
			mj.Grid = append(mj.Grid, BandJSON{
				MinPct:     floatOf(b.MinPct),
				MaxPct:     floatOf(b.MaxPct),
				Multiplier: floatOf(b.Multiplier),
			})
		}
		pj.Metrics = append(pj.Metrics, mj)
	}

	for _, c := range plan.Commissions {
		cj := CommissionJSON{
			Type:    string(c.Type),
			RatePct: floatOf(c.RatePct),
			Split:   splitJSON(c.Split),
		}
		cj.MinDealValueUSD = optionalFloat(c.MinDealValueUSD)
		cj.MinGrossMarginPct = optionalFloat(c.MinGrossMarginPct)
		pj.Commissions = append(pj.Commissions, cj)
	}

	for _, s := range plan.Spiffs {
		sj := SpiffJSON{
			Name:         s.Name,
			Kind:         string(s.Kind),
			LinkedMetric: string(s.LinkedMetric),
			RatePct:      floatOf(s.RatePct),
			PoolUSD:      floatOf(s.PoolUSD),
			Split:        splitJSON(s.Split),
		}
		sj.MinDealValueUSD = optionalFloat(s.MinDealValueUSD)
		pj.Spiffs = append(pj.Spiffs, sj)
	}

	if !plan.NRR.OTEPct.IsZero() {
		pj.NRR = &NRRJSON{
			OTEPct:           floatOf(plan.NRR.OTEPct),
			MinCRERMarginPct: floatOf(plan.NRR.MinCRERMarginPct),
			MinImplMarginPct: floatOf(plan.NRR.MinImplMarginPct),
			Split:            splitJSON(plan.NRR.Split),
		}
	}

	for _, role := range plan.CommissionedRoles {
		pj.CommissionedRoles = append(pj.CommissionedRoles, string(role))
	}

	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseFrequency(s string) engine.PayoutFrequency {
	switch s {
	case "quarterly":
		return engine.PayoutQuarterly
	default:
		return engine.PayoutMonthly
	}
}

func parseSplit(sj SplitJSON) engine.SplitPercents {
	return engine.NewSplit(sj.BookingPct, sj.CollectionPct, sj.YearEndPct)
}

func parseGrid(bands []BandJSON) []engine.GridBand {
	var grid []engine.GridBand
	for _, b := range bands {
		grid = append(grid, engine.NewBand(b.MinPct, b.MaxPct, b.Multiplier))
	}
	return grid
}

func optionalDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := floatOf(*d)
	return &v
}

func floatOf(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func splitJSON(s engine.SplitPercents) SplitJSON {
	return SplitJSON{
		BookingPct:    floatOf(s.BookingPct),
		CollectionPct: floatOf(s.CollectionPct),
		YearEndPct:    floatOf(s.YearEndPct),
	}
}
