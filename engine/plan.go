/*
plan.go - Compensation plan configuration model

PURPOSE:
  Defines the rules that govern how an employee is paid: weighted metrics
  with multiplier grids, deal commissions with eligibility cliffs, NRR
  overlay settings, and SPIFF bonuses. A CompPlan is the contract between
  the organization and an employee about variable compensation.

KEY CONCEPTS:
  - CompPlan: the complete ruleset for one plan year
  - PlanMetric: one weighted slice of variable OTE with payout logic
  - GridBand: one [min%, max%) achievement band with a multiplier
  - SplitPercents: booking/collection/year-end tranche percentages
  - Validate: fail-fast configuration check run before any computation

VALIDATION:
  A malformed plan is rejected as a whole. There is no partial defaulting:
  split triples must sum to exactly 100, grid bands must be contiguous and
  non-overlapping, gated metrics must carry a gate threshold, and rates
  must be non-negative. The first violation found is returned as a
  PlanConfigError wrapping ErrInvalidPlanConfig.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SPLIT PERCENTAGES - Tranche partition of one gross payout
// =============================================================================

type SplitPercents struct {
	BookingPct    decimal.Decimal
	CollectionPct decimal.Decimal
	YearEndPct    decimal.Decimal
}

func NewSplit(booking, collection, yearEnd float64) SplitPercents {
	return SplitPercents{
		BookingPct:    decimal.NewFromFloat(booking),
		CollectionPct: decimal.NewFromFloat(collection),
		YearEndPct:    decimal.NewFromFloat(yearEnd),
	}
}

var hundred = decimal.NewFromInt(100)

func (s SplitPercents) validate() error {
	if s.BookingPct.IsNegative() || s.CollectionPct.IsNegative() || s.YearEndPct.IsNegative() {
		return fmt.Errorf("split percentages must be non-negative")
	}
	sum := s.BookingPct.Add(s.CollectionPct).Add(s.YearEndPct)
	if !sum.Equal(hundred) {
		return fmt.Errorf("split percentages sum to %s, want 100", sum)
	}
	return nil
}

// Apply partitions a gross USD amount into tranches. Booking and collection
// are rounded to cents; year-end takes the exact remainder so the three
// tranches always reconstruct the gross.
func (s SplitPercents) Apply(grossUSD decimal.Decimal) TrancheSplit {
	booking := grossUSD.Mul(s.BookingPct).Div(hundred).Round(2)
	collection := grossUSD.Mul(s.CollectionPct).Div(hundred).Round(2)
	yearEnd := grossUSD.Sub(booking).Sub(collection)
	return TrancheSplit{BookingUSD: booking, CollectionUSD: collection, YearEndUSD: yearEnd}
}

// =============================================================================
// MULTIPLIER GRID
// =============================================================================

// GridBand is one achievement band [MinPct, MaxPct) with its multiplier.
// The top band extends past MaxPct at the same multiplier (uncapped).
type GridBand struct {
	MinPct     decimal.Decimal
	MaxPct     decimal.Decimal
	Multiplier decimal.Decimal
}

func NewBand(minPct, maxPct, multiplier float64) GridBand {
	return GridBand{
		MinPct:     decimal.NewFromFloat(minPct),
		MaxPct:     decimal.NewFromFloat(maxPct),
		Multiplier: decimal.NewFromFloat(multiplier),
	}
}

func validateBands(bands []GridBand) error {
	for i, b := range bands {
		if !b.MaxPct.GreaterThan(b.MinPct) {
			return fmt.Errorf("band %d: max %s not greater than min %s", i, b.MaxPct, b.MinPct)
		}
		if b.Multiplier.IsNegative() {
			return fmt.Errorf("band %d: negative multiplier %s", i, b.Multiplier)
		}
		if i > 0 && !b.MinPct.Equal(bands[i-1].MaxPct) {
			return fmt.Errorf("band %d: starts at %s, previous band ends at %s",
				i, b.MinPct, bands[i-1].MaxPct)
		}
	}
	return nil
}

// =============================================================================
// PAYOUT LOGIC TYPES
// =============================================================================

type LogicType string

const (
	// LogicLinear pays achievement x allocation with a constant 1.0 multiplier.
	LogicLinear LogicType = "linear"

	// LogicSteppedAccelerator pays tier-by-tier using the multiplier grid.
	LogicSteppedAccelerator LogicType = "stepped_accelerator"

	// LogicGatedThreshold pays nothing at or below the gate threshold, and
	// tier-by-tier above it.
	LogicGatedThreshold LogicType = "gated_threshold"
)

// =============================================================================
// PLAN METRIC
// =============================================================================

// PlanMetric is one weighted performance metric within a plan. Its allocation
// of variable OTE is WeightagePct of the employee's blended target bonus.
type PlanMetric struct {
	Name             MetricName
	WeightagePct     decimal.Decimal
	Logic            LogicType
	GateThresholdPct *decimal.Decimal // required for gated metrics
	Split            SplitPercents
	Grid             []GridBand // ordered, contiguous; empty for linear
}

// =============================================================================
// PLAN COMMISSION
// =============================================================================

type CommissionType string

const (
	CommissionNewSoftware      CommissionType = "new_software"
	CommissionManagedServices  CommissionType = "managed_services"
	CommissionPerpetualLicense CommissionType = "perpetual_license"
)

// PlanCommission pays a flat rate on eligible deal value. Both constraints
// are cliffs: a deal below the minimum value or minimum margin contributes
// nothing at all. Nil means unconstrained.
type PlanCommission struct {
	Type              CommissionType
	RatePct           decimal.Decimal
	MinDealValueUSD   *decimal.Decimal
	MinGrossMarginPct *decimal.Decimal
	Split             SplitPercents
}

// =============================================================================
// PLAN SPIFF
// =============================================================================

type SpiffKind string

const (
	// SpiffLargeDeal scales with eligible ARR against the linked metric target.
	SpiffLargeDeal SpiffKind = "large_deal"

	// SpiffDealTeamPool allocates a fixed pool per qualifying deal among
	// participants outside the plan's commissioned roles.
	SpiffDealTeamPool SpiffKind = "deal_team_pool"
)

type PlanSpiff struct {
	Name            string
	Kind            SpiffKind
	LinkedMetric    MetricName
	RatePct         decimal.Decimal  // large-deal variant
	PoolUSD         decimal.Decimal  // deal-team pool variant
	MinDealValueUSD *decimal.Decimal // qualification cliff; nil = all deals
	Split           SplitPercents
}

// =============================================================================
// NRR CONFIGURATION
// =============================================================================

// NRRConfig configures the net-revenue-retention overlay. The two deal
// families (CR+ER and implementation) are margin-filtered independently,
// then measured against a combined target.
type NRRConfig struct {
	OTEPct           decimal.Decimal // share of variable OTE; 0 disables the overlay
	MinCRERMarginPct decimal.Decimal
	MinImplMarginPct decimal.Decimal
	Split            SplitPercents
}

// =============================================================================
// COMP PLAN
// =============================================================================

type PayoutFrequency string

const (
	PayoutMonthly   PayoutFrequency = "monthly"
	PayoutQuarterly PayoutFrequency = "quarterly"
)

type CompPlan struct {
	ID              PlanID
	Name            string
	EffectiveYear   int
	ClawbackExempt  bool
	PayoutFrequency PayoutFrequency
	NRR             NRRConfig

	Metrics     []PlanMetric
	Commissions []PlanCommission
	Spiffs      []PlanSpiff

	// Roles that already earn commission on a deal and are therefore
	// excluded from deal-team pool allocations.
	CommissionedRoles []ParticipantRole
}

// Validate rejects malformed configuration before any computation runs.
// The plan is checked as a whole; the first violation is returned.
func (p *CompPlan) Validate() error {
	if p.EffectiveYear == 0 {
		return &PlanConfigError{PlanID: p.ID, Field: "effective_year", Reason: "missing"}
	}

	for _, m := range p.Metrics {
		field := fmt.Sprintf("metric %q", m.Name)
		if m.WeightagePct.IsNegative() {
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "negative weightage"}
		}
		if err := m.Split.validate(); err != nil {
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: err.Error()}
		}
		if err := validateBands(m.Grid); err != nil {
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: err.Error()}
		}
		switch m.Logic {
		case LogicLinear:
			// no grid requirements
		case LogicSteppedAccelerator:
			if len(m.Grid) == 0 {
				return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "stepped metric has no grid bands"}
			}
		case LogicGatedThreshold:
			if m.GateThresholdPct == nil {
				return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "gated metric has no gate threshold"}
			}
			if len(m.Grid) == 0 {
				return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "gated metric has no grid bands"}
			}
		default:
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: fmt.Sprintf("unknown logic type %q", m.Logic)}
		}
	}

	for _, c := range p.Commissions {
		field := fmt.Sprintf("commission %q", c.Type)
		if c.RatePct.IsNegative() {
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "negative rate"}
		}
		if err := c.Split.validate(); err != nil {
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: err.Error()}
		}
	}

	for _, s := range p.Spiffs {
		field := fmt.Sprintf("spiff %q", s.Name)
		if err := s.Split.validate(); err != nil {
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: err.Error()}
		}
		switch s.Kind {
		case SpiffLargeDeal:
			if s.RatePct.IsNegative() {
				return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "negative rate"}
			}
			if s.LinkedMetric == "" {
				return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "large-deal spiff has no linked metric"}
			}
		case SpiffDealTeamPool:
			if s.PoolUSD.IsNegative() {
				return &PlanConfigError{PlanID: p.ID, Field: field, Reason: "negative pool amount"}
			}
		default:
			return &PlanConfigError{PlanID: p.ID, Field: field, Reason: fmt.Sprintf("unknown spiff kind %q", s.Kind)}
		}
	}

	if !p.NRR.OTEPct.IsZero() {
		if p.NRR.OTEPct.IsNegative() {
			return &PlanConfigError{PlanID: p.ID, Field: "nrr", Reason: "negative OTE percentage"}
		}
		if err := p.NRR.Split.validate(); err != nil {
			return &PlanConfigError{PlanID: p.ID, Field: "nrr", Reason: err.Error()}
		}
	}

	return nil
}

// HasDealComponents reports whether any component pays on deals and so
// converts at the monthly market rate. Variable pay converts at the
// employee's fixed compensation rate and never needs the lookup.
func (p *CompPlan) HasDealComponents() bool {
	if len(p.Commissions) > 0 || !p.NRR.OTEPct.IsZero() {
		return true
	}
	for _, s := range p.Spiffs {
		if s.Kind == SpiffLargeDeal {
			return true
		}
	}
	return false
}

// Metric returns the named metric, or nil.
func (p *CompPlan) Metric(name MetricName) *PlanMetric {
	for i := range p.Metrics {
		if p.Metrics[i].Name == name {
			return &p.Metrics[i]
		}
	}
	return nil
}
