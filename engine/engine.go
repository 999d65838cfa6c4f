/*
engine.go - Per-employee/month calculation orchestrator

PURPOSE:
  Wires the calculators together for one (employee, month, deal-set,
  plan-config) tuple. Each calculator runs independently - metrics,
  commissions, NRR, and SPIFFs never call each other - then every gross
  passes through the currency and split engine, and collection changes
  reconcile through the clawback ledger.

PURITY:
  Run is a deterministic function of its input. The caller supplies every
  record up front (plan snapshot, segments, targets, actuals, deals,
  collection statuses, open ledger entries); nothing is fetched, and
  nothing is mutated except the returned statement. Batch computation
  across employees is embarrassingly parallel on top of this.

PERIOD LOCK:
  A run for a locked month is rejected with ErrLockedPeriod, never
  silently recomputed. Corrections for closed months flow through the
  adjustment/clawback path instead.
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUTS
// =============================================================================

// Employee carries the per-employee conversion context.
type Employee struct {
	ID            EmployeeID
	Name          string
	Currency      Currency
	CompRateToUSD decimal.Decimal // fixed: OTE-USD / OTE-local at hire/change
	PlanID        PlanID
}

// RunInput is the complete snapshot the engine computes from.
type RunInput struct {
	Employee Employee
	Month    YearMonth
	Plan     *CompPlan

	// Resolved by external collaborators.
	Segments      []TargetSegment
	MetricTargets map[MetricName]decimal.Decimal // annual target per metric, USD
	MetricActuals map[MetricName]decimal.Decimal // YTD actuals per metric, USD
	NRRTargets    NRRTargets
	Deals         []Deal
	Collections   map[DealID]CollectionStatus
	OpenLedger    []LedgerEntry

	// External period-lock state for the evaluation month.
	PeriodLocked bool

	// AsOf drives overdue checks; zero means the evaluation month's end.
	AsOf TimePoint
}

// =============================================================================
// OUTPUT
// =============================================================================

// Statement is the full result of one calculation run.
type Statement struct {
	EmployeeID EmployeeID
	Month      YearMonth

	VariableOTEUSD  decimal.Decimal
	TargetIsBlended bool

	Components      []PayoutComponent
	PoolAllocations []PoolAllocation
	LedgerMutations []LedgerMutation
	Totals          Summary
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	Rates RateProvider
}

func NewCalculator(rates RateProvider) *Calculator {
	return &Calculator{Rates: rates}
}

// Run computes the statement for one employee and one evaluation month.
func (c *Calculator) Run(in RunInput) (*Statement, error) {
	if in.PeriodLocked {
		return nil, &LockedPeriodError{Month: in.Month, Op: "calculation run"}
	}
	if err := in.Plan.Validate(); err != nil {
		return nil, err
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = in.Month.End()
	}

	conv := Converter{
		Currency:      in.Employee.Currency,
		CompRateToUSD: in.Employee.CompRateToUSD,
		Rates:         c.Rates,
	}

	blend, err := BlendTargets(in.Segments, CalendarYear(in.Plan.EffectiveYear), in.Month)
	if err != nil {
		return nil, err
	}
	variableOTE := blend.EffectiveTargetUSD

	st := &Statement{
		EmployeeID:      in.Employee.ID,
		Month:           in.Month,
		VariableOTEUSD:  variableOTE,
		TargetIsBlended: blend.IsBlended,
	}

	// Only deal-linked components convert at the monthly market rate, so a
	// metrics-only plan computes without any rate on record.
	marketRate := decimal.Zero
	if in.Plan.HasDealComponents() {
		marketRate, err = conv.MarketRateFor(in.Month)
		if err != nil {
			return nil, err
		}
	}

	// --- Metrics: variable pay at the compensation rate -------------------
	for _, m := range in.Plan.Metrics {
		comp := c.metricComponent(m, in, variableOTE, conv)
		st.Components = append(st.Components, comp)
		st.Totals.add(comp)
	}

	// --- Commissions: deal pay at the market rate -------------------------
	for _, pc := range in.Plan.Commissions {
		res := EvaluateCommission(pc, in.Deals)
		comp := dealComponent(ComponentCommission, string(pc.Type), res.GrossUSD, pc.Split, conv, marketRate)
		comp.ActualUSD = res.EligibleUSD
		comp.Exclusions = res.Exclusions
		st.Components = append(st.Components, comp)
		st.Totals.add(comp)
	}

	// --- NRR overlay -------------------------------------------------------
	if !in.Plan.NRR.OTEPct.IsZero() {
		res := EvaluateNRR(in.Plan.NRR, in.Deals, in.NRRTargets, variableOTE)
		comp := dealComponent(ComponentNRR, "nrr_overlay", res.GrossUSD, in.Plan.NRR.Split, conv, marketRate)
		comp.TargetUSD = in.NRRTargets.Total()
		comp.ActualUSD = res.ActualsUSD
		comp.AchievementPct = res.AchievementPct
		comp.Exclusions = res.Exclusions
		st.Components = append(st.Components, comp)
		st.Totals.add(comp)
	}

	// --- SPIFFs ------------------------------------------------------------
	for _, sp := range in.Plan.Spiffs {
		switch sp.Kind {
		case SpiffLargeDeal:
			linked := in.Plan.Metric(sp.LinkedMetric)
			if linked == nil {
				continue
			}
			linkedDeals := dealsOfMetric(in.Deals, sp.LinkedMetric)
			res := EvaluateLargeDealSpiff(sp, linked.WeightagePct, variableOTE,
				in.MetricTargets[sp.LinkedMetric], linkedDeals)
			comp := dealComponent(ComponentSpiff, sp.Name, res.GrossUSD, sp.Split, conv, marketRate)
			comp.TargetUSD = in.MetricTargets[sp.LinkedMetric]
			comp.ActualUSD = res.EligibleARRUSD
			comp.Exclusions = res.Exclusions
			st.Components = append(st.Components, comp)
			st.Totals.add(comp)

		case SpiffDealTeamPool:
			for _, d := range in.Deals {
				if d.BookingMonth != in.Month {
					continue
				}
				st.PoolAllocations = append(st.PoolAllocations,
					BuildPoolAllocations(sp, in.Plan, d, asOf)...)
			}
		}
	}

	// --- Clawback reconciliation ------------------------------------------
	st.LedgerMutations = ReconcileCollections(
		in.Plan, in.Employee.ID, c.heldDeals(in), in.Collections, in.OpenLedger, asOf)

	return st, nil
}

// metricComponent evaluates one weighted metric into a payout line.
func (c *Calculator) metricComponent(m PlanMetric, in RunInput, variableOTE decimal.Decimal, conv Converter) PayoutComponent {
	target := in.MetricTargets[m.Name]
	actual := in.MetricActuals[m.Name]

	// Achievement is only defined for a positive target; a zero target is
	// a missing-data condition, not an error, and pays nothing.
	achievement := decimal.Zero
	if target.IsPositive() {
		achievement = actual.Div(target).Mul(hundred)
	}

	allocation := variableOTE.Mul(m.WeightagePct).Div(hundred)
	spec := SpecForMetric(m)
	res := spec.MarginalPayout(achievement, allocation)

	gross := res.GrossUSD.Round(2)
	return PayoutComponent{
		Kind:           ComponentMetric,
		Name:           string(m.Name),
		TargetUSD:      target,
		ActualUSD:      actual,
		AchievementPct: achievement,
		Multiplier:     res.EffectiveMultiplier,
		GrossUSD:       gross,
		Split:          m.Split.Apply(gross),
		LocalCurrency:  conv.Currency,
		RateToUSD:      conv.CompRateToUSD,
		GrossLocal:     conv.VariablePayLocal(gross).Round(2),
	}
}

// dealComponent wraps a deal-linked gross into a payout line at the
// month's market rate.
func dealComponent(kind ComponentKind, name string, grossUSD decimal.Decimal, split SplitPercents, conv Converter, marketRate decimal.Decimal) PayoutComponent {
	gross := grossUSD.Round(2)
	local := gross
	if conv.Currency != CurrencyUSD && marketRate.IsPositive() {
		local = gross.Div(marketRate).Round(2)
	}
	return PayoutComponent{
		Kind:          kind,
		Name:          name,
		GrossUSD:      gross,
		Split:         split.Apply(gross),
		LocalCurrency: conv.Currency,
		RateToUSD:     marketRate,
		GrossLocal:    local,
	}
}

// heldDeals computes each commissioned deal's collection-tranche hold.
func (c *Calculator) heldDeals(in RunInput) []HeldDeal {
	var held []HeldDeal
	for _, d := range in.Deals {
		ct, ok := d.CommissionType()
		if !ok {
			continue
		}
		for _, pc := range in.Plan.Commissions {
			if pc.Type != ct {
				continue
			}
			gross, eligible := DealCommissionGross(pc, d)
			if !eligible {
				continue
			}
			split := pc.Split.Apply(gross.Round(2))
			held = append(held, HeldDeal{Deal: d, HeldUSD: split.CollectionUSD})
		}
	}
	return held
}

func dealsOfMetric(deals []Deal, metric MetricName) []Deal {
	// Metric linkage follows deal type naming: the software bookings metric
	// links new-software deals, managed services links managed-services.
	var want DealType
	switch metric {
	case MetricSoftwareBookings:
		want = DealNewSoftware
	case MetricManagedServices:
		want = DealManagedServices
	case MetricPerpetualLicense:
		want = DealPerpetualLicense
	default:
		return nil
	}
	var out []Deal
	for _, d := range deals {
		if d.Type == want {
			out = append(out, d)
		}
	}
	return out
}

// Well-known metric names used by plan presets and deal linkage.
const (
	MetricSoftwareBookings MetricName = "software_bookings"
	MetricManagedServices  MetricName = "managed_services"
	MetricPerpetualLicense MetricName = "perpetual_license"
	MetricServicesRevenue  MetricName = "services_revenue"
)
