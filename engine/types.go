/*
Package engine implements the compensation calculation core.

PURPOSE:
  This package turns (targets, actuals, deals, plan configuration) for one
  employee and one evaluation month into payout amounts, tranche splits, and
  clawback obligations. Every calculator is a deterministic function over
  explicitly-passed inputs: no hidden state, no I/O, no randomness, so batch
  runs across employees parallelize without locking.

KEY CONCEPTS IN THIS FILE (types.go):
  - PayoutComponent: one computed metric/commission/NRR/SPIFF line
  - Exclusion: an eligibility-filter outcome (distinct from a real zero)
  - Typed identifiers for employees, plans, deals, ledger entries

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money or percentages flow
  2. Purity: configuration is a read-only snapshot passed per call
  3. Type safety: IDs are distinct string types, never mixed
  4. Auditability: zeros caused by filters carry an exclusion reason

SEE ALSO:
  - plan.go: plan configuration model and fail-fast validation
  - engine.go: the per-employee/month orchestrator
*/
package engine

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CURRENCY
// =============================================================================

type Currency string

const CurrencyUSD Currency = "USD"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PlanID string
type DealID string
type MetricName string
type LedgerEntryID string
type AllocationID string

// stableID derives a UUID from a natural key. Engine outputs that carry an
// identity (pool allocations, clawback holds) use it so recomputing an
// unlocked month reproduces the same records instead of minting duplicates.
func stableID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "/"))).String()
}

// =============================================================================
// COMPONENT KINDS - What produced a payout line
// =============================================================================

type ComponentKind string

const (
	ComponentMetric     ComponentKind = "metric"
	ComponentCommission ComponentKind = "commission"
	ComponentNRR        ComponentKind = "nrr"
	ComponentSpiff      ComponentKind = "spiff"
)

// =============================================================================
// EXCLUSION - Filtered-out deal, distinguishable from a legitimate zero
// =============================================================================

// ExclusionReason explains why a deal contributed nothing to a component.
// Exclusions are expected outcomes, not errors; they are surfaced so a
// caller can tell an eligibility filter from a data problem.
type ExclusionReason string

const (
	ExcludedBelowMinValue  ExclusionReason = "below_min_deal_value"
	ExcludedBelowMinMargin ExclusionReason = "below_min_margin"
)

type Exclusion struct {
	DealID DealID
	Reason ExclusionReason
	Detail string
}

// =============================================================================
// TRANCHE SPLIT - Booking / collection / year-end portions of one gross
// =============================================================================

type TrancheSplit struct {
	BookingUSD    decimal.Decimal
	CollectionUSD decimal.Decimal
	YearEndUSD    decimal.Decimal
}

// Total reconstructs the gross exactly; YearEndUSD absorbs rounding.
func (t TrancheSplit) Total() decimal.Decimal {
	return t.BookingUSD.Add(t.CollectionUSD).Add(t.YearEndUSD)
}

// =============================================================================
// PAYOUT COMPONENT - One computed line of a statement
// =============================================================================

// PayoutComponent is the computed result for a single metric, commission,
// NRR overlay, or SPIFF. It is an output value, never a persisted input.
type PayoutComponent struct {
	Kind           ComponentKind
	Name           string
	TargetUSD      decimal.Decimal
	ActualUSD      decimal.Decimal
	AchievementPct decimal.Decimal
	Multiplier     decimal.Decimal
	GrossUSD       decimal.Decimal
	Split          TrancheSplit

	// Local-currency equivalents. Variable-pay components use the fixed
	// compensation rate; deal-linked components use the month's market rate.
	LocalCurrency Currency
	RateToUSD     decimal.Decimal
	GrossLocal    decimal.Decimal

	// Deals dropped by eligibility filters while computing this line.
	Exclusions []Exclusion
}

// =============================================================================
// STATEMENT SUMMARY
// =============================================================================

type Summary struct {
	GrossUSD             decimal.Decimal
	PaidNowUSD           decimal.Decimal // booking tranches, released immediately
	HeldForCollectionUSD decimal.Decimal
	HeldForYearEndUSD    decimal.Decimal
}

func (s *Summary) add(c PayoutComponent) {
	s.GrossUSD = s.GrossUSD.Add(c.GrossUSD)
	s.PaidNowUSD = s.PaidNowUSD.Add(c.Split.BookingUSD)
	s.HeldForCollectionUSD = s.HeldForCollectionUSD.Add(c.Split.CollectionUSD)
	s.HeldForYearEndUSD = s.HeldForYearEndUSD.Add(c.Split.YearEndUSD)
}
