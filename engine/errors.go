/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy separates four situations the caller must tell apart:

  1. Configuration errors - malformed plan data, rejected before any math runs
  2. Missing-data conditions - e.g. target = 0, which is NOT an error
  3. Period-lock violations - mutations or recomputes of a closed month
  4. Eligibility exclusions - expected zeros, reported in output not as errors

  Only (1) and (3) are Go errors. (2) produces a defined zero result and
  (4) produces Exclusion records on the component.

USAGE:
  if engine.IsConfigError(err) { reject the plan }
  if engine.IsLockedPeriod(err) { surface 409 to the caller }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPlanConfig is returned when plan configuration fails
	// validation. Computation never starts on an invalid plan.
	ErrInvalidPlanConfig = errors.New("invalid plan configuration")

	// ErrLockedPeriod is returned when a mutation or recomputation targets
	// a payout month that has been closed. Never silently ignored.
	ErrLockedPeriod = errors.New("payout period is locked")

	// ErrRateNotFound is returned when no market rate exists for a
	// currency/month pair.
	ErrRateNotFound = errors.New("exchange rate not found")

	// ErrEntryTerminal is returned when mutating a clawback ledger entry
	// that is already recovered or written off.
	ErrEntryTerminal = errors.New("ledger entry is terminal")

	// ErrPlanNotFound is returned when a referenced plan doesn't exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrDealNotFound is returned when a referenced deal doesn't exist.
	ErrDealNotFound = errors.New("deal not found")

	// ErrAllocationNotFound is returned when a SPIFF pool allocation
	// doesn't exist.
	ErrAllocationNotFound = errors.New("pool allocation not found")

	// ErrLedgerEntryNotFound is returned when a clawback ledger entry
	// doesn't exist.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// ErrStatementNotFound is returned when no computed statement exists
	// for an employee/month.
	ErrStatementNotFound = errors.New("statement not found")

	// ErrSegmentsOverlap is returned when target segments for one
	// employee/year overlap in time.
	ErrSegmentsOverlap = errors.New("target segments overlap")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PlanConfigError reports the first validation failure found in a plan.
type PlanConfigError struct {
	PlanID PlanID
	Field  string
	Reason string
}

func (e *PlanConfigError) Error() string {
	return fmt.Sprintf("plan %s rejected: %s: %s", e.PlanID, e.Field, e.Reason)
}

func (e *PlanConfigError) Unwrap() error { return ErrInvalidPlanConfig }

// LockedPeriodError identifies which month rejected the operation.
type LockedPeriodError struct {
	Month YearMonth
	Op    string
}

func (e *LockedPeriodError) Error() string {
	return fmt.Sprintf("period %s is locked: %s rejected", e.Month, e.Op)
}

func (e *LockedPeriodError) Unwrap() error { return ErrLockedPeriod }

// RateNotFoundError identifies the missing currency/month pair.
type RateNotFoundError struct {
	Currency Currency
	Month    YearMonth
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no market rate for %s in %s", e.Currency, e.Month)
}

func (e *RateNotFoundError) Unwrap() error { return ErrRateNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError returns true if the error is a rejected plan configuration.
func IsConfigError(err error) bool { return errors.Is(err, ErrInvalidPlanConfig) }

// IsLockedPeriod returns true if the error is a period-lock violation.
func IsLockedPeriod(err error) bool { return errors.Is(err, ErrLockedPeriod) }

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrDealNotFound) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrLedgerEntryNotFound) ||
		errors.Is(err, ErrStatementNotFound) ||
		errors.Is(err, ErrRateNotFound)
}
