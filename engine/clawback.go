/*
clawback.go - Clawback ledger state machine and reconciliation

PURPOSE:
  When a paid-on deal goes uncollected past its milestone due date, the
  collection-tranche amount already owed to the employee becomes a held
  obligation. The ledger tracks each hold and reconciles later cash
  against it.

STATE MACHINE:
  pending -> partial | recovered | written_off
  partial -> partial | recovered | written_off
  recovered, written_off: terminal

  Remaining = original - recovered, never negative. Plans flagged
  clawback-exempt never create entries; their full payout releases on
  booking regardless of collection outcome.

  State is a single tagged enum. There is deliberately no pair of
  booleans whose combinations could describe an impossible entry.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER ENTRY
// =============================================================================

type LedgerStatus string

const (
	ClawbackPending    LedgerStatus = "pending"
	ClawbackPartial    LedgerStatus = "partial"
	ClawbackRecovered  LedgerStatus = "recovered"   // terminal
	ClawbackWrittenOff LedgerStatus = "written_off" // terminal
)

func (s LedgerStatus) Terminal() bool {
	return s == ClawbackRecovered || s == ClawbackWrittenOff
}

type LedgerEntry struct {
	ID           LedgerEntryID
	EmployeeID   EmployeeID
	DealID       DealID
	OriginalUSD  decimal.Decimal
	RecoveredUSD decimal.Decimal
	Status       LedgerStatus
	OpenedAt     TimePoint
	UpdatedAt    TimePoint
}

// NewLedgerEntryID derives the hold identity from its natural key: one
// hold per employee and deal, stable across recomputations.
func NewLedgerEntryID(employee EmployeeID, deal DealID) LedgerEntryID {
	return LedgerEntryID(stableID("hold", string(employee), string(deal)))
}

// NewLedgerEntry opens a pending hold for an uncollected deal.
func NewLedgerEntry(employee EmployeeID, deal DealID, heldUSD decimal.Decimal, at TimePoint) LedgerEntry {
	return LedgerEntry{
		ID:           NewLedgerEntryID(employee, deal),
		EmployeeID:   employee,
		DealID:       deal,
		OriginalUSD:  heldUSD,
		RecoveredUSD: decimal.Zero,
		Status:       ClawbackPending,
		OpenedAt:     at,
		UpdatedAt:    at,
	}
}

// RemainingUSD is original minus recovered, clamped at zero.
func (e *LedgerEntry) RemainingUSD() decimal.Decimal {
	rem := e.OriginalUSD.Sub(e.RecoveredUSD)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// ApplyRecovery credits collected cash against the hold. A recovery that
// meets or exceeds the remainder closes the entry as recovered; anything
// less moves it to partial. Terminal entries reject further recoveries.
func (e *LedgerEntry) ApplyRecovery(amountUSD decimal.Decimal, at TimePoint) error {
	if e.Status.Terminal() {
		return fmt.Errorf("entry %s (%s): %w", e.ID, e.Status, ErrEntryTerminal)
	}
	if !amountUSD.IsPositive() {
		return fmt.Errorf("recovery amount must be positive, got %s", amountUSD)
	}

	credit := amountUSD
	if credit.GreaterThan(e.RemainingUSD()) {
		credit = e.RemainingUSD()
	}
	e.RecoveredUSD = e.RecoveredUSD.Add(credit)
	e.UpdatedAt = at

	if e.RemainingUSD().IsZero() {
		e.Status = ClawbackRecovered
	} else {
		e.Status = ClawbackPartial
	}
	return nil
}

// WriteOff abandons the remaining hold. Terminal entries reject it.
func (e *LedgerEntry) WriteOff(at TimePoint) error {
	if e.Status.Terminal() {
		return fmt.Errorf("entry %s (%s): %w", e.ID, e.Status, ErrEntryTerminal)
	}
	e.Status = ClawbackWrittenOff
	e.UpdatedAt = at
	return nil
}

// =============================================================================
// MUTATIONS - What a reconciliation run did to the ledger
// =============================================================================

type MutationType string

const (
	MutationOpened    MutationType = "opened"
	MutationRecovered MutationType = "recovery_applied"
)

type LedgerMutation struct {
	Type      MutationType
	Entry     LedgerEntry
	AmountUSD decimal.Decimal
}

// =============================================================================
// RECONCILER
// =============================================================================

// HeldDeal is one deal's collection-tranche obligation for the employee,
// computed by the orchestrator from commission splits.
type HeldDeal struct {
	Deal    Deal
	HeldUSD decimal.Decimal
}

// ReconcileCollections walks the employee's commissioned deals and their
// collection statuses, opening holds for newly-overdue deals and applying
// recoveries to open entries as cash arrives. Exempt plans short-circuit
// to no mutations. Existing entries are matched by deal.
func ReconcileCollections(
	plan *CompPlan,
	employee EmployeeID,
	held []HeldDeal,
	statuses map[DealID]CollectionStatus,
	open []LedgerEntry,
	asOf TimePoint,
) []LedgerMutation {
	if plan.ClawbackExempt {
		return nil
	}

	byDeal := make(map[DealID]*LedgerEntry, len(open))
	for i := range open {
		byDeal[open[i].DealID] = &open[i]
	}

	var mutations []LedgerMutation
	for _, h := range held {
		status, ok := statuses[h.Deal.ID]
		if !ok {
			continue
		}
		entry := byDeal[h.Deal.ID]

		switch {
		case entry == nil:
			if !status.Overdue(h.Deal.ValueUSD, asOf) || !h.HeldUSD.IsPositive() {
				continue
			}
			created := NewLedgerEntry(employee, h.Deal.ID, h.HeldUSD, asOf)
			mutations = append(mutations, LedgerMutation{
				Type:      MutationOpened,
				Entry:     created,
				AmountUSD: h.HeldUSD,
			})

		case !entry.Status.Terminal():
			// Recover proportionally to cash received against the deal.
			if !status.CollectedUSD.IsPositive() || !h.Deal.ValueUSD.IsPositive() {
				continue
			}
			ratio := status.CollectedUSD.Div(h.Deal.ValueUSD)
			if ratio.GreaterThan(decimal.NewFromInt(1)) {
				ratio = decimal.NewFromInt(1)
			}
			target := entry.OriginalUSD.Mul(ratio)
			credit := target.Sub(entry.RecoveredUSD)
			if !credit.IsPositive() {
				continue
			}
			if err := entry.ApplyRecovery(credit, asOf); err != nil {
				continue
			}
			mutations = append(mutations, LedgerMutation{
				Type:      MutationRecovered,
				Entry:     *entry,
				AmountUSD: credit,
			})
		}
	}
	return mutations
}
