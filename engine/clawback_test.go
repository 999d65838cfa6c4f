package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func nonExemptPlan() *engine.CompPlan {
	return &engine.CompPlan{ID: "plan-1", EffectiveYear: 2026}
}

func heldDeal(id engine.DealID, valueUSD, heldUSD float64) engine.HeldDeal {
	return engine.HeldDeal{
		Deal: engine.Deal{
			ID:           id,
			Type:         engine.DealNewSoftware,
			ValueUSD:     dec(valueUSD),
			BookingMonth: month(2026, time.February),
		},
		HeldUSD: dec(heldUSD),
	}
}

func overdueStatus(id engine.DealID, collected float64, due engine.TimePoint) engine.CollectionStatus {
	return engine.CollectionStatus{
		DealID:       id,
		CollectedUSD: dec(collected),
		MilestoneDue: due,
	}
}

// =============================================================================
// LEDGER ENTRY STATE MACHINE
// =============================================================================

func TestLedgerEntry_RecoveryLifecycle(t *testing.T) {
	// GIVEN: A $5k pending hold
	// WHEN: Recovering $2k, then the rest
	// THEN: The entry moves pending -> partial -> recovered

	e := engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31))
	assert.Equal(t, engine.ClawbackPending, e.Status)
	eq(t, 5_000, e.RemainingUSD())

	require.NoError(t, e.ApplyRecovery(dec(2_000), date(2026, time.June, 15)))
	assert.Equal(t, engine.ClawbackPartial, e.Status)
	eq(t, 3_000, e.RemainingUSD())

	require.NoError(t, e.ApplyRecovery(dec(3_000), date(2026, time.July, 1)))
	assert.Equal(t, engine.ClawbackRecovered, e.Status)
	assert.True(t, e.RemainingUSD().IsZero())
	assert.True(t, e.Status.Terminal())
}

func TestLedgerEntry_StableIdentityPerEmployeeAndDeal(t *testing.T) {
	// GIVEN: The same employee/deal pair
	// WHEN: Opening a hold twice
	// THEN: Both carry the same ID, so re-reconciling an unlocked month
	//   upserts the persisted entry; a different deal gets a different ID

	first := engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31))
	second := engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.June, 30))
	assert.Equal(t, first.ID, second.ID)

	other := engine.NewLedgerEntry("emp-1", "deal-2", dec(5_000), date(2026, time.May, 31))
	assert.NotEqual(t, first.ID, other.ID)
}

func TestLedgerEntry_OverRecoveryClampsToRemainder(t *testing.T) {
	// GIVEN: A $5k hold
	// WHEN: Crediting $9k
	// THEN: Only the remainder is recovered; the entry never goes negative

	e := engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31))
	require.NoError(t, e.ApplyRecovery(dec(9_000), date(2026, time.June, 15)))

	eq(t, 5_000, e.RecoveredUSD)
	assert.True(t, e.RemainingUSD().IsZero())
	assert.Equal(t, engine.ClawbackRecovered, e.Status)
}

func TestLedgerEntry_TerminalEntriesRejectMutation(t *testing.T) {
	// GIVEN: A recovered entry and a written-off entry
	// WHEN: Applying further recoveries or write-offs
	// THEN: Both are rejected with ErrEntryTerminal

	recovered := engine.NewLedgerEntry("emp-1", "deal-1", dec(1_000), date(2026, time.May, 31))
	require.NoError(t, recovered.ApplyRecovery(dec(1_000), date(2026, time.June, 1)))

	writtenOff := engine.NewLedgerEntry("emp-1", "deal-2", dec(1_000), date(2026, time.May, 31))
	require.NoError(t, writtenOff.WriteOff(date(2026, time.June, 1)))
	assert.Equal(t, engine.ClawbackWrittenOff, writtenOff.Status)

	assert.ErrorIs(t, recovered.ApplyRecovery(dec(1), date(2026, time.July, 1)), engine.ErrEntryTerminal)
	assert.ErrorIs(t, recovered.WriteOff(date(2026, time.July, 1)), engine.ErrEntryTerminal)
	assert.ErrorIs(t, writtenOff.ApplyRecovery(dec(1), date(2026, time.July, 1)), engine.ErrEntryTerminal)
}

func TestLedgerEntry_NonPositiveRecoveryRejected(t *testing.T) {
	// GIVEN: An open hold
	// WHEN: Crediting zero or a negative amount
	// THEN: The credit is rejected and the entry is untouched

	e := engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31))

	require.Error(t, e.ApplyRecovery(decimal.Zero, date(2026, time.June, 1)))
	require.Error(t, e.ApplyRecovery(dec(-100), date(2026, time.June, 1)))
	assert.Equal(t, engine.ClawbackPending, e.Status)
	eq(t, 5_000, e.RemainingUSD())
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconcile_OpensHoldForOverdueDeal(t *testing.T) {
	// GIVEN: A commissioned deal with nothing collected past May 31
	// WHEN: Reconciling on June 30
	// THEN: A pending hold opens for the deal's collection tranche

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}
	statuses := map[engine.DealID]engine.CollectionStatus{
		"deal-1": overdueStatus("deal-1", 0, date(2026, time.May, 31)),
	}

	muts := engine.ReconcileCollections(nonExemptPlan(), "emp-1", held, statuses, nil,
		date(2026, time.June, 30))

	require.Len(t, muts, 1)
	assert.Equal(t, engine.MutationOpened, muts[0].Type)
	assert.Equal(t, engine.ClawbackPending, muts[0].Entry.Status)
	assert.Equal(t, engine.DealID("deal-1"), muts[0].Entry.DealID)
	eq(t, 5_000, muts[0].AmountUSD)
}

func TestReconcile_NotYetOverdue_NoMutation(t *testing.T) {
	// GIVEN: The same uncollected deal, before its milestone
	// WHEN: Reconciling on May 15
	// THEN: Nothing opens

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}
	statuses := map[engine.DealID]engine.CollectionStatus{
		"deal-1": overdueStatus("deal-1", 0, date(2026, time.May, 31)),
	}

	muts := engine.ReconcileCollections(nonExemptPlan(), "emp-1", held, statuses, nil,
		date(2026, time.May, 15))
	assert.Empty(t, muts)
}

func TestReconcile_ProportionalRecovery(t *testing.T) {
	// GIVEN: An open $5k hold on a $500k deal, with $250k now collected
	// WHEN: Reconciling
	// THEN: Half the hold is credited and the entry moves to partial

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}
	statuses := map[engine.DealID]engine.CollectionStatus{
		"deal-1": overdueStatus("deal-1", 250_000, date(2026, time.May, 31)),
	}
	open := []engine.LedgerEntry{
		engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31)),
	}

	muts := engine.ReconcileCollections(nonExemptPlan(), "emp-1", held, statuses, open,
		date(2026, time.July, 31))

	require.Len(t, muts, 1)
	assert.Equal(t, engine.MutationRecovered, muts[0].Type)
	eq(t, 2_500, muts[0].AmountUSD)
	assert.Equal(t, engine.ClawbackPartial, muts[0].Entry.Status)
}

func TestReconcile_FullCollectionClosesEntry(t *testing.T) {
	// GIVEN: An open hold and a deal now collected in full
	// WHEN: Reconciling
	// THEN: The whole hold is credited and the entry closes as recovered

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}
	statuses := map[engine.DealID]engine.CollectionStatus{
		"deal-1": overdueStatus("deal-1", 500_000, date(2026, time.May, 31)),
	}
	open := []engine.LedgerEntry{
		engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31)),
	}

	muts := engine.ReconcileCollections(nonExemptPlan(), "emp-1", held, statuses, open,
		date(2026, time.August, 31))

	require.Len(t, muts, 1)
	eq(t, 5_000, muts[0].AmountUSD)
	assert.Equal(t, engine.ClawbackRecovered, muts[0].Entry.Status)
}

func TestReconcile_RepeatRunsAreIdempotent(t *testing.T) {
	// GIVEN: A hold already credited for the cash collected so far
	// WHEN: Reconciling again with the same collection status
	// THEN: No further mutation is produced

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}
	statuses := map[engine.DealID]engine.CollectionStatus{
		"deal-1": overdueStatus("deal-1", 250_000, date(2026, time.May, 31)),
	}
	entry := engine.NewLedgerEntry("emp-1", "deal-1", dec(5_000), date(2026, time.May, 31))
	require.NoError(t, entry.ApplyRecovery(dec(2_500), date(2026, time.July, 31)))

	muts := engine.ReconcileCollections(nonExemptPlan(), "emp-1", held, statuses,
		[]engine.LedgerEntry{entry}, date(2026, time.August, 31))
	assert.Empty(t, muts)
}

func TestReconcile_ExemptPlanNeverMutates(t *testing.T) {
	// GIVEN: A clawback-exempt plan with an overdue deal
	// WHEN: Reconciling
	// THEN: No mutations, ever

	plan := nonExemptPlan()
	plan.ClawbackExempt = true

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}
	statuses := map[engine.DealID]engine.CollectionStatus{
		"deal-1": overdueStatus("deal-1", 0, date(2026, time.May, 31)),
	}

	muts := engine.ReconcileCollections(plan, "emp-1", held, statuses, nil,
		date(2026, time.June, 30))
	assert.Nil(t, muts)
}

func TestReconcile_DealWithoutStatusSkipped(t *testing.T) {
	// GIVEN: A held deal that finance has not yet recorded any status for
	// WHEN: Reconciling
	// THEN: The deal is skipped; absence of data is not overdue

	held := []engine.HeldDeal{heldDeal("deal-1", 500_000, 5_000)}

	muts := engine.ReconcileCollections(nonExemptPlan(), "emp-1", held,
		map[engine.DealID]engine.CollectionStatus{}, nil, date(2026, time.June, 30))
	assert.Empty(t, muts)
}
