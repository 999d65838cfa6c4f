package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/api"
	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/engine/store"
	"github.com/warp/comp-engine/plans"
)

// Scenario data lives in a long-closed plan year so its milestones are
// overdue no matter when the scan's as-of clock reads.
func seedOverdueDeal(t *testing.T, mem *store.Memory, planID engine.PlanID, exempt bool) {
	t.Helper()
	ctx := context.Background()

	plan := plans.EnterpriseAEPlan(planID, 2020)
	plan.ClawbackExempt = exempt
	require.NoError(t, mem.SavePlan(ctx, plan))

	emp := engine.EmployeeID("emp-" + string(planID))
	require.NoError(t, mem.SaveEmployee(ctx, engine.Employee{
		ID: emp, Name: "Rep", Currency: engine.CurrencyUSD,
		CompRateToUSD: decimal.NewFromInt(1), PlanID: planID,
	}))

	dealID := engine.DealID("deal-" + string(planID))
	require.NoError(t, mem.SaveDeal(ctx, engine.Deal{
		ID: dealID, Name: "Overdue deal", Type: engine.DealNewSoftware,
		ValueUSD: decimal.NewFromInt(500_000), TCVUSD: decimal.NewFromInt(500_000),
		GrossMarginPct: decimal.NewFromInt(70),
		BookingMonth:   engine.NewYearMonth(2020, time.February),
		Participants: []engine.Participant{
			{EmployeeID: emp, Role: engine.RolePrimaryRep, SplitPct: decimal.NewFromInt(100)},
		},
	}))
	require.NoError(t, mem.UpsertCollection(ctx, engine.CollectionStatus{
		DealID:       dealID,
		CollectedUSD: decimal.Zero,
		MilestoneDue: engine.NewTimePoint(2020, time.June, 30),
	}))
}

func TestClawbackScheduler_OpensHoldsOnScan(t *testing.T) {
	// GIVEN: A commissioned deal uncollected long past its milestone
	// WHEN: The scheduler scans
	// THEN: A pending hold for the collection tranche lands in the ledger

	mem := store.NewMemory()
	seedOverdueDeal(t, mem, "plan-a", false)

	cs := api.NewClawbackScheduler(mem, zerolog.Nop())
	cs.RunNow()

	entries, err := mem.LedgerEntriesFor(context.Background(), "emp-plan-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, engine.ClawbackPending, entries[0].Status)
	// Commission 2% of 500k at a 50/50 split holds 5000.
	assert.True(t, decimal.NewFromInt(5_000).Equal(entries[0].OriginalUSD),
		"got %s", entries[0].OriginalUSD)

	// A second scan with no new cash must not duplicate the hold.
	cs.RunNow()
	entries, err = mem.LedgerEntriesFor(context.Background(), "emp-plan-a")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClawbackScheduler_AppliesRecoveriesOnLaterScans(t *testing.T) {
	// GIVEN: An open hold whose deal is then half collected
	// WHEN: Scanning again
	// THEN: The hold is proportionally credited

	mem := store.NewMemory()
	seedOverdueDeal(t, mem, "plan-a", false)

	cs := api.NewClawbackScheduler(mem, zerolog.Nop())
	cs.RunNow()

	require.NoError(t, mem.UpsertCollection(context.Background(), engine.CollectionStatus{
		DealID:       "deal-plan-a",
		CollectedUSD: decimal.NewFromInt(250_000),
		MilestoneDue: engine.NewTimePoint(2020, time.June, 30),
	}))
	cs.RunNow()

	entries, err := mem.LedgerEntriesFor(context.Background(), "emp-plan-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, engine.ClawbackPartial, entries[0].Status)
	assert.True(t, decimal.NewFromInt(2_500).Equal(entries[0].RecoveredUSD),
		"got %s", entries[0].RecoveredUSD)
}

func TestClawbackScheduler_SkipsExemptPlans(t *testing.T) {
	mem := store.NewMemory()
	seedOverdueDeal(t, mem, "plan-x", true)

	cs := api.NewClawbackScheduler(mem, zerolog.Nop())
	cs.RunNow()

	entries, err := mem.LedgerEntriesFor(context.Background(), "emp-plan-x")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClawbackScheduler_StartStop(t *testing.T) {
	mem := store.NewMemory()
	cs := api.NewClawbackScheduler(mem, zerolog.Nop())
	cs.CheckInterval = 50 * time.Millisecond
	cs.Enabled = true

	cs.Start()
	cs.Stop()
}
