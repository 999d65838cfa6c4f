/*
scheduler.go - Automated clawback reconciliation scheduler

PURPOSE:
  Periodically scans commissioned deals for overdue collection milestones
  and reconciles the clawback ledger: opens entries for newly overdue
  deals and applies recovery credits when cash has arrived.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Walks every employee's commissioned deals against collection statuses
  - Skips clawback-exempt plans entirely
  - Persists only the mutations the reconciliation produces

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewClawbackScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - engine/clawback.go: ReconcileCollections
  - handlers.go: Manual ledger endpoints (recover, write-off)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/comp-engine/engine"
)

// ClawbackScheduler handles automated overdue-collection reconciliation.
type ClawbackScheduler struct {
	Store         engine.Store
	CheckInterval time.Duration
	Enabled       bool

	log    zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewClawbackScheduler creates a new scheduler.
func NewClawbackScheduler(store engine.Store, log zerolog.Logger) *ClawbackScheduler {
	return &ClawbackScheduler{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (cs *ClawbackScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.log.Info().Msg("clawback scheduler disabled, not starting")
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)
	go cs.run()

	cs.log.Info().Dur("interval", cs.CheckInterval).Msg("clawback scheduler started")
}

// Stop stops the scheduler.
func (cs *ClawbackScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		cs.log.Info().Msg("clawback scheduler stopped")
	}
}

func (cs *ClawbackScheduler) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.checkAndProcess()

	for {
		select {
		case <-cs.ticker.C:
			cs.checkAndProcess()
		case <-cs.stop:
			return
		}
	}
}

func (cs *ClawbackScheduler) checkAndProcess() {
	ctx := context.Background()
	asOf := today()

	employees, err := cs.Store.ListEmployees(ctx)
	if err != nil {
		cs.log.Error().Err(err).Msg("clawback scan: listing employees failed")
		return
	}

	opened := 0
	recovered := 0

	for _, emp := range employees {
		mutations, err := cs.reconcileEmployee(ctx, emp, asOf)
		if err != nil {
			cs.log.Error().Err(err).Str("employee", string(emp.ID)).
				Msg("clawback scan: reconciliation failed")
			continue
		}
		for _, m := range mutations {
			switch m.Type {
			case engine.MutationOpened:
				opened++
			case engine.MutationRecovered:
				recovered++
			}
		}
	}

	if opened > 0 || recovered > 0 {
		cs.log.Info().Int("opened", opened).Int("recovered", recovered).
			Msg("clawback scan completed")
	}
}

func (cs *ClawbackScheduler) reconcileEmployee(ctx context.Context, emp engine.Employee, asOf engine.TimePoint) ([]engine.LedgerMutation, error) {
	plan, err := cs.Store.GetPlan(ctx, emp.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.ClawbackExempt {
		return nil, nil
	}

	deals, err := cs.Store.DealsForEmployee(ctx, emp.ID, plan.EffectiveYear)
	if err != nil {
		return nil, err
	}

	var held []engine.HeldDeal
	dealIDs := make([]engine.DealID, 0, len(deals))
	for _, d := range deals {
		dealIDs = append(dealIDs, d.ID)
		ct, ok := d.CommissionType()
		if !ok {
			continue
		}
		for _, pc := range plan.Commissions {
			if pc.Type != ct {
				continue
			}
			gross, eligible := engine.DealCommissionGross(pc, d)
			if !eligible {
				continue
			}
			split := pc.Split.Apply(gross.Round(2))
			held = append(held, engine.HeldDeal{Deal: d, HeldUSD: split.CollectionUSD})
		}
	}
	if len(held) == 0 {
		return nil, nil
	}

	collections, err := cs.Store.CollectionsFor(ctx, dealIDs)
	if err != nil {
		return nil, err
	}
	open, err := cs.Store.LedgerEntriesFor(ctx, emp.ID)
	if err != nil {
		return nil, err
	}

	mutations := engine.ReconcileCollections(plan, emp.ID, held, collections, open, asOf)
	for _, m := range mutations {
		if err := cs.Store.SaveLedgerEntry(ctx, m.Entry); err != nil {
			return nil, err
		}
	}
	return mutations, nil
}

// RunNow triggers an immediate check (for testing/admin).
func (cs *ClawbackScheduler) RunNow() {
	cs.checkAndProcess()
}
