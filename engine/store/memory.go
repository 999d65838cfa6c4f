// Package store provides an in-memory Store implementation (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	plans       map[engine.PlanID]*engine.CompPlan
	employees   map[engine.EmployeeID]engine.Employee
	segments    map[engine.EmployeeID][]engine.TargetSegment
	rates       map[engine.Currency]map[engine.YearMonth]decimal.Decimal
	deals       map[engine.DealID]engine.Deal
	collections map[engine.DealID]engine.CollectionStatus
	ledger      map[engine.LedgerEntryID]engine.LedgerEntry
	allocations map[engine.AllocationID]engine.PoolAllocation
	statements  map[stmtKey]*engine.Statement
	locks       map[engine.YearMonth]bool
}

type stmtKey struct {
	Employee engine.EmployeeID
	Month    engine.YearMonth
}

func NewMemory() *Memory {
	return &Memory{
		plans:       make(map[engine.PlanID]*engine.CompPlan),
		employees:   make(map[engine.EmployeeID]engine.Employee),
		segments:    make(map[engine.EmployeeID][]engine.TargetSegment),
		rates:       make(map[engine.Currency]map[engine.YearMonth]decimal.Decimal),
		deals:       make(map[engine.DealID]engine.Deal),
		collections: make(map[engine.DealID]engine.CollectionStatus),
		ledger:      make(map[engine.LedgerEntryID]engine.LedgerEntry),
		allocations: make(map[engine.AllocationID]engine.PoolAllocation),
		statements:  make(map[stmtKey]*engine.Statement),
		locks:       make(map[engine.YearMonth]bool),
	}
}

var _ engine.Store = (*Memory)(nil)

// --- Plans -------------------------------------------------------------------

func (m *Memory) SavePlan(_ context.Context, plan *engine.CompPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.plans[plan.ID] = &cp
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id engine.PlanID) (*engine.CompPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, engine.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ListPlans(_ context.Context) ([]*engine.CompPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*engine.CompPlan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Employees ---------------------------------------------------------------

func (m *Memory) SaveEmployee(_ context.Context, emp engine.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id engine.EmployeeID) (engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return engine.Employee{}, engine.ErrEmployeeNotFound
	}
	return emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Target segments ---------------------------------------------------------

func (m *Memory) SaveSegment(_ context.Context, seg engine.TargetSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.segments[seg.EmployeeID] = append(m.segments[seg.EmployeeID], seg)
	return nil
}

func (m *Memory) SegmentsFor(_ context.Context, employee engine.EmployeeID, year int) ([]engine.TargetSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fy := engine.CalendarYear(year)
	var out []engine.TargetSegment
	for _, s := range m.segments[employee] {
		if _, ok := fy.Intersect(engine.Period{Start: s.EffectiveStart, End: s.EffectiveEnd}); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveStart.Before(out[j].EffectiveStart) })
	return out, nil
}

// --- Rates -------------------------------------------------------------------

func (m *Memory) SaveRate(_ context.Context, currency engine.Currency, month engine.YearMonth, rateToUSD decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rates[currency] == nil {
		m.rates[currency] = make(map[engine.YearMonth]decimal.Decimal)
	}
	m.rates[currency][month] = rateToUSD
	return nil
}

func (m *Memory) MarketRate(currency engine.Currency, month engine.YearMonth) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if byMonth, ok := m.rates[currency]; ok {
		if rate, ok := byMonth[month]; ok {
			return rate, nil
		}
	}
	return decimal.Zero, &engine.RateNotFoundError{Currency: currency, Month: month}
}

// --- Deals and collections ---------------------------------------------------

func (m *Memory) SaveDeal(_ context.Context, deal engine.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deals[deal.ID] = deal
	return nil
}

func (m *Memory) GetDeal(_ context.Context, id engine.DealID) (engine.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deals[id]
	if !ok {
		return engine.Deal{}, engine.ErrDealNotFound
	}
	return d, nil
}

func (m *Memory) DealsForEmployee(_ context.Context, employee engine.EmployeeID, year int) ([]engine.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Deal
	for _, d := range m.deals {
		if d.BookingMonth.Year != year || d.Participant(employee) == nil {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertCollection(_ context.Context, status engine.CollectionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deal, ok := m.deals[status.DealID]
	if !ok {
		return engine.ErrDealNotFound
	}
	if m.locks[deal.BookingMonth] {
		return &engine.LockedPeriodError{Month: deal.BookingMonth, Op: "collection update"}
	}
	if status.CollectedAt != nil {
		month := engine.NewYearMonth(status.CollectedAt.Year(), status.CollectedAt.Month())
		if m.locks[month] {
			return &engine.LockedPeriodError{Month: month, Op: "collection update"}
		}
	}

	m.collections[status.DealID] = status
	return nil
}

func (m *Memory) CollectionsFor(_ context.Context, dealIDs []engine.DealID) (map[engine.DealID]engine.CollectionStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[engine.DealID]engine.CollectionStatus, len(dealIDs))
	for _, id := range dealIDs {
		if cs, ok := m.collections[id]; ok {
			out[id] = cs
		}
	}
	return out, nil
}

// --- Clawback ledger ---------------------------------------------------------

func (m *Memory) SaveLedgerEntry(_ context.Context, entry engine.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger[entry.ID] = entry
	return nil
}

func (m *Memory) GetLedgerEntry(_ context.Context, id engine.LedgerEntryID) (engine.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.ledger[id]
	if !ok {
		return engine.LedgerEntry{}, engine.ErrLedgerEntryNotFound
	}
	return e, nil
}

func (m *Memory) LedgerEntriesFor(_ context.Context, employee engine.EmployeeID) ([]engine.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.LedgerEntry
	for _, e := range m.ledger {
		if e.EmployeeID == employee {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Pool allocations --------------------------------------------------------

func (m *Memory) SaveAllocations(_ context.Context, allocations []engine.PoolAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range allocations {
		// A recompute replaces pending allocations; approved ones stand.
		if existing, ok := m.allocations[a.ID]; ok && existing.State == engine.AllocationApproved {
			continue
		}
		m.allocations[a.ID] = a
	}
	return nil
}

func (m *Memory) GetAllocation(_ context.Context, id engine.AllocationID) (engine.PoolAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.allocations[id]
	if !ok {
		return engine.PoolAllocation{}, engine.ErrAllocationNotFound
	}
	return a, nil
}

func (m *Memory) UpdateAllocation(_ context.Context, allocation engine.PoolAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.allocations[allocation.ID]; !ok {
		return engine.ErrAllocationNotFound
	}
	m.allocations[allocation.ID] = allocation
	return nil
}

func (m *Memory) ListAllocations(_ context.Context, employee engine.EmployeeID) ([]engine.PoolAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.PoolAllocation
	for _, a := range m.allocations {
		if employee == "" || a.EmployeeID == employee {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Statements --------------------------------------------------------------

func (m *Memory) SaveStatement(_ context.Context, st *engine.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[st.Month] {
		return &engine.LockedPeriodError{Month: st.Month, Op: "statement write"}
	}
	cp := *st
	m.statements[stmtKey{Employee: st.EmployeeID, Month: st.Month}] = &cp
	return nil
}

func (m *Memory) GetStatement(_ context.Context, employee engine.EmployeeID, month engine.YearMonth) (*engine.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statements[stmtKey{Employee: employee, Month: month}]
	if !ok {
		return nil, engine.ErrStatementNotFound
	}
	cp := *st
	return &cp, nil
}

// --- Period locks ------------------------------------------------------------

func (m *Memory) LockPeriod(_ context.Context, month engine.YearMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[month] = true
	return nil
}

func (m *Memory) UnlockPeriod(_ context.Context, month engine.YearMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, month)
	return nil
}

func (m *Memory) IsLocked(_ context.Context, month engine.YearMonth) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locks[month], nil
}
