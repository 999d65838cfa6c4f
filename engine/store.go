/*
store.go - Persistence interfaces for engine inputs and outputs

PURPOSE:
  Defines the boundary between the calculation core and whatever owns the
  data. The engine itself never touches a Store: callers assemble a
  RunInput from these interfaces, run the pure calculators, then persist
  the outputs. Different implementations back this with SQLite or memory.

PERIOD LOCKS:
  The store is where the external period-lock is enforced for data
  mutations: once a month is locked, collection-status writes touching it
  are rejected with a LockedPeriodError, never silently dropped. Locked
  months also refuse statement overwrites, so historical results stay
  immutable and corrections flow through the clawback ledger.

IMPLEMENTATIONS:
  - store/sqlite: production store
  - engine/store: in-memory store for tests and development
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIGURATION AND REFERENCE DATA
// =============================================================================

type PlanStore interface {
	SavePlan(ctx context.Context, plan *CompPlan) error
	GetPlan(ctx context.Context, id PlanID) (*CompPlan, error)
	ListPlans(ctx context.Context) ([]*CompPlan, error)
}

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

type SegmentStore interface {
	SaveSegment(ctx context.Context, seg TargetSegment) error
	SegmentsFor(ctx context.Context, employee EmployeeID, year int) ([]TargetSegment, error)
}

type RateStore interface {
	RateProvider
	SaveRate(ctx context.Context, currency Currency, month YearMonth, rateToUSD decimal.Decimal) error
}

// =============================================================================
// DEALS AND COLLECTIONS
// =============================================================================

type DealStore interface {
	SaveDeal(ctx context.Context, deal Deal) error
	GetDeal(ctx context.Context, id DealID) (Deal, error)

	// DealsForEmployee returns deals the employee participates in, booked
	// within the given year.
	DealsForEmployee(ctx context.Context, employee EmployeeID, year int) ([]Deal, error)

	// UpsertCollection records cash received against a deal. Rejected with
	// a LockedPeriodError when the deal's booking month or the collection
	// month is locked.
	UpsertCollection(ctx context.Context, status CollectionStatus) error
	CollectionsFor(ctx context.Context, dealIDs []DealID) (map[DealID]CollectionStatus, error)
}

// =============================================================================
// LEDGER, ALLOCATIONS, STATEMENTS
// =============================================================================

type LedgerStore interface {
	SaveLedgerEntry(ctx context.Context, entry LedgerEntry) error
	GetLedgerEntry(ctx context.Context, id LedgerEntryID) (LedgerEntry, error)
	LedgerEntriesFor(ctx context.Context, employee EmployeeID) ([]LedgerEntry, error)
}

type AllocationStore interface {
	// SaveAllocations upserts recomputed pool allocations by ID. Entries
	// already approved are left untouched.
	SaveAllocations(ctx context.Context, allocations []PoolAllocation) error
	GetAllocation(ctx context.Context, id AllocationID) (PoolAllocation, error)
	UpdateAllocation(ctx context.Context, allocation PoolAllocation) error
	ListAllocations(ctx context.Context, employee EmployeeID) ([]PoolAllocation, error)
}

type StatementStore interface {
	// SaveStatement persists a computed run for audit. Rejected with a
	// LockedPeriodError when the statement's month is locked.
	SaveStatement(ctx context.Context, st *Statement) error
	GetStatement(ctx context.Context, employee EmployeeID, month YearMonth) (*Statement, error)
}

// =============================================================================
// PERIOD LOCKS
// =============================================================================

type LockStore interface {
	LockPeriod(ctx context.Context, month YearMonth) error
	UnlockPeriod(ctx context.Context, month YearMonth) error
	IsLocked(ctx context.Context, month YearMonth) (bool, error)
}

// Store is the full persistence surface the API layer composes over.
type Store interface {
	PlanStore
	EmployeeStore
	SegmentStore
	RateStore
	DealStore
	LedgerStore
	AllocationStore
	StatementStore
	LockStore
}
