/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists everything the compensation engine reads and writes: plan
  configurations, employees, target segments, deals, collection statuses,
  FX rates, clawback ledger entries, SPIFF pool allocations, computed
  statements, and period locks. The same SQL works on PostgreSQL with
  only dialect tweaks.

ENCODING:
  Plan configurations, deal participants, and full statements are stored
  as JSON blobs; everything queried or filtered on gets its own column.
  Decimals are stored as text to keep exact values.

PERIOD LOCKS:
  Locked months reject collection-status writes and statement writes at
  this layer with a LockedPeriodError. Closed history is never silently
  overwritten.

WAL MODE:
  The database opens with WAL so readers don't block, plus a sync.RWMutex
  because SQLite allows one writer at a time.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.Store = (*Store)(nil)

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		effective_year INTEGER NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		comp_rate_to_usd TEXT NOT NULL,
		plan_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS target_segments (
		employee_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		target_bonus_usd TEXT NOT NULL,
		effective_start TEXT NOT NULL,
		effective_end TEXT NOT NULL,
		PRIMARY KEY (employee_id, effective_start)
	);

	CREATE INDEX IF NOT EXISTS idx_segments_employee
		ON target_segments(employee_id, effective_start);

	CREATE TABLE IF NOT EXISTS deals (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		deal_type TEXT NOT NULL,
		value_usd TEXT NOT NULL,
		tcv_usd TEXT NOT NULL,
		gross_margin_pct TEXT NOT NULL,
		booking_month TEXT NOT NULL,
		participants_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deals_booking_month
		ON deals(booking_month);

	CREATE TABLE IF NOT EXISTS collection_statuses (
		deal_id TEXT PRIMARY KEY,
		collected_usd TEXT NOT NULL,
		collected_at TEXT,
		milestone_due TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fx_rates (
		currency TEXT NOT NULL,
		month TEXT NOT NULL,
		rate_to_usd TEXT NOT NULL,
		PRIMARY KEY (currency, month)
	);

	CREATE TABLE IF NOT EXISTS clawback_ledger (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		deal_id TEXT NOT NULL,
		original_usd TEXT NOT NULL,
		recovered_usd TEXT NOT NULL,
		status TEXT NOT NULL,
		opened_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_employee
		ON clawback_ledger(employee_id);

	CREATE TABLE IF NOT EXISTS pool_allocations (
		id TEXT PRIMARY KEY,
		spiff_name TEXT NOT NULL,
		deal_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		role TEXT NOT NULL,
		amount_usd TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TEXT NOT NULL,
		approved_at TEXT,
		approved_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_employee
		ON pool_allocations(employee_id);

	CREATE TABLE IF NOT EXISTS statements (
		employee_id TEXT NOT NULL,
		month TEXT NOT NULL,
		statement_json TEXT NOT NULL,
		PRIMARY KEY (employee_id, month)
	);

	CREATE TABLE IF NOT EXISTS period_locks (
		month TEXT PRIMARY KEY
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLANS
// =============================================================================

func (s *Store) SavePlan(ctx context.Context, plan *engine.CompPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	blob, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (id, name, effective_year, config_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			effective_year = excluded.effective_year,
			config_json = excluded.config_json`,
		string(plan.ID), plan.Name, plan.EffectiveYear, string(blob))
	return err
}

func (s *Store) GetPlan(ctx context.Context, id engine.PlanID) (*engine.CompPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM plans WHERE id = ?`, string(id)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	var plan engine.CompPlan
	if err := json.Unmarshal([]byte(blob), &plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &plan, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]*engine.CompPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT config_json FROM plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*engine.CompPlan
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var plan engine.CompPlan
		if err := json.Unmarshal([]byte(blob), &plan); err != nil {
			return nil, err
		}
		plans = append(plans, &plan)
	}
	return plans, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp engine.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, currency, comp_rate_to_usd, plan_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			comp_rate_to_usd = excluded.comp_rate_to_usd,
			plan_id = excluded.plan_id`,
		string(emp.ID), emp.Name, string(emp.Currency), emp.CompRateToUSD.String(), string(emp.PlanID))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanEmployee(s.db.QueryRowContext(ctx, `
		SELECT id, name, currency, comp_rate_to_usd, plan_id
		FROM employees WHERE id = ?`, string(id)))
}

func (s *Store) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, currency, comp_rate_to_usd, plan_id
		FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanEmployee(row rowScanner) (engine.Employee, error) {
	var emp engine.Employee
	var id, currency, rate, planID string
	err := row.Scan(&id, &emp.Name, &currency, &rate, &planID)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Employee{}, engine.ErrEmployeeNotFound
	}
	if err != nil {
		return engine.Employee{}, err
	}
	emp.ID = engine.EmployeeID(id)
	emp.Currency = engine.Currency(currency)
	emp.PlanID = engine.PlanID(planID)
	emp.CompRateToUSD, err = decimal.NewFromString(rate)
	return emp, err
}

// =============================================================================
// TARGET SEGMENTS
// =============================================================================

func (s *Store) SaveSegment(ctx context.Context, seg engine.TargetSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO target_segments
			(employee_id, plan_id, target_bonus_usd, effective_start, effective_end)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, effective_start) DO UPDATE SET
			plan_id = excluded.plan_id,
			target_bonus_usd = excluded.target_bonus_usd,
			effective_end = excluded.effective_end`,
		string(seg.EmployeeID), string(seg.PlanID), seg.TargetBonusUSD.String(),
		seg.EffectiveStart.String(), seg.EffectiveEnd.String())
	return err
}

func (s *Store) SegmentsFor(ctx context.Context, employee engine.EmployeeID, year int) ([]engine.TargetSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, plan_id, target_bonus_usd, effective_start, effective_end
		FROM target_segments
		WHERE employee_id = ? AND effective_start <= ? AND effective_end >= ?
		ORDER BY effective_start`,
		string(employee), engine.EndOfYear(year).String(), engine.StartOfYear(year).String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.TargetSegment
	for rows.Next() {
		var seg engine.TargetSegment
		var empID, planID, target, start, end string
		if err := rows.Scan(&empID, &planID, &target, &start, &end); err != nil {
			return nil, err
		}
		seg.EmployeeID = engine.EmployeeID(empID)
		seg.PlanID = engine.PlanID(planID)
		if seg.TargetBonusUSD, err = decimal.NewFromString(target); err != nil {
			return nil, err
		}
		if seg.EffectiveStart, err = parseDate(start); err != nil {
			return nil, err
		}
		if seg.EffectiveEnd, err = parseDate(end); err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// =============================================================================
// FX RATES
// =============================================================================

func (s *Store) SaveRate(ctx context.Context, currency engine.Currency, month engine.YearMonth, rateToUSD decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fx_rates (currency, month, rate_to_usd)
		VALUES (?, ?, ?)
		ON CONFLICT(currency, month) DO UPDATE SET rate_to_usd = excluded.rate_to_usd`,
		string(currency), month.String(), rateToUSD.String())
	return err
}

func (s *Store) MarketRate(currency engine.Currency, month engine.YearMonth) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rate string
	err := s.db.QueryRow(`
		SELECT rate_to_usd FROM fx_rates WHERE currency = ? AND month = ?`,
		string(currency), month.String()).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, &engine.RateNotFoundError{Currency: currency, Month: month}
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(rate)
}

// =============================================================================
// DEALS AND COLLECTIONS
// =============================================================================

func (s *Store) SaveDeal(ctx context.Context, deal engine.Deal) error {
	participants, err := json.Marshal(deal.Participants)
	if err != nil {
		return fmt.Errorf("encode participants: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deals
			(id, name, deal_type, value_usd, tcv_usd, gross_margin_pct, booking_month, participants_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			deal_type = excluded.deal_type,
			value_usd = excluded.value_usd,
			tcv_usd = excluded.tcv_usd,
			gross_margin_pct = excluded.gross_margin_pct,
			booking_month = excluded.booking_month,
			participants_json = excluded.participants_json`,
		string(deal.ID), deal.Name, string(deal.Type), deal.ValueUSD.String(),
		deal.TCVUSD.String(), deal.GrossMarginPct.String(),
		deal.BookingMonth.String(), string(participants))
	return err
}

const dealColumns = `id, name, deal_type, value_usd, tcv_usd, gross_margin_pct, booking_month, participants_json`

func (s *Store) GetDeal(ctx context.Context, id engine.DealID) (engine.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanDeal(s.db.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = ?`, string(id)))
}

func (s *Store) DealsForEmployee(ctx context.Context, employee engine.EmployeeID, year int) ([]engine.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE booking_month LIKE ? ORDER BY id`,
		fmt.Sprintf("%04d-%%", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		// Participant filtering happens here rather than in SQL because
		// participants live in a JSON blob.
		if deal.Participant(employee) == nil {
			continue
		}
		out = append(out, deal)
	}
	return out, rows.Err()
}

func scanDeal(row rowScanner) (engine.Deal, error) {
	var deal engine.Deal
	var id, dealType, value, tcv, margin, month, participants string
	err := row.Scan(&id, &deal.Name, &dealType, &value, &tcv, &margin, &month, &participants)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Deal{}, engine.ErrDealNotFound
	}
	if err != nil {
		return engine.Deal{}, err
	}
	deal.ID = engine.DealID(id)
	deal.Type = engine.DealType(dealType)
	if deal.ValueUSD, err = decimal.NewFromString(value); err != nil {
		return engine.Deal{}, err
	}
	if deal.TCVUSD, err = decimal.NewFromString(tcv); err != nil {
		return engine.Deal{}, err
	}
	if deal.GrossMarginPct, err = decimal.NewFromString(margin); err != nil {
		return engine.Deal{}, err
	}
	if deal.BookingMonth, err = engine.ParseYearMonth(month); err != nil {
		return engine.Deal{}, err
	}
	if err := json.Unmarshal([]byte(participants), &deal.Participants); err != nil {
		return engine.Deal{}, err
	}
	return deal, nil
}

func (s *Store) UpsertCollection(ctx context.Context, status engine.CollectionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, err := scanDeal(s.db.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = ?`, string(status.DealID)))
	if err != nil {
		return err
	}
	if locked, err := s.isLockedLocked(ctx, deal.BookingMonth); err != nil {
		return err
	} else if locked {
		return &engine.LockedPeriodError{Month: deal.BookingMonth, Op: "collection update"}
	}
	if status.CollectedAt != nil {
		month := engine.NewYearMonth(status.CollectedAt.Year(), status.CollectedAt.Month())
		if locked, err := s.isLockedLocked(ctx, month); err != nil {
			return err
		} else if locked {
			return &engine.LockedPeriodError{Month: month, Op: "collection update"}
		}
	}

	var collectedAt any
	if status.CollectedAt != nil {
		collectedAt = status.CollectedAt.String()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collection_statuses (deal_id, collected_usd, collected_at, milestone_due)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(deal_id) DO UPDATE SET
			collected_usd = excluded.collected_usd,
			collected_at = excluded.collected_at,
			milestone_due = excluded.milestone_due`,
		string(status.DealID), status.CollectedUSD.String(), collectedAt, status.MilestoneDue.String())
	return err
}

func (s *Store) CollectionsFor(ctx context.Context, dealIDs []engine.DealID) (map[engine.DealID]engine.CollectionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[engine.DealID]engine.CollectionStatus, len(dealIDs))
	for _, id := range dealIDs {
		var collected, due string
		var collectedAt sql.NullString
		err := s.db.QueryRowContext(ctx, `
			SELECT collected_usd, collected_at, milestone_due
			FROM collection_statuses WHERE deal_id = ?`, string(id)).
			Scan(&collected, &collectedAt, &due)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		status := engine.CollectionStatus{DealID: id}
		if status.CollectedUSD, err = decimal.NewFromString(collected); err != nil {
			return nil, err
		}
		if status.MilestoneDue, err = parseDate(due); err != nil {
			return nil, err
		}
		if collectedAt.Valid {
			at, err := parseDate(collectedAt.String)
			if err != nil {
				return nil, err
			}
			status.CollectedAt = &at
		}
		out[id] = status
	}
	return out, nil
}

// =============================================================================
// CLAWBACK LEDGER
// =============================================================================

func (s *Store) SaveLedgerEntry(ctx context.Context, entry engine.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clawback_ledger
			(id, employee_id, deal_id, original_usd, recovered_usd, status, opened_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recovered_usd = excluded.recovered_usd,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		string(entry.ID), string(entry.EmployeeID), string(entry.DealID),
		entry.OriginalUSD.String(), entry.RecoveredUSD.String(),
		string(entry.Status), entry.OpenedAt.String(), entry.UpdatedAt.String())
	return err
}

func (s *Store) GetLedgerEntry(ctx context.Context, id engine.LedgerEntryID) (engine.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanLedgerEntry(s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, deal_id, original_usd, recovered_usd, status, opened_at, updated_at
		FROM clawback_ledger WHERE id = ?`, string(id)))
}

func (s *Store) LedgerEntriesFor(ctx context.Context, employee engine.EmployeeID) ([]engine.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, deal_id, original_usd, recovered_usd, status, opened_at, updated_at
		FROM clawback_ledger WHERE employee_id = ? ORDER BY id`, string(employee))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanLedgerEntry(row rowScanner) (engine.LedgerEntry, error) {
	var e engine.LedgerEntry
	var id, empID, dealID, original, recovered, status, opened, updated string
	err := row.Scan(&id, &empID, &dealID, &original, &recovered, &status, &opened, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.LedgerEntry{}, engine.ErrLedgerEntryNotFound
	}
	if err != nil {
		return engine.LedgerEntry{}, err
	}
	e.ID = engine.LedgerEntryID(id)
	e.EmployeeID = engine.EmployeeID(empID)
	e.DealID = engine.DealID(dealID)
	e.Status = engine.LedgerStatus(status)
	if e.OriginalUSD, err = decimal.NewFromString(original); err != nil {
		return engine.LedgerEntry{}, err
	}
	if e.RecoveredUSD, err = decimal.NewFromString(recovered); err != nil {
		return engine.LedgerEntry{}, err
	}
	if e.OpenedAt, err = parseDate(opened); err != nil {
		return engine.LedgerEntry{}, err
	}
	if e.UpdatedAt, err = parseDate(updated); err != nil {
		return engine.LedgerEntry{}, err
	}
	return e, nil
}

// =============================================================================
// POOL ALLOCATIONS
// =============================================================================

func (s *Store) SaveAllocations(ctx context.Context, allocations []engine.PoolAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// A recompute upserts by the allocation's stable ID. Pending rows take
	// the recomputed share; approved rows are left untouched.
	for _, a := range allocations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pool_allocations
				(id, spiff_name, deal_id, employee_id, role, amount_usd, state, created_at, approved_at, approved_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, '')
			ON CONFLICT(id) DO UPDATE SET
				role = excluded.role,
				amount_usd = excluded.amount_usd,
				created_at = excluded.created_at
			WHERE pool_allocations.state != ?`,
			string(a.ID), a.SpiffName, string(a.DealID), string(a.EmployeeID),
			string(a.Role), a.AmountUSD.String(), string(a.State),
			a.CreatedAt.String(), string(engine.AllocationApproved))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) UpdateAllocation(ctx context.Context, allocation engine.PoolAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM pool_allocations WHERE id = ?`, string(allocation.ID)).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return engine.ErrAllocationNotFound
	}
	return execAllocation(ctx, s.db, allocation)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execAllocation(ctx context.Context, db execer, a engine.PoolAllocation) error {
	var approvedAt any
	if a.ApprovedAt != nil {
		approvedAt = a.ApprovedAt.String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO pool_allocations
			(id, spiff_name, deal_id, employee_id, role, amount_usd, state, created_at, approved_at, approved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			approved_at = excluded.approved_at,
			approved_by = excluded.approved_by`,
		string(a.ID), a.SpiffName, string(a.DealID), string(a.EmployeeID),
		string(a.Role), a.AmountUSD.String(), string(a.State),
		a.CreatedAt.String(), approvedAt, a.ApprovedBy)
	return err
}

func (s *Store) GetAllocation(ctx context.Context, id engine.AllocationID) (engine.PoolAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanAllocation(s.db.QueryRowContext(ctx, `
		SELECT id, spiff_name, deal_id, employee_id, role, amount_usd, state, created_at, approved_at, approved_by
		FROM pool_allocations WHERE id = ?`, string(id)))
}

func (s *Store) ListAllocations(ctx context.Context, employee engine.EmployeeID) ([]engine.PoolAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, spiff_name, deal_id, employee_id, role, amount_usd, state, created_at, approved_at, approved_by
		FROM pool_allocations`
	args := []any{}
	if employee != "" {
		query += ` WHERE employee_id = ?`
		args = append(args, string(employee))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.PoolAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAllocation(row rowScanner) (engine.PoolAllocation, error) {
	var a engine.PoolAllocation
	var id, dealID, empID, role, amount, state, created string
	var approvedAt, approvedBy sql.NullString
	err := row.Scan(&id, &a.SpiffName, &dealID, &empID, &role, &amount, &state, &created, &approvedAt, &approvedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.PoolAllocation{}, engine.ErrAllocationNotFound
	}
	if err != nil {
		return engine.PoolAllocation{}, err
	}
	a.ID = engine.AllocationID(id)
	a.DealID = engine.DealID(dealID)
	a.EmployeeID = engine.EmployeeID(empID)
	a.Role = engine.ParticipantRole(role)
	a.State = engine.ApprovalState(state)
	a.ApprovedBy = approvedBy.String
	if a.AmountUSD, err = decimal.NewFromString(amount); err != nil {
		return engine.PoolAllocation{}, err
	}
	if a.CreatedAt, err = parseDate(created); err != nil {
		return engine.PoolAllocation{}, err
	}
	if approvedAt.Valid {
		at, err := parseDate(approvedAt.String)
		if err != nil {
			return engine.PoolAllocation{}, err
		}
		a.ApprovedAt = &at
	}
	return a, nil
}

// =============================================================================
// STATEMENTS
// =============================================================================

func (s *Store) SaveStatement(ctx context.Context, st *engine.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locked, err := s.isLockedLocked(ctx, st.Month); err != nil {
		return err
	} else if locked {
		return &engine.LockedPeriodError{Month: st.Month, Op: "statement write"}
	}

	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode statement: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO statements (employee_id, month, statement_json)
		VALUES (?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			statement_json = excluded.statement_json`,
		string(st.EmployeeID), st.Month.String(), string(blob))
	return err
}

func (s *Store) GetStatement(ctx context.Context, employee engine.EmployeeID, month engine.YearMonth) (*engine.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var blob string
	err := s.db.QueryRowContext(ctx, `
		SELECT statement_json FROM statements WHERE employee_id = ? AND month = ?`,
		string(employee), month.String()).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrStatementNotFound
	}
	if err != nil {
		return nil, err
	}
	var st engine.Statement
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// =============================================================================
// PERIOD LOCKS
// =============================================================================

func (s *Store) LockPeriod(ctx context.Context, month engine.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO period_locks (month) VALUES (?) ON CONFLICT(month) DO NOTHING`,
		month.String())
	return err
}

func (s *Store) UnlockPeriod(ctx context.Context, month engine.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM period_locks WHERE month = ?`, month.String())
	return err
}

func (s *Store) IsLocked(ctx context.Context, month engine.YearMonth) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLockedLocked(ctx, month)
}

// isLockedLocked expects the caller to hold the mutex.
func (s *Store) isLockedLocked(ctx context.Context, month engine.YearMonth) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM period_locks WHERE month = ?`, month.String()).Scan(&count)
	return count > 0, err
}

func parseDate(s string) (engine.TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return engine.TimePoint{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return engine.NewTimePoint(t.Year(), t.Month(), t.Day()), nil
}
