/*
handlers.go - HTTP API handlers for the compensation engine

PURPOSE:
  Exposes the compensation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List all employees
    POST   /api/employees                 Create employee
    GET    /api/employees/{id}            Get employee details
    GET    /api/employees/{id}/segments   Target-bonus segments for a year
    POST   /api/employees/{id}/segments   Record a target segment

  Plans:
    GET    /api/plans                     List all plans
    POST   /api/plans                     Create plan from JSON
    GET    /api/plans/{id}                Get plan

  Deals:
    POST   /api/deals                     Record a deal
    GET    /api/deals/{id}                Get deal
    PUT    /api/deals/{id}/collection     Record cash received

  Rates:
    POST   /api/rates                     Record a monthly market rate

  Statements:
    POST   /api/statements/run            Compute one employee's statement
    POST   /api/statements/batch          Compute many employees in parallel
    GET    /api/statements/{id}/{month}   Fetch a persisted statement

  Clawback:
    GET    /api/employees/{id}/ledger     Ledger entries for an employee
    POST   /api/ledger/{id}/recover       Apply a manual recovery credit
    POST   /api/ledger/{id}/write-off     Write off a remaining balance

  Allocations:
    GET    /api/allocations               List pool allocations
    POST   /api/allocations/{id}/approve  Approve a pending allocation

  Admin:
    POST   /api/admin/locks               Lock a payroll month
    DELETE /api/admin/locks               Unlock a payroll month

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (calculator, ledger, blending)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, malformed plan config
  - 404: Resource not found
  - 409: Conflict (locked period, terminal ledger entry)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - simulate.go: What-if payout simulation and demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       engine.Store
	PlanFactory *factory.PlanFactory
	Calculator  *engine.Calculator

	validate *validator.Validate
	log      zerolog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:       store,
		PlanFactory: factory.NewPlanFactory(),
		Calculator:  engine.NewCalculator(store),
		validate:    validator.New(),
		log:         log,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = employeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	rate, err := decimal.NewFromString(req.CompRateToUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid comp_rate_to_usd", err)
		return
	}

	emp := engine.Employee{
		ID:            engine.EmployeeID(req.ID),
		Name:          req.Name,
		Currency:      engine.Currency(req.Currency),
		CompRateToUSD: rate,
		PlanID:        engine.PlanID(req.PlanID),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, employeeDTO(emp))
}

// GetSegments returns an employee's target segments overlapping a year.
// GET /api/employees/{id}/segments?year=2026
func (h *Handler) GetSegments(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	year := queryYear(r)

	segments, err := h.Store.SegmentsFor(r.Context(), id, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get segments", err)
		return
	}

	dtos := make([]SegmentDTO, len(segments))
	for i, s := range segments {
		dtos[i] = segmentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSegment records a target-bonus segment.
func (h *Handler) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := decimal.NewFromString(req.TargetBonusUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_bonus_usd", err)
		return
	}
	start, err := parseDate(req.EffectiveStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_start (use YYYY-MM-DD)", err)
		return
	}
	end, err := parseDate(req.EffectiveEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_end (use YYYY-MM-DD)", err)
		return
	}

	seg := engine.TargetSegment{
		EmployeeID:     engine.EmployeeID(req.EmployeeID),
		PlanID:         engine.PlanID(req.PlanID),
		TargetBonusUSD: target,
		EffectiveStart: start,
		EffectiveEnd:   end,
	}
	if err := h.Store.SaveSegment(r.Context(), seg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save segment", err)
		return
	}
	writeJSON(w, http.StatusCreated, segmentDTO(seg))
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = PlanDTO{
			ID:            string(p.ID),
			Name:          p.Name,
			EffectiveYear: p.EffectiveYear,
			Config:        h.PlanFactory.ToJSON(p),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a single plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := engine.PlanID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, PlanDTO{
		ID:            string(plan.ID),
		Name:          plan.Name,
		EffectiveYear: plan.EffectiveYear,
		Config:        h.PlanFactory.ToJSON(plan),
	})
}

// CreatePlan creates a plan from its JSON definition.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	plan, err := h.PlanFactory.FromJSON(req.Config)
	if err != nil {
		writeDomainError(w, "Invalid plan configuration", err)
		return
	}
	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeDomainError(w, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, PlanDTO{
		ID:            string(plan.ID),
		Name:          plan.Name,
		EffectiveYear: plan.EffectiveYear,
		Config:        h.PlanFactory.ToJSON(plan),
	})
}

// =============================================================================
// DEAL HANDLERS
// =============================================================================

// CreateDeal records a deal with its participants.
func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req CreateDealRequest
	if !h.decode(w, r, &req) {
		return
	}

	deal, err := dealFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid deal", err)
		return
	}
	if err := h.Store.SaveDeal(r.Context(), deal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save deal", err)
		return
	}
	writeJSON(w, http.StatusCreated, dealDTO(deal))
}

// GetDeal returns a single deal.
func (h *Handler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id := engine.DealID(chi.URLParam(r, "id"))

	deal, err := h.Store.GetDeal(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get deal", err)
		return
	}
	writeJSON(w, http.StatusOK, dealDTO(deal))
}

// UpdateCollection records cash received against a deal. Rejected when the
// touched months are locked.
func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	dealID := engine.DealID(chi.URLParam(r, "id"))

	var req CollectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	collected, err := decimal.NewFromString(req.CollectedUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid collected_usd", err)
		return
	}
	due, err := parseDate(req.MilestoneDue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid milestone_due (use YYYY-MM-DD)", err)
		return
	}

	status := engine.CollectionStatus{
		DealID:       dealID,
		CollectedUSD: collected,
		MilestoneDue: due,
	}
	if req.CollectedAt != "" {
		at, err := parseDate(req.CollectedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid collected_at (use YYYY-MM-DD)", err)
			return
		}
		status.CollectedAt = &at
	}

	if err := h.Store.UpsertCollection(r.Context(), status); err != nil {
		writeDomainError(w, "Failed to update collection", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "recorded"})
}

// SaveRate records one month's market conversion rate for a currency.
func (h *Handler) SaveRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if !h.decode(w, r, &req) {
		return
	}

	month, err := engine.ParseYearMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	rate, err := decimal.NewFromString(req.RateToUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate_to_usd", err)
		return
	}

	if err := h.Store.SaveRate(r.Context(), engine.Currency(req.Currency), month, rate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "saved"})
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// RunStatement computes and persists one employee's monthly statement.
func (h *Handler) RunStatement(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !h.decode(w, r, &req) {
		return
	}

	st, err := h.runOne(r, req)
	if err != nil {
		writeDomainError(w, "Calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, statementDTO(st))
}

// RunBatch computes statements for many employees concurrently. One
// employee's failure never blocks the others; each result carries its own
// error.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRunRequest
	if !h.decode(w, r, &req) {
		return
	}

	results := make([]BatchRunResult, len(req.Runs))
	var wg sync.WaitGroup
	for i, run := range req.Runs {
		if run.Month == "" {
			run.Month = req.Month
		}
		wg.Add(1)
		go func(i int, run RunRequest) {
			defer wg.Done()
			results[i] = BatchRunResult{EmployeeID: run.EmployeeID}
			st, err := h.runOne(r, run)
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Statement = statementDTO(st)
		}(i, run)
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GetStatement fetches a previously persisted statement.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	month, err := engine.ParseYearMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	st, err := h.Store.GetStatement(r.Context(), id, month)
	if err != nil {
		writeDomainError(w, "Failed to get statement", err)
		return
	}
	writeJSON(w, http.StatusOK, statementDTO(st))
}

// runOne assembles the engine input from the store plus the request's
// performance snapshot, runs the calculator, and persists the outputs.
func (h *Handler) runOne(r *http.Request, req RunRequest) (*engine.Statement, error) {
	ctx := r.Context()

	month, err := engine.ParseYearMonth(req.Month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", req.Month, err)
	}

	emp, err := h.Store.GetEmployee(ctx, engine.EmployeeID(req.EmployeeID))
	if err != nil {
		return nil, err
	}
	plan, err := h.Store.GetPlan(ctx, emp.PlanID)
	if err != nil {
		return nil, err
	}
	segments, err := h.Store.SegmentsFor(ctx, emp.ID, plan.EffectiveYear)
	if err != nil {
		return nil, err
	}
	deals, err := h.Store.DealsForEmployee(ctx, emp.ID, plan.EffectiveYear)
	if err != nil {
		return nil, err
	}

	dealIDs := make([]engine.DealID, len(deals))
	for i, d := range deals {
		dealIDs[i] = d.ID
	}
	collections, err := h.Store.CollectionsFor(ctx, dealIDs)
	if err != nil {
		return nil, err
	}
	openLedger, err := h.Store.LedgerEntriesFor(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	locked, err := h.Store.IsLocked(ctx, month)
	if err != nil {
		return nil, err
	}

	in := engine.RunInput{
		Employee:     emp,
		Month:        month,
		Plan:         plan,
		Segments:     segments,
		Deals:        deals,
		Collections:  collections,
		OpenLedger:   openLedger,
		PeriodLocked: locked,
	}
	if in.MetricTargets, err = decimalMap(req.MetricTargets); err != nil {
		return nil, fmt.Errorf("invalid metric_targets: %w", err)
	}
	if in.MetricActuals, err = decimalMap(req.MetricActuals); err != nil {
		return nil, fmt.Errorf("invalid metric_actuals: %w", err)
	}
	if req.NRRTargets != nil {
		if in.NRRTargets.CRERUSD, err = decimal.NewFromString(req.NRRTargets.CRERUSD); err != nil {
			return nil, fmt.Errorf("invalid nrr_targets.crer_usd: %w", err)
		}
		if in.NRRTargets.ImplUSD, err = decimal.NewFromString(req.NRRTargets.ImplUSD); err != nil {
			return nil, fmt.Errorf("invalid nrr_targets.impl_usd: %w", err)
		}
	}

	st, err := h.Calculator.Run(in)
	if err != nil {
		return nil, err
	}

	if err := h.Store.SaveStatement(ctx, st); err != nil {
		return nil, err
	}
	if len(st.PoolAllocations) > 0 {
		if err := h.Store.SaveAllocations(ctx, st.PoolAllocations); err != nil {
			return nil, err
		}
	}
	for _, m := range st.LedgerMutations {
		if err := h.Store.SaveLedgerEntry(ctx, m.Entry); err != nil {
			return nil, err
		}
	}

	h.log.Info().
		Str("employee", string(emp.ID)).
		Str("month", month.String()).
		Str("gross_usd", st.Totals.GrossUSD.String()).
		Bool("blended", st.TargetIsBlended).
		Msg("statement computed")

	return st, nil
}

// =============================================================================
// CLAWBACK HANDLERS
// =============================================================================

// GetLedger returns clawback ledger entries for an employee.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	entries, err := h.Store.LedgerEntriesFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get ledger", err)
		return
	}

	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ledgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecoverLedgerEntry applies a manual recovery credit.
// POST /api/ledger/{id}/recover
func (h *Handler) RecoverLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req RecoveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.AmountUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_usd", err)
		return
	}

	h.mutateLedgerEntry(w, r, func(e *engine.LedgerEntry, now engine.TimePoint) error {
		return e.ApplyRecovery(amount, now)
	})
}

// WriteOffLedgerEntry closes an entry without further recovery.
// POST /api/ledger/{id}/write-off
func (h *Handler) WriteOffLedgerEntry(w http.ResponseWriter, r *http.Request) {
	h.mutateLedgerEntry(w, r, func(e *engine.LedgerEntry, now engine.TimePoint) error {
		return e.WriteOff(now)
	})
}

func (h *Handler) mutateLedgerEntry(w http.ResponseWriter, r *http.Request, mutate func(*engine.LedgerEntry, engine.TimePoint) error) {
	id := engine.LedgerEntryID(chi.URLParam(r, "id"))

	entry, err := h.Store.GetLedgerEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get ledger entry", err)
		return
	}
	if err := mutate(&entry, today()); err != nil {
		writeDomainError(w, "Ledger mutation rejected", err)
		return
	}
	if err := h.Store.SaveLedgerEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerEntryDTO(entry))
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// ListAllocations returns pool allocations, optionally one employee's.
// GET /api/allocations?employee_id=emp-1
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	employee := engine.EmployeeID(r.URL.Query().Get("employee_id"))

	allocations, err := h.Store.ListAllocations(r.Context(), employee)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allocations", err)
		return
	}

	dtos := make([]AllocationDTO, len(allocations))
	for i, a := range allocations {
		dtos[i] = allocationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveAllocation marks a pending pool allocation approved.
func (h *Handler) ApproveAllocation(w http.ResponseWriter, r *http.Request) {
	id := engine.AllocationID(chi.URLParam(r, "id"))

	var req ApproveAllocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	allocation, err := h.Store.GetAllocation(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get allocation", err)
		return
	}
	if err := allocation.Approve(req.ApprovedBy, today()); err != nil {
		writeDomainError(w, "Approval rejected", err)
		return
	}
	if err := h.Store.UpdateAllocation(r.Context(), allocation); err != nil {
		writeDomainError(w, "Failed to update allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, allocationDTO(allocation))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// LockPeriod closes a payroll month to further writes.
func (h *Handler) LockPeriod(w http.ResponseWriter, r *http.Request) {
	month, ok := h.lockMonth(w, r)
	if !ok {
		return
	}
	if err := h.Store.LockPeriod(r.Context(), month); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to lock period", err)
		return
	}
	h.log.Info().Str("month", month.String()).Msg("period locked")
	writeJSON(w, http.StatusOK, map[string]any{"month": month.String(), "locked": true})
}

// UnlockPeriod reopens a payroll month.
func (h *Handler) UnlockPeriod(w http.ResponseWriter, r *http.Request) {
	month, ok := h.lockMonth(w, r)
	if !ok {
		return
	}
	if err := h.Store.UnlockPeriod(r.Context(), month); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unlock period", err)
		return
	}
	h.log.Info().Str("month", month.String()).Msg("period unlocked")
	writeJSON(w, http.StatusOK, map[string]any{"month": month.String(), "locked": false})
}

func (h *Handler) lockMonth(w http.ResponseWriter, r *http.Request) (engine.YearMonth, bool) {
	var req LockRequest
	if !h.decode(w, r, &req) {
		return engine.YearMonth{}, false
	}
	month, err := engine.ParseYearMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return engine.YearMonth{}, false
	}
	return month, true
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and reports whether the caller should proceed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func dealFromRequest(req CreateDealRequest) (engine.Deal, error) {
	value, err := decimal.NewFromString(req.ValueUSD)
	if err != nil {
		return engine.Deal{}, fmt.Errorf("invalid value_usd: %w", err)
	}
	tcv := value
	if req.TCVUSD != "" {
		if tcv, err = decimal.NewFromString(req.TCVUSD); err != nil {
			return engine.Deal{}, fmt.Errorf("invalid tcv_usd: %w", err)
		}
	}
	margin, err := decimal.NewFromString(req.GrossMarginPct)
	if err != nil {
		return engine.Deal{}, fmt.Errorf("invalid gross_margin_pct: %w", err)
	}
	month, err := engine.ParseYearMonth(req.BookingMonth)
	if err != nil {
		return engine.Deal{}, fmt.Errorf("invalid booking_month: %w", err)
	}

	deal := engine.Deal{
		ID:             engine.DealID(req.ID),
		Name:           req.Name,
		Type:           engine.DealType(req.Type),
		ValueUSD:       value,
		TCVUSD:         tcv,
		GrossMarginPct: margin,
		BookingMonth:   month,
	}
	for _, p := range req.Participants {
		split, err := decimal.NewFromString(p.SplitPct)
		if err != nil {
			return engine.Deal{}, fmt.Errorf("invalid split_pct for %s: %w", p.EmployeeID, err)
		}
		deal.Participants = append(deal.Participants, engine.Participant{
			EmployeeID: engine.EmployeeID(p.EmployeeID),
			Role:       engine.ParticipantRole(p.Role),
			SplitPct:   split,
		})
	}
	return deal, nil
}

func decimalMap(in map[string]string) (map[engine.MetricName]decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[engine.MetricName]decimal.Decimal, len(in))
	for k, v := range in {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", k, err)
		}
		out[engine.MetricName(k)] = d
	}
	return out, nil
}

func parseDate(s string) (engine.TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return engine.TimePoint{}, err
	}
	return engine.NewTimePoint(t.Year(), t.Month(), t.Day()), nil
}

func today() engine.TimePoint {
	now := time.Now().UTC()
	return engine.NewTimePoint(now.Year(), now.Month(), now.Day())
}

func queryYear(r *http.Request) int {
	var year int
	fmt.Sscanf(r.URL.Query().Get("year"), "%d", &year)
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	return year
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error categories onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsLockedPeriod(err), errors.Is(err, engine.ErrEntryTerminal):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsConfigError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
