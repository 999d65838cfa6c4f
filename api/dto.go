/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Plan:
    PlanDTO (wraps factory.PlanJSON)

  Deal:
    DealDTO, CreateDealRequest, CollectionRequest

  Statement:
    StatementDTO, ComponentDTO, RunRequest, BatchRunRequest

  Clawback:
    LedgerEntryDTO, RecoveryRequest

  Allocations:
    AllocationDTO, ApproveAllocationRequest

MONEY ENCODING:
  All monetary fields cross the wire as decimal strings, never floats.
  Clients parse them with their own exact-decimal library.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON type
*/
package api

import (
	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/factory"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	CompRateToUSD string `json:"comp_rate_to_usd"`
	PlanID        string `json:"plan_id"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3"`
	CompRateToUSD string `json:"comp_rate_to_usd" validate:"required"`
	PlanID        string `json:"plan_id" validate:"required"`
}

// SegmentRequest records one target-bonus segment for an employee.
type SegmentRequest struct {
	EmployeeID     string `json:"employee_id" validate:"required"`
	PlanID         string `json:"plan_id" validate:"required"`
	TargetBonusUSD string `json:"target_bonus_usd" validate:"required"`
	EffectiveStart string `json:"effective_start" validate:"required"` // YYYY-MM-DD
	EffectiveEnd   string `json:"effective_end" validate:"required"`   // YYYY-MM-DD
}

// SegmentDTO represents a target segment in responses.
type SegmentDTO struct {
	EmployeeID     string `json:"employee_id"`
	PlanID         string `json:"plan_id"`
	TargetBonusUSD string `json:"target_bonus_usd"`
	EffectiveStart string `json:"effective_start"`
	EffectiveEnd   string `json:"effective_end"`
}

// =============================================================================
// PLAN TYPES
// =============================================================================

// PlanDTO represents a plan in API responses.
type PlanDTO struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	EffectiveYear int              `json:"effective_year"`
	Config        factory.PlanJSON `json:"config"`
}

// CreatePlanRequest is the request to create a plan.
type CreatePlanRequest struct {
	Config factory.PlanJSON `json:"config"`
}

// =============================================================================
// DEAL TYPES
// =============================================================================

// ParticipantDTO is one employee's share of a deal.
type ParticipantDTO struct {
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	SplitPct   string `json:"split_pct"`
}

// CreateDealRequest is the request to record a deal.
type CreateDealRequest struct {
	ID             string           `json:"id" validate:"required"`
	Name           string           `json:"name" validate:"required"`
	Type           string           `json:"type" validate:"required"`
	ValueUSD       string           `json:"value_usd" validate:"required"`
	TCVUSD         string           `json:"tcv_usd,omitempty"`
	GrossMarginPct string           `json:"gross_margin_pct" validate:"required"`
	BookingMonth   string           `json:"booking_month" validate:"required"` // YYYY-MM
	Participants   []ParticipantDTO `json:"participants" validate:"min=1"`
}

// DealDTO represents a deal in API responses.
type DealDTO struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           string           `json:"type"`
	ValueUSD       string           `json:"value_usd"`
	TCVUSD         string           `json:"tcv_usd"`
	GrossMarginPct string           `json:"gross_margin_pct"`
	BookingMonth   string           `json:"booking_month"`
	Participants   []ParticipantDTO `json:"participants"`
}

// CollectionRequest records cash received against a deal.
type CollectionRequest struct {
	CollectedUSD string `json:"collected_usd" validate:"required"`
	CollectedAt  string `json:"collected_at,omitempty"`             // YYYY-MM-DD
	MilestoneDue string `json:"milestone_due" validate:"required"` // YYYY-MM-DD
}

// RateRequest records one month's market conversion rate.
type RateRequest struct {
	Currency  string `json:"currency" validate:"required,len=3"`
	Month     string `json:"month" validate:"required"` // YYYY-MM
	RateToUSD string `json:"rate_to_usd" validate:"required"`
}

// =============================================================================
// STATEMENT TYPES
// =============================================================================

// RunRequest asks for one employee's statement to be computed. Targets and
// actuals are a point-in-time snapshot supplied by the performance system.
type RunRequest struct {
	EmployeeID    string            `json:"employee_id" validate:"required"`
	Month         string            `json:"month" validate:"required"` // YYYY-MM
	MetricTargets map[string]string `json:"metric_targets,omitempty"`
	MetricActuals map[string]string `json:"metric_actuals,omitempty"`
	NRRTargets    *NRRTargetsDTO    `json:"nrr_targets,omitempty"`
}

// NRRTargetsDTO carries the two NRR deal-family targets.
type NRRTargetsDTO struct {
	CRERUSD string `json:"crer_usd"`
	ImplUSD string `json:"impl_usd"`
}

// BatchRunRequest computes statements for many employees in one month.
type BatchRunRequest struct {
	Month string       `json:"month" validate:"required"`
	Runs  []RunRequest `json:"runs" validate:"min=1,dive"`
}

// BatchRunResult reports one employee's outcome within a batch.
type BatchRunResult struct {
	EmployeeID string        `json:"employee_id"`
	Statement  *StatementDTO `json:"statement,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// SplitDTO is a tranche partition of one gross amount.
type SplitDTO struct {
	BookingUSD    string `json:"booking_usd"`
	CollectionUSD string `json:"collection_usd"`
	YearEndUSD    string `json:"year_end_usd"`
}

// ExclusionDTO explains why a deal contributed nothing.
type ExclusionDTO struct {
	DealID string `json:"deal_id"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// ComponentDTO is one payout line in a statement.
type ComponentDTO struct {
	Kind           string         `json:"kind"`
	Name           string         `json:"name"`
	TargetUSD      string         `json:"target_usd"`
	ActualUSD      string         `json:"actual_usd"`
	AchievementPct string         `json:"achievement_pct"`
	Multiplier     string         `json:"multiplier"`
	GrossUSD       string         `json:"gross_usd"`
	Split          SplitDTO       `json:"split"`
	LocalCurrency  string         `json:"local_currency"`
	RateToUSD      string         `json:"rate_to_usd"`
	GrossLocal     string         `json:"gross_local"`
	Exclusions     []ExclusionDTO `json:"exclusions,omitempty"`
}

// StatementDTO is the full result of one calculation run.
type StatementDTO struct {
	EmployeeID      string          `json:"employee_id"`
	Month           string          `json:"month"`
	VariableOTEUSD  string          `json:"variable_ote_usd"`
	TargetIsBlended bool            `json:"target_is_blended"`
	Components      []ComponentDTO  `json:"components"`
	PoolAllocations []AllocationDTO `json:"pool_allocations,omitempty"`
	LedgerMutations []MutationDTO   `json:"ledger_mutations,omitempty"`
	Totals          SummaryDTO      `json:"totals"`
}

// SummaryDTO aggregates the statement's tranches.
type SummaryDTO struct {
	GrossUSD             string `json:"gross_usd"`
	PaidNowUSD           string `json:"paid_now_usd"`
	HeldForCollectionUSD string `json:"held_for_collection_usd"`
	HeldForYearEndUSD    string `json:"held_for_year_end_usd"`
}

// =============================================================================
// CLAWBACK AND ALLOCATION TYPES
// =============================================================================

// LedgerEntryDTO represents one clawback ledger entry.
type LedgerEntryDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	DealID       string `json:"deal_id"`
	OriginalUSD  string `json:"original_usd"`
	RecoveredUSD string `json:"recovered_usd"`
	RemainingUSD string `json:"remaining_usd"`
	Status       string `json:"status"`
	OpenedAt     string `json:"opened_at"`
	UpdatedAt    string `json:"updated_at"`
}

// MutationDTO reports a ledger change produced by a run.
type MutationDTO struct {
	Type      string         `json:"type"`
	AmountUSD string         `json:"amount_usd"`
	Entry     LedgerEntryDTO `json:"entry"`
}

// RecoveryRequest applies a manual recovery credit to a ledger entry.
type RecoveryRequest struct {
	AmountUSD string `json:"amount_usd" validate:"required"`
}

// AllocationDTO represents a SPIFF pool allocation.
type AllocationDTO struct {
	ID         string `json:"id"`
	SpiffName  string `json:"spiff_name"`
	DealID     string `json:"deal_id"`
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	AmountUSD  string `json:"amount_usd"`
	State      string `json:"state"`
	CreatedAt  string `json:"created_at"`
	ApprovedAt string `json:"approved_at,omitempty"`
	ApprovedBy string `json:"approved_by,omitempty"`
}

// ApproveAllocationRequest marks a pool allocation approved.
type ApproveAllocationRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required"`
}

// LockRequest locks or unlocks a payroll month.
type LockRequest struct {
	Month string `json:"month" validate:"required"` // YYYY-MM
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func employeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:            string(e.ID),
		Name:          e.Name,
		Currency:      string(e.Currency),
		CompRateToUSD: e.CompRateToUSD.String(),
		PlanID:        string(e.PlanID),
	}
}

func segmentDTO(s engine.TargetSegment) SegmentDTO {
	return SegmentDTO{
		EmployeeID:     string(s.EmployeeID),
		PlanID:         string(s.PlanID),
		TargetBonusUSD: s.TargetBonusUSD.String(),
		EffectiveStart: s.EffectiveStart.String(),
		EffectiveEnd:   s.EffectiveEnd.String(),
	}
}

func dealDTO(d engine.Deal) DealDTO {
	dto := DealDTO{
		ID:             string(d.ID),
		Name:           d.Name,
		Type:           string(d.Type),
		ValueUSD:       d.ValueUSD.String(),
		TCVUSD:         d.TCVUSD.String(),
		GrossMarginPct: d.GrossMarginPct.String(),
		BookingMonth:   d.BookingMonth.String(),
	}
	for _, p := range d.Participants {
		dto.Participants = append(dto.Participants, ParticipantDTO{
			EmployeeID: string(p.EmployeeID),
			Role:       string(p.Role),
			SplitPct:   p.SplitPct.String(),
		})
	}
	return dto
}

func splitDTO(s engine.TrancheSplit) SplitDTO {
	return SplitDTO{
		BookingUSD:    s.BookingUSD.String(),
		CollectionUSD: s.CollectionUSD.String(),
		YearEndUSD:    s.YearEndUSD.String(),
	}
}

func componentDTO(c engine.PayoutComponent) ComponentDTO {
	dto := ComponentDTO{
		Kind:           string(c.Kind),
		Name:           c.Name,
		TargetUSD:      c.TargetUSD.String(),
		ActualUSD:      c.ActualUSD.String(),
		AchievementPct: c.AchievementPct.String(),
		Multiplier:     c.Multiplier.String(),
		GrossUSD:       c.GrossUSD.String(),
		Split:          splitDTO(c.Split),
		LocalCurrency:  string(c.LocalCurrency),
		RateToUSD:      c.RateToUSD.String(),
		GrossLocal:     c.GrossLocal.String(),
	}
	for _, e := range c.Exclusions {
		dto.Exclusions = append(dto.Exclusions, ExclusionDTO{
			DealID: string(e.DealID),
			Reason: string(e.Reason),
			Detail: e.Detail,
		})
	}
	return dto
}

func allocationDTO(a engine.PoolAllocation) AllocationDTO {
	dto := AllocationDTO{
		ID:         string(a.ID),
		SpiffName:  a.SpiffName,
		DealID:     string(a.DealID),
		EmployeeID: string(a.EmployeeID),
		Role:       string(a.Role),
		AmountUSD:  a.AmountUSD.String(),
		State:      string(a.State),
		CreatedAt:  a.CreatedAt.String(),
		ApprovedBy: a.ApprovedBy,
	}
	if a.ApprovedAt != nil {
		dto.ApprovedAt = a.ApprovedAt.String()
	}
	return dto
}

func ledgerEntryDTO(e engine.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:           string(e.ID),
		EmployeeID:   string(e.EmployeeID),
		DealID:       string(e.DealID),
		OriginalUSD:  e.OriginalUSD.String(),
		RecoveredUSD: e.RecoveredUSD.String(),
		RemainingUSD: e.RemainingUSD().String(),
		Status:       string(e.Status),
		OpenedAt:     e.OpenedAt.String(),
		UpdatedAt:    e.UpdatedAt.String(),
	}
}

func statementDTO(st *engine.Statement) *StatementDTO {
	dto := &StatementDTO{
		EmployeeID:      string(st.EmployeeID),
		Month:           st.Month.String(),
		VariableOTEUSD:  st.VariableOTEUSD.String(),
		TargetIsBlended: st.TargetIsBlended,
		Totals: SummaryDTO{
			GrossUSD:             st.Totals.GrossUSD.String(),
			PaidNowUSD:           st.Totals.PaidNowUSD.String(),
			HeldForCollectionUSD: st.Totals.HeldForCollectionUSD.String(),
			HeldForYearEndUSD:    st.Totals.HeldForYearEndUSD.String(),
		},
	}
	for _, c := range st.Components {
		dto.Components = append(dto.Components, componentDTO(c))
	}
	for _, a := range st.PoolAllocations {
		dto.PoolAllocations = append(dto.PoolAllocations, allocationDTO(a))
	}
	for _, m := range st.LedgerMutations {
		dto.LedgerMutations = append(dto.LedgerMutations, MutationDTO{
			Type:      string(m.Type),
			AmountUSD: m.AmountUSD.String(),
			Entry:     ledgerEntryDTO(m.Entry),
		})
	}
	return dto
}
