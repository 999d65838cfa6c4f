/*
simulate.go - What-if payout simulation and demo scenario loaders

PURPOSE:
  Two dev-facing surfaces. The simulation endpoint answers "what would
  this metric pay at X% achievement" without touching stored data, which
  comp admins use to sanity-check a grid before publishing a plan. The
  scenario loaders populate the store with realistic data for testing
  and demos.

SIMULATION:
  POST /api/simulate
  {
    "plan_id": "ae-ent-2026",
    "metric": "software_bookings",
    "target_bonus_usd": "20000",
    "achievement_pcts": ["50", "100", "120", "175"]
  }
  Returns one payout line per achievement point, computed with the same
  marginal walk the real runs use.

AVAILABLE SCENARIOS:
  enterprise-team:  AE + services lead + sales head with deals, rates,
                    collections, and a mid-year target change
  single-rep:       One AE with a handful of deals, simplest case

HOW SCENARIOS WORK:
 1. Create plans from presets
 2. Create employees and target segments
 3. Record deals with participants
 4. Record market rates and collection statuses

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "enterprise-team"}

NOTE:
  Scenarios write directly to the store. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: Main API handlers
  - plans/plans.go: Plan presets the scenarios load
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/plans"
)

// =============================================================================
// WHAT-IF SIMULATION
// =============================================================================

// SimulateRequest asks what a metric would pay across achievement points.
type SimulateRequest struct {
	PlanID          string   `json:"plan_id" validate:"required"`
	Metric          string   `json:"metric" validate:"required"`
	TargetBonusUSD  string   `json:"target_bonus_usd" validate:"required"`
	AchievementPcts []string `json:"achievement_pcts" validate:"min=1"`
}

// SimulatePoint is one simulated payout line.
type SimulatePoint struct {
	AchievementPct      string `json:"achievement_pct"`
	AllocationUSD       string `json:"allocation_usd"`
	GrossUSD            string `json:"gross_usd"`
	EffectiveMultiplier string `json:"effective_multiplier"`
	Gated               bool   `json:"gated"`
}

// Simulate computes the marginal payout for a metric at each requested
// achievement point. Nothing is persisted.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.Store.GetPlan(r.Context(), engine.PlanID(req.PlanID))
	if err != nil {
		writeDomainError(w, "Failed to get plan", err)
		return
	}
	metric := plan.Metric(engine.MetricName(req.Metric))
	if metric == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Plan has no metric %q", req.Metric), nil)
		return
	}
	targetBonus, err := decimal.NewFromString(req.TargetBonusUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_bonus_usd", err)
		return
	}

	allocation := targetBonus.Mul(metric.WeightagePct).Div(decimal.NewFromInt(100))
	spec := engine.SpecForMetric(*metric)

	points := make([]SimulatePoint, 0, len(req.AchievementPcts))
	for _, raw := range req.AchievementPcts {
		achievement, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid achievement %q", raw), err)
			return
		}
		res := spec.MarginalPayout(achievement, allocation)
		points = append(points, SimulatePoint{
			AchievementPct:      achievement.String(),
			AllocationUSD:       allocation.String(),
			GrossUSD:            res.GrossUSD.Round(2).String(),
			EffectiveMultiplier: res.EffectiveMultiplier.Round(4).String(),
			Gated:               spec.Gated(achievement),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id": req.PlanID,
		"metric":  req.Metric,
		"points":  points,
	})
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "single-rep",
		Name:        "Single Rep",
		Description: "One AE with a software deal and a managed-services deal",
	},
	{
		ID:          "enterprise-team",
		Name:        "Enterprise Team",
		Description: "AE, services lead, and sales head with shared deals, INR rates, and a mid-year target change",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "single-rep":
		err = h.loadSingleRepScenario(ctx)
	case "enterprise-team":
		err = h.loadEnterpriseTeamScenario(ctx)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]any{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSingleRepScenario(ctx context.Context) error {
	plan := plans.EnterpriseAEPlan("ae-ent-2026", 2026)
	if err := h.Store.SavePlan(ctx, plan); err != nil {
		return err
	}

	alice := engine.Employee{
		ID:            "emp-alice",
		Name:          "Alice Carter",
		Currency:      engine.CurrencyUSD,
		CompRateToUSD: decimal.NewFromInt(1),
		PlanID:        plan.ID,
	}
	if err := h.Store.SaveEmployee(ctx, alice); err != nil {
		return err
	}
	if err := h.Store.SaveSegment(ctx, engine.TargetSegment{
		EmployeeID:     alice.ID,
		PlanID:         plan.ID,
		TargetBonusUSD: decimal.NewFromInt(20_000),
		EffectiveStart: engine.StartOfYear(2026),
		EffectiveEnd:   engine.EndOfYear(2026),
	}); err != nil {
		return err
	}

	deals := []engine.Deal{
		{
			ID:             "deal-acme-sw",
			Name:           "Acme platform subscription",
			Type:           engine.DealNewSoftware,
			ValueUSD:       decimal.NewFromInt(500_000),
			TCVUSD:         decimal.NewFromInt(500_000),
			GrossMarginPct: decimal.NewFromInt(70),
			BookingMonth:   engine.NewYearMonth(2026, 3),
			Participants: []engine.Participant{
				{EmployeeID: alice.ID, Role: engine.RolePrimaryRep, SplitPct: decimal.NewFromInt(100)},
			},
		},
		{
			ID:             "deal-acme-ms",
			Name:           "Acme managed operations",
			Type:           engine.DealManagedServices,
			ValueUSD:       decimal.NewFromInt(120_000),
			TCVUSD:         decimal.NewFromInt(240_000),
			GrossMarginPct: decimal.NewFromInt(35),
			BookingMonth:   engine.NewYearMonth(2026, 4),
			Participants: []engine.Participant{
				{EmployeeID: alice.ID, Role: engine.RolePrimaryRep, SplitPct: decimal.NewFromInt(100)},
			},
		},
	}
	for _, d := range deals {
		if err := h.Store.SaveDeal(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadEnterpriseTeamScenario(ctx context.Context) error {
	aePlan := plans.EnterpriseAEPlan("ae-ent-2026", 2026)
	leadPlan := plans.ServicesLeadPlan("svc-lead-2026", 2026)
	headPlan := plans.SalesHeadPlan("sales-head-2026", 2026)
	for _, p := range []*engine.CompPlan{aePlan, leadPlan, headPlan} {
		if err := h.Store.SavePlan(ctx, p); err != nil {
			return err
		}
	}

	employees := []engine.Employee{
		{ID: "emp-ravi", Name: "Ravi Menon", Currency: "INR",
			CompRateToUSD: decimal.NewFromFloat(83.5), PlanID: aePlan.ID},
		{ID: "emp-meera", Name: "Meera Joshi", Currency: "INR",
			CompRateToUSD: decimal.NewFromFloat(83.5), PlanID: leadPlan.ID},
		{ID: "emp-dan", Name: "Dan Whitfield", Currency: engine.CurrencyUSD,
			CompRateToUSD: decimal.NewFromInt(1), PlanID: headPlan.ID},
	}
	for _, e := range employees {
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	// Ravi's target changes mid-year; the July run will blend.
	segments := []engine.TargetSegment{
		{EmployeeID: "emp-ravi", PlanID: aePlan.ID,
			TargetBonusUSD: decimal.NewFromInt(20_000),
			EffectiveStart: engine.StartOfYear(2026),
			EffectiveEnd:   engine.NewTimePoint(2026, 5, 31)},
		{EmployeeID: "emp-ravi", PlanID: aePlan.ID,
			TargetBonusUSD: decimal.NewFromInt(24_000),
			EffectiveStart: engine.NewTimePoint(2026, 6, 1),
			EffectiveEnd:   engine.EndOfYear(2026)},
		{EmployeeID: "emp-meera", PlanID: leadPlan.ID,
			TargetBonusUSD: decimal.NewFromInt(15_000),
			EffectiveStart: engine.StartOfYear(2026),
			EffectiveEnd:   engine.EndOfYear(2026)},
		{EmployeeID: "emp-dan", PlanID: headPlan.ID,
			TargetBonusUSD: decimal.NewFromInt(60_000),
			EffectiveStart: engine.StartOfYear(2026),
			EffectiveEnd:   engine.EndOfYear(2026)},
	}
	for _, s := range segments {
		if err := h.Store.SaveSegment(ctx, s); err != nil {
			return err
		}
	}

	for month := 1; month <= 12; month++ {
		rate := decimal.NewFromFloat(82.0).Add(decimal.NewFromFloat(0.25).Mul(decimal.NewFromInt(int64(month))))
		if err := h.Store.SaveRate(ctx, "INR", engine.NewYearMonth(2026, time.Month(month)), rate); err != nil {
			return err
		}
	}

	team := []engine.Participant{
		{EmployeeID: "emp-ravi", Role: engine.RolePrimaryRep, SplitPct: decimal.NewFromInt(100)},
		{EmployeeID: "emp-meera", Role: engine.RoleDeliveryLead, SplitPct: decimal.NewFromInt(60)},
		{EmployeeID: "emp-dan", Role: engine.RoleSalesHead, SplitPct: decimal.NewFromInt(40)},
	}
	deals := []engine.Deal{
		{
			ID:             "deal-globex-sw",
			Name:           "Globex core platform",
			Type:           engine.DealNewSoftware,
			ValueUSD:       decimal.NewFromInt(500_000),
			TCVUSD:         decimal.NewFromInt(500_000),
			GrossMarginPct: decimal.NewFromInt(68),
			BookingMonth:   engine.NewYearMonth(2026, 2),
			Participants:   team,
		},
		{
			ID:             "deal-globex-cr",
			Name:           "Globex change request bundle",
			Type:           engine.DealChangeRequest,
			ValueUSD:       decimal.NewFromInt(80_000),
			TCVUSD:         decimal.NewFromInt(80_000),
			GrossMarginPct: decimal.NewFromInt(65),
			BookingMonth:   engine.NewYearMonth(2026, 5),
			Participants:   team,
		},
		{
			ID:             "deal-globex-impl",
			Name:           "Globex rollout implementation",
			Type:           engine.DealImplementation,
			ValueUSD:       decimal.NewFromInt(40_000),
			TCVUSD:         decimal.NewFromInt(40_000),
			GrossMarginPct: decimal.NewFromInt(35),
			BookingMonth:   engine.NewYearMonth(2026, 6),
			Participants:   team,
		},
	}
	for _, d := range deals {
		if err := h.Store.SaveDeal(ctx, d); err != nil {
			return err
		}
	}

	// The software deal is half collected and past its milestone.
	collectedAt := engine.NewTimePoint(2026, 6, 15)
	return h.Store.UpsertCollection(ctx, engine.CollectionStatus{
		DealID:       "deal-globex-sw",
		CollectedUSD: decimal.NewFromInt(250_000),
		CollectedAt:  &collectedAt,
		MilestoneDue: engine.NewTimePoint(2026, 5, 31),
	})
}
