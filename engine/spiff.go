/*
spiff.go - SPIFF bonus calculators

PURPOSE:
  Two bonus shapes tied to deal size:

  LARGE-DEAL SPIFF:
    software variable OTE = variable OTE x linked metric weightage / 100
    payout = software OTE x (eligible ARR / software target) x rate / 100
    Only deals at or above the configured minimum count - cliff semantics,
    same as commissions. No minimum means every deal of the linked metric
    qualifies.

  DEAL-TEAM POOL:
    A fixed USD pool per qualifying deal, divided among participants whose
    role is NOT in the plan's commissioned role list (the primary rep and
    sales head already earn commission on the deal). Each allocation needs
    review: entries start pending and either become approved (terminal) or
    stay pending indefinitely. There is no rejection transition.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LARGE-DEAL SPIFF
// =============================================================================

type SpiffResult struct {
	Name            string
	EligibleARRUSD  decimal.Decimal
	GrossUSD        decimal.Decimal
	EligibleDealIDs []DealID
	Exclusions      []Exclusion
}

// EvaluateLargeDealSpiff computes the large-deal bonus over the linked
// metric's deals. softwareTargetUSD is the linked metric's annual target;
// a zero target pays nothing.
func EvaluateLargeDealSpiff(
	spiff PlanSpiff,
	linkedWeightagePct decimal.Decimal,
	variableOTEUSD decimal.Decimal,
	softwareTargetUSD decimal.Decimal,
	deals []Deal,
) SpiffResult {
	res := SpiffResult{
		Name:           spiff.Name,
		EligibleARRUSD: decimal.Zero,
		GrossUSD:       decimal.Zero,
	}

	for _, d := range deals {
		if spiff.MinDealValueUSD != nil && d.ValueUSD.LessThan(*spiff.MinDealValueUSD) {
			res.Exclusions = append(res.Exclusions, Exclusion{
				DealID: d.ID,
				Reason: ExcludedBelowMinValue,
				Detail: fmt.Sprintf("deal ARR %s below minimum %s", d.ValueUSD, *spiff.MinDealValueUSD),
			})
			continue
		}
		res.EligibleARRUSD = res.EligibleARRUSD.Add(d.ValueUSD)
		res.EligibleDealIDs = append(res.EligibleDealIDs, d.ID)
	}

	if !softwareTargetUSD.IsPositive() || res.EligibleARRUSD.IsZero() {
		return res
	}

	softwareOTE := variableOTEUSD.Mul(linkedWeightagePct).Div(hundred)
	res.GrossUSD = softwareOTE.
		Mul(res.EligibleARRUSD).Div(softwareTargetUSD).
		Mul(spiff.RatePct).Div(hundred)
	return res
}

// =============================================================================
// DEAL-TEAM POOL SPIFF
// =============================================================================

type ApprovalState string

const (
	AllocationPending  ApprovalState = "pending"
	AllocationApproved ApprovalState = "approved" // terminal
)

// NewAllocationID derives the allocation identity from its natural key.
// The same spiff, deal, and participant always map to the same ID, so
// recomputing an unlocked month upserts rather than appends.
func NewAllocationID(spiff string, deal DealID, employee EmployeeID) AllocationID {
	return AllocationID(stableID("allocation", spiff, string(deal), string(employee)))
}

// PoolAllocation is one participant's share of a deal-team pool. Created
// pending; approval is the only transition and it is terminal.
type PoolAllocation struct {
	ID         AllocationID
	SpiffName  string
	DealID     DealID
	EmployeeID EmployeeID
	Role       ParticipantRole
	AmountUSD  decimal.Decimal
	State      ApprovalState
	CreatedAt  TimePoint
	ApprovedAt *TimePoint
	ApprovedBy string
}

// Approve marks the allocation approved. Approving twice is rejected.
func (a *PoolAllocation) Approve(by string, at TimePoint) error {
	if a.State == AllocationApproved {
		return fmt.Errorf("allocation %s already approved", a.ID)
	}
	a.State = AllocationApproved
	a.ApprovedAt = &at
	a.ApprovedBy = by
	return nil
}

// BuildPoolAllocations splits a spiff's fixed pool for one qualifying deal
// among participants outside the commissioned roles. Shares follow each
// participant's deal split percentage; if the eligible splits sum to zero
// the pool divides equally. The last share takes the rounding remainder so
// the allocations always total the pool exactly.
//
// Returns nil when the deal does not qualify or no participant is eligible.
func BuildPoolAllocations(spiff PlanSpiff, plan *CompPlan, deal Deal, at TimePoint) []PoolAllocation {
	if spiff.Kind != SpiffDealTeamPool {
		return nil
	}
	if spiff.MinDealValueUSD != nil && deal.ValueUSD.LessThan(*spiff.MinDealValueUSD) {
		return nil
	}

	excluded := make(map[ParticipantRole]bool, len(plan.CommissionedRoles))
	for _, r := range plan.CommissionedRoles {
		excluded[r] = true
	}

	var eligible []Participant
	splitTotal := decimal.Zero
	for _, p := range deal.Participants {
		if excluded[p.Role] {
			continue
		}
		eligible = append(eligible, p)
		splitTotal = splitTotal.Add(p.SplitPct)
	}
	if len(eligible) == 0 || spiff.PoolUSD.IsZero() {
		return nil
	}

	equal := !splitTotal.IsPositive()
	n := decimal.NewFromInt(int64(len(eligible)))

	allocations := make([]PoolAllocation, 0, len(eligible))
	allocated := decimal.Zero
	for i, p := range eligible {
		var share decimal.Decimal
		if i == len(eligible)-1 {
			share = spiff.PoolUSD.Sub(allocated)
		} else if equal {
			share = spiff.PoolUSD.Div(n).Round(2)
		} else {
			share = spiff.PoolUSD.Mul(p.SplitPct).Div(splitTotal).Round(2)
		}
		allocated = allocated.Add(share)

		allocations = append(allocations, PoolAllocation{
			ID:         NewAllocationID(spiff.Name, deal.ID, p.EmployeeID),
			SpiffName:  spiff.Name,
			DealID:     deal.ID,
			EmployeeID: p.EmployeeID,
			Role:       p.Role,
			AmountUSD:  share,
			State:      AllocationPending,
			CreatedAt:  at,
		})
	}
	return allocations
}
