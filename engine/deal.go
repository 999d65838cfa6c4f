package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DEAL - Immutable-once-locked record of one transaction
// =============================================================================

type DealType string

const (
	DealNewSoftware      DealType = "new_software"      // new-booking ARR
	DealManagedServices  DealType = "managed_services"
	DealPerpetualLicense DealType = "perpetual_license"
	DealChangeRequest    DealType = "change_request"
	DealEnhancement      DealType = "enhancement"
	DealImplementation   DealType = "implementation"
)

type ParticipantRole string

const (
	RolePrimaryRep        ParticipantRole = "primary_rep"
	RoleSalesHead         ParticipantRole = "sales_head"
	RoleSolutionArchitect ParticipantRole = "solution_architect"
	RoleDeliveryLead      ParticipantRole = "delivery_lead"
	RoleCustomerSuccess   ParticipantRole = "customer_success"
)

// Participant is one employee credited on a deal with a split percentage.
type Participant struct {
	EmployeeID EmployeeID
	Role       ParticipantRole
	SplitPct   decimal.Decimal
}

// Deal records one booked transaction. Once the booking month is closed the
// record is immutable; only its collection status continues to change.
type Deal struct {
	ID             DealID
	Name           string
	Type           DealType
	ValueUSD       decimal.Decimal // ARR for recurring types, contract value otherwise
	TCVUSD         decimal.Decimal
	GrossMarginPct decimal.Decimal
	BookingMonth   YearMonth
	Participants   []Participant
}

// Participant returns the participant record for an employee, or nil.
func (d *Deal) Participant(id EmployeeID) *Participant {
	for i := range d.Participants {
		if d.Participants[i].EmployeeID == id {
			return &d.Participants[i]
		}
	}
	return nil
}

// CommissionType maps deal types to the commission they earn. Deal types
// outside the commissionable set return false.
func (d *Deal) CommissionType() (CommissionType, bool) {
	switch d.Type {
	case DealNewSoftware:
		return CommissionNewSoftware, true
	case DealManagedServices:
		return CommissionManagedServices, true
	case DealPerpetualLicense:
		return CommissionPerpetualLicense, true
	default:
		return "", false
	}
}

// =============================================================================
// COLLECTION STATUS - Mutable cash-receipt state, one per deal
// =============================================================================

// CollectionStatus tracks cash received against a deal. It is the only
// mutable companion of a Deal, and mutations are rejected once the month
// being touched is locked.
type CollectionStatus struct {
	DealID       DealID
	CollectedUSD decimal.Decimal
	CollectedAt  *TimePoint
	MilestoneDue TimePoint
}

// FullyCollected reports whether the whole deal value has been received.
func (cs CollectionStatus) FullyCollected(dealValueUSD decimal.Decimal) bool {
	return !cs.CollectedUSD.LessThan(dealValueUSD)
}

// Overdue reports whether uncollected value remains past the milestone due
// date. An overdue deal triggers a clawback hold on non-exempt plans.
func (cs CollectionStatus) Overdue(dealValueUSD decimal.Decimal, asOf TimePoint) bool {
	return !cs.FullyCollected(dealValueUSD) && asOf.After(cs.MilestoneDue)
}
