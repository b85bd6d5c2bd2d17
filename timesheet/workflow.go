package timesheet

import (
	"fmt"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// APPROVAL WORKFLOW - Owned outside the core, mirrored here for adapters
// =============================================================================

var transitions = map[Status][]Status{
	StatusNew:           {StatusSubmitted},
	StatusSubmitted:     {StatusApproved, StatusNeedsApproval},
	StatusNeedsApproval: {StatusSubmitted, StatusApproved},
	StatusApproved:      {StatusSubmitted},
}

// CanTransition reports whether the workflow allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// AuditAction names a transition for the audit trail.
func AuditAction(from, to Status) generic.AuditAction {
	switch {
	case to == StatusApproved:
		return generic.AuditTimesheetApproved
	case to == StatusNeedsApproval:
		return generic.AuditTimesheetReturned
	case from == StatusApproved && to == StatusSubmitted:
		return generic.AuditTimesheetReopened
	}
	return generic.AuditTimesheetSubmitted
}

// IsReviewStep reports whether moving to next is a reviewer's decision
// rather than the owner's submission.
func IsReviewStep(from, next Status) bool {
	return next == StatusApproved || next == StatusNeedsApproval || from == StatusApproved
}

// CanReview reports whether a reviewer may approve, return or reopen a sheet
// owned by someone with the given role. Admins review everyone; support
// reviews trainees only.
func CanReview(reviewer, owner Role) bool {
	switch reviewer {
	case RoleAdmin:
		return true
	case RoleSupport:
		return owner == RoleTrainee
	}
	return false
}

// PayPeriodLocked derives the lock flag for a week from the confirmed periods.
func PayPeriodLocked(weekStart generic.TimePoint, confirmed []generic.PayPeriod) bool {
	_, locked := generic.LockedBy(weekStart, confirmed)
	return locked
}

// Transition validates and applies a workflow step. A sheet in a confirmed
// pay period never moves again.
func (s *Store) Transition(next Status) error {
	if s.sheet.PayPeriodLocked {
		return &generic.ReadOnlyError{Operation: "transition", Reason: "pay period locked"}
	}
	if !s.sheet.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", generic.ErrInvalidTransition, s.sheet.Status, next)
	}
	return s.SetStatus(next)
}
