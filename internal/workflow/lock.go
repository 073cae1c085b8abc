package workflow

import (
	"fmt"
	"strings"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
)

// LockContext provides context for lock guards.
type LockContext struct {
	Kind     models.LockableKind
	ID       uint
	IsLocked bool
	Done     bool // task done, or file verified/closed
	Overdue  bool
}

func (c LockContext) label() string {
	return fmt.Sprintf("%s %d", c.Kind, c.ID)
}

// CanAutoLock evaluates the scheduler lock. An already locked item is
// skipped, never an error.
// Rules:
// - item must be overdue
// - item must not be done
func CanAutoLock(ctx LockContext) (result GuardResult, skip bool) {
	if ctx.IsLocked {
		return allow(), true
	}
	if ctx.Done {
		return deny(KindInvalidState, fmt.Sprintf("%s is already done", ctx.label())), false
	}
	if !ctx.Overdue {
		return deny(KindInvalidState, fmt.Sprintf("%s is not past its due date", ctx.label())), false
	}
	return allow(), false
}

// CanManualLock evaluates an administrator lock.
// Rules:
// - item must not be locked
// - item must not be done/verified
func CanManualLock(ctx LockContext) GuardResult {
	if ctx.IsLocked {
		return deny(KindInvalidState, fmt.Sprintf("%s is already locked", ctx.label()))
	}
	if ctx.Done {
		return deny(KindInvalidState, fmt.Sprintf("%s is done and cannot be locked", ctx.label()))
	}
	return allow()
}

// UnlockRequestContext provides context for the request-unlock guard.
type UnlockRequestContext struct {
	LockContext
	HasPending bool
	Reason     string
}

// CanRequestUnlock evaluates a new unlock request.
// Rules:
// - a reason is required
// - item must be locked
// - at most one pending request per item
func CanRequestUnlock(ctx UnlockRequestContext) GuardResult {
	if strings.TrimSpace(ctx.Reason) == "" {
		return deny(KindValidationFailed, "unlock request requires a reason")
	}
	if !ctx.IsLocked {
		return deny(KindInvalidState, fmt.Sprintf("%s is not locked", ctx.label()))
	}
	if ctx.HasPending {
		return deny(KindDuplicatePending, fmt.Sprintf("%s already has a pending unlock request", ctx.label()))
	}
	return allow()
}

// UnlockDecision is an administrator's answer to an unlock request.
type UnlockDecision string

const (
	UnlockApprove UnlockDecision = "approve"
	UnlockReject  UnlockDecision = "reject"
)

// CanReviewUnlock evaluates a decision on an unlock request.
// Rules:
// - decision must be approve or reject
// - reject requires a review note
// - request must still be pending
func CanReviewUnlock(status models.UnlockStatus, decision UnlockDecision, note string) GuardResult {
	switch decision {
	case UnlockApprove:
	case UnlockReject:
		if strings.TrimSpace(note) == "" {
			return deny(KindValidationFailed, "rejecting an unlock request requires a review note")
		}
	default:
		return deny(KindValidationFailed, fmt.Sprintf("unknown decision %q", decision))
	}
	if status != models.UnlockPending {
		return deny(KindInvalidState, fmt.Sprintf("unlock request is already %s", status))
	}
	return allow()
}

// CanDirectUnlock evaluates the administrative bypass.
func CanDirectUnlock(ctx LockContext) GuardResult {
	if !ctx.IsLocked {
		return deny(KindInvalidState, fmt.Sprintf("%s is not locked", ctx.label()))
	}
	return allow()
}

// CanModifyLocked rejects any content change to a locked item.
func CanModifyLocked(ctx LockContext) GuardResult {
	if ctx.IsLocked {
		return deny(KindInvalidState, fmt.Sprintf("%s is locked", ctx.label()))
	}
	return allow()
}
