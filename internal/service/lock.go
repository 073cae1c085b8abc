package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

// LockResult is the lock state of one lockable after a lock operation.
type LockResult struct {
	Kind    models.LockableKind   `json:"kind"`
	ID      uint                  `json:"id"`
	Lock    models.LockState      `json:"lock"`
	Request *models.UnlockRequest `json:"request,omitempty"`
	Effects []workflow.Effect     `json:"effects,omitempty"`
}

type UnlockReviewInput struct {
	Decision workflow.UnlockDecision `json:"decision"`
	Note     string                  `json:"note"`
}

type UnlockFilter struct {
	Status models.UnlockStatus
	Kind   models.LockableKind
	ID     uint
}

// lockable is the part of a Task or ChecklistFile the lock manager works on.
type lockable struct {
	kind     models.LockableKind
	id       uint
	revision int
	state    models.LockState
	done     bool
	dueAt    *time.Time
}

func (l *lockable) model() any {
	if l.kind == models.LockableTask {
		return &models.Task{}
	}
	return &models.ChecklistFile{}
}

func (l *lockable) lockContext(now time.Time) workflow.LockContext {
	return workflow.LockContext{
		Kind:     l.kind,
		ID:       l.id,
		IsLocked: l.state.IsLocked,
		Done:     l.done,
		Overdue:  l.dueAt != nil && now.After(*l.dueAt),
	}
}

func loadLockable(tx *gorm.DB, kind models.LockableKind, id uint) (*lockable, error) {
	switch kind {
	case models.LockableTask:
		var t models.Task
		if err := load(tx, &t, id, "task"); err != nil {
			return nil, err
		}
		return &lockable{
			kind:     kind,
			id:       t.ID,
			revision: t.Revision,
			state:    t.LockState,
			done:     t.Status == models.TaskDone,
			dueAt:    t.DueAt,
		}, nil
	case models.LockableChecklistFile:
		var f models.ChecklistFile
		if err := load(tx, &f, id, "checklist file"); err != nil {
			return nil, err
		}
		var inst models.ChecklistInstance
		if err := load(tx, &inst, f.InstanceID, "checklist"); err != nil {
			return nil, err
		}
		return &lockable{
			kind:     kind,
			id:       f.ID,
			revision: f.Revision,
			state:    f.LockState,
			done:     f.Status == models.FileVerified || f.Status == models.FileClosed,
			dueAt:    inst.DueAt,
		}, nil
	}
	return nil, workflow.ValidationFailed("unknown lockable kind %q", kind)
}

// setLock flips the lock and bumps the lockable's revision.
func (l *lockable) setLock(tx *gorm.DB, locked bool, by *uint, source models.LockSource, now time.Time) error {
	updates := map[string]any{
		"is_locked":    false,
		"locked_at":    nil,
		"locked_by_id": nil,
		"lock_source":  "",
	}
	if locked {
		updates["is_locked"] = true
		updates["locked_at"] = now
		updates["locked_by_id"] = by
		updates["lock_source"] = source
	}
	if err := guarded(tx, l.model(), string(l.kind), l.id, l.revision, updates); err != nil {
		return err
	}
	l.revision++
	return l.reload(tx)
}

func (l *lockable) reload(tx *gorm.DB) error {
	fresh, err := loadLockable(tx, l.kind, l.id)
	if err != nil {
		return err
	}
	*l = *fresh
	return nil
}

func (l *lockable) result(req *models.UnlockRequest, effects ...workflow.Effect) *LockResult {
	return &LockResult{Kind: l.kind, ID: l.id, Lock: l.state, Request: req, Effects: effects}
}

func pendingUnlock(tx *gorm.DB, kind models.LockableKind, id uint) (*models.UnlockRequest, error) {
	var req models.UnlockRequest
	res := tx.Where("lockable_kind = ? AND lockable_id = ? AND status = ?", kind, id, models.UnlockPending).
		Limit(1).Find(&req)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &req, nil
}

// closePendingUnlocks resolves any pending request for a lockable.
func closePendingUnlocks(tx *gorm.DB, actor workflow.Actor, kind models.LockableKind, id uint, status models.UnlockStatus, note string, now time.Time) error {
	return tx.Model(&models.UnlockRequest{}).
		Where("lockable_kind = ? AND lockable_id = ? AND status = ?", kind, id, models.UnlockPending).
		Updates(map[string]any{
			"status":         status,
			"review_note":    note,
			"reviewed_by_id": uintPtr(actor.UserID),
			"reviewed_at":    now,
		}).Error
}

// AutoLock locks an overdue item that is not done yet. Locking an item that
// is already locked is a no-op.
func (e *Engine) AutoLock(ctx context.Context, actor workflow.Actor, kind models.LockableKind, id uint) (*LockResult, error) {
	if err := actor.Authorize(authz.OpLockAuto); err != nil {
		return nil, err
	}

	var out *LockResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		l, err := loadLockable(tx, kind, id)
		if err != nil {
			return err
		}
		now := e.now()
		g, skip := workflow.CanAutoLock(l.lockContext(now))
		if skip {
			out = l.result(nil, workflow.EffectNoop)
			return nil
		}
		if !g.Allowed {
			return g.Err().WithCurrent(l.state)
		}
		if err := l.setLock(tx, true, uintPtr(actor.UserID), models.LockAuto, now); err != nil {
			return err
		}
		out = l.result(nil)
		return audit(tx, actor, string(kind), id, "auto_lock", "locked after due date passed")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ManualLock is the administrator lock.
func (e *Engine) ManualLock(ctx context.Context, actor workflow.Actor, kind models.LockableKind, id uint) (*LockResult, error) {
	if err := actor.Authorize(authz.OpLockManual); err != nil {
		return nil, err
	}

	var out *LockResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		l, err := loadLockable(tx, kind, id)
		if err != nil {
			return err
		}
		now := e.now()
		if g := workflow.CanManualLock(l.lockContext(now)); !g.Allowed {
			return g.Err().WithCurrent(l.state)
		}
		if err := l.setLock(tx, true, uintPtr(actor.UserID), models.LockManual, now); err != nil {
			return err
		}
		out = l.result(nil)
		return audit(tx, actor, string(kind), id, "manual_lock", "locked by administrator")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestUnlock opens an unlock request. Only one request per item may be
// pending at a time.
func (e *Engine) RequestUnlock(ctx context.Context, actor workflow.Actor, kind models.LockableKind, id uint, reason string) (*models.UnlockRequest, error) {
	if err := actor.Authorize(authz.OpUnlockRequest); err != nil {
		return nil, err
	}

	var req models.UnlockRequest
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		l, err := loadLockable(tx, kind, id)
		if err != nil {
			return err
		}
		pending, err := pendingUnlock(tx, kind, id)
		if err != nil {
			return err
		}
		g := workflow.CanRequestUnlock(workflow.UnlockRequestContext{
			LockContext: l.lockContext(e.now()),
			HasPending:  pending != nil,
			Reason:      reason,
		})
		if !g.Allowed {
			if pending != nil {
				return g.Err().WithCurrent(pending)
			}
			return g.Err().WithCurrent(l.state)
		}

		// claim the lockable so a racing request cannot also pass the check
		if err := guarded(tx, l.model(), string(kind), id, l.revision, map[string]any{}); err != nil {
			if p, perr := pendingUnlock(tx, kind, id); perr == nil && p != nil {
				return workflow.DuplicatePending("%s %d already has a pending unlock request", kind, id).WithCurrent(p)
			}
			return err
		}

		req = models.UnlockRequest{
			LockableKind:  kind,
			LockableID:    id,
			Reason:        reason,
			RequestedByID: actor.UserID,
			Status:        models.UnlockPending,
		}
		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("failed to create unlock request: %w", err)
		}
		return audit(tx, actor, string(kind), id, "request_unlock", reason)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ReviewUnlockRequest decides a pending request. Approval clears the lock in
// the same transaction as the request update; rejection keeps the lock.
func (e *Engine) ReviewUnlockRequest(ctx context.Context, actor workflow.Actor, requestID uint, in UnlockReviewInput) (*LockResult, error) {
	if err := actor.Authorize(authz.OpUnlockReview); err != nil {
		return nil, err
	}

	var out *LockResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var req models.UnlockRequest
		if err := load(tx, &req, requestID, "unlock request"); err != nil {
			return err
		}
		var err error
		out, err = e.reviewUnlock(tx, actor, &req, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewPendingUnlock decides the pending request of a lockable.
func (e *Engine) ReviewPendingUnlock(ctx context.Context, actor workflow.Actor, kind models.LockableKind, id uint, in UnlockReviewInput) (*LockResult, error) {
	if err := actor.Authorize(authz.OpUnlockReview); err != nil {
		return nil, err
	}

	var out *LockResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := loadLockable(tx, kind, id); err != nil {
			return err
		}
		req, err := pendingUnlock(tx, kind, id)
		if err != nil {
			return err
		}
		if req == nil {
			return workflow.NotFound("%s %d has no pending unlock request", kind, id)
		}
		out, err = e.reviewUnlock(tx, actor, req, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) reviewUnlock(tx *gorm.DB, actor workflow.Actor, req *models.UnlockRequest, in UnlockReviewInput) (*LockResult, error) {
	if g := workflow.CanReviewUnlock(req.Status, in.Decision, in.Note); !g.Allowed {
		return nil, g.Err().WithCurrent(req)
	}

	l, err := loadLockable(tx, req.LockableKind, req.LockableID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	status := models.UnlockRejected
	if in.Decision == workflow.UnlockApprove {
		status = models.UnlockApproved
	}
	res := tx.Model(&models.UnlockRequest{}).
		Where("id = ? AND status = ?", req.ID, models.UnlockPending).
		Updates(map[string]any{
			"status":         status,
			"review_note":    stringPtr(in.Note),
			"reviewed_by_id": uintPtr(actor.UserID),
			"reviewed_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, workflow.ConcurrentModification("unlock request %d was decided concurrently", req.ID)
	}

	if status == models.UnlockApproved && l.state.IsLocked {
		if err := l.setLock(tx, false, nil, "", now); err != nil {
			return nil, err
		}
	}
	if err := tx.First(req, req.ID).Error; err != nil {
		return nil, err
	}
	if err := audit(tx, actor, string(l.kind), l.id, "review_unlock", string(status)); err != nil {
		return nil, err
	}
	return l.result(req, workflow.EffectUnlockRequestClosed), nil
}

// DirectUnlock is the administrative bypass. A pending request for the item
// is resolved as approved so the lock and the request never disagree.
func (e *Engine) DirectUnlock(ctx context.Context, actor workflow.Actor, kind models.LockableKind, id uint) (*LockResult, error) {
	if err := actor.Authorize(authz.OpUnlockDirect); err != nil {
		return nil, err
	}

	var out *LockResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		l, err := loadLockable(tx, kind, id)
		if err != nil {
			return err
		}
		now := e.now()
		if g := workflow.CanDirectUnlock(l.lockContext(now)); !g.Allowed {
			return g.Err().WithCurrent(l.state)
		}

		pending, err := pendingUnlock(tx, kind, id)
		if err != nil {
			return err
		}
		if err := l.setLock(tx, false, nil, "", now); err != nil {
			return err
		}
		out = l.result(nil)
		if pending != nil {
			if err := closePendingUnlocks(tx, actor, kind, id, models.UnlockApproved, "unlocked directly", now); err != nil {
				return err
			}
			if err := tx.First(pending, pending.ID).Error; err != nil {
				return err
			}
			out = l.result(pending, workflow.EffectUnlockRequestClosed)
		}
		return audit(tx, actor, string(kind), id, "direct_unlock", "unlocked by administrator")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) ListUnlockRequests(ctx context.Context, f UnlockFilter) ([]models.UnlockRequest, error) {
	q := e.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("lockable_kind = ?", f.Kind)
	}
	if f.ID != 0 {
		q = q.Where("lockable_id = ?", f.ID)
	}
	var out []models.UnlockRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list unlock requests: %w", err)
	}
	return out, nil
}

// GetLock returns the current lock state of a lockable and its pending request.
func (e *Engine) GetLock(ctx context.Context, kind models.LockableKind, id uint) (*LockResult, error) {
	tx := e.db.WithContext(ctx)
	l, err := loadLockable(tx, kind, id)
	if err != nil {
		return nil, err
	}
	pending, err := pendingUnlock(tx, kind, id)
	if err != nil {
		return nil, err
	}
	return l.result(pending), nil
}
