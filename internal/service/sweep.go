package service

import (
	"context"
	"fmt"
	"log"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"
)

// LockRef points at one lockable.
type LockRef struct {
	Kind models.LockableKind `json:"kind"`
	ID   uint                `json:"id"`
}

// SweepReport lists what one sweep did.
type SweepReport struct {
	Locked  []LockRef `json:"locked"`
	Skipped []LockRef `json:"skipped,omitempty"`
}

// Sweep auto-locks every overdue item that is not done and not yet locked:
// tasks past their due date and open files of checklists past theirs.
// Running it twice locks nothing new.
func (e *Engine) Sweep(ctx context.Context) (*SweepReport, error) {
	// sqlite compares timestamps as text, so both sides must share a zone
	now := e.now().UTC()
	tx := e.db.WithContext(ctx)

	var candidates []LockRef

	var taskIDs []uint
	if err := tx.Model(&models.Task{}).
		Where("due_at IS NOT NULL AND due_at < ? AND status <> ? AND is_locked = ?", now, models.TaskDone, false).
		Order("id").
		Pluck("id", &taskIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to find overdue tasks: %w", err)
	}
	for _, id := range taskIDs {
		candidates = append(candidates, LockRef{Kind: models.LockableTask, ID: id})
	}

	var fileIDs []uint
	if err := tx.Model(&models.ChecklistFile{}).
		Joins("JOIN checklist_instances ON checklist_instances.id = checklist_files.instance_id").
		Where("checklist_instances.due_at IS NOT NULL AND checklist_instances.due_at < ?", now).
		Where("checklist_instances.status NOT IN ?", []models.ChecklistStatus{models.ChecklistFinalized, models.ChecklistSuperseded}).
		Where("checklist_files.status NOT IN ? AND checklist_files.is_locked = ?",
			[]models.FileStatus{models.FileVerified, models.FileClosed}, false).
		Order("checklist_files.id").
		Pluck("checklist_files.id", &fileIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to find overdue files: %w", err)
	}
	for _, id := range fileIDs {
		candidates = append(candidates, LockRef{Kind: models.LockableChecklistFile, ID: id})
	}

	report := &SweepReport{Locked: []LockRef{}}
	system := workflow.SystemActor()
	for _, ref := range candidates {
		res, err := e.AutoLock(ctx, system, ref.Kind, ref.ID)
		if err != nil {
			// the item changed between the query and the lock; the next sweep sees it again
			if workflow.KindOf(err) != "" {
				log.Printf("sweep: skipping %s %d: %v", ref.Kind, ref.ID, err)
				report.Skipped = append(report.Skipped, ref)
				continue
			}
			return report, err
		}
		if len(res.Effects) > 0 && res.Effects[0] == workflow.EffectNoop {
			report.Skipped = append(report.Skipped, ref)
			continue
		}
		report.Locked = append(report.Locked, ref)
	}
	return report, nil
}
