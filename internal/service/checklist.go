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

type ChecklistInput struct {
	ProjectID  uint       `json:"-"`
	TemplateID uint       `json:"template_id"`
	DueAt      *time.Time `json:"due_at"`
}

type VerifyInput struct {
	Decisions    map[uint]models.ItemVerification `json:"decisions"`
	ItemComments map[uint]string                  `json:"item_comments"`
	Comments     string                           `json:"comments"`
}

// ChecklistResult is the state after a checklist transition.
type ChecklistResult struct {
	Checklist models.ChecklistInstance `json:"checklist"`
	Item      *models.ChecklistItem    `json:"item,omitempty"`
	Missing   []string                 `json:"missing,omitempty"`
	Effects   []workflow.Effect        `json:"effects,omitempty"`
}

func withChecklistParts(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Items.Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func loadChecklist(tx *gorm.DB, id uint) (*models.ChecklistInstance, error) {
	var inst models.ChecklistInstance
	if err := load(withChecklistParts(tx), &inst, id, "checklist"); err != nil {
		return nil, err
	}
	return &inst, nil
}

func findItem(inst *models.ChecklistInstance, itemID uint) (*models.ChecklistItem, error) {
	for i := range inst.Items {
		if inst.Items[i].ID == itemID {
			return &inst.Items[i], nil
		}
	}
	return nil, workflow.NotFound("item %d not found in checklist %d", itemID, inst.ID)
}

func itemStates(items []models.ChecklistItem) []workflow.ItemState {
	out := make([]workflow.ItemState, 0, len(items))
	for _, it := range items {
		out = append(out, workflow.ItemState{
			Label:     it.Label,
			Type:      it.Type,
			Mandatory: it.Mandatory,
			Value:     it.Value,
			FileCount: len(it.Files),
		})
	}
	return out
}

func completenessEffects(before, after float64) []workflow.Effect {
	switch {
	case after >= 100:
		return []workflow.Effect{workflow.EffectChecklistComplete}
	case before >= 100:
		return []workflow.Effect{workflow.EffectChecklistIncomplete}
	}
	return nil
}

// CreateChecklist starts a draft checklist for a project from a template's
// fields. Only one non-superseded checklist may exist per project and template.
func (e *Engine) CreateChecklist(ctx context.Context, actor workflow.Actor, in ChecklistInput) (*ChecklistResult, error) {
	if err := actor.Authorize(authz.OpChecklistCreate); err != nil {
		return nil, err
	}

	var out ChecklistResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if err := load(tx, &models.Project{}, in.ProjectID, "project"); err != nil {
			return err
		}
		var tpl models.TemplateFile
		if err := load(withTemplateParts(tx), &tpl, in.TemplateID, "template"); err != nil {
			return err
		}
		if len(tpl.Fields) == 0 {
			return workflow.ValidationFailed("template %d has no fields to fill in", tpl.ID)
		}

		var active models.ChecklistInstance
		res := tx.Where("project_id = ? AND template_id = ? AND status <> ?",
			in.ProjectID, in.TemplateID, models.ChecklistSuperseded).Limit(1).Find(&active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return workflow.InvalidState("project %d already has checklist %d for template %d",
				in.ProjectID, active.ID, in.TemplateID).WithCurrent(active)
		}

		inst := models.ChecklistInstance{
			ProjectID:   in.ProjectID,
			TemplateID:  in.TemplateID,
			Version:     1,
			Status:      models.ChecklistDraft,
			DueAt:       utcPtr(in.DueAt),
			CreatedByID: actor.UserID,
		}
		for _, f := range tpl.Fields {
			inst.Items = append(inst.Items, models.ChecklistItem{
				Position:  f.Position,
				FieldKey:  f.Key,
				Label:     f.Label,
				Type:      f.Type,
				Mandatory: f.Mandatory,
				Options:   f.Options,
			})
		}
		inst.CompletenessPercent, out.Missing = workflow.Completeness(itemStates(inst.Items))

		if err := tx.Create(&inst).Error; err != nil {
			return fmt.Errorf("failed to create checklist: %w", err)
		}
		out.Checklist = inst
		return audit(tx, actor, "checklist", inst.ID, "create",
			fmt.Sprintf("checklist created from template %d", tpl.ID))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem writes one typed field value and recomputes completeness.
func (e *Engine) UpdateItem(ctx context.Context, actor workflow.Actor, instanceID, itemID uint, value string) (*ChecklistResult, error) {
	if err := actor.Authorize(authz.OpChecklistEditItem); err != nil {
		return nil, err
	}

	var out ChecklistResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		inst, err := loadChecklist(tx, instanceID)
		if err != nil {
			return err
		}
		item, err := findItem(inst, itemID)
		if err != nil {
			return err
		}
		if g := workflow.CanEditItems(inst.Status); !g.Allowed {
			return g.Err().WithCurrent(inst)
		}
		if g := workflow.ValidateValue(item.Type, item.Options, value); !g.Allowed {
			return g.Err()
		}

		if err := tx.Model(&models.ChecklistItem{}).Where("id = ?", item.ID).Update("value", value).Error; err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		item.Value = value

		before := inst.CompletenessPercent
		pct, missing := workflow.Completeness(itemStates(inst.Items))
		if err := guarded(tx, &models.ChecklistInstance{}, "checklist", inst.ID, inst.Revision, map[string]any{
			"status":               workflow.StatusAfterEdit(inst.Status),
			"completeness_percent": pct,
		}); err != nil {
			return err
		}

		fresh, err := loadChecklist(tx, inst.ID)
		if err != nil {
			return err
		}
		updated, _ := findItem(fresh, item.ID)
		out = ChecklistResult{Checklist: *fresh, Item: updated, Missing: missing, Effects: completenessEffects(before, pct)}
		return audit(tx, actor, "checklist", inst.ID, "edit_item",
			fmt.Sprintf("item %s set, completeness %.0f%%", item.FieldKey, pct))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitForReview moves a fully completed checklist to verification.
func (e *Engine) SubmitForReview(ctx context.Context, actor workflow.Actor, instanceID uint) (*ChecklistResult, error) {
	if err := actor.Authorize(authz.OpChecklistSubmit); err != nil {
		return nil, err
	}

	var out ChecklistResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		inst, err := loadChecklist(tx, instanceID)
		if err != nil {
			return err
		}
		pct, missing := workflow.Completeness(itemStates(inst.Items))
		g := workflow.CanSubmitForReview(workflow.SubmitContext{Status: inst.Status, Completeness: pct, Missing: missing})
		if !g.Allowed {
			werr := g.Err().WithCurrent(inst)
			werr.Details = missing
			return werr
		}

		if err := guarded(tx, &models.ChecklistInstance{}, "checklist", inst.ID, inst.Revision, map[string]any{
			"status":               models.ChecklistReadyForVerification,
			"completeness_percent": pct,
			"submitted_by_id":      actor.UserID,
			"submitted_at":         e.now(),
		}); err != nil {
			return err
		}
		fresh, err := loadChecklist(tx, inst.ID)
		if err != nil {
			return err
		}
		out.Checklist = *fresh
		return audit(tx, actor, "checklist", inst.ID, "submit_for_review", "checklist submitted for verification")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify records per-item decisions. Items without a decision are accepted;
// any item needing clarification fails the checklist.
func (e *Engine) Verify(ctx context.Context, actor workflow.Actor, instanceID uint, in VerifyInput) (*ChecklistResult, error) {
	if err := actor.Authorize(authz.OpChecklistVerify); err != nil {
		return nil, err
	}

	var out ChecklistResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		inst, err := loadChecklist(tx, instanceID)
		if err != nil {
			return err
		}
		for itemID, d := range in.Decisions {
			if _, err := findItem(inst, itemID); err != nil {
				return workflow.ValidationFailed("item %d is not part of checklist %d", itemID, inst.ID)
			}
			if !workflow.ValidDecision(d) {
				return workflow.ValidationFailed("unknown verification %q for item %d", d, itemID)
			}
		}
		if g := workflow.CanVerify(inst.Status); !g.Allowed {
			return g.Err().WithCurrent(inst)
		}

		decisions := make([]models.ItemVerification, 0, len(inst.Items))
		for _, it := range inst.Items {
			d, ok := in.Decisions[it.ID]
			if !ok {
				d = models.ItemAccepted
			}
			decisions = append(decisions, d)
			if err := tx.Model(&models.ChecklistItem{}).Where("id = ?", it.ID).Updates(map[string]any{
				"verified_status":  d,
				"verifier_comment": in.ItemComments[it.ID],
			}).Error; err != nil {
				return fmt.Errorf("failed to record verification: %w", err)
			}
		}

		outcome := workflow.VerificationOutcome(decisions)
		if err := guarded(tx, &models.ChecklistInstance{}, "checklist", inst.ID, inst.Revision, map[string]any{
			"status":                outcome,
			"verification_comments": in.Comments,
			"verified_by_id":        actor.UserID,
			"verified_at":           e.now(),
		}); err != nil {
			return err
		}
		fresh, err := loadChecklist(tx, inst.ID)
		if err != nil {
			return err
		}
		out.Checklist = *fresh
		return audit(tx, actor, "checklist", inst.ID, "verify", "checklist "+string(outcome))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Finalize closes a passed checklist. Every attached file is closed and
// locked in the same transaction. Finalizing twice is a no-op.
func (e *Engine) Finalize(ctx context.Context, actor workflow.Actor, instanceID uint) (*ChecklistResult, error) {
	if err := actor.Authorize(authz.OpChecklistFinalize); err != nil {
		return nil, err
	}

	var out ChecklistResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		inst, err := loadChecklist(tx, instanceID)
		if err != nil {
			return err
		}
		g, noop := workflow.CanFinalize(inst.Status)
		if noop {
			out = ChecklistResult{Checklist: *inst, Effects: []workflow.Effect{workflow.EffectNoop}}
			return nil
		}
		if !g.Allowed {
			return g.Err().WithCurrent(inst)
		}

		now := e.now()
		for _, it := range inst.Items {
			for _, f := range it.Files {
				updates := map[string]any{
					"is_locked":    true,
					"locked_at":    now,
					"locked_by_id": uintPtr(actor.UserID),
					"lock_source":  models.LockManual,
				}
				if next, g := workflow.Next(workflow.SubjectChecklistFile, string(f.Status), workflow.ActionClose); g.Allowed {
					updates["status"] = next
				}
				if f.IsLocked {
					delete(updates, "locked_at")
					delete(updates, "locked_by_id")
					delete(updates, "lock_source")
				}
				if err := guarded(tx, &models.ChecklistFile{}, "checklist file", f.ID, f.Revision, updates); err != nil {
					return err
				}
				if err := closePendingUnlocks(tx, actor, models.LockableChecklistFile, f.ID, models.UnlockRejected, "checklist finalized", now); err != nil {
					return err
				}
			}
		}

		if err := guarded(tx, &models.ChecklistInstance{}, "checklist", inst.ID, inst.Revision, map[string]any{
			"status":          models.ChecklistFinalized,
			"finalized_by_id": actor.UserID,
			"finalized_at":    now,
		}); err != nil {
			return err
		}
		fresh, err := loadChecklist(tx, inst.ID)
		if err != nil {
			return err
		}
		out.Checklist = *fresh
		out.Effects = []workflow.Effect{workflow.EffectFilesLocked}
		return audit(tx, actor, "checklist", inst.ID, "finalize", "checklist finalized, files closed and locked")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Revise supersedes a decided checklist with a new draft version. Values are
// carried over; verification results and files stay with the old version.
func (e *Engine) Revise(ctx context.Context, actor workflow.Actor, instanceID uint) (*ChecklistResult, error) {
	if err := actor.Authorize(authz.OpChecklistRevise); err != nil {
		return nil, err
	}

	var out ChecklistResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		old, err := loadChecklist(tx, instanceID)
		if err != nil {
			return err
		}
		if g := workflow.CanRevise(old.Status); !g.Allowed {
			return g.Err().WithCurrent(old)
		}

		if err := guarded(tx, &models.ChecklistInstance{}, "checklist", old.ID, old.Revision, map[string]any{
			"status": models.ChecklistSuperseded,
		}); err != nil {
			return err
		}

		inst := models.ChecklistInstance{
			ProjectID:   old.ProjectID,
			TemplateID:  old.TemplateID,
			Version:     old.Version + 1,
			PreviousID:  &old.ID,
			Status:      models.ChecklistDraft,
			DueAt:       old.DueAt,
			CreatedByID: actor.UserID,
		}
		for _, it := range old.Items {
			inst.Items = append(inst.Items, models.ChecklistItem{
				Position:  it.Position,
				FieldKey:  it.FieldKey,
				Label:     it.Label,
				Type:      it.Type,
				Mandatory: it.Mandatory,
				Options:   it.Options,
				Value:     it.Value,
			})
		}
		inst.CompletenessPercent, out.Missing = workflow.Completeness(itemStates(inst.Items))
		if err := tx.Create(&inst).Error; err != nil {
			return fmt.Errorf("failed to create revision: %w", err)
		}

		out.Checklist = inst
		out.Effects = []workflow.Effect{workflow.EffectInstanceSuperseded}
		return audit(tx, actor, "checklist", inst.ID, "revise",
			fmt.Sprintf("version %d supersedes checklist %d", inst.Version, old.ID))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Engine) GetChecklist(ctx context.Context, id uint) (*models.ChecklistInstance, error) {
	return loadChecklist(e.db.WithContext(ctx), id)
}

func (e *Engine) ListChecklists(ctx context.Context, projectID uint) ([]models.ChecklistInstance, error) {
	tx := e.db.WithContext(ctx)
	if err := load(tx, &models.Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	var out []models.ChecklistInstance
	if err := tx.Where("project_id = ?", projectID).Order("template_id, version").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	return out, nil
}
