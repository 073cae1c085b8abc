package service

import (
	"context"
	"fmt"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

type FileInput struct {
	Artifact models.Artifact `json:"artifact"`
	Comment  string          `json:"comment"`
}

// FileResult is the state after a checklist file transition.
type FileResult struct {
	File    models.ChecklistFile         `json:"file"`
	Version *models.ChecklistFileVersion `json:"version,omitempty"`
	Effects []workflow.Effect            `json:"effects,omitempty"`
}

// AttachFile uploads the first version of a new file on a checklist item.
func (e *Engine) AttachFile(ctx context.Context, actor workflow.Actor, instanceID, itemID uint, in FileInput) (*FileResult, error) {
	if err := actor.Authorize(authz.OpFileUpload); err != nil {
		return nil, err
	}
	if err := validateArtifact(in.Artifact); err != nil {
		return nil, err
	}

	var out FileResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		inst, err := loadChecklist(tx, instanceID)
		if err != nil {
			return err
		}
		item, err := findItem(inst, itemID)
		if err != nil {
			return err
		}
		if g := workflow.CanChangeFiles(inst.Status); !g.Allowed {
			return g.Err().WithCurrent(inst)
		}

		f := models.ChecklistFile{
			InstanceID:   inst.ID,
			ItemID:       item.ID,
			Status:       models.FileUploaded,
			Version:      1,
			Artifact:     in.Artifact,
			UploadedByID: actor.UserID,
		}
		if err := tx.Create(&f).Error; err != nil {
			return fmt.Errorf("failed to attach file: %w", err)
		}
		v, err := recordVersion(tx, f.ID, func(version int) *models.ChecklistFileVersion {
			return &models.ChecklistFileVersion{
				FileID:       f.ID,
				Version:      version,
				IsLatest:     true,
				Artifact:     in.Artifact,
				UploadedByID: actor.UserID,
				UploadedAt:   e.now(),
				Comment:      in.Comment,
			}
		})
		if err != nil {
			return err
		}

		// a new file can complete a mandatory file item
		item.Files = append(item.Files, f)
		before := inst.CompletenessPercent
		pct, _ := workflow.Completeness(itemStates(inst.Items))
		status := inst.Status
		if workflow.CanEditItems(status).Allowed {
			status = workflow.StatusAfterEdit(status)
		}
		if err := guarded(tx, &models.ChecklistInstance{}, "checklist", inst.ID, inst.Revision, map[string]any{
			"status":               status,
			"completeness_percent": pct,
		}); err != nil {
			return err
		}

		out = FileResult{File: f, Version: v, Effects: completenessEffects(before, pct)}
		return audit(tx, actor, "checklist_file", f.ID, "attach",
			fmt.Sprintf("file attached to item %s of checklist %d", item.FieldKey, inst.ID))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// fileStep is one review-loop transition of a checklist file.
type fileStep struct {
	op      authz.Operation
	action  workflow.Action
	remarks string
	upload  *FileInput
}

func (e *Engine) stepFile(ctx context.Context, actor workflow.Actor, fileID uint, step fileStep) (*FileResult, error) {
	if err := actor.Authorize(step.op); err != nil {
		return nil, err
	}
	if step.upload != nil {
		if err := validateArtifact(step.upload.Artifact); err != nil {
			return nil, err
		}
	}

	var out FileResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var f models.ChecklistFile
		if err := load(tx, &f, fileID, "checklist file"); err != nil {
			return err
		}
		var inst models.ChecklistInstance
		if err := load(tx, &inst, f.InstanceID, "checklist"); err != nil {
			return err
		}

		if g := workflow.CheckRemarks(workflow.SubjectChecklistFile, step.action, step.remarks); !g.Allowed {
			return g.Err()
		}
		if g := workflow.CanChangeFiles(inst.Status); !g.Allowed {
			return g.Err().WithCurrent(f)
		}
		lock := workflow.LockContext{Kind: models.LockableChecklistFile, ID: f.ID, IsLocked: f.IsLocked}
		if g := workflow.CanModifyLocked(lock); !g.Allowed {
			return g.Err().WithCurrent(f)
		}
		next, g := workflow.Next(workflow.SubjectChecklistFile, string(f.Status), step.action)
		if !g.Allowed {
			return g.Err().WithCurrent(f)
		}

		updates := map[string]any{"status": next}
		switch step.action {
		case workflow.ActionSendBack:
			updates["review_remarks"] = step.remarks
		case workflow.ActionUpload:
			v, err := recordVersion(tx, f.ID, func(version int) *models.ChecklistFileVersion {
				return &models.ChecklistFileVersion{
					FileID:       f.ID,
					Version:      version,
					IsLatest:     true,
					Artifact:     step.upload.Artifact,
					UploadedByID: actor.UserID,
					UploadedAt:   e.now(),
					Comment:      step.upload.Comment,
				}
			})
			if err != nil {
				return err
			}
			out.Version = v
			updates["version"] = v.Version
			updates["artifact_ref"] = step.upload.Artifact.Ref
			updates["artifact_name"] = step.upload.Artifact.FileName
			updates["artifact_content_type"] = step.upload.Artifact.ContentType
			updates["artifact_size"] = step.upload.Artifact.SizeBytes
			updates["artifact_checksum"] = step.upload.Artifact.Checksum
			updates["uploaded_by_id"] = actor.UserID
			updates["review_remarks"] = nil
		}

		if err := guarded(tx, &models.ChecklistFile{}, "checklist file", f.ID, f.Revision, updates); err != nil {
			return err
		}
		if err := tx.First(&f, f.ID).Error; err != nil {
			return err
		}
		out.File = f
		return audit(tx, actor, "checklist_file", f.ID, string(step.action), "file "+next)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFileVersion replaces the file's artifact with a new version.
func (e *Engine) UploadFileVersion(ctx context.Context, actor workflow.Actor, fileID uint, in FileInput) (*FileResult, error) {
	return e.stepFile(ctx, actor, fileID, fileStep{op: authz.OpFileUpload, action: workflow.ActionUpload, upload: &in})
}

func (e *Engine) SubmitFile(ctx context.Context, actor workflow.Actor, fileID uint) (*FileResult, error) {
	return e.stepFile(ctx, actor, fileID, fileStep{op: authz.OpFileSubmit, action: workflow.ActionSubmit})
}

func (e *Engine) StartFileReview(ctx context.Context, actor workflow.Actor, fileID uint) (*FileResult, error) {
	return e.stepFile(ctx, actor, fileID, fileStep{op: authz.OpFileStartReview, action: workflow.ActionStartReview})
}

// SendBackFile returns a file under review to its uploader. Remarks are required.
func (e *Engine) SendBackFile(ctx context.Context, actor workflow.Actor, fileID uint, remarks string) (*FileResult, error) {
	return e.stepFile(ctx, actor, fileID, fileStep{op: authz.OpFileSendBack, action: workflow.ActionSendBack, remarks: remarks})
}

func (e *Engine) VerifyFile(ctx context.Context, actor workflow.Actor, fileID uint) (*FileResult, error) {
	return e.stepFile(ctx, actor, fileID, fileStep{op: authz.OpFileVerify, action: workflow.ActionApprove})
}
