package service

import (
	"context"
	"fmt"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

// Decision is a reviewer's verdict on a submission.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var reviewActions = map[Decision]workflow.Action{
	DecisionApprove: workflow.ActionApprove,
	DecisionReject:  workflow.ActionSendBack,
}

type AssignInput struct {
	ProjectID  uint  `json:"-"`
	TemplateID uint  `json:"template_id"`
	AssigneeID *uint `json:"assignee_id"`
}

type UploadInput struct {
	Artifact models.Artifact `json:"artifact"`
	Comment  string          `json:"comment"`
}

type ReviewInput struct {
	Decision Decision `json:"action"`
	Remarks  string   `json:"remarks"`
}

// AssignmentResult is the state after an assignment transition.
type AssignmentResult struct {
	Assignment models.Assignment `json:"assignment"`
	Submission models.Submission `json:"submission"`
	Effects    []workflow.Effect `json:"effects,omitempty"`
}

// AssignTemplate binds a template to a project. A template is assigned to a
// project at most once.
func (e *Engine) AssignTemplate(ctx context.Context, actor workflow.Actor, in AssignInput) (*models.Assignment, error) {
	if err := actor.Authorize(authz.OpAssignmentCreate); err != nil {
		return nil, err
	}

	var a models.Assignment
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if err := load(tx, &models.Project{}, in.ProjectID, "project"); err != nil {
			return err
		}
		if err := load(tx, &models.TemplateFile{}, in.TemplateID, "template"); err != nil {
			return err
		}
		if in.AssigneeID != nil {
			if err := load(tx, &models.User{}, *in.AssigneeID, "user"); err != nil {
				return err
			}
		}

		var existing models.Assignment
		res := tx.Where("project_id = ? AND template_id = ?", in.ProjectID, in.TemplateID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return workflow.InvalidState("template %d is already assigned to project %d", in.TemplateID, in.ProjectID).
				WithCurrent(existing)
		}

		a = models.Assignment{
			ProjectID:    in.ProjectID,
			TemplateID:   in.TemplateID,
			AssigneeID:   in.AssigneeID,
			Status:       models.AssignmentAssigned,
			AssignedByID: actor.UserID,
			AssignedAt:   e.now(),
		}
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		return audit(tx, actor, "assignment", a.ID, "assign",
			fmt.Sprintf("template %d assigned to project %d", in.TemplateID, in.ProjectID))
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upload records a new submission and moves the assignment to submitted.
// Verified assignments are read-only.
func (e *Engine) Upload(ctx context.Context, actor workflow.Actor, assignmentID uint, in UploadInput) (*AssignmentResult, error) {
	if err := actor.Authorize(authz.OpAssignmentUpload); err != nil {
		return nil, err
	}
	if err := validateArtifact(in.Artifact); err != nil {
		return nil, err
	}

	var out AssignmentResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var a models.Assignment
		if err := load(tx, &a, assignmentID, "assignment"); err != nil {
			return err
		}

		next, g := workflow.Next(workflow.SubjectAssignment, string(a.Status), workflow.ActionUpload)
		if !g.Allowed {
			return g.Err().WithCurrent(a)
		}

		now := e.now()
		sub, err := recordVersion(tx, a.ID, func(version int) *models.Submission {
			return &models.Submission{
				AssignmentID:     a.ID,
				Version:          version,
				IsLatest:         true,
				Status:           models.SubmissionSubmitted,
				Artifact:         in.Artifact,
				UploadedByID:     actor.UserID,
				UploadedAt:       now,
				ClientComment:    in.Comment,
				SubmissionSource: actor.SubmissionSource(),
			}
		})
		if err != nil {
			return err
		}

		if err := guarded(tx, &models.Assignment{}, "assignment", a.ID, a.Revision, map[string]any{
			"status":          next,
			"current_remarks": nil,
		}); err != nil {
			return err
		}
		if err := tx.First(&a, a.ID).Error; err != nil {
			return err
		}

		out.Assignment = a
		out.Submission = *sub
		if sub.Version > 1 {
			out.Effects = append(out.Effects, workflow.EffectSubmissionSuperseded)
		}
		return audit(tx, actor, "assignment", a.ID, "upload",
			fmt.Sprintf("version %d uploaded (%s)", sub.Version, sub.SubmissionSource))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Review approves or rejects a submission. Only the latest submission of an
// assignment that is still submitted can be decided.
func (e *Engine) Review(ctx context.Context, actor workflow.Actor, submissionID uint, in ReviewInput) (*AssignmentResult, error) {
	if err := actor.Authorize(authz.OpSubmissionReview); err != nil {
		return nil, err
	}

	var out AssignmentResult
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var sub models.Submission
		if err := load(tx, &sub, submissionID, "submission"); err != nil {
			return err
		}
		var a models.Assignment
		if err := load(tx, &a, sub.AssignmentID, "assignment"); err != nil {
			return err
		}

		action, ok := reviewActions[in.Decision]
		if !ok {
			return workflow.ValidationFailed("unknown review action %q, want approve or reject", in.Decision)
		}
		if g := workflow.CheckRemarks(workflow.SubjectAssignment, action, in.Remarks); !g.Allowed {
			return g.Err()
		}
		if !sub.IsLatest {
			return workflow.StaleSubmission("submission %d (version %d) has been superseded by a newer upload", sub.ID, sub.Version).
				WithCurrent(a)
		}
		next, g := workflow.Next(workflow.SubjectAssignment, string(a.Status), action)
		if !g.Allowed {
			return g.Err().WithCurrent(a)
		}

		now := e.now()
		subStatus := models.SubmissionApproved
		assignment := map[string]any{"status": next}
		if in.Decision == DecisionApprove {
			assignment["verified_by_id"] = actor.UserID
			assignment["verified_at"] = now
			assignment["current_remarks"] = nil
			out.Effects = append(out.Effects, workflow.EffectAssignmentVerified)
		} else {
			subStatus = models.SubmissionRejected
			assignment["current_remarks"] = stringPtr(in.Remarks)
		}

		res := tx.Model(&models.Submission{}).
			Where("id = ? AND is_latest = ?", sub.ID, true).
			Updates(map[string]any{
				"status":         subStatus,
				"reviewed_by_id": actor.UserID,
				"reviewed_at":    now,
				"review_remarks": stringPtr(in.Remarks),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.StaleSubmission("submission %d has been superseded by a newer upload", sub.ID)
		}
		if err := guarded(tx, &models.Assignment{}, "assignment", a.ID, a.Revision, assignment); err != nil {
			return err
		}

		if err := tx.First(&a, a.ID).Error; err != nil {
			return err
		}
		if err := tx.First(&sub, sub.ID).Error; err != nil {
			return err
		}
		out.Assignment = a
		out.Submission = sub
		return audit(tx, actor, "submission", sub.ID, string(in.Decision),
			fmt.Sprintf("version %d %s", sub.Version, subStatus))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmissionArtifact returns the submission whose artifact is about to be
// downloaded. Artifacts of verified assignments are not handed out.
func (e *Engine) SubmissionArtifact(ctx context.Context, actor workflow.Actor, submissionID uint) (*models.Submission, error) {
	if err := actor.Authorize(authz.OpSubmissionDownload); err != nil {
		return nil, err
	}

	tx := e.db.WithContext(ctx)
	var sub models.Submission
	if err := load(tx, &sub, submissionID, "submission"); err != nil {
		return nil, err
	}
	var a models.Assignment
	if err := load(tx, &a, sub.AssignmentID, "assignment"); err != nil {
		return nil, err
	}
	if a.Status == models.AssignmentVerified {
		return nil, workflow.InvalidState("assignment %d is verified; its documents can no longer be downloaded", a.ID).
			WithCurrent(a)
	}
	return &sub, nil
}

func (e *Engine) GetAssignment(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	if err := load(e.db.WithContext(ctx).Preload("Template"), &a, id, "assignment"); err != nil {
		return nil, err
	}
	return &a, nil
}

func (e *Engine) ListAssignments(ctx context.Context, projectID uint) ([]models.Assignment, error) {
	tx := e.db.WithContext(ctx)
	if err := load(tx, &models.Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	var out []models.Assignment
	if err := tx.Preload("Template").Where("project_id = ?", projectID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return out, nil
}
