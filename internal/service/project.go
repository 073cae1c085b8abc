package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

type ProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ClientID    uint   `json:"client_id"`
}

type ProjectFilter struct {
	ClientID uint
	Status   models.ProjectStatus
}

func (e *Engine) CreateProject(ctx context.Context, actor workflow.Actor, in ProjectInput) (*models.Project, error) {
	if err := actor.Authorize(authz.OpProjectCreate); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if len(title) < 3 {
		return nil, workflow.ValidationFailed("project title must be at least 3 characters")
	}

	var p models.Project
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var client models.User
		if err := load(tx, &client, in.ClientID, "user"); err != nil {
			return err
		}
		if client.Role != models.RoleClient {
			return workflow.ValidationFailed("user %d is not a client", client.ID)
		}

		p = models.Project{
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Status:      models.StatusPlanned,
			ClientID:    client.ID,
			CreatedByID: actor.UserID,
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return audit(tx, actor, "project", p.ID, "create", "project created: "+p.Title)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ChangeProjectStatus moves a project along its lifecycle. Which moves a
// role may make is decided by canChangeProjectStatus.
func (e *Engine) ChangeProjectStatus(ctx context.Context, actor workflow.Actor, id uint, next models.ProjectStatus) (*models.Project, error) {
	if err := actor.Authorize(authz.OpProjectStatus); err != nil {
		return nil, err
	}
	switch next {
	case models.StatusPlanned, models.StatusInProgress, models.StatusOnApproval,
		models.StatusFinished, models.StatusCancelled:
	default:
		return nil, workflow.ValidationFailed("unknown project status %q", next)
	}

	var p models.Project
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if err := load(tx, &p, id, "project"); err != nil {
			return err
		}
		if p.Status == next {
			return workflow.InvalidState("project %d is already %s", p.ID, next).WithCurrent(p)
		}
		if !canChangeProjectStatus(actor.Role, p.Status, next) {
			return workflow.Forbidden("role %s cannot move a project from %s to %s", actor.Role, p.Status, next)
		}

		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", p.ID, p.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.ConcurrentModification("project %d was modified concurrently", p.ID)
		}
		if err := tx.First(&p, p.ID).Error; err != nil {
			return err
		}
		return audit(tx, actor, "project", p.ID, "status_change", "status changed to "+string(next))
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func canChangeProjectStatus(role models.UserRole, current, next models.ProjectStatus) bool {
	switch role {
	case models.RoleAdmin:
		return true

	case models.RoleConsultant:
		switch current {
		case models.StatusPlanned:
			return next == models.StatusInProgress || next == models.StatusCancelled
		case models.StatusInProgress:
			return next == models.StatusOnApproval
		case models.StatusOnApproval:
			return next == models.StatusInProgress || next == models.StatusFinished
		}
		return false

	default:
		return false
	}
}

func (e *Engine) ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	q := e.db.WithContext(ctx).Order("created_at desc")
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Project
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

func (e *Engine) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := load(e.db.WithContext(ctx), &p, id, "project"); err != nil {
		return nil, err
	}
	return &p, nil
}

