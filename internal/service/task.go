package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

type TaskInput struct {
	ProjectID   uint       `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
}

func (e *Engine) CreateTask(ctx context.Context, actor workflow.Actor, in TaskInput) (*models.Task, error) {
	if err := actor.Authorize(authz.OpTaskCreate); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if len(title) < 3 {
		return nil, workflow.ValidationFailed("task title must be at least 3 characters")
	}

	var t models.Task
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if err := load(tx, &models.Project{}, in.ProjectID, "project"); err != nil {
			return err
		}
		if in.AssigneeID != nil {
			if err := load(tx, &models.User{}, *in.AssigneeID, "user"); err != nil {
				return err
			}
		}
		t = models.Task{
			ProjectID:   in.ProjectID,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			AssigneeID:  in.AssigneeID,
			DueAt:       utcPtr(in.DueAt),
			Status:      models.TaskTodo,
			CreatedByID: actor.UserID,
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return audit(tx, actor, "task", t.ID, "create", "task created: "+t.Title)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetTaskStatus moves a task between todo, in_progress and done. Locked
// tasks refuse every change.
func (e *Engine) SetTaskStatus(ctx context.Context, actor workflow.Actor, id uint, status models.TaskStatus) (*models.Task, error) {
	if err := actor.Authorize(authz.OpTaskUpdateStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, workflow.ValidationFailed("unknown task status %q", status)
	}

	var t models.Task
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if err := load(tx, &t, id, "task"); err != nil {
			return err
		}
		lock := workflow.LockContext{Kind: models.LockableTask, ID: t.ID, IsLocked: t.IsLocked}
		if g := workflow.CanModifyLocked(lock); !g.Allowed {
			return g.Err().WithCurrent(t)
		}
		if t.Status == status {
			return workflow.InvalidState("task %d is already %s", t.ID, status).WithCurrent(t)
		}

		updates := map[string]any{"status": status, "completed_at": nil}
		if status == models.TaskDone {
			updates["completed_at"] = e.now()
		}
		if err := guarded(tx, &models.Task{}, "task", t.ID, t.Revision, updates); err != nil {
			return err
		}
		if err := tx.First(&t, t.ID).Error; err != nil {
			return err
		}
		return audit(tx, actor, "task", t.ID, "status_change", "status changed to "+string(status))
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (e *Engine) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	var t models.Task
	if err := load(e.db.WithContext(ctx), &t, id, "task"); err != nil {
		return nil, err
	}
	return &t, nil
}

func (e *Engine) ListTasks(ctx context.Context, projectID uint) ([]models.Task, error) {
	tx := e.db.WithContext(ctx)
	if err := load(tx, &models.Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	var out []models.Task
	if err := tx.Where("project_id = ?", projectID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}
