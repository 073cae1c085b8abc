// Package service is the review engine. Every mutating call checks the
// authorization gate, runs in one database transaction, writes an audit
// entry next to the change and returns the authoritative post-transition
// state.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/database"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// WithClock replaces the engine clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// DB exposes the underlying connection for read-only helpers.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// inTx runs fn in one transaction. fn must only use tx.
func (e *Engine) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return translate(e.db.WithContext(ctx).Transaction(fn))
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var werr *workflow.Error
	if errors.As(err, &werr) {
		return werr
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return workflow.ConcurrentModification("a concurrent write won the race, reload and retry")
	}
	return err
}

// load fetches one row by id and reports a missing row as NotFound.
func load(tx *gorm.DB, dest any, id uint, what string) error {
	if err := tx.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workflow.NotFound("%s %d not found", what, id)
		}
		return fmt.Errorf("failed to load %s %d: %w", what, id, err)
	}
	return nil
}

// guarded applies updates only if the row still has the revision it was
// read with. Losing that race is a ConcurrentModification.
func guarded(tx *gorm.DB, model any, what string, id uint, revision int, updates map[string]any) error {
	updates["revision"] = revision + 1
	res := tx.Model(model).Where("id = ? AND revision = ?", id, revision).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ConcurrentModification("%s %d was modified concurrently, reload and retry", what, id)
	}
	return nil
}

func audit(tx *gorm.DB, actor workflow.Actor, entity string, entityID uint, action, details string) error {
	return database.CreateAuditLog(tx, actor.UserID, entity, entityID, action, details)
}

// utcPtr stores due dates in UTC so the sweep queries compare like with like.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func validateArtifact(a models.Artifact) error {
	if strings.TrimSpace(a.Ref) == "" {
		return workflow.ValidationFailed("artifact reference is required")
	}
	if a.SizeBytes < 0 {
		return workflow.ValidationFailed("artifact size must not be negative")
	}
	return nil
}

func uintPtr(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}

// stringPtr maps blank strings to NULL.
func stringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
