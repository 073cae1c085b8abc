package service

import (
	"context"
	"fmt"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"

	"gorm.io/gorm"
)

// ledgerEntry is a row of an append-only version ledger: one latest row per
// owner, gapless versions starting at 1.
type ledgerEntry interface {
	models.Submission | models.ChecklistFileVersion
}

// ownerColumn names the column that groups a ledger's rows.
func ownerColumn[T ledgerEntry]() string {
	var zero T
	switch any(zero).(type) {
	case models.Submission:
		return "assignment_id"
	default:
		return "file_id"
	}
}

// recordVersion appends the next version for ownerID and moves the latest
// pointer to it. Both writes happen in the caller's transaction; a racing
// writer that picks the same version fails on the unique index.
func recordVersion[T ledgerEntry](tx *gorm.DB, ownerID uint, build func(version int) *T) (*T, error) {
	col := ownerColumn[T]()

	var current int
	if err := tx.Model(new(T)).
		Where(col+" = ?", ownerID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error; err != nil {
		return nil, fmt.Errorf("failed to read latest version: %w", err)
	}

	if err := tx.Model(new(T)).
		Where(col+" = ? AND is_latest = ?", ownerID, true).
		Update("is_latest", false).Error; err != nil {
		return nil, fmt.Errorf("failed to retire latest version: %w", err)
	}

	row := build(current + 1)
	if err := tx.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func versionHistory[T ledgerEntry](tx *gorm.DB, ownerID uint) ([]T, error) {
	var rows []T
	if err := tx.Where(ownerColumn[T]()+" = ?", ownerID).
		Order("version DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return rows, nil
}

// History returns every submission of an assignment, newest first.
func (e *Engine) History(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	tx := e.db.WithContext(ctx)
	if err := load(tx, &models.Assignment{}, assignmentID, "assignment"); err != nil {
		return nil, err
	}
	return versionHistory[models.Submission](tx, assignmentID)
}

// FileHistory returns every uploaded version of a checklist file, newest first.
func (e *Engine) FileHistory(ctx context.Context, fileID uint) ([]models.ChecklistFileVersion, error) {
	tx := e.db.WithContext(ctx)
	if err := load(tx, &models.ChecklistFile{}, fileID, "checklist file"); err != nil {
		return nil, err
	}
	return versionHistory[models.ChecklistFileVersion](tx, fileID)
}
