package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/database"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate for any login failure.
var ErrInvalidCredentials = errors.New("invalid username or password")

type UserInput struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

func (e *Engine) CreateUser(ctx context.Context, actor workflow.Actor, in UserInput) (*models.User, error) {
	if err := actor.Authorize(authz.OpUserCreate); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	if len(username) < 3 {
		return nil, workflow.ValidationFailed("username must be at least 3 characters")
	}
	if len(in.Password) < 8 {
		return nil, workflow.ValidationFailed("password must be at least 8 characters")
	}
	if !in.Role.Valid() {
		return nil, workflow.ValidationFailed("unknown role %q", in.Role)
	}

	hash, err := database.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{Username: username, PasswordHash: hash, Role: in.Role}
	err = e.inTx(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return workflow.InvalidState("username %s is taken", username)
		}
		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return audit(tx, actor, "user", u.ID, "create", fmt.Sprintf("user %s created with role %s", u.Username, u.Role))
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate checks a username and password pair.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := e.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !database.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// ListAudit returns audit entries for actors allowed to read them.
func (e *Engine) ListAudit(ctx context.Context, actor workflow.Actor, f database.AuditFilter) ([]models.AuditLog, error) {
	if err := actor.Authorize(authz.OpAuditView); err != nil {
		return nil, err
	}
	return database.ListAuditLogs(e.db.WithContext(ctx), f)
}
