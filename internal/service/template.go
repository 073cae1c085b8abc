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

type AttachmentInput struct {
	Name     string          `json:"name"`
	Artifact models.Artifact `json:"artifact"`
}

type FieldInput struct {
	Key       string           `json:"key"`
	Label     string           `json:"label"`
	Type      models.FieldType `json:"type"`
	Mandatory bool             `json:"mandatory"`
	Options   []string         `json:"options"`
}

type TemplateInput struct {
	Title        string            `json:"title"`
	Category     string            `json:"category"`
	Description  string            `json:"description"`
	SupersedesID *uint             `json:"supersedes_id"`
	Attachments  []AttachmentInput `json:"attachments"`
	Fields       []FieldInput      `json:"fields"`
}

func (in TemplateInput) validate() error {
	if len(strings.TrimSpace(in.Title)) < 3 {
		return workflow.ValidationFailed("template title must be at least 3 characters")
	}

	var problems []string
	seen := map[string]bool{}
	for i, f := range in.Fields {
		key := strings.TrimSpace(f.Key)
		switch {
		case key == "":
			problems = append(problems, fmt.Sprintf("field %d: key is required", i+1))
		case seen[key]:
			problems = append(problems, fmt.Sprintf("field %d: duplicate key %q", i+1, key))
		}
		seen[key] = true
		if strings.TrimSpace(f.Label) == "" {
			problems = append(problems, fmt.Sprintf("field %d: label is required", i+1))
		}
		if !f.Type.Valid() {
			problems = append(problems, fmt.Sprintf("field %d: unknown type %q", i+1, f.Type))
		}
		if f.Type == models.FieldSelect && len(f.Options) == 0 {
			problems = append(problems, fmt.Sprintf("field %d: select needs options", i+1))
		}
	}
	for i, a := range in.Attachments {
		if strings.TrimSpace(a.Name) == "" {
			problems = append(problems, fmt.Sprintf("attachment %d: name is required", i+1))
		}
		if err := validateArtifact(a.Artifact); err != nil {
			problems = append(problems, fmt.Sprintf("attachment %d: artifact reference is required", i+1))
		}
	}
	if len(problems) > 0 {
		err := workflow.ValidationFailed("invalid template: %s", strings.Join(problems, "; "))
		err.Details = problems
		return err
	}
	return nil
}

// CreateTemplate publishes an immutable template. Publishing a new version
// means creating another template that supersedes the old one.
func (e *Engine) CreateTemplate(ctx context.Context, actor workflow.Actor, in TemplateInput) (*models.TemplateFile, error) {
	if err := actor.Authorize(authz.OpTemplateCreate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	tpl := models.TemplateFile{
		Title:        strings.TrimSpace(in.Title),
		Category:     strings.TrimSpace(in.Category),
		Description:  strings.TrimSpace(in.Description),
		SupersedesID: in.SupersedesID,
		CreatedByID:  actor.UserID,
	}
	for i, a := range in.Attachments {
		tpl.Attachments = append(tpl.Attachments, models.TemplateAttachment{
			Position: i + 1,
			Name:     strings.TrimSpace(a.Name),
			Artifact: a.Artifact,
		})
	}
	for i, f := range in.Fields {
		tpl.Fields = append(tpl.Fields, models.TemplateField{
			Position:  i + 1,
			Key:       strings.TrimSpace(f.Key),
			Label:     strings.TrimSpace(f.Label),
			Type:      f.Type,
			Mandatory: f.Mandatory,
			Options:   strings.Join(f.Options, ","),
		})
	}

	err := e.inTx(ctx, func(tx *gorm.DB) error {
		if in.SupersedesID != nil {
			if err := load(tx, &models.TemplateFile{}, *in.SupersedesID, "template"); err != nil {
				return err
			}
		}
		if err := tx.Create(&tpl).Error; err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		return audit(tx, actor, "template", tpl.ID, "create", "template published: "+tpl.Title)
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func withTemplateParts(tx *gorm.DB) *gorm.DB {
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position") }
	return tx.Preload("Attachments", byPosition).Preload("Fields", byPosition)
}

func (e *Engine) ListTemplates(ctx context.Context) ([]models.TemplateFile, error) {
	var out []models.TemplateFile
	if err := withTemplateParts(e.db.WithContext(ctx)).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return out, nil
}

func (e *Engine) GetTemplate(ctx context.Context, id uint) (*models.TemplateFile, error) {
	var tpl models.TemplateFile
	if err := load(withTemplateParts(e.db.WithContext(ctx)), &tpl, id, "template"); err != nil {
		return nil, err
	}
	return &tpl, nil
}
