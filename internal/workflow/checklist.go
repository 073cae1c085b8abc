package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
)

// ItemState is the part of a checklist item that completeness depends on.
type ItemState struct {
	Label     string
	Type      models.FieldType
	Mandatory bool
	Value     string
	FileCount int // files attached and not closed
}

// Filled reports whether the item counts as answered.
func (s ItemState) Filled() bool {
	if s.Type == models.FieldFile {
		return s.FileCount > 0
	}
	return strings.TrimSpace(s.Value) != ""
}

// Completeness computes 100 * filledMandatory / totalMandatory over mandatory
// items only, and the labels of the mandatory items still missing. A checklist
// without mandatory items is complete.
func Completeness(items []ItemState) (float64, []string) {
	total, filled := 0, 0
	var missing []string
	for _, it := range items {
		if !it.Mandatory {
			continue
		}
		total++
		if it.Filled() {
			filled++
		} else {
			missing = append(missing, it.Label)
		}
	}
	if total == 0 {
		return 100, nil
	}
	return 100 * float64(filled) / float64(total), missing
}

// CanEditItems evaluates whether item values may change.
// Rules:
// - editing is open while draft, in_progress or verified_failed
func CanEditItems(status models.ChecklistStatus) GuardResult {
	switch status {
	case models.ChecklistDraft, models.ChecklistInProgress, models.ChecklistVerifiedFailed:
		return allow()
	}
	return deny(KindInvalidState, fmt.Sprintf("checklist items cannot be edited in status %s", status))
}

// StatusAfterEdit returns the instance status after an item write.
func StatusAfterEdit(status models.ChecklistStatus) models.ChecklistStatus {
	switch status {
	case models.ChecklistDraft, models.ChecklistVerifiedFailed:
		return models.ChecklistInProgress
	}
	return status
}

// SubmitContext provides context for the submit-for-review guard.
type SubmitContext struct {
	Status       models.ChecklistStatus
	Completeness float64
	Missing      []string
}

// CanSubmitForReview evaluates whether a checklist may go to verification.
// Rules:
// - status must be draft, in_progress or verified_failed
// - every mandatory item must be filled
func CanSubmitForReview(ctx SubmitContext) GuardResult {
	switch ctx.Status {
	case models.ChecklistDraft, models.ChecklistInProgress, models.ChecklistVerifiedFailed:
	default:
		return deny(KindInvalidState, fmt.Sprintf("cannot submit checklist in status %s", ctx.Status))
	}
	if ctx.Completeness < 100 {
		return deny(KindValidationFailed, fmt.Sprintf("checklist is %.0f%% complete, missing: %s",
			ctx.Completeness, strings.Join(ctx.Missing, ", ")))
	}
	return allow()
}

// CanVerify evaluates whether a reviewer may record a verification outcome.
func CanVerify(status models.ChecklistStatus) GuardResult {
	if status != models.ChecklistReadyForVerification {
		return deny(KindInvalidState, fmt.Sprintf("can only verify checklists ready_for_verification (current status: %s)", status))
	}
	return allow()
}

// VerificationOutcome derives the checklist status from per-item decisions.
func VerificationOutcome(decisions []models.ItemVerification) models.ChecklistStatus {
	for _, d := range decisions {
		if d == models.ItemNeedsClarification {
			return models.ChecklistVerifiedFailed
		}
	}
	return models.ChecklistVerifiedPassed
}

// ValidDecision reports whether d is a per-item verification decision.
func ValidDecision(d models.ItemVerification) bool {
	return d == models.ItemAccepted || d == models.ItemNeedsClarification
}

// CanFinalize evaluates the close action. Finalizing a finalized checklist is
// a no-op, reported through noop.
func CanFinalize(status models.ChecklistStatus) (result GuardResult, noop bool) {
	switch status {
	case models.ChecklistFinalized:
		return allow(), true
	case models.ChecklistVerifiedPassed:
		return allow(), false
	}
	return deny(KindInvalidState, fmt.Sprintf("can only finalize verified_passed checklists (current status: %s)", status)), false
}

// CanRevise evaluates whether a new instance may be cloned for revision.
func CanRevise(status models.ChecklistStatus) GuardResult {
	switch status {
	case models.ChecklistVerifiedFailed, models.ChecklistVerifiedPassed, models.ChecklistFinalized:
		return allow()
	}
	return deny(KindInvalidState, fmt.Sprintf("cannot revise checklist in status %s", status))
}

// CanChangeFiles evaluates whether files of a checklist may be attached or moved.
func CanChangeFiles(status models.ChecklistStatus) GuardResult {
	switch status {
	case models.ChecklistFinalized, models.ChecklistSuperseded:
		return deny(KindInvalidState, fmt.Sprintf("files of a %s checklist are read-only", status))
	}
	return allow()
}

// ValidateValue checks a raw field value against its field type. Empty
// values are always accepted; they clear the item.
func ValidateValue(fieldType models.FieldType, options, value string) GuardResult {
	v := strings.TrimSpace(value)
	if v == "" {
		return allow()
	}
	switch fieldType {
	case models.FieldNumber:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return deny(KindValidationFailed, fmt.Sprintf("%q is not a number", value))
		}
	case models.FieldDate:
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return deny(KindValidationFailed, fmt.Sprintf("%q is not a date (YYYY-MM-DD)", value))
		}
	case models.FieldBoolean:
		if _, err := strconv.ParseBool(v); err != nil {
			return deny(KindValidationFailed, fmt.Sprintf("%q is not a boolean", value))
		}
	case models.FieldSelect:
		for _, opt := range strings.Split(options, ",") {
			if strings.TrimSpace(opt) == v {
				return allow()
			}
		}
		return deny(KindValidationFailed, fmt.Sprintf("%q is not one of: %s", value, options))
	case models.FieldFile:
		return deny(KindValidationFailed, "file items take attachments, not values")
	}
	return allow()
}
