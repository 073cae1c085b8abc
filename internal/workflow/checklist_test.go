package workflow

import (
	"testing"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
)

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name        string
		items       []ItemState
		wantPercent float64
		wantMissing []string
	}{
		{
			name:        "no mandatory items is complete",
			items:       []ItemState{{Label: "Notes", Type: models.FieldText}},
			wantPercent: 100,
		},
		{
			name: "optional items are ignored",
			items: []ItemState{
				{Label: "Name", Type: models.FieldText, Mandatory: true, Value: "ACME"},
				{Label: "Notes", Type: models.FieldText},
			},
			wantPercent: 100,
		},
		{
			name: "half filled",
			items: []ItemState{
				{Label: "Name", Type: models.FieldText, Mandatory: true, Value: "ACME"},
				{Label: "Address", Type: models.FieldText, Mandatory: true, Value: "  "},
			},
			wantPercent: 50,
			wantMissing: []string{"Address"},
		},
		{
			name: "file items need an attachment",
			items: []ItemState{
				{Label: "Permit", Type: models.FieldFile, Mandatory: true},
				{Label: "Audit report", Type: models.FieldFile, Mandatory: true, FileCount: 2},
				{Label: "Consent", Type: models.FieldBoolean, Mandatory: true, Value: "false"},
			},
			wantPercent: 100 * 2.0 / 3.0,
			wantMissing: []string{"Permit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := Completeness(tt.items)
			if got != tt.wantPercent {
				t.Errorf("percent = %v, want %v", got, tt.wantPercent)
			}
			if len(missing) != len(tt.wantMissing) {
				t.Fatalf("missing = %v, want %v", missing, tt.wantMissing)
			}
			for i := range missing {
				if missing[i] != tt.wantMissing[i] {
					t.Errorf("missing[%d] = %s, want %s", i, missing[i], tt.wantMissing[i])
				}
			}

			again, _ := Completeness(tt.items)
			if again != got {
				t.Errorf("recomputing changed the result: %v then %v", got, again)
			}
		})
	}
}

func TestCanEditItems(t *testing.T) {
	tests := []struct {
		status      models.ChecklistStatus
		wantAllowed bool
		wantNext    models.ChecklistStatus
	}{
		{models.ChecklistDraft, true, models.ChecklistInProgress},
		{models.ChecklistInProgress, true, models.ChecklistInProgress},
		{models.ChecklistVerifiedFailed, true, models.ChecklistInProgress},
		{models.ChecklistReadyForVerification, false, models.ChecklistReadyForVerification},
		{models.ChecklistVerifiedPassed, false, models.ChecklistVerifiedPassed},
		{models.ChecklistFinalized, false, models.ChecklistFinalized},
		{models.ChecklistSuperseded, false, models.ChecklistSuperseded},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			result := CanEditItems(tt.status)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if next := StatusAfterEdit(tt.status); next != tt.wantNext {
				t.Errorf("StatusAfterEdit() = %s, want %s", next, tt.wantNext)
			}
		})
	}
}

func TestCanSubmitForReview(t *testing.T) {
	tests := []struct {
		name     string
		ctx      SubmitContext
		wantKind Kind
	}{
		{"complete in progress", SubmitContext{Status: models.ChecklistInProgress, Completeness: 100}, ""},
		{"complete after failed verification", SubmitContext{Status: models.ChecklistVerifiedFailed, Completeness: 100}, ""},
		{"incomplete", SubmitContext{Status: models.ChecklistInProgress, Completeness: 50, Missing: []string{"Address"}}, KindValidationFailed},
		{"already submitted", SubmitContext{Status: models.ChecklistReadyForVerification, Completeness: 100}, KindInvalidState},
		{"finalized", SubmitContext{Status: models.ChecklistFinalized, Completeness: 100}, KindInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanSubmitForReview(tt.ctx)
			if tt.wantKind == "" {
				if !result.Allowed {
					t.Fatalf("expected allowed, got %s", result.Reason)
				}
				return
			}
			if result.Allowed {
				t.Fatal("expected denial")
			}
			if result.Err().Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", result.Err().Kind, tt.wantKind)
			}
		})
	}
}

func TestVerificationOutcome(t *testing.T) {
	if got := VerificationOutcome([]models.ItemVerification{models.ItemAccepted, models.ItemAccepted}); got != models.ChecklistVerifiedPassed {
		t.Errorf("all accepted = %s, want verified_passed", got)
	}
	if got := VerificationOutcome([]models.ItemVerification{models.ItemAccepted, models.ItemNeedsClarification}); got != models.ChecklistVerifiedFailed {
		t.Errorf("one needs clarification = %s, want verified_failed", got)
	}
	if got := VerificationOutcome(nil); got != models.ChecklistVerifiedPassed {
		t.Errorf("no decisions = %s, want verified_passed", got)
	}
}

func TestCanFinalize(t *testing.T) {
	result, noop := CanFinalize(models.ChecklistVerifiedPassed)
	if !result.Allowed || noop {
		t.Errorf("verified_passed: Allowed = %v, noop = %v", result.Allowed, noop)
	}
	result, noop = CanFinalize(models.ChecklistFinalized)
	if !result.Allowed || !noop {
		t.Errorf("finalized: Allowed = %v, noop = %v", result.Allowed, noop)
	}
	result, _ = CanFinalize(models.ChecklistVerifiedFailed)
	if result.Allowed {
		t.Error("verified_failed should not finalize")
	}
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name        string
		fieldType   models.FieldType
		options     string
		value       string
		wantAllowed bool
	}{
		{"empty clears any type", models.FieldNumber, "", "", true},
		{"number", models.FieldNumber, "", "42.5", true},
		{"bad number", models.FieldNumber, "", "forty", false},
		{"date", models.FieldDate, "", "2024-03-01", true},
		{"bad date", models.FieldDate, "", "01/03/2024", false},
		{"boolean", models.FieldBoolean, "", "true", true},
		{"bad boolean", models.FieldBoolean, "", "maybe", false},
		{"select option", models.FieldSelect, "low, medium, high", "medium", true},
		{"select unknown option", models.FieldSelect, "low,medium,high", "extreme", false},
		{"text anything", models.FieldText, "", "anything", true},
		{"file takes no value", models.FieldFile, "", "report.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateValue(tt.fieldType, tt.options, tt.value)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (reason: %s)", result.Allowed, tt.wantAllowed, result.Reason)
			}
		})
	}
}
