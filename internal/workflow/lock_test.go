package workflow

import (
	"testing"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
)

func TestCanAutoLock(t *testing.T) {
	tests := []struct {
		name        string
		ctx         LockContext
		wantAllowed bool
		wantSkip    bool
	}{
		{"overdue open task", LockContext{Kind: models.LockableTask, ID: 1, Overdue: true}, true, false},
		{"already locked is skipped", LockContext{Kind: models.LockableTask, ID: 1, IsLocked: true, Overdue: true}, true, true},
		{"done task", LockContext{Kind: models.LockableTask, ID: 1, Done: true, Overdue: true}, false, false},
		{"not yet due", LockContext{Kind: models.LockableTask, ID: 1}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, skip := CanAutoLock(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if skip != tt.wantSkip {
				t.Errorf("skip = %v, want %v", skip, tt.wantSkip)
			}
		})
	}
}

func TestCanManualLock(t *testing.T) {
	tests := []struct {
		name        string
		ctx         LockContext
		wantAllowed bool
		wantReason  string
	}{
		{"open task", LockContext{Kind: models.LockableTask, ID: 7}, true, ""},
		{"locked task", LockContext{Kind: models.LockableTask, ID: 7, IsLocked: true}, false, "task 7 is already locked"},
		{"verified file", LockContext{Kind: models.LockableChecklistFile, ID: 3, Done: true}, false, "checklist_file 3 is done and cannot be locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanManualLock(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanRequestUnlock(t *testing.T) {
	locked := LockContext{Kind: models.LockableTask, ID: 2, IsLocked: true}

	tests := []struct {
		name     string
		ctx      UnlockRequestContext
		wantKind Kind
	}{
		{"locked without pending", UnlockRequestContext{LockContext: locked, Reason: "need more time"}, ""},
		{"pending exists", UnlockRequestContext{LockContext: locked, HasPending: true, Reason: "again"}, KindDuplicatePending},
		{"not locked", UnlockRequestContext{LockContext: LockContext{Kind: models.LockableTask, ID: 2}, Reason: "x"}, KindInvalidState},
		{"missing reason", UnlockRequestContext{LockContext: locked}, KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanRequestUnlock(tt.ctx)
			if tt.wantKind == "" {
				if !result.Allowed {
					t.Fatalf("expected allowed, got %s", result.Reason)
				}
				return
			}
			if result.Allowed || result.Err().Kind != tt.wantKind {
				t.Errorf("got Allowed = %v kind = %s, want kind %s", result.Allowed, result.Kind, tt.wantKind)
			}
		})
	}
}

func TestCanReviewUnlock(t *testing.T) {
	tests := []struct {
		name     string
		status   models.UnlockStatus
		decision UnlockDecision
		note     string
		wantKind Kind
	}{
		{"approve pending", models.UnlockPending, UnlockApprove, "", ""},
		{"reject pending with note", models.UnlockPending, UnlockReject, "not justified", ""},
		{"reject without note", models.UnlockPending, UnlockReject, "", KindValidationFailed},
		{"approve decided request", models.UnlockApproved, UnlockApprove, "", KindInvalidState},
		{"unknown decision", models.UnlockPending, UnlockDecision("maybe"), "", KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanReviewUnlock(tt.status, tt.decision, tt.note)
			if tt.wantKind == "" {
				if !result.Allowed {
					t.Fatalf("expected allowed, got %s", result.Reason)
				}
				return
			}
			if result.Allowed || result.Err().Kind != tt.wantKind {
				t.Errorf("got Allowed = %v kind = %s, want kind %s", result.Allowed, result.Kind, tt.wantKind)
			}
		})
	}
}
