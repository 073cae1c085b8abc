package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
)

// Subject selects the variant of reviewable versioned artifact. Both variants
// share this one transition engine; only their tables differ.
type Subject string

const (
	SubjectAssignment    Subject = "assignment"
	SubjectChecklistFile Subject = "checklist_file"
)

// Action is a review-loop event applied to a subject.
type Action string

const (
	ActionUpload      Action = "upload"
	ActionSubmit      Action = "submit"
	ActionStartReview Action = "start_review"
	ActionSendBack    Action = "send_back"
	ActionApprove     Action = "approve"
	ActionClose       Action = "close"
)

type rule struct {
	edges        map[string]string // from -> to
	needsRemarks bool
}

var machines = map[Subject]map[Action]rule{
	SubjectAssignment: {
		ActionUpload: {edges: map[string]string{
			string(models.AssignmentAssigned):   string(models.AssignmentSubmitted),
			string(models.AssignmentIncomplete): string(models.AssignmentSubmitted),
		}},
		ActionApprove: {edges: map[string]string{
			string(models.AssignmentSubmitted): string(models.AssignmentVerified),
		}},
		ActionSendBack: {needsRemarks: true, edges: map[string]string{
			string(models.AssignmentSubmitted): string(models.AssignmentIncomplete),
		}},
	},
	SubjectChecklistFile: {
		ActionUpload: {edges: map[string]string{
			string(models.FileUploaded):  string(models.FileUploaded),
			string(models.FileResponded): string(models.FileResubmitted),
		}},
		ActionSubmit: {edges: map[string]string{
			string(models.FileUploaded):    string(models.FileSubmitted),
			string(models.FileResubmitted): string(models.FileSubmitted),
		}},
		ActionStartReview: {edges: map[string]string{
			string(models.FileSubmitted): string(models.FileUnderReview),
		}},
		ActionSendBack: {needsRemarks: true, edges: map[string]string{
			string(models.FileUnderReview): string(models.FileResponded),
		}},
		ActionApprove: {edges: map[string]string{
			string(models.FileUnderReview): string(models.FileVerified),
		}},
		ActionClose: {edges: map[string]string{
			string(models.FileUploaded):    string(models.FileClosed),
			string(models.FileSubmitted):   string(models.FileClosed),
			string(models.FileUnderReview): string(models.FileClosed),
			string(models.FileResponded):   string(models.FileClosed),
			string(models.FileResubmitted): string(models.FileClosed),
			string(models.FileVerified):    string(models.FileClosed),
		}},
	},
}

// Next returns the state reached by applying action to current.
func Next(subject Subject, current string, action Action) (string, GuardResult) {
	actions, ok := machines[subject]
	if !ok {
		return current, deny(KindInvalidState, fmt.Sprintf("unknown subject %s", subject))
	}
	r, ok := actions[action]
	if !ok {
		return current, deny(KindInvalidState, fmt.Sprintf("%s does not support %s", subject, action))
	}
	to, ok := r.edges[current]
	if !ok {
		return current, deny(KindInvalidState, fmt.Sprintf("cannot %s %s in status %s (allowed from: %s)",
			action, subject, current, strings.Join(allowedFrom(r), ", ")))
	}
	return to, allow()
}

// RequiresRemarks reports whether action must carry non-empty remarks.
func RequiresRemarks(subject Subject, action Action) bool {
	return machines[subject][action].needsRemarks
}

// CheckRemarks validates the remarks for action.
func CheckRemarks(subject Subject, action Action, remarks string) GuardResult {
	if RequiresRemarks(subject, action) && strings.TrimSpace(remarks) == "" {
		return deny(KindValidationFailed, fmt.Sprintf("%s of %s requires remarks", action, subject))
	}
	return allow()
}

// IsTerminal reports whether no action leads out of status.
func IsTerminal(subject Subject, status string) bool {
	for _, r := range machines[subject] {
		if _, ok := r.edges[status]; ok {
			return false
		}
	}
	return true
}

func allowedFrom(r rule) []string {
	out := make([]string, 0, len(r.edges))
	for from := range r.edges {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}
