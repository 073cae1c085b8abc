package workflow

// Effect names a side effect produced by a transition. Effects are data
// returned to the caller next to the new state.
type Effect string

const (
	EffectChecklistComplete    Effect = "checklist_complete"
	EffectChecklistIncomplete  Effect = "checklist_incomplete"
	EffectFilesLocked          Effect = "files_locked"
	EffectInstanceSuperseded   Effect = "instance_superseded"
	EffectSubmissionSuperseded Effect = "submission_superseded"
	EffectAssignmentVerified   Effect = "assignment_verified"
	EffectUnlockRequestClosed  Effect = "unlock_request_closed"
	EffectNoop                 Effect = "noop"
)
