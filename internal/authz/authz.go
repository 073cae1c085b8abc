// Package authz is the single authorization gate consulted before every
// state-mutating engine call. It holds no state of its own: a role table maps
// roles to capability sets and every operation maps to exactly one capability.
package authz

import "sort"

// Capability is a named permission gating one class of transition.
type Capability string

// Wildcard grants every capability.
const Wildcard Capability = "*"

const (
	CapTemplatesManage    Capability = "templates:manage"
	CapAssignmentsAssign  Capability = "assignments:assign"
	CapDocumentsSubmit    Capability = "documents:submit"
	CapDocumentsReview    Capability = "documents:review"
	CapDocumentsDownload  Capability = "documents:download"
	CapChecklistsEdit     Capability = "checklists:edit"
	CapChecklistsSubmit   Capability = "checklists:submit"
	CapChecklistsReview   Capability = "checklists:review"
	CapChecklistsVerify   Capability = "checklists:verify"
	CapChecklistsFinalize Capability = "checklists:finalize"
	CapFilesUpload        Capability = "files:upload"
	CapTasksManage        Capability = "tasks:manage"
	CapTasksUpdate        Capability = "tasks:update"
	// The lock capabilities keep their tasks: names but gate every lockable,
	// checklist files included.
	CapTasksManageLocks   Capability = "tasks:manage-locks"
	CapTasksRequestUnlock Capability = "tasks:request-unlock"
	CapTasksAutoLock      Capability = "tasks:auto-lock"
	CapProjectsManage     Capability = "projects:manage"
	CapUsersManage        Capability = "users:manage"
	CapAuditView          Capability = "audit:view"
)

var knownCapabilities = map[Capability]struct{}{
	Wildcard:              {},
	CapTemplatesManage:    {},
	CapAssignmentsAssign:  {},
	CapDocumentsSubmit:    {},
	CapDocumentsReview:    {},
	CapDocumentsDownload:  {},
	CapChecklistsEdit:     {},
	CapChecklistsSubmit:   {},
	CapChecklistsReview:   {},
	CapChecklistsVerify:   {},
	CapChecklistsFinalize: {},
	CapFilesUpload:        {},
	CapTasksManage:        {},
	CapTasksUpdate:        {},
	CapTasksManageLocks:   {},
	CapTasksRequestUnlock: {},
	CapTasksAutoLock:      {},
	CapProjectsManage:     {},
	CapUsersManage:        {},
	CapAuditView:          {},
}

// Known reports whether c is a capability the gate understands.
func Known(c Capability) bool {
	_, ok := knownCapabilities[c]
	return ok
}

// Operation names one engine call.
type Operation string

const (
	OpTemplateCreate     Operation = "template.create"
	OpAssignmentCreate   Operation = "assignment.create"
	OpAssignmentUpload   Operation = "assignment.upload"
	OpSubmissionReview   Operation = "submission.review"
	OpSubmissionDownload Operation = "submission.download"
	OpChecklistCreate    Operation = "checklist.create"
	OpChecklistEditItem  Operation = "checklist.edit_item"
	OpChecklistSubmit    Operation = "checklist.submit_for_review"
	OpChecklistVerify    Operation = "checklist.verify"
	OpChecklistFinalize  Operation = "checklist.finalize"
	OpChecklistRevise    Operation = "checklist.revise"
	OpFileUpload         Operation = "file.upload"
	OpFileSubmit         Operation = "file.submit"
	OpFileStartReview    Operation = "file.start_review"
	OpFileSendBack       Operation = "file.send_back"
	OpFileVerify         Operation = "file.verify"
	OpLockManual         Operation = "lock.manual"
	OpLockAuto           Operation = "lock.auto"
	OpUnlockRequest      Operation = "lock.request_unlock"
	OpUnlockReview       Operation = "lock.review_unlock"
	OpUnlockDirect       Operation = "lock.direct_unlock"
	OpTaskCreate         Operation = "task.create"
	OpTaskUpdateStatus   Operation = "task.update_status"
	OpProjectCreate      Operation = "project.create"
	OpProjectStatus      Operation = "project.change_status"
	OpUserCreate         Operation = "user.create"
	OpAuditView          Operation = "audit.view"
)

var operationCapabilities = map[Operation]Capability{
	OpTemplateCreate:     CapTemplatesManage,
	OpAssignmentCreate:   CapAssignmentsAssign,
	OpAssignmentUpload:   CapDocumentsSubmit,
	OpSubmissionReview:   CapDocumentsReview,
	OpSubmissionDownload: CapDocumentsDownload,
	OpChecklistCreate:    CapAssignmentsAssign,
	OpChecklistEditItem:  CapChecklistsEdit,
	OpChecklistSubmit:    CapChecklistsSubmit,
	OpChecklistVerify:    CapChecklistsVerify,
	OpChecklistFinalize:  CapChecklistsFinalize,
	OpChecklistRevise:    CapAssignmentsAssign,
	OpFileUpload:         CapFilesUpload,
	OpFileSubmit:         CapChecklistsSubmit,
	OpFileStartReview:    CapChecklistsReview,
	OpFileSendBack:       CapChecklistsReview,
	OpFileVerify:         CapChecklistsReview,
	OpLockManual:         CapTasksManageLocks,
	OpLockAuto:           CapTasksAutoLock,
	OpUnlockRequest:      CapTasksRequestUnlock,
	OpUnlockReview:       CapTasksManageLocks,
	OpUnlockDirect:       CapTasksManageLocks,
	OpTaskCreate:         CapTasksManage,
	OpTaskUpdateStatus:   CapTasksUpdate,
	OpProjectCreate:      CapProjectsManage,
	OpProjectStatus:      CapProjectsManage,
	OpUserCreate:         CapUsersManage,
	OpAuditView:          CapAuditView,
}

// CapabilityFor returns the capability that gates op, or "" for unknown operations.
func CapabilityFor(op Operation) Capability {
	return operationCapabilities[op]
}

// Set is an unordered set of capabilities.
type Set map[Capability]struct{}

func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the set grants c, directly or through the wildcard.
func (s Set) Has(c Capability) bool {
	if _, ok := s[Wildcard]; ok {
		return true
	}
	_, ok := s[c]
	return ok
}

// List returns the capabilities in a stable order.
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanTransition is the gate itself. Unknown operations are always denied.
func CanTransition(caps Set, op Operation) bool {
	c, ok := operationCapabilities[op]
	if !ok {
		return false
	}
	return caps.Has(c)
}
