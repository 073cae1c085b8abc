package authz

import (
	"fmt"
	"os"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"

	"gopkg.in/yaml.v3"
)

// Table maps each role to the capabilities it grants.
type Table map[models.UserRole]Set

// DefaultTable is used when no capability file is configured.
func DefaultTable() Table {
	return Table{
		models.RoleAdmin: NewSet(Wildcard),
		models.RoleConsultant: NewSet(
			CapTemplatesManage,
			CapAssignmentsAssign,
			CapDocumentsSubmit,
			CapDocumentsReview,
			CapDocumentsDownload,
			CapChecklistsEdit,
			CapChecklistsSubmit,
			CapChecklistsReview,
			CapChecklistsVerify,
			CapChecklistsFinalize,
			CapFilesUpload,
			CapTasksManage,
			CapTasksUpdate,
			CapTasksManageLocks,
			CapProjectsManage,
			CapAuditView,
		),
		models.RoleClient: NewSet(
			CapDocumentsSubmit,
			CapDocumentsDownload,
			CapChecklistsEdit,
			CapChecklistsSubmit,
			CapFilesUpload,
			CapTasksUpdate,
			CapTasksRequestUnlock,
		),
		models.RoleViewer: NewSet(
			CapDocumentsDownload,
			CapAuditView,
		),
	}
}

// CapabilitiesFor returns the capability set of role; unknown roles get none.
func (t Table) CapabilitiesFor(role models.UserRole) Set {
	if s, ok := t[role]; ok {
		return s
	}
	return Set{}
}

type tableFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadTable reads a YAML role table:
//
//	roles:
//	  admin: ["*"]
//	  client: ["documents:submit", "checklists:edit"]
//
// Roles missing from the file keep no capabilities.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capability file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML role table and rejects unknown roles or capabilities.
func ParseTable(data []byte) (Table, error) {
	var raw tableFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse capability file: %w", err)
	}
	if len(raw.Roles) == 0 {
		return nil, fmt.Errorf("capability file defines no roles")
	}

	t := Table{}
	for roleName, caps := range raw.Roles {
		role := models.UserRole(roleName)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q in capability file", roleName)
		}
		set := Set{}
		for _, c := range caps {
			capability := Capability(c)
			if !Known(capability) {
				return nil, fmt.Errorf("unknown capability %q for role %s", c, roleName)
			}
			set[capability] = struct{}{}
		}
		t[role] = set
	}
	return t, nil
}
