// Package policy holds the authorization rules of the back office. Every
// function is pure: it receives the actor and the facts it needs and never
// touches the database.
package policy

import (
	"sort"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
)

// Action is an operation subject to authorization
type Action string

const (
	ViewCustomers     Action = "customers:view"
	CreateCustomer    Action = "customers:create"
	DeleteCustomer    Action = "customers:delete"
	DeleteContact     Action = "contacts:delete"
	ViewProjects      Action = "projects:view"
	ManageProjects    Action = "projects:manage"
	ViewInventory     Action = "inventory:view"
	AdjustInventory   Action = "inventory:adjust"
	ViewJobs          Action = "jobs:view"
	CreateJob         Action = "jobs:create"
	EditJob           Action = "jobs:edit"
	DeleteJob         Action = "jobs:delete"
	AssignTechnician  Action = "jobs:assign"
	ApproveJob        Action = "jobs:approve"
	FinalizeJob       Action = "jobs:finalize"
	SubmitJobReport   Action = "job_reports:submit"
	EditJobReport     Action = "job_reports:edit"
	DeleteJobReport   Action = "job_reports:delete"
	ViewJobFinancials Action = "jobs:financials"
	ManageCatalog     Action = "catalog:manage"
	ViewUsers         Action = "users:view"
	ManageUsers       Action = "users:manage"
	ManageDepartments Action = "departments:manage"
	ViewAuditLogs     Action = "audit:view"
	UploadMedia       Action = "media:upload"
)

// Facts carries the ownership facts about the target of an action
type Facts struct {
	// TargetRole is the role of the user being acted upon (assignment)
	TargetRole domain.Role
	// TargetDepartmentID is the department the action is scoped to: the
	// technician being assigned, or the primary technician of the job.
	TargetDepartmentID *uuid.UUID
	// IsAssignedTechnician is true when the actor is on the job's roster
	IsAssignedTechnician bool
	// IsCreator is true when the actor created the target job and nobody is
	// on its roster yet. A staffed job belongs to its technicians' department.
	IsCreator bool
}

type roleSet map[domain.Role]bool

func roles(rs ...domain.Role) roleSet {
	s := make(roleSet, len(rs))
	for _, r := range rs {
		s[r] = true
	}
	return s
}

// flat lists actions whose outcome depends on the role alone
var flat = map[Action]roleSet{
	ViewCustomers:     roles(domain.RoleAdmin, domain.RoleManager),
	CreateCustomer:    roles(domain.RoleAdmin, domain.RoleManager, domain.RoleSales),
	DeleteCustomer:    roles(domain.RoleAdmin, domain.RoleManager),
	DeleteContact:     roles(domain.RoleAdmin, domain.RoleManager),
	ViewProjects:      roles(domain.RoleAdmin, domain.RoleManager, domain.RoleSales),
	ManageProjects:    roles(domain.RoleAdmin, domain.RoleManager, domain.RoleSales),
	ViewInventory:     roles(domain.RoleAdmin, domain.RoleManager, domain.RoleSales),
	AdjustInventory:   roles(domain.RoleAdmin, domain.RoleManager),
	ViewJobs:          roles(domain.RoleAdmin, domain.RoleManager, domain.RoleSales, domain.RoleTechnician),
	CreateJob:         roles(domain.RoleAdmin, domain.RoleManager),
	DeleteJob:         roles(domain.RoleAdmin),
	EditJobReport:     roles(domain.RoleAdmin, domain.RoleManager),
	DeleteJobReport:   roles(domain.RoleAdmin),
	ViewJobFinancials: roles(domain.RoleAdmin, domain.RoleManager, domain.RoleSales),
	ManageCatalog:     roles(domain.RoleAdmin, domain.RoleManager),
	ViewUsers:         roles(domain.RoleAdmin, domain.RoleManager),
	ManageUsers:       roles(domain.RoleAdmin),
	ManageDepartments: roles(domain.RoleAdmin),
	ViewAuditLogs:     roles(domain.RoleAdmin),
	UploadMedia:       roles(domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician),
}

// Can reports whether actor may perform action given the target facts.
// Unknown actions and the NOT_ASSIGN role are always denied.
func Can(actor domain.Actor, action Action, facts Facts) bool {
	if actor.Role == domain.RoleNotAssign || !actor.Role.IsValid() {
		return false
	}

	switch action {
	case AssignTechnician:
		switch actor.Role {
		case domain.RoleAdmin:
			return true
		case domain.RoleManager:
			return facts.TargetRole == domain.RoleTechnician &&
				domain.SameDepartment(actor.DepartmentID, facts.TargetDepartmentID)
		}
		return false

	case EditJob:
		switch actor.Role {
		case domain.RoleAdmin:
			return true
		case domain.RoleManager:
			return facts.IsCreator || domain.SameDepartment(actor.DepartmentID, facts.TargetDepartmentID)
		}
		return false

	case ApproveJob, FinalizeJob:
		switch actor.Role {
		case domain.RoleAdmin:
			return true
		case domain.RoleManager:
			return domain.SameDepartment(actor.DepartmentID, facts.TargetDepartmentID)
		}
		return false

	case SubmitJobReport:
		switch actor.Role {
		case domain.RoleAdmin, domain.RoleManager:
			return true
		case domain.RoleTechnician:
			return facts.IsAssignedTechnician
		}
		return false
	}

	allowed, ok := flat[action]
	if !ok {
		return false
	}
	return allowed[actor.Role]
}

// HasRole is Can for actions that need no target facts
func HasRole(actor domain.Actor, action Action) bool {
	return Can(actor, action, Facts{})
}

// Granted lists the role-only actions the actor may perform, sorted. Actions
// that depend on ownership facts are left out.
func Granted(actor domain.Actor) []string {
	out := []string{}
	for action := range flat {
		if HasRole(actor, action) {
			out = append(out, string(action))
		}
	}
	sort.Strings(out)
	return out
}
