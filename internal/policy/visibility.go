package policy

import (
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
)

// JobScopeKind selects which jobs a list query may return
type JobScopeKind int

const (
	// JobScopeNone returns nothing
	JobScopeNone JobScopeKind = iota
	// JobScopeAll returns every job
	JobScopeAll
	// JobScopeTechnician returns jobs whose roster contains UserID
	JobScopeTechnician
	// JobScopeDepartment returns jobs staffed by a technician of
	// DepartmentID, plus jobs created by UserID that have no roster yet
	JobScopeDepartment
)

// JobScope is the row filter repositories apply to job queries
type JobScope struct {
	Kind         JobScopeKind
	UserID       uuid.UUID
	DepartmentID *uuid.UUID
}

// JobScopeFor derives the list filter for actor
func JobScopeFor(actor domain.Actor) JobScope {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSales:
		return JobScope{Kind: JobScopeAll}
	case domain.RoleManager:
		return JobScope{Kind: JobScopeDepartment, UserID: actor.ID, DepartmentID: actor.DepartmentID}
	case domain.RoleTechnician:
		return JobScope{Kind: JobScopeTechnician, UserID: actor.ID}
	default:
		return JobScope{Kind: JobScopeNone}
	}
}

// CanViewJob is the single-row form of JobScopeFor. The job must have its
// roster loaded together with each technician's user record.
func CanViewJob(actor domain.Actor, job *domain.Job) bool {
	scope := JobScopeFor(actor)
	switch scope.Kind {
	case JobScopeAll:
		return true
	case JobScopeTechnician:
		return job.HasTechnician(actor.ID)
	case JobScopeDepartment:
		if len(job.Technicians) == 0 {
			return job.CreatedByUserID == actor.ID
		}
		for _, t := range job.Technicians {
			if t.User != nil && domain.SameDepartment(scope.DepartmentID, t.User.DepartmentID) {
				return true
			}
		}
	}
	return false
}

// JobFacts builds the facts used to authorize an action on job
func JobFacts(actor domain.Actor, job *domain.Job) Facts {
	f := Facts{
		IsAssignedTechnician: job.HasTechnician(actor.ID),
		IsCreator:            job.CreatedByUserID == actor.ID && len(job.Technicians) == 0,
	}
	if primary := job.PrimaryTechnician(); primary != nil {
		f.TargetRole = primary.Role
		f.TargetDepartmentID = primary.DepartmentID
	}
	return f
}
