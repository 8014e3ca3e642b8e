package policy

import (
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
)

// CanAssign reports whether actor may put target on a job roster. Admins may
// assign anyone; a Manager only a Technician of the Manager's own department.
func CanAssign(actor domain.Actor, target domain.User) bool {
	return Can(actor, AssignTechnician, Facts{
		TargetRole:         target.Role,
		TargetDepartmentID: target.DepartmentID,
	})
}

// FirstUnassignable checks every requested technician and returns the id of
// the first one actor may not assign. ok is false when all pass.
func FirstUnassignable(actor domain.Actor, targets []domain.User) (id uuid.UUID, ok bool) {
	for _, t := range targets {
		if !CanAssign(actor, t) {
			return t.ID, true
		}
	}
	return uuid.Nil, false
}
