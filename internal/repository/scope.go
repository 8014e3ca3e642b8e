package repository

import (
	"strings"

	"github.com/fieldops/backoffice-api/internal/policy"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// DefaultPageSize is used when the caller does not ask for a size
const DefaultPageSize = 20

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // API field name
	Order SortOrder // asc or desc
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause maps an API field to a whitelisted column. Unknown
// fields fall back to defaultColumn.
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// NormalizePage clamps page and limit to sane values
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Paginate applies offset and limit for a normalized page
func Paginate(query *gorm.DB, page, limit int) *gorm.DB {
	return query.Offset((page - 1) * limit).Limit(limit)
}

// ApplyJobScope restricts a jobs query to the rows the scope may see
func ApplyJobScope(query *gorm.DB, scope policy.JobScope) *gorm.DB {
	switch scope.Kind {
	case policy.JobScopeAll:
		return query
	case policy.JobScopeTechnician:
		return query.Where(
			"EXISTS (SELECT 1 FROM job_technicians jt WHERE jt.job_id = jobs.id AND jt.user_id = ?)",
			scope.UserID,
		)
	case policy.JobScopeDepartment:
		unstaffed := "jobs.created_by_user_id = ? AND NOT EXISTS (SELECT 1 FROM job_technicians jt WHERE jt.job_id = jobs.id)"
		if scope.DepartmentID == nil {
			return query.Where(unstaffed, scope.UserID)
		}
		return query.Where(
			"(("+unstaffed+") OR EXISTS (SELECT 1 FROM job_technicians jt JOIN users u ON u.id = jt.user_id WHERE jt.job_id = jobs.id AND u.department_id = ?))",
			scope.UserID, *scope.DepartmentID,
		)
	default:
		return query.Where("1 = 0")
	}
}
