package policy_test

import (
	"testing"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func actor(role domain.Role, dept *uuid.UUID) domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: role, DepartmentID: dept}
}

func deptID() *uuid.UUID {
	id := uuid.New()
	return &id
}

func TestCan_RoleOnlyActions(t *testing.T) {
	tests := []struct {
		action  policy.Action
		allowed []domain.Role
	}{
		{policy.ViewCustomers, []domain.Role{domain.RoleAdmin, domain.RoleManager}},
		{policy.CreateCustomer, []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleSales}},
		{policy.DeleteCustomer, []domain.Role{domain.RoleAdmin, domain.RoleManager}},
		{policy.ViewInventory, []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleSales}},
		{policy.AdjustInventory, []domain.Role{domain.RoleAdmin, domain.RoleManager}},
		{policy.CreateJob, []domain.Role{domain.RoleAdmin, domain.RoleManager}},
		{policy.DeleteJob, []domain.Role{domain.RoleAdmin}},
		{policy.ViewJobs, []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleSales, domain.RoleTechnician}},
		{policy.ManageUsers, []domain.Role{domain.RoleAdmin}},
		{policy.ViewAuditLogs, []domain.Role{domain.RoleAdmin}},
		{policy.UploadMedia, []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			allowed := map[domain.Role]bool{}
			for _, r := range tt.allowed {
				allowed[r] = true
			}
			for _, role := range domain.AllRoles {
				got := policy.HasRole(actor(role, nil), tt.action)
				assert.Equal(t, allowed[role], got, "role %s", role)
			}
		})
	}
}

func TestCan_NotAssignIsDeniedEverything(t *testing.T) {
	a := actor(domain.RoleNotAssign, deptID())
	facts := policy.Facts{IsAssignedTechnician: true, IsCreator: true}
	for _, action := range []policy.Action{
		policy.ViewJobs, policy.SubmitJobReport, policy.EditJob, policy.ViewCustomers, policy.UploadMedia,
	} {
		assert.False(t, policy.Can(a, action, facts), "action %s", action)
	}
}

func TestCan_UnknownRoleAndAction(t *testing.T) {
	assert.False(t, policy.HasRole(domain.Actor{Role: "Owner"}, policy.ViewJobs))
	assert.False(t, policy.HasRole(actor(domain.RoleAdmin, nil), policy.Action("jobs:teleport")))
}

func TestCan_ApproveAndFinalize(t *testing.T) {
	dept := deptID()
	other := deptID()

	t.Run("admin approves any job", func(t *testing.T) {
		assert.True(t, policy.Can(actor(domain.RoleAdmin, nil), policy.ApproveJob, policy.Facts{}))
		assert.True(t, policy.Can(actor(domain.RoleAdmin, nil), policy.FinalizeJob, policy.Facts{}))
	})

	t.Run("manager approves own department", func(t *testing.T) {
		m := actor(domain.RoleManager, dept)
		assert.True(t, policy.Can(m, policy.ApproveJob, policy.Facts{TargetDepartmentID: dept}))
		assert.True(t, policy.Can(m, policy.FinalizeJob, policy.Facts{TargetDepartmentID: dept}))
	})

	t.Run("manager cannot approve other department", func(t *testing.T) {
		m := actor(domain.RoleManager, dept)
		assert.False(t, policy.Can(m, policy.ApproveJob, policy.Facts{TargetDepartmentID: other}))
	})

	t.Run("manager without department or job without technician", func(t *testing.T) {
		assert.False(t, policy.Can(actor(domain.RoleManager, nil), policy.ApproveJob, policy.Facts{TargetDepartmentID: dept}))
		assert.False(t, policy.Can(actor(domain.RoleManager, dept), policy.ApproveJob, policy.Facts{}))
	})

	t.Run("creator status does not grant approval", func(t *testing.T) {
		m := actor(domain.RoleManager, dept)
		assert.False(t, policy.Can(m, policy.ApproveJob, policy.Facts{TargetDepartmentID: other, IsCreator: true}))
	})

	t.Run("sales and technicians never approve", func(t *testing.T) {
		facts := policy.Facts{TargetDepartmentID: dept, IsAssignedTechnician: true}
		assert.False(t, policy.Can(actor(domain.RoleSales, dept), policy.ApproveJob, facts))
		assert.False(t, policy.Can(actor(domain.RoleTechnician, dept), policy.ApproveJob, facts))
	})
}

func TestCan_EditJob(t *testing.T) {
	dept := deptID()
	m := actor(domain.RoleManager, dept)

	assert.True(t, policy.Can(m, policy.EditJob, policy.Facts{IsCreator: true}))
	assert.True(t, policy.Can(m, policy.EditJob, policy.Facts{TargetDepartmentID: dept}))
	assert.False(t, policy.Can(m, policy.EditJob, policy.Facts{TargetDepartmentID: deptID()}))
	assert.False(t, policy.Can(actor(domain.RoleTechnician, dept), policy.EditJob, policy.Facts{IsAssignedTechnician: true}))
}

func TestCan_SubmitJobReport(t *testing.T) {
	tech := actor(domain.RoleTechnician, nil)
	assert.True(t, policy.Can(tech, policy.SubmitJobReport, policy.Facts{IsAssignedTechnician: true}))
	assert.False(t, policy.Can(tech, policy.SubmitJobReport, policy.Facts{}))
	assert.True(t, policy.Can(actor(domain.RoleManager, nil), policy.SubmitJobReport, policy.Facts{}))
	assert.False(t, policy.Can(actor(domain.RoleSales, nil), policy.SubmitJobReport, policy.Facts{IsAssignedTechnician: true}))
}

func TestCanAssign(t *testing.T) {
	dept := deptID()
	m := actor(domain.RoleManager, dept)

	tests := []struct {
		name   string
		actor  domain.Actor
		target domain.User
		want   bool
	}{
		{"admin assigns anyone", actor(domain.RoleAdmin, nil), domain.User{Role: domain.RoleSales}, true},
		{"manager assigns own technician", m, domain.User{Role: domain.RoleTechnician, DepartmentID: dept}, true},
		{"manager cannot assign foreign technician", m, domain.User{Role: domain.RoleTechnician, DepartmentID: deptID()}, false},
		{"manager cannot assign unplaced technician", m, domain.User{Role: domain.RoleTechnician}, false},
		{"manager cannot assign a manager", m, domain.User{Role: domain.RoleManager, DepartmentID: dept}, false},
		{"technician cannot assign", actor(domain.RoleTechnician, dept), domain.User{Role: domain.RoleTechnician, DepartmentID: dept}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanAssign(tt.actor, tt.target))
		})
	}
}

func TestFirstUnassignable(t *testing.T) {
	dept := deptID()
	m := actor(domain.RoleManager, dept)
	ok1 := domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Role: domain.RoleTechnician, DepartmentID: dept}
	ok2 := domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Role: domain.RoleTechnician, DepartmentID: dept}
	bad := domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Role: domain.RoleTechnician, DepartmentID: deptID()}

	_, denied := policy.FirstUnassignable(m, []domain.User{ok1, ok2})
	assert.False(t, denied)

	// The check covers every entry, not only the primary one
	id, denied := policy.FirstUnassignable(m, []domain.User{ok1, ok2, bad})
	assert.True(t, denied)
	assert.Equal(t, bad.ID, id)
}

func TestGranted(t *testing.T) {
	admin := policy.Granted(actor(domain.RoleAdmin, nil))
	assert.Contains(t, admin, string(policy.ViewAuditLogs))
	assert.IsIncreasing(t, admin)

	tech := policy.Granted(actor(domain.RoleTechnician, nil))
	assert.ElementsMatch(t, []string{string(policy.ViewJobs), string(policy.UploadMedia)}, tech)

	assert.Empty(t, policy.Granted(actor(domain.RoleNotAssign, nil)))
}

func TestJobScopeAndVisibility(t *testing.T) {
	dept := deptID()
	manager := actor(domain.RoleManager, dept)
	tech := actor(domain.RoleTechnician, dept)
	colleague := &domain.User{BaseModel: domain.BaseModel{ID: tech.ID}, Role: domain.RoleTechnician, DepartmentID: dept}
	stranger := &domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Role: domain.RoleTechnician, DepartmentID: deptID()}

	ownJob := &domain.Job{Technicians: []domain.JobTechnician{{UserID: colleague.ID, User: colleague}}}
	foreignJob := &domain.Job{Technicians: []domain.JobTechnician{{UserID: stranger.ID, User: stranger}}}
	createdJob := &domain.Job{CreatedByUserID: manager.ID}

	assert.Equal(t, policy.JobScopeAll, policy.JobScopeFor(actor(domain.RoleSales, nil)).Kind)
	assert.Equal(t, policy.JobScopeNone, policy.JobScopeFor(actor(domain.RoleNotAssign, nil)).Kind)

	assert.True(t, policy.CanViewJob(manager, ownJob))
	assert.True(t, policy.CanViewJob(manager, createdJob))
	assert.False(t, policy.CanViewJob(manager, foreignJob))
	assert.True(t, policy.JobFacts(manager, createdJob).IsCreator)

	// once staffed elsewhere, the creating manager loses the job
	movedJob := &domain.Job{CreatedByUserID: manager.ID, Technicians: foreignJob.Technicians}
	assert.False(t, policy.CanViewJob(manager, movedJob))
	movedFacts := policy.JobFacts(manager, movedJob)
	assert.False(t, movedFacts.IsCreator)
	assert.False(t, policy.Can(manager, policy.EditJob, movedFacts))

	assert.True(t, policy.CanViewJob(tech, ownJob))
	assert.False(t, policy.CanViewJob(tech, foreignJob))

	facts := policy.JobFacts(tech, ownJob)
	assert.True(t, facts.IsAssignedTechnician)
	assert.Equal(t, domain.RoleTechnician, facts.TargetRole)
	assert.Equal(t, dept, facts.TargetDepartmentID)
}

func pricedJob() *domain.JobDTO {
	price := decimal.NewFromInt(250)
	total := decimal.NewFromInt(500)
	return &domain.JobDTO{
		Customer: &domain.CustomerDTO{
			ID:          uuid.New(),
			CompanyName: "Fjord Bygg AS",
			Phone:       "+4722334455",
			TaxCode:     "987654321",
		},
		TotalAmount: &total,
		LineItems: []domain.LineItemDTO{
			{
				Kind:      domain.LineItemKindMaterial,
				Quantity:  2,
				UnitPrice: &price,
				LineTotal: &total,
				Material:  &domain.MaterialDTO{ProductCode: "P-1", Price: &price},
			},
			{
				Kind:      domain.LineItemKindService,
				Quantity:  1,
				UnitPrice: &price,
				LineTotal: &price,
				Service:   &domain.ServiceDTO{Name: "Inspection", Price: &price},
			},
		},
	}
}

func TestSanitizeJob(t *testing.T) {
	t.Run("technician loses every price", func(t *testing.T) {
		job := policy.SanitizeJob(domain.RoleTechnician, pricedJob())
		assert.Nil(t, job.TotalAmount)
		for _, li := range job.LineItems {
			assert.Nil(t, li.UnitPrice)
			assert.Nil(t, li.LineTotal)
		}
		assert.Nil(t, job.LineItems[0].Material.Price)
		assert.Equal(t, "P-1", job.LineItems[0].Material.ProductCode)
		assert.Nil(t, job.LineItems[1].Service.Price)
		assert.Equal(t, "Fjord Bygg AS", job.Customer.CompanyName)
	})

	t.Run("sales sees a reduced customer", func(t *testing.T) {
		job := policy.SanitizeJob(domain.RoleSales, pricedJob())
		assert.Equal(t, "Fjord Bygg AS", job.Customer.CompanyName)
		assert.NotEqual(t, uuid.Nil, job.Customer.ID)
		assert.Empty(t, job.Customer.Phone)
		assert.Empty(t, job.Customer.TaxCode)
		assert.NotNil(t, job.TotalAmount)
	})

	t.Run("admin and manager are untouched", func(t *testing.T) {
		for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleManager} {
			job := policy.SanitizeJob(role, pricedJob())
			assert.NotNil(t, job.TotalAmount)
			assert.Equal(t, "+4722334455", job.Customer.Phone)
			assert.NotNil(t, job.LineItems[0].Material.Price)
		}
	})

	t.Run("nil job", func(t *testing.T) {
		assert.Nil(t, policy.SanitizeJob(domain.RoleTechnician, nil))
	})
}
