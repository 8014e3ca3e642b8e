package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createJobRequest(customerID uuid.UUID, technicians ...uuid.UUID) *domain.CreateJobRequest {
	start := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	return &domain.CreateJobRequest{
		CustomerID:         customerID,
		JobType:            "repair",
		ScheduledStartTime: &start,
		ScheduledEndTime:   &end,
		TechnicianIDs:      technicians,
	}
}

func TestJobService_Create(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	customer := testutil.CreateCustomer(t, env.db, "Fjord Bygg AS")
	product := testutil.CreateProduct(t, env.db, "PUMP-10", 1200)
	inspection := testutil.CreateServiceItem(t, env.db, "Inspection", 450)

	t.Run("generated code, roster and priced line items", func(t *testing.T) {
		req := createJobRequest(customer.ID, north.tech.ID, north.tech2.ID)
		req.JobType = "Sửa chữa"
		req.LineItems = []domain.LineItemRequest{
			{Kind: domain.LineItemKindMaterial, ProductID: &product.ID, Quantity: 2},
			{Kind: domain.LineItemKindService, ServiceItemID: &inspection.ID, Quantity: 1},
		}

		job, err := env.jobs.Create(env.ctx, admin, req)
		require.NoError(t, err)

		assert.Regexp(t, `^JOB-2026-\d{5}$`, job.JobCode)
		assert.Equal(t, domain.JobStatusAssigned, job.Status)
		assert.Equal(t, domain.JobTypeRepair, job.JobType)
		require.Len(t, job.Technicians, 2)
		assert.Equal(t, north.tech.ID, *job.AssignedTechnicianID)
		assert.Equal(t, north.tech2.ID, job.Technicians[1].UserID)
		require.Len(t, job.LineItems, 2)
		require.NotNil(t, job.TotalAmount)
		assert.True(t, decimal.NewFromInt(2850).Equal(*job.TotalAmount), "total was %s", job.TotalAmount)
	})

	t.Run("codes are sequential within the year", func(t *testing.T) {
		first, err := env.jobs.Create(env.ctx, admin, createJobRequest(customer.ID))
		require.NoError(t, err)
		second, err := env.jobs.Create(env.ctx, admin, createJobRequest(customer.ID))
		require.NoError(t, err)

		y1, s1, ok := service.ParseJobCode(first.JobCode)
		require.True(t, ok)
		y2, s2, ok := service.ParseJobCode(second.JobCode)
		require.True(t, ok)
		assert.Equal(t, 2026, y1)
		assert.Equal(t, y1, y2)
		assert.Equal(t, s1+1, s2)
	})

	t.Run("supplied code reserves the sequence", func(t *testing.T) {
		req := createJobRequest(customer.ID)
		req.JobCode = "JOB-2026-00500"
		_, err := env.jobs.Create(env.ctx, admin, req)
		require.NoError(t, err)

		next, err := env.jobs.Create(env.ctx, admin, createJobRequest(customer.ID))
		require.NoError(t, err)
		assert.Equal(t, "JOB-2026-00501", next.JobCode)
	})

	t.Run("duplicate supplied code conflicts", func(t *testing.T) {
		req := createJobRequest(customer.ID)
		req.JobCode = "JOB-2026-00500"
		_, err := env.jobs.Create(env.ctx, admin, req)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("end before start", func(t *testing.T) {
		req := createJobRequest(customer.ID)
		before := req.ScheduledStartTime.Add(-time.Hour)
		req.ScheduledEndTime = &before
		_, err := env.jobs.Create(env.ctx, admin, req)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := env.jobs.Create(env.ctx, admin, createJobRequest(uuid.New()))
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("material line needs a product", func(t *testing.T) {
		req := createJobRequest(customer.ID)
		req.LineItems = []domain.LineItemRequest{{Kind: domain.LineItemKindMaterial, Quantity: 1}}
		_, err := env.jobs.Create(env.ctx, admin, req)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("technician cannot create jobs", func(t *testing.T) {
		_, err := env.jobs.Create(env.ctx, testutil.ActorFor(north.tech), createJobRequest(customer.ID))
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestJobService_ManagerAssignment(t *testing.T) {
	env := newTestEnv(t)
	north := env.department(t, "North")
	south := env.department(t, "South")
	customer := testutil.CreateCustomer(t, env.db, "Kyst Elektro AS")
	manager := testutil.ActorFor(north.manager)

	t.Run("own technicians", func(t *testing.T) {
		job, err := env.jobs.Create(env.ctx, manager, createJobRequest(customer.ID, north.tech.ID, north.tech2.ID))
		require.NoError(t, err)
		assert.Len(t, job.Technicians, 2)
	})

	t.Run("foreign technician in a later position is still rejected", func(t *testing.T) {
		_, err := env.jobs.Create(env.ctx, manager, createJobRequest(customer.ID, north.tech.ID, south.tech.ID))
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("reassigning an existing job", func(t *testing.T) {
		job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusNew, north.manager.ID)

		_, err := env.jobs.AssignTechnicians(env.ctx, manager, job.ID, []uuid.UUID{south.tech.ID})
		assert.ErrorIs(t, err, service.ErrForbidden)

		dto, err := env.jobs.AssignTechnicians(env.ctx, manager, job.ID, []uuid.UUID{north.tech2.ID, north.tech2.ID})
		require.NoError(t, err)
		assert.Len(t, dto.Technicians, 1)
		assert.Equal(t, domain.JobStatusAssigned, dto.Status)
	})

	t.Run("staffing a job created by someone else", func(t *testing.T) {
		admin := env.admin(t)
		job, err := env.jobs.Create(env.ctx, admin, createJobRequest(customer.ID))
		require.NoError(t, err)
		require.Empty(t, job.Technicians)

		_, err = env.jobs.AssignTechnicians(env.ctx, manager, job.ID, []uuid.UUID{south.tech.ID})
		assert.ErrorIs(t, err, service.ErrForbidden)

		dto, err := env.jobs.AssignTechnicians(env.ctx, manager, job.ID, []uuid.UUID{north.tech.ID})
		require.NoError(t, err)
		require.Len(t, dto.Technicians, 1)
		assert.Equal(t, north.tech.ID, dto.Technicians[0].UserID)

		// a job already staffed by another department stays out of reach
		foreign, err := env.jobs.Create(env.ctx, admin, createJobRequest(customer.ID, south.tech.ID))
		require.NoError(t, err)
		_, err = env.jobs.AssignTechnicians(env.ctx, manager, foreign.ID, []uuid.UUID{north.tech.ID})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("staffing through an update", func(t *testing.T) {
		job, err := env.jobs.Create(env.ctx, env.admin(t), createJobRequest(customer.ID))
		require.NoError(t, err)

		ids := []uuid.UUID{north.tech2.ID}
		dto, err := env.jobs.Update(env.ctx, manager, job.ID, &domain.UpdateJobRequest{TechnicianIDs: &ids})
		require.NoError(t, err)
		require.Len(t, dto.Technicians, 1)

		notes := "no roster change"
		other, err := env.jobs.Create(env.ctx, env.admin(t), createJobRequest(customer.ID))
		require.NoError(t, err)
		_, err = env.jobs.Update(env.ctx, manager, other.ID, &domain.UpdateJobRequest{Notes: &notes})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("unknown technician", func(t *testing.T) {
		_, err := env.jobs.Create(env.ctx, manager, createJobRequest(customer.ID, uuid.New()))
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestJobService_ApproveFromEveryStatus(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	customer := testutil.CreateCustomer(t, env.db, "Vik Rør AS")

	for _, status := range []domain.JobStatus{
		domain.JobStatusNew,
		domain.JobStatusAssigned,
		domain.JobStatusPendingApproval,
		domain.JobStatusApproved,
		domain.JobStatusFinalized,
	} {
		t.Run(string(status), func(t *testing.T) {
			job := testutil.CreateJob(t, env.db, customer.ID, status, admin.ID, north.tech.ID)

			dto, err := env.jobs.Approve(env.ctx, admin, job.ID)
			if status != domain.JobStatusPendingApproval {
				assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
				assert.Equal(t, status, env.jobStatus(t, job.ID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.JobStatusApproved, dto.Status)
			assert.NotNil(t, dto.ActualEndTime)
		})
	}

	t.Run("missing job", func(t *testing.T) {
		_, err := env.jobs.Approve(env.ctx, admin, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestJobService_DepartmentScopedApproval(t *testing.T) {
	env := newTestEnv(t)
	north := env.department(t, "North")
	south := env.department(t, "South")
	customer := testutil.CreateCustomer(t, env.db, "Berg Ventilasjon AS")
	northManager := testutil.ActorFor(north.manager)
	southManager := testutil.ActorFor(south.manager)

	job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusPendingApproval, uuid.Nil, north.tech.ID)

	_, err := env.jobs.Approve(env.ctx, southManager, job.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.Equal(t, domain.JobStatusPendingApproval, env.jobStatus(t, job.ID))

	_, err = env.jobs.Approve(env.ctx, testutil.ActorFor(north.tech), job.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	approved, err := env.jobs.Approve(env.ctx, northManager, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusApproved, approved.Status)

	_, err = env.jobs.Finalize(env.ctx, southManager, job.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	finalized, err := env.jobs.Finalize(env.ctx, northManager, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFinalized, finalized.Status)
	assert.NotNil(t, finalized.FinalizedAt)

	notes := "one more visit"
	_, err = env.jobs.Update(env.ctx, northManager, job.ID, &domain.UpdateJobRequest{Notes: &notes})
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)

	_, err = env.jobs.AssignTechnicians(env.ctx, northManager, job.ID, []uuid.UUID{north.tech2.ID})
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestJobService_Reject(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	customer := testutil.CreateCustomer(t, env.db, "Nord Tak AS")

	job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusPendingApproval, admin.ID, north.tech.ID)

	dto, err := env.jobs.Reject(env.ctx, testutil.ActorFor(north.manager), job.ID, "photos are blurry")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAssigned, dto.Status)
	assert.Contains(t, dto.Notes, "Rejected: photos are blurry")

	_, err = env.jobs.Reject(env.ctx, admin, job.ID, "")
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestJobService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	customer := testutil.CreateCustomer(t, env.db, "Lys og Varme AS")

	t.Run("pending approval only through a report", func(t *testing.T) {
		job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusAssigned, admin.ID, north.tech.ID)
		status := "pending_approval"
		_, err := env.jobs.Update(env.ctx, admin, job.ID, &domain.UpdateJobRequest{Status: &status})
		assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
	})

	t.Run("skipping a step", func(t *testing.T) {
		job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusAssigned, admin.ID, north.tech.ID)
		status := "finalized"
		_, err := env.jobs.Update(env.ctx, admin, job.ID, &domain.UpdateJobRequest{Status: &status})
		assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
	})

	t.Run("approve by label", func(t *testing.T) {
		job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusPendingApproval, admin.ID, north.tech.ID)
		status := "Đã duyệt"
		dto, err := env.jobs.Update(env.ctx, admin, job.ID, &domain.UpdateJobRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusApproved, dto.Status)
	})

	t.Run("technician cannot edit", func(t *testing.T) {
		job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusAssigned, admin.ID, north.tech.ID)
		notes := "done early"
		_, err := env.jobs.Update(env.ctx, testutil.ActorFor(north.tech), job.ID, &domain.UpdateJobRequest{Notes: &notes})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestJobService_VisibilityAndRedaction(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	south := env.department(t, "South")
	sales := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleSales, nil))
	customer := testutil.CreateCustomer(t, env.db, "Havn Service AS")
	product := testutil.CreateProduct(t, env.db, "VALVE-3", 300)

	req := createJobRequest(customer.ID, north.tech.ID)
	req.LineItems = []domain.LineItemRequest{{Kind: domain.LineItemKindMaterial, ProductID: &product.ID, Quantity: 1}}
	northJob, err := env.jobs.Create(env.ctx, admin, req)
	require.NoError(t, err)
	_, err = env.jobs.Create(env.ctx, admin, createJobRequest(customer.ID, south.tech.ID))
	require.NoError(t, err)

	list := func(actor domain.Actor) []domain.JobDTO {
		jobs, _, err := env.jobs.List(env.ctx, actor, repository.JobFilters{}, repository.SortConfig{}, 1, 20)
		require.NoError(t, err)
		return jobs
	}

	assert.Len(t, list(admin), 2)
	assert.Len(t, list(sales), 2)

	techJobs := list(testutil.ActorFor(north.tech))
	require.Len(t, techJobs, 1)
	assert.Equal(t, northJob.ID, techJobs[0].ID)
	assert.Nil(t, techJobs[0].TotalAmount)
	assert.Nil(t, techJobs[0].LineItems[0].UnitPrice)
	assert.Nil(t, techJobs[0].LineItems[0].Material.Price)

	managerJobs := list(testutil.ActorFor(north.manager))
	require.Len(t, managerJobs, 1)
	assert.NotNil(t, managerJobs[0].TotalAmount)

	salesView, err := env.jobs.Get(env.ctx, sales, northJob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Havn Service AS", salesView.Customer.CompanyName)
	assert.Empty(t, salesView.Customer.Phone)

	_, err = env.jobs.Get(env.ctx, testutil.ActorFor(south.tech), northJob.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	t.Run("creator loses a job moved to another department", func(t *testing.T) {
		northManager := testutil.ActorFor(north.manager)
		created, err := env.jobs.Create(env.ctx, northManager, createJobRequest(customer.ID))
		require.NoError(t, err)
		_, err = env.jobs.Get(env.ctx, northManager, created.ID)
		require.NoError(t, err)
		require.Len(t, list(northManager), 2)

		_, err = env.jobs.AssignTechnicians(env.ctx, admin, created.ID, []uuid.UUID{south.tech.ID})
		require.NoError(t, err)

		managerJobs := list(northManager)
		require.Len(t, managerJobs, 1)
		assert.Equal(t, northJob.ID, managerJobs[0].ID)
		_, err = env.jobs.Get(env.ctx, northManager, created.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	_, _, err = env.jobs.List(env.ctx, testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleNotAssign, nil)),
		repository.JobFilters{}, repository.SortConfig{}, 1, 20)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestJobService_LineItemsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	customer := testutil.CreateCustomer(t, env.db, "Sjø Maskin AS")
	product := testutil.CreateProduct(t, env.db, "FILTER-1", 80)

	job := testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusAssigned, admin.ID, north.tech.ID)
	override := decimal.NewFromInt(60)

	dto, err := env.jobs.AddLineItem(env.ctx, admin, job.ID, &domain.LineItemRequest{
		Kind: domain.LineItemKindMaterial, ProductID: &product.ID, Quantity: 3, UnitPrice: &override,
	})
	require.NoError(t, err)
	require.Len(t, dto.LineItems, 1)
	assert.True(t, decimal.NewFromInt(180).Equal(*dto.TotalAmount))

	quantity := 5.0
	note := "replaced twice"
	dto, err = env.jobs.UpdateLineItem(env.ctx, admin, job.ID, dto.LineItems[0].ID, &domain.UpdateLineItemRequest{
		Quantity: &quantity, Description: &note,
	})
	require.NoError(t, err)
	require.Len(t, dto.LineItems, 1)
	assert.Equal(t, 5.0, dto.LineItems[0].Quantity)
	assert.Equal(t, "replaced twice", dto.LineItems[0].Description)
	assert.True(t, decimal.NewFromInt(300).Equal(*dto.TotalAmount), "total was %s", dto.TotalAmount)

	zero := 0.0
	_, err = env.jobs.UpdateLineItem(env.ctx, admin, job.ID, dto.LineItems[0].ID, &domain.UpdateLineItemRequest{Quantity: &zero})
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = env.jobs.UpdateLineItem(env.ctx, admin, job.ID, uuid.New(), &domain.UpdateLineItemRequest{Quantity: &quantity})
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = env.jobs.UpdateLineItem(env.ctx, testutil.ActorFor(north.tech), job.ID, dto.LineItems[0].ID, &domain.UpdateLineItemRequest{Quantity: &quantity})
	assert.ErrorIs(t, err, service.ErrForbidden)

	dto, err = env.jobs.RemoveLineItem(env.ctx, admin, job.ID, dto.LineItems[0].ID)
	require.NoError(t, err)
	assert.Empty(t, dto.LineItems)

	_, err = env.jobs.RemoveLineItem(env.ctx, admin, job.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, env.jobs.Delete(env.ctx, testutil.ActorFor(north.manager), job.ID), service.ErrForbidden)
	require.NoError(t, env.jobs.Delete(env.ctx, admin, job.ID))
	assert.ErrorIs(t, env.jobs.Delete(env.ctx, admin, job.ID), service.ErrNotFound)
}

func TestJobService_StatusSummaryAndSearch(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	south := env.department(t, "South")
	harbour := testutil.CreateCustomer(t, env.db, "Bến Cảng Logistics")
	other := testutil.CreateCustomer(t, env.db, "Nam Long Co")

	testutil.CreateJob(t, env.db, harbour.ID, domain.JobStatusAssigned, admin.ID, north.tech.ID)
	testutil.CreateJob(t, env.db, harbour.ID, domain.JobStatusPendingApproval, admin.ID, north.tech.ID)
	testutil.CreateJob(t, env.db, other.ID, domain.JobStatusAssigned, admin.ID, south.tech.ID)

	counts := func(actor domain.Actor) map[domain.JobStatus]int64 {
		summary, err := env.jobs.StatusSummary(env.ctx, actor)
		require.NoError(t, err)
		require.Len(t, summary, len(domain.JobStatuses()))
		out := map[domain.JobStatus]int64{}
		for _, row := range summary {
			assert.Equal(t, row.Status.Label(), row.Label)
			out[row.Status] = row.Count
		}
		return out
	}

	all := counts(admin)
	assert.Equal(t, int64(2), all[domain.JobStatusAssigned])
	assert.Equal(t, int64(1), all[domain.JobStatusPendingApproval])
	assert.Zero(t, all[domain.JobStatusFinalized])

	northOnly := counts(testutil.ActorFor(north.manager))
	assert.Equal(t, int64(1), northOnly[domain.JobStatusAssigned])
	assert.Equal(t, int64(1), northOnly[domain.JobStatusPendingApproval])

	_, err := env.jobs.StatusSummary(env.ctx, testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleNotAssign, nil)))
	assert.ErrorIs(t, err, service.ErrForbidden)

	found, total, err := env.jobs.List(env.ctx, admin, repository.JobFilters{Search: "LOGISTICS"}, repository.SortConfig{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, j := range found {
		assert.Equal(t, harbour.ID, j.CustomerID)
	}
}

func TestErrorKinds(t *testing.T) {
	err := &service.Error{Kind: service.ErrConflict, Message: "Job code taken", Err: errors.New("duplicate key")}
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.NotErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, "Job code taken", err.Error())
}
