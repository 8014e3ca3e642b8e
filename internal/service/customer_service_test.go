package service_test

import (
	"testing"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	sales := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleSales, nil))
	tech := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleTechnician, nil))

	t.Run("sales creates but cannot browse", func(t *testing.T) {
		dto, err := env.customers.Create(env.ctx, sales, &domain.CreateCustomerRequest{
			CompanyName: "  Song Hong Co  ",
			Phone:       "0903 123 456",
			Email:       "Info@SongHong.vn",
		})
		require.NoError(t, err)
		assert.Equal(t, "Song Hong Co", dto.CompanyName)
		assert.Equal(t, "+84903123456", dto.Phone)
		assert.Equal(t, "info@songhong.vn", dto.Email)

		_, _, err = env.customers.List(env.ctx, sales, 1, 20, "")
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = env.customers.GetByID(env.ctx, sales, dto.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("technician cannot create", func(t *testing.T) {
		_, err := env.customers.Create(env.ctx, tech, &domain.CreateCustomerRequest{CompanyName: "Nope"})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := env.customers.Create(env.ctx, admin, &domain.CreateCustomerRequest{CompanyName: "Bad Phone", Phone: "12"})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("search", func(t *testing.T) {
		testutil.CreateCustomer(t, env.db, "Mekong Logistics")
		found, total, err := env.customers.List(env.ctx, admin, 1, 20, "mekong")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Mekong Logistics", found[0].CompanyName)
	})

	t.Run("customer with jobs cannot be deleted", func(t *testing.T) {
		customer := testutil.CreateCustomer(t, env.db, "Busy Customer")
		testutil.CreateJob(t, env.db, customer.ID, domain.JobStatusNew, admin.ID)
		assert.ErrorIs(t, env.customers.Delete(env.ctx, admin, customer.ID), service.ErrConflict)
	})

	t.Run("delete removes contacts", func(t *testing.T) {
		customer := testutil.CreateCustomer(t, env.db, "Idle Customer")
		_, err := env.contacts.Create(env.ctx, admin, customer.ID, &domain.ContactRequest{FullName: "Le Van A"})
		require.NoError(t, err)

		require.NoError(t, env.customers.Delete(env.ctx, admin, customer.ID))
		_, err = env.customers.GetByID(env.ctx, admin, customer.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		var count int64
		env.db.Model(&domain.Contact{}).Where("customer_id = ?", customer.ID).Count(&count)
		assert.Zero(t, count)
	})
}

func TestContactService_SinglePrimary(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	customer := testutil.CreateCustomer(t, env.db, "Primary Test AS")

	first, err := env.contacts.Create(env.ctx, admin, customer.ID, &domain.ContactRequest{FullName: "Nguyen Thi B", IsPrimary: true})
	require.NoError(t, err)
	second, err := env.contacts.Create(env.ctx, admin, customer.ID, &domain.ContactRequest{FullName: "Tran Van C", IsPrimary: true})
	require.NoError(t, err)

	contacts, err := env.contacts.ListByCustomer(env.ctx, admin, customer.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	primaries := 0
	for _, c := range contacts {
		if c.IsPrimary {
			primaries++
			assert.Equal(t, second.ID, c.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	_, err = env.contacts.Create(env.ctx, admin, uuid.New(), &domain.ContactRequest{FullName: "Orphan"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	sales := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleSales, nil))
	assert.ErrorIs(t, env.contacts.Delete(env.ctx, sales, first.ID), service.ErrForbidden)
	require.NoError(t, env.contacts.Delete(env.ctx, admin, first.ID))
}

func TestProjectService(t *testing.T) {
	env := newTestEnv(t)
	sales := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleSales, nil))
	admin := env.admin(t)
	customer := testutil.CreateCustomer(t, env.db, "Project Owner AS")
	other := testutil.CreateCustomer(t, env.db, "Other Owner AS")

	project, err := env.projects.Create(env.ctx, sales, &domain.CreateProjectRequest{CustomerID: customer.ID, Name: "Office fit-out"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusPlanning, project.Status)

	_, err = env.projects.Create(env.ctx, sales, &domain.CreateProjectRequest{CustomerID: uuid.New(), Name: "Ghost"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	// a job may only reference a project of its own customer
	req := createJobRequest(other.ID)
	req.ProjectID = &project.ID
	_, err = env.jobs.Create(env.ctx, admin, req)
	assert.ErrorIs(t, err, service.ErrValidation)

	req = createJobRequest(customer.ID)
	req.ProjectID = &project.ID
	job, err := env.jobs.Create(env.ctx, admin, req)
	require.NoError(t, err)

	// deleting the project detaches its jobs
	require.NoError(t, env.projects.Delete(env.ctx, admin, project.ID))
	reloaded, err := env.jobs.Get(env.ctx, admin, job.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ProjectID)

	list, _, err := env.projects.List(env.ctx, sales, 1, 20, repository.ProjectFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserService(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	north := env.department(t, "North")
	south := env.department(t, "South")

	t.Run("first sign-in creates an unassigned user", func(t *testing.T) {
		actor, err := env.users.ResolveActor(env.ctx, domain.Identity{Subject: "sub-123", Email: "New.Person@Example.com", DisplayName: "New Person"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleNotAssign, actor.Role)
		assert.Equal(t, "new.person@example.com", actor.Email)

		again, err := env.users.ResolveActor(env.ctx, domain.Identity{Subject: "sub-123"})
		require.NoError(t, err)
		assert.Equal(t, actor.ID, again.ID)
	})

	t.Run("pre-registered user is matched by email", func(t *testing.T) {
		created, err := env.users.Create(env.ctx, admin, &domain.CreateUserRequest{
			Email: "tech@example.com", Role: domain.RoleTechnician, DepartmentID: &north.dept.ID,
		})
		require.NoError(t, err)

		actor, err := env.users.ResolveActor(env.ctx, domain.Identity{Subject: "sub-tech", Email: "TECH@example.com"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, actor.ID)
		assert.Equal(t, domain.RoleTechnician, actor.Role)
		assert.Equal(t, north.dept.ID, *actor.DepartmentID)
	})

	t.Run("empty identity", func(t *testing.T) {
		_, err := env.users.ResolveActor(env.ctx, domain.Identity{})
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})

	t.Run("managers list their own department", func(t *testing.T) {
		users, _, err := env.users.List(env.ctx, testutil.ActorFor(north.manager), 1, 50, repository.UserFilters{})
		require.NoError(t, err)
		require.NotEmpty(t, users)
		for _, u := range users {
			assert.Equal(t, north.dept.ID, *u.DepartmentID)
		}

		_, err = env.users.GetByID(env.ctx, testutil.ActorFor(north.manager), south.tech.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("only admins change roles", func(t *testing.T) {
		role := domain.RoleManager
		_, err := env.users.Update(env.ctx, testutil.ActorFor(north.manager), north.tech.ID, &domain.UpdateUserRequest{Role: &role})
		assert.ErrorIs(t, err, service.ErrForbidden)

		dto, err := env.users.Update(env.ctx, admin, north.tech.ID, &domain.UpdateUserRequest{Role: &role, DepartmentID: &south.dept.ID})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, dto.Role)
		assert.Equal(t, south.dept.ID, *dto.DepartmentID)

		bad := domain.Role("Owner")
		_, err = env.users.Update(env.ctx, admin, north.tech.ID, &domain.UpdateUserRequest{Role: &bad})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("unknown department", func(t *testing.T) {
		missing := uuid.New()
		_, err := env.users.Create(env.ctx, admin, &domain.CreateUserRequest{Email: "x@example.com", Role: domain.RoleSales, DepartmentID: &missing})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestDepartmentService(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	depts := service.NewDepartmentService(repository.NewDepartmentRepository(env.db), repository.NewUserRepository(env.db), testutil.NewTestLogger())

	dto, err := depts.Create(env.ctx, admin, &domain.DepartmentRequest{Name: "East"})
	require.NoError(t, err)

	_, err = depts.Create(env.ctx, admin, &domain.DepartmentRequest{Name: "East"})
	assert.ErrorIs(t, err, service.ErrConflict)

	testutil.CreateUser(t, env.db, domain.RoleTechnician, &dto.ID)
	assert.ErrorIs(t, depts.Delete(env.ctx, admin, dto.ID), service.ErrConflict)

	manager := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleManager, &dto.ID))
	_, err = depts.Create(env.ctx, manager, &domain.DepartmentRequest{Name: "West"})
	assert.ErrorIs(t, err, service.ErrForbidden)
}
