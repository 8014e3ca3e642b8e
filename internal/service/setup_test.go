package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"gorm.io/gorm"
)

// testEnv wires every service against one in-memory database the same way
// cmd/api does.
type testEnv struct {
	db        *gorm.DB
	ctx       context.Context
	jobs      *service.JobService
	reports   *service.JobReportService
	customers *service.CustomerService
	contacts  *service.ContactService
	projects  *service.ProjectService
	users     *service.UserService
	inventory *service.InventoryService
	catalog   *service.ServiceItemService
	audit     *service.AuditLogService
	sequences *service.NumberSequenceService
	importer  *service.LegacyImportService

	jobRepo *repository.JobRepository
	invRepo *repository.InventoryRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger()

	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	contactRepo := repository.NewContactRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	jobRepo := repository.NewJobRepository(db)
	lineItemRepo := repository.NewJobLineItemRepository(db)
	reportRepo := repository.NewJobReportRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	serviceItemRepo := repository.NewServiceItemRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	seq := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), log)

	return &testEnv{
		db:        db,
		ctx:       context.Background(),
		jobs:      service.NewJobService(jobRepo, lineItemRepo, userRepo, customerRepo, projectRepo, inventoryRepo, serviceItemRepo, seq, db, log),
		reports:   service.NewJobReportService(reportRepo, jobRepo, db, time.Minute, log),
		customers: service.NewCustomerService(customerRepo, contactRepo, db, log),
		contacts:  service.NewContactService(contactRepo, customerRepo, db, log),
		projects:  service.NewProjectService(projectRepo, customerRepo, log),
		users:     service.NewUserService(userRepo, deptRepo, log),
		inventory: service.NewInventoryService(inventoryRepo, db, time.UTC, log),
		catalog:   service.NewServiceItemService(serviceItemRepo, log),
		audit:     service.NewAuditLogService(auditRepo, log),
		sequences: seq,
		importer:  service.NewLegacyImportService(jobRepo, customerRepo, userRepo, seq, db, log),
		jobRepo:   jobRepo,
		invRepo:   inventoryRepo,
	}
}

// department fixture: one department with a manager and two technicians
type department struct {
	dept    *domain.Department
	manager *domain.User
	tech    *domain.User
	tech2   *domain.User
}

func (e *testEnv) department(t *testing.T, name string) department {
	t.Helper()
	d := testutil.CreateDepartment(t, e.db, name)
	return department{
		dept:    d,
		manager: testutil.CreateUser(t, e.db, domain.RoleManager, &d.ID),
		tech:    testutil.CreateUser(t, e.db, domain.RoleTechnician, &d.ID),
		tech2:   testutil.CreateUser(t, e.db, domain.RoleTechnician, &d.ID),
	}
}

func (e *testEnv) admin(t *testing.T) domain.Actor {
	t.Helper()
	return testutil.ActorFor(testutil.CreateUser(t, e.db, domain.RoleAdmin, nil))
}

func (e *testEnv) jobStatus(t *testing.T, id interface{}) domain.JobStatus {
	t.Helper()
	var job domain.Job
	if err := e.db.First(&job, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload job: %v", err)
	}
	return job.Status
}
