package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldops/backoffice-api/internal/auth"
	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/http/handler"
	"github.com/fieldops/backoffice-api/internal/http/middleware"
	"github.com/fieldops/backoffice-api/internal/http/router"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/storage"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testAPIKey = "integration-key"

// subjectValidator treats the bearer token as the identity subject
type subjectValidator struct{}

func (subjectValidator) ValidateToken(ctx context.Context, token string) (domain.Identity, error) {
	return domain.Identity{Subject: token}, nil
}

func newServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger()
	cfg := &config.Config{App: config.AppConfig{Environment: "development"}}

	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	contactRepo := repository.NewContactRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	jobRepo := repository.NewJobRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	serviceItemRepo := repository.NewServiceItemRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	seq := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), log)

	users := service.NewUserService(userRepo, deptRepo, log)
	jobs := service.NewJobService(jobRepo, repository.NewJobLineItemRepository(db), userRepo, customerRepo, projectRepo,
		inventoryRepo, serviceItemRepo, seq, db, log)
	reports := service.NewJobReportService(repository.NewJobReportRepository(db), jobRepo, db, 0, log)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rt := router.NewRouter(cfg, log, db,
		auth.NewMiddlewareWithValidator(subjectValidator{}, users, testAPIKey, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		middleware.NewAuditMiddleware(nil, nil, log),
		router.Handlers{
			Auth:      handler.NewAuthHandler(log),
			User:      handler.NewUserHandler(users, service.NewDepartmentService(deptRepo, userRepo, log), log),
			Customer:  handler.NewCustomerHandler(service.NewCustomerService(customerRepo, contactRepo, db, log), service.NewContactService(contactRepo, customerRepo, db, log), log),
			Project:   handler.NewProjectHandler(service.NewProjectService(projectRepo, customerRepo, log), log),
			Job:       handler.NewJobHandler(jobs, reports, log),
			JobReport: handler.NewJobReportHandler(reports, log),
			Catalog:   handler.NewCatalogHandler(service.NewServiceItemService(serviceItemRepo, log), log),
			Inventory: handler.NewInventoryHandler(service.NewInventoryService(inventoryRepo, db, time.UTC, log), log),
			Media:     handler.NewMediaHandler(service.NewMediaService(store, 1<<20, log), log),
			Audit:     handler.NewAuditHandler(service.NewAuditLogService(auditRepo, log), log),
		})
	return rt.Setup(), db
}

func call(t *testing.T, h http.Handler, method, path string, user *domain.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+*user.ExternalID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newServer(t)
	for _, path := range []string{"/health", "/health/db", "/health/ready"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPIKeyActsAsAdmin(t *testing.T) {
	h, _ := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("x-api-key", testAPIKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me domain.ActorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, domain.RoleAdmin, me.Role)
	assert.Contains(t, me.Permissions, "users:manage")

	rec = call(t, h, http.MethodGet, "/api/jobs", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A technician reports with a voice note only, a manager of another
// department is refused, and the job's own manager approves it.
func TestReportAndDepartmentApproval(t *testing.T) {
	h, db := newServer(t)
	construction := testutil.CreateDepartment(t, db, "Thi công")
	design := testutil.CreateDepartment(t, db, "Thiết kế")

	techA := testutil.CreateUser(t, db, domain.RoleTechnician, &construction.ID)
	managerB := testutil.CreateUser(t, db, domain.RoleManager, &design.ID)
	managerC := testutil.CreateUser(t, db, domain.RoleManager, &construction.ID)
	admin := testutil.CreateUser(t, db, domain.RoleAdmin, nil)

	customer := testutil.CreateCustomer(t, db, "Phu Gia Co")
	job := testutil.CreateJob(t, db, customer.ID, domain.JobStatusAssigned, admin.ID, techA.ID)
	jobPath := "/api/jobs/" + job.ID.String()

	rec := call(t, h, http.MethodPost, jobPath+"/reports", techA, map[string]interface{}{
		"problem_summary":   "Pump noise",
		"voice_message_url": "/api/media/reports/2026/05/note.m4a",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, jobPath, techA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto domain.JobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, domain.JobStatusPendingApproval, dto.Status)

	rec = call(t, h, http.MethodPost, jobPath+"/approve", managerB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h, http.MethodPost, jobPath+"/approve", managerC, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, domain.JobStatusApproved, dto.Status)
	assert.NotNil(t, dto.ActualEndTime)

	// approving twice is a state error, not a silent success
	rec = call(t, h, http.MethodPost, jobPath+"/approve", managerC, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSalesSeesReducedCustomer(t *testing.T) {
	h, db := newServer(t)
	admin := testutil.CreateUser(t, db, domain.RoleAdmin, nil)
	sales := testutil.CreateUser(t, db, domain.RoleSales, nil)
	customer := testutil.CreateCustomer(t, db, "Hoa Binh Ltd")
	testutil.CreateJob(t, db, customer.ID, domain.JobStatusNew, admin.ID)

	rec := call(t, h, http.MethodGet, "/api/customers", sales, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/jobs", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data []struct {
			Customer map[string]interface{} `json:"customer"`
		} `json:"data"`
		Pagination domain.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, map[string]interface{}{
		"id":           customer.ID.String(),
		"company_name": "Hoa Binh Ltd",
	}, page.Data[0].Customer)
}

func TestUnassignedUserIsCreatedAndDenied(t *testing.T) {
	h, db := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer brand-new-subject")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var user domain.User
	require.NoError(t, db.First(&user, "external_id = ?", "brand-new-subject").Error)
	assert.Equal(t, domain.RoleNotAssign, user.Role)
}
