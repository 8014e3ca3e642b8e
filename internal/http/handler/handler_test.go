package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/fieldops/backoffice-api/internal/auth"
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// serve routes one request through handler h mounted at pattern. A nil
// actor leaves the request unauthenticated.
func serve(h http.HandlerFunc, method, pattern, target string, body interface{}, actor *domain.Actor) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func newHandlers(db *gorm.DB) (*CustomerHandler, *JobHandler) {
	log := testutil.NewTestLogger()
	customerRepo := repository.NewCustomerRepository(db)
	contactRepo := repository.NewContactRepository(db)
	jobRepo := repository.NewJobRepository(db)
	seq := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), log)

	jobs := service.NewJobService(jobRepo, repository.NewJobLineItemRepository(db), repository.NewUserRepository(db),
		customerRepo, repository.NewProjectRepository(db), repository.NewInventoryRepository(db),
		repository.NewServiceItemRepository(db), seq, db, log)
	reports := service.NewJobReportService(repository.NewJobReportRepository(db), jobRepo, db, time.Minute, log)

	return NewCustomerHandler(service.NewCustomerService(customerRepo, contactRepo, db, log), service.NewContactService(contactRepo, customerRepo, db, log), log),
		NewJobHandler(jobs, reports, log)
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		kind   error
		status int
		typ    string
	}{
		{service.ErrUnauthenticated, http.StatusUnauthorized, domain.ErrorTypeUnauthorized},
		{service.ErrForbidden, http.StatusForbidden, domain.ErrorTypeForbidden},
		{service.ErrValidation, http.StatusBadRequest, domain.ErrorTypeValidation},
		{service.ErrNotFound, http.StatusNotFound, domain.ErrorTypeNotFound},
		{service.ErrInvalidStateTransition, http.StatusConflict, domain.ErrorTypeInvalidState},
		{service.ErrConflict, http.StatusConflict, domain.ErrorTypeConflict},
		{service.ErrUpstreamUnavailable, http.StatusServiceUnavailable, domain.ErrorTypeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, testutil.NewTestLogger(), &service.Error{Kind: tt.kind, Message: "boom"}, "test")
			assert.Equal(t, tt.status, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, tt.typ, apiErr.Type)
			assert.Equal(t, "boom", apiErr.Detail)
		})
	}

	t.Run("untyped errors are hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		respondServiceError(rec, testutil.NewTestLogger(), fmt.Errorf("pq: relation %q does not exist", "jobs"), "test")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "relation")
	})
}

func TestCustomerHandler_RoleChecks(t *testing.T) {
	db := testutil.NewTestDB(t)
	customers, _ := newHandlers(db)
	customer := testutil.CreateCustomer(t, db, "Nordlys AS")

	admin := testutil.ActorFor(testutil.CreateUser(t, db, domain.RoleAdmin, nil))
	sales := testutil.ActorFor(testutil.CreateUser(t, db, domain.RoleSales, nil))

	rec := serve(customers.List, http.MethodGet, "/customers", "/customers", nil, &sales)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(customers.List, http.MethodGet, "/customers", "/customers?limit=500", nil, &admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, repository.MaxPageSize, page.Pagination.Limit)

	rec = serve(customers.GetByID, http.MethodGet, "/customers/{id}", "/customers/"+customer.ID.String(), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(customers.GetByID, http.MethodGet, "/customers/{id}", "/customers/not-a-uuid", nil, &admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(customers.GetByID, http.MethodGet, "/customers/{id}", "/customers/"+uuid.NewString(), nil, &admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandler_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, jobs := newHandlers(db)
	admin := testutil.ActorFor(testutil.CreateUser(t, db, domain.RoleAdmin, nil))
	customer := testutil.CreateCustomer(t, db, "Havbris AS")

	t.Run("validation errors name the json fields", func(t *testing.T) {
		body := map[string]interface{}{
			"job_type": "painting",
			"line_items": []map[string]interface{}{
				{"kind": "material", "quantity": 0},
			},
		}
		rec := serve(jobs.Create, http.MethodPost, "/jobs", "/jobs", body, &admin)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		apiErr := decodeAPIError(t, rec)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "customer_id")
		assert.Contains(t, apiErr.Errors, "job_type")
		assert.Contains(t, apiErr.Errors, "scheduled_start_time")
		assert.Contains(t, apiErr.Errors, "line_items[0].quantity")
	})

	t.Run("malformed body", func(t *testing.T) {
		r := chi.NewRouter()
		r.Post("/jobs", jobs.Create)
		req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader("{"))
		req = req.WithContext(auth.WithActor(req.Context(), admin))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("vietnamese job type label is accepted", func(t *testing.T) {
		start := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
		body := map[string]interface{}{
			"customer_id":          customer.ID,
			"job_type":             "Lắp mới",
			"scheduled_start_time": start,
			"scheduled_end_time":   start.Add(time.Hour),
		}
		rec := serve(jobs.Create, http.MethodPost, "/jobs", "/jobs", body, &admin)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var job domain.JobDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, domain.JobTypeNewInstall, job.JobType)
		assert.Equal(t, domain.JobStatusAssigned, job.Status)
		assert.Equal(t, "/api/jobs/"+job.ID.String(), rec.Header().Get("Location"))
	})
}

func TestJobHandler_TechnicianSeesNoPrices(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, jobs := newHandlers(db)
	dept := testutil.CreateDepartment(t, db, "South")
	admin := testutil.ActorFor(testutil.CreateUser(t, db, domain.RoleAdmin, nil))
	tech := testutil.ActorFor(testutil.CreateUser(t, db, domain.RoleTechnician, &dept.ID))
	customer := testutil.CreateCustomer(t, db, "Kystlinje AS")
	product := testutil.CreateProduct(t, db, "VALVE-9", 320)

	start := time.Date(2026, 7, 2, 8, 0, 0, 0, time.UTC)
	body := map[string]interface{}{
		"customer_id":          customer.ID,
		"job_type":             "repair",
		"scheduled_start_time": start,
		"scheduled_end_time":   start.Add(2 * time.Hour),
		"technician_ids":       []uuid.UUID{tech.ID},
		"line_items": []map[string]interface{}{
			{"kind": "material", "product_id": product.ID, "quantity": 2},
		},
	}
	rec := serve(jobs.Create, http.MethodPost, "/jobs", "/jobs", body, &admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_amount"`)

	var created domain.JobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = serve(jobs.Get, http.MethodGet, "/jobs/{id}", "/jobs/"+created.ID.String(), nil, &tech)
	require.Equal(t, http.StatusOK, rec.Code)
	raw := rec.Body.String()
	assert.NotContains(t, raw, "price")
	assert.NotContains(t, raw, "total_amount")
	assert.NotContains(t, raw, "line_total")
	assert.Contains(t, raw, "VALVE-9")

	rec = serve(jobs.List, http.MethodGet, "/jobs", "/jobs?status=bogus", nil, &tech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(jobs.List, http.MethodGet, "/jobs", "/jobs?status=M%E1%BB%9Bi", nil, &tech)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "price")
}

func TestCustomerHandler_DatabaseDown(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	customers, _ := newHandlers(db)
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	mock.ExpectQuery(`SELECT .* FROM "customers"`).
		WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})

	rec := serve(customers.GetByID, http.MethodGet, "/customers/{id}", "/customers/"+uuid.NewString(), nil, &admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, domain.ErrorTypeUnavailable, decodeAPIError(t, rec).Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=bad&customer_id=nope&page=x", nil)

	from, err := queryTime(req, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)

	_, err = queryTime(req, "to")
	assert.Error(t, err)

	_, err = queryUUID(req, "customer_id")
	assert.Error(t, err)

	missing, err := queryUUID(req, "project_id")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	page, limit := pageParams(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, repository.DefaultPageSize, limit)
}
