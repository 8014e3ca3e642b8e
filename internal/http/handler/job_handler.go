package handler

import (
	"errors"
	"net/http"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type JobHandler struct {
	jobService    *service.JobService
	reportService *service.JobReportService
	logger        *zap.Logger
}

func NewJobHandler(jobService *service.JobService, reportService *service.JobReportService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService:    jobService,
		reportService: reportService,
		logger:        logger,
	}
}

// parseJobFilters reads the list filters. Status and job type accept the
// canonical code or either display label.
func parseJobFilters(r *http.Request) (repository.JobFilters, error) {
	q := r.URL.Query()
	filters := repository.JobFilters{Search: q.Get("search")}

	if raw := q.Get("status"); raw != "" {
		status, ok := domain.ParseJobStatus(raw)
		if !ok {
			return filters, errors.New("Invalid status filter")
		}
		filters.Status = &status
	}
	if raw := q.Get("job_type"); raw != "" {
		jobType, ok := domain.ParseJobType(raw)
		if !ok {
			return filters, errors.New("Invalid job_type filter")
		}
		filters.JobType = &jobType
	}

	var err error
	if filters.CustomerID, err = queryUUID(r, "customer_id"); err != nil {
		return filters, err
	}
	if filters.ProjectID, err = queryUUID(r, "project_id"); err != nil {
		return filters, err
	}
	if filters.TechnicianID, err = queryUUID(r, "technician_id"); err != nil {
		return filters, err
	}
	if filters.From, err = queryTime(r, "from"); err != nil {
		return filters, err
	}
	if filters.To, err = queryTime(r, "to"); err != nil {
		return filters, err
	}
	return filters, nil
}

// Summary godoc
// @Summary Job counts per status
// @Description Counts cover only the jobs the caller can see
// @Tags Jobs
// @Produce json
// @Success 200 {array} domain.JobStatusCountDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/summary [get]
func (h *JobHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	summary, err := h.jobService.StatusSummary(r.Context(), actor)
	if err != nil {
		respondServiceError(w, h.logger, err, "summarize jobs")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// List godoc
// @Summary List jobs
// @Description Technicians only see jobs they are assigned to. Prices are omitted for roles without financial access.
// @Tags Jobs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 200)" default(20)
// @Param status query string false "Status code or label"
// @Param job_type query string false "Job type code or label"
// @Param customer_id query string false "Customer" format(uuid)
// @Param project_id query string false "Project" format(uuid)
// @Param technician_id query string false "Assigned technician" format(uuid)
// @Param from query string false "Scheduled start from (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Scheduled start until (RFC3339 or YYYY-MM-DD)"
// @Param search query string false "Search code, customer or notes"
// @Param sort_by query string false "Sort field" Enums(scheduled_start_time, created_at, job_code, status)
// @Param sort_order query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.JobDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs [get]
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	filters, err := parseJobFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, limit := pageParams(r)
	sort := repository.SortConfig{
		Field: r.URL.Query().Get("sort_by"),
		Order: repository.ParseSortOrder(r.URL.Query().Get("sort_order")),
	}

	jobs, total, err := h.jobService.List(r.Context(), actor, filters, sort, page, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "list jobs")
		return
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(jobs, total, page, limit))
}

// Get godoc
// @Summary Get job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Success 200 {object} domain.JobDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	job, err := h.jobService.Get(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Create godoc
// @Summary Create job
// @Description Job code is generated as JOB-YYYY-NNNNN when omitted
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body domain.CreateJobRequest true "Job data"
// @Success 201 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs [post]
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateJobRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	job, err := h.jobService.Create(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create job")
		return
	}
	w.Header().Set("Location", "/api/jobs/"+job.ID.String())
	respondJSON(w, http.StatusCreated, job)
}

// Update godoc
// @Summary Update job
// @Description Partial update. Finalized jobs cannot be changed.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param request body domain.UpdateJobRequest true "Changed fields"
// @Success 200 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id} [patch]
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	var req domain.UpdateJobRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	job, err := h.jobService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// AssignTechnicians godoc
// @Summary Replace technician roster
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param request body domain.AssignTechniciansRequest true "Technicians"
// @Success 200 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/technicians [put]
func (h *JobHandler) AssignTechnicians(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	var req domain.AssignTechniciansRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	job, err := h.jobService.AssignTechnicians(r.Context(), actor, id, req.TechnicianIDs)
	if err != nil {
		respondServiceError(w, h.logger, err, "assign technicians")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Approve godoc
// @Summary Approve job
// @Description Only jobs pending approval can be approved
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Success 200 {object} domain.JobDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/approve [post]
func (h *JobHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	job, err := h.jobService.Approve(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "approve job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Reject godoc
// @Summary Reject job
// @Description Sends a job pending approval back to in progress
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param request body domain.RejectJobRequest false "Reason"
// @Success 200 {object} domain.JobDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/reject [post]
func (h *JobHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	var req domain.RejectJobRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}
	job, err := h.jobService.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondServiceError(w, h.logger, err, "reject job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Finalize godoc
// @Summary Finalize job
// @Description Locks an approved job. Admin only.
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Success 200 {object} domain.JobDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/finalize [post]
func (h *JobHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	job, err := h.jobService.Finalize(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "finalize job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Delete godoc
// @Summary Delete job
// @Tags Jobs
// @Param id path string true "Job ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	if err := h.jobService.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, h.logger, err, "delete job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLineItem godoc
// @Summary Add material or service line
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param request body domain.LineItemRequest true "Line item"
// @Success 201 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/line-items [post]
func (h *JobHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	var req domain.LineItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	job, err := h.jobService.AddLineItem(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "add line item")
		return
	}
	respondJSON(w, http.StatusCreated, job)
}

// UpdateLineItem godoc
// @Summary Update line item
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param itemId path string true "Line item ID" format(uuid)
// @Param request body domain.UpdateLineItemRequest true "Changes"
// @Success 200 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/line-items/{itemId} [patch]
func (h *JobHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId", "line item")
	if !ok {
		return
	}
	var req domain.UpdateLineItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	job, err := h.jobService.UpdateLineItem(r.Context(), actor, id, itemID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update line item")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// RemoveLineItem godoc
// @Summary Remove line item
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param itemId path string true "Line item ID" format(uuid)
// @Success 200 {object} domain.JobDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/line-items/{itemId} [delete]
func (h *JobHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId", "line item")
	if !ok {
		return
	}
	job, err := h.jobService.RemoveLineItem(r.Context(), actor, id, itemID)
	if err != nil {
		respondServiceError(w, h.logger, err, "remove line item")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// ListReports godoc
// @Summary List reports of a job
// @Description Oldest first
// @Tags Job Reports
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Success 200 {array} domain.JobReportDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/reports [get]
func (h *JobHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	reports, err := h.reportService.ListByJob(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list job reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// SubmitReport godoc
// @Summary Submit report for a job
// @Description The job id in the path wins over any job_id in the body
// @Tags Job Reports
// @Accept json
// @Produce json
// @Param id path string true "Job ID" format(uuid)
// @Param request body domain.SubmitJobReportRequest true "Report"
// @Success 201 {object} domain.JobReportDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /jobs/{id}/reports [post]
func (h *JobHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "job")
	if !ok {
		return
	}
	var req domain.SubmitJobReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.JobID = id
	if !validateBody(w, &req) {
		return
	}
	report, err := h.reportService.Submit(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "submit job report")
		return
	}
	respondJSON(w, http.StatusCreated, report)
}
