package handler

import (
	"net/http"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type JobReportHandler struct {
	reportService *service.JobReportService
	logger        *zap.Logger
}

func NewJobReportHandler(reportService *service.JobReportService, logger *zap.Logger) *JobReportHandler {
	return &JobReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Submit godoc
// @Summary Submit job report
// @Description A report on an in-progress job moves it to pending approval
// @Tags Job Reports
// @Accept json
// @Produce json
// @Param request body domain.SubmitJobReportRequest true "Report"
// @Success 201 {object} domain.JobReportDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /job-reports [post]
func (h *JobReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.SubmitJobReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	report, err := h.reportService.Submit(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "submit job report")
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// Update godoc
// @Summary Update job report
// @Description Author or manager. Reports of finalized jobs are read-only.
// @Tags Job Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID" format(uuid)
// @Param request body domain.UpdateJobReportRequest true "Changed fields"
// @Success 200 {object} domain.JobReportDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /job-reports/{id} [put]
func (h *JobReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "report")
	if !ok {
		return
	}
	var req domain.UpdateJobReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	report, err := h.reportService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update job report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Delete godoc
// @Summary Delete job report
// @Tags Job Reports
// @Param id path string true "Report ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /job-reports/{id} [delete]
func (h *JobReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "report")
	if !ok {
		return
	}
	if err := h.reportService.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, h.logger, err, "delete job report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
