package handler

import (
	"net/http"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audit log entries with optional filters. Admin only.
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 200)" default(20)
// @Param user_id query string false "Filter by user ID" format(uuid)
// @Param action query string false "Filter by action" Enums(create, update, delete, export, import)
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query string false "Filter by entity ID" format(uuid)
// @Param request_id query string false "Filter by request ID"
// @Param start_time query string false "From (RFC3339 or YYYY-MM-DD)"
// @Param end_time query string false "Until (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := &repository.AuditLogFilter{
		EntityType: q.Get("entity_type"),
		RequestID:  q.Get("request_id"),
	}

	var err error
	if filter.UserID, err = queryUUID(r, "user_id"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.EntityID, err = queryUUID(r, "entity_id"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.StartTime, err = queryTime(r, "start_time"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.EndTime, err = queryTime(r, "end_time"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw := q.Get("action"); raw != "" {
		action := domain.AuditAction(raw)
		filter.Action = &action
	}

	page, limit := pageParams(r)
	logs, total, err := h.auditService.List(r.Context(), actor, filter, page, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(logs, total, page, limit))
}
