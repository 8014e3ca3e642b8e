package handler

import (
	"net/http"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler serves the priced service items used on job lines
type CatalogHandler struct {
	serviceItems *service.ServiceItemService
	logger       *zap.Logger
}

func NewCatalogHandler(serviceItems *service.ServiceItemService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{serviceItems: serviceItems, logger: logger}
}

// ListServiceItems godoc
// @Summary List service items
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by name"
// @Success 200 {array} domain.ServiceItemDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /service-items [get]
func (h *CatalogHandler) ListServiceItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	items, err := h.serviceItems.List(r.Context(), actor, r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list service items")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateServiceItem godoc
// @Summary Create service item
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.ServiceItemRequest true "Service item"
// @Success 201 {object} domain.ServiceItemDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /service-items [post]
func (h *CatalogHandler) CreateServiceItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.ServiceItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.serviceItems.Create(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create service item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateServiceItem godoc
// @Summary Update service item
// @Description Existing job lines keep the price they were created with
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Service item ID" format(uuid)
// @Param request body domain.ServiceItemRequest true "Service item"
// @Success 200 {object} domain.ServiceItemDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /service-items/{id} [put]
func (h *CatalogHandler) UpdateServiceItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "service item")
	if !ok {
		return
	}
	var req domain.ServiceItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.serviceItems.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update service item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteServiceItem godoc
// @Summary Delete service item
// @Tags Catalog
// @Param id path string true "Service item ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /service-items/{id} [delete]
func (h *CatalogHandler) DeleteServiceItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "service item")
	if !ok {
		return
	}
	if err := h.serviceItems.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, h.logger, err, "delete service item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
