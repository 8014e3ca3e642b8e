package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InventoryHandler struct {
	inventoryService *service.InventoryService
	logger           *zap.Logger
}

func NewInventoryHandler(inventoryService *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// periodParams reads year and month. Both omitted means the current month.
func periodParams(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return 0, 0, nil
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return 0, 0, fmt.Errorf("Invalid year")
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("Invalid month")
	}
	return year, month, nil
}

// ListProducts godoc
// @Summary List inventory products
// @Description Each product carries opening, totals and current stock for the month
// @Tags Inventory
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search code or model"
// @Param year query int false "Year (defaults to current)"
// @Param month query int false "Month 1-12 (defaults to current)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.InventoryProductDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /inventory/products [get]
func (h *InventoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	year, month, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, limit := pageParams(r)
	products, total, err := h.inventoryService.ListProducts(r.Context(), actor, page, limit, r.URL.Query().Get("search"), year, month)
	if err != nil {
		respondServiceError(w, h.logger, err, "list products")
		return
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(products, total, page, limit))
}

// CreateProduct godoc
// @Summary Create inventory product
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.CreateProductRequest true "Product"
// @Success 201 {object} domain.InventoryProductDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /inventory/products [post]
func (h *InventoryHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	product, err := h.inventoryService.CreateProduct(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Ledger godoc
// @Summary Monthly ledger of a product
// @Description Opening stock and one row per day that has movements
// @Tags Inventory
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param year query int false "Year (defaults to current)"
// @Param month query int false "Month 1-12 (defaults to current)"
// @Success 200 {object} domain.LedgerDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /inventory/products/{id}/ledger [get]
func (h *InventoryHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}
	year, month, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	ledger, err := h.inventoryService.Ledger(r.Context(), actor, id, year, month)
	if err != nil {
		respondServiceError(w, h.logger, err, "product ledger")
		return
	}
	respondJSON(w, http.StatusOK, ledger)
}

// ApplyAdjustment godoc
// @Summary Set a day's totals
// @Description Records the delta needed so the day's in and out totals equal the desired values
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param request body domain.AdjustmentRequest true "Desired totals"
// @Success 200 {object} domain.AdjustmentResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /inventory/products/{id}/adjustments [post]
func (h *InventoryHandler) ApplyAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}
	var req domain.AdjustmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.inventoryService.ApplyAdjustment(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "apply adjustment")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// PostMovement godoc
// @Summary Record a stock movement
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param request body domain.MovementRequest true "Movement"
// @Success 201 {object} domain.AdjustmentResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /inventory/products/{id}/movements [post]
func (h *InventoryHandler) PostMovement(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}
	var req domain.MovementRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.inventoryService.PostMovement(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "post movement")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Export godoc
// @Summary Export month as XLSX
// @Tags Inventory
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year query int false "Year (defaults to current)"
// @Param month query int false "Month 1-12 (defaults to current)"
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /inventory/export [get]
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	year, month, err := periodParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, filename, err := h.inventoryService.ExportMonth(r.Context(), actor, year, month)
	if err != nil {
		respondServiceError(w, h.logger, err, "export inventory")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
