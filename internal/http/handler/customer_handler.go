package handler

import (
	"net/http"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	contactService  *service.ContactService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, contactService *service.ContactService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		contactService:  contactService,
		logger:          logger,
	}
}

// List godoc
// @Summary List customers
// @Description Paginated customer list. Admin and Manager only.
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search company, contact person or phone"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.CustomerDTO}
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [get]
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, limit := pageParams(r)
	customers, total, err := h.customerService.List(r.Context(), actor, page, limit, r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list customers")
		return
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(customers, total, page, limit))
}

// GetByID godoc
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {object} domain.CustomerDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "customer")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Create godoc
// @Summary Create customer
// @Description Phone numbers are normalized to E.164
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body domain.CreateCustomerRequest true "Customer data"
// @Success 201 {object} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Create(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create customer")
		return
	}
	w.Header().Set("Location", "/api/customers/"+customer.ID.String())
	respondJSON(w, http.StatusCreated, customer)
}

// Update godoc
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.UpdateCustomerRequest true "Customer data"
// @Success 200 {object} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "customer")
	if !ok {
		return
	}
	var req domain.UpdateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Delete godoc
// @Summary Delete customer
// @Description Removes the customer and its contacts. Fails with 409 while jobs reference it.
// @Tags Customers
// @Param id path string true "Customer ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "customer")
	if !ok {
		return
	}
	if err := h.customerService.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, h.logger, err, "delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListContacts godoc
// @Summary List contacts of a customer
// @Description Primary contact first
// @Tags Contacts
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {array} domain.ContactDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /customers/{id}/contacts [get]
func (h *CustomerHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "customer")
	if !ok {
		return
	}
	contacts, err := h.contactService.ListByCustomer(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list contacts")
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

// CreateContact godoc
// @Summary Add contact to customer
// @Description Marking a contact primary clears the flag on the others
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.ContactRequest true "Contact"
// @Success 201 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /customers/{id}/contacts [post]
func (h *CustomerHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "customer")
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	contact, err := h.contactService.Create(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create contact")
		return
	}
	respondJSON(w, http.StatusCreated, contact)
}

// UpdateContact godoc
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Param request body domain.ContactRequest true "Contact"
// @Success 200 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contacts/{id} [put]
func (h *CustomerHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "contact")
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	contact, err := h.contactService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// DeleteContact godoc
// @Summary Delete contact
// @Tags Contacts
// @Param id path string true "Contact ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contacts/{id} [delete]
func (h *CustomerHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "contact")
	if !ok {
		return
	}
	if err := h.contactService.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, h.logger, err, "delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
