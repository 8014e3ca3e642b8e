package handler

import (
	"net/http"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService       *service.UserService
	departmentService *service.DepartmentService
	logger            *zap.Logger
}

func NewUserHandler(userService *service.UserService, departmentService *service.DepartmentService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:       userService,
		departmentService: departmentService,
		logger:            logger,
	}
}

// List godoc
// @Summary List users
// @Description Admins see everyone; managers see users of their own department
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 200)" default(20)
// @Param role query string false "Filter by role" Enums(Admin, Manager, Sales, Technician, NOT_ASSIGN)
// @Param department_id query string false "Filter by department" format(uuid)
// @Param search query string false "Search name or email"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserDTO}
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, limit := pageParams(r)

	filters := repository.UserFilters{Search: r.URL.Query().Get("search")}
	if role := r.URL.Query().Get("role"); role != "" {
		rl := domain.Role(role)
		if !rl.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid role")
			return
		}
		filters.Role = &rl
	}
	deptID, err := queryUUID(r, "department_id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters.DepartmentID = deptID

	users, total, err := h.userService.List(r.Context(), actor, page, limit, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(users, total, page, limit))
}

// GetByID godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} domain.UserDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "user")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Create godoc
// @Summary Create user
// @Description Pre-provision a user before their first login. Admin only.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.userService.Create(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create user")
		return
	}
	w.Header().Set("Location", "/api/users/"+user.ID.String())
	respondJSON(w, http.StatusCreated, user)
}

// Update godoc
// @Summary Update user role or department
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param request body domain.UpdateUserRequest true "Changes"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "user")
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.userService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ListDepartments godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {array} domain.DepartmentDTO
// @Security BearerAuth
// @Router /departments [get]
func (h *UserHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}
	depts, err := h.departmentService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list departments")
		return
	}
	respondJSON(w, http.StatusOK, depts)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param request body domain.DepartmentRequest true "Department"
// @Success 201 {object} domain.DepartmentDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /departments [post]
func (h *UserHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.DepartmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dept, err := h.departmentService.Create(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create department")
		return
	}
	respondJSON(w, http.StatusCreated, dept)
}

// UpdateDepartment godoc
// @Summary Rename department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID" format(uuid)
// @Param request body domain.DepartmentRequest true "Department"
// @Success 200 {object} domain.DepartmentDTO
// @Security BearerAuth
// @Router /departments/{id} [put]
func (h *UserHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "department")
	if !ok {
		return
	}
	var req domain.DepartmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dept, err := h.departmentService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update department")
		return
	}
	respondJSON(w, http.StatusOK, dept)
}

// DeleteDepartment godoc
// @Summary Delete department
// @Description Fails with 409 while users still belong to it
// @Tags Departments
// @Param id path string true "Department ID" format(uuid)
// @Success 204
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /departments/{id} [delete]
func (h *UserHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "department")
	if !ok {
		return
	}
	if err := h.departmentService.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, h.logger, err, "delete department")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
