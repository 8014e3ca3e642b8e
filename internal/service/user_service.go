package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/mapper"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService manages back-office users and resolves authenticated callers
// to actors.
type UserService struct {
	userRepo *repository.UserRepository
	deptRepo *repository.DepartmentRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, deptRepo *repository.DepartmentRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		deptRepo: deptRepo,
		logger:   logger,
	}
}

// ResolveActor matches an identity to a stored user, creating one with role
// NOT_ASSIGN on first sight. The last login time is refreshed on every call.
func (s *UserService) ResolveActor(ctx context.Context, identity domain.Identity) (domain.Actor, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if identity.Subject == "" && email == "" {
		return domain.Actor{}, newError(ErrUnauthenticated, "Token carries no subject or email")
	}

	user, err := s.findByIdentity(ctx, identity.Subject, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Actor{}, translateError(err, "User")
	}

	now := time.Now().UTC()
	if user == nil {
		user = &domain.User{
			Email:       email,
			DisplayName: identity.DisplayName,
			Role:        domain.RoleNotAssign,
			LastLoginAt: &now,
		}
		if identity.Subject != "" {
			sub := identity.Subject
			user.ExternalID = &sub
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// A concurrent first request may have created the row already
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				existing, findErr := s.findByIdentity(ctx, identity.Subject, email)
				if findErr == nil {
					return existing.ToActor(), nil
				}
			}
			return domain.Actor{}, translateError(err, "User")
		}
		s.logger.Info("user created from identity provider",
			zap.String("user_id", user.ID.String()),
			zap.String("email", email))
		return user.ToActor(), nil
	}

	user.LastLoginAt = &now
	if identity.DisplayName != "" {
		user.DisplayName = identity.DisplayName
	}
	if user.ExternalID == nil && identity.Subject != "" {
		sub := identity.Subject
		user.ExternalID = &sub
	}
	if err := s.userRepo.TouchLogin(ctx, user); err != nil {
		s.logger.Warn("failed to record login", zap.Error(err), zap.String("user_id", user.ID.String()))
	}
	return user.ToActor(), nil
}

func (s *UserService) findByIdentity(ctx context.Context, subject, email string) (*domain.User, error) {
	if subject != "" {
		user, err := s.userRepo.GetByExternalID(ctx, subject)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return s.userRepo.GetByEmail(ctx, email)
}

// List returns users. Managers only see their own department.
func (s *UserService) List(ctx context.Context, actor domain.Actor, page, limit int, filters repository.UserFilters) ([]domain.UserDTO, int64, error) {
	if !policy.HasRole(actor, policy.ViewUsers) {
		return nil, 0, forbidden("You are not allowed to view users")
	}
	if actor.Role == domain.RoleManager {
		if actor.DepartmentID == nil {
			return []domain.UserDTO{}, 0, nil
		}
		filters.DepartmentID = actor.DepartmentID
	}

	users, total, err := s.userRepo.List(ctx, page, limit, filters)
	if err != nil {
		return nil, 0, translateError(err, "User")
	}
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, total, nil
}

func (s *UserService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.UserDTO, error) {
	if actor.ID != id && !policy.HasRole(actor, policy.ViewUsers) {
		return nil, forbidden("You are not allowed to view users")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "User")
	}
	if actor.Role == domain.RoleManager && actor.ID != id && !domain.SameDepartment(actor.DepartmentID, user.DepartmentID) {
		return nil, forbidden("User belongs to another department")
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Create pre-registers a user so an Admin can set role and department before
// the first sign-in.
func (s *UserService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	if !policy.HasRole(actor, policy.ManageUsers) {
		return nil, forbidden("Only administrators can create users")
	}
	if !req.Role.IsValid() {
		return nil, validation("Invalid role: %s", req.Role)
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateError(err, "User")
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("by", actor.ID.String()))

	return s.GetByID(ctx, actor, user.ID)
}

// Update changes display name, role or department
func (s *UserService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	if !policy.HasRole(actor, policy.ManageUsers) {
		return nil, forbidden("Only administrators can edit users")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "User")
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, validation("Invalid role: %s", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.ClearDepartment {
		user.DepartmentID = nil
	} else if req.DepartmentID != nil {
		if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = req.DepartmentID
	}
	user.Department = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, translateError(err, "User")
	}
	return s.GetByID(ctx, actor, id)
}

func (s *UserService) checkDepartment(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.deptRepo.GetByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validation("Department %s does not exist", id)
		}
		return translateError(err, "Department")
	}
	return nil
}

// DepartmentService manages the departments that scope Manager authority
type DepartmentService struct {
	deptRepo *repository.DepartmentRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewDepartmentService(deptRepo *repository.DepartmentRepository, userRepo *repository.UserRepository, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{deptRepo: deptRepo, userRepo: userRepo, logger: logger}
}

func (s *DepartmentService) List(ctx context.Context) ([]domain.DepartmentDTO, error) {
	depts, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, translateError(err, "Department")
	}
	dtos := make([]domain.DepartmentDTO, len(depts))
	for i := range depts {
		dtos[i] = mapper.ToDepartmentDTO(&depts[i])
	}
	return dtos, nil
}

func (s *DepartmentService) Create(ctx context.Context, actor domain.Actor, req *domain.DepartmentRequest) (*domain.DepartmentDTO, error) {
	if !policy.HasRole(actor, policy.ManageDepartments) {
		return nil, forbidden("Only administrators can manage departments")
	}
	dept := &domain.Department{Name: strings.TrimSpace(req.Name)}
	if err := s.deptRepo.Create(ctx, dept); err != nil {
		return nil, translateError(err, "Department")
	}
	dto := mapper.ToDepartmentDTO(dept)
	return &dto, nil
}

func (s *DepartmentService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.DepartmentRequest) (*domain.DepartmentDTO, error) {
	if !policy.HasRole(actor, policy.ManageDepartments) {
		return nil, forbidden("Only administrators can manage departments")
	}
	dept, err := s.deptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Department")
	}
	dept.Name = strings.TrimSpace(req.Name)
	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, translateError(err, "Department")
	}
	dto := mapper.ToDepartmentDTO(dept)
	return &dto, nil
}

// Delete refuses while users still belong to the department
func (s *DepartmentService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.ManageDepartments) {
		return forbidden("Only administrators can manage departments")
	}
	members, err := s.userRepo.CountByDepartment(ctx, id)
	if err != nil {
		return translateError(err, "Department")
	}
	if members > 0 {
		return conflict("Department still has %d users", members)
	}
	return translateError(s.deptRepo.Delete(ctx, id), "Department")
}
