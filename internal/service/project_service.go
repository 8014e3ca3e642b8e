package service

import (
	"context"
	"strings"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/mapper"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectService struct {
	projectRepo  *repository.ProjectRepository
	customerRepo *repository.CustomerRepository
	logger       *zap.Logger
}

func NewProjectService(projectRepo *repository.ProjectRepository, customerRepo *repository.CustomerRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo:  projectRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (s *ProjectService) List(ctx context.Context, actor domain.Actor, page, limit int, filters repository.ProjectFilters) ([]domain.ProjectDTO, int64, error) {
	if !policy.HasRole(actor, policy.ViewProjects) {
		return nil, 0, forbidden("You are not allowed to view projects")
	}
	projects, total, err := s.projectRepo.List(ctx, page, limit, filters)
	if err != nil {
		return nil, 0, translateError(err, "Project")
	}
	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = mapper.ToProjectDTO(&projects[i])
	}
	return dtos, total, nil
}

func (s *ProjectService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ProjectDTO, error) {
	if !policy.HasRole(actor, policy.ViewProjects) {
		return nil, forbidden("You are not allowed to view projects")
	}
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Project")
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

func (s *ProjectService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	if !policy.HasRole(actor, policy.ManageProjects) {
		return nil, forbidden("You are not allowed to manage projects")
	}
	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, translateError(err, "Customer")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, validation("end_date must not be before start_date")
	}

	status := req.Status
	if status == "" {
		status = domain.ProjectStatusPlanning
	}
	project := &domain.Project{
		CustomerID:  req.CustomerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, translateError(err, "Project")
	}
	return s.GetByID(ctx, actor, project.ID)
}

func (s *ProjectService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDTO, error) {
	if !policy.HasRole(actor, policy.ManageProjects) {
		return nil, forbidden("You are not allowed to manage projects")
	}
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Project")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, validation("end_date must not be before start_date")
	}

	project.Name = strings.TrimSpace(req.Name)
	project.Description = req.Description
	if req.Status != "" {
		project.Status = req.Status
	}
	project.StartDate = req.StartDate
	project.EndDate = req.EndDate

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, translateError(err, "Project")
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Delete detaches the project's jobs and removes it
func (s *ProjectService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.ManageProjects) {
		return forbidden("You are not allowed to manage projects")
	}
	return translateError(s.projectRepo.Delete(ctx, id), "Project")
}
