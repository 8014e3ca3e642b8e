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

// ServiceItemService manages the catalogue of billable services
type ServiceItemService struct {
	repo   *repository.ServiceItemRepository
	logger *zap.Logger
}

func NewServiceItemService(repo *repository.ServiceItemRepository, logger *zap.Logger) *ServiceItemService {
	return &ServiceItemService{repo: repo, logger: logger}
}

// List is limited to roles that may see prices
func (s *ServiceItemService) List(ctx context.Context, actor domain.Actor, search string) ([]domain.ServiceItemDTO, error) {
	if !policy.HasRole(actor, policy.ViewJobFinancials) {
		return nil, forbidden("You are not allowed to view the service catalogue")
	}
	items, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, translateError(err, "Service item")
	}
	dtos := make([]domain.ServiceItemDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToServiceItemDTO(&items[i])
	}
	return dtos, nil
}

func (s *ServiceItemService) Create(ctx context.Context, actor domain.Actor, req *domain.ServiceItemRequest) (*domain.ServiceItemDTO, error) {
	if !policy.HasRole(actor, policy.ManageCatalog) {
		return nil, forbidden("You are not allowed to manage the service catalogue")
	}
	if req.Price.IsNegative() {
		return nil, validation("price must not be negative")
	}
	item := &domain.ServiceItem{Name: strings.TrimSpace(req.Name), Price: req.Price}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, translateError(err, "Service item")
	}
	dto := mapper.ToServiceItemDTO(item)
	return &dto, nil
}

func (s *ServiceItemService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.ServiceItemRequest) (*domain.ServiceItemDTO, error) {
	if !policy.HasRole(actor, policy.ManageCatalog) {
		return nil, forbidden("You are not allowed to manage the service catalogue")
	}
	if req.Price.IsNegative() {
		return nil, validation("price must not be negative")
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Service item")
	}
	item.Name = strings.TrimSpace(req.Name)
	item.Price = req.Price
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, translateError(err, "Service item")
	}
	dto := mapper.ToServiceItemDTO(item)
	return &dto, nil
}

// Delete refuses while job lines still reference the item
func (s *ServiceItemService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.ManageCatalog) {
		return forbidden("You are not allowed to manage the service catalogue")
	}
	used, err := s.repo.InUse(ctx, id)
	if err != nil {
		return translateError(err, "Service item")
	}
	if used {
		return conflict("Service item is used by job line items")
	}
	return translateError(s.repo.Delete(ctx, id), "Service item")
}
