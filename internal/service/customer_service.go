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
	"gorm.io/gorm"
)

type CustomerService struct {
	customerRepo *repository.CustomerRepository
	contactRepo  *repository.ContactRepository
	db           *gorm.DB
	logger       *zap.Logger
}

func NewCustomerService(
	customerRepo *repository.CustomerRepository,
	contactRepo *repository.ContactRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		contactRepo:  contactRepo,
		db:           db,
		logger:       logger,
	}
}

func (s *CustomerService) List(ctx context.Context, actor domain.Actor, page, limit int, search string) ([]domain.CustomerDTO, int64, error) {
	if !policy.HasRole(actor, policy.ViewCustomers) {
		return nil, 0, forbidden("You are not allowed to view customers")
	}
	customers, total, err := s.customerRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, translateError(err, "Customer")
	}
	dtos := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = mapper.ToCustomerDTO(&customers[i])
	}
	return dtos, total, nil
}

func (s *CustomerService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.CustomerDTO, error) {
	if !policy.HasRole(actor, policy.ViewCustomers) {
		return nil, forbidden("You are not allowed to view customers")
	}
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Customer")
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateCustomerRequest) (*domain.CustomerDTO, error) {
	if !policy.HasRole(actor, policy.CreateCustomer) {
		return nil, forbidden("You are not allowed to create customers")
	}
	customer := &domain.Customer{}
	if err := applyCustomerRequest(customer, req); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, translateError(err, "Customer")
	}
	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("by", actor.ID.String()))

	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.CustomerDTO, error) {
	if !policy.HasRole(actor, policy.CreateCustomer) {
		return nil, forbidden("You are not allowed to edit customers")
	}
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Customer")
	}
	if err := applyCustomerRequest(customer, req); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, translateError(err, "Customer")
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

// Delete removes a customer and its contacts. Customers with jobs are kept.
func (s *CustomerService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.DeleteCustomer) {
		return forbidden("You are not allowed to delete customers")
	}
	hasJobs, err := s.customerRepo.HasJobs(ctx, id)
	if err != nil {
		return translateError(err, "Customer")
	}
	if hasJobs {
		return conflict("Customer has jobs and cannot be deleted")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.contactRepo.WithTx(tx).DeleteByCustomer(ctx, id); err != nil {
			return err
		}
		return s.customerRepo.WithTx(tx).Delete(ctx, id)
	})
	return translateError(err, "Customer")
}

func applyCustomerRequest(c *domain.Customer, req *domain.CreateCustomerRequest) error {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}
	c.CompanyName = strings.TrimSpace(req.CompanyName)
	c.Address = req.Address
	c.Phone = phone
	c.ContactPerson = req.ContactPerson
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.TaxCode = req.TaxCode
	c.Notes = req.Notes
	return nil
}
