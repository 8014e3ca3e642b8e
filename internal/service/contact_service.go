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

type ContactService struct {
	contactRepo  *repository.ContactRepository
	customerRepo *repository.CustomerRepository
	db           *gorm.DB
	logger       *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	customerRepo *repository.CustomerRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo:  contactRepo,
		customerRepo: customerRepo,
		db:           db,
		logger:       logger,
	}
}

func (s *ContactService) ListByCustomer(ctx context.Context, actor domain.Actor, customerID uuid.UUID) ([]domain.ContactDTO, error) {
	if !policy.HasRole(actor, policy.ViewCustomers) {
		return nil, forbidden("You are not allowed to view customers")
	}
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, translateError(err, "Customer")
	}
	contacts, err := s.contactRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, translateError(err, "Contact")
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

// Create adds a contact. Marking it primary demotes the customer's previous
// primary in the same transaction.
func (s *ContactService) Create(ctx context.Context, actor domain.Actor, customerID uuid.UUID, req *domain.ContactRequest) (*domain.ContactDTO, error) {
	if !policy.HasRole(actor, policy.CreateCustomer) {
		return nil, forbidden("You are not allowed to create contacts")
	}
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, translateError(err, "Customer")
	}

	contact := &domain.Contact{CustomerID: customerID}
	if err := applyContactRequest(contact, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.contactRepo.WithTx(tx)
		if err := repo.Create(ctx, contact); err != nil {
			return err
		}
		if contact.IsPrimary {
			return repo.ClearPrimary(ctx, customerID, contact.ID)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Contact")
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.ContactRequest) (*domain.ContactDTO, error) {
	if !policy.HasRole(actor, policy.CreateCustomer) {
		return nil, forbidden("You are not allowed to edit contacts")
	}
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Contact")
	}
	if err := applyContactRequest(contact, req); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.contactRepo.WithTx(tx)
		if err := repo.Update(ctx, contact); err != nil {
			return err
		}
		if contact.IsPrimary {
			return repo.ClearPrimary(ctx, contact.CustomerID, contact.ID)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Contact")
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.DeleteContact) {
		return forbidden("You are not allowed to delete contacts")
	}
	return translateError(s.contactRepo.Delete(ctx, id), "Contact")
}

func applyContactRequest(c *domain.Contact, req *domain.ContactRequest) error {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}
	c.FullName = strings.TrimSpace(req.FullName)
	c.Phone = phone
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.Position = req.Position
	c.IsPrimary = req.IsPrimary
	return nil
}
