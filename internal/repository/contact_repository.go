package repository

import (
	"context"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ContactRepository) WithTx(tx *gorm.DB) *ContactRepository {
	return &ContactRepository{db: tx}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByCustomer returns a customer's contacts, primary first
func (r *ContactRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_primary DESC, full_name ASC").
		Find(&contacts).Error
	return contacts, err
}

// ClearPrimary unsets is_primary on every contact of the customer except keep
func (r *ContactRepository) ClearPrimary(ctx context.Context, customerID uuid.UUID, keep uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("customer_id = ? AND id <> ? AND is_primary = ?", customerID, keep, true).
		Update("is_primary", false).Error
}

// DeleteByCustomer removes all contacts of a customer
func (r *ContactRepository) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&domain.Contact{}).Error
}
