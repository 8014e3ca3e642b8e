package repository

import (
	"context"
	"strings"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceItemRepository struct {
	db *gorm.DB
}

func NewServiceItemRepository(db *gorm.DB) *ServiceItemRepository {
	return &ServiceItemRepository{db: db}
}

func (r *ServiceItemRepository) Create(ctx context.Context, item *domain.ServiceItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ServiceItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceItem, error) {
	var item domain.ServiceItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ServiceItemRepository) Update(ctx context.Context, item *domain.ServiceItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *ServiceItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.ServiceItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InUse reports whether any job line references the service item
func (r *ServiceItemRepository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.JobLineItem{}).Where("service_item_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ServiceItemRepository) List(ctx context.Context, search string) ([]domain.ServiceItem, error) {
	var items []domain.ServiceItem
	query := r.db.WithContext(ctx).Model(&domain.ServiceItem{})
	if s := strings.TrimSpace(search); s != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}
