package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobFilters holds optional list filters
type JobFilters struct {
	Status       *domain.JobStatus
	JobType      *domain.JobType
	CustomerID   *uuid.UUID
	ProjectID    *uuid.UUID
	TechnicianID *uuid.UUID
	From         *time.Time
	To           *time.Time
	Search       string
}

var jobSortFields = map[string]string{
	"scheduled_start_time": "jobs.scheduled_start_time",
	"created_at":           "jobs.created_at",
	"job_code":             "jobs.job_code",
	"status":               "jobs.status",
}

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository {
	return &JobRepository{db: tx}
}

func withJobDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Customer").
		Preload("Project").
		Preload("Technicians", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Technicians.User").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("LineItems.Product").
		Preload("LineItems.ServiceItem")
}

// Create inserts the job row only; roster and line items are written separately
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := withJobDetails(r.db.WithContext(ctx)).First(&job, "jobs.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetForUpdate locks the job row for the rest of the surrounding transaction
// and loads its roster.
func (r *JobRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&job, "jobs.id = ?", id).Error
	if err != nil {
		return nil, err
	}

	var roster []domain.JobTechnician
	err = r.db.WithContext(ctx).
		Preload("User").
		Where("job_id = ?", id).
		Order("position ASC").
		Find(&roster).Error
	if err != nil {
		return nil, err
	}
	job.Technicians = roster
	return &job, nil
}

func (r *JobRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Job{}).Where("job_code = ?", code).Count(&count).Error
	return count > 0, err
}

// Update saves scalar columns; associations are left untouched
func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(job).Error
}

// TransitionStatus moves a job from one status to another only if it is
// still in from. It reports false when another writer got there first.
func (r *JobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.JobStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReplaceTechnicians rewrites the roster; userIDs[0] becomes the primary
func (r *JobRepository) ReplaceTechnicians(ctx context.Context, jobID uuid.UUID, userIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("job_id = ?", jobID).Delete(&domain.JobTechnician{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]domain.JobTechnician, len(userIDs))
	for i, uid := range userIDs {
		rows[i] = domain.JobTechnician{JobID: jobID, UserID: uid, Position: i, CreatedAt: now}
	}
	return db.Omit(clause.Associations).Create(&rows).Error
}

// Delete removes the job and everything hanging off it
func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("job_id = ?", id).Delete(&domain.JobTechnician{}).Error; err != nil {
		return err
	}
	if err := db.Where("job_id = ?", id).Delete(&domain.JobLineItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("job_id = ?", id).Delete(&domain.JobReport{}).Error; err != nil {
		return err
	}
	result := db.Delete(&domain.Job{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns the page of jobs visible under scope that match filters
func (r *JobRepository) List(ctx context.Context, scope policy.JobScope, filters JobFilters, sort SortConfig, page, limit int) ([]domain.Job, int64, error) {
	var jobs []domain.Job
	var total int64

	query := ApplyJobScope(r.db.WithContext(ctx).Model(&domain.Job{}), scope)
	query = applyJobFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := BuildOrderClause(sort, jobSortFields, "jobs.scheduled_start_time")
	err := Paginate(withJobDetails(query).Order(order), page, limit).Find(&jobs).Error
	return jobs, total, err
}

func applyJobFilters(query *gorm.DB, f JobFilters) *gorm.DB {
	if f.Status != nil {
		query = query.Where("jobs.status = ?", *f.Status)
	}
	if f.JobType != nil {
		query = query.Where("jobs.job_type = ?", *f.JobType)
	}
	if f.CustomerID != nil {
		query = query.Where("jobs.customer_id = ?", *f.CustomerID)
	}
	if f.ProjectID != nil {
		query = query.Where("jobs.project_id = ?", *f.ProjectID)
	}
	if f.TechnicianID != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM job_technicians ft WHERE ft.job_id = jobs.id AND ft.user_id = ?)",
			*f.TechnicianID,
		)
	}
	if f.From != nil {
		query = query.Where("jobs.scheduled_start_time >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("jobs.scheduled_start_time < ?", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"(LOWER(jobs.job_code) LIKE ? OR LOWER(jobs.notes) LIKE ? OR EXISTS (SELECT 1 FROM customers sc WHERE sc.id = jobs.customer_id AND LOWER(sc.company_name) LIKE ?))",
			like, like, like,
		)
	}
	return query
}

// CountByStatus returns per-status totals within scope
func (r *JobRepository) CountByStatus(ctx context.Context, scope policy.JobScope) (map[domain.JobStatus]int64, error) {
	type row struct {
		Status domain.JobStatus
		Count  int64
	}
	var rows []row
	err := ApplyJobScope(r.db.WithContext(ctx).Model(&domain.Job{}), scope).
		Select("jobs.status AS status, COUNT(*) AS count").
		Group("jobs.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// JobLineItemRepository stores billable lines attached to jobs
type JobLineItemRepository struct {
	db *gorm.DB
}

func NewJobLineItemRepository(db *gorm.DB) *JobLineItemRepository {
	return &JobLineItemRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *JobLineItemRepository) WithTx(tx *gorm.DB) *JobLineItemRepository {
	return &JobLineItemRepository{db: tx}
}

func (r *JobLineItemRepository) Create(ctx context.Context, item *domain.JobLineItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// GetByID loads a line item only if it belongs to jobID
func (r *JobLineItemRepository) GetByID(ctx context.Context, jobID, id uuid.UUID) (*domain.JobLineItem, error) {
	var item domain.JobLineItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("ServiceItem").
		First(&item, "id = ? AND job_id = ?", id, jobID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *JobLineItemRepository) Update(ctx context.Context, item *domain.JobLineItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

func (r *JobLineItemRepository) Delete(ctx context.Context, jobID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.JobLineItem{}, "id = ? AND job_id = ?", id, jobID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
