package repository

import (
	"context"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobReportRepository struct {
	db *gorm.DB
}

func NewJobReportRepository(db *gorm.DB) *JobReportRepository {
	return &JobReportRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *JobReportRepository) WithTx(tx *gorm.DB) *JobReportRepository {
	return &JobReportRepository{db: tx}
}

func (r *JobReportRepository) Create(ctx context.Context, report *domain.JobReport) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

func (r *JobReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobReport, error) {
	var report domain.JobReport
	err := r.db.WithContext(ctx).Preload("CreatedBy").First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *JobReportRepository) Update(ctx context.Context, report *domain.JobReport) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(report).Error
}

func (r *JobReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.JobReport{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByJob returns a job's reports, newest first
func (r *JobReportRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.JobReport, error) {
	var reports []domain.JobReport
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("job_id = ?", jobID).
		Order("timestamp DESC").
		Find(&reports).Error
	return reports, err
}

// FindRecent returns the latest report the user filed on the job at or after
// since, or gorm.ErrRecordNotFound.
func (r *JobReportRepository) FindRecent(ctx context.Context, jobID, userID uuid.UUID, since time.Time) (*domain.JobReport, error) {
	var report domain.JobReport
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND created_by_user_id = ? AND timestamp >= ?", jobID, userID, since).
		Order("timestamp DESC").
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}
