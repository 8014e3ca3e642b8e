package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/legacy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LegacyJobSource pages through jobs of the previous deployment
type LegacyJobSource interface {
	FetchJobs(ctx context.Context, afterID int64, limit int) ([]legacy.JobRecord, error)
}

// ImportFailure explains why one legacy row was not imported
type ImportFailure struct {
	LegacyID int64
	JobCode  string
	Reason   string
}

// ImportResult summarizes an import run
type ImportResult struct {
	Imported int
	Skipped  int
	Failed   []ImportFailure
}

// LegacyImportService copies jobs from the legacy database. Rows whose code
// already exists are skipped, so a run can be repeated safely.
type LegacyImportService struct {
	jobRepo      *repository.JobRepository
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
	sequences    *NumberSequenceService
	db           *gorm.DB
	logger       *zap.Logger
}

func NewLegacyImportService(
	jobRepo *repository.JobRepository,
	customerRepo *repository.CustomerRepository,
	userRepo *repository.UserRepository,
	sequences *NumberSequenceService,
	db *gorm.DB,
	logger *zap.Logger,
) *LegacyImportService {
	return &LegacyImportService{
		jobRepo:      jobRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		sequences:    sequences,
		db:           db,
		logger:       logger,
	}
}

// ImportJobs reads the whole source in batches of batchSize
func (s *LegacyImportService) ImportJobs(ctx context.Context, source LegacyJobSource, batchSize int) (*ImportResult, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	result := &ImportResult{}
	var after int64
	for {
		records, err := source.FetchJobs(ctx, after, batchSize)
		if err != nil {
			return result, err
		}
		for i := range records {
			rec := &records[i]
			after = rec.LegacyID

			imported, err := s.importOne(ctx, rec)
			var typed *Error
			switch {
			case errors.Is(err, ErrUpstreamUnavailable):
				return result, err
			case errors.As(err, &typed):
				result.Failed = append(result.Failed, ImportFailure{LegacyID: rec.LegacyID, JobCode: rec.JobCode, Reason: typed.Message})
			case err != nil:
				return result, err
			case imported:
				result.Imported++
			default:
				result.Skipped++
			}
		}
		if len(records) < batchSize {
			break
		}
	}

	s.logger.Info("legacy job import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// importOne returns false when the job already exists
func (s *LegacyImportService) importOne(ctx context.Context, rec *legacy.JobRecord) (bool, error) {
	code := strings.TrimSpace(rec.JobCode)
	if code == "" {
		return false, validation("job code is empty")
	}
	status, ok := domain.ParseJobStatus(rec.Status)
	if !ok {
		return false, validation("unknown status %q", rec.Status)
	}
	jobType, ok := domain.ParseJobType(rec.JobType)
	if !ok {
		return false, validation("unknown job type %q", rec.JobType)
	}
	if strings.TrimSpace(rec.CustomerName) == "" {
		return false, validation("customer name is empty")
	}
	end := rec.ScheduledEnd
	if end.Before(rec.ScheduledStart) {
		end = rec.ScheduledStart
	}

	imported := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		exists, err := jobs.ExistsByCode(ctx, code)
		if err != nil || exists {
			return err
		}

		var roster []uuid.UUID
		if email := strings.TrimSpace(rec.TechnicianEmail); email != "" {
			user, err := s.userRepo.WithTx(tx).GetByEmail(ctx, email)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return err
			default:
				roster = append(roster, user.ID)
			}
		}
		if status != domain.JobStatusNew && len(roster) == 0 {
			return validation("technician %q not found for a %s job", rec.TechnicianEmail, status)
		}

		customer, err := s.findOrCreateCustomer(ctx, tx, rec)
		if err != nil {
			return err
		}

		job := &domain.Job{
			JobCode:            code,
			CustomerID:         customer.ID,
			JobType:            jobType,
			Status:             status,
			ScheduledStartTime: rec.ScheduledStart.UTC(),
			ScheduledEndTime:   end.UTC(),
			Notes:              rec.Notes,
			CreatedByUserID:    domain.SystemActorID,
		}
		if status == domain.JobStatusApproved || status == domain.JobStatusFinalized {
			job.ActualEndTime = &job.ScheduledEndTime
		}
		if status == domain.JobStatusFinalized {
			now := time.Now().UTC()
			job.FinalizedAt = &now
		}

		if err := s.sequences.ReserveJobCode(ctx, tx, code); err != nil {
			return err
		}
		if err := jobs.Create(ctx, job); err != nil {
			return err
		}
		if err := jobs.ReplaceTechnicians(ctx, job.ID, roster); err != nil {
			return err
		}
		imported = true
		return nil
	})
	if err != nil {
		return false, translateError(err, "Job")
	}
	return imported, nil
}

func (s *LegacyImportService) findOrCreateCustomer(ctx context.Context, tx *gorm.DB, rec *legacy.JobRecord) (*domain.Customer, error) {
	customers := s.customerRepo.WithTx(tx)
	name := strings.TrimSpace(rec.CustomerName)
	customer, err := customers.GetByCompanyName(ctx, name)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	phone, err := normalizePhone(rec.CustomerPhone)
	if err != nil {
		// keep the raw value rather than losing it
		phone = strings.TrimSpace(rec.CustomerPhone)
	}
	customer = &domain.Customer{
		CompanyName: name,
		Phone:       phone,
		Address:     rec.CustomerAddress,
	}
	if err := customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
