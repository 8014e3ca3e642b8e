package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/mapper"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobReportService stores technician reports. Submitting a report on an
// assigned job is what moves it to pending approval.
type JobReportService struct {
	reportRepo      *repository.JobReportRepository
	jobRepo         *repository.JobRepository
	db              *gorm.DB
	duplicateWindow time.Duration
	logger          *zap.Logger
}

// NewJobReportService creates the service. A positive duplicateWindow makes
// an identical report from the same author within the window return the
// stored one instead of inserting again.
func NewJobReportService(
	reportRepo *repository.JobReportRepository,
	jobRepo *repository.JobRepository,
	db *gorm.DB,
	duplicateWindow time.Duration,
	logger *zap.Logger,
) *JobReportService {
	return &JobReportService{
		reportRepo:      reportRepo,
		jobRepo:         jobRepo,
		db:              db,
		duplicateWindow: duplicateWindow,
		logger:          logger,
	}
}

// Submit stores a report and advances the job from assigned to pending
// approval. Reports on jobs already pending or approved are stored without
// touching the status.
func (s *JobReportService) Submit(ctx context.Context, actor domain.Actor, req *domain.SubmitJobReportRequest) (*domain.JobReportDTO, error) {
	if req.JobID == uuid.Nil {
		return nil, validation("job_id is required")
	}
	if !domain.HasReportEvidence(req.ImageURLs, req.VoiceMessageURL) {
		return nil, validation("A job report needs at least one image or a voice message")
	}

	var report *domain.JobReport
	var advanced bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		reports := s.reportRepo.WithTx(tx)

		job, err := jobs.GetForUpdate(ctx, req.JobID)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.SubmitJobReport, policy.JobFacts(actor, job)) {
			return forbidden("Only a technician assigned to this job can submit reports")
		}
		switch job.Status {
		case domain.JobStatusFinalized:
			return invalidState("Job is finalized and no longer accepts reports")
		case domain.JobStatusNew:
			return invalidState("Job has no technician assigned yet. Current status: %s", job.Status)
		}

		now := time.Now().UTC()
		if s.duplicateWindow > 0 {
			recent, err := reports.FindRecent(ctx, job.ID, actor.ID, now.Add(-s.duplicateWindow))
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if recent != nil && sameContent(recent, req) {
				report = recent
				return nil
			}
		}

		report = &domain.JobReport{
			JobID:           job.ID,
			CreatedByUserID: actor.ID,
			ProblemSummary:  req.ProblemSummary,
			ActionsTaken:    req.ActionsTaken,
			ImageURLs:       req.ImageURLs,
			VoiceMessageURL: req.VoiceMessageURL,
			Timestamp:       now,
		}
		if report.ImageURLs == nil {
			report.ImageURLs = []string{}
		}
		if err := reports.Create(ctx, report); err != nil {
			return err
		}

		if job.Status == domain.JobStatusAssigned {
			advanced, err = jobs.TransitionStatus(ctx, job.ID, domain.JobStatusAssigned, domain.JobStatusPendingApproval, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	s.logger.Info("job report submitted",
		zap.String("job_id", req.JobID.String()),
		zap.String("report_id", report.ID.String()),
		zap.Bool("status_advanced", advanced),
		zap.String("by", actor.ID.String()))

	dto := mapper.ToJobReportDTO(report)
	return &dto, nil
}

func sameContent(r *domain.JobReport, req *domain.SubmitJobReportRequest) bool {
	if r.ProblemSummary != req.ProblemSummary || r.ActionsTaken != req.ActionsTaken {
		return false
	}
	if !slices.Equal(r.ImageURLs, req.ImageURLs) {
		return false
	}
	switch {
	case r.VoiceMessageURL == nil && req.VoiceMessageURL == nil:
		return true
	case r.VoiceMessageURL == nil || req.VoiceMessageURL == nil:
		return false
	}
	return *r.VoiceMessageURL == *req.VoiceMessageURL
}

// ListByJob returns the reports of a job the actor may see
func (s *JobReportService) ListByJob(ctx context.Context, actor domain.Actor, jobID uuid.UUID) ([]domain.JobReportDTO, error) {
	if !policy.HasRole(actor, policy.ViewJobs) {
		return nil, forbidden("You are not allowed to view jobs")
	}
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, translateError(err, "Job")
	}
	if !policy.CanViewJob(actor, job) {
		return nil, forbidden("Job is outside your visibility scope")
	}

	reports, err := s.reportRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, translateError(err, "Job report")
	}
	dtos := make([]domain.JobReportDTO, len(reports))
	for i := range reports {
		dtos[i] = mapper.ToJobReportDTO(&reports[i])
	}
	return dtos, nil
}

// Update edits a report. The evidence rule still applies afterwards.
func (s *JobReportService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdateJobReportRequest) (*domain.JobReportDTO, error) {
	if !policy.HasRole(actor, policy.EditJobReport) {
		return nil, forbidden("Only managers and administrators can edit job reports")
	}

	var report *domain.JobReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := s.reportRepo.WithTx(tx)
		var err error
		report, err = reports.GetByID(ctx, id)
		if err != nil {
			return err
		}
		job, err := s.jobRepo.WithTx(tx).GetForUpdate(ctx, report.JobID)
		if err != nil {
			return err
		}
		if job.Status.IsReadOnly() {
			return invalidState("Job is finalized and its reports can no longer change")
		}

		if req.ProblemSummary != nil {
			report.ProblemSummary = *req.ProblemSummary
		}
		if req.ActionsTaken != nil {
			report.ActionsTaken = *req.ActionsTaken
		}
		if req.ImageURLs != nil {
			report.ImageURLs = *req.ImageURLs
		}
		if req.VoiceMessageURL != nil {
			if *req.VoiceMessageURL == "" {
				report.VoiceMessageURL = nil
			} else {
				report.VoiceMessageURL = req.VoiceMessageURL
			}
		}
		if !report.HasEvidence() {
			return validation("A job report needs at least one image or a voice message")
		}
		return reports.Update(ctx, report)
	})
	if err != nil {
		return nil, translateError(err, "Job report")
	}

	dto := mapper.ToJobReportDTO(report)
	return &dto, nil
}

func (s *JobReportService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.DeleteJobReport) {
		return forbidden("Only administrators can delete job reports")
	}
	return translateError(s.reportRepo.Delete(ctx, id), "Job report")
}
