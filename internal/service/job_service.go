package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/mapper"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobService runs the job lifecycle: creation, roster changes, approval and
// finalization. Every response goes through present so role redaction is
// applied the same way for single fetches and lists.
type JobService struct {
	jobRepo         *repository.JobRepository
	lineItemRepo    *repository.JobLineItemRepository
	userRepo        *repository.UserRepository
	customerRepo    *repository.CustomerRepository
	projectRepo     *repository.ProjectRepository
	inventoryRepo   *repository.InventoryRepository
	serviceItemRepo *repository.ServiceItemRepository
	sequences       *NumberSequenceService
	db              *gorm.DB
	logger          *zap.Logger
}

func NewJobService(
	jobRepo *repository.JobRepository,
	lineItemRepo *repository.JobLineItemRepository,
	userRepo *repository.UserRepository,
	customerRepo *repository.CustomerRepository,
	projectRepo *repository.ProjectRepository,
	inventoryRepo *repository.InventoryRepository,
	serviceItemRepo *repository.ServiceItemRepository,
	sequences *NumberSequenceService,
	db *gorm.DB,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		jobRepo:         jobRepo,
		lineItemRepo:    lineItemRepo,
		userRepo:        userRepo,
		customerRepo:    customerRepo,
		projectRepo:     projectRepo,
		inventoryRepo:   inventoryRepo,
		serviceItemRepo: serviceItemRepo,
		sequences:       sequences,
		db:              db,
		logger:          logger,
	}
}

func present(actor domain.Actor, job *domain.Job) domain.JobDTO {
	dto := mapper.ToJobDTO(job)
	return *policy.SanitizeJob(actor.Role, &dto)
}

// List returns the page of jobs inside the actor's visibility scope
func (s *JobService) List(ctx context.Context, actor domain.Actor, filters repository.JobFilters, sort repository.SortConfig, page, limit int) ([]domain.JobDTO, int64, error) {
	if !policy.HasRole(actor, policy.ViewJobs) {
		return nil, 0, forbidden("You are not allowed to view jobs")
	}

	jobs, total, err := s.jobRepo.List(ctx, policy.JobScopeFor(actor), filters, sort, page, limit)
	if err != nil {
		return nil, 0, translateError(err, "Job")
	}

	dtos := make([]domain.JobDTO, len(jobs))
	for i := range jobs {
		dtos[i] = present(actor, &jobs[i])
	}
	return dtos, total, nil
}

// StatusSummary counts the jobs the actor can see per status. Every status
// is present, zero when no job has it.
func (s *JobService) StatusSummary(ctx context.Context, actor domain.Actor) ([]domain.JobStatusCountDTO, error) {
	if !policy.HasRole(actor, policy.ViewJobs) {
		return nil, forbidden("You are not allowed to view jobs")
	}
	counts, err := s.jobRepo.CountByStatus(ctx, policy.JobScopeFor(actor))
	if err != nil {
		return nil, translateError(err, "Job")
	}
	statuses := domain.JobStatuses()
	summary := make([]domain.JobStatusCountDTO, len(statuses))
	for i, st := range statuses {
		summary[i] = domain.JobStatusCountDTO{Status: st, Label: st.Label(), Count: counts[st]}
	}
	return summary, nil
}

// Get returns one job. A job outside the actor's scope is reported as
// forbidden rather than missing.
func (s *JobService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.JobDTO, error) {
	if !policy.HasRole(actor, policy.ViewJobs) {
		return nil, forbidden("You are not allowed to view jobs")
	}
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Job")
	}
	if !policy.CanViewJob(actor, job) {
		return nil, forbidden("Job is outside your visibility scope")
	}
	dto := present(actor, job)
	return &dto, nil
}

// Create inserts a job in status assigned together with its roster and
// line items.
func (s *JobService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateJobRequest) (*domain.JobDTO, error) {
	if !policy.HasRole(actor, policy.CreateJob) {
		return nil, forbidden("You are not allowed to create jobs")
	}

	jobType, ok := domain.ParseJobType(req.JobType)
	if !ok {
		return nil, validation("Invalid job_type: %s", req.JobType)
	}
	if req.ScheduledStartTime == nil || req.ScheduledEndTime == nil {
		return nil, validation("scheduled_start_time and scheduled_end_time are required")
	}
	if req.ScheduledEndTime.Before(*req.ScheduledStartTime) {
		return nil, validation("scheduled_end_time must not be before scheduled_start_time")
	}
	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, translateError(err, "Customer")
	}
	if err := s.checkProject(ctx, req.ProjectID, req.CustomerID); err != nil {
		return nil, err
	}
	roster, err := s.resolveRoster(ctx, actor, req.TechnicianIDs)
	if err != nil {
		return nil, err
	}
	items := make([]*domain.JobLineItem, 0, len(req.LineItems))
	for i := range req.LineItems {
		item, err := s.resolveLineItem(ctx, &req.LineItems[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	job := &domain.Job{
		JobCode:            strings.TrimSpace(req.JobCode),
		CustomerID:         req.CustomerID,
		ProjectID:          req.ProjectID,
		JobType:            jobType,
		Status:             domain.JobStatusAssigned,
		ScheduledStartTime: req.ScheduledStartTime.UTC(),
		ScheduledEndTime:   req.ScheduledEndTime.UTC(),
		Notes:              req.Notes,
		CreatedByUserID:    actor.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		if job.JobCode == "" {
			code, err := s.sequences.NextJobCode(ctx, tx, job.ScheduledStartTime)
			if err != nil {
				return err
			}
			job.JobCode = code
		} else {
			exists, err := jobs.ExistsByCode(ctx, job.JobCode)
			if err != nil {
				return err
			}
			if exists {
				return conflict("Job code %s already exists", job.JobCode)
			}
			if err := s.sequences.ReserveJobCode(ctx, tx, job.JobCode); err != nil {
				return err
			}
		}

		if err := jobs.Create(ctx, job); err != nil {
			return err
		}
		if err := jobs.ReplaceTechnicians(ctx, job.ID, roster); err != nil {
			return err
		}
		lines := s.lineItemRepo.WithTx(tx)
		for _, item := range items {
			item.JobID = job.ID
			if err := lines.Create(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	s.logger.Info("job created",
		zap.String("job_id", job.ID.String()),
		zap.String("job_code", job.JobCode),
		zap.Int("technicians", len(roster)),
		zap.String("by", actor.ID.String()))

	return s.load(ctx, actor, job.ID)
}

// Update applies a partial edit. Status may only move along the lifecycle
// with the same authorization the dedicated endpoints require.
func (s *JobService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdateJobRequest) (*domain.JobDTO, error) {
	var jobType *domain.JobType
	if req.JobType != nil {
		jt, ok := domain.ParseJobType(*req.JobType)
		if !ok {
			return nil, validation("Invalid job_type: %s", *req.JobType)
		}
		jobType = &jt
	}
	var target *domain.JobStatus
	if req.Status != nil {
		st, ok := domain.ParseJobStatus(*req.Status)
		if !ok {
			return nil, validation("Invalid status: %s", *req.Status)
		}
		target = &st
	}
	var roster []uuid.UUID
	if req.TechnicianIDs != nil {
		r, err := s.resolveRoster(ctx, actor, *req.TechnicianIDs)
		if err != nil {
			return nil, err
		}
		roster = r
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		job, err := jobs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if job.Status.IsReadOnly() {
			return invalidState("Job is finalized and can no longer be edited")
		}
		facts := policy.JobFacts(actor, job)
		if !policy.Can(actor, policy.EditJob, facts) && !(req.TechnicianIDs != nil && staffsEmptyRoster(job, roster)) {
			return forbidden("You are not allowed to edit this job")
		}

		if req.ProjectID != nil {
			if err := checkProjectWith(ctx, s.projectRepo.WithTx(tx), req.ProjectID, job.CustomerID); err != nil {
				return err
			}
			job.ProjectID = req.ProjectID
		}
		if jobType != nil {
			job.JobType = *jobType
		}
		if req.ScheduledStartTime != nil {
			job.ScheduledStartTime = req.ScheduledStartTime.UTC()
		}
		if req.ScheduledEndTime != nil {
			job.ScheduledEndTime = req.ScheduledEndTime.UTC()
		}
		if job.ScheduledEndTime.Before(job.ScheduledStartTime) {
			return validation("scheduled_end_time must not be before scheduled_start_time")
		}
		if req.Notes != nil {
			job.Notes = *req.Notes
		}

		technicians := job.Technicians
		job.Technicians = nil
		if err := jobs.Update(ctx, job); err != nil {
			return err
		}
		job.Technicians = technicians

		if req.TechnicianIDs != nil {
			if err := jobs.ReplaceTechnicians(ctx, job.ID, roster); err != nil {
				return err
			}
		}

		if target != nil && *target != job.Status {
			return s.transitionByEdit(ctx, jobs, actor, job, facts, *target)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	return s.load(ctx, actor, id)
}

func (s *JobService) transitionByEdit(ctx context.Context, jobs *repository.JobRepository, actor domain.Actor, job *domain.Job, facts policy.Facts, target domain.JobStatus) error {
	if !job.Status.CanTransitionTo(target) {
		return invalidState("Cannot change status from %s to %s", job.Status, target)
	}

	now := time.Now().UTC()
	extra := map[string]interface{}{}
	switch target {
	case domain.JobStatusPendingApproval:
		return invalidState("A job moves to pending approval only when a job report is submitted")
	case domain.JobStatusApproved:
		if !policy.Can(actor, policy.ApproveJob, facts) {
			return forbidden("Managers can only approve jobs of technicians in their own department")
		}
		extra["actual_end_time"] = now
	case domain.JobStatusFinalized:
		if !policy.Can(actor, policy.FinalizeJob, facts) {
			return forbidden("Managers can only finalize jobs of technicians in their own department")
		}
		extra["finalized_at"] = now
	case domain.JobStatusAssigned:
		if job.Status == domain.JobStatusPendingApproval && !policy.Can(actor, policy.ApproveJob, facts) {
			return forbidden("Managers can only reject jobs of technicians in their own department")
		}
	}

	ok, err := jobs.TransitionStatus(ctx, job.ID, job.Status, target, extra)
	if err != nil {
		return err
	}
	if !ok {
		return staleState(job.ID)
	}
	return nil
}

// AssignTechnicians replaces the roster. Every requested technician is
// checked, not only the first.
func (s *JobService) AssignTechnicians(ctx context.Context, actor domain.Actor, id uuid.UUID, technicianIDs []uuid.UUID) (*domain.JobDTO, error) {
	roster, err := s.resolveRoster(ctx, actor, technicianIDs)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		job, err := jobs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if job.Status.IsReadOnly() {
			return invalidState("Job is finalized and its technicians can no longer change")
		}
		if !policy.Can(actor, policy.EditJob, policy.JobFacts(actor, job)) && !staffsEmptyRoster(job, roster) {
			return forbidden("You are not allowed to edit this job")
		}
		if err := jobs.ReplaceTechnicians(ctx, job.ID, roster); err != nil {
			return err
		}
		if job.Status == domain.JobStatusNew && len(roster) > 0 {
			if _, err := jobs.TransitionStatus(ctx, job.ID, domain.JobStatusNew, domain.JobStatusAssigned, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	s.logger.Info("job roster replaced",
		zap.String("job_id", id.String()),
		zap.Int("technicians", len(roster)),
		zap.String("by", actor.ID.String()))

	return s.load(ctx, actor, id)
}

// Approve moves a job from pending approval to approved and stamps the
// actual end time. The row is locked and the write is conditional on the
// status still being pending approval, so of two concurrent approvals only
// one succeeds.
func (s *JobService) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.JobDTO, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		job, err := jobs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.ApproveJob, policy.JobFacts(actor, job)) {
			return forbidden("Managers can only approve jobs of technicians in their own department")
		}
		if job.Status != domain.JobStatusPendingApproval {
			return invalidState("Job is not in pending approval status. Current status: %s", job.Status)
		}

		ok, err := jobs.TransitionStatus(ctx, id, domain.JobStatusPendingApproval, domain.JobStatusApproved,
			map[string]interface{}{"actual_end_time": time.Now().UTC()})
		if err != nil {
			return err
		}
		if !ok {
			return staleState(id)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	s.logger.Info("job approved", zap.String("job_id", id.String()), zap.String("by", actor.ID.String()))
	return s.load(ctx, actor, id)
}

// Reject sends a pending job back to its technicians
func (s *JobService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.JobDTO, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		job, err := jobs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.ApproveJob, policy.JobFacts(actor, job)) {
			return forbidden("Managers can only reject jobs of technicians in their own department")
		}
		if job.Status != domain.JobStatusPendingApproval {
			return invalidState("Job is not in pending approval status. Current status: %s", job.Status)
		}

		var extra map[string]interface{}
		if reason = strings.TrimSpace(reason); reason != "" {
			notes := job.Notes
			if notes != "" {
				notes += "\n"
			}
			extra = map[string]interface{}{"notes": notes + "Rejected: " + reason}
		}
		ok, err := jobs.TransitionStatus(ctx, id, domain.JobStatusPendingApproval, domain.JobStatusAssigned, extra)
		if err != nil {
			return err
		}
		if !ok {
			return staleState(id)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	s.logger.Info("job rejected", zap.String("job_id", id.String()), zap.String("by", actor.ID.String()))
	return s.load(ctx, actor, id)
}

// Finalize closes an approved job. Finalized jobs are read-only.
func (s *JobService) Finalize(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.JobDTO, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		job, err := jobs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.FinalizeJob, policy.JobFacts(actor, job)) {
			return forbidden("Managers can only finalize jobs of technicians in their own department")
		}
		if job.Status != domain.JobStatusApproved {
			return invalidState("Job is not approved. Current status: %s", job.Status)
		}

		ok, err := jobs.TransitionStatus(ctx, id, domain.JobStatusApproved, domain.JobStatusFinalized,
			map[string]interface{}{"finalized_at": time.Now().UTC()})
		if err != nil {
			return err
		}
		if !ok {
			return staleState(id)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}

	s.logger.Info("job finalized", zap.String("job_id", id.String()), zap.String("by", actor.ID.String()))
	return s.load(ctx, actor, id)
}

func (s *JobService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !policy.HasRole(actor, policy.DeleteJob) {
		return forbidden("Only administrators can delete jobs")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.jobRepo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return translateError(err, "Job")
	}
	s.logger.Info("job deleted", zap.String("job_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

// AddLineItem attaches a material or service line to a job
func (s *JobService) AddLineItem(ctx context.Context, actor domain.Actor, jobID uuid.UUID, req *domain.LineItemRequest) (*domain.JobDTO, error) {
	item, err := s.resolveLineItem(ctx, req)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.editableJob(ctx, tx, actor, jobID)
		if err != nil {
			return err
		}
		item.JobID = job.ID
		return s.lineItemRepo.WithTx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}
	return s.load(ctx, actor, jobID)
}

// UpdateLineItem changes the description, quantity or price of a line
func (s *JobService) UpdateLineItem(ctx context.Context, actor domain.Actor, jobID, itemID uuid.UUID, req *domain.UpdateLineItemRequest) (*domain.JobDTO, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, validation("quantity must be greater than 0")
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, validation("unit_price must not be negative")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.editableJob(ctx, tx, actor, jobID); err != nil {
			return err
		}
		items := s.lineItemRepo.WithTx(tx)
		item, err := items.GetByID(ctx, jobID, itemID)
		if err != nil {
			return translateError(err, "Line item")
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		return items.Update(ctx, item)
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}
	return s.load(ctx, actor, jobID)
}

// RemoveLineItem deletes a line from a job
func (s *JobService) RemoveLineItem(ctx context.Context, actor domain.Actor, jobID, itemID uuid.UUID) (*domain.JobDTO, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.editableJob(ctx, tx, actor, jobID); err != nil {
			return err
		}
		return translateError(s.lineItemRepo.WithTx(tx).Delete(ctx, jobID, itemID), "Line item")
	})
	if err != nil {
		return nil, translateError(err, "Job")
	}
	return s.load(ctx, actor, jobID)
}

func (s *JobService) editableJob(ctx context.Context, tx *gorm.DB, actor domain.Actor, id uuid.UUID) (*domain.Job, error) {
	job, err := s.jobRepo.WithTx(tx).GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsReadOnly() {
		return nil, invalidState("Job is finalized and can no longer be edited")
	}
	if !policy.Can(actor, policy.EditJob, policy.JobFacts(actor, job)) {
		return nil, forbidden("You are not allowed to edit this job")
	}
	return job, nil
}

// load re-reads a job after a write. The actor has just been authorized for
// the write, so no scope check is repeated here.
func (s *JobService) load(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.JobDTO, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "Job")
	}
	dto := present(actor, job)
	return &dto, nil
}

// staffsEmptyRoster reports whether roster fills a job nobody is on yet.
// Such a job has no department, so the per-technician assignment check
// done by resolveRoster is the only gate.
func staffsEmptyRoster(job *domain.Job, roster []uuid.UUID) bool {
	return len(job.Technicians) == 0 && len(roster) > 0
}

// resolveRoster de-duplicates ids keeping the first occurrence, checks that
// each user exists and that actor may assign every one of them.
func (s *JobService) resolveRoster(ctx context.Context, actor domain.Actor, ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	roster := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, validation("technician_ids contains an empty id")
		}
		if !seen[id] {
			seen[id] = true
			roster = append(roster, id)
		}
	}
	if len(roster) == 0 {
		return roster, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, roster)
	if err != nil {
		return nil, translateError(err, "User")
	}
	if len(users) != len(roster) {
		found := make(map[uuid.UUID]bool, len(users))
		for _, u := range users {
			found[u.ID] = true
		}
		for _, id := range roster {
			if !found[id] {
				return nil, validation("Technician %s does not exist", id)
			}
		}
	}
	if id, denied := policy.FirstUnassignable(actor, users); denied {
		return nil, forbidden("You are not allowed to assign user %s to a job", id)
	}
	return roster, nil
}

func (s *JobService) resolveLineItem(ctx context.Context, req *domain.LineItemRequest) (*domain.JobLineItem, error) {
	if req.Quantity <= 0 {
		return nil, validation("quantity must be greater than 0")
	}
	item := &domain.JobLineItem{
		Kind:        req.Kind,
		Description: req.Description,
		Quantity:    req.Quantity,
	}

	switch req.Kind {
	case domain.LineItemKindMaterial:
		if req.ProductID == nil {
			return nil, validation("product_id is required for material line items")
		}
		product, err := s.inventoryRepo.GetProduct(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation("Product %s does not exist", req.ProductID)
			}
			return nil, translateError(err, "Product")
		}
		item.ProductID = &product.ID
		item.UnitPrice = product.UnitPrice
	case domain.LineItemKindService:
		if req.ServiceItemID == nil {
			return nil, validation("service_item_id is required for service line items")
		}
		svc, err := s.serviceItemRepo.GetByID(ctx, *req.ServiceItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation("Service item %s does not exist", req.ServiceItemID)
			}
			return nil, translateError(err, "Service item")
		}
		item.ServiceItemID = &svc.ID
		item.UnitPrice = svc.Price
	default:
		return nil, validation("Invalid line item kind: %s", req.Kind)
	}

	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, validation("unit_price must not be negative")
		}
		item.UnitPrice = *req.UnitPrice
	}
	return item, nil
}

func (s *JobService) checkProject(ctx context.Context, projectID *uuid.UUID, customerID uuid.UUID) error {
	return checkProjectWith(ctx, s.projectRepo, projectID, customerID)
}

func checkProjectWith(ctx context.Context, repo *repository.ProjectRepository, projectID *uuid.UUID, customerID uuid.UUID) error {
	if projectID == nil {
		return nil
	}
	project, err := repo.GetByID(ctx, *projectID)
	if err != nil {
		return translateError(err, "Project")
	}
	if project.CustomerID != customerID {
		return validation("Project %s belongs to another customer", projectID)
	}
	return nil
}

func staleState(id uuid.UUID) *Error {
	return invalidState("Job %s was changed by another request; reload and try again", id)
}
