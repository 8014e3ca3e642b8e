package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/mapper"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sensitiveKeys are dropped from audited payloads
var sensitiveKeys = []string{"password", "secret", "token", "api_key", "apiKey"}

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Actor      *domain.Actor
	Action     domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	Method     string
	Path       string
	StatusCode int
	RequestID  string
	IPAddress  string
	Payload    map[string]interface{}
}

// Log stores an audit entry. Sensitive payload keys are removed first.
func (s *AuditLogService) Log(ctx context.Context, entry LogEntry) error {
	auditLog := &domain.AuditLog{
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Method:      entry.Method,
		Path:        entry.Path,
		StatusCode:  entry.StatusCode,
		RequestID:   entry.RequestID,
		IPAddress:   entry.IPAddress,
		PerformedAt: time.Now().UTC(),
		Payload:     "null",
	}

	if entry.Actor != nil {
		auditLog.UserEmail = entry.Actor.Email
		auditLog.UserRole = entry.Actor.Role
		if !entry.Actor.IsSystem() {
			id := entry.Actor.ID
			auditLog.UserID = &id
		}
	}

	if entry.Payload != nil {
		for _, k := range sensitiveKeys {
			delete(entry.Payload, k)
		}
		if payload, err := json.Marshal(entry.Payload); err == nil {
			auditLog.Payload = string(payload)
		}
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		return err
	}
	return nil
}

// List returns audit entries, newest first. Administrators only.
func (s *AuditLogService) List(ctx context.Context, actor domain.Actor, filter *repository.AuditLogFilter, page, limit int) ([]domain.AuditLogDTO, int64, error) {
	if !policy.HasRole(actor, policy.ViewAuditLogs) {
		return nil, 0, forbidden("Only administrators can view audit logs")
	}
	logs, total, err := s.auditRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, translateError(err, "Audit log")
	}
	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}
	return dtos, total, nil
}

// CleanupOldLogs removes logs older than the retention period
func (s *AuditLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	before := time.Now().AddDate(0, 0, -retentionDays)
	count, err := s.auditRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		s.logger.Error("failed to cleanup old audit logs",
			zap.Int("retention_days", retentionDays),
			zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("cleaned up old audit logs",
			zap.Int64("deleted_count", count),
			zap.Int("retention_days", retentionDays))
	}
	return count, nil
}
