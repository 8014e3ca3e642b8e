package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const AuditCleanupJobName = "audit_cleanup"

// AuditCleaner deletes audit entries past their retention
type AuditCleaner interface {
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}

// RegisterAuditCleanupJob removes audit entries older than retentionDays
// on the given schedule. A non-positive retention disables the job.
func RegisterAuditCleanupJob(scheduler *Scheduler, cleaner AuditCleaner, logger *zap.Logger, cronExpr string, retentionDays int) error {
	if retentionDays <= 0 {
		logger.Info("audit cleanup disabled")
		return nil
	}
	return scheduler.AddJob(AuditCleanupJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := cleaner.CleanupOldLogs(ctx, retentionDays); err != nil {
			logger.Error("audit cleanup failed", zap.Error(err))
		}
	})
}
