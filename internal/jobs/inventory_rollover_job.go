package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InventoryRolloverJobName is the scheduler name of the month rollover
const InventoryRolloverJobName = "inventory_rollover"

// InventoryRollover creates opening balances for a month from the previous
// month's closing stock.
type InventoryRollover interface {
	CurrentPeriod() (year, month, day int)
	Rollover(ctx context.Context, year, month int) (int, error)
}

// InventoryRolloverJob opens the current month for every product
type InventoryRolloverJob struct {
	inventory InventoryRollover
	logger    *zap.Logger
	timeout   time.Duration
}

func NewInventoryRolloverJob(inventory InventoryRollover, logger *zap.Logger, timeout time.Duration) *InventoryRolloverJob {
	return &InventoryRolloverJob{inventory: inventory, logger: logger, timeout: timeout}
}

// Run is called by the scheduler. It is idempotent: months that already
// have an opening are left alone.
func (j *InventoryRolloverJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	year, month, _ := j.inventory.CurrentPeriod()
	created, err := j.inventory.Rollover(ctx, year, month)
	if err != nil {
		j.logger.Error("inventory rollover failed",
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("inventory rollover completed",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("openings_created", created),
		zap.Duration("duration", time.Since(start)))
}

// RegisterInventoryRolloverJob schedules the rollover. With runAtStartup the
// current month is opened in the background right away, covering restarts
// that missed the scheduled run.
func RegisterInventoryRolloverJob(scheduler *Scheduler, inventory InventoryRollover, logger *zap.Logger, cronExpr string, runAtStartup bool) error {
	job := NewInventoryRolloverJob(inventory, logger, 5*time.Minute)
	if runAtStartup {
		go job.Run()
	}
	return scheduler.AddJob(InventoryRolloverJobName, cronExpr, job.Run)
}
