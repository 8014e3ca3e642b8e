package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/fieldops/backoffice-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts    = 5
	initialBackoff     = time.Second
	maxBackoff         = 15 * time.Second
	healthCheckTimeout = 3 * time.Second
)

// NewDatabase opens the PostgreSQL pool, retrying while the server comes up
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := open(dsn, cfg)
		if err == nil {
			log.Info("Database connection established",
				zap.String("host", cfg.Host),
				zap.String("database", cfg.Name),
				zap.Int("attempt", attempt),
			)
			return db, nil
		}
		lastErr = err
		log.Warn("Database connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err),
		)
		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

func open(dsn string, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), Options())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Options is the gorm configuration shared by the server, tools and tests.
// TranslateError turns driver unique violations into gorm.ErrDuplicatedKey.
func Options() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (*sql.DBStats, error) {
	if err := HealthCheck(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	stats := sqlDB.Stats()
	return &stats, nil
}

// Models lists every persisted type in dependency order
func Models() []interface{} {
	return []interface{}{
		&domain.Department{},
		&domain.User{},
		&domain.Customer{},
		&domain.Contact{},
		&domain.Project{},
		&domain.InventoryProduct{},
		&domain.ServiceItem{},
		&domain.Job{},
		&domain.JobTechnician{},
		&domain.JobLineItem{},
		&domain.JobReport{},
		&domain.MonthOpening{},
		&domain.DailyMovement{},
		&domain.InventoryAdjustment{},
		&domain.NumberSequence{},
		&domain.AuditLog{},
	}
}

// AutoMigrate runs automatic migrations (development and tests only;
// deployed databases are migrated with cmd/migrate)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
