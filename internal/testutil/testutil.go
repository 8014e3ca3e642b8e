// Package testutil provides an in-memory database and fixtures for
// package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldops/backoffice-api/internal/database"
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory SQLite database with every model
// migrated. A single connection keeps the in-memory database alive and
// serializes transactions.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.Options())
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// NewMockDB returns a PostgreSQL-dialect gorm handle backed by sqlmock, for
// tests that need the driver to fail in specific ways.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Options())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db, mock
}

// NewTestLogger returns a logger that discards everything
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

func CreateDepartment(t *testing.T, db *gorm.DB, name string) *domain.Department {
	t.Helper()
	dept := &domain.Department{Name: name}
	require.NoError(t, db.Create(dept).Error)
	return dept
}

// CreateUser stores a user with the given role. deptID may be nil.
func CreateUser(t *testing.T, db *gorm.DB, role domain.Role, deptID *uuid.UUID) *domain.User {
	t.Helper()
	id := uuid.New()
	external := "ext-" + id.String()
	user := &domain.User{
		BaseModel:    domain.BaseModel{ID: id},
		ExternalID:   &external,
		Email:        fmt.Sprintf("%s@example.com", id.String()[:8]),
		DisplayName:  string(role) + " " + id.String()[:4],
		Role:         role,
		DepartmentID: deptID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// ActorFor is the actor the auth middleware would build for user
func ActorFor(user *domain.User) domain.Actor {
	return user.ToActor()
}

func CreateCustomer(t *testing.T, db *gorm.DB, name string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		CompanyName:   name,
		Address:       "1 Main Street",
		Phone:         "+4722334455",
		ContactPerson: "Kari Nordmann",
		Email:         "post@example.com",
		TaxCode:       "987654321",
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateJob stores a job in status with the technicians as its roster, in
// order. createdBy may be uuid.Nil.
func CreateJob(t *testing.T, db *gorm.DB, customerID uuid.UUID, status domain.JobStatus, createdBy uuid.UUID, technicians ...uuid.UUID) *domain.Job {
	t.Helper()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	job := &domain.Job{
		JobCode:            "TEST-" + uuid.NewString()[:8],
		CustomerID:         customerID,
		JobType:            domain.JobTypeRepair,
		Status:             status,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(4 * time.Hour),
		CreatedByUserID:    createdBy,
	}
	require.NoError(t, db.Omit("Technicians", "LineItems", "Customer", "Project").Create(job).Error)

	for i, techID := range technicians {
		require.NoError(t, db.Omit("User").Create(&domain.JobTechnician{
			JobID:     job.ID,
			UserID:    techID,
			Position:  i,
			CreatedAt: time.Now().UTC(),
		}).Error)
	}
	return job
}

func CreateProduct(t *testing.T, db *gorm.DB, code string, unitPrice float64) *domain.InventoryProduct {
	t.Helper()
	product := &domain.InventoryProduct{
		ProductCode: code,
		ModelName:   "Model " + code,
		Unit:        "pcs",
		UnitPrice:   decimal.NewFromFloat(unitPrice),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func CreateServiceItem(t *testing.T, db *gorm.DB, name string, price float64) *domain.ServiceItem {
	t.Helper()
	item := &domain.ServiceItem{Name: name, Price: decimal.NewFromFloat(price)}
	require.NoError(t, db.Create(item).Error)
	return item
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
