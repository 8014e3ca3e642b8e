package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Department groups technicians under a manager's authority
type Department struct {
	BaseModel
	Name string `gorm:"type:varchar(150);not null;uniqueIndex"`
}

func (Department) TableName() string {
	return "departments"
}

// User is a person known to the identity provider. Role and department are
// assigned by an Admin after the first sign-in.
type User struct {
	BaseModel
	ExternalID   *string     `gorm:"type:varchar(255);uniqueIndex;column:external_id"`
	Email        string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string      `gorm:"type:varchar(200);column:display_name"`
	Role         Role        `gorm:"type:varchar(20);not null;default:'NOT_ASSIGN'"`
	DepartmentID *uuid.UUID  `gorm:"type:uuid;index;column:department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID"`
	LastLoginAt  *time.Time  `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "users"
}

// ToActor converts a stored user into the value handed to the policy layer.
func (u *User) ToActor() Actor {
	return Actor{
		ID:           u.ID,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
	}
}

// Customer represents an organization the company does field work for
type Customer struct {
	BaseModel
	CompanyName   string `gorm:"type:varchar(200);not null;column:company_name;index"`
	Address       string `gorm:"type:text"`
	Phone         string `gorm:"type:varchar(50)"`
	ContactPerson string `gorm:"type:varchar(200);column:contact_person"`
	Email         string `gorm:"type:varchar(255)"`
	TaxCode       string `gorm:"type:varchar(50);column:tax_code"`
	Notes         string `gorm:"type:text"`
}

func (Customer) TableName() string {
	return "customers"
}

// Contact is a person at a customer. At most one contact per customer is primary.
type Contact struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index;column:customer_id"`
	FullName   string    `gorm:"type:varchar(200);not null;column:full_name"`
	Phone      string    `gorm:"type:varchar(50)"`
	Email      string    `gorm:"type:varchar(255)"`
	Position   string    `gorm:"type:varchar(120)"`
	IsPrimary  bool      `gorm:"not null;default:false;column:is_primary"`
}

func (Contact) TableName() string {
	return "contacts"
}

// ProjectStatus represents the status of a customer project
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// IsValid checks if the project status is a known value
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project groups jobs done for one customer under a common goal
type Project struct {
	BaseModel
	CustomerID  uuid.UUID     `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer    *Customer     `gorm:"foreignKey:CustomerID"`
	Name        string        `gorm:"type:varchar(200);not null"`
	Description string        `gorm:"type:text"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'planning'"`
	StartDate   *time.Time    `gorm:"column:start_date"`
	EndDate     *time.Time    `gorm:"column:end_date"`
}

func (Project) TableName() string {
	return "projects"
}

// Job is a unit of field work for one customer
type Job struct {
	BaseModel
	JobCode            string          `gorm:"type:varchar(50);not null;uniqueIndex;column:job_code"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer           *Customer       `gorm:"foreignKey:CustomerID"`
	ProjectID          *uuid.UUID      `gorm:"type:uuid;index;column:project_id"`
	Project            *Project        `gorm:"foreignKey:ProjectID"`
	JobType            JobType         `gorm:"type:varchar(30);not null;column:job_type"`
	Status             JobStatus       `gorm:"type:varchar(30);not null;index"`
	ScheduledStartTime time.Time       `gorm:"not null;column:scheduled_start_time;index"`
	ScheduledEndTime   time.Time       `gorm:"not null;column:scheduled_end_time"`
	ActualEndTime      *time.Time      `gorm:"column:actual_end_time"`
	FinalizedAt        *time.Time      `gorm:"column:finalized_at"`
	Notes              string          `gorm:"type:text"`
	CreatedByUserID    uuid.UUID       `gorm:"type:uuid;not null;column:created_by_user_id"`
	Technicians        []JobTechnician `gorm:"foreignKey:JobID"`
	LineItems          []JobLineItem   `gorm:"foreignKey:JobID"`
}

func (Job) TableName() string {
	return "jobs"
}

// AssignedTechnicianID mirrors the first technician of the roster. It is
// never stored.
func (j *Job) AssignedTechnicianID() *uuid.UUID {
	if len(j.Technicians) == 0 {
		return nil
	}
	id := j.Technicians[0].UserID
	return &id
}

// PrimaryTechnician returns the first roster entry's user, if loaded.
func (j *Job) PrimaryTechnician() *User {
	if len(j.Technicians) == 0 {
		return nil
	}
	return j.Technicians[0].User
}

// HasTechnician reports whether userID is on the job's roster.
func (j *Job) HasTechnician(userID uuid.UUID) bool {
	for _, t := range j.Technicians {
		if t.UserID == userID {
			return true
		}
	}
	return false
}

// JobTechnician links a technician to a job. Position 0 is the primary technician.
type JobTechnician struct {
	JobID     uuid.UUID `gorm:"type:uuid;primaryKey;column:job_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id;index"`
	User      *User     `gorm:"foreignKey:UserID"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (JobTechnician) TableName() string {
	return "job_technicians"
}

// LineItemKind distinguishes material from service lines
type LineItemKind string

const (
	LineItemKindMaterial LineItemKind = "material"
	LineItemKindService  LineItemKind = "service"
)

// IsValid checks if the kind is a known value
func (k LineItemKind) IsValid() bool {
	return k == LineItemKindMaterial || k == LineItemKindService
}

// ServiceItem is a priced service in the catalogue
type ServiceItem struct {
	BaseModel
	Name  string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	Price decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
}

func (ServiceItem) TableName() string {
	return "service_items"
}

// JobLineItem is a billable material or service on a job
type JobLineItem struct {
	BaseModel
	JobID         uuid.UUID         `gorm:"type:uuid;not null;index;column:job_id"`
	Kind          LineItemKind      `gorm:"type:varchar(20);not null"`
	ProductID     *uuid.UUID        `gorm:"type:uuid;column:product_id"`
	Product       *InventoryProduct `gorm:"foreignKey:ProductID"`
	ServiceItemID *uuid.UUID        `gorm:"type:uuid;column:service_item_id"`
	ServiceItem   *ServiceItem      `gorm:"foreignKey:ServiceItemID"`
	Description   string            `gorm:"type:varchar(500)"`
	Quantity      float64           `gorm:"not null;default:1"`
	UnitPrice     decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0;column:unit_price"`
}

func (JobLineItem) TableName() string {
	return "job_line_items"
}

// LineTotal is quantity times unit price
func (li *JobLineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromFloat(li.Quantity))
}

// JobReport is technician evidence for a job. A report carries at least one
// image URL or a voice message URL.
type JobReport struct {
	BaseModel
	JobID           uuid.UUID `gorm:"type:uuid;not null;index;column:job_id"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null;column:created_by_user_id"`
	CreatedBy       *User     `gorm:"foreignKey:CreatedByUserID"`
	ProblemSummary  string    `gorm:"type:text;column:problem_summary"`
	ActionsTaken    string    `gorm:"type:text;column:actions_taken"`
	ImageURLs       []string  `gorm:"type:text;serializer:json;column:image_urls"`
	VoiceMessageURL *string   `gorm:"type:varchar(1000);column:voice_message_url"`
	Timestamp       time.Time `gorm:"not null;column:timestamp"`
}

func (JobReport) TableName() string {
	return "job_reports"
}

// HasEvidence reports whether the report carries image or voice evidence
func (r *JobReport) HasEvidence() bool {
	return HasReportEvidence(r.ImageURLs, r.VoiceMessageURL)
}

// HasReportEvidence is the evidence rule shared by create and edit paths
func HasReportEvidence(imageURLs []string, voiceURL *string) bool {
	for _, u := range imageURLs {
		if u != "" {
			return true
		}
	}
	return voiceURL != nil && *voiceURL != ""
}

// InventoryProduct is a stocked item
type InventoryProduct struct {
	BaseModel
	ProductCode string          `gorm:"type:varchar(80);not null;uniqueIndex;column:product_code"`
	ModelName   string          `gorm:"type:varchar(200);not null;column:model_name"`
	Unit        string          `gorm:"type:varchar(30);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:unit_price"`
}

func (InventoryProduct) TableName() string {
	return "inventory_products"
}

// MonthOpening holds a product's opening quantity for a month
type MonthOpening struct {
	BaseModel
	Year       int       `gorm:"not null;uniqueIndex:idx_month_opening_period"`
	Month      int       `gorm:"not null;uniqueIndex:idx_month_opening_period"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_month_opening_period;column:product_id"`
	OpeningQty float64   `gorm:"not null;default:0;column:opening_qty"`
}

func (MonthOpening) TableName() string {
	return "month_openings"
}

// DailyMovement accumulates a product's inbound and outbound quantities for one day
type DailyMovement struct {
	BaseModel
	Year      int       `gorm:"not null;uniqueIndex:idx_daily_movement_period"`
	Month     int       `gorm:"not null;uniqueIndex:idx_daily_movement_period"`
	Day       int       `gorm:"not null;uniqueIndex:idx_daily_movement_period"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_movement_period;column:product_id"`
	InQty     float64   `gorm:"not null;default:0;column:in_qty"`
	OutQty    float64   `gorm:"not null;default:0;column:out_qty"`
}

func (DailyMovement) TableName() string {
	return "daily_movements"
}

// MovementSource tags where a posted delta came from
type MovementSource string

const (
	MovementSourceManualAdjustment MovementSource = "manual_adjustment"
	MovementSourceDirect           MovementSource = "direct"
	MovementSourceRollover         MovementSource = "rollover"
)

// InventoryAdjustment is the append-only provenance record of every posted delta
type InventoryAdjustment struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ProductID        uuid.UUID      `gorm:"type:uuid;not null;index;column:product_id"`
	Year             int            `gorm:"not null"`
	Month            int            `gorm:"not null"`
	Day              int            `gorm:"not null"`
	Source           MovementSource `gorm:"type:varchar(30);not null"`
	DesiredIn        *float64       `gorm:"column:desired_in"`
	DesiredOut       *float64       `gorm:"column:desired_out"`
	DeltaIn          float64        `gorm:"not null;column:delta_in"`
	DeltaOut         float64        `gorm:"not null;column:delta_out"`
	AdjustedByUserID *uuid.UUID     `gorm:"type:uuid;column:adjusted_by_user_id"`
	Note             string         `gorm:"type:varchar(500)"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InventoryAdjustment) TableName() string {
	return "inventory_adjustments"
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (a *InventoryAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NumberSequence tracks the last allocated number per prefix and year
type NumberSequence struct {
	Prefix       string    `gorm:"type:varchar(20);primaryKey"`
	Year         int       `gorm:"primaryKey"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (NumberSequence) TableName() string {
	return "number_sequences"
}

// AuditAction represents the type of audit action
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionExport AuditAction = "export"
	AuditActionImport AuditAction = "import"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID      *uuid.UUID  `gorm:"type:uuid;index;column:user_id"`
	UserEmail   string      `gorm:"type:varchar(255);column:user_email"`
	UserRole    Role        `gorm:"type:varchar(20);column:user_role"`
	Action      AuditAction `gorm:"type:varchar(20);not null"`
	EntityType  string      `gorm:"type:varchar(50);not null;column:entity_type;index"`
	EntityID    *uuid.UUID  `gorm:"type:uuid;column:entity_id;index"`
	Method      string      `gorm:"type:varchar(10)"`
	Path        string      `gorm:"type:varchar(500)"`
	StatusCode  int         `gorm:"column:status_code"`
	RequestID   string      `gorm:"type:varchar(100);column:request_id"`
	IPAddress   string      `gorm:"type:varchar(64);column:ip_address"`
	Payload     string      `gorm:"type:text"`
	PerformedAt time.Time   `gorm:"not null;column:performed_at;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
