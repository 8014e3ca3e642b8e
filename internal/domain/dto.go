package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pagination describes one page of a list response
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// PaginatedResponse is the envelope of every list endpoint
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// NewPaginatedResponse builds the envelope and derives the page count
func NewPaginatedResponse(data interface{}, total int64, page, limit int) PaginatedResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginatedResponse{
		Data: data,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}
}

// DTOs for API responses

type DepartmentDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Role           Role       `json:"role"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	DepartmentName string     `json:"department_name,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ActorDTO struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	Role         Role       `json:"role"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Permissions  []string   `json:"permissions"`
}

// CustomerDTO carries optional fields as omitempty so a redacted customer
// serializes as {id, company_name} only.
type CustomerDTO struct {
	ID            uuid.UUID  `json:"id"`
	CompanyName   string     `json:"company_name"`
	Address       string     `json:"address,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	ContactPerson string     `json:"contact_person,omitempty"`
	Email         string     `json:"email,omitempty"`
	TaxCode       string     `json:"tax_code,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type ContactDTO struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Position   string    `json:"position,omitempty"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ProjectDTO struct {
	ID           uuid.UUID     `json:"id"`
	CustomerID   uuid.UUID     `json:"customer_id"`
	CustomerName string        `json:"customer_name,omitempty"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Status       ProjectStatus `json:"status"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type JobTechnicianDTO struct {
	UserID       uuid.UUID  `json:"user_id"`
	DisplayName  string     `json:"display_name,omitempty"`
	Email        string     `json:"email,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Position     int        `json:"position"`
}

// MaterialDTO is the inventory product embedded in a material line item
type MaterialDTO struct {
	ProductID   uuid.UUID        `json:"product_id"`
	ProductCode string           `json:"product_code"`
	ModelName   string           `json:"model_name"`
	Unit        string           `json:"unit"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// ServiceDTO is the catalogue service embedded in a service line item
type ServiceDTO struct {
	ServiceItemID uuid.UUID        `json:"service_item_id"`
	Name          string           `json:"name"`
	Price         *decimal.Decimal `json:"price,omitempty"`
}

// LineItemDTO keeps every price as an optional field so redaction is a
// structural transform.
type LineItemDTO struct {
	ID          uuid.UUID        `json:"id"`
	Kind        LineItemKind     `json:"kind"`
	Description string           `json:"description,omitempty"`
	Quantity    float64          `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
	Material    *MaterialDTO     `json:"material,omitempty"`
	Service     *ServiceDTO      `json:"service,omitempty"`
}

// JobStatusCountDTO is one row of the job status summary
type JobStatusCountDTO struct {
	Status JobStatus `json:"status"`
	Label  string    `json:"label"`
	Count  int64     `json:"count"`
}

type JobDTO struct {
	ID                   uuid.UUID          `json:"id"`
	JobCode              string             `json:"job_code"`
	CustomerID           uuid.UUID          `json:"customer_id"`
	Customer             *CustomerDTO       `json:"customer,omitempty"`
	ProjectID            *uuid.UUID         `json:"project_id,omitempty"`
	JobType              JobType            `json:"job_type"`
	JobTypeLabel         string             `json:"job_type_label"`
	Status               JobStatus          `json:"status"`
	StatusLabel          string             `json:"status_label"`
	ScheduledStartTime   time.Time          `json:"scheduled_start_time"`
	ScheduledEndTime     time.Time          `json:"scheduled_end_time"`
	ActualEndTime        *time.Time         `json:"actual_end_time"`
	FinalizedAt          *time.Time         `json:"finalized_at,omitempty"`
	Notes                string             `json:"notes,omitempty"`
	CreatedByUserID      uuid.UUID          `json:"created_by_user_id"`
	AssignedTechnicianID *uuid.UUID         `json:"assigned_technician_id"`
	Technicians          []JobTechnicianDTO `json:"technicians"`
	LineItems            []LineItemDTO      `json:"line_items"`
	TotalAmount          *decimal.Decimal   `json:"total_amount,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

type JobReportDTO struct {
	ID              uuid.UUID `json:"id"`
	JobID           uuid.UUID `json:"job_id"`
	CreatedByUserID uuid.UUID `json:"created_by_user_id"`
	CreatedByName   string    `json:"created_by_name,omitempty"`
	ProblemSummary  string    `json:"problem_summary"`
	ActionsTaken    string    `json:"actions_taken"`
	ImageURLs       []string  `json:"image_urls"`
	VoiceMessageURL *string   `json:"voice_message_url"`
	Timestamp       time.Time `json:"timestamp"`
}

type ServiceItemDTO struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type InventoryProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductCode string          `json:"product_code"`
	ModelName   string          `json:"model_name"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       *StockSummary   `json:"stock,omitempty"`
}

type DailyMovementDTO struct {
	Day    int     `json:"day"`
	InQty  float64 `json:"in_qty"`
	OutQty float64 `json:"out_qty"`
}

type LedgerDTO struct {
	Product   InventoryProductDTO `json:"product"`
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Movements []DailyMovementDTO  `json:"movements"`
	Stock     StockSummary        `json:"stock"`
}

type AdjustmentResultDTO struct {
	ProductID uuid.UUID    `json:"product_id"`
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	Day       int          `json:"day"`
	DeltaIn   float64      `json:"delta_in"`
	DeltaOut  float64      `json:"delta_out"`
	Stock     StockSummary `json:"stock"`
}

type AuditLogDTO struct {
	ID          uuid.UUID   `json:"id"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"`
	UserEmail   string      `json:"user_email,omitempty"`
	UserRole    Role        `json:"user_role,omitempty"`
	Action      AuditAction `json:"action"`
	EntityType  string      `json:"entity_type"`
	EntityID    *uuid.UUID  `json:"entity_id,omitempty"`
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	StatusCode  int         `json:"status_code"`
	RequestID   string      `json:"request_id,omitempty"`
	PerformedAt time.Time   `json:"performed_at"`
}

type MediaUploadDTO struct {
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Request DTOs

type CreateUserRequest struct {
	Email        string     `json:"email" validate:"required,email,max=255"`
	DisplayName  string     `json:"display_name" validate:"max=200"`
	Role         Role       `json:"role" validate:"required"`
	DepartmentID *uuid.UUID `json:"department_id"`
}

type UpdateUserRequest struct {
	DisplayName     *string    `json:"display_name" validate:"omitempty,max=200"`
	Role            *Role      `json:"role"`
	DepartmentID    *uuid.UUID `json:"department_id"`
	ClearDepartment bool       `json:"clear_department"`
}

type DepartmentRequest struct {
	Name string `json:"name" validate:"required,max=150"`
}

type CreateCustomerRequest struct {
	CompanyName   string `json:"company_name" validate:"required,max=200"`
	Address       string `json:"address"`
	Phone         string `json:"phone" validate:"max=50"`
	ContactPerson string `json:"contact_person" validate:"max=200"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	TaxCode       string `json:"tax_code" validate:"max=50"`
	Notes         string `json:"notes"`
}

type UpdateCustomerRequest = CreateCustomerRequest

type ContactRequest struct {
	FullName  string `json:"full_name" validate:"required,max=200"`
	Phone     string `json:"phone" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Position  string `json:"position" validate:"max=120"`
	IsPrimary bool   `json:"is_primary"`
}

type CreateProjectRequest struct {
	CustomerID  uuid.UUID     `json:"customer_id" validate:"required"`
	Name        string        `json:"name" validate:"required,max=200"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status" validate:"omitempty,oneof=planning active completed cancelled"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
}

type UpdateProjectRequest struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status" validate:"omitempty,oneof=planning active completed cancelled"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
}

type LineItemRequest struct {
	Kind          LineItemKind     `json:"kind" validate:"required,oneof=material service"`
	ProductID     *uuid.UUID       `json:"product_id"`
	ServiceItemID *uuid.UUID       `json:"service_item_id"`
	Description   string           `json:"description" validate:"max=500"`
	Quantity      float64          `json:"quantity" validate:"gt=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
}

type CreateJobRequest struct {
	JobCode            string            `json:"job_code" validate:"max=50"`
	CustomerID         uuid.UUID         `json:"customer_id" validate:"required"`
	ProjectID          *uuid.UUID        `json:"project_id"`
	JobType            string            `json:"job_type" validate:"required,jobtype"`
	ScheduledStartTime *time.Time        `json:"scheduled_start_time" validate:"required"`
	ScheduledEndTime   *time.Time        `json:"scheduled_end_time" validate:"required"`
	Notes              string            `json:"notes"`
	TechnicianIDs      []uuid.UUID       `json:"technician_ids"`
	LineItems          []LineItemRequest `json:"line_items" validate:"dive"`
}

// UpdateJobRequest is a partial update; nil fields are left unchanged
// UpdateLineItemRequest changes an existing line. The kind and the linked
// product or service stay fixed.
type UpdateLineItemRequest struct {
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Quantity    *float64         `json:"quantity" validate:"omitempty,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type UpdateJobRequest struct {
	JobType            *string      `json:"job_type" validate:"omitempty,jobtype"`
	Status             *string      `json:"status" validate:"omitempty,jobstatus"`
	ProjectID          *uuid.UUID   `json:"project_id"`
	ScheduledStartTime *time.Time   `json:"scheduled_start_time"`
	ScheduledEndTime   *time.Time   `json:"scheduled_end_time"`
	Notes              *string      `json:"notes"`
	TechnicianIDs      *[]uuid.UUID `json:"technician_ids"`
}

type AssignTechniciansRequest struct {
	TechnicianIDs []uuid.UUID `json:"technician_ids" validate:"required"`
}

type RejectJobRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type SubmitJobReportRequest struct {
	JobID           uuid.UUID `json:"job_id" validate:"required"`
	ProblemSummary  string    `json:"problem_summary"`
	ActionsTaken    string    `json:"actions_taken"`
	ImageURLs       []string  `json:"image_urls" validate:"omitempty,dive,required,max=1000"`
	VoiceMessageURL *string   `json:"voice_message_url" validate:"omitempty,max=1000"`
}

type UpdateJobReportRequest struct {
	ProblemSummary  *string   `json:"problem_summary"`
	ActionsTaken    *string   `json:"actions_taken"`
	ImageURLs       *[]string `json:"image_urls"`
	VoiceMessageURL *string   `json:"voice_message_url"`
}

type ServiceItemRequest struct {
	Name  string          `json:"name" validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
}

type CreateProductRequest struct {
	ProductCode string          `json:"product_code" validate:"required,max=80"`
	ModelName   string          `json:"model_name" validate:"required,max=200"`
	Unit        string          `json:"unit" validate:"required,max=30"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	OpeningQty  float64         `json:"opening_qty"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
}

type AdjustmentRequest struct {
	Year       int      `json:"year" validate:"required,gte=2000,lte=9999"`
	Month      int      `json:"month" validate:"required,gte=1,lte=12"`
	Day        int      `json:"day" validate:"required,gte=1,lte=31"`
	DesiredIn  *float64 `json:"desired_in" validate:"required,gte=0"`
	DesiredOut *float64 `json:"desired_out" validate:"required,gte=0"`
	Note       string   `json:"note" validate:"max=500"`
}

type MovementRequest struct {
	Year   int     `json:"year" validate:"required,gte=2000,lte=9999"`
	Month  int     `json:"month" validate:"required,gte=1,lte=12"`
	Day    int     `json:"day" validate:"required,gte=1,lte=31"`
	InQty  float64 `json:"in_qty" validate:"gte=0"`
	OutQty float64 `json:"out_qty" validate:"gte=0"`
	Note   string  `json:"note" validate:"max=500"`
}
