package mapper

import (
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/shopspring/decimal"
)

// ToDepartmentDTO converts Department to DepartmentDTO
func ToDepartmentDTO(d *domain.Department) domain.DepartmentDTO {
	return domain.DepartmentDTO{ID: d.ID, Name: d.Name}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(u *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
	if u.Department != nil {
		dto.DepartmentName = u.Department.Name
	}
	return dto
}

// ToActorDTO converts the request actor to its response form
func ToActorDTO(a domain.Actor) domain.ActorDTO {
	return domain.ActorDTO{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		Role:         a.Role,
		DepartmentID: a.DepartmentID,
		Permissions:  policy.Granted(a),
	}
}

// ToCustomerDTO converts Customer to CustomerDTO
func ToCustomerDTO(c *domain.Customer) domain.CustomerDTO {
	created, updated := c.CreatedAt, c.UpdatedAt
	return domain.CustomerDTO{
		ID:            c.ID,
		CompanyName:   c.CompanyName,
		Address:       c.Address,
		Phone:         c.Phone,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		TaxCode:       c.TaxCode,
		Notes:         c.Notes,
		CreatedAt:     &created,
		UpdatedAt:     &updated,
	}
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(c *domain.Contact) domain.ContactDTO {
	return domain.ContactDTO{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		FullName:   c.FullName,
		Phone:      c.Phone,
		Email:      c.Email,
		Position:   c.Position,
		IsPrimary:  c.IsPrimary,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ToProjectDTO converts Project to ProjectDTO
func ToProjectDTO(p *domain.Project) domain.ProjectDTO {
	dto := domain.ProjectDTO{
		ID:          p.ID,
		CustomerID:  p.CustomerID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Customer != nil {
		dto.CustomerName = p.Customer.CompanyName
	}
	return dto
}

// ToLineItemDTO converts a line item with every price populated. Redaction
// happens later in the policy package.
func ToLineItemDTO(li *domain.JobLineItem) domain.LineItemDTO {
	unit := li.UnitPrice
	total := li.LineTotal()
	dto := domain.LineItemDTO{
		ID:          li.ID,
		Kind:        li.Kind,
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   &unit,
		LineTotal:   &total,
	}
	if li.Product != nil {
		price := li.Product.UnitPrice
		dto.Material = &domain.MaterialDTO{
			ProductID:   li.Product.ID,
			ProductCode: li.Product.ProductCode,
			ModelName:   li.Product.ModelName,
			Unit:        li.Product.Unit,
			Price:       &price,
		}
	}
	if li.ServiceItem != nil {
		price := li.ServiceItem.Price
		dto.Service = &domain.ServiceDTO{
			ServiceItemID: li.ServiceItem.ID,
			Name:          li.ServiceItem.Name,
			Price:         &price,
		}
	}
	return dto
}

// ToJobDTO converts Job with its loaded associations to the unredacted JobDTO
func ToJobDTO(j *domain.Job) domain.JobDTO {
	dto := domain.JobDTO{
		ID:                   j.ID,
		JobCode:              j.JobCode,
		CustomerID:           j.CustomerID,
		ProjectID:            j.ProjectID,
		JobType:              j.JobType,
		JobTypeLabel:         j.JobType.Label(),
		Status:               j.Status,
		StatusLabel:          j.Status.Label(),
		ScheduledStartTime:   j.ScheduledStartTime,
		ScheduledEndTime:     j.ScheduledEndTime,
		ActualEndTime:        j.ActualEndTime,
		FinalizedAt:          j.FinalizedAt,
		Notes:                j.Notes,
		CreatedByUserID:      j.CreatedByUserID,
		AssignedTechnicianID: j.AssignedTechnicianID(),
		Technicians:          make([]domain.JobTechnicianDTO, 0, len(j.Technicians)),
		LineItems:            make([]domain.LineItemDTO, 0, len(j.LineItems)),
		CreatedAt:            j.CreatedAt,
		UpdatedAt:            j.UpdatedAt,
	}
	if j.Customer != nil {
		c := ToCustomerDTO(j.Customer)
		dto.Customer = &c
	}
	for _, t := range j.Technicians {
		td := domain.JobTechnicianDTO{UserID: t.UserID, Position: t.Position}
		if t.User != nil {
			td.DisplayName = t.User.DisplayName
			td.Email = t.User.Email
			td.DepartmentID = t.User.DepartmentID
		}
		dto.Technicians = append(dto.Technicians, td)
	}
	total := decimal.Zero
	for i := range j.LineItems {
		li := ToLineItemDTO(&j.LineItems[i])
		total = total.Add(*li.LineTotal)
		dto.LineItems = append(dto.LineItems, li)
	}
	dto.TotalAmount = &total
	return dto
}

// ToJobReportDTO converts JobReport to JobReportDTO
func ToJobReportDTO(r *domain.JobReport) domain.JobReportDTO {
	images := r.ImageURLs
	if images == nil {
		images = []string{}
	}
	dto := domain.JobReportDTO{
		ID:              r.ID,
		JobID:           r.JobID,
		CreatedByUserID: r.CreatedByUserID,
		ProblemSummary:  r.ProblemSummary,
		ActionsTaken:    r.ActionsTaken,
		ImageURLs:       images,
		VoiceMessageURL: r.VoiceMessageURL,
		Timestamp:       r.Timestamp,
	}
	if r.CreatedBy != nil {
		dto.CreatedByName = r.CreatedBy.DisplayName
	}
	return dto
}

// ToServiceItemDTO converts ServiceItem to ServiceItemDTO
func ToServiceItemDTO(s *domain.ServiceItem) domain.ServiceItemDTO {
	return domain.ServiceItemDTO{ID: s.ID, Name: s.Name, Price: s.Price}
}

// ToInventoryProductDTO converts InventoryProduct; stock is optional
func ToInventoryProductDTO(p *domain.InventoryProduct, stock *domain.StockSummary) domain.InventoryProductDTO {
	return domain.InventoryProductDTO{
		ID:          p.ID,
		ProductCode: p.ProductCode,
		ModelName:   p.ModelName,
		Unit:        p.Unit,
		UnitPrice:   p.UnitPrice,
		Stock:       stock,
	}
}

// ToDailyMovementDTOs converts ledger rows
func ToDailyMovementDTOs(rows []domain.DailyMovement) []domain.DailyMovementDTO {
	out := make([]domain.DailyMovementDTO, len(rows))
	for i, m := range rows {
		out[i] = domain.DailyMovementDTO{Day: m.Day, InQty: m.InQty, OutQty: m.OutQty}
	}
	return out
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(a *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:          a.ID,
		UserID:      a.UserID,
		UserEmail:   a.UserEmail,
		UserRole:    a.UserRole,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		Method:      a.Method,
		Path:        a.Path,
		StatusCode:  a.StatusCode,
		RequestID:   a.RequestID,
		PerformedAt: a.PerformedAt,
	}
}
