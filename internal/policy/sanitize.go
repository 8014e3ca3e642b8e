package policy

import (
	"github.com/fieldops/backoffice-api/internal/domain"
)

// SanitizeJob strips the fields role must not see. Technicians lose every
// price in the line items, including the nested material and service prices.
// Sales see the customer reduced to id and company name. Other roles pass
// through untouched. The job is modified in place and returned.
func SanitizeJob(role domain.Role, job *domain.JobDTO) *domain.JobDTO {
	if job == nil {
		return nil
	}

	switch role {
	case domain.RoleTechnician:
		job.TotalAmount = nil
		for i := range job.LineItems {
			redactLineItem(&job.LineItems[i])
		}
	case domain.RoleSales:
		if job.Customer != nil {
			job.Customer = &domain.CustomerDTO{
				ID:          job.Customer.ID,
				CompanyName: job.Customer.CompanyName,
			}
		}
	}
	return job
}

// SanitizeJobs applies SanitizeJob to every element of a page
func SanitizeJobs(role domain.Role, jobs []domain.JobDTO) []domain.JobDTO {
	for i := range jobs {
		SanitizeJob(role, &jobs[i])
	}
	return jobs
}

func redactLineItem(li *domain.LineItemDTO) {
	li.UnitPrice = nil
	li.LineTotal = nil
	if li.Material != nil {
		li.Material.Price = nil
	}
	if li.Service != nil {
		li.Service.Price = nil
	}
}
