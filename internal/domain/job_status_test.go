package domain_test

import (
	"testing"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.JobStatus
	}{
		{"new", domain.JobStatusNew},
		{"pending_approval", domain.JobStatusPendingApproval},
		{"Pending-Approval", domain.JobStatusPendingApproval},
		{"Chờ duyệt", domain.JobStatusPendingApproval},
		{"Cho duyet", domain.JobStatusPendingApproval},
		{"  đã phân công ", domain.JobStatusAssigned},
		{"Da phan cong", domain.JobStatusAssigned},
		{"Đã duyệt", domain.JobStatusApproved},
		{"Hoan thanh", domain.JobStatusFinalized},
		{"MỚI", domain.JobStatusNew},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := domain.ParseJobStatus(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, raw := range []string{"", "done", "Đã hủy"} {
		_, ok := domain.ParseJobStatus(raw)
		assert.False(t, ok, "%q should not parse", raw)
	}
}

func TestParseJobType(t *testing.T) {
	got, ok := domain.ParseJobType("Lắp mới")
	assert.True(t, ok)
	assert.Equal(t, domain.JobTypeNewInstall, got)

	got, ok = domain.ParseJobType("bao hanh")
	assert.True(t, ok)
	assert.Equal(t, domain.JobTypeWarranty, got)

	got, ok = domain.ParseJobType("new-install")
	assert.True(t, ok)
	assert.Equal(t, domain.JobTypeNewInstall, got)

	_, ok = domain.ParseJobType("demolition")
	assert.False(t, ok)
}

func TestJobStatusLabels(t *testing.T) {
	assert.Equal(t, "Chờ duyệt", domain.JobStatusPendingApproval.Label())
	assert.Equal(t, "Cho duyet", domain.JobStatusPendingApproval.ASCIILabel())
	assert.Equal(t, "Da phan cong", domain.JobStatusAssigned.ASCIILabel())
	assert.Equal(t, "unknown", domain.JobStatus("unknown").Label())
}

func TestJobStatusTransitions(t *testing.T) {
	allowed := map[domain.JobStatus][]domain.JobStatus{
		domain.JobStatusNew:             {domain.JobStatusAssigned},
		domain.JobStatusAssigned:        {domain.JobStatusPendingApproval},
		domain.JobStatusPendingApproval: {domain.JobStatusApproved, domain.JobStatusAssigned},
		domain.JobStatusApproved:        {domain.JobStatusFinalized},
		domain.JobStatusFinalized:       nil,
	}
	all := []domain.JobStatus{
		domain.JobStatusNew, domain.JobStatusAssigned, domain.JobStatusPendingApproval,
		domain.JobStatusApproved, domain.JobStatusFinalized,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, domain.JobStatusFinalized.IsReadOnly())
	assert.False(t, domain.JobStatusApproved.IsReadOnly())
}

func TestComputeStock(t *testing.T) {
	stock := domain.ComputeStock(10, []domain.DailyMovement{
		{Day: 1, InQty: 20, OutQty: 5},
		{Day: 3, InQty: 0, OutQty: 40},
	})
	assert.Equal(t, 20.0, stock.TotalIn)
	assert.Equal(t, 45.0, stock.TotalOut)
	// no floor at zero
	assert.Equal(t, -15.0, stock.Current)
}

func TestAdjustmentDelta(t *testing.T) {
	dIn, dOut := domain.AdjustmentDelta(20, 5, 25, 5)
	assert.Equal(t, 5.0, dIn)
	assert.Equal(t, 0.0, dOut)

	dIn, dOut = domain.AdjustmentDelta(20, 5, 15, 8)
	assert.Equal(t, -5.0, dIn)
	assert.Equal(t, 3.0, dOut)
}

func TestPeriods(t *testing.T) {
	y, m := domain.PreviousMonth(2026, 1)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 12, m)

	y, m = domain.NextMonth(2026, 12)
	assert.Equal(t, 2027, y)
	assert.Equal(t, 1, m)

	assert.True(t, domain.ValidPeriod(2026, 2))
	assert.False(t, domain.ValidPeriod(2026, 13))
	assert.False(t, domain.ValidPeriod(1999, 5))
}

func TestHasReportEvidence(t *testing.T) {
	voice := "https://media.example.com/v.m4a"
	empty := ""

	assert.True(t, domain.HasReportEvidence([]string{"a.jpg"}, nil))
	assert.True(t, domain.HasReportEvidence(nil, &voice))
	assert.False(t, domain.HasReportEvidence(nil, nil))
	assert.False(t, domain.HasReportEvidence([]string{""}, &empty))
}
