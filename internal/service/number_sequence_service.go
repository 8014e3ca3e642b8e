package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/fieldops/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobCodePrefix is the prefix of generated job codes
const JobCodePrefix = "JOB"

var jobCodePattern = regexp.MustCompile(`^JOB-(\d{4})-(\d+)$`)

// NumberSequenceService generates job codes of the form JOB-2026-00042.
// Counters restart every year.
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(repo *repository.NumberSequenceRepository, logger *zap.Logger) *NumberSequenceService {
	return &NumberSequenceService{repo: repo, logger: logger}
}

// NextJobCode allocates the next code inside tx so the counter rolls back
// together with a failed job insert.
func (s *NumberSequenceService) NextJobCode(ctx context.Context, tx *gorm.DB, at time.Time) (string, error) {
	year := at.Year()
	seq, err := s.repo.WithTx(tx).Next(ctx, JobCodePrefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", JobCodePrefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate job code: %w", err)
	}
	return FormatJobCode(year, seq), nil
}

// ReserveJobCode moves the counter past an externally supplied code that
// follows the generated format, so later generated codes cannot collide.
func (s *NumberSequenceService) ReserveJobCode(ctx context.Context, tx *gorm.DB, code string) error {
	year, seq, ok := ParseJobCode(code)
	if !ok {
		return nil
	}
	return s.repo.WithTx(tx).Raise(ctx, JobCodePrefix, year, seq)
}

// FormatJobCode renders a job code
func FormatJobCode(year, seq int) string {
	return fmt.Sprintf("%s-%d-%05d", JobCodePrefix, year, seq)
}

// ParseJobCode extracts year and sequence from a generated-format code
func ParseJobCode(code string) (year, seq int, ok bool) {
	m := jobCodePattern.FindStringSubmatch(code)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return year, seq, true
}
