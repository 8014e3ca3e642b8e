package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository hands out per prefix and year counters used for
// human-readable codes such as job codes.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *NumberSequenceRepository) WithTx(tx *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: tx}
}

// Next locks the counter row and increments it, creating it at 1 when absent.
// Callers that need the number to roll back with their own writes must use
// WithTx; otherwise a private transaction is opened.
func (r *NumberSequenceRepository) Next(ctx context.Context, prefix string, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND year = ?", prefix, year).
			First(&seq)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			now := time.Now()
			seq = domain.NumberSequence{
				Prefix:       prefix,
				Year:         year,
				LastSequence: 1,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			next = 1
		case result.Error != nil:
			return fmt.Errorf("failed to get number sequence: %w", result.Error)
		default:
			next = seq.LastSequence + 1
			if err := tx.Model(&domain.NumberSequence{}).
				Where("prefix = ? AND year = ?", prefix, year).
				Updates(map[string]interface{}{
					"last_sequence": next,
					"updated_at":    time.Now(),
				}).Error; err != nil {
				return fmt.Errorf("failed to update number sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Raise moves the counter forward to value. It never lowers it, so legacy
// imports can reserve the codes they bring in.
func (r *NumberSequenceRepository) Raise(ctx context.Context, prefix string, year int, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND year = ?", prefix, year).
			First(&seq)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			now := time.Now()
			seq = domain.NumberSequence{
				Prefix:       prefix,
				Year:         year,
				LastSequence: value,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return tx.Create(&seq).Error
		case result.Error != nil:
			return fmt.Errorf("failed to get number sequence: %w", result.Error)
		case value > seq.LastSequence:
			return tx.Model(&domain.NumberSequence{}).
				Where("prefix = ? AND year = ?", prefix, year).
				Updates(map[string]interface{}{
					"last_sequence": value,
					"updated_at":    time.Now(),
				}).Error
		}
		return nil
	})
}
