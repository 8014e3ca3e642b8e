package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementTotals is a product's cumulative in/out for one month
type MovementTotals struct {
	ProductID uuid.UUID
	InQty     float64
	OutQty    float64
}

// InventoryRepository persists products, month openings and the daily
// movement ledger.
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

func (r *InventoryRepository) CreateProduct(ctx context.Context, product *domain.InventoryProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *InventoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.InventoryProduct, error) {
	var product domain.InventoryProduct
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *InventoryRepository) UpdateProduct(ctx context.Context, product *domain.InventoryProduct) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *InventoryRepository) ListProducts(ctx context.Context, page, limit int, search string) ([]domain.InventoryProduct, int64, error) {
	var products []domain.InventoryProduct
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.InventoryProduct{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(product_code) LIKE ? OR LOWER(model_name) LIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := Paginate(query.Order("product_code ASC"), page, limit).Find(&products).Error
	return products, total, err
}

// AllProducts returns every product ordered by code
func (r *InventoryRepository) AllProducts(ctx context.Context) ([]domain.InventoryProduct, error) {
	var products []domain.InventoryProduct
	err := r.db.WithContext(ctx).Order("product_code ASC").Find(&products).Error
	return products, err
}

func (r *InventoryRepository) GetOpening(ctx context.Context, productID uuid.UUID, year, month int) (*domain.MonthOpening, error) {
	var opening domain.MonthOpening
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND year = ? AND month = ?", productID, year, month).
		First(&opening).Error
	if err != nil {
		return nil, err
	}
	return &opening, nil
}

// LockOpening reads the month opening with a row lock. Adjustments serialise
// on this row.
func (r *InventoryRepository) LockOpening(ctx context.Context, productID uuid.UUID, year, month int) (*domain.MonthOpening, error) {
	var opening domain.MonthOpening
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND year = ? AND month = ?", productID, year, month).
		First(&opening).Error
	if err != nil {
		return nil, err
	}
	return &opening, nil
}

// EnsureOpening inserts the opening unless one already exists for the period
func (r *InventoryRepository) EnsureOpening(ctx context.Context, opening *domain.MonthOpening) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "month"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(opening).Error
}

// OpeningsFor returns all openings of a month keyed by product
func (r *InventoryRepository) OpeningsFor(ctx context.Context, year, month int) (map[uuid.UUID]float64, error) {
	var openings []domain.MonthOpening
	if err := r.db.WithContext(ctx).Where("year = ? AND month = ?", year, month).Find(&openings).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]float64, len(openings))
	for _, o := range openings {
		out[o.ProductID] = o.OpeningQty
	}
	return out, nil
}

// Movements returns a product's day rows for the month, by day
func (r *InventoryRepository) Movements(ctx context.Context, productID uuid.UUID, year, month int) ([]domain.DailyMovement, error) {
	var rows []domain.DailyMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND year = ? AND month = ?", productID, year, month).
		Order("day ASC").
		Find(&rows).Error
	return rows, err
}

// MovementsFor loads every product's movements for the month, keyed by
// product and ordered by day
func (r *InventoryRepository) MovementsFor(ctx context.Context, year, month int) (map[uuid.UUID][]domain.DailyMovement, error) {
	var rows []domain.DailyMovement
	err := r.db.WithContext(ctx).
		Where("year = ? AND month = ?", year, month).
		Order("product_id ASC, day ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]domain.DailyMovement)
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row)
	}
	return out, nil
}

// MonthTotals sums a product's movements for the month
func (r *InventoryRepository) MonthTotals(ctx context.Context, productID uuid.UUID, year, month int) (MovementTotals, error) {
	totals := MovementTotals{ProductID: productID}
	err := r.db.WithContext(ctx).
		Model(&domain.DailyMovement{}).
		Select("COALESCE(SUM(in_qty), 0) AS in_qty, COALESCE(SUM(out_qty), 0) AS out_qty").
		Where("product_id = ? AND year = ? AND month = ?", productID, year, month).
		Row().
		Scan(&totals.InQty, &totals.OutQty)
	return totals, err
}

// TotalsFor sums every product's movements for the month
func (r *InventoryRepository) TotalsFor(ctx context.Context, year, month int) (map[uuid.UUID]MovementTotals, error) {
	var rows []MovementTotals
	err := r.db.WithContext(ctx).
		Model(&domain.DailyMovement{}).
		Select("product_id, SUM(in_qty) AS in_qty, SUM(out_qty) AS out_qty").
		Where("year = ? AND month = ?", year, month).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]MovementTotals, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}

// AddToDay increments the day row, creating it when absent. Concurrent
// writers to the same day accumulate rather than overwrite.
func (r *InventoryRepository) AddToDay(ctx context.Context, productID uuid.UUID, year, month, day int, inQty, outQty float64) error {
	row := &domain.DailyMovement{
		Year:      year,
		Month:     month,
		Day:       day,
		ProductID: productID,
		InQty:     inQty,
		OutQty:    outQty,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "year"}, {Name: "month"}, {Name: "day"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"in_qty":     gorm.Expr("daily_movements.in_qty + excluded.in_qty"),
				"out_qty":    gorm.Expr("daily_movements.out_qty + excluded.out_qty"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(row).Error
}

func (r *InventoryRepository) CreateAdjustment(ctx context.Context, adj *domain.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(adj).Error
}

// Adjustments returns the audit trail of a product for the month
func (r *InventoryRepository) Adjustments(ctx context.Context, productID uuid.UUID, year, month int) ([]domain.InventoryAdjustment, error) {
	var rows []domain.InventoryAdjustment
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND year = ? AND month = ?", productID, year, month).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
