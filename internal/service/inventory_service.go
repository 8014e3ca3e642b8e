package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/mapper"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService keeps the per-product monthly ledger: one opening row per
// month plus accumulated daily in/out rows. Stock is always derived, never
// stored, and may be negative.
type InventoryService struct {
	repo   *repository.InventoryRepository
	db     *gorm.DB
	loc    *time.Location
	logger *zap.Logger
}

func NewInventoryService(repo *repository.InventoryRepository, db *gorm.DB, loc *time.Location, logger *zap.Logger) *InventoryService {
	if loc == nil {
		loc = time.UTC
	}
	return &InventoryService{repo: repo, db: db, loc: loc, logger: logger}
}

// CurrentPeriod returns today's year, month and day in the business timezone
func (s *InventoryService) CurrentPeriod() (year, month, day int) {
	now := time.Now().In(s.loc)
	return now.Year(), int(now.Month()), now.Day()
}

func (s *InventoryService) period(year, month int) (int, int, error) {
	if year == 0 && month == 0 {
		y, m, _ := s.CurrentPeriod()
		return y, m, nil
	}
	if !domain.ValidPeriod(year, month) {
		return 0, 0, validation("Invalid period %d-%d", year, month)
	}
	return year, month, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ListProducts returns products with their stock for the given month
func (s *InventoryService) ListProducts(ctx context.Context, actor domain.Actor, page, limit int, search string, year, month int) ([]domain.InventoryProductDTO, int64, error) {
	if !policy.HasRole(actor, policy.ViewInventory) {
		return nil, 0, forbidden("You are not allowed to view inventory")
	}
	year, month, err := s.period(year, month)
	if err != nil {
		return nil, 0, err
	}

	products, total, err := s.repo.ListProducts(ctx, page, limit, search)
	if err != nil {
		return nil, 0, translateError(err, "Product")
	}
	openings, err := s.repo.OpeningsFor(ctx, year, month)
	if err != nil {
		return nil, 0, translateError(err, "Product")
	}
	totals, err := s.repo.TotalsFor(ctx, year, month)
	if err != nil {
		return nil, 0, translateError(err, "Product")
	}

	dtos := make([]domain.InventoryProductDTO, len(products))
	for i := range products {
		stock := summarize(openings[products[i].ID], totals[products[i].ID])
		dtos[i] = mapper.ToInventoryProductDTO(&products[i], &stock)
	}
	return dtos, total, nil
}

func summarize(opening float64, t repository.MovementTotals) domain.StockSummary {
	return domain.StockSummary{
		OpeningQty: opening,
		TotalIn:    t.InQty,
		TotalOut:   t.OutQty,
		Current:    opening + t.InQty - t.OutQty,
	}
}

// CreateProduct adds a product and its opening row for the given month
// (the current month when omitted).
func (s *InventoryService) CreateProduct(ctx context.Context, actor domain.Actor, req *domain.CreateProductRequest) (*domain.InventoryProductDTO, error) {
	if !policy.HasRole(actor, policy.AdjustInventory) {
		return nil, forbidden("You are not allowed to manage inventory")
	}
	year, month, err := s.period(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	if req.UnitPrice.IsNegative() {
		return nil, validation("unit_price must not be negative")
	}

	product := &domain.InventoryProduct{
		ProductCode: strings.TrimSpace(req.ProductCode),
		ModelName:   strings.TrimSpace(req.ModelName),
		Unit:        strings.TrimSpace(req.Unit),
		UnitPrice:   req.UnitPrice,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateProduct(ctx, product); err != nil {
			return err
		}
		return repo.EnsureOpening(ctx, &domain.MonthOpening{
			Year:       year,
			Month:      month,
			ProductID:  product.ID,
			OpeningQty: req.OpeningQty,
		})
	})
	if err != nil {
		return nil, translateError(err, "Product")
	}

	s.logger.Info("inventory product created",
		zap.String("product_id", product.ID.String()),
		zap.String("product_code", product.ProductCode),
		zap.Float64("opening_qty", req.OpeningQty))

	stock := domain.StockSummary{OpeningQty: req.OpeningQty, Current: req.OpeningQty}
	dto := mapper.ToInventoryProductDTO(product, &stock)
	return &dto, nil
}

// CurrentStock returns opening + Σin − Σout for the month. A missing
// opening counts as zero.
func (s *InventoryService) CurrentStock(ctx context.Context, productID uuid.UUID, year, month int) (domain.StockSummary, error) {
	return s.stock(ctx, s.repo, productID, year, month)
}

func (s *InventoryService) stock(ctx context.Context, repo *repository.InventoryRepository, productID uuid.UUID, year, month int) (domain.StockSummary, error) {
	var opening float64
	o, err := repo.GetOpening(ctx, productID, year, month)
	switch {
	case err == nil:
		opening = o.OpeningQty
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return domain.StockSummary{}, translateError(err, "Product")
	}
	totals, err := repo.MonthTotals(ctx, productID, year, month)
	if err != nil {
		return domain.StockSummary{}, translateError(err, "Product")
	}
	return summarize(opening, totals), nil
}

// Ledger returns the month's day rows of a product together with its stock
func (s *InventoryService) Ledger(ctx context.Context, actor domain.Actor, productID uuid.UUID, year, month int) (*domain.LedgerDTO, error) {
	if !policy.HasRole(actor, policy.ViewInventory) {
		return nil, forbidden("You are not allowed to view inventory")
	}
	year, month, err := s.period(year, month)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, translateError(err, "Product")
	}

	var opening float64
	if o, err := s.repo.GetOpening(ctx, productID, year, month); err == nil {
		opening = o.OpeningQty
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translateError(err, "Product")
	}
	rows, err := s.repo.Movements(ctx, productID, year, month)
	if err != nil {
		return nil, translateError(err, "Product")
	}

	return &domain.LedgerDTO{
		Product:   mapper.ToInventoryProductDTO(product, nil),
		Year:      year,
		Month:     month,
		Movements: mapper.ToDailyMovementDTOs(rows),
		Stock:     domain.ComputeStock(opening, rows),
	}, nil
}

// ApplyAdjustment turns "the month's cumulative in/out should be X/Y" into a
// delta posted on the given day. Earlier rows are never rewritten.
func (s *InventoryService) ApplyAdjustment(ctx context.Context, actor domain.Actor, productID uuid.UUID, req *domain.AdjustmentRequest) (*domain.AdjustmentResultDTO, error) {
	if !policy.HasRole(actor, policy.AdjustInventory) {
		return nil, forbidden("You are not allowed to adjust inventory")
	}
	if req.DesiredIn == nil || req.DesiredOut == nil {
		return nil, validation("desired_in and desired_out are required")
	}
	if err := validateDay(req.Year, req.Month, req.Day); err != nil {
		return nil, err
	}

	result := &domain.AdjustmentResultDTO{
		ProductID: productID,
		Year:      req.Year,
		Month:     req.Month,
		Day:       req.Day,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetProduct(ctx, productID); err != nil {
			return err
		}
		if err := s.lockOpening(ctx, repo, productID, req.Year, req.Month); err != nil {
			return err
		}

		totals, err := repo.MonthTotals(ctx, productID, req.Year, req.Month)
		if err != nil {
			return err
		}
		result.DeltaIn, result.DeltaOut = domain.AdjustmentDelta(totals.InQty, totals.OutQty, *req.DesiredIn, *req.DesiredOut)

		if result.DeltaIn != 0 || result.DeltaOut != 0 {
			if err := repo.AddToDay(ctx, productID, req.Year, req.Month, req.Day, result.DeltaIn, result.DeltaOut); err != nil {
				return err
			}
			if err := repo.CreateAdjustment(ctx, &domain.InventoryAdjustment{
				ProductID:        productID,
				Year:             req.Year,
				Month:            req.Month,
				Day:              req.Day,
				Source:           domain.MovementSourceManualAdjustment,
				DesiredIn:        req.DesiredIn,
				DesiredOut:       req.DesiredOut,
				DeltaIn:          result.DeltaIn,
				DeltaOut:         result.DeltaOut,
				AdjustedByUserID: actorRef(actor),
				Note:             req.Note,
			}); err != nil {
				return err
			}
		}

		result.Stock, err = s.stock(ctx, repo, productID, req.Year, req.Month)
		return err
	})
	if err != nil {
		return nil, translateError(err, "Product")
	}

	s.logger.Info("inventory adjusted",
		zap.String("product_id", productID.String()),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("day", req.Day),
		zap.Float64("delta_in", result.DeltaIn),
		zap.Float64("delta_out", result.DeltaOut),
		zap.Float64("stock", result.Stock.Current))

	return result, nil
}

// PostMovement adds a direct in/out quantity to a day
func (s *InventoryService) PostMovement(ctx context.Context, actor domain.Actor, productID uuid.UUID, req *domain.MovementRequest) (*domain.AdjustmentResultDTO, error) {
	if !policy.HasRole(actor, policy.AdjustInventory) {
		return nil, forbidden("You are not allowed to adjust inventory")
	}
	if err := validateDay(req.Year, req.Month, req.Day); err != nil {
		return nil, err
	}
	if req.InQty < 0 || req.OutQty < 0 {
		return nil, validation("in_qty and out_qty must not be negative")
	}
	if req.InQty == 0 && req.OutQty == 0 {
		return nil, validation("in_qty or out_qty must be greater than 0")
	}

	result := &domain.AdjustmentResultDTO{
		ProductID: productID,
		Year:      req.Year,
		Month:     req.Month,
		Day:       req.Day,
		DeltaIn:   req.InQty,
		DeltaOut:  req.OutQty,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetProduct(ctx, productID); err != nil {
			return err
		}
		if err := s.lockOpening(ctx, repo, productID, req.Year, req.Month); err != nil {
			return err
		}
		if err := repo.AddToDay(ctx, productID, req.Year, req.Month, req.Day, req.InQty, req.OutQty); err != nil {
			return err
		}
		if err := repo.CreateAdjustment(ctx, &domain.InventoryAdjustment{
			ProductID:        productID,
			Year:             req.Year,
			Month:            req.Month,
			Day:              req.Day,
			Source:           domain.MovementSourceDirect,
			DeltaIn:          req.InQty,
			DeltaOut:         req.OutQty,
			AdjustedByUserID: actorRef(actor),
			Note:             req.Note,
		}); err != nil {
			return err
		}
		var err error
		result.Stock, err = s.stock(ctx, repo, productID, req.Year, req.Month)
		return err
	})
	if err != nil {
		return nil, translateError(err, "Product")
	}
	return result, nil
}

// lockOpening makes sure the month has an opening row and locks it. A new
// opening carries the previous month's closing stock when that month was
// tracked, otherwise it starts at zero.
func (s *InventoryService) lockOpening(ctx context.Context, repo *repository.InventoryRepository, productID uuid.UUID, year, month int) error {
	_, err := repo.LockOpening(ctx, productID, year, month)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var carried float64
	py, pm := domain.PreviousMonth(year, month)
	if prev, err := repo.GetOpening(ctx, productID, py, pm); err == nil {
		totals, err := repo.MonthTotals(ctx, productID, py, pm)
		if err != nil {
			return err
		}
		carried = prev.OpeningQty + totals.InQty - totals.OutQty
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := repo.EnsureOpening(ctx, &domain.MonthOpening{
		Year:       year,
		Month:      month,
		ProductID:  productID,
		OpeningQty: carried,
	}); err != nil {
		return err
	}
	_, err = repo.LockOpening(ctx, productID, year, month)
	return err
}

// Rollover creates the openings of year/month from the previous month's
// closing stock. Products that already have an opening are left alone.
func (s *InventoryService) Rollover(ctx context.Context, year, month int) (int, error) {
	if !domain.ValidPeriod(year, month) {
		return 0, validation("Invalid period %d-%d", year, month)
	}
	py, pm := domain.PreviousMonth(year, month)

	products, err := s.repo.AllProducts(ctx)
	if err != nil {
		return 0, translateError(err, "Product")
	}
	prevOpenings, err := s.repo.OpeningsFor(ctx, py, pm)
	if err != nil {
		return 0, translateError(err, "Product")
	}
	prevTotals, err := s.repo.TotalsFor(ctx, py, pm)
	if err != nil {
		return 0, translateError(err, "Product")
	}
	existing, err := s.repo.OpeningsFor(ctx, year, month)
	if err != nil {
		return 0, translateError(err, "Product")
	}

	created := 0
	for _, p := range products {
		if _, ok := existing[p.ID]; ok {
			continue
		}
		closing := summarize(prevOpenings[p.ID], prevTotals[p.ID]).Current
		if err := s.repo.EnsureOpening(ctx, &domain.MonthOpening{
			Year:       year,
			Month:      month,
			ProductID:  p.ID,
			OpeningQty: closing,
		}); err != nil {
			return created, translateError(err, "Product")
		}
		created++
	}

	s.logger.Info("inventory rollover complete",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("openings_created", created))
	return created, nil
}

func validateDay(year, month, day int) error {
	if !domain.ValidPeriod(year, month) {
		return validation("Invalid period %d-%d", year, month)
	}
	if day < 1 || day > daysIn(year, month) {
		return validation("Day %d is outside %d-%02d", day, year, month)
	}
	return nil
}

func actorRef(actor domain.Actor) *uuid.UUID {
	if actor.IsSystem() {
		return nil
	}
	id := actor.ID
	return &id
}
