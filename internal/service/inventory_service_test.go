package service_test

import (
	"bytes"
	"testing"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func adjustment(year, month, day int, in, out float64) *domain.AdjustmentRequest {
	return &domain.AdjustmentRequest{
		Year:       year,
		Month:      month,
		Day:        day,
		DesiredIn:  testutil.Ptr(in),
		DesiredOut: testutil.Ptr(out),
	}
}

func TestInventoryService_ApplyAdjustment(t *testing.T) {
	env := newTestEnv(t)
	manager := testutil.ActorFor(env.department(t, "Warehouse").manager)
	product := testutil.CreateProduct(t, env.db, "CABLE-2", 15)

	require.NoError(t, env.invRepo.EnsureOpening(env.ctx, &domain.MonthOpening{Year: 2026, Month: 4, ProductID: product.ID, OpeningQty: 10}))
	require.NoError(t, env.invRepo.AddToDay(env.ctx, product.ID, 2026, 4, 3, 12, 5))
	require.NoError(t, env.invRepo.AddToDay(env.ctx, product.ID, 2026, 4, 9, 8, 0))

	t.Run("delta is posted on the requested day", func(t *testing.T) {
		res, err := env.inventory.ApplyAdjustment(env.ctx, manager, product.ID, adjustment(2026, 4, 15, 25, 5))
		require.NoError(t, err)
		assert.Equal(t, 5.0, res.DeltaIn)
		assert.Equal(t, 0.0, res.DeltaOut)
		assert.Equal(t, 25.0, res.Stock.TotalIn)
		assert.Equal(t, 5.0, res.Stock.TotalOut)
		assert.Equal(t, 30.0, res.Stock.Current)

		ledger, err := env.inventory.Ledger(env.ctx, manager, product.ID, 2026, 4)
		require.NoError(t, err)
		require.Len(t, ledger.Movements, 3)
		// earlier rows keep their values
		assert.Equal(t, 12.0, ledger.Movements[0].InQty)
		assert.Equal(t, 15, ledger.Movements[2].Day)
		assert.Equal(t, 5.0, ledger.Movements[2].InQty)
		assert.Equal(t, 30.0, ledger.Stock.Current)
	})

	t.Run("same target again writes nothing", func(t *testing.T) {
		res, err := env.inventory.ApplyAdjustment(env.ctx, manager, product.ID, adjustment(2026, 4, 20, 25, 5))
		require.NoError(t, err)
		assert.Zero(t, res.DeltaIn)
		assert.Zero(t, res.DeltaOut)

		rows, err := env.invRepo.Adjustments(env.ctx, product.ID, 2026, 4)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, domain.MovementSourceManualAdjustment, rows[0].Source)
		assert.Equal(t, manager.ID, *rows[0].AdjustedByUserID)
	})

	t.Run("lowering a total posts a negative delta and stock may go negative", func(t *testing.T) {
		res, err := env.inventory.ApplyAdjustment(env.ctx, manager, product.ID, adjustment(2026, 4, 20, 20, 60))
		require.NoError(t, err)
		assert.Equal(t, -5.0, res.DeltaIn)
		assert.Equal(t, 55.0, res.DeltaOut)
		assert.Equal(t, -30.0, res.Stock.Current)
	})

	t.Run("invalid day", func(t *testing.T) {
		_, err := env.inventory.ApplyAdjustment(env.ctx, manager, product.ID, adjustment(2026, 2, 30, 1, 0))
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := env.inventory.ApplyAdjustment(env.ctx, manager, uuid.New(), adjustment(2026, 4, 1, 1, 0))
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("sales may look but not adjust", func(t *testing.T) {
		sales := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleSales, nil))
		_, err := env.inventory.Ledger(env.ctx, sales, product.ID, 2026, 4)
		assert.NoError(t, err)
		_, err = env.inventory.ApplyAdjustment(env.ctx, sales, product.ID, adjustment(2026, 4, 1, 1, 0))
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestInventoryService_OpeningCarriesForward(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)

	dto, err := env.inventory.CreateProduct(env.ctx, admin, &domain.CreateProductRequest{
		ProductCode: "BOX-1",
		ModelName:   "Junction box",
		Unit:        "pcs",
		UnitPrice:   decimal.NewFromInt(40),
		OpeningQty:  50,
		Year:        2026,
		Month:       1,
	})
	require.NoError(t, err)

	_, err = env.inventory.PostMovement(env.ctx, admin, dto.ID, &domain.MovementRequest{Year: 2026, Month: 1, Day: 10, OutQty: 20})
	require.NoError(t, err)

	// the first write in February opens the month with January's closing stock
	res, err := env.inventory.PostMovement(env.ctx, admin, dto.ID, &domain.MovementRequest{Year: 2026, Month: 2, Day: 1, InQty: 5})
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Stock.OpeningQty)
	assert.Equal(t, 35.0, res.Stock.Current)

	_, err = env.inventory.PostMovement(env.ctx, admin, dto.ID, &domain.MovementRequest{Year: 2026, Month: 2, Day: 1})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = env.inventory.CreateProduct(env.ctx, admin, &domain.CreateProductRequest{
		ProductCode: "BOX-1", ModelName: "Duplicate", Unit: "pcs", Year: 2026, Month: 1,
	})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestInventoryService_Rollover(t *testing.T) {
	env := newTestEnv(t)
	tracked := testutil.CreateProduct(t, env.db, "PIPE-1", 10)
	untracked := testutil.CreateProduct(t, env.db, "PIPE-2", 10)

	require.NoError(t, env.invRepo.EnsureOpening(env.ctx, &domain.MonthOpening{Year: 2026, Month: 5, ProductID: tracked.ID, OpeningQty: 7}))
	require.NoError(t, env.invRepo.AddToDay(env.ctx, tracked.ID, 2026, 5, 12, 3, 1))

	created, err := env.inventory.Rollover(env.ctx, 2026, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	june, err := env.invRepo.OpeningsFor(env.ctx, 2026, 6)
	require.NoError(t, err)
	assert.Equal(t, 9.0, june[tracked.ID])
	assert.Equal(t, 0.0, june[untracked.ID])

	// a second run leaves existing openings alone
	created, err = env.inventory.Rollover(env.ctx, 2026, 6)
	require.NoError(t, err)
	assert.Zero(t, created)

	_, err = env.inventory.Rollover(env.ctx, 2026, 13)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestInventoryService_ExportMonth(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	product := testutil.CreateProduct(t, env.db, "LAMP-4", 99)
	require.NoError(t, env.invRepo.EnsureOpening(env.ctx, &domain.MonthOpening{Year: 2026, Month: 3, ProductID: product.ID, OpeningQty: 4}))
	require.NoError(t, env.invRepo.AddToDay(env.ctx, product.ID, 2026, 3, 2, 6, 1))
	second := testutil.CreateProduct(t, env.db, "LAMP-5", 99)
	require.NoError(t, env.invRepo.AddToDay(env.ctx, second.ID, 2026, 3, 31, 0, 2))

	data, name, err := env.inventory.ExportMonth(env.ctx, admin, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, "inventory-2026-03.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Stock", "Movements"}, f.GetSheetList())

	code, err := f.GetCellValue("Stock", "A2")
	require.NoError(t, err)
	assert.Equal(t, "LAMP-4", code)
	closing, err := f.GetCellValue("Stock", "G2")
	require.NoError(t, err)
	assert.Equal(t, "9", closing)

	// day 2 inbound sits in column D
	dayIn, err := f.GetCellValue("Movements", "D2")
	require.NoError(t, err)
	assert.Equal(t, "6", dayIn)

	header, err := f.GetCellValue("Movements", "BK1")
	require.NoError(t, err)
	assert.Equal(t, "31 out", header)

	// each product's movements land on its own row
	rows, err := f.GetRows("Movements")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byCode := map[string][]string{rows[1][0]: rows[1], rows[2][0]: rows[2]}
	require.Contains(t, byCode, "LAMP-5")
	lamp5 := byCode["LAMP-5"]
	require.Len(t, lamp5, 63)
	assert.Equal(t, "2", lamp5[62])
	assert.Empty(t, lamp5[3])

	tech := testutil.ActorFor(testutil.CreateUser(t, env.db, domain.RoleTechnician, nil))
	_, _, err = env.inventory.ExportMonth(env.ctx, tech, 2026, 3)
	assert.ErrorIs(t, err, service.ErrForbidden)
}
