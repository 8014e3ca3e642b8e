package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/xuri/excelize/v2"
)

const (
	stockSheet    = "Stock"
	movementSheet = "Movements"
)

var stockHeadings = []string{"Product code", "Model", "Unit", "Opening", "Total in", "Total out", "Closing"}

// ExportMonth renders the month's stock summary and day-by-day movements as
// an XLSX workbook. It returns the file bytes and a suggested file name.
func (s *InventoryService) ExportMonth(ctx context.Context, actor domain.Actor, year, month int) ([]byte, string, error) {
	if !policy.HasRole(actor, policy.ViewInventory) {
		return nil, "", forbidden("You are not allowed to view inventory")
	}
	year, month, err := s.period(year, month)
	if err != nil {
		return nil, "", err
	}

	products, err := s.repo.AllProducts(ctx)
	if err != nil {
		return nil, "", translateError(err, "Product")
	}
	openings, err := s.repo.OpeningsFor(ctx, year, month)
	if err != nil {
		return nil, "", translateError(err, "Product")
	}
	totals, err := s.repo.TotalsFor(ctx, year, month)
	if err != nil {
		return nil, "", translateError(err, "Product")
	}
	movements, err := s.repo.MovementsFor(ctx, year, month)
	if err != nil {
		return nil, "", translateError(err, "Product")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return nil, "", fmt.Errorf("failed to prepare workbook: %w", err)
	}
	if _, err := f.NewSheet(movementSheet); err != nil {
		return nil, "", fmt.Errorf("failed to prepare workbook: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to prepare workbook: %w", err)
	}

	days := daysIn(year, month)
	movementHeadings := make([]interface{}, 2*days+1)
	movementHeadings[0] = "Product code"
	for d := 1; d <= days; d++ {
		movementHeadings[2*d-1] = fmt.Sprintf("%02d in", d)
		movementHeadings[2*d] = fmt.Sprintf("%02d out", d)
	}
	stockHeader := make([]interface{}, len(stockHeadings))
	for i, h := range stockHeadings {
		stockHeader[i] = h
	}

	if err := writeRow(f, stockSheet, 1, stockHeader); err != nil {
		return nil, "", err
	}
	if err := writeRow(f, movementSheet, 1, movementHeadings); err != nil {
		return nil, "", err
	}
	for _, sheet := range []string{stockSheet, movementSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, "", fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}

	for i, p := range products {
		row := i + 2
		stock := summarize(openings[p.ID], totals[p.ID])
		err := writeRow(f, stockSheet, row, []interface{}{
			p.ProductCode, p.ModelName, p.Unit, stock.OpeningQty, stock.TotalIn, stock.TotalOut, stock.Current,
		})
		if err != nil {
			return nil, "", err
		}

		daily := make([]interface{}, 2*days+1)
		daily[0] = p.ProductCode
		for _, m := range movements[p.ID] {
			if m.Day < 1 || m.Day > days {
				continue
			}
			daily[2*m.Day-1] = m.InQty
			daily[2*m.Day] = m.OutQty
		}
		if err := writeRow(f, movementSheet, row, daily); err != nil {
			return nil, "", err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("inventory-%d-%02d.xlsx", year, month), nil
}

// writeRow fills a sheet row starting at column A. Nil values leave the
// cell empty.
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address %s row %d: %w", sheet, row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
