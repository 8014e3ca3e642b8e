package domain

// StockSummary is the derived stock of one product for one month
type StockSummary struct {
	OpeningQty float64 `json:"opening_qty"`
	TotalIn    float64 `json:"total_in"`
	TotalOut   float64 `json:"total_out"`
	Current    float64 `json:"current_stock"`
}

// ComputeStock derives current stock as opening + Σin − Σout. There is no
// floor: a negative result is returned as-is.
func ComputeStock(openingQty float64, movements []DailyMovement) StockSummary {
	s := StockSummary{OpeningQty: openingQty}
	for _, m := range movements {
		s.TotalIn += m.InQty
		s.TotalOut += m.OutQty
	}
	s.Current = s.OpeningQty + s.TotalIn - s.TotalOut
	return s
}

// AdjustmentDelta translates a "set the month's cumulative totals to X"
// request into the in/out delta that must be appended to the ledger.
func AdjustmentDelta(currentIn, currentOut, desiredIn, desiredOut float64) (deltaIn, deltaOut float64) {
	return desiredIn - currentIn, desiredOut - currentOut
}

// PreviousMonth returns the year and month before the given one
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth returns the year and month after the given one
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// ValidPeriod checks year/month bounds
func ValidPeriod(year, month int) bool {
	return year >= 2000 && year <= 9999 && month >= 1 && month <= 12
}
