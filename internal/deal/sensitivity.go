package deal

import (
	"math"
	"strconv"

	"dealscreener/server/internal/models"
)

var ltvLevels = [...]float64{50, 60, 70, 80, 90}

// DefaultLTVLevels returns the leverage levels of the sensitivity table, ascending.
// Each call returns a fresh slice.
func DefaultLTVLevels() []float64 {
	levels := ltvLevels
	return levels[:]
}

// Sensitivity recomputes DSCR and cash-on-cash at each LTV level. NOI, rate and term
// are held fixed; only the loan and equity change with leverage.
func Sensitivity(noi, price float64, f models.FinancingAssumptions, levels []float64) []models.SensitivityRow {
	rows := make([]models.SensitivityRow, 0, len(levels))
	for _, ltv := range levels {
		loan, equity := capitalStructure(price, ltv)
		annual := MonthlyPayment(loan, f.AnnualRatePct, f.TermYears) * 12

		rows = append(rows, models.SensitivityRow{
			LTVPct:     ltv,
			DSCR:       models.Ratio(round2(coverage(noi, annual))),
			CashOnCash: round2(cashOnCash(noi, annual, equity)),
		})
	}
	return rows
}

// round2 rounds to two decimals from the exact binary value, half to even.
func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
