package deal

import (
	"math"

	"dealscreener/server/internal/models"
)

// ComputeMetrics derives the income, capital structure and return metrics of a deal
// from a raw monthly rent estimate.
//
// Degenerate inputs never fail: a non-positive price gives a zero cap rate, zero equity
// gives zero cash-on-cash and a deal without debt service has an infinite DSCR.
func ComputeMetrics(rawRent float64, zone models.ZoneProfile, p models.PropertyInput, f models.FinancingAssumptions) models.FinancialMetrics {
	adjustedRent := rawRent * zone.RentMultiplier
	grossIncome := adjustedRent * 12 * (1 - p.VacancyPct/100.0)
	opex := grossIncome * (f.OpExPct / 100.0)
	noi := grossIncome - opex

	capRate := 0.0
	if p.Price > 0 {
		capRate = (noi / p.Price) * 100
	}

	loan, equity := capitalStructure(p.Price, f.LTVPct)
	monthly := MonthlyPayment(loan, f.AnnualRatePct, f.TermYears)
	annual := monthly * 12

	return models.FinancialMetrics{
		RawRent:            rawRent,
		AdjustedRent:       adjustedRent,
		GrossAnnualIncome:  grossIncome,
		OperatingExpenses:  opex,
		NOI:                noi,
		CapRate:            capRate,
		LoanAmount:         loan,
		Equity:             equity,
		MonthlyDebtService: monthly,
		AnnualDebtService:  annual,
		CashFlow:           noi - annual,
		CashOnCash:         cashOnCash(noi, annual, equity),
		DSCR:               models.Ratio(coverage(noi, annual)),
	}
}

// capitalStructure splits price into the financed amount and the equity invested.
func capitalStructure(price, ltvPct float64) (loan, equity float64) {
	loan = price * (ltvPct / 100.0)
	return loan, price - loan
}

func cashOnCash(noi, annualDebt, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return (noi - annualDebt) / equity * 100
}

// coverage is NOI over annual debt service, +Inf without debt.
func coverage(noi, annualDebt float64) float64 {
	if annualDebt <= 0 {
		return math.Inf(1)
	}
	return noi / annualDebt
}
