package deal

import "math"

// MonthlyPayment returns the level monthly payment that amortizes loan over years
// at annualRatePct. A non-positive loan or term means there is no debt and yields 0.
func MonthlyPayment(loan, annualRatePct float64, years int) float64 {
	if loan <= 0 || years <= 0 {
		return 0
	}

	r := annualRatePct / 100.0 / 12.0
	n := float64(years * 12)
	if r == 0 {
		return loan / n
	}
	return loan * r / (1 - math.Pow(1+r, -n))
}
