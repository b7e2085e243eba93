package deal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name     string
		loan     float64
		rate     float64
		years    int
		expected float64
	}{
		{name: "Standard amortization", loan: 1_000_000, rate: 10, years: 20, expected: 9650.21645074009},
		{name: "Scenario loan", loan: 2_660_000, rate: 10.5, years: 20, expected: 26556.904993388536},
		{name: "Zero rate is straight line", loan: 1_200_000, rate: 0, years: 10, expected: 10_000},
		{name: "No loan", loan: 0, rate: 10, years: 20, expected: 0},
		{name: "Negative loan", loan: -5, rate: 10, years: 20, expected: 0},
		{name: "Zero term", loan: 1_000_000, rate: 10, years: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MonthlyPayment(tt.loan, tt.rate, tt.years), 1e-6)
		})
	}
}

func TestMonthlyPayment_MatchesFormula(t *testing.T) {
	loan, rate, years := 3_040_000.0, 12.3, 25
	r := rate / 100 / 12
	n := float64(years * 12)
	expected := loan * r / (1 - math.Pow(1+r, -n))

	assert.Equal(t, expected, MonthlyPayment(loan, rate, years))
}

func TestMonthlyPayment_RoundedReference(t *testing.T) {
	payment := MonthlyPayment(1_000_000, 10, 20)
	assert.Equal(t, 9650.22, round2(payment))
}

func TestMonthlyPayment_ZeroRateIsExact(t *testing.T) {
	assert.Equal(t, 1_000_000.0/240, MonthlyPayment(1_000_000, 0, 20))
}
