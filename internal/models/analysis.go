package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Variant selects which estimators an evaluation runs.
type Variant string

const (
	VariantRentals   Variant = "rentals"
	VariantSalePrice Variant = "sale_price"
)

// IsValid reports whether v is a known variant.
func (v Variant) IsValid() bool {
	return v == VariantRentals || v == VariantSalePrice
}

// ZoneProfile is the static benchmark record of a zone.
type ZoneProfile struct {
	Name           string  `json:"name" yaml:"name"`
	RiskTier       int     `json:"risk_tier" yaml:"risk_tier"`
	TargetYield    float64 `json:"target_yield" yaml:"target_yield"`
	Appreciation   float64 `json:"appreciation" yaml:"appreciation"`
	RentMultiplier float64 `json:"rent_multiplier" yaml:"rent_multiplier"`
	Latitude       float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude      float64 `json:"longitude,omitempty" yaml:"longitude"`
	Known          bool    `json:"known" yaml:"-"`
}

// Ratio is a float that survives JSON encoding when infinite.
// +Inf is written as the string "inf".
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(f):
		return nil, fmt.Errorf("ratio is NaN")
	}
	return json.Marshal(f)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "inf", "+inf":
			*r = Ratio(math.Inf(1))
		case "-inf":
			*r = Ratio(math.Inf(-1))
		default:
			return fmt.Errorf("invalid ratio %q", s)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// FinancialMetrics is the derived income and return profile of one deal.
type FinancialMetrics struct {
	RawRent            float64 `json:"raw_rent"`
	AdjustedRent       float64 `json:"adjusted_rent"`
	GrossAnnualIncome  float64 `json:"gross_annual_income"`
	OperatingExpenses  float64 `json:"operating_expenses"`
	NOI                float64 `json:"noi"`
	CapRate            float64 `json:"cap_rate"`
	LoanAmount         float64 `json:"loan_amount"`
	Equity             float64 `json:"equity"`
	MonthlyDebtService float64 `json:"monthly_debt_service"`
	AnnualDebtService  float64 `json:"annual_debt_service"`
	CashFlow           float64 `json:"cash_flow"`
	CashOnCash         float64 `json:"cash_on_cash"`
	DSCR               Ratio   `json:"dscr"`
}

// SensitivityRow holds DSCR and cash-on-cash at one leverage level.
type SensitivityRow struct {
	LTVPct     float64 `json:"ltv_pct"`
	DSCR       Ratio   `json:"dscr"`
	CashOnCash float64 `json:"cash_on_cash"`
}

// ScoreBreakdown lists the points each band contributed.
type ScoreBreakdown struct {
	Rentability int `json:"rentability"`
	Risk        int `json:"risk"`
	Vacancy     int `json:"vacancy"`
	CashOnCash  int `json:"cash_on_cash"`
	DSCR        int `json:"dscr"`
}

// Total sums the band points.
func (b ScoreBreakdown) Total() int {
	return b.Rentability + b.Risk + b.Vacancy + b.CashOnCash + b.DSCR
}

type DealScore struct {
	Score     int            `json:"score"`
	Max       int            `json:"max"`
	Label     string         `json:"label"`
	Progress  float64        `json:"progress"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// PriceEstimate is the sale-price side of the extended variant.
type PriceEstimate struct {
	Recommended float64 `json:"recommended"`
	Asking      float64 `json:"asking"`
	GapPct      float64 `json:"gap_pct"`
	PricePerSqm float64 `json:"price_per_sqm"`
}

// Benchmark compares the deal yield with the zone target.
type Benchmark struct {
	TargetYield float64 `json:"target_yield"`
	CapRate     float64 `json:"cap_rate"`
	Spread      float64 `json:"spread"`
}

// Analysis is the full structured result of one evaluation.
type Analysis struct {
	Variant        Variant              `json:"variant"`
	Zone           ZoneProfile          `json:"zone"`
	Property       PropertyInput        `json:"property"`
	Financing      FinancingAssumptions `json:"financing"`
	Metrics        FinancialMetrics     `json:"metrics"`
	Score          DealScore            `json:"score"`
	Sensitivity    []SensitivityRow     `json:"sensitivity"`
	Benchmark      Benchmark            `json:"benchmark"`
	Commentary     []string             `json:"commentary"`
	Financeability string               `json:"financeability"`
	Appreciation   string               `json:"appreciation"`
	Price          *PriceEstimate       `json:"price,omitempty"`
}
