package api

import "dealscreener/server/internal/models"

// PropertyRequest carries the property form. Either Zone or both coordinates must be set.
type PropertyRequest struct {
	Zone       string   `json:"zone"`
	Latitude   *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	BuiltArea  float64  `json:"m2" binding:"gte=40,lte=260"`
	Bedrooms   int      `json:"bedrooms" binding:"gte=1,lte=5"`
	Bathrooms  int      `json:"bathrooms" binding:"gte=1,lte=4"`
	Parking    int      `json:"parking" binding:"gte=0,lte=4"`
	Price      float64  `json:"price" binding:"gte=800000,lte=20000000"`
	AgeYears   int      `json:"age_years" binding:"gte=0,lte=40"`
	VacancyPct float64  `json:"vacancy_pct" binding:"gte=0,lte=20"`
}

// FinancingRequest carries the financing form.
type FinancingRequest struct {
	LTVPct        float64 `json:"ltv_pct" binding:"gte=0,lte=90"`
	AnnualRatePct float64 `json:"annual_rate_pct" binding:"gte=5,lte=16"`
	TermYears     int     `json:"term_years" binding:"gte=5,lte=30"`
	OpExPct       float64 `json:"opex_pct" binding:"gte=5,lte=40"`
}

type EvaluateRequest struct {
	Property  PropertyRequest  `json:"property"`
	Financing FinancingRequest `json:"financing"`
	Variant   models.Variant   `json:"variant" binding:"omitempty,oneof=rentals sale_price"`
}

type DebtServiceQuery struct {
	Loan      float64 `form:"loan" binding:"gte=0"`
	Rate      float64 `form:"rate" binding:"gte=0,lte=100"`
	TermYears int     `form:"years" binding:"required,gte=1,lte=50"`
}

func (r PropertyRequest) toInput(zone string) models.PropertyInput {
	return models.PropertyInput{
		Zone:       zone,
		BuiltArea:  r.BuiltArea,
		Bedrooms:   r.Bedrooms,
		Bathrooms:  r.Bathrooms,
		Parking:    r.Parking,
		Price:      r.Price,
		AgeYears:   r.AgeYears,
		VacancyPct: r.VacancyPct,
	}
}

func (r FinancingRequest) toAssumptions() models.FinancingAssumptions {
	return models.FinancingAssumptions{
		LTVPct:        r.LTVPct,
		AnnualRatePct: r.AnnualRatePct,
		TermYears:     r.TermYears,
		OpExPct:       r.OpExPct,
	}
}

// cacheRequest is the normalised request the result cache is keyed on.
type cacheRequest struct {
	Property  models.PropertyInput        `json:"property"`
	Financing models.FinancingAssumptions `json:"financing"`
	Variant   models.Variant              `json:"variant"`
}
