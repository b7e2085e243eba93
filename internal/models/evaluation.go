package models

import (
	"math"
	"time"
)

// Evaluation is the API envelope around an analysis.
type Evaluation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Cached    bool      `json:"cached"`
	Analysis  *Analysis `json:"analysis"`
}

// EvaluationRecord is the persisted summary of one evaluation.
type EvaluationRecord struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Variant          string    `gorm:"size:16" json:"variant"`
	Zone             string    `gorm:"index" json:"zone"`
	Price            float64   `json:"price"`
	BuiltArea        float64   `json:"m2"`
	LTVPct           float64   `json:"ltv_pct"`
	AnnualRatePct    float64   `json:"annual_rate_pct"`
	TermYears        int       `json:"term_years"`
	AdjustedRent     float64   `json:"adjusted_rent"`
	NOI              float64   `json:"noi"`
	CapRate          float64   `json:"cap_rate"`
	CashOnCash       float64   `json:"cash_on_cash"`
	DSCR             *float64  `json:"dscr"` // nil when debt service is zero
	Score            int       `json:"score"`
	Label            string    `json:"label"`
	RecommendedPrice *float64  `json:"recommended_price,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the history table name stable.
func (EvaluationRecord) TableName() string {
	return "evaluations"
}

// NewEvaluationRecord flattens an evaluation into a history row.
func NewEvaluationRecord(e *Evaluation) *EvaluationRecord {
	a := e.Analysis
	rec := &EvaluationRecord{
		ID:            e.ID,
		Variant:       string(a.Variant),
		Zone:          a.Zone.Name,
		Price:         a.Property.Price,
		BuiltArea:     a.Property.BuiltArea,
		LTVPct:        a.Financing.LTVPct,
		AnnualRatePct: a.Financing.AnnualRatePct,
		TermYears:     a.Financing.TermYears,
		AdjustedRent:  a.Metrics.AdjustedRent,
		NOI:           a.Metrics.NOI,
		CapRate:       a.Metrics.CapRate,
		CashOnCash:    a.Metrics.CashOnCash,
		Score:         a.Score.Score,
		Label:         a.Score.Label,
		CreatedAt:     e.CreatedAt,
	}

	if dscr := float64(a.Metrics.DSCR); !math.IsInf(dscr, 0) {
		rec.DSCR = &dscr
	}
	if a.Price != nil {
		recommended := a.Price.Recommended
		rec.RecommendedPrice = &recommended
	}
	return rec
}
