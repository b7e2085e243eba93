package deal

import (
	"math"

	"dealscreener/server/internal/models"
)

// MaxScore is the highest score a deal can reach.
const MaxScore = 16

// Deal labels, from best to worst.
const (
	LabelExcellent = "excellent"
	LabelGood      = "good"
	LabelMarginal  = "marginal"
	LabelWeak      = "weak"
)

// ScoreInputs are the metrics the scorer looks at.
type ScoreInputs struct {
	CapRate     float64
	RiskTier    int
	VacancyPct  float64
	CashOnCash  float64
	DSCR        float64
	TargetYield float64
}

// Score adds up the points of every band. The result lies in [3, 16].
func Score(in ScoreInputs) models.ScoreBreakdown {
	return models.ScoreBreakdown{
		Rentability: rentabilityPoints(in.CapRate, in.TargetYield),
		Risk:        riskPoints(in.RiskTier),
		Vacancy:     vacancyPoints(in.VacancyPct),
		CashOnCash:  cashOnCashPoints(in.CashOnCash),
		DSCR:        dscrPoints(in.DSCR),
	}
}

func rentabilityPoints(capRate, target float64) int {
	switch {
	case capRate >= target+1:
		return 4
	case capRate >= target-0.3:
		return 3
	case capRate >= target-1:
		return 2
	default:
		return 1
	}
}

// riskPoints treats the tier as an ordinal.
func riskPoints(tier int) int {
	switch {
	case tier <= 2:
		return 3
	case tier == 3:
		return 2
	default:
		return 1
	}
}

func vacancyPoints(vacancyPct float64) int {
	switch {
	case vacancyPct <= 4:
		return 3
	case vacancyPct <= 7:
		return 2
	default:
		return 1
	}
}

func cashOnCashPoints(coc float64) int {
	switch {
	case coc >= 10:
		return 3
	case coc >= 7:
		return 2
	case coc >= 5:
		return 1
	default:
		return 0
	}
}

// dscrPoints relies on +Inf comparing above every threshold.
func dscrPoints(dscr float64) int {
	switch {
	case dscr >= 1.5:
		return 3
	case dscr >= 1.2:
		return 2
	case dscr >= 1.0:
		return 1
	default:
		return 0
	}
}

// Label maps a score to its qualitative tier.
func Label(score int) string {
	switch {
	case score >= 13:
		return LabelExcellent
	case score >= 10:
		return LabelGood
	case score >= 7:
		return LabelMarginal
	default:
		return LabelWeak
	}
}

// Rate scores the metrics of a deal against its zone.
func Rate(m models.FinancialMetrics, zone models.ZoneProfile, vacancyPct float64) models.DealScore {
	breakdown := Score(ScoreInputs{
		CapRate:     m.CapRate,
		RiskTier:    zone.RiskTier,
		VacancyPct:  vacancyPct,
		CashOnCash:  m.CashOnCash,
		DSCR:        float64(m.DSCR),
		TargetYield: zone.TargetYield,
	})

	total := breakdown.Total()
	return models.DealScore{
		Score:     total,
		Max:       MaxScore,
		Label:     Label(total),
		Progress:  math.Min(float64(total)/MaxScore, 1.0),
		Breakdown: breakdown,
	}
}
