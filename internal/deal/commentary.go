package deal

import (
	"fmt"

	"dealscreener/server/internal/models"
)

// Lender view of a deal's debt coverage.
const (
	FinanceabilityFragile     = "fragile"
	FinanceabilityConditional = "conditional"
	FinanceabilityHealthy     = "healthy"
)

// Commentary returns the narrative notes shown next to the score.
func Commentary(m models.FinancialMetrics, zone models.ZoneProfile) []string {
	notes := make([]string, 0, 3)

	switch {
	case m.CapRate >= zone.TargetYield+1:
		notes = append(notes, "Cap rate is clearly above the target yield for this zone.")
	case m.CapRate >= zone.TargetYield-0.3:
		notes = append(notes, "Cap rate is in line with the target yield for this zone.")
	default:
		notes = append(notes, "Cap rate falls below the target yield for this zone.")
	}

	switch {
	case m.CashOnCash >= 10:
		notes = append(notes, "Cash-on-cash is attractive for a leveraged buy-and-hold investor.")
	case m.CashOnCash >= 7:
		notes = append(notes, "Cash-on-cash is reasonable but could improve by adjusting price or LTV.")
	default:
		notes = append(notes, "Cash-on-cash is moderate, closer to a defensive profile than an aggressive one.")
	}

	dscr := float64(m.DSCR)
	switch {
	case dscr >= 1.5:
		notes = append(notes, "DSCR leaves a comfortable cushion over debt service.")
	case dscr >= 1.2:
		notes = append(notes, "DSCR is acceptable, although sensitive to NOI deviations.")
	default:
		notes = append(notes, "DSCR is tight; the deal is sensitive to changes in rent or rates.")
	}

	return notes
}

// Financeability classifies DSCR the way a conservative lender would.
func Financeability(dscr float64) string {
	switch {
	case dscr < 1.1:
		return FinanceabilityFragile
	case dscr < 1.3:
		return FinanceabilityConditional
	default:
		return FinanceabilityHealthy
	}
}

// CompareBenchmark sets the deal cap rate against the zone target yield.
func CompareBenchmark(m models.FinancialMetrics, zone models.ZoneProfile) models.Benchmark {
	return models.Benchmark{
		TargetYield: zone.TargetYield,
		CapRate:     m.CapRate,
		Spread:      m.CapRate - zone.TargetYield,
	}
}

// AppreciationNote describes the appreciation assumption of the zone. It is informative only.
func AppreciationNote(zone models.ZoneProfile) string {
	return fmt.Sprintf("Implied annual appreciation in %s: ~%.1f%%.", zone.Name, zone.Appreciation)
}
