package deal

import "dealscreener/server/internal/models"

// Analyze runs the full pipeline for one property given its raw rent estimate:
// metrics, score, leverage sensitivity and commentary.
func Analyze(rawRent float64, zone models.ZoneProfile, p models.PropertyInput, f models.FinancingAssumptions) *models.Analysis {
	m := ComputeMetrics(rawRent, zone, p, f)

	return &models.Analysis{
		Variant:        models.VariantRentals,
		Zone:           zone,
		Property:       p,
		Financing:      f,
		Metrics:        m,
		Score:          Rate(m, zone, p.VacancyPct),
		Sensitivity:    Sensitivity(m.NOI, p.Price, f, DefaultLTVLevels()),
		Benchmark:      CompareBenchmark(m, zone),
		Commentary:     Commentary(m, zone),
		Financeability: Financeability(float64(m.DSCR)),
		Appreciation:   AppreciationNote(zone),
	}
}

// PriceGap compares a recommended sale price with the asking price.
func PriceGap(recommended float64, p models.PropertyInput) *models.PriceEstimate {
	est := &models.PriceEstimate{
		Recommended: recommended,
		Asking:      p.Price,
	}
	if recommended > 0 {
		est.GapPct = (p.Price - recommended) / recommended * 100
	}
	if p.BuiltArea > 0 {
		est.PricePerSqm = recommended / p.BuiltArea
	}
	return est
}
