package market

import (
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"dealscreener/server/config"
	"dealscreener/server/internal/dataset"
	"dealscreener/server/internal/estimator"
	"dealscreener/server/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel returns a fixed value and records the last row it saw.
type stubModel struct {
	mu       sync.Mutex
	value    float64
	features []string
	target   string
	err      error
	lastRow  estimator.FeatureRow
}

func (m *stubModel) Predict(row estimator.FeatureRow) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRow = row
	return m.value, m.err
}

func (m *stubModel) Features() []string { return m.features }
func (m *stubModel) Target() string     { return m.target }

func rentStub(value float64) *stubModel {
	return &stubModel{value: value, features: estimator.RentFeatures, target: models.ColMonthlyRent}
}

func priceStub(value float64) *stubModel {
	return &stubModel{value: value, features: estimator.PriceFeatures, target: models.ColSalePrice}
}

func testProperty() models.PropertyInput {
	return models.PropertyInput{
		Zone:       "Juriquilla",
		BuiltArea:  110,
		Bedrooms:   3,
		Bathrooms:  2,
		Parking:    2,
		Price:      3_800_000,
		AgeYears:   8,
		VacancyPct: 5,
	}
}

func testFinancing() models.FinancingAssumptions {
	return models.FinancingAssumptions{LTVPct: 70, AnnualRatePct: 10.5, TermYears: 20, OpExPct: 18}
}

func syntheticDataset(n int) *dataset.Dataset {
	rng := rand.New(rand.NewSource(7))
	zones := []string{"Juriquilla", "Centro", "Zibatá", "Corregidora"}
	listings := make([]models.Listing, 0, n)
	for i := 0; i < n; i++ {
		m2 := 60 + rng.Float64()*180
		price := 24_000*m2 + rng.NormFloat64()*80_000
		listings = append(listings, models.Listing{
			Zone:        zones[i%len(zones)],
			BuiltArea:   m2,
			Bedrooms:    float64(1 + rng.Intn(4)),
			Bathrooms:   float64(1 + rng.Intn(3)),
			Parking:     float64(rng.Intn(3)),
			SalePrice:   price,
			AgeYears:    float64(rng.Intn(30)),
			VacancyPct:  rng.Float64() * 15,
			ZoneRisk:    float64(1 + i%4),
			MonthlyRent: 0.005*price + rng.NormFloat64()*300,
		})
	}
	return &dataset.Dataset{Source: "memory", Fingerprint: "fp-1", Listings: listings}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	leaky := &stubModel{features: append([]string{models.ColSalePrice}, estimator.PriceFeatures...), target: models.ColSalePrice}
	_, err = New(nil, rentStub(1), leaky)
	assert.ErrorIs(t, err, estimator.ErrTargetLeak)

	ctx, err := New(nil, rentStub(1), nil)
	require.NoError(t, err)
	assert.False(t, ctx.HasPriceEstimator())
	assert.True(t, ctx.Zones().Has("Juriquilla"))
}

func TestEvaluate_Rentals(t *testing.T) {
	rent := rentStub(22_000)
	ctx, err := New(config.DefaultZoneTable(), rent, nil)
	require.NoError(t, err)

	a, err := ctx.Evaluate(testProperty(), testFinancing(), "")
	require.NoError(t, err)

	assert.Equal(t, models.VariantRentals, a.Variant)
	assert.Equal(t, 22_000.0, a.Metrics.RawRent)
	assert.InDelta(t, 23_100.0, a.Metrics.AdjustedRent, 1e-9)
	assert.Equal(t, 6, a.Score.Score)
	assert.Equal(t, "weak", a.Score.Label)
	assert.Nil(t, a.Price)
	assert.Len(t, a.Sensitivity, 5)

	// zone risk comes from the zone table
	assert.Equal(t, 2.0, rent.lastRow[models.ColZoneRisk])
	assert.Equal(t, 3_800_000.0, rent.lastRow[models.ColSalePrice])
	assert.Equal(t, 110.0, rent.lastRow[models.ColBuiltArea])
}

func TestEvaluate_UnknownZoneUsesFallback(t *testing.T) {
	rent := rentStub(20_000)
	ctx, err := New(config.DefaultZoneTable(), rent, nil)
	require.NoError(t, err)

	p := testProperty()
	p.Zone = "Milenio"
	a, err := ctx.Evaluate(p, testFinancing(), models.VariantRentals)
	require.NoError(t, err)

	assert.False(t, a.Zone.Known)
	assert.Equal(t, config.FallbackRiskTier, a.Zone.RiskTier)
	assert.Equal(t, 20_000.0, a.Metrics.AdjustedRent)
	assert.Equal(t, float64(config.FallbackRiskTier), rent.lastRow[models.ColZoneRisk])
}

func TestEvaluate_SalePrice(t *testing.T) {
	ctx, err := New(config.DefaultZoneTable(), rentStub(22_000), priceStub(4_000_000))
	require.NoError(t, err)

	a, err := ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
	require.NoError(t, err)

	assert.Equal(t, models.VariantSalePrice, a.Variant)
	require.NotNil(t, a.Price)
	assert.Equal(t, 4_000_000.0, a.Price.Recommended)
	assert.Equal(t, 3_800_000.0, a.Price.Asking)
	assert.InDelta(t, -5.0, a.Price.GapPct, 1e-9)
	assert.NotContains(t, ctx.PriceFeatures(), models.ColSalePrice)
}

func TestEvaluate_Errors(t *testing.T) {
	ctx, err := New(nil, rentStub(22_000), nil)
	require.NoError(t, err)

	_, err = ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
	assert.ErrorIs(t, err, ErrPriceEstimatorUnavailable)

	_, err = ctx.Evaluate(testProperty(), testFinancing(), models.Variant("auction"))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	failing := rentStub(0)
	failing.err = errors.New("boom")
	ctx, err = New(nil, failing, nil)
	require.NoError(t, err)
	_, err = ctx.Evaluate(testProperty(), testFinancing(), models.VariantRentals)
	assert.Error(t, err)
}

func TestEvaluate_Concurrent(t *testing.T) {
	ctx, err := New(nil, rentStub(22_000), priceStub(4_000_000))
	require.NoError(t, err)

	want, err := ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.Analysis, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNewContext_Ridge(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ds := syntheticDataset(120)

	ctx, err := NewContext(ds, config.DefaultZoneTable(), &estimator.Ridge{Lambda: 1}, Options{
		PriceEnabled:    true,
		HoldoutFraction: 0.2,
		Seed:            42,
	}, logger)
	require.NoError(t, err)

	stats := ctx.Stats()
	assert.Equal(t, 120, stats.Listings)
	assert.Equal(t, "ridge", stats.Estimator)
	assert.Equal(t, "fp-1", ctx.Fingerprint())
	assert.True(t, stats.PriceModel)
	assert.ElementsMatch(t, []string{"Centro", "Corregidora", "Juriquilla", "Zibatá"}, stats.Zones)
	require.NotNil(t, stats.RentHoldout)
	require.NotNil(t, stats.PriceHoldout)
	assert.Greater(t, stats.RentHoldout.R2, 0.5)
	assert.Greater(t, stats.RentPerSqm, 0.0)
	assert.NotEmpty(t, stats.FittedAt)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	a, err := ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
	require.NoError(t, err)
	assert.Greater(t, a.Metrics.RawRent, 0.0)
	assert.Greater(t, a.Price.Recommended, 0.0)
}

func TestNewContext_PriceDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, err := NewContext(syntheticDataset(40), nil, &estimator.Ridge{Lambda: 1}, Options{}, logger)
	require.NoError(t, err)

	assert.False(t, ctx.HasPriceEstimator())
	assert.Nil(t, ctx.Stats().RentHoldout)

	_, err = ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
	assert.ErrorIs(t, err, ErrPriceEstimatorUnavailable)
}

func TestHolder_Swap(t *testing.T) {
	first, err := New(nil, rentStub(1), nil)
	require.NoError(t, err)
	second, err := New(nil, rentStub(2), nil)
	require.NoError(t, err)

	h := NewHolder(first)
	assert.Same(t, first, h.Current())

	old := h.Swap(second)
	assert.Same(t, first, old)
	assert.Same(t, second, h.Current())
}

func TestBuilder_SampleDataset(t *testing.T) {
	logger, _ := test.NewNullLogger()
	b := &Builder{
		Path:    filepath.Join("..", "..", "data", "base_mercado_qro.csv"),
		Zones:   config.DefaultZoneTable(),
		Trainer: &estimator.Forest{Trees: 20, MaxDepth: 8, MinLeaf: 2, Seed: 42},
		Options: Options{PriceEnabled: true, HoldoutFraction: 0.2, Seed: 42},
		Logger:  logger,
	}

	fingerprint, err := b.Fingerprint()
	require.NoError(t, err)

	ctx, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, fingerprint, ctx.Fingerprint())
	assert.Equal(t, 240, ctx.Stats().Listings)

	a, err := ctx.Evaluate(testProperty(), testFinancing(), models.VariantSalePrice)
	require.NoError(t, err)
	assert.Greater(t, a.Metrics.RawRent, 5_000.0)
	assert.Less(t, a.Metrics.RawRent, 60_000.0)
	assert.Greater(t, a.Price.Recommended, 800_000.0)

	_, err = (&Builder{Path: "missing.csv", Trainer: b.Trainer}).Build()
	assert.Error(t, err)
}
