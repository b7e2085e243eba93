// Package market holds the fitted estimators and zone tables one evaluation needs.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"

	"dealscreener/server/config"
	"dealscreener/server/internal/dataset"
	"dealscreener/server/internal/deal"
	"dealscreener/server/internal/estimator"
	"dealscreener/server/internal/models"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrPriceEstimatorUnavailable = errors.New("price estimator is not available")
	ErrUnknownVariant            = errors.New("unknown variant")
)

// Options controls how a Context is fitted.
type Options struct {
	PriceEnabled    bool
	HoldoutFraction float64
	Seed            int64
}

// Context is the read-only market state shared by every evaluation. It is created
// once per dataset version and never modified afterwards.
type Context struct {
	zones *config.ZoneTable
	rent  estimator.Model
	price estimator.Model
	stats models.MarketStats
}

// New builds a Context from already fitted models. price may be nil.
func New(zones *config.ZoneTable, rent, price estimator.Model) (*Context, error) {
	if zones == nil {
		zones = config.DefaultZoneTable()
	}
	if rent == nil {
		return nil, fmt.Errorf("rent estimator is required")
	}
	if price != nil {
		for _, f := range price.Features() {
			if f == models.ColSalePrice || f == price.Target() {
				return nil, fmt.Errorf("%w: price estimator reads %s", estimator.ErrTargetLeak, f)
			}
		}
	}

	return &Context{
		zones: zones,
		rent:  rent,
		price: price,
		stats: models.MarketStats{PriceModel: price != nil},
	}, nil
}

// NewContext fits the estimators on ds. When a holdout fraction is set the models are
// first scored on held-out rows, then refitted on the full table.
func NewContext(ds *dataset.Dataset, zones *config.ZoneTable, trainer estimator.Trainer, opts Options, logger *logrus.Logger) (*Context, error) {
	if logger == nil {
		logger = logrus.New()
	}

	table := ds.Table()
	start := time.Now()

	stats := models.MarketStats{
		Listings:    ds.Len(),
		Zones:       ds.Zones(),
		Estimator:   trainer.Name(),
		PriceModel:  opts.PriceEnabled,
		Fingerprint: ds.Fingerprint,
	}

	rent, rentQuality, err := fit(trainer, table, estimator.RentFeatures, models.ColMonthlyRent, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fit rent estimator: %w", err)
	}
	stats.RentHoldout = rentQuality

	var price estimator.Model
	if opts.PriceEnabled {
		price, stats.PriceHoldout, err = fit(trainer, table, estimator.PriceFeatures, models.ColSalePrice, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fit price estimator: %w", err)
		}
	}

	rents, _ := table.Column(models.ColMonthlyRent)
	prices, _ := table.Column(models.ColSalePrice)
	areas, _ := table.Column(models.ColBuiltArea)
	stats.AverageRent = stat.Mean(rents, nil)
	stats.AveragePrice = stat.Mean(prices, nil)
	if totalArea := floats.Sum(areas); totalArea > 0 {
		stats.RentPerSqm = floats.Sum(rents) / totalArea
	}
	stats.FittedAt = time.Now().UTC().Format(time.RFC3339)

	ctx, err := New(zones, rent, price)
	if err != nil {
		return nil, err
	}
	ctx.stats = stats

	fields := logrus.Fields{
		"listings":  stats.Listings,
		"estimator": stats.Estimator,
		"price":     opts.PriceEnabled,
		"duration":  time.Since(start).String(),
	}
	if rentQuality != nil {
		fields["rent_r2"] = rentQuality.R2
		fields["rent_mae"] = rentQuality.MAE
	}
	if stats.PriceHoldout != nil {
		fields["price_r2"] = stats.PriceHoldout.R2
	}
	logger.WithFields(fields).Info("Fitted market estimators")

	return ctx, nil
}

// fit trains one model, reporting held-out quality when there are enough rows.
func fit(trainer estimator.Trainer, table *estimator.Table, features []string, target string, opts Options) (estimator.Model, *models.Quality, error) {
	var quality *models.Quality
	if opts.HoldoutFraction > 0 {
		train, test := estimator.Split(table, opts.HoldoutFraction, opts.Seed)
		if train.Len() >= 2 && test.Len() >= 2 {
			m, err := trainer.Fit(train, features, target)
			if err != nil {
				return nil, nil, err
			}
			q, err := estimator.Assess(m, test)
			if err != nil {
				return nil, nil, err
			}
			if !math.IsNaN(q.R2) && !math.IsInf(q.R2, 0) {
				quality = &q
			}
		}
	}

	m, err := trainer.Fit(table, features, target)
	if err != nil {
		return nil, nil, err
	}
	return m, quality, nil
}

// Evaluate screens one deal. It only reads the Context and may run concurrently.
func (c *Context) Evaluate(p models.PropertyInput, f models.FinancingAssumptions, v models.Variant) (*models.Analysis, error) {
	if v == "" {
		v = models.VariantRentals
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	if v == models.VariantSalePrice && c.price == nil {
		return nil, ErrPriceEstimatorUnavailable
	}

	zone := c.zones.Lookup(p.Zone)
	row := featureRow(p, zone)

	rent, err := c.rent.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate rent: %w", err)
	}

	analysis := deal.Analyze(rent, zone, p, f)
	analysis.Variant = v

	if v == models.VariantSalePrice {
		price, err := c.price.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate price: %w", err)
		}
		analysis.Price = deal.PriceGap(price, p)
	}

	return analysis, nil
}

// featureRow maps a property onto the dataset columns. The zone risk comes from the
// zone table, not from the caller.
func featureRow(p models.PropertyInput, zone models.ZoneProfile) estimator.FeatureRow {
	return estimator.FeatureRow{
		models.ColBuiltArea:  p.BuiltArea,
		models.ColBedrooms:   float64(p.Bedrooms),
		models.ColBathrooms:  float64(p.Bathrooms),
		models.ColParking:    float64(p.Parking),
		models.ColSalePrice:  p.Price,
		models.ColAgeYears:   float64(p.AgeYears),
		models.ColVacancyPct: p.VacancyPct,
		models.ColZoneRisk:   float64(zone.RiskTier),
	}
}

// Zones returns the zone table.
func (c *Context) Zones() *config.ZoneTable {
	return c.zones
}

// Stats describes the fitted context.
func (c *Context) Stats() models.MarketStats {
	s := c.stats
	s.Zones = append([]string(nil), c.stats.Zones...)
	return s
}

// Fingerprint is the dataset version the Context was fitted on.
func (c *Context) Fingerprint() string {
	return c.stats.Fingerprint
}

// PriceFeatures lists the columns the price estimator reads, nil without one.
func (c *Context) PriceFeatures() []string {
	if c.price == nil {
		return nil
	}
	return c.price.Features()
}

// HasPriceEstimator reports whether the SalePrice variant can be served.
func (c *Context) HasPriceEstimator() bool {
	return c.price != nil
}
