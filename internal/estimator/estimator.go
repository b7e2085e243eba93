// Package estimator fits and serves the regression models behind the rent and sale
// price estimates. Fitted models are immutable and safe for concurrent use.
package estimator

import (
	"errors"
	"fmt"

	"dealscreener/server/internal/models"
)

var (
	ErrTargetLeak       = errors.New("target column used as a feature")
	ErrMissingFeature   = errors.New("missing feature")
	ErrInsufficientRows = errors.New("not enough rows to fit")
	ErrUnknownEstimator = errors.New("unknown estimator")
)

// RentFeatures are the inputs of the rent estimator. Asking price is a legitimate
// driver of rent in this market and stays in.
var RentFeatures = []string{
	models.ColBuiltArea,
	models.ColBedrooms,
	models.ColBathrooms,
	models.ColParking,
	models.ColSalePrice,
	models.ColAgeYears,
	models.ColVacancyPct,
	models.ColZoneRisk,
}

// PriceFeatures are the inputs of the sale price estimator. The price column is never
// one of them.
var PriceFeatures = []string{
	models.ColBuiltArea,
	models.ColBedrooms,
	models.ColBathrooms,
	models.ColParking,
	models.ColAgeYears,
	models.ColVacancyPct,
	models.ColZoneRisk,
}

// Model is a fitted estimator.
type Model interface {
	// Predict estimates the target for one row.
	Predict(row FeatureRow) (float64, error)
	// Features lists the columns the model reads, in fit order.
	Features() []string
	// Target is the column the model estimates.
	Target() string
}

// Trainer fits a Model from a table.
type Trainer interface {
	Name() string
	Fit(t *Table, features []string, target string) (Model, error)
}

// Options configures the built-in trainers.
type Options struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
	Lambda   float64
}

// NewTrainer returns the trainer registered under kind.
func NewTrainer(kind string, opts Options) (Trainer, error) {
	switch kind {
	case "forest", "":
		return &Forest{
			Trees:    opts.Trees,
			MaxDepth: opts.MaxDepth,
			MinLeaf:  opts.MinLeaf,
			Seed:     opts.Seed,
		}, nil
	case "ridge":
		return &Ridge{Lambda: opts.Lambda}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEstimator, kind)
	}
}

// prepare checks the fit request and extracts the design matrix and target.
func prepare(t *Table, features []string, target string, minRows int) ([][]float64, []float64, error) {
	for _, f := range features {
		if f == target {
			return nil, nil, fmt.Errorf("%w: %s", ErrTargetLeak, f)
		}
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("%w: no features given", ErrMissingFeature)
	}
	if t.Len() < minRows {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRows, t.Len(), minRows)
	}

	x, err := t.Select(features)
	if err != nil {
		return nil, nil, err
	}
	y, err := t.Column(target)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// fitted carries the metadata every model shares.
type fitted struct {
	features []string
	target   string
}

func (f fitted) Features() []string {
	return append([]string(nil), f.features...)
}

func (f fitted) Target() string {
	return f.target
}
