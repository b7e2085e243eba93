package estimator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge fits an L2-regularised linear model on standardised features.
type Ridge struct {
	Lambda float64
}

func (r *Ridge) Name() string {
	return "ridge"
}

type ridgeModel struct {
	fitted
	means     []float64
	scales    []float64
	coef      []float64
	intercept float64
}

// Fit solves (XᵀX + λI)β = Xᵀy on centred, unit-variance columns.
func (r *Ridge) Fit(t *Table, features []string, target string) (Model, error) {
	rows, y, err := prepare(t, features, target, 2)
	if err != nil {
		return nil, err
	}

	n, d := len(rows), len(features)
	means := make([]float64, d)
	scales := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = rows[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		means[j] = mean
		// Constant columns carry no signal; keep them at zero after centring
		if !(std > 0) {
			std = 1
		}
		scales[j] = std
	}

	x := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			x.Set(i, j, (rows[i][j]-means[j])/scales[j])
		}
	}

	yMean := stat.Mean(y, nil)
	yc := make([]float64, n)
	copy(yc, y)
	floats.AddConst(-yMean, yc)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 0; j < d; j++ {
		xtx.Set(j, j, xtx.At(j, j)+r.Lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, yc))

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("failed to solve ridge system: %w", err)
		}
	}

	coef := make([]float64, d)
	for j := 0; j < d; j++ {
		coef[j] = beta.AtVec(j)
	}

	return &ridgeModel{
		fitted:    fitted{features: append([]string(nil), features...), target: target},
		means:     means,
		scales:    scales,
		coef:      coef,
		intercept: yMean,
	}, nil
}

func (m *ridgeModel) Predict(row FeatureRow) (float64, error) {
	v, err := row.vector(m.features)
	if err != nil {
		return 0, err
	}

	pred := m.intercept
	for j, val := range v {
		pred += m.coef[j] * (val - m.means[j]) / m.scales[j]
	}
	return pred, nil
}

// Coefficients returns the fitted weights in unscaled feature units.
func (m *ridgeModel) Coefficients() map[string]float64 {
	out := make(map[string]float64, len(m.features))
	for j, f := range m.features {
		out[f] = m.coef[j] / m.scales[j]
	}
	return out
}
