package estimator

import (
	"fmt"
	"math"
	"math/rand"

	"dealscreener/server/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Split shuffles the rows with seed and holds out testFraction of them.
func Split(t *Table, testFraction float64, seed int64) (train, test *Table) {
	n := t.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(math.Round(float64(n) * testFraction))
	if nTest < 0 {
		nTest = 0
	}
	if nTest > n {
		nTest = n
	}
	return t.Subset(perm[nTest:]), t.Subset(perm[:nTest])
}

// Assess measures a model against the target column of t.
func Assess(m Model, t *Table) (models.Quality, error) {
	if t.Len() == 0 {
		return models.Quality{}, fmt.Errorf("%w: empty evaluation table", ErrInsufficientRows)
	}

	actual, err := t.Column(m.Target())
	if err != nil {
		return models.Quality{}, err
	}

	predicted := make([]float64, t.Len())
	for i := range predicted {
		p, err := m.Predict(t.Row(i))
		if err != nil {
			return models.Quality{}, fmt.Errorf("row %d: %w", i, err)
		}
		predicted[i] = p
	}

	n := float64(len(actual))
	return models.Quality{
		R2:   stat.RSquaredFrom(predicted, actual, nil),
		MAE:  floats.Distance(predicted, actual, 1) / n,
		RMSE: floats.Distance(predicted, actual, 2) / math.Sqrt(n),
		Rows: len(actual),
	}, nil
}
