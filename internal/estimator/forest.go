package estimator

import "math/rand"

// Forest averages bagged regression trees. Zero values fall back to the
// defaults below.
type Forest struct {
	Trees       int
	MaxDepth    int // negative means unlimited
	MinLeaf     int
	MaxFeatures int
	Seed        int64
}

const (
	defaultTrees    = 400
	defaultMaxDepth = 10
	defaultMinLeaf  = 1
)

func (f *Forest) Name() string {
	return "forest"
}

type forestModel struct {
	fitted
	trees []*regressionTree
}

// Fit grows every tree on a bootstrap sample drawn from a seeded source, so the
// same table and seed always produce the same model.
func (f *Forest) Fit(t *Table, features []string, target string) (Model, error) {
	x, y, err := prepare(t, features, target, 2)
	if err != nil {
		return nil, err
	}

	trees := f.Trees
	if trees <= 0 {
		trees = defaultTrees
	}
	maxDepth := f.MaxDepth
	if maxDepth == 0 {
		maxDepth = defaultMaxDepth
	}
	minLeaf := f.MinLeaf
	if minLeaf <= 0 {
		minLeaf = defaultMinLeaf
	}

	rng := rand.New(rand.NewSource(f.Seed))
	builder := &treeBuilder{
		x:           x,
		y:           y,
		maxDepth:    maxDepth,
		minLeaf:     minLeaf,
		maxFeatures: f.MaxFeatures,
		rng:         rng,
	}

	n := len(y)
	sample := make([]int, n)
	model := &forestModel{
		fitted: fitted{features: append([]string(nil), features...), target: target},
		trees:  make([]*regressionTree, 0, trees),
	}
	for k := 0; k < trees; k++ {
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		model.trees = append(model.trees, builder.grow(sample))
	}
	return model, nil
}

func (m *forestModel) Predict(row FeatureRow) (float64, error) {
	v, err := row.vector(m.features)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, tree := range m.trees {
		sum += tree.predict(v)
	}
	return sum / float64(len(m.trees)), nil
}
