package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// RandomForestClassifier averages the probabilities of bootstrap-trained
// decision trees, each split on a random sqrt-sized feature subset. Tree
// seeds derive from the forest seed, so the same seed always grows the
// same forest regardless of scheduling.
type RandomForestClassifier struct {
	NumTrees       int   `json:"num_trees"`
	MaxDepth       int   `json:"max_depth"`
	MinSamplesLeaf int   `json:"min_samples_leaf"`
	Seed           int64 `json:"seed"`

	Trees []*DecisionTreeClassifier `json:"trees,omitempty"`
}

// NewRandomForest returns a forest with common defaults.
func NewRandomForest(seed int64) *RandomForestClassifier {
	return &RandomForestClassifier{NumTrees: 100, MaxDepth: 8, MinSamplesLeaf: 1, Seed: seed}
}

func (f *RandomForestClassifier) Algorithm() string { return AlgoRandomForest }

// Fit grows all trees. Trees train in parallel; every tree's bootstrap
// sample and feature subset come from its own derived seed.
func (f *RandomForestClassifier) Fit(X [][]float64, y []int) error {
	if err := validateTrainingInput(X, y); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	if f.NumTrees <= 0 {
		f.NumTrees = 100
	}
	if f.MaxDepth <= 0 {
		f.MaxDepth = 8
	}

	nFeatures := len(X[0])
	subsetSize := int(math.Sqrt(float64(nFeatures)))
	if subsetSize < 1 {
		subsetSize = 1
	}

	f.Trees = make([]*DecisionTreeClassifier, f.NumTrees)
	errs := make([]error, f.NumTrees)

	var wg sync.WaitGroup
	for i := 0; i < f.NumTrees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.Seed + int64(i)*7919))

			sampleX := make([][]float64, len(X))
			sampleY := make([]int, len(y))
			for k := range sampleX {
				idx := rng.Intn(len(X))
				sampleX[k] = X[idx]
				sampleY[k] = y[idx]
			}

			tree := &DecisionTreeClassifier{
				MaxDepth:        f.MaxDepth,
				MinSamplesSplit: 2,
				MinSamplesLeaf:  f.MinSamplesLeaf,
				featureSubset:   sampleFeatures(rng, nFeatures, subsetSize),
			}
			if err := tree.Fit(sampleX, sampleY); err != nil {
				errs[i] = fmt.Errorf("tree %d: %w", i, err)
				return
			}
			f.Trees[i] = tree
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("random forest: %w", err)
		}
	}
	return nil
}

// PredictProba averages the leaf probabilities over all trees.
func (f *RandomForestClassifier) PredictProba(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("random forest not trained")
	}
	sum := 0.0
	for i, tree := range f.Trees {
		p, err := tree.PredictProba(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(len(f.Trees)), nil
}

// sampleFeatures draws size distinct feature indices.
func sampleFeatures(rng *rand.Rand, nFeatures, size int) []int {
	perm := rng.Perm(nFeatures)
	subset := make([]int, size)
	copy(subset, perm[:size])
	return subset
}
