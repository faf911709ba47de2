// Package explain produces per-feature attributions and group fairness
// audits for trained attrition models.
package explain

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	ml "github.com/Mimir-AIP/Attrition-Go/pipelines/ML"
)

// Attribution is one feature's contribution to a prediction. Positive
// values push the prediction toward attrition.
type Attribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Explainer estimates Shapley values by Monte Carlo sampling over random
// feature orderings, with a background sample standing in for absent
// features. The same seed always yields the same attributions.
type Explainer struct {
	Model        ml.Classifier
	Background   [][]float64
	FeatureNames []string
	Samples      int
	Seed         int64
}

// NewExplainer builds an explainer with 100 permutation samples.
func NewExplainer(model ml.Classifier, background [][]float64, featureNames []string, seed int64) (*Explainer, error) {
	if model == nil {
		return nil, fmt.Errorf("explainer needs a trained model")
	}
	if len(background) == 0 {
		return nil, fmt.Errorf("explainer needs a background sample")
	}
	for i, row := range background {
		if len(row) != len(featureNames) {
			return nil, fmt.Errorf("background row %d has %d features, expected %d", i, len(row), len(featureNames))
		}
	}
	return &Explainer{
		Model:        model,
		Background:   background,
		FeatureNames: featureNames,
		Samples:      100,
		Seed:         seed,
	}, nil
}

// Explain returns one attribution per feature for the given row. The
// attributions plus the background base rate reconstruct the model's
// output up to sampling noise.
func (e *Explainer) Explain(x []float64) ([]Attribution, error) {
	if len(x) != len(e.FeatureNames) {
		return nil, fmt.Errorf("row has %d features, expected %d", len(x), len(e.FeatureNames))
	}
	if e.Samples <= 0 {
		e.Samples = 100
	}

	rng := rand.New(rand.NewSource(e.Seed))
	width := len(x)
	sums := make([]float64, width)

	hybrid := make([]float64, width)
	for s := 0; s < e.Samples; s++ {
		z := e.Background[rng.Intn(len(e.Background))]
		order := rng.Perm(width)

		// Walk the ordering, switching one feature at a time from the
		// background value to the explained row's value. The change in
		// model output is that feature's marginal contribution.
		copy(hybrid, z)
		prev, err := e.Model.PredictProba(hybrid)
		if err != nil {
			return nil, fmt.Errorf("scoring hybrid row: %w", err)
		}
		for _, j := range order {
			hybrid[j] = x[j]
			next, err := e.Model.PredictProba(hybrid)
			if err != nil {
				return nil, fmt.Errorf("scoring hybrid row: %w", err)
			}
			sums[j] += next - prev
			prev = next
		}
	}

	attributions := make([]Attribution, width)
	for j := range sums {
		attributions[j] = Attribution{
			Feature: e.FeatureNames[j],
			Value:   sums[j] / float64(e.Samples),
		}
	}
	return attributions, nil
}

// BaseRate returns the mean model output over the background sample.
func (e *Explainer) BaseRate() (float64, error) {
	var sum float64
	for i, row := range e.Background {
		p, err := e.Model.PredictProba(row)
		if err != nil {
			return 0, fmt.Errorf("scoring background row %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(len(e.Background)), nil
}

// TopK returns the k attributions with the largest absolute value,
// strongest first.
func TopK(attributions []Attribution, k int) []Attribution {
	sorted := append([]Attribution(nil), attributions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Value) > math.Abs(sorted[j].Value)
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}
