package ml

import (
	"fmt"
	"math"
	"sort"
)

// Stump is a one-split weak learner used by AdaBoost. It votes +1 when
// the feature exceeds the threshold (or the reverse when Inverted).
type Stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Inverted  bool    `json:"inverted"`
	Alpha     float64 `json:"alpha"`
}

func (s *Stump) vote(x []float64) float64 {
	above := x[s.Feature] > s.Threshold
	if s.Inverted {
		above = !above
	}
	if above {
		return 1
	}
	return -1
}

// AdaBoostClassifier boosts decision stumps with the classic discrete
// reweighting scheme. The signed vote margin maps to a probability
// through a logistic link.
type AdaBoostClassifier struct {
	NumRounds int      `json:"num_rounds"`
	Stumps    []*Stump `json:"stumps,omitempty"`
}

// NewAdaBoost returns a model with common defaults.
func NewAdaBoost() *AdaBoostClassifier {
	return &AdaBoostClassifier{NumRounds: 50}
}

func (a *AdaBoostClassifier) Algorithm() string { return AlgoAdaBoost }

// Fit trains the stump ensemble on X and binary labels y.
func (a *AdaBoostClassifier) Fit(X [][]float64, y []int) error {
	if err := validateTrainingInput(X, y); err != nil {
		return fmt.Errorf("adaboost: %w", err)
	}
	if a.NumRounds <= 0 {
		a.NumRounds = 50
	}

	n := len(X)
	signed := make([]float64, n)
	for i, label := range y {
		signed[i] = 2*float64(label) - 1
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}

	a.Stumps = make([]*Stump, 0, a.NumRounds)
	for round := 0; round < a.NumRounds; round++ {
		stump, weightedErr := bestStump(X, signed, weights)
		if stump == nil {
			break
		}
		// A weak learner no better than chance stops the boosting run.
		if weightedErr >= 0.5 {
			break
		}
		if weightedErr < 1e-10 {
			weightedErr = 1e-10
		}
		stump.Alpha = 0.5 * math.Log((1-weightedErr)/weightedErr)
		a.Stumps = append(a.Stumps, stump)

		var total float64
		for i, row := range X {
			weights[i] *= math.Exp(-stump.Alpha * signed[i] * stump.vote(row))
			total += weights[i]
		}
		for i := range weights {
			weights[i] /= total
		}
	}

	if len(a.Stumps) == 0 {
		return fmt.Errorf("adaboost: no usable weak learner found")
	}
	return nil
}

// PredictProba returns the probability of the positive class.
func (a *AdaBoostClassifier) PredictProba(x []float64) (float64, error) {
	if len(a.Stumps) == 0 {
		return 0, fmt.Errorf("adaboost not trained")
	}
	var margin float64
	for _, stump := range a.Stumps {
		if stump.Feature >= len(x) {
			return 0, fmt.Errorf("expected at least %d features, got %d", stump.Feature+1, len(x))
		}
		margin += stump.Alpha * stump.vote(x)
	}
	return sigmoid(2 * margin), nil
}

// bestStump scans every feature and midpoint threshold for the stump with
// the lowest weighted error under the current example weights.
func bestStump(X [][]float64, signed, weights []float64) (*Stump, float64) {
	var best *Stump
	bestErr := math.Inf(1)

	for j := 0; j < len(X[0]); j++ {
		values := make([]float64, len(X))
		for i, row := range X {
			values[i] = row[j]
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		for k := 1; k < len(sorted); k++ {
			if sorted[k] == sorted[k-1] {
				continue
			}
			mid := (sorted[k] + sorted[k-1]) / 2
			var errAbove float64
			for i := range X {
				predicted := -1.0
				if values[i] > mid {
					predicted = 1
				}
				if predicted != signed[i] {
					errAbove += weights[i]
				}
			}
			for _, inverted := range []bool{false, true} {
				e := errAbove
				if inverted {
					e = 1 - errAbove
				}
				if e < bestErr {
					bestErr = e
					best = &Stump{Feature: j, Threshold: mid, Inverted: inverted}
				}
			}
		}
	}
	return best, bestErr
}
