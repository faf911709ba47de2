package ml

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Candidate produces a fresh untrained classifier with one hyperparameter
// combination. Grid search calls it once per fold and once for the final
// refit so no fitted state leaks between fits.
type Candidate func() Classifier

// Trainer runs hyperparameter search and final evaluation for every
// model variant.
type Trainer struct {
	Seed      int64
	Folds     int
	Evaluator *Evaluator
	// Grids overrides DefaultGrids when set.
	Grids map[string][]Candidate
}

// NewTrainer returns a trainer with 5-fold cross-validation.
func NewTrainer(seed int64) *Trainer {
	return &Trainer{Seed: seed, Folds: 5, Evaluator: NewEvaluator()}
}

// DefaultGrids returns the hyperparameter grid for every variant.
// Forest seeds derive from the trainer seed so runs reproduce exactly.
func (t *Trainer) DefaultGrids() map[string][]Candidate {
	grids := map[string][]Candidate{
		AlgoLogistic:         {},
		AlgoDecisionTree:     {},
		AlgoRandomForest:     {},
		AlgoGradientBoosting: {},
		AlgoAdaBoost:         {},
	}
	for _, lr := range []float64{0.05, 0.1, 0.3} {
		lr := lr
		grids[AlgoLogistic] = append(grids[AlgoLogistic], func() Classifier {
			m := NewLogisticRegression()
			m.LearningRate = lr
			return m
		})
	}
	for _, depth := range []int{4, 6, 8} {
		depth := depth
		grids[AlgoDecisionTree] = append(grids[AlgoDecisionTree], func() Classifier {
			m := NewDecisionTree()
			m.MaxDepth = depth
			return m
		})
	}
	for _, trees := range []int{50, 100} {
		for _, depth := range []int{6, 10} {
			trees, depth := trees, depth
			grids[AlgoRandomForest] = append(grids[AlgoRandomForest], func() Classifier {
				m := NewRandomForest(t.Seed)
				m.NumTrees = trees
				m.MaxDepth = depth
				return m
			})
		}
	}
	for _, lr := range []float64{0.05, 0.1} {
		for _, stages := range []int{50, 100} {
			lr, stages := lr, stages
			grids[AlgoGradientBoosting] = append(grids[AlgoGradientBoosting], func() Classifier {
				m := NewGradientBoosting()
				m.LearningRate = lr
				m.NumStages = stages
				return m
			})
		}
	}
	for _, rounds := range []int{25, 50} {
		rounds := rounds
		grids[AlgoAdaBoost] = append(grids[AlgoAdaBoost], func() Classifier {
			m := NewAdaBoost()
			m.NumRounds = rounds
			return m
		})
	}
	return grids
}

// TrainResult pairs a fitted model with its held-out evaluation.
type TrainResult struct {
	Model  Classifier
	Report VariantReport
}

// TrainVariants grid-searches every variant on the training set, refits
// the winning hyperparameters, and evaluates each refit model on the
// test set. Results come back keyed by algorithm.
func (t *Trainer) TrainVariants(trainX [][]float64, trainY []int, testX [][]float64, testY []int) (map[string]TrainResult, error) {
	if err := validateTrainingInput(trainX, trainY); err != nil {
		return nil, fmt.Errorf("training set: %w", err)
	}

	grids := t.Grids
	if grids == nil {
		grids = t.DefaultGrids()
	}

	results := make(map[string]TrainResult)
	for algorithm, grid := range grids {
		best, err := t.selectCandidate(grid, trainX, trainY)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", algorithm, err)
		}

		model := best()
		params, err := json.Marshal(model)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding params: %w", algorithm, err)
		}

		start := time.Now()
		if err := model.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("%s: final fit: %w", algorithm, err)
		}
		elapsed := time.Since(start).Seconds()

		report, err := t.Evaluator.Evaluate(model, testX, testY)
		if err != nil {
			return nil, fmt.Errorf("%s: evaluation: %w", algorithm, err)
		}
		report.Params = params
		report.TrainSeconds = elapsed

		log.Info().
			Str("algorithm", algorithm).
			Float64("roc_auc", report.ROCAUC.Value).
			Float64("cost", report.Cost).
			Dur("fit", time.Since(start)).
			Msg("Variant trained")
		results[algorithm] = TrainResult{Model: model, Report: report}
	}
	return results, nil
}

// Best returns the winning result: highest ROC-AUC, ties broken by the
// lower misclassification cost.
func Best(results map[string]TrainResult) (TrainResult, error) {
	if len(results) == 0 {
		return TrainResult{}, fmt.Errorf("no trained variants")
	}
	reports := make([]VariantReport, 0, len(results))
	for _, r := range results {
		reports = append(reports, r.Report)
	}
	winner := RankReports(reports)[0]
	return results[winner.Algorithm], nil
}

// selectCandidate cross-validates every candidate and returns the one
// with the highest mean fold ROC-AUC.
func (t *Trainer) selectCandidate(grid []Candidate, X [][]float64, y []int) (Candidate, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("empty hyperparameter grid")
	}
	if len(grid) == 1 {
		return grid[0], nil
	}

	folds := t.stratifiedFolds(y)
	best := grid[0]
	bestScore := -1.0
	for _, candidate := range grid {
		score, err := t.crossValidate(candidate, X, y, folds)
		if err != nil {
			return nil, err
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best, nil
}

// crossValidate returns the mean validation ROC-AUC over the folds.
// Folds whose validation slice holds a single class are skipped.
func (t *Trainer) crossValidate(candidate Candidate, X [][]float64, y []int, folds [][]int) (float64, error) {
	var sum float64
	var counted int
	for f, holdout := range folds {
		inFold := make(map[int]bool, len(holdout))
		for _, i := range holdout {
			inFold[i] = true
		}

		var trainX, valX [][]float64
		var trainY, valY []int
		for i := range X {
			if inFold[i] {
				valX = append(valX, X[i])
				valY = append(valY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}

		model := candidate()
		if err := model.Fit(trainX, trainY); err != nil {
			return 0, fmt.Errorf("fold %d: %w", f, err)
		}

		probs := make([]float64, len(valX))
		for i, row := range valX {
			p, err := model.PredictProba(row)
			if err != nil {
				return 0, fmt.Errorf("fold %d: %w", f, err)
			}
			probs[i] = p
		}
		if auc := rocAUC(probs, valY); auc.Defined {
			sum += auc.Value
			counted++
		}
	}
	if counted == 0 {
		return 0, fmt.Errorf("no fold produced a defined validation score")
	}
	return sum / float64(counted), nil
}

// stratifiedFolds deals indices of each class round-robin into folds so
// every fold keeps the class balance of the whole training set.
func (t *Trainer) stratifiedFolds(y []int) [][]int {
	nFolds := t.Folds
	if nFolds < 2 {
		nFolds = 2
	}

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(t.Seed))
	folds := make([][]int, nFolds)
	for _, label := range []int{0, 1} {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for k, idx := range indices {
			folds[k%nFolds] = append(folds[k%nFolds], idx)
		}
	}
	return folds
}
