// Package ml implements the attrition classifiers, training, and
// evaluation. All models consume pre-encoded feature matrices and expose
// a calibrated-ish probability for the positive (attrition) class.
package ml

import (
	"encoding/json"
	"fmt"
)

// Algorithm identifiers, used in reports and persisted artifacts.
const (
	AlgoLogistic         = "logistic_regression"
	AlgoDecisionTree     = "decision_tree"
	AlgoRandomForest     = "random_forest"
	AlgoGradientBoosting = "gradient_boosting"
	AlgoAdaBoost         = "adaboost"
)

// Classifier is a binary classifier over dense feature rows. Labels are
// 0 for the negative class and 1 for the positive class.
type Classifier interface {
	// Fit trains the model. Calling Fit again retrains from scratch.
	Fit(X [][]float64, y []int) error
	// PredictProba returns the probability of the positive class.
	PredictProba(x []float64) (float64, error)
	// Algorithm returns the model's algorithm identifier.
	Algorithm() string
}

// Predict applies a decision threshold to the model's probability.
func Predict(c Classifier, x []float64, threshold float64) (int, error) {
	p, err := c.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p >= threshold {
		return 1, nil
	}
	return 0, nil
}

// NewClassifier constructs an untrained classifier from an algorithm
// identifier and its JSON-encoded parameters. Used when restoring
// persisted models.
func NewClassifier(algorithm string, params json.RawMessage) (Classifier, error) {
	var c Classifier
	switch algorithm {
	case AlgoLogistic:
		c = &LogisticRegression{}
	case AlgoDecisionTree:
		c = &DecisionTreeClassifier{}
	case AlgoRandomForest:
		c = &RandomForestClassifier{}
	case AlgoGradientBoosting:
		c = &GradientBoostingClassifier{}
	case AlgoAdaBoost:
		c = &AdaBoostClassifier{}
	default:
		return nil, fmt.Errorf("unknown algorithm: %s", algorithm)
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, c); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", algorithm, err)
		}
	}
	return c, nil
}

func validateTrainingInput(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows and labels disagree: %d vs %d", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("ragged matrix: row %d has %d columns, expected %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("label %d at row %d is not binary", label, i)
		}
	}
	return nil
}
