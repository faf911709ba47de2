package ml

import (
	"fmt"
	"math"
)

// LogisticRegression is a binary logistic model trained by full-batch
// gradient descent with L2 regularization. Weights start at zero so the
// fitted parameters are a pure function of the data and hyperparameters.
type LogisticRegression struct {
	LearningRate float64   `json:"learning_rate"`
	Epochs       int       `json:"epochs"`
	L2           float64   `json:"l2"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	Trained      bool      `json:"trained"`
}

// NewLogisticRegression returns a model with common defaults.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Epochs: 300, L2: 0.01}
}

func (m *LogisticRegression) Algorithm() string { return AlgoLogistic }

// Fit trains the model on X and binary labels y.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if err := validateTrainingInput(X, y); err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	if m.LearningRate <= 0 {
		m.LearningRate = 0.1
	}
	if m.Epochs <= 0 {
		m.Epochs = 300
	}

	n := float64(len(X))
	width := len(X[0])
	m.Weights = make([]float64, width)
	m.Bias = 0

	grad := make([]float64, width)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		biasGrad := 0.0
		for i, row := range X {
			p := sigmoid(m.decision(row))
			err := p - float64(y[i])
			for j, v := range row {
				grad[j] += err * v
			}
			biasGrad += err
		}
		for j := range m.Weights {
			m.Weights[j] -= m.LearningRate * (grad[j]/n + m.L2*m.Weights[j])
		}
		m.Bias -= m.LearningRate * biasGrad / n
	}

	m.Trained = true
	return nil
}

// PredictProba returns the probability of the positive class.
func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if !m.Trained {
		return 0, fmt.Errorf("logistic regression not trained")
	}
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Weights), len(x))
	}
	return sigmoid(m.decision(x)), nil
}

func (m *LogisticRegression) decision(x []float64) float64 {
	z := m.Bias
	for j, w := range m.Weights {
		z += w * x[j]
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
