package ml

import (
	"fmt"
	"math"
	"sort"
)

// regNode is one node of a regression tree fitted to boosting residuals.
type regNode struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      *regNode `json:"left,omitempty"`
	Right     *regNode `json:"right,omitempty"`
	Value     float64  `json:"value"`
	IsLeaf    bool     `json:"is_leaf"`
}

func (n *regNode) predict(x []float64) float64 {
	for !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// GradientBoostingClassifier fits shallow regression trees to the
// gradient of the log loss, one stage at a time. Leaf values take a
// single Newton step, the standard move for binomial deviance.
type GradientBoostingClassifier struct {
	NumStages    int     `json:"num_stages"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`

	BasePrediction float64    `json:"base_prediction"`
	Stages         []*regNode `json:"stages,omitempty"`
}

// NewGradientBoosting returns a model with common defaults.
func NewGradientBoosting() *GradientBoostingClassifier {
	return &GradientBoostingClassifier{NumStages: 100, LearningRate: 0.1, MaxDepth: 3}
}

func (g *GradientBoostingClassifier) Algorithm() string { return AlgoGradientBoosting }

// Fit trains the stage ensemble on X and binary labels y.
func (g *GradientBoostingClassifier) Fit(X [][]float64, y []int) error {
	if err := validateTrainingInput(X, y); err != nil {
		return fmt.Errorf("gradient boosting: %w", err)
	}
	if g.NumStages <= 0 {
		g.NumStages = 100
	}
	if g.LearningRate <= 0 {
		g.LearningRate = 0.1
	}
	if g.MaxDepth <= 0 {
		g.MaxDepth = 3
	}

	positives := 0
	for _, label := range y {
		positives += label
	}
	// Log odds of the base rate, clamped away from degenerate classes.
	p := math.Min(math.Max(float64(positives)/float64(len(y)), 1e-6), 1-1e-6)
	g.BasePrediction = math.Log(p / (1 - p))

	score := make([]float64, len(y))
	for i := range score {
		score[i] = g.BasePrediction
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}

	g.Stages = make([]*regNode, 0, g.NumStages)
	residual := make([]float64, len(y))
	hessian := make([]float64, len(y))
	for stage := 0; stage < g.NumStages; stage++ {
		for i := range y {
			prob := sigmoid(score[i])
			residual[i] = float64(y[i]) - prob
			hessian[i] = prob * (1 - prob)
		}

		tree := growRegTree(X, residual, hessian, indices, g.MaxDepth)
		g.Stages = append(g.Stages, tree)
		for i, row := range X {
			score[i] += g.LearningRate * tree.predict(row)
		}
	}
	return nil
}

// PredictProba returns the probability of the positive class.
func (g *GradientBoostingClassifier) PredictProba(x []float64) (float64, error) {
	if len(g.Stages) == 0 {
		return 0, fmt.Errorf("gradient boosting not trained")
	}
	score := g.BasePrediction
	for _, stage := range g.Stages {
		score += g.LearningRate * stage.predict(x)
	}
	return sigmoid(score), nil
}

// growRegTree fits a depth-limited regression tree to the residuals.
// Leaf values are the Newton step sum(residual)/sum(hessian).
func growRegTree(X [][]float64, residual, hessian []float64, indices []int, depth int) *regNode {
	node := &regNode{IsLeaf: true, Value: newtonLeaf(residual, hessian, indices)}
	if depth <= 0 || len(indices) < 4 {
		return node
	}

	feature, threshold, ok := bestRegSplit(X, residual, indices)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.IsLeaf = false
	node.Feature = feature
	node.Threshold = threshold
	node.Left = growRegTree(X, residual, hessian, left, depth-1)
	node.Right = growRegTree(X, residual, hessian, right, depth-1)
	return node
}

func newtonLeaf(residual, hessian []float64, indices []int) float64 {
	var num, den float64
	for _, i := range indices {
		num += residual[i]
		den += hessian[i]
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

// bestRegSplit minimizes the residual sum of squares of the children.
func bestRegSplit(X [][]float64, residual []float64, indices []int) (feature int, threshold float64, ok bool) {
	bestSSE := sseOf(residual, indices)
	values := make([]float64, len(indices))

	for j := 0; j < len(X[0]); j++ {
		for k, i := range indices {
			values[k] = X[i][j]
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		for k := 1; k < len(sorted); k++ {
			if sorted[k] == sorted[k-1] {
				continue
			}
			mid := (sorted[k] + sorted[k-1]) / 2
			sse := splitSSE(X, residual, indices, j, mid)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				feature = j
				threshold = mid
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func splitSSE(X [][]float64, residual []float64, indices []int, feature int, threshold float64) float64 {
	var leftSum, rightSum float64
	var leftN, rightN int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			leftSum += residual[i]
			leftN++
		} else {
			rightSum += residual[i]
			rightN++
		}
	}
	if leftN == 0 || rightN == 0 {
		return math.Inf(1)
	}
	leftMean := leftSum / float64(leftN)
	rightMean := rightSum / float64(rightN)

	var sse float64
	for _, i := range indices {
		if X[i][feature] <= threshold {
			d := residual[i] - leftMean
			sse += d * d
		} else {
			d := residual[i] - rightMean
			sse += d * d
		}
	}
	return sse
}

func sseOf(residual []float64, indices []int) float64 {
	var sum float64
	for _, i := range indices {
		sum += residual[i]
	}
	mean := sum / float64(len(indices))
	var sse float64
	for _, i := range indices {
		d := residual[i] - mean
		sse += d * d
	}
	return sse
}
