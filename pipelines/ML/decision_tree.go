package ml

import (
	"fmt"
	"sort"
)

// TreeNode is one node of a fitted decision tree. Internal nodes route on
// Feature <= Threshold; leaves carry the training-set positive fraction.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Proba     float64   `json:"proba"`
	Samples   int       `json:"samples"`
	IsLeaf    bool      `json:"is_leaf"`
}

// DecisionTreeClassifier is a CART-style binary tree split on gini
// impurity with midpoint thresholds between adjacent sorted values.
type DecisionTreeClassifier struct {
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	Root            *TreeNode `json:"root,omitempty"`

	// featureSubset restricts candidate split features when the tree
	// grows inside a forest. Nil means all features are candidates.
	featureSubset []int
}

// NewDecisionTree returns a tree with common defaults.
func NewDecisionTree() *DecisionTreeClassifier {
	return &DecisionTreeClassifier{MaxDepth: 6, MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

func (t *DecisionTreeClassifier) Algorithm() string { return AlgoDecisionTree }

// Fit grows the tree on X and binary labels y.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	if err := validateTrainingInput(X, y); err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}
	if t.MaxDepth <= 0 {
		t.MaxDepth = 6
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.Root = t.grow(X, y, indices, 0)
	return nil
}

// PredictProba walks the tree and returns the leaf's positive fraction.
func (t *DecisionTreeClassifier) PredictProba(x []float64) (float64, error) {
	if t.Root == nil {
		return 0, fmt.Errorf("decision tree not trained")
	}
	node := t.Root
	for !node.IsLeaf {
		if node.Feature >= len(x) {
			return 0, fmt.Errorf("expected at least %d features, got %d", node.Feature+1, len(x))
		}
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Proba, nil
}

func (t *DecisionTreeClassifier) grow(X [][]float64, y []int, indices []int, depth int) *TreeNode {
	positives := 0
	for _, i := range indices {
		positives += y[i]
	}
	node := &TreeNode{
		Proba:   float64(positives) / float64(len(indices)),
		Samples: len(indices),
		IsLeaf:  true,
	}

	if depth >= t.MaxDepth || len(indices) < t.MinSamplesSplit || positives == 0 || positives == len(indices) {
		return node
	}

	feature, threshold, ok := t.bestSplit(X, y, indices)
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
	if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
		return node
	}

	node.IsLeaf = false
	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.grow(X, y, left, depth+1)
	node.Right = t.grow(X, y, right, depth+1)
	return node
}

// bestSplit scans candidate features for the threshold minimizing the
// weighted gini impurity of the two children.
func (t *DecisionTreeClassifier) bestSplit(X [][]float64, y []int, indices []int) (feature int, threshold float64, ok bool) {
	features := t.featureSubset
	if features == nil {
		features = make([]int, len(X[0]))
		for j := range features {
			features[j] = j
		}
	}

	bestGini := giniOf(y, indices)
	if bestGini == 0 {
		return 0, 0, false
	}

	values := make([]float64, len(indices))
	for _, j := range features {
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
			gini := t.splitGini(X, y, indices, j, mid)
			if gini < bestGini {
				bestGini = gini
				feature = j
				threshold = mid
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (t *DecisionTreeClassifier) splitGini(X [][]float64, y []int, indices []int, feature int, threshold float64) float64 {
	var leftN, leftPos, rightN, rightPos int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			leftN++
			leftPos += y[i]
		} else {
			rightN++
			rightPos += y[i]
		}
	}
	if leftN == 0 || rightN == 0 {
		return 1
	}
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftPos, leftN) + float64(rightN)/total*gini(rightPos, rightN)
}

func gini(positives, n int) float64 {
	p := float64(positives) / float64(n)
	return 2 * p * (1 - p)
}

func giniOf(y []int, indices []int) float64 {
	positives := 0
	for _, i := range indices {
		positives += y[i]
	}
	return gini(positives, len(indices))
}
