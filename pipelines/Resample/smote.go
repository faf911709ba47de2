// Package resample rebalances skewed training sets before model fitting.
package resample

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// SMOTE oversamples the minority class with synthetic points interpolated
// between real minority examples and their nearest minority neighbors.
// Only training data may pass through here; test rows stay untouched.
type SMOTE struct {
	K           int     // nearest neighbors considered per synthetic point
	TargetRatio float64 // desired minority to majority size ratio
	Seed        int64
}

// NewSMOTE returns a resampler targeting full balance with k=5 neighbors.
func NewSMOTE(seed int64) *SMOTE {
	return &SMOTE{K: 5, TargetRatio: 1.0, Seed: seed}
}

// Resample returns the input rows plus synthetic minority rows so the
// class ratio reaches the target. Original rows are never removed and
// keep their positions. With a single minority example the interpolation
// degenerates to duplication.
func (s *SMOTE) Resample(X [][]float64, y []int) ([][]float64, []int, error) {
	if len(X) != len(y) {
		return nil, nil, fmt.Errorf("feature rows and labels disagree: %d vs %d", len(X), len(y))
	}
	if len(X) == 0 {
		return nil, nil, fmt.Errorf("cannot resample empty training set")
	}
	if s.TargetRatio <= 0 || s.TargetRatio > 1 {
		return nil, nil, fmt.Errorf("target ratio must be in (0, 1], got %v", s.TargetRatio)
	}

	minority, counts := minorityClass(y)
	majorityCount := len(y) - counts[minority]
	if counts[minority] == majorityCount {
		return X, y, nil
	}

	want := int(math.Round(s.TargetRatio * float64(majorityCount)))
	need := want - counts[minority]
	if need <= 0 {
		return X, y, nil
	}

	var minorityRows [][]float64
	for i, label := range y {
		if label == minority {
			minorityRows = append(minorityRows, X[i])
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	outX := make([][]float64, len(X), len(X)+need)
	copy(outX, X)
	outY := make([]int, len(y), len(y)+need)
	copy(outY, y)

	for i := 0; i < need; i++ {
		base := minorityRows[rng.Intn(len(minorityRows))]
		outX = append(outX, s.synthesize(rng, base, minorityRows))
		outY = append(outY, minority)
	}

	log.Info().
		Int("class", minority).
		Int("before", counts[minority]).
		Int("after", counts[minority]+need).
		Int("majority", majorityCount).
		Msg("Minority class oversampled")
	return outX, outY, nil
}

// synthesize builds one synthetic row between base and one of its k
// nearest minority neighbors.
func (s *SMOTE) synthesize(rng *rand.Rand, base []float64, minorityRows [][]float64) []float64 {
	neighbor := s.pickNeighbor(rng, base, minorityRows)
	t := rng.Float64()
	out := make([]float64, len(base))
	for j := range base {
		out[j] = base[j] + t*(neighbor[j]-base[j])
	}
	return out
}

func (s *SMOTE) pickNeighbor(rng *rand.Rand, base []float64, minorityRows [][]float64) []float64 {
	type candidate struct {
		idx  int
		dist float64
	}
	candidates := make([]candidate, 0, len(minorityRows))
	for i, row := range minorityRows {
		if &row[0] == &base[0] {
			continue
		}
		candidates = append(candidates, candidate{idx: i, dist: floats.Distance(base, row, 2)})
	}
	if len(candidates) == 0 {
		// Lone minority example: duplicate it.
		return base
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].idx < candidates[j].idx
	})
	k := s.K
	if k > len(candidates) {
		k = len(candidates)
	}
	return minorityRows[candidates[rng.Intn(k)].idx]
}

// minorityClass returns the least frequent label and the full count map.
// Ties resolve to the lower label value.
func minorityClass(y []int) (int, map[int]int) {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	labels := make([]int, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	minority := labels[0]
	for _, label := range labels {
		if counts[label] < counts[minority] {
			minority = label
		}
	}
	return minority, counts
}
