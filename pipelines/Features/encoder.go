package features

import (
	"fmt"
	"sort"
)

// CodeEncoder maps an ordered category set onto integer codes. It covers
// binary and ordinal columns whose level order is fixed by the schema.
// Values outside the level set encode as -1 rather than failing, so a
// single odd value cannot take down a whole scoring request.
type CodeEncoder struct {
	Column string   `json:"column"`
	Levels []string `json:"levels"`
}

// Encode returns the code for a value, or -1 for an unseen value.
func (e *CodeEncoder) Encode(value string) float64 {
	for i, level := range e.Levels {
		if level == value {
			return float64(i)
		}
	}
	return -1
}

// OneHotEncoder expands an unordered category column into one indicator
// column per vocabulary term. The vocabulary is learned at fit time and
// sorted so the output column order is stable across runs.
type OneHotEncoder struct {
	Column     string   `json:"column"`
	Vocabulary []string `json:"vocabulary"`
}

// FitOneHot learns a sorted vocabulary from the observed values.
func FitOneHot(column string, values []string) *OneHotEncoder {
	seen := make(map[string]bool)
	for _, v := range values {
		seen[v] = true
	}
	vocab := make([]string, 0, len(seen))
	for v := range seen {
		vocab = append(vocab, v)
	}
	sort.Strings(vocab)
	return &OneHotEncoder{Column: column, Vocabulary: vocab}
}

// Encode returns one indicator per vocabulary term. An unseen value
// yields all zeros.
func (e *OneHotEncoder) Encode(value string) []float64 {
	out := make([]float64, len(e.Vocabulary))
	for i, term := range e.Vocabulary {
		if term == value {
			out[i] = 1
			break
		}
	}
	return out
}

// ColumnNames returns the output column name for each vocabulary term.
func (e *OneHotEncoder) ColumnNames() []string {
	names := make([]string, len(e.Vocabulary))
	for i, term := range e.Vocabulary {
		names[i] = fmt.Sprintf("%s_%s", e.Column, term)
	}
	return names
}
