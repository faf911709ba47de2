package features

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes feature columns to zero mean and unit
// variance. Statistics are estimated once from training data and reused
// verbatim on every later transform, so test rows and live scoring rows
// see exactly the parameters the model was trained against.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit estimates per-column mean and standard deviation from the rows of X.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit scaler on empty matrix")
	}
	width := len(X[0])
	s.Mean = make([]float64, width)
	s.Std = make([]float64, width)

	column := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			if len(row) != width {
				return fmt.Errorf("ragged matrix: row %d has %d columns, expected %d", i, len(row), width)
			}
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		s.Mean[j] = mean
		if std == 0 || len(X) < 2 {
			// Constant column. Leave values centered but unscaled.
			std = 1
		}
		s.Std[j] = std
	}
	return nil
}

// Transform standardizes each row in place and returns the matrix.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	for i, row := range X {
		if _, err := s.TransformRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return X, nil
}

// TransformRow standardizes one row in place.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, fmt.Errorf("scaler not fitted")
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("row has %d columns, scaler fitted on %d", len(row), len(s.Mean))
	}
	for j := range row {
		row[j] = (row[j] - s.Mean[j]) / s.Std[j]
	}
	return row, nil
}
