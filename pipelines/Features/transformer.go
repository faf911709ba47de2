package features

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
)

// RequiredFields must be present on every scoring request. All other
// fields fall back to training-set defaults when absent.
var RequiredFields = []string{"Age", "MonthlyIncome", "YearsAtCompany", "OverTime", "JobSatisfaction"}

// Transformer converts raw records into the numeric feature vectors the
// classifiers consume. Fit learns encoder vocabularies, per-column
// defaults, and scaling statistics from training data only. Transform and
// TransformRecord then replay those learned parameters unchanged.
type Transformer struct {
	Schema       dataset.Schema            `json:"schema"`
	CodeEncoders map[string]*CodeEncoder   `json:"code_encoders"`
	OneHot       map[string]*OneHotEncoder `json:"one_hot_encoders"`
	Scaler       *StandardScaler           `json:"scaler"`
	Defaults     map[string]string         `json:"defaults"`
	FeatureNames []string                  `json:"feature_names"`
	Fitted       bool                      `json:"fitted"`
}

// NewTransformer builds an unfitted transformer for the given schema.
func NewTransformer(schema dataset.Schema) *Transformer {
	return &Transformer{
		Schema:       schema,
		CodeEncoders: make(map[string]*CodeEncoder),
		OneHot:       make(map[string]*OneHotEncoder),
		Scaler:       &StandardScaler{},
		Defaults:     make(map[string]string),
	}
}

// encodedColumns lists the columns that go through encoding, in output
// order: schema features first, then the derived columns.
func (t *Transformer) encodedColumns() []dataset.Column {
	cols := t.Schema.FeatureColumns()
	cols = append(cols,
		dataset.Column{Name: ColWorkLifeIndex, Kind: dataset.KindNumeric, Role: dataset.RoleFeature},
		dataset.Column{Name: ColPromotionGap, Kind: dataset.KindNumeric, Role: dataset.RoleFeature},
		dataset.Column{Name: ColTenureBand, Kind: dataset.KindNominal, Role: dataset.RoleFeature},
	)
	return cols
}

// Fit learns vocabularies, defaults, and scaling statistics from the
// training dataset.
func (t *Transformer) Fit(train *dataset.Dataset) error {
	if train.Len() == 0 {
		return fmt.Errorf("cannot fit transformer on empty dataset")
	}

	extended := make([]dataset.Record, train.Len())
	for i, rec := range train.Records {
		ext, err := withDerived(rec)
		if err != nil {
			return fmt.Errorf("fitting transformer: %w", err)
		}
		extended[i] = ext
	}

	t.FeatureNames = nil
	for _, col := range t.encodedColumns() {
		switch col.Kind {
		case dataset.KindNumeric:
			t.FeatureNames = append(t.FeatureNames, col.Name)
			t.Defaults[col.Name] = medianOf(extended, col.Name)
		case dataset.KindBinary, dataset.KindOrdinal:
			t.CodeEncoders[col.Name] = &CodeEncoder{Column: col.Name, Levels: col.Levels}
			t.FeatureNames = append(t.FeatureNames, col.Name)
			t.Defaults[col.Name] = modeOf(extended, col.Name)
		case dataset.KindNominal:
			values := make([]string, len(extended))
			for i, rec := range extended {
				values[i] = rec[col.Name]
			}
			enc := FitOneHot(col.Name, values)
			t.OneHot[col.Name] = enc
			t.FeatureNames = append(t.FeatureNames, enc.ColumnNames()...)
			t.Defaults[col.Name] = modeOf(extended, col.Name)
		default:
			return fmt.Errorf("unsupported column kind %s for %s", col.Kind, col.Name)
		}
	}

	X := make([][]float64, len(extended))
	for i, rec := range extended {
		row, err := t.encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("encoding training row %d: %w", i, err)
		}
		X[i] = row
	}
	if err := t.Scaler.Fit(X); err != nil {
		return fmt.Errorf("fitting scaler: %w", err)
	}

	t.Fitted = true
	log.Info().
		Int("features", len(t.FeatureNames)).
		Int("records", train.Len()).
		Msg("Transformer fitted")
	return nil
}

// Transform encodes and scales every record in the dataset and extracts
// the label vector.
func (t *Transformer) Transform(ds *dataset.Dataset) (X [][]float64, y []int, err error) {
	if !t.Fitted {
		return nil, nil, fmt.Errorf("transformer not fitted")
	}
	X = make([][]float64, ds.Len())
	y = make([]int, ds.Len())
	for i, rec := range ds.Records {
		row, err := t.transformOne(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("transforming row %d: %w", i, err)
		}
		X[i] = row
		label, err := t.LabelIndex(rec[ds.Schema.Label])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		y[i] = label
	}
	return X, y, nil
}

// TransformRecord encodes and scales a single scoring request. Missing
// required fields are a schema mismatch; all other missing fields take
// their training-set defaults.
func (t *Transformer) TransformRecord(rec dataset.Record) ([]float64, error) {
	if !t.Fitted {
		return nil, fmt.Errorf("transformer not fitted")
	}
	for _, name := range RequiredFields {
		if v, ok := rec[name]; !ok || v == "" {
			return nil, fmt.Errorf("%w: missing required field %s", dataset.ErrSchemaMismatch, name)
		}
	}

	filled := rec.Clone()
	for _, col := range t.Schema.FeatureColumns() {
		if v, ok := filled[col.Name]; !ok || v == "" {
			filled[col.Name] = t.Defaults[col.Name]
		}
		if col.Kind == dataset.KindNumeric {
			if _, err := filled.Numeric(col.Name); err != nil {
				return nil, fmt.Errorf("%w: %v", dataset.ErrSchemaMismatch, err)
			}
		}
	}
	return t.transformOne(filled)
}

// LabelIndex maps a raw label value to its class index.
func (t *Transformer) LabelIndex(value string) (int, error) {
	col, err := t.Schema.Column(t.Schema.Label)
	if err != nil {
		return 0, err
	}
	for i, level := range col.Levels {
		if level == value {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown label value %q", value)
}

// LabelName maps a class index back to its raw label value.
func (t *Transformer) LabelName(class int) string {
	col, err := t.Schema.Column(t.Schema.Label)
	if err != nil || class < 0 || class >= len(col.Levels) {
		return strconv.Itoa(class)
	}
	return col.Levels[class]
}

func (t *Transformer) transformOne(rec dataset.Record) ([]float64, error) {
	ext, err := withDerived(rec)
	if err != nil {
		return nil, err
	}
	row, err := t.encodeRecord(ext)
	if err != nil {
		return nil, err
	}
	return t.Scaler.TransformRow(row)
}

// encodeRecord maps an extended record to an unscaled feature row.
func (t *Transformer) encodeRecord(rec dataset.Record) ([]float64, error) {
	row := make([]float64, 0, len(t.FeatureNames))
	for _, col := range t.encodedColumns() {
		value := rec[col.Name]
		switch col.Kind {
		case dataset.KindNumeric:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: non-numeric value %q", col.Name, value)
			}
			row = append(row, v)
		case dataset.KindBinary, dataset.KindOrdinal:
			row = append(row, t.CodeEncoders[col.Name].Encode(value))
		case dataset.KindNominal:
			row = append(row, t.OneHot[col.Name].Encode(value)...)
		}
	}
	return row, nil
}

func medianOf(records []dataset.Record, name string) string {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, err := rec.Numeric(name); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "0"
	}
	sort.Float64s(values)
	median := values[len(values)/2]
	if len(values)%2 == 0 {
		median = (values[len(values)/2-1] + values[len(values)/2]) / 2
	}
	return strconv.FormatFloat(median, 'g', -1, 64)
}

func modeOf(records []dataset.Record, name string) string {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec[name]]++
	}
	best, bestCount := "", -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
