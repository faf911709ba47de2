package explain

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
	features "github.com/Mimir-AIP/Attrition-Go/pipelines/Features"
	ml "github.com/Mimir-AIP/Attrition-Go/pipelines/ML"
)

// GroupMetrics summarizes model behavior for one subgroup.
type GroupMetrics struct {
	Group        string  `json:"group"`
	Count        int     `json:"count"`
	PositiveRate float64 `json:"positive_rate"`
	ErrorRate    float64 `json:"error_rate"`
}

// FairnessReport compares subgroups along one attribute. Spreads are the
// max minus min of the per-group rates; a spread over the tolerance
// flags the attribute.
type FairnessReport struct {
	Attribute          string         `json:"attribute"`
	Groups             []GroupMetrics `json:"groups"`
	PositiveRateSpread float64        `json:"positive_rate_spread"`
	ErrorRateSpread    float64        `json:"error_rate_spread"`
	WithinTolerance    bool           `json:"within_tolerance"`
}

// Auditor checks prediction parity across sensitive groupings.
type Auditor struct {
	Model       ml.Classifier
	Transformer *features.Transformer
	Threshold   float64
	// Tolerance is the largest acceptable rate spread between groups.
	Tolerance float64
}

// NewAuditor returns an auditor with a 0.10 rate-spread tolerance.
func NewAuditor(model ml.Classifier, transformer *features.Transformer, threshold float64) *Auditor {
	return &Auditor{Model: model, Transformer: transformer, Threshold: threshold, Tolerance: 0.10}
}

// ageBand buckets employees for the audit.
func ageBand(rec dataset.Record) (string, error) {
	age, err := rec.Numeric("Age")
	if err != nil {
		return "", err
	}
	switch {
	case age < 30:
		return "under 30", nil
	case age <= 45:
		return "30 to 45", nil
	default:
		return "over 45", nil
	}
}

// Audit evaluates the model on the given records and reports group rate
// spreads for gender, age band, and department.
func (a *Auditor) Audit(ds *dataset.Dataset) ([]FairnessReport, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("cannot audit empty dataset")
	}

	groupers := []struct {
		attribute string
		group     func(dataset.Record) (string, error)
	}{
		{"Gender", func(rec dataset.Record) (string, error) { return rec["Gender"], nil }},
		{"AgeBand", ageBand},
		{"Department", func(rec dataset.Record) (string, error) { return rec["Department"], nil }},
	}

	type outcome struct {
		predicted int
		actual    int
	}
	outcomes := make([]outcome, ds.Len())
	for i, rec := range ds.Records {
		row, err := a.Transformer.TransformRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		predicted, err := ml.Predict(a.Model, row, a.Threshold)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		actual, err := a.Transformer.LabelIndex(rec[ds.Schema.Label])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		outcomes[i] = outcome{predicted: predicted, actual: actual}
	}

	var reports []FairnessReport
	for _, g := range groupers {
		positives := make(map[string]int)
		errors := make(map[string]int)
		counts := make(map[string]int)
		for i, rec := range ds.Records {
			group, err := g.group(rec)
			if err != nil {
				return nil, fmt.Errorf("grouping by %s: %w", g.attribute, err)
			}
			counts[group]++
			positives[group] += outcomes[i].predicted
			if outcomes[i].predicted != outcomes[i].actual {
				errors[group]++
			}
		}

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		report := FairnessReport{Attribute: g.attribute}
		for _, name := range names {
			report.Groups = append(report.Groups, GroupMetrics{
				Group:        name,
				Count:        counts[name],
				PositiveRate: float64(positives[name]) / float64(counts[name]),
				ErrorRate:    float64(errors[name]) / float64(counts[name]),
			})
		}
		report.PositiveRateSpread = spread(report.Groups, func(m GroupMetrics) float64 { return m.PositiveRate })
		report.ErrorRateSpread = spread(report.Groups, func(m GroupMetrics) float64 { return m.ErrorRate })
		report.WithinTolerance = report.PositiveRateSpread <= a.Tolerance && report.ErrorRateSpread <= a.Tolerance

		if !report.WithinTolerance {
			log.Warn().
				Str("attribute", g.attribute).
				Float64("positive_rate_spread", report.PositiveRateSpread).
				Float64("error_rate_spread", report.ErrorRateSpread).
				Float64("tolerance", a.Tolerance).
				Msg("Fairness tolerance exceeded")
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func spread(groups []GroupMetrics, value func(GroupMetrics) float64) float64 {
	if len(groups) == 0 {
		return 0
	}
	min, max := value(groups[0]), value(groups[0])
	for _, g := range groups[1:] {
		v := value(g)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}
