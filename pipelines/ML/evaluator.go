package ml

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metric is a metric value that may be undefined, for example precision
// when the model never predicts the positive class. An undefined metric
// serializes as the string "undefined" instead of a misleading zero.
type Metric struct {
	Value   float64
	Defined bool
}

// DefinedMetric wraps a computed value.
func DefinedMetric(v float64) Metric { return Metric{Value: v, Defined: true} }

// MarshalJSON encodes the value, or "undefined" when there is none.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined {
		return json.Marshal("undefined")
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts either a number or the "undefined" marker.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*m = DefinedMetric(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s != "undefined" {
		return fmt.Errorf("invalid metric value: %s", string(data))
	}
	*m = Metric{}
	return nil
}

// ConfusionMatrix counts test outcomes at the decision threshold.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`
}

// Total returns the number of evaluated examples.
func (c ConfusionMatrix) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

// VariantReport holds the evaluation of one trained model variant.
type VariantReport struct {
	Algorithm string          `json:"algorithm"`
	Params    json.RawMessage `json:"params,omitempty"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
	Accuracy  Metric          `json:"accuracy"`
	Precision Metric          `json:"precision"`
	Recall    Metric          `json:"recall"`
	F1        Metric          `json:"f1"`
	ROCAUC    Metric          `json:"roc_auc"`
	// Cost is the per-example misclassification cost, weighting each
	// missed attrition case CostRatio times a false alarm.
	Cost float64 `json:"cost"`
	// TrainSeconds records wall-clock fit time for the refit on the full
	// training set.
	TrainSeconds float64 `json:"train_seconds"`
}

// Evaluator scores classifiers on held-out data.
type Evaluator struct {
	Threshold float64 // decision threshold on the positive probability
	CostRatio float64 // cost of a false negative relative to a false positive
}

// NewEvaluator returns an evaluator with a 0.5 threshold and a 5x false
// negative cost, reflecting that a missed departure costs far more than
// an unnecessary retention conversation.
func NewEvaluator() *Evaluator {
	return &Evaluator{Threshold: 0.5, CostRatio: 5}
}

// Evaluate scores a trained classifier on test data.
func (e *Evaluator) Evaluate(c Classifier, X [][]float64, y []int) (VariantReport, error) {
	if len(X) == 0 || len(X) != len(y) {
		return VariantReport{}, fmt.Errorf("invalid test set: %d rows, %d labels", len(X), len(y))
	}

	probs := make([]float64, len(X))
	for i, row := range X {
		p, err := c.PredictProba(row)
		if err != nil {
			return VariantReport{}, fmt.Errorf("scoring test row %d: %w", i, err)
		}
		probs[i] = p
	}

	var cm ConfusionMatrix
	for i, p := range probs {
		predicted := 0
		if p >= e.Threshold {
			predicted = 1
		}
		switch {
		case predicted == 1 && y[i] == 1:
			cm.TruePositives++
		case predicted == 1 && y[i] == 0:
			cm.FalsePositives++
		case predicted == 0 && y[i] == 0:
			cm.TrueNegatives++
		default:
			cm.FalseNegatives++
		}
	}

	report := VariantReport{
		Algorithm: c.Algorithm(),
		Confusion: cm,
		Accuracy:  DefinedMetric(float64(cm.TruePositives+cm.TrueNegatives) / float64(cm.Total())),
		Precision: ratioMetric(cm.TruePositives, cm.TruePositives+cm.FalsePositives),
		Recall:    ratioMetric(cm.TruePositives, cm.TruePositives+cm.FalseNegatives),
		ROCAUC:    rocAUC(probs, y),
		Cost:      (e.CostRatio*float64(cm.FalseNegatives) + float64(cm.FalsePositives)) / float64(cm.Total()),
	}
	report.F1 = f1Metric(report.Precision, report.Recall)
	return report, nil
}

// ratioMetric returns num/den, undefined when the denominator is zero.
func ratioMetric(num, den int) Metric {
	if den == 0 {
		return Metric{}
	}
	return DefinedMetric(float64(num) / float64(den))
}

func f1Metric(precision, recall Metric) Metric {
	if !precision.Defined || !recall.Defined {
		return Metric{}
	}
	if precision.Value+recall.Value == 0 {
		return Metric{}
	}
	return DefinedMetric(2 * precision.Value * recall.Value / (precision.Value + recall.Value))
}

// rocAUC computes the area under the ROC curve. Undefined when the test
// labels contain a single class.
func rocAUC(probs []float64, y []int) Metric {
	positives := 0
	for _, label := range y {
		positives += label
	}
	if positives == 0 || positives == len(y) {
		return Metric{}
	}

	scores := append([]float64(nil), probs...)
	classes := make([]bool, len(y))
	for i, label := range y {
		classes[i] = label == 1
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return DefinedMetric(integrate.Trapezoidal(fpr, tpr))
}

// RankReports orders reports best first: highest ROC-AUC wins, ties fall
// to the lowest cost. Reports with undefined AUC rank last.
func RankReports(reports []VariantReport) []VariantReport {
	ranked := append([]VariantReport(nil), reports...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.ROCAUC.Defined != b.ROCAUC.Defined {
			return a.ROCAUC.Defined
		}
		if a.ROCAUC.Defined && a.ROCAUC.Value != b.ROCAUC.Value {
			return a.ROCAUC.Value > b.ROCAUC.Value
		}
		return a.Cost < b.Cost
	})
	return ranked
}
