package features

import (
	"fmt"
	"strconv"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
)

// Derived column names appended after the schema features.
const (
	ColWorkLifeIndex = "WorkLifeIndex"
	ColPromotionGap  = "PromotionGap"
	ColTenureBand    = "TenureBand"
)

// Tenure band levels, ordered by tenure length.
const (
	TenureShort  = "short"  // under 3 years
	TenureMedium = "medium" // 3 to 7 years
	TenureLong   = "long"   // over 7 years
)

// TenureBandLevels lists the band vocabulary in a fixed order.
var TenureBandLevels = []string{TenureShort, TenureMedium, TenureLong}

// WorkLifeIndex blends the four satisfaction-style survey scores into a
// single value, weighting WorkLifeBalance double.
func WorkLifeIndex(rec dataset.Record) (float64, error) {
	wlb, err := rec.Numeric("WorkLifeBalance")
	if err != nil {
		return 0, fmt.Errorf("work-life index: %w", err)
	}
	job, err := rec.Numeric("JobSatisfaction")
	if err != nil {
		return 0, fmt.Errorf("work-life index: %w", err)
	}
	env, err := rec.Numeric("EnvironmentSatisfaction")
	if err != nil {
		return 0, fmt.Errorf("work-life index: %w", err)
	}
	rel, err := rec.Numeric("RelationshipSatisfaction")
	if err != nil {
		return 0, fmt.Errorf("work-life index: %w", err)
	}
	return (2*wlb + job + env + rel) / 5, nil
}

// PromotionGap measures time since the last promotion relative to tenure.
// The +1 in the denominator keeps first-year employees finite.
func PromotionGap(rec dataset.Record) (float64, error) {
	since, err := rec.Numeric("YearsSinceLastPromotion")
	if err != nil {
		return 0, fmt.Errorf("promotion gap: %w", err)
	}
	tenure, err := rec.Numeric("YearsAtCompany")
	if err != nil {
		return 0, fmt.Errorf("promotion gap: %w", err)
	}
	return since / (tenure + 1), nil
}

// TenureBand buckets YearsAtCompany into short, medium, and long bands.
func TenureBand(rec dataset.Record) (string, error) {
	tenure, err := rec.Numeric("YearsAtCompany")
	if err != nil {
		return "", fmt.Errorf("tenure band: %w", err)
	}
	switch {
	case tenure < 3:
		return TenureShort, nil
	case tenure <= 7:
		return TenureMedium, nil
	default:
		return TenureLong, nil
	}
}

// withDerived returns a copy of the record extended with the derived
// columns. The input record is never modified.
func withDerived(rec dataset.Record) (dataset.Record, error) {
	wli, err := WorkLifeIndex(rec)
	if err != nil {
		return nil, err
	}
	gap, err := PromotionGap(rec)
	if err != nil {
		return nil, err
	}
	band, err := TenureBand(rec)
	if err != nil {
		return nil, err
	}

	out := rec.Clone()
	out[ColWorkLifeIndex] = strconv.FormatFloat(wli, 'g', -1, 64)
	out[ColPromotionGap] = strconv.FormatFloat(gap, 'g', -1, 64)
	out[ColTenureBand] = band
	return out, nil
}
