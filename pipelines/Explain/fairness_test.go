package explain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
	features "github.com/Mimir-AIP/Attrition-Go/pipelines/Features"
)

// constantModel always predicts the same probability.
type constantModel struct{ p float64 }

func (m *constantModel) Fit(X [][]float64, y []int) error          { return nil }
func (m *constantModel) PredictProba(x []float64) (float64, error) { return m.p, nil }
func (m *constantModel) Algorithm() string                         { return "constant" }

func auditRecord(i int, gender, attrition string) dataset.Record {
	return dataset.Record{
		"Age": fmt.Sprintf("%d", 25+i%30), "Attrition": attrition,
		"BusinessTravel": "Travel_Rarely", "DailyRate": "800",
		"Department": "Sales", "DistanceFromHome": "5", "Education": "3",
		"EducationField": "Marketing", "EmployeeCount": "1",
		"EmployeeNumber": fmt.Sprintf("%d", i), "EnvironmentSatisfaction": "3",
		"Gender": gender, "HourlyRate": "60", "JobInvolvement": "3",
		"JobLevel": "2", "JobRole": "Sales Executive", "JobSatisfaction": "3",
		"MaritalStatus": "Married", "MonthlyIncome": "5000", "MonthlyRate": "12000",
		"NumCompaniesWorked": "2", "Over18": "Y", "OverTime": "No",
		"PercentSalaryHike": "13", "PerformanceRating": "3",
		"RelationshipSatisfaction": "3", "StandardHours": "80",
		"StockOptionLevel": "1", "TotalWorkingYears": "10",
		"TrainingTimesLastYear": "2", "WorkLifeBalance": "3",
		"YearsAtCompany": "5", "YearsInCurrentRole": "3",
		"YearsSinceLastPromotion": "1", "YearsWithCurrManager": "3",
	}
}

func auditSetup(t *testing.T, records []dataset.Record) (*features.Transformer, *dataset.Dataset) {
	t.Helper()
	ds := &dataset.Dataset{Schema: dataset.HRSchema(), Records: records}
	tr := features.NewTransformer(ds.Schema)
	require.NoError(t, tr.Fit(ds))
	return tr, ds
}

func TestAuditBalancedGroupsWithinTolerance(t *testing.T) {
	var records []dataset.Record
	for i := 0; i < 40; i++ {
		gender := "Female"
		if i%2 == 0 {
			gender = "Male"
		}
		label := "No"
		// Attrition lands on i%8 in {0, 1}, one even and one odd index,
		// so both genders carry the same number of positives.
		if i%8 < 2 {
			label = "Yes"
		}
		records = append(records, auditRecord(i, gender, label))
	}
	tr, ds := auditSetup(t, records)

	auditor := NewAuditor(&constantModel{p: 0}, tr, 0.5)
	reports, err := auditor.Audit(ds)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	var gender *FairnessReport
	for i := range reports {
		if reports[i].Attribute == "Gender" {
			gender = &reports[i]
		}
	}
	require.NotNil(t, gender)
	require.Len(t, gender.Groups, 2)
	assert.Equal(t, 0.0, gender.PositiveRateSpread)
	// Every "Yes" row is an error for the always-No model; both genders
	// carry the same share of them.
	assert.InDelta(t, 0.0, gender.ErrorRateSpread, 0.06)
	assert.True(t, gender.WithinTolerance)
}

func TestAuditFlagsSkewedErrors(t *testing.T) {
	var records []dataset.Record
	for i := 0; i < 40; i++ {
		gender := "Female"
		label := "No"
		if i%2 == 0 {
			gender = "Male"
			if i%4 == 0 {
				// Attrition concentrated in one group only.
				label = "Yes"
			}
		}
		records = append(records, auditRecord(i, gender, label))
	}
	tr, ds := auditSetup(t, records)

	auditor := NewAuditor(&constantModel{p: 0}, tr, 0.5)
	reports, err := auditor.Audit(ds)
	require.NoError(t, err)

	for _, report := range reports {
		if report.Attribute == "Gender" {
			assert.InDelta(t, 0.5, report.ErrorRateSpread, 1e-9)
			assert.False(t, report.WithinTolerance)
		}
	}
}

func TestAuditEmptyDataset(t *testing.T) {
	tr, _ := auditSetup(t, []dataset.Record{auditRecord(0, "Female", "No")})
	auditor := NewAuditor(&constantModel{p: 0}, tr, 0.5)
	_, err := auditor.Audit(&dataset.Dataset{Schema: dataset.HRSchema()})
	assert.Error(t, err)
}

func TestAgeBand(t *testing.T) {
	cases := map[string]string{"22": "under 30", "30": "30 to 45", "45": "30 to 45", "46": "over 45"}
	for age, want := range cases {
		rec := auditRecord(0, "Female", "No")
		rec["Age"] = age
		band, err := ageBand(rec)
		require.NoError(t, err)
		assert.Equal(t, want, band, "age=%s", age)
	}
}
