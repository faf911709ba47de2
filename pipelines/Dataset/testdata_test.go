package dataset

import (
	"fmt"
	"math/rand"
	"strings"
)

// syntheticCSV builds a valid CSV body with n rows over the HR schema.
// Roughly one row in five is labeled "Yes" so both classes always appear
// for n >= 5.
func syntheticCSV(n int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	schema := HRSchema()

	var sb strings.Builder
	sb.WriteString(strings.Join(schema.ColumnNames(), ","))
	sb.WriteString("\n")

	departments := []string{"Sales", "Research & Development", "Human Resources"}
	fields := []string{"Life Sciences", "Medical", "Marketing", "Technical Degree"}
	roles := []string{"Sales Executive", "Research Scientist", "Laboratory Technician", "Manager"}
	marital := []string{"Single", "Married", "Divorced"}
	travel := []string{"Non-Travel", "Travel_Rarely", "Travel_Frequently"}

	for i := 0; i < n; i++ {
		rec := syntheticRecord(rng, i, departments, fields, roles, marital, travel)
		row := make([]string, len(schema.Columns))
		for j, col := range schema.Columns {
			row[j] = rec[col.Name]
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

func syntheticRecord(rng *rand.Rand, i int, departments, fields, roles, marital, travel []string) Record {
	label := "No"
	if i%5 == 0 {
		label = "Yes"
	}
	gender := "Female"
	if rng.Intn(2) == 1 {
		gender = "Male"
	}
	overtime := "No"
	if label == "Yes" && rng.Intn(3) > 0 {
		overtime = "Yes"
	} else if rng.Intn(4) == 0 {
		overtime = "Yes"
	}
	years := rng.Intn(20)
	return Record{
		"Age":                      fmt.Sprintf("%d", 22+rng.Intn(35)),
		"Attrition":                label,
		"BusinessTravel":           travel[rng.Intn(len(travel))],
		"DailyRate":                fmt.Sprintf("%d", 200+rng.Intn(1200)),
		"Department":               departments[rng.Intn(len(departments))],
		"DistanceFromHome":         fmt.Sprintf("%d", 1+rng.Intn(29)),
		"Education":                fmt.Sprintf("%d", 1+rng.Intn(5)),
		"EducationField":           fields[rng.Intn(len(fields))],
		"EmployeeCount":            "1",
		"EmployeeNumber":           fmt.Sprintf("%d", 1000+i),
		"EnvironmentSatisfaction":  fmt.Sprintf("%d", 1+rng.Intn(4)),
		"Gender":                   gender,
		"HourlyRate":               fmt.Sprintf("%d", 30+rng.Intn(70)),
		"JobInvolvement":           fmt.Sprintf("%d", 1+rng.Intn(4)),
		"JobLevel":                 fmt.Sprintf("%d", 1+rng.Intn(5)),
		"JobRole":                  roles[rng.Intn(len(roles))],
		"JobSatisfaction":          fmt.Sprintf("%d", 1+rng.Intn(4)),
		"MaritalStatus":            marital[rng.Intn(len(marital))],
		"MonthlyIncome":            fmt.Sprintf("%d", 2000+rng.Intn(15000)),
		"MonthlyRate":              fmt.Sprintf("%d", 3000+rng.Intn(20000)),
		"NumCompaniesWorked":       fmt.Sprintf("%d", rng.Intn(9)),
		"Over18":                   "Y",
		"OverTime":                 overtime,
		"PercentSalaryHike":        fmt.Sprintf("%d", 11+rng.Intn(14)),
		"PerformanceRating":        fmt.Sprintf("%d", 3+rng.Intn(2)),
		"RelationshipSatisfaction": fmt.Sprintf("%d", 1+rng.Intn(4)),
		"StandardHours":            "80",
		"StockOptionLevel":         fmt.Sprintf("%d", rng.Intn(4)),
		"TotalWorkingYears":        fmt.Sprintf("%d", years+rng.Intn(10)),
		"TrainingTimesLastYear":    fmt.Sprintf("%d", rng.Intn(7)),
		"WorkLifeBalance":          fmt.Sprintf("%d", 1+rng.Intn(4)),
		"YearsAtCompany":           fmt.Sprintf("%d", years),
		"YearsInCurrentRole":       fmt.Sprintf("%d", rng.Intn(years+1)),
		"YearsSinceLastPromotion":  fmt.Sprintf("%d", rng.Intn(years+1)),
		"YearsWithCurrManager":     fmt.Sprintf("%d", rng.Intn(years+1)),
	}
}
