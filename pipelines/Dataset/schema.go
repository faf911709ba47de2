package dataset

import "fmt"

// ColumnKind describes how a column's values are interpreted.
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindBinary  ColumnKind = "binary"  // two-level categorical, encoded as a single code
	KindOrdinal ColumnKind = "ordinal" // ordered categorical, encoded as a single code
	KindNominal ColumnKind = "nominal" // unordered categorical, one-hot encoded
)

// ColumnRole describes how a column participates in training.
type ColumnRole string

const (
	RoleFeature ColumnRole = "feature"
	RoleLabel   ColumnRole = "label"
	RoleDropped ColumnRole = "dropped" // validated at load time, excluded from features
)

// Column declares one column of the fixed input schema.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
	Role ColumnRole `json:"role"`
	// Levels fixes the category order for ordinal columns. Empty for
	// numeric/nominal columns; nominal vocabularies are learned at fit time.
	Levels []string `json:"levels,omitempty"`
}

// Schema is the ordered column declaration a Dataset must conform to.
type Schema struct {
	Columns []Column `json:"columns"`
	Label   string   `json:"label"`
}

// HRSchema returns the 35-column employee attrition schema.
// Constant columns and the row identifier are kept for load-time validation
// but dropped from the feature set.
func HRSchema() Schema {
	cols := []Column{
		{Name: "Age", Kind: KindNumeric, Role: RoleFeature},
		{Name: "Attrition", Kind: KindBinary, Role: RoleLabel, Levels: []string{"No", "Yes"}},
		{Name: "BusinessTravel", Kind: KindOrdinal, Role: RoleFeature, Levels: []string{"Non-Travel", "Travel_Rarely", "Travel_Frequently"}},
		{Name: "DailyRate", Kind: KindNumeric, Role: RoleFeature},
		{Name: "Department", Kind: KindNominal, Role: RoleFeature},
		{Name: "DistanceFromHome", Kind: KindNumeric, Role: RoleFeature},
		{Name: "Education", Kind: KindNumeric, Role: RoleFeature},
		{Name: "EducationField", Kind: KindNominal, Role: RoleFeature},
		{Name: "EmployeeCount", Kind: KindNumeric, Role: RoleDropped},
		{Name: "EmployeeNumber", Kind: KindNumeric, Role: RoleDropped},
		{Name: "EnvironmentSatisfaction", Kind: KindNumeric, Role: RoleFeature},
		{Name: "Gender", Kind: KindBinary, Role: RoleFeature, Levels: []string{"Female", "Male"}},
		{Name: "HourlyRate", Kind: KindNumeric, Role: RoleFeature},
		{Name: "JobInvolvement", Kind: KindNumeric, Role: RoleFeature},
		{Name: "JobLevel", Kind: KindNumeric, Role: RoleFeature},
		{Name: "JobRole", Kind: KindNominal, Role: RoleFeature},
		{Name: "JobSatisfaction", Kind: KindNumeric, Role: RoleFeature},
		{Name: "MaritalStatus", Kind: KindNominal, Role: RoleFeature},
		{Name: "MonthlyIncome", Kind: KindNumeric, Role: RoleFeature},
		{Name: "MonthlyRate", Kind: KindNumeric, Role: RoleFeature},
		{Name: "NumCompaniesWorked", Kind: KindNumeric, Role: RoleFeature},
		{Name: "Over18", Kind: KindBinary, Role: RoleDropped, Levels: []string{"Y"}},
		{Name: "OverTime", Kind: KindBinary, Role: RoleFeature, Levels: []string{"No", "Yes"}},
		{Name: "PercentSalaryHike", Kind: KindNumeric, Role: RoleFeature},
		{Name: "PerformanceRating", Kind: KindNumeric, Role: RoleFeature},
		{Name: "RelationshipSatisfaction", Kind: KindNumeric, Role: RoleFeature},
		{Name: "StandardHours", Kind: KindNumeric, Role: RoleDropped},
		{Name: "StockOptionLevel", Kind: KindNumeric, Role: RoleFeature},
		{Name: "TotalWorkingYears", Kind: KindNumeric, Role: RoleFeature},
		{Name: "TrainingTimesLastYear", Kind: KindNumeric, Role: RoleFeature},
		{Name: "WorkLifeBalance", Kind: KindNumeric, Role: RoleFeature},
		{Name: "YearsAtCompany", Kind: KindNumeric, Role: RoleFeature},
		{Name: "YearsInCurrentRole", Kind: KindNumeric, Role: RoleFeature},
		{Name: "YearsSinceLastPromotion", Kind: KindNumeric, Role: RoleFeature},
		{Name: "YearsWithCurrManager", Kind: KindNumeric, Role: RoleFeature},
	}
	return Schema{Columns: cols, Label: "Attrition"}
}

// Column returns the declaration for a named column.
func (s Schema) Column(name string) (Column, error) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, nil
		}
	}
	return Column{}, fmt.Errorf("column not found in schema: %s", name)
}

// FeatureColumns returns the columns with RoleFeature, in schema order.
func (s Schema) FeatureColumns() []Column {
	var features []Column
	for _, col := range s.Columns {
		if col.Role == RoleFeature {
			features = append(features, col)
		}
	}
	return features
}

// ColumnNames returns all column names in schema order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// Validate checks internal consistency of the schema declaration.
func (s Schema) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("schema has no label column")
	}
	seen := make(map[string]bool, len(s.Columns))
	labelFound := false
	for _, col := range s.Columns {
		if seen[col.Name] {
			return fmt.Errorf("duplicate column in schema: %s", col.Name)
		}
		seen[col.Name] = true
		if col.Name == s.Label {
			if col.Role != RoleLabel {
				return fmt.Errorf("label column %s does not have label role", col.Name)
			}
			labelFound = true
		}
	}
	if !labelFound {
		return fmt.Errorf("label column %s not declared in schema", s.Label)
	}
	return nil
}
