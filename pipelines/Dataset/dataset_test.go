package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSynthetic(t *testing.T, n int, seed int64) *Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(syntheticCSV(n, seed)), HRSchema())
	require.NoError(t, err)
	return ds
}

func TestHRSchemaValidates(t *testing.T) {
	schema := HRSchema()
	require.NoError(t, schema.Validate())
	assert.Len(t, schema.Columns, 35)
	assert.Len(t, schema.FeatureColumns(), 30)

	for _, name := range []string{"EmployeeCount", "EmployeeNumber", "Over18", "StandardHours"} {
		col, err := schema.Column(name)
		require.NoError(t, err)
		assert.Equal(t, RoleDropped, col.Role, name)
	}
}

func TestStratifiedSplitPreservesDistribution(t *testing.T) {
	ds := loadSynthetic(t, 200, 11)

	train, test, err := ds.StratifiedSplit(0.25, 42)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), train.Len()+test.Len())

	total := ds.ClassCounts()
	testCounts := test.ClassCounts()
	for label, n := range total {
		want := float64(n) / float64(ds.Len())
		got := float64(testCounts[label]) / float64(test.Len())
		assert.InDelta(t, want, got, 0.05, "class %s share", label)
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	ds := loadSynthetic(t, 100, 3)

	train1, test1, err := ds.StratifiedSplit(0.2, 7)
	require.NoError(t, err)
	train2, test2, err := ds.StratifiedSplit(0.2, 7)
	require.NoError(t, err)

	assert.Equal(t, train1.Records, train2.Records)
	assert.Equal(t, test1.Records, test2.Records)
}

func TestStratifiedSplitRejectsBadFraction(t *testing.T) {
	ds := loadSynthetic(t, 20, 5)
	for _, frac := range []float64{0, 1, -0.3, 1.5} {
		_, _, err := ds.StratifiedSplit(frac, 1)
		assert.Error(t, err)
	}
}

func TestRecordNumeric(t *testing.T) {
	rec := Record{"Age": "41", "Department": "Sales"}

	v, err := rec.Numeric("Age")
	require.NoError(t, err)
	assert.Equal(t, 41.0, v)

	_, err = rec.Numeric("Department")
	assert.Error(t, err)

	_, err = rec.Numeric("Missing")
	assert.Error(t, err)
}
