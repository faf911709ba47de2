package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hr.csv")
	require.NoError(t, os.WriteFile(path, []byte(syntheticCSV(50, 42)), 0644))

	ds, err := LoadCSV(path, HRSchema())
	require.NoError(t, err)
	assert.Equal(t, 50, ds.Len())
	assert.Equal(t, "Attrition", ds.Schema.Label)

	counts := ds.ClassCounts()
	assert.Equal(t, 10, counts["Yes"])
	assert.Equal(t, 40, counts["No"])
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), HRSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestReadCSVMissingColumn(t *testing.T) {
	schema := HRSchema()
	body := syntheticCSV(5, 1)
	lines := strings.SplitN(body, "\n", 2)
	header := strings.Replace(lines[0], "MonthlyIncome", "Salary", 1)

	_, err := ReadCSV(strings.NewReader(header+"\n"+lines[1]), schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "MonthlyIncome")
}

func TestReadCSVNonNumericValue(t *testing.T) {
	schema := HRSchema()
	body := syntheticCSV(3, 7)
	bad := strings.Replace(body, "\n22", "\nunknown", 1)
	if bad == body {
		// First data row did not start with age 22; corrupt the Age column
		// by rewriting the first field of the second line instead.
		lines := strings.Split(body, "\n")
		fields := strings.Split(lines[1], ",")
		fields[0] = "unknown"
		lines[1] = strings.Join(fields, ",")
		bad = strings.Join(lines, "\n")
	}

	_, err := ReadCSV(strings.NewReader(bad), schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestReadCSVEmptyBody(t *testing.T) {
	schema := HRSchema()
	header := strings.Join(schema.ColumnNames(), ",")
	_, err := ReadCSV(strings.NewReader(header+"\n"), schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
