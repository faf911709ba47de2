package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ErrDataUnavailable reports that the data source could not be opened or read.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrSchemaMismatch reports input that does not conform to the expected schema.
var ErrSchemaMismatch = errors.New("schema mismatch")

// LoadCSV reads a headered CSV file into a Dataset conforming to the schema.
// The header must contain every schema column; extra columns are rejected.
// Numeric columns are parsed per row and invalid values fail the load.
func LoadCSV(path string, schema Schema) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrDataUnavailable, path, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, schema)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("records", ds.Len()).
		Int("columns", len(schema.Columns)).
		Msg("Dataset loaded")
	return ds, nil
}

// ReadCSV parses CSV content from a reader into a Dataset.
func ReadCSV(r io.Reader, schema Schema) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrDataUnavailable, err)
	}

	colIndex, err := mapHeader(header, schema)
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]ColumnKind, len(schema.Columns))
	for _, col := range schema.Columns {
		kinds[col.Name] = col.Kind
	}

	ds := &Dataset{Schema: schema}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row %d: %v", ErrDataUnavailable, line+1, err)
		}
		line++
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, expected %d", ErrSchemaMismatch, line, len(row), len(header))
		}

		rec := make(Record, len(schema.Columns))
		for name, idx := range colIndex {
			value := row[idx]
			if kinds[name] == KindNumeric {
				if _, err := strconv.ParseFloat(value, 64); err != nil {
					return nil, fmt.Errorf("%w: row %d column %s: non-numeric value %q", ErrSchemaMismatch, line, name, value)
				}
			}
			rec[name] = value
		}
		ds.Records = append(ds.Records, rec)
	}

	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrDataUnavailable)
	}
	return ds, nil
}

func mapHeader(header []string, schema Schema) (map[string]int, error) {
	position := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := position[name]; dup {
			return nil, fmt.Errorf("%w: duplicate header column %s", ErrSchemaMismatch, name)
		}
		position[name] = i
	}

	colIndex := make(map[string]int, len(schema.Columns))
	for _, col := range schema.Columns {
		idx, ok := position[col.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrSchemaMismatch, col.Name)
		}
		colIndex[col.Name] = idx
	}

	if len(header) != len(schema.Columns) {
		for name := range position {
			if _, known := colIndex[name]; !known {
				return nil, fmt.Errorf("%w: unexpected column %s", ErrSchemaMismatch, name)
			}
		}
	}
	return colIndex, nil
}
