package dataset

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
)

// Record is one row of raw data keyed by column name. Values stay as the
// strings read from the source until the feature stage encodes them.
type Record map[string]string

// Dataset is an ordered collection of records conforming to a Schema.
type Dataset struct {
	Schema  Schema   `json:"schema"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Labels returns the raw label value of every record.
func (d *Dataset) Labels() []string {
	labels := make([]string, len(d.Records))
	for i, rec := range d.Records {
		labels[i] = rec[d.Schema.Label]
	}
	return labels
}

// ClassCounts returns how many records carry each label value.
func (d *Dataset) ClassCounts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range d.Records {
		counts[rec[d.Schema.Label]]++
	}
	return counts
}

// Numeric parses a record's column as a float.
func (r Record) Numeric(name string) (float64, error) {
	raw, ok := r[name]
	if !ok {
		return 0, fmt.Errorf("record missing column %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s is not numeric: %q", name, raw)
	}
	return v, nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Select returns a new dataset containing the records at the given indices.
func (d *Dataset) Select(indices []int) *Dataset {
	records := make([]Record, len(indices))
	for i, idx := range indices {
		records[i] = d.Records[idx]
	}
	return &Dataset{Schema: d.Schema, Records: records}
}

// StratifiedSplit partitions the dataset into train and test subsets,
// preserving the label distribution of the whole set in each part.
// testFraction is the share of records assigned to the test subset.
// The same seed always produces the same partition.
func (d *Dataset) StratifiedSplit(testFraction float64, seed int64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}
	if d.Len() == 0 {
		return nil, nil, fmt.Errorf("cannot split empty dataset")
	}

	byClass := make(map[string][]int)
	for i, rec := range d.Records {
		label := rec[d.Schema.Label]
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]string, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, label := range classes {
		indices := byClass[label]
		shuffled := make([]int, len(indices))
		copy(shuffled, indices)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		nTest := int(float64(len(shuffled)) * testFraction)
		if nTest == 0 && len(shuffled) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, shuffled[:nTest]...)
		trainIdx = append(trainIdx, shuffled[nTest:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return d.Select(trainIdx), d.Select(testIdx), nil
}
