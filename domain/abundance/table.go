package abundance

import (
	"fmt"
	"math"
	"sort"

	"gostudy/domain/core"
)

// Entry is one non-zero count in a sample column
type Entry struct {
	Feature int
	Count   float64
}

// Triplet addresses a count by feature and sample position
type Triplet struct {
	Feature int
	Sample  int
	Count   float64
}

// Table is an immutable sparse feature x sample count matrix.
// Columns are stored as feature-ordered entry lists.
type Table struct {
	features []string
	samples  []string
	columns  [][]Entry
	index    map[string]int
}

// NewTable builds a table from triplets. Duplicate coordinates are summed;
// zero counts are not stored.
func NewTable(featureIDs, sampleIDs []string, data []Triplet) (*Table, error) {
	t := &Table{
		features: append([]string(nil), featureIDs...),
		samples:  append([]string(nil), sampleIDs...),
		columns:  make([][]Entry, len(sampleIDs)),
		index:    make(map[string]int, len(sampleIDs)),
	}
	for i, id := range sampleIDs {
		if _, dup := t.index[id]; dup {
			return nil, core.NewInvalidTableError(fmt.Sprintf("duplicate sample id %q", id))
		}
		t.index[id] = i
	}

	cells := make([]map[int]float64, len(sampleIDs))
	for _, d := range data {
		if d.Feature < 0 || d.Feature >= len(featureIDs) || d.Sample < 0 || d.Sample >= len(sampleIDs) {
			return nil, core.NewInvalidTableError(fmt.Sprintf("cell (%d,%d) outside %dx%d", d.Feature, d.Sample, len(featureIDs), len(sampleIDs)))
		}
		if d.Count < 0 || math.IsNaN(d.Count) || math.IsInf(d.Count, 0) {
			return nil, core.NewInvalidTableError(fmt.Sprintf("count at (%d,%d) must be a non-negative number", d.Feature, d.Sample))
		}
		if cells[d.Sample] == nil {
			cells[d.Sample] = make(map[int]float64)
		}
		cells[d.Sample][d.Feature] += d.Count
	}

	for s, col := range cells {
		t.columns[s] = compact(col)
	}
	return t, nil
}

// NewDenseTable builds a table from rows of counts (rows = features)
func NewDenseTable(featureIDs, sampleIDs []string, counts [][]float64) (*Table, error) {
	if len(counts) != len(featureIDs) {
		return nil, core.NewInvalidTableError(fmt.Sprintf("%d count rows for %d features", len(counts), len(featureIDs)))
	}
	var data []Triplet
	for f, row := range counts {
		if len(row) != len(sampleIDs) {
			return nil, core.NewInvalidTableError(fmt.Sprintf("feature %q has %d counts for %d samples", featureIDs[f], len(row), len(sampleIDs)))
		}
		for s, c := range row {
			if c != 0 {
				data = append(data, Triplet{Feature: f, Sample: s, Count: c})
			}
		}
	}
	return NewTable(featureIDs, sampleIDs, data)
}

func compact(col map[int]float64) []Entry {
	entries := make([]Entry, 0, len(col))
	for f, c := range col {
		if c > 0 {
			entries = append(entries, Entry{Feature: f, Count: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Feature < entries[j].Feature })
	return entries
}

// FeatureIDs returns the feature ids in row order
func (t *Table) FeatureIDs() []string {
	return append([]string(nil), t.features...)
}

// SampleIDs returns the sample ids in column order
func (t *Table) SampleIDs() []string {
	return append([]string(nil), t.samples...)
}

// Shape returns (features, samples)
func (t *Table) Shape() (int, int) {
	return len(t.features), len(t.samples)
}

// HasSample reports whether the table has a column for id
func (t *Table) HasSample(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Column returns the non-zero entries of a sample column
func (t *Table) Column(id string) ([]Entry, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, core.NewUnknownIDError("abundance table", id)
	}
	return t.columns[i], nil
}

// ColumnSum returns the total count of a sample column
func (t *Table) ColumnSum(id string) (float64, error) {
	col, err := t.Column(id)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, e := range col {
		sum += e.Count
	}
	return sum, nil
}

// Count returns the count at (feature, sample)
func (t *Table) Count(featureID, sampleID string) (float64, error) {
	col, err := t.Column(sampleID)
	if err != nil {
		return 0, err
	}
	f := -1
	for i, id := range t.features {
		if id == featureID {
			f = i
			break
		}
	}
	if f < 0 {
		return 0, core.NewUnknownIDError("abundance table features", featureID)
	}
	i := sort.Search(len(col), func(i int) bool { return col[i].Feature >= f })
	if i < len(col) && col[i].Feature == f {
		return col[i].Count, nil
	}
	return 0, nil
}

// FilterSamples returns a new table holding only the columns for which keep
// returns true, in the original column order. Features are kept as-is.
func (t *Table) FilterSamples(keep func(id string) bool) (*Table, error) {
	out := &Table{
		features: t.features,
		index:    make(map[string]int),
	}
	for i, id := range t.samples {
		if !keep(id) {
			continue
		}
		out.index[id] = len(out.samples)
		out.samples = append(out.samples, id)
		out.columns = append(out.columns, t.columns[i])
	}
	if len(out.samples) == 0 {
		return nil, core.ErrEmptyTable
	}
	return out, nil
}

// Derive assembles a table sharing t's features from prepared columns.
// Each column must be sorted by feature and hold only positive counts.
func (t *Table) Derive(samples []string, columns [][]Entry) *Table {
	out := &Table{
		features: t.features,
		samples:  samples,
		columns:  columns,
		index:    make(map[string]int, len(samples)),
	}
	for i, id := range samples {
		out.index[id] = i
	}
	return out
}

// Rarefied is a table whose column sums all equal Depth, tagged with the
// iteration that produced it.
type Rarefied struct {
	Depth     int
	Iteration int
	Table     *Table
}
