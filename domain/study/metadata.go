package study

import (
	"fmt"
	"strings"

	"gostudy/domain/core"
)

// Row is one sample's metadata record
type Row struct {
	SampleID string
	Fields   map[string]string
}

// Value returns the row's value under column
func (r Row) Value(column string) (string, error) {
	v, ok := r.Fields[column]
	if !ok {
		return "", core.NewUnknownCategoryError(r.SampleID, column)
	}
	return v, nil
}

// Metadata is an ordered, validated sample metadata table (a mapping file).
// The first header names the sample id column; the remaining headers are fields.
type Metadata struct {
	headers []string
	rows    []Row
	index   map[string]int
}

// NewMetadata validates rows against headers and builds a table.
// Every row must carry every non-id header and sample ids must be unique.
func NewMetadata(headers []string, rows []Row) (*Metadata, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("metadata requires at least the sample id header")
	}

	m := &Metadata{
		headers: append([]string(nil), headers...),
		rows:    make([]Row, 0, len(rows)),
		index:   make(map[string]int, len(rows)),
	}

	for i, row := range rows {
		if strings.TrimSpace(row.SampleID) == "" {
			return nil, fmt.Errorf("metadata row %d has an empty sample id", i)
		}
		if _, dup := m.index[row.SampleID]; dup {
			return nil, fmt.Errorf("duplicate sample id %q in metadata", row.SampleID)
		}
		fields := make(map[string]string, len(headers)-1)
		for _, h := range headers[1:] {
			v, ok := row.Fields[h]
			if !ok {
				return nil, fmt.Errorf("metadata row %q is missing column %q", row.SampleID, h)
			}
			fields[h] = v
		}
		m.index[row.SampleID] = len(m.rows)
		m.rows = append(m.rows, Row{SampleID: row.SampleID, Fields: fields})
	}

	return m, nil
}

// NewMetadataFromRecords builds a table from string records whose first
// column is the sample id, in header order.
func NewMetadataFromRecords(headers []string, records [][]string) (*Metadata, error) {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(headers) {
			return nil, fmt.Errorf("metadata record %d has %d values, expected %d", i, len(rec), len(headers))
		}
		fields := make(map[string]string, len(headers)-1)
		for j := 1; j < len(headers); j++ {
			fields[headers[j]] = rec[j]
		}
		rows = append(rows, Row{SampleID: rec[0], Fields: fields})
	}
	return NewMetadata(headers, rows)
}

// Headers returns the header list, sample id column first
func (m *Metadata) Headers() []string {
	return append([]string(nil), m.headers...)
}

// Rows returns the rows in table order
func (m *Metadata) Rows() []Row {
	return m.rows
}

// Len returns the number of rows
func (m *Metadata) Len() int {
	return len(m.rows)
}

// HasColumn reports whether column is one of the field headers
func (m *Metadata) HasColumn(column string) bool {
	for _, h := range m.headers[1:] {
		if h == column {
			return true
		}
	}
	return false
}

// Lookup returns the row for a sample id
func (m *Metadata) Lookup(sampleID string) (Row, error) {
	i, ok := m.index[sampleID]
	if !ok {
		return Row{}, core.NewUnknownIDError("metadata", sampleID)
	}
	return m.rows[i], nil
}

// Category returns the value of column for a sample id
func (m *Metadata) Category(sampleID, column string) (string, error) {
	row, err := m.Lookup(sampleID)
	if err != nil {
		return "", err
	}
	return row.Value(column)
}

// Filter returns a table restricted to the given sample ids, preserving row order.
// Columns whose values are identical across the kept rows are dropped, except the
// sample id column and the last column, which are always kept.
func (m *Metadata) Filter(keep func(sampleID string) bool) *Metadata {
	var rows []Row
	for _, r := range m.rows {
		if keep(r.SampleID) {
			rows = append(rows, r)
		}
	}

	headers := []string{m.headers[0]}
	last := len(m.headers) - 1
	for i := 1; i < len(m.headers); i++ {
		h := m.headers[i]
		if i == last || distinctValues(rows, h) > 1 {
			headers = append(headers, h)
		}
	}

	// rows already validated; rebuilding only trims fields
	out, _ := NewMetadata(headers, rows)
	return out
}

func distinctValues(rows []Row, column string) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Fields[column]] = struct{}{}
	}
	return len(seen)
}
