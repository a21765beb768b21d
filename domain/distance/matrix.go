package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gostudy/domain/core"
)

// tolerance for the symmetry and hollowness checks
const tolerance = 1e-12

// Matrix is a hollow symmetric distance matrix indexed by an ordered id list
type Matrix struct {
	ids   []string
	index map[string]int
	data  *mat.SymDense
}

// NewMatrix validates rows as a hollow symmetric matrix over ids
func NewMatrix(ids []string, rows [][]float64) (*Matrix, error) {
	n := len(ids)
	if len(rows) != n {
		return nil, core.NewInvalidMatrixError(fmt.Sprintf("%d rows for %d ids", len(rows), n))
	}
	if n == 0 {
		return nil, core.NewInvalidMatrixError("no ids")
	}

	index := make(map[string]int, n)
	for i, id := range ids {
		if _, dup := index[id]; dup {
			return nil, core.NewInvalidMatrixError(fmt.Sprintf("duplicate id %q", id))
		}
		index[id] = i
	}

	flat := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, core.NewInvalidMatrixError(fmt.Sprintf("row %d has %d values, expected %d", i, len(row), n))
		}
		if math.Abs(row[i]) > tolerance {
			return nil, core.NewInvalidMatrixError(fmt.Sprintf("diagonal at %q is %g", ids[i], row[i]))
		}
		for j := 0; j < i; j++ {
			if math.Abs(row[j]-rows[j][i]) > tolerance {
				return nil, core.NewInvalidMatrixError(fmt.Sprintf("asymmetric at (%q,%q)", ids[i], ids[j]))
			}
		}
		flat = append(flat, row...)
	}

	return &Matrix{
		ids:   append([]string(nil), ids...),
		index: index,
		data:  mat.NewSymDense(n, flat),
	}, nil
}

// IDs returns the ids in index order
func (m *Matrix) IDs() []string {
	return append([]string(nil), m.ids...)
}

// Len returns the number of ids
func (m *Matrix) Len() int {
	return len(m.ids)
}

// Index returns the position of id
func (m *Matrix) Index(id string) (int, error) {
	i, ok := m.index[id]
	if !ok {
		return 0, core.NewUnknownIDError("distance matrix", id)
	}
	return i, nil
}

// Indices resolves every id, failing on the first unknown one
func (m *Matrix) Indices(ids []string) ([]int, error) {
	out := make([]int, len(ids))
	for k, id := range ids {
		i, err := m.Index(id)
		if err != nil {
			return nil, err
		}
		out[k] = i
	}
	return out, nil
}

// At returns the distance between positions i and j
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Distance returns the distance between two ids
func (m *Matrix) Distance(a, b string) (float64, error) {
	i, err := m.Index(a)
	if err != nil {
		return 0, err
	}
	j, err := m.Index(b)
	if err != nil {
		return 0, err
	}
	return m.At(i, j), nil
}

// Sym exposes the underlying symmetric matrix
func (m *Matrix) Sym() mat.Symmetric {
	return m.data
}
