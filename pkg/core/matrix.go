package core

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix. In this module rows are genes (probes)
// and columns are samples.
type Matrix struct {
	R, C int
	Data []float64
}

// NewMatrix allocates a zero matrix.
func NewMatrix(r, c int) *Matrix {
	return &Matrix{R: r, C: c, Data: make([]float64, r*c)}
}

// FromSlice creates a Matrix from a nested slice (copies the values).
func FromSlice(a [][]float64) (*Matrix, error) {
	r := len(a)
	if r == 0 {
		return &Matrix{}, nil
	}
	c := len(a[0])
	m := NewMatrix(r, c)
	for i := 0; i < r; i++ {
		if len(a[i]) != c {
			return nil, errors.New("ragged rows")
		}
		copy(m.Data[i*c:(i+1)*c], a[i])
	}
	return m, nil
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.C+j] }

// Set sets element (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.C+j] = v }

// Clone deep copies the matrix.
func (m *Matrix) Clone() *Matrix {
	n := &Matrix{R: m.R, C: m.C, Data: make([]float64, len(m.Data))}
	copy(n.Data, m.Data)
	return n
}

// Transpose returns a new C x R matrix.
func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.C, m.R)
	for i := 0; i < m.R; i++ {
		for j := 0; j < m.C; j++ {
			t.Data[j*t.C+i] = m.Data[i*m.C+j]
		}
	}
	return t
}

// Row returns row i. The slice aliases the matrix storage; callers must not
// modify it.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.C : (i+1)*m.C] }

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	v := make([]float64, m.R)
	for i := 0; i < m.R; i++ {
		v[i] = m.Data[i*m.C+j]
	}
	return v
}

// SelectRows returns a new matrix holding the given rows in order.
func (m *Matrix) SelectRows(idx []int) *Matrix {
	out := NewMatrix(len(idx), m.C)
	for k, i := range idx {
		copy(out.Data[k*m.C:(k+1)*m.C], m.Row(i))
	}
	return out
}

// SelectCols returns a new matrix holding the given columns in order.
func (m *Matrix) SelectCols(idx []int) *Matrix {
	out := NewMatrix(m.R, len(idx))
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for k, j := range idx {
			out.Data[i*out.C+k] = row[j]
		}
	}
	return out
}

// CountNaN returns the number of missing (NaN) entries.
func (m *Matrix) CountNaN() int {
	n := 0
	for _, v := range m.Data {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Dense returns a gonum copy of the matrix.
func (m *Matrix) Dense() *mat.Dense {
	if m.R == 0 || m.C == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return mat.NewDense(m.R, m.C, data)
}
