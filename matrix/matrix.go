package matrix

import (
	"fmt"
	"math"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultRcond is the default relative cutoff for small singular values used by Pinv.
// Singular values smaller than DefaultRcond times the largest singular value are treated as zero.
const DefaultRcond = 1e-15

// Identity returns n x n identity matrix.
// It panics if n is non-positive.
func Identity(n int) *mat.Dense {
	eye, err := matrix.NewDenseValIdentity(n, 1.0)
	if err != nil {
		panic(err)
	}

	return mat.DenseCopyOf(eye)
}

// IsFinite returns true if m contains neither NaN nor Inf entries.
// It panics if m is nil.
func IsFinite(m mat.Matrix) bool {
	if rm, ok := m.(mat.RawMatrixer); ok {
		raw := rm.RawMatrix()
		for i := 0; i < raw.Rows; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
			if floats.HasNaN(row) {
				return false
			}
			if len(row) > 0 && (math.IsInf(floats.Max(row), 0) || math.IsInf(floats.Min(row), 0)) {
				return false
			}
		}
		return true
	}

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// Pinv returns Moore-Penrose pseudo-inverse of a and effective rank of a.
// Singular values not larger than rcond times the largest singular value are discarded.
// If a has zero rank Pinv returns zero matrix of transposed dimensions.
// It returns error if a contains non-finite entries, if SVD factorization fails
// or if the computed pseudo-inverse contains non-finite entries.
func Pinv(a mat.Matrix, rcond float64) (*mat.Dense, int, error) {
	if !IsFinite(a) {
		return nil, 0, impedance.ErrNonFinite
	}

	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("SVD factorization failed")
	}

	rank := svd.Rank(rcond)
	pinv := mat.NewDense(c, r, nil)
	if rank == 0 {
		return pinv, 0, nil
	}

	svd.SolveTo(pinv, Identity(r), rank)
	if !IsFinite(pinv) {
		return nil, rank, impedance.ErrNonFinite
	}

	return pinv, rank, nil
}

// SetBlock copies src into dst with the top left corner of src placed at [i, j].
// It panics if src does not fit into dst.
func SetBlock(dst *mat.Dense, i, j int, src mat.Matrix) {
	r, c := src.Dims()
	dst.Slice(i, i+r, j, j+c).(*mat.Dense).Copy(src)
}

// Block returns a copy of m[i:k, j:l].
// It panics if the requested block falls outside of m.
func Block(m *mat.Dense, i, k, j, l int) *mat.Dense {
	return mat.DenseCopyOf(m.Slice(i, k, j, l))
}

// CheckDims returns ShapeError if m does not have rows x cols dimensions.
// name identifies m in the returned error.
func CheckDims(name string, m mat.Matrix, rows, cols int) error {
	if m == nil {
		return &impedance.ShapeError{Name: name, WantRows: rows, WantCols: cols}
	}

	r, c := m.Dims()
	if r != rows || c != cols {
		return &impedance.ShapeError{Name: name, Rows: r, Cols: c, WantRows: rows, WantCols: cols}
	}

	return nil
}
