package params

import (
	"fmt"

	impedance "github.com/milosgajdos/go-impedance"
	"gonum.org/v1/gonum/mat"
)

// ControlDim selects how impedance parameters are populated.
// Its value is the number of free parameters of the given scheme.
type ControlDim int

const (
	// DimMatrices populates K, C and M verbatim from full 6x6 matrices
	DimMatrices ControlDim = 3 * impedance.Dof * impedance.Dof
	// DimCoefficients populates K, C and M from a flat coefficient vector
	// using a fixed sparsity pattern: see FromCoefficients
	DimCoefficients ControlDim = 26
)

// String implements the Stringer interface.
func (d ControlDim) String() string {
	switch d {
	case DimMatrices:
		return "matrices"
	case DimCoefficients:
		return "coefficients"
	default:
		return fmt.Sprintf("ControlDim(%d)", int(d))
	}
}

// Valid returns true if d is a supported control dimension
func (d ControlDim) Valid() bool {
	return d == DimMatrices || d == DimCoefficients
}

// pattern lists [row, col] positions of free coefficients in K and C.
// Translational and rotational axes are cross-coupled: x with pitch, y with roll.
var pattern = [10][2]int{
	{0, 0}, {0, 4},
	{1, 1}, {1, 3},
	{2, 2},
	{3, 1}, {3, 3},
	{4, 0}, {4, 4},
	{5, 5},
}

// FromCoefficients creates Params from a DimCoefficients long coefficient vector a:
//   - a[0:10] populate K in the coupling pattern
//   - a[10:20] populate C in the same pattern
//   - a[20:26] populate the diagonal of M
//
// It returns ShapeError if a is not DimCoefficients long and any error returned by New.
func FromCoefficients(a []float64, opts ...Option) (*Params, error) {
	if len(a) != int(DimCoefficients) {
		return nil, &impedance.ShapeError{Name: "coefficients", Rows: len(a), Cols: 1, WantRows: int(DimCoefficients), WantCols: 1}
	}

	n := len(pattern)
	K := mat.NewDense(impedance.Dof, impedance.Dof, nil)
	C := mat.NewDense(impedance.Dof, impedance.Dof, nil)
	for i, pos := range pattern {
		K.Set(pos[0], pos[1], a[i])
		C.Set(pos[0], pos[1], a[n+i])
	}

	M := mat.NewDense(impedance.Dof, impedance.Dof, nil)
	for i := 0; i < impedance.Dof; i++ {
		M.Set(i, i, a[2*n+i])
	}

	return New(K, C, M, append(opts, withDim(DimCoefficients))...)
}
