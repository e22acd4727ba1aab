package sim

import (
	"gonum.org/v1/gonum/mat"
)

// System defines a linear state space model using
// traditional matrices of modern control theory.
//
// It contains the System (A) and Input (B) matrices.
type System struct {
	// System/State matrix A
	A *mat.Dense
	// Control/Input Matrix B
	B *mat.Dense
}

func newSystem(A, B mat.Matrix) System {
	return System{A: mat.DenseCopyOf(A), B: mat.DenseCopyOf(B)}
}

// SystemDims returns internal state length (nx) and input vector length (nu).
func (s System) SystemDims() (nx, nu int) {
	nx, _ = s.A.Dims()
	_, nu = s.B.Dims()

	return nx, nu
}

// SystemMatrix returns a copy of state propagation matrix `A`.
func (s System) SystemMatrix() mat.Matrix {
	return mat.DenseCopyOf(s.A)
}

// ControlMatrix returns a copy of state propagation control matrix `B`
func (s System) ControlMatrix() mat.Matrix {
	return mat.DenseCopyOf(s.B)
}
