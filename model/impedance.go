package model

import (
	"fmt"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/matrix"
	"gonum.org/v1/gonum/mat"
)

// Impedance is a continuous-time model of a virtual mass-spring-damper
// driven by interaction force and a reference trajectory:
//
//	M*xm_dd = (F_int - F0) + K*(x0 - xm) + C*(x0_d - xm_d)
//
// written in state space form dx/dt = A*x + B*u with
// x = [xm; xm_d] and u = [F_int - F0; x0; x0_d].
type Impedance struct {
	// A is internal state matrix
	A *mat.Dense
	// B is control matrix
	B *mat.Dense
	// mRank is effective rank of the inertia matrix
	mRank int
}

// New creates continuous-time impedance model from stiffness K, damping C and inertia M.
// M is inverted using Moore-Penrose pseudo-inverse.
// It returns error if either of the following conditions is met:
//   - any matrix is not Dof x Dof: ShapeError
//   - any matrix contains NaN or Inf entries: ModelError wrapping ErrNonFinite
//   - M has zero rank: ModelError wrapping ErrSingular
//   - pseudo-inverse of M or any of the system matrices contain NaN or Inf entries
func New(K, C, M mat.Matrix) (*Impedance, error) {
	n := impedance.Dof

	for _, in := range []struct {
		name string
		m    mat.Matrix
	}{
		{"K", K},
		{"C", C},
		{"M", M},
	} {
		if err := matrix.CheckDims(in.name, in.m, n, n); err != nil {
			return nil, err
		}
		if !matrix.IsFinite(in.m) {
			return nil, &impedance.ModelError{Matrix: in.name, Err: impedance.ErrNonFinite}
		}
	}

	mInv, rank, err := matrix.Pinv(M, matrix.DefaultRcond)
	if err != nil {
		return nil, &impedance.ModelError{Matrix: "pinv(M)", Err: err}
	}
	if rank == 0 {
		return nil, &impedance.ModelError{Matrix: "M", Err: fmt.Errorf("zero rank: %w", impedance.ErrSingular)}
	}

	mK := &mat.Dense{}
	mK.Mul(mInv, K)

	mC := &mat.Dense{}
	mC.Mul(mInv, C)

	// A = [0 I; -M^+K -M^+C]
	A := mat.NewDense(impedance.StateLen, impedance.StateLen, nil)
	matrix.SetBlock(A, 0, n, matrix.Identity(n))
	A.Slice(n, 2*n, 0, n).(*mat.Dense).Scale(-1, mK)
	A.Slice(n, 2*n, n, 2*n).(*mat.Dense).Scale(-1, mC)

	// B = [0; M^+ M^+K M^+C]
	B := mat.NewDense(impedance.StateLen, impedance.InputLen, nil)
	matrix.SetBlock(B, n, 0, mInv)
	matrix.SetBlock(B, n, n, mK)
	matrix.SetBlock(B, n, 2*n, mC)

	if !matrix.IsFinite(A) {
		return nil, &impedance.ModelError{Matrix: "A", Err: impedance.ErrNonFinite}
	}

	if !matrix.IsFinite(B) {
		return nil, &impedance.ModelError{Matrix: "B", Err: impedance.ErrNonFinite}
	}

	return &Impedance{A: A, B: B, mRank: rank}, nil
}

// FromParams creates continuous-time impedance model from p
func FromParams(p impedance.Params) (*Impedance, error) {
	if p == nil {
		return nil, impedance.ErrMissingParams
	}

	return New(p.Stiffness(), p.Damping(), p.Inertia())
}

// Derivative returns state derivative dx/dt given state x and input u.
func (m *Impedance) Derivative(x, u mat.Vector) (mat.Vector, error) {
	nx, nu := m.SystemDims()
	if u.Len() != nu {
		return nil, &impedance.ShapeError{Name: "input", Rows: u.Len(), Cols: 1, WantRows: nu, WantCols: 1}
	}

	if x.Len() != nx {
		return nil, &impedance.ShapeError{Name: "state", Rows: x.Len(), Cols: 1, WantRows: nx, WantCols: 1}
	}

	out := new(mat.VecDense)
	out.MulVec(m.A, x)

	outU := new(mat.VecDense)
	outU.MulVec(m.B, u)

	out.AddVec(out, outU)

	return out, nil
}

// SystemDims returns state and input vector lengths
func (m *Impedance) SystemDims() (nx, nu int) {
	nx, _ = m.A.Dims()
	_, nu = m.B.Dims()

	return nx, nu
}

// SystemMatrix returns state matrix A
func (m *Impedance) SystemMatrix() mat.Matrix {
	a := &mat.Dense{}
	a.CloneFrom(m.A)

	return a
}

// ControlMatrix returns control matrix B
func (m *Impedance) ControlMatrix() mat.Matrix {
	b := &mat.Dense{}
	b.CloneFrom(m.B)

	return b
}

// MassRank returns effective rank of the inertia matrix the model was built from.
// Rank smaller than Dof means the model uses least-squares approximation of the inverse inertia.
func (m *Impedance) MassRank() int {
	return m.mRank
}
