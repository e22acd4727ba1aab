package sim

import (
	"fmt"

	impedance "github.com/milosgajdos/go-impedance"
	"gonum.org/v1/gonum/mat"
)

var _ impedance.Stepper = (*Discrete)(nil)

// Discrete is a basic model of a linear, discrete-time, dynamical system.
// Discrete is not safe for concurrent use: StepTo reuses internal work vectors.
type Discrete struct {
	System
	// pinv is set when Bd was computed from pseudo-inverse of A
	pinv bool
	// work vectors used by StepTo
	x, u, ax, bu *mat.VecDense
}

// NewDiscrete creates a linear discrete-time model based on the control theory equation.
//
//	x[n+1] = A*x[n] + B*u[n]
func NewDiscrete(A, B mat.Matrix) (*Discrete, error) {
	if A == nil || B == nil {
		return nil, fmt.Errorf("system and control matrices must be defined for a model")
	}

	nx, c := A.Dims()
	if nx != c {
		return nil, &impedance.ShapeError{Name: "A", Rows: nx, Cols: c, WantRows: nx, WantCols: nx}
	}

	if r, nu := B.Dims(); r != nx {
		return nil, &impedance.ShapeError{Name: "B", Rows: r, Cols: nu, WantRows: nx, WantCols: nu}
	}

	return newDiscrete(newSystem(A, B)), nil
}

func newDiscrete(sys System) *Discrete {
	nx, nu := sys.SystemDims()

	return &Discrete{
		System: sys,
		x:      mat.NewVecDense(nx, nil),
		u:      mat.NewVecDense(nu, nil),
		ax:     mat.NewVecDense(nx, nil),
		bu:     mat.NewVecDense(nx, nil),
	}
}

// PinvFallback returns true if the control matrix was computed
// using pseudo-inverse of a singular continuous-time state matrix.
func (d *Discrete) PinvFallback() bool {
	return d.pinv
}

// Propagate returns the next internal state x
// of a linear, discrete-time system given an input vector u.
func (d *Discrete) Propagate(x, u mat.Vector) (mat.Vector, error) {
	nx, nu := d.SystemDims()
	if u == nil || u.Len() != nu {
		return nil, fmt.Errorf("invalid input vector: %w", vecShapeError("input", u, nu))
	}

	if x == nil || x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector: %w", vecShapeError("state", x, nx))
	}

	out := new(mat.VecDense)
	out.MulVec(d.A, x)

	outU := new(mat.VecDense)
	outU.MulVec(d.B, u)

	out.AddVec(out, outU)

	return out, nil
}

// StepTo stores A*x + B*u in dst. dst may be the same as x.
// StepTo does not allocate.
// It panics if the model is not StateLen x InputLen.
func (d *Discrete) StepTo(dst *impedance.State, x *impedance.State, u *impedance.Input) {
	if d.x.Len() != impedance.StateLen || d.u.Len() != impedance.InputLen {
		panic(mat.ErrShape)
	}

	copy(d.x.RawVector().Data, x[:])
	copy(d.u.RawVector().Data, u[:])

	d.ax.MulVec(d.A, d.x)
	d.bu.MulVec(d.B, d.u)

	ax, bu := d.ax.RawVector().Data, d.bu.RawVector().Data
	for i := range dst {
		dst[i] = ax[i] + bu[i]
	}
}

func vecShapeError(name string, v mat.Vector, want int) error {
	n := 0
	if v != nil {
		n = v.Len()
	}

	return &impedance.ShapeError{Name: name, Rows: n, Cols: 1, WantRows: want, WantCols: 1}
}
