package sim

import (
	"fmt"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/matrix"
	"gonum.org/v1/gonum/mat"
)

// Method is a zero-order hold discretization method
type Method int

const (
	// ZOHExact computes Ad and Bd jointly from the exponential of the augmented matrix
	//
	//	exp([A B; 0 0]*Ts) = [Ad Bd; 0 I]
	//
	// It is exact for any A, singular or not.
	ZOHExact Method = iota
	// ZOHInverse computes Bd = inv(A)*(Ad - I)*B.
	// It falls back to pseudo-inverse of A if A can't be inverted,
	// in which case Bd is only a least-squares approximation.
	ZOHInverse
)

// String implements the Stringer interface.
func (m Method) String() string {
	switch m {
	case ZOHExact:
		return "exact"
	case ZOHInverse:
		return "inverse"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod returns Method named s
func ParseMethod(s string) (Method, error) {
	switch s {
	case "exact", "":
		return ZOHExact, nil
	case "inverse":
		return ZOHInverse, nil
	default:
		return 0, fmt.Errorf("unknown discretization method: %q", s)
	}
}

// Continuous is a basic model of a linear, continuous-time, dynamical system
type Continuous struct {
	System
}

// NewContinuous creates a linear continuous-time model based on the control theory equation
//
//	dx/dt = A*x + B*u
//
// It returns error if A is not square or B does not have the same number of rows as A.
func NewContinuous(A, B mat.Matrix) (*Continuous, error) {
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

	return &Continuous{System: newSystem(A, B)}, nil
}

// FromModel creates continuous-time model from the system matrices of m
func FromModel(m impedance.ContinuousSystem) (*Continuous, error) {
	return NewContinuous(m.SystemMatrix(), m.ControlMatrix())
}

// ToDiscrete creates a discrete-time model from a continuous time model
// using Ts as the sampling time and method to compute the discrete control matrix.
//
// Ad = exp(A*Ts) is computed using scaling and squaring Pade approximation.
// It returns error if Ts is not a positive finite number or DiscretizationError
// if any of the discrete matrices contain NaN or Inf entries.
func (ct *Continuous) ToDiscrete(Ts float64, method Method) (*Discrete, error) {
	if err := impedance.CheckTimestep(Ts); err != nil {
		return nil, err
	}

	if !matrix.IsFinite(ct.A) {
		return nil, &impedance.DiscretizationError{Dt: Ts, Matrix: "A", Err: impedance.ErrNonFinite}
	}

	if !matrix.IsFinite(ct.B) {
		return nil, &impedance.DiscretizationError{Dt: Ts, Matrix: "B", Err: impedance.ErrNonFinite}
	}

	var (
		Ad, Bd   *mat.Dense
		fallback bool
		err      error
	)

	switch method {
	case ZOHExact:
		Ad, Bd, err = ct.exact(Ts)
	case ZOHInverse:
		Ad, Bd, fallback, err = ct.inverse(Ts)
	default:
		return nil, fmt.Errorf("unknown discretization method: %v", method)
	}

	if err != nil {
		return nil, err
	}

	if !matrix.IsFinite(Ad) {
		return nil, &impedance.DiscretizationError{Dt: Ts, Matrix: "Ad", Err: impedance.ErrNonFinite}
	}

	if !matrix.IsFinite(Bd) {
		return nil, &impedance.DiscretizationError{Dt: Ts, Matrix: "Bd", Err: impedance.ErrNonFinite}
	}

	d := newDiscrete(System{A: Ad, B: Bd})
	d.pinv = fallback

	return d, nil
}

func (ct *Continuous) exact(Ts float64) (*mat.Dense, *mat.Dense, error) {
	nx, nu := ct.SystemDims()

	z := mat.NewDense(nx+nu, nx+nu, nil)
	matrix.SetBlock(z, 0, 0, ct.A)
	matrix.SetBlock(z, 0, nx, ct.B)
	z.Scale(Ts, z)
	if !matrix.IsFinite(z) {
		return nil, nil, &impedance.DiscretizationError{Dt: Ts, Matrix: "[A B]*Ts", Err: impedance.ErrNonFinite}
	}

	e := &mat.Dense{}
	e.Exp(z)

	return matrix.Block(e, 0, nx, 0, nx), matrix.Block(e, 0, nx, nx, nx+nu), nil
}

func (ct *Continuous) inverse(Ts float64) (*mat.Dense, *mat.Dense, bool, error) {
	nx, _ := ct.SystemDims()

	ATs := &mat.Dense{}
	ATs.Scale(Ts, ct.A)
	if !matrix.IsFinite(ATs) {
		return nil, nil, false, &impedance.DiscretizationError{Dt: Ts, Matrix: "A*Ts", Err: impedance.ErrNonFinite}
	}

	Ad := &mat.Dense{}
	Ad.Exp(ATs)

	// continuous -> discrete time conversion
	// See Discrete-Time Control Systems by Katsuhiko Ogata
	// Bd(Ts) = inv(A)*(exp(A*Ts) - I)*B
	Aaux := &mat.Dense{}
	Aaux.Sub(Ad, matrix.Identity(nx))

	fallback := false
	Ainv := &mat.Dense{}
	if err := Ainv.Inverse(ct.A); err != nil {
		pinv, _, err := matrix.Pinv(ct.A, matrix.DefaultRcond)
		if err != nil {
			return nil, nil, false, &impedance.DiscretizationError{Dt: Ts, Matrix: "pinv(A)", Err: err}
		}
		Ainv, fallback = pinv, true
	}

	AinvAux := &mat.Dense{}
	AinvAux.Mul(Ainv, Aaux)

	Bd := &mat.Dense{}
	Bd.Mul(AinvAux, ct.B)

	return Ad, Bd, fallback, nil
}
