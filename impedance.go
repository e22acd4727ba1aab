package impedance

import "gonum.org/v1/gonum/mat"

const (
	// Dof is the number of degrees of freedom of the end-effector
	Dof = 6
	// StateLen is the length of the impedance model state vector
	StateLen = 2 * Dof
	// InputLen is the length of the impedance model input vector
	InputLen = 3 * Dof
)

// Pose is end-effector pose: 3 position and 3 orientation components
type Pose [Dof]float64

// Velocity is end-effector velocity: 3 linear and 3 angular rate components
type Velocity [Dof]float64

// Wrench is a force/moment pair: 3 force and 3 moment components
type Wrench [Dof]float64

// State is impedance model state: model pose followed by model velocity
type State [StateLen]float64

// Input is impedance model input: force error, reference pose and reference velocity
type Input [InputLen]float64

// NewState creates new State from model pose p and model velocity v
func NewState(p Pose, v Velocity) State {
	var x State
	copy(x[:Dof], p[:])
	copy(x[Dof:], v[:])

	return x
}

// Pose returns model pose stored in the state
func (x State) Pose() Pose {
	var p Pose
	copy(p[:], x[:Dof])

	return p
}

// Velocity returns model velocity stored in the state
func (x State) Velocity() Velocity {
	var v Velocity
	copy(v[:], x[Dof:])

	return v
}

// Vec returns x as a gonum vector
func (x State) Vec() *mat.VecDense {
	return mat.NewVecDense(StateLen, append([]float64(nil), x[:]...))
}

// NewInput creates the model input vector from measured wrench fInt,
// desired wrench f0, reference pose p and reference velocity v.
// The force error fInt-f0 occupies the first Dof elements.
func NewInput(fInt, f0 Wrench, p Pose, v Velocity) Input {
	var u Input
	for i := 0; i < Dof; i++ {
		u[i] = fInt[i] - f0[i]
	}
	copy(u[Dof:2*Dof], p[:])
	copy(u[2*Dof:], v[:])

	return u
}

// Vec returns u as a gonum vector
func (u Input) Vec() *mat.VecDense {
	return mat.NewVecDense(InputLen, append([]float64(nil), u[:]...))
}

// PoseFromSlice returns Pose stored in s.
// It returns ShapeError if s does not have exactly Dof elements.
func PoseFromSlice(s []float64) (Pose, error) {
	var p Pose
	if len(s) != Dof {
		return p, &ShapeError{Name: "pose", Rows: len(s), Cols: 1, WantRows: Dof, WantCols: 1}
	}
	copy(p[:], s)

	return p, nil
}

// VelocityFromSlice returns Velocity stored in s.
// It returns ShapeError if s does not have exactly Dof elements.
func VelocityFromSlice(s []float64) (Velocity, error) {
	var v Velocity
	if len(s) != Dof {
		return v, &ShapeError{Name: "velocity", Rows: len(s), Cols: 1, WantRows: Dof, WantCols: 1}
	}
	copy(v[:], s)

	return v, nil
}

// WrenchFromSlice returns Wrench stored in s.
// It returns ShapeError if s does not have exactly Dof elements.
func WrenchFromSlice(s []float64) (Wrench, error) {
	var w Wrench
	if len(s) != Dof {
		return w, &ShapeError{Name: "wrench", Rows: len(s), Cols: 1, WantRows: Dof, WantCols: 1}
	}
	copy(w[:], s)

	return w, nil
}

// Params provides impedance model parameters
type Params interface {
	// Stiffness returns stiffness matrix K
	Stiffness() mat.Matrix
	// Damping returns damping matrix C
	Damping() mat.Matrix
	// Inertia returns virtual inertia matrix M
	Inertia() mat.Matrix
}

// ContinuousSystem is a linear continuous-time system dx/dt = A*x + B*u
type ContinuousSystem interface {
	// SystemMatrix returns state matrix A
	SystemMatrix() mat.Matrix
	// ControlMatrix returns input matrix B
	ControlMatrix() mat.Matrix
	// SystemDims returns state and input vector lengths
	SystemDims() (nx, nu int)
}

// Stepper advances impedance model state by one control tick
type Stepper interface {
	// StepTo stores the next state given state x and input u in dst
	StepTo(dst *State, x *State, u *Input)
}

// Noise is wrench measurement noise
type Noise interface {
	// Sample returns a sample of the noise
	Sample() Wrench
	// Reset resets the noise
	Reset()
}
