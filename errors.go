package impedance

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidTimestep is returned when timestep is not a positive finite number
	ErrInvalidTimestep = errors.New("invalid timestep")
	// ErrMissingParams is returned when model parameters have not been set
	ErrMissingParams = errors.New("impedance parameters not set")
	// ErrSingular is returned when a required matrix inverse does not exist
	ErrSingular = errors.New("singular matrix")
	// ErrNonFinite is returned when a matrix contains NaN or Inf entries
	ErrNonFinite = errors.New("non-finite matrix entries")
)

// ShapeError is returned when a matrix or vector has unexpected dimensions
type ShapeError struct {
	// Name identifies the offending value
	Name string
	// Rows and Cols are the dimensions supplied
	Rows, Cols int
	// WantRows and WantCols are the expected dimensions
	WantRows, WantCols int
}

// Error implements error interface
func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid %s dimensions: [%d x %d], expected: [%d x %d]",
		e.Name, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// ModelError is returned when continuous-time model can't be built
type ModelError struct {
	// Matrix names the matrix which caused the failure
	Matrix string
	// Err is the underlying error
	Err error
}

// Error implements error interface
func (e *ModelError) Error() string {
	return fmt.Sprintf("model build failed: %s: %v", e.Matrix, e.Err)
}

// Unwrap returns the underlying error
func (e *ModelError) Unwrap() error { return e.Err }

// DiscretizationError is returned when continuous-time model can't be discretized
type DiscretizationError struct {
	// Dt is the timestep used for discretization
	Dt float64
	// Matrix names the matrix which caused the failure
	Matrix string
	// Err is the underlying error
	Err error
}

// Error implements error interface
func (e *DiscretizationError) Error() string {
	return fmt.Sprintf("discretization failed (dt=%g): %s: %v", e.Dt, e.Matrix, e.Err)
}

// Unwrap returns the underlying error
func (e *DiscretizationError) Unwrap() error { return e.Err }

// CheckTimestep returns error wrapping ErrInvalidTimestep if dt is not positive and finite
func CheckTimestep(dt float64) error {
	// NaN fails every comparison so it is rejected here too
	if !(dt > 0) || math.IsInf(dt, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidTimestep, dt)
	}

	return nil
}
