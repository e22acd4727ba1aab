package impedance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewState(t *testing.T) {
	assert := assert.New(t)

	p := Pose{1, 2, 3, 4, 5, 6}
	v := Velocity{-1, -2, -3, -4, -5, -6}

	x := NewState(p, v)
	assert.Equal(p, x.Pose())
	assert.Equal(v, x.Velocity())

	vec := x.Vec()
	assert.Equal(StateLen, vec.Len())
	assert.Equal(4.0, vec.AtVec(3))
	assert.Equal(-1.0, vec.AtVec(6))

	// Vec must not alias the state array
	vec.SetVec(0, 100)
	assert.Equal(1.0, x[0])
}

func TestNewInput(t *testing.T) {
	assert := assert.New(t)

	fInt := Wrench{10, 1, 0, 0, 0, 2}
	f0 := Wrench{4, 1, 0, 0, 0, -2}
	p := Pose{1, 2, 3, 4, 5, 6}
	v := Velocity{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	u := NewInput(fInt, f0, p, v)
	assert.Equal([]float64{6, 0, 0, 0, 0, 4}, u[:Dof])
	assert.Equal(p[:], u[Dof:2*Dof])
	assert.Equal(v[:], u[2*Dof:])
	assert.Equal(InputLen, u.Vec().Len())
}

func TestFromSlice(t *testing.T) {
	assert := assert.New(t)

	s := []float64{1, 2, 3, 4, 5, 6}

	p, err := PoseFromSlice(s)
	assert.NoError(err)
	assert.Equal(Pose{1, 2, 3, 4, 5, 6}, p)

	v, err := VelocityFromSlice(s)
	assert.NoError(err)
	assert.Equal(Velocity{1, 2, 3, 4, 5, 6}, v)

	w, err := WrenchFromSlice(s)
	assert.NoError(err)
	assert.Equal(Wrench{1, 2, 3, 4, 5, 6}, w)

	var shapeErr *ShapeError

	_, err = PoseFromSlice(s[:3])
	assert.Error(err)
	assert.True(errors.As(err, &shapeErr))
	assert.Equal("pose", shapeErr.Name)
	assert.Equal(3, shapeErr.Rows)

	_, err = VelocityFromSlice(append(s, 7))
	assert.True(errors.As(err, &shapeErr))

	_, err = WrenchFromSlice(nil)
	assert.True(errors.As(err, &shapeErr))
}

func TestCheckTimestep(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(CheckTimestep(0.001))
	assert.NoError(CheckTimestep(1e-12))

	for _, dt := range []float64{0, -0.001, math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := CheckTimestep(dt)
		assert.Error(err)
		assert.True(errors.Is(err, ErrInvalidTimestep))
	}
}

func TestErrors(t *testing.T) {
	assert := assert.New(t)

	err := &ModelError{Matrix: "M", Err: ErrSingular}
	assert.True(errors.Is(err, ErrSingular))
	assert.Contains(err.Error(), "M")

	derr := &DiscretizationError{Dt: 0.1, Matrix: "Ad", Err: ErrNonFinite}
	assert.True(errors.Is(derr, ErrNonFinite))
	assert.Contains(derr.Error(), "dt=0.1")

	serr := &ShapeError{Name: "K", Rows: 5, Cols: 6, WantRows: 6, WantCols: 6}
	assert.Equal("invalid K dimensions: [5 x 6], expected: [6 x 6]", serr.Error())
}
