package sim

import (
	"errors"
	"math"
	"os"
	"testing"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/matrix"
	"github.com/milosgajdos/go-impedance/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	imp  *model.Impedance
	free *model.Impedance
)

func diag(n int, v float64) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, v)
	}
	return d
}

func setup() {
	var err error
	n := impedance.Dof

	imp, err = model.New(diag(n, 10), diag(n, 10), diag(n, 1))
	if err != nil {
		panic(err)
	}

	// no stiffness nor damping: A is singular
	free, err = model.New(mat.NewDense(n, n, nil), mat.NewDense(n, n, nil), diag(n, 1))
	if err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestMethod(t *testing.T) {
	assert := assert.New(t)

	for _, m := range []Method{ZOHExact, ZOHInverse} {
		parsed, err := ParseMethod(m.String())
		assert.NoError(err)
		assert.Equal(m, parsed)
	}

	m, err := ParseMethod("")
	assert.NoError(err)
	assert.Equal(ZOHExact, m)

	_, err = ParseMethod("euler")
	assert.Error(err)

	assert.Equal("Method(7)", Method(7).String())
}

func TestNewContinuous(t *testing.T) {
	assert := assert.New(t)

	c, err := FromModel(imp)
	assert.NotNil(c)
	assert.NoError(err)

	nx, nu := c.SystemDims()
	assert.Equal(impedance.StateLen, nx)
	assert.Equal(impedance.InputLen, nu)
	assert.True(mat.Equal(imp.A, c.SystemMatrix()))
	assert.True(mat.Equal(imp.B, c.ControlMatrix()))

	c, err = NewContinuous(nil, nil)
	assert.Nil(c)
	assert.Error(err)

	var shapeErr *impedance.ShapeError
	c, err = NewContinuous(mat.NewDense(2, 3, nil), mat.NewDense(2, 1, nil))
	assert.Nil(c)
	assert.True(errors.As(err, &shapeErr))

	c, err = NewContinuous(mat.NewDense(2, 2, nil), mat.NewDense(3, 1, nil))
	assert.Nil(c)
	assert.True(errors.As(err, &shapeErr))
	assert.Equal("B", shapeErr.Name)
}

func TestToDiscreteDims(t *testing.T) {
	assert := assert.New(t)

	c, err := FromModel(imp)
	require.NoError(t, err)

	for _, method := range []Method{ZOHExact, ZOHInverse} {
		d, err := c.ToDiscrete(0.001, method)
		assert.NoError(err, method)
		assert.False(d.PinvFallback())

		r, cols := d.SystemMatrix().Dims()
		assert.Equal(impedance.StateLen, r)
		assert.Equal(impedance.StateLen, cols)

		r, cols = d.ControlMatrix().Dims()
		assert.Equal(impedance.StateLen, r)
		assert.Equal(impedance.InputLen, cols)
	}
}

func TestToDiscreteMethodsAgree(t *testing.T) {
	assert := assert.New(t)

	c, err := FromModel(imp)
	require.NoError(t, err)

	for _, dt := range []float64{1e-4, 1e-3, 1e-2, 0.1} {
		exact, err := c.ToDiscrete(dt, ZOHExact)
		require.NoError(t, err)

		inv, err := c.ToDiscrete(dt, ZOHInverse)
		require.NoError(t, err)

		assert.True(mat.EqualApprox(exact.A, inv.A, 1e-12), "dt=%v", dt)
		assert.True(mat.EqualApprox(exact.B, inv.B, 1e-9), "dt=%v", dt)
	}
}

func TestToDiscreteSmallDt(t *testing.T) {
	assert := assert.New(t)

	c, err := FromModel(imp)
	require.NoError(t, err)

	eye := matrix.Identity(impedance.StateLen)
	zero := mat.NewDense(impedance.StateLen, impedance.InputLen, nil)

	for _, method := range []Method{ZOHExact, ZOHInverse} {
		d, err := c.ToDiscrete(1e-8, method)
		require.NoError(t, err)

		assert.True(mat.EqualApprox(d.A, eye, 1e-6), method)
		assert.True(mat.EqualApprox(d.B, zero, 1e-6), method)
	}
}

func TestToDiscreteInvalidTimestep(t *testing.T) {
	assert := assert.New(t)

	c, err := FromModel(imp)
	require.NoError(t, err)

	for _, dt := range []float64{0, -0.001, math.NaN(), math.Inf(1)} {
		d, err := c.ToDiscrete(dt, ZOHExact)
		assert.Nil(d)
		assert.True(errors.Is(err, impedance.ErrInvalidTimestep))
	}

	d, err := c.ToDiscrete(0.001, Method(42))
	assert.Nil(d)
	assert.Error(err)
}

func TestToDiscreteSingular(t *testing.T) {
	assert := assert.New(t)

	c, err := FromModel(free)
	require.NoError(t, err)

	n := impedance.Dof
	dt := 0.01

	// double integrator: exact solution is known in closed form
	exact, err := c.ToDiscrete(dt, ZOHExact)
	require.NoError(t, err)
	assert.False(exact.PinvFallback())

	assert.True(mat.EqualApprox(matrix.Block(exact.A, 0, n, n, 2*n), diag(n, dt), 1e-12))
	assert.True(mat.EqualApprox(matrix.Block(exact.B, 0, n, 0, n), diag(n, dt*dt/2), 1e-12))
	assert.True(mat.EqualApprox(matrix.Block(exact.B, n, 2*n, 0, n), diag(n, dt), 1e-12))

	// inverse method falls back to pseudo-inverse and loses the position term
	inv, err := c.ToDiscrete(dt, ZOHInverse)
	require.NoError(t, err)
	assert.True(inv.PinvFallback())
	assert.True(mat.EqualApprox(inv.A, exact.A, 1e-12))
	assert.True(mat.EqualApprox(matrix.Block(inv.B, 0, n, 0, n), mat.NewDense(n, n, nil), 1e-12))
	assert.True(mat.EqualApprox(matrix.Block(inv.B, n, 2*n, 0, n), diag(n, dt), 1e-12))
	assert.True(matrix.IsFinite(inv.B))
}

func TestToDiscreteNonFinite(t *testing.T) {
	assert := assert.New(t)

	var derr *impedance.DiscretizationError

	// non-finite continuous model
	a := mat.NewDense(2, 2, []float64{0, 1, math.NaN(), 0})
	c, err := NewContinuous(a, mat.NewDense(2, 1, []float64{0, 1}))
	require.NoError(t, err)

	d, err := c.ToDiscrete(0.01, ZOHExact)
	assert.Nil(d)
	assert.True(errors.As(err, &derr))
	assert.Equal("A", derr.Matrix)
	assert.True(errors.Is(err, impedance.ErrNonFinite))

	// A*Ts overflows
	c, err = FromModel(imp)
	require.NoError(t, err)
	for _, method := range []Method{ZOHExact, ZOHInverse} {
		d, err = c.ToDiscrete(math.MaxFloat64, method)
		assert.Nil(d)
		assert.True(errors.As(err, &derr), method)
		assert.True(errors.Is(err, impedance.ErrNonFinite), method)
	}

	// exponential overflows
	c, err = NewContinuous(mat.NewDense(1, 1, []float64{1000}), mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	for _, method := range []Method{ZOHExact, ZOHInverse} {
		d, err = c.ToDiscrete(10, method)
		assert.Nil(d)
		assert.True(errors.As(err, &derr), method)
		assert.True(errors.Is(err, impedance.ErrNonFinite), method)
	}
}

func TestToDiscreteInverseControlMatrix(t *testing.T) {
	assert := assert.New(t)

	for _, m := range []*model.Impedance{imp, free} {
		c, err := FromModel(m)
		require.NoError(t, err)

		var d *Discrete
		assert.NotPanics(func() { d, err = c.ToDiscrete(0.001, ZOHInverse) })
		require.NoError(t, err)

		r, cols := d.ControlMatrix().Dims()
		assert.Equal(impedance.StateLen, r)
		assert.Equal(impedance.InputLen, cols)

		r, cols = d.SystemMatrix().Dims()
		assert.Equal(impedance.StateLen, r)
		assert.Equal(impedance.StateLen, cols)
	}

	// inv(A)*(Ad - I)*B evaluated step by step
	c, err := FromModel(imp)
	require.NoError(t, err)
	d, err := c.ToDiscrete(0.001, ZOHInverse)
	require.NoError(t, err)

	Ad := &mat.Dense{}
	ATs := &mat.Dense{}
	ATs.Scale(0.001, c.A)
	Ad.Exp(ATs)
	Ad.Sub(Ad, matrix.Identity(impedance.StateLen))
	Ainv := &mat.Dense{}
	require.NoError(t, Ainv.Inverse(c.A))
	want := &mat.Dense{}
	want.Product(Ainv, Ad, c.B)

	assert.True(mat.EqualApprox(want, d.ControlMatrix(), 1e-12))
}
