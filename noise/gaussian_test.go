package noise

import (
	"os"
	"testing"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	cov *mat.SymDense
)

func setup() {
	cov = mat.NewSymDense(impedance.Dof, nil)
	for i := 0; i < impedance.Dof; i++ {
		cov.SetSym(i, i, 0.25)
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

func TestNewGaussian(t *testing.T) {
	assert := assert.New(t)

	g, err := NewGaussian(cov, 1)
	assert.NotNil(g)
	assert.NoError(err)

	// invalid covariance dimensions
	g, err = NewGaussian(mat.NewSymDense(3, nil), 1)
	assert.Nil(g)
	assert.Error(err)

	g, err = NewGaussian(nil, 1)
	assert.Nil(g)
	assert.Error(err)

	// zero covariance is not positive definite
	g, err = NewGaussian(mat.NewSymDense(impedance.Dof, nil), 1)
	assert.Nil(g)
	assert.Error(err)
}

func TestNewIsotropic(t *testing.T) {
	assert := assert.New(t)

	g, err := NewIsotropic(2, 0.1, 1)
	assert.NotNil(g)
	assert.NoError(err)

	c := g.Cov()
	assert.InDelta(4.0, c.At(0, 0), 1e-12)
	assert.InDelta(4.0, c.At(2, 2), 1e-12)
	assert.InDelta(0.01, c.At(3, 3), 1e-12)
	assert.InDelta(0.01, c.At(5, 5), 1e-12)
	assert.Equal(0.0, c.At(0, 1))

	g, err = NewIsotropic(0, 0.1, 1)
	assert.Nil(g)
	assert.Error(err)

	g, err = NewIsotropic(-1, 0.1, 1)
	assert.Nil(g)
	assert.Error(err)
}

func TestGaussianSample(t *testing.T) {
	assert := assert.New(t)

	g, err := NewGaussian(cov, 42)
	assert.NoError(err)

	n := 5000
	col := make([]float64, n)
	first := g.Sample()
	for i := 0; i < n; i++ {
		col[i] = g.Sample()[0]
	}

	mean, std := stat.MeanStdDev(col, nil)
	assert.InDelta(0.0, mean, 0.05)
	assert.InDelta(0.5, std, 0.05)

	// same seed yields the same sequence after reset
	g.Reset()
	assert.Equal(first, g.Sample())

	h, err := NewGaussian(cov, 42)
	assert.NoError(err)
	assert.Equal(first, h.Sample())
}

func TestGaussianCov(t *testing.T) {
	assert := assert.New(t)

	g, err := NewGaussian(cov, 1)
	assert.NoError(err)

	c := g.Cov()
	assert.True(mat.EqualApprox(cov, c, 1e-12))

	// returned covariance is a copy
	c.(*mat.SymDense).SetSym(0, 0, 100.0)
	assert.Equal(0.25, g.Cov().At(0, 0))
}

func TestGaussianString(t *testing.T) {
	assert := assert.New(t)

	g, err := NewGaussian(cov, 1)
	assert.NoError(err)
	assert.Contains(g.String(), "Gaussian{")
}
