package noise

import (
	"fmt"

	impedance "github.com/milosgajdos/go-impedance"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is zero-mean Gaussian wrench noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed seeds the random source
	seed uint64
	// buf stores the latest sample
	buf []float64
}

// NewGaussian creates new zero-mean Gaussian wrench noise with covariance cov
// drawing samples from a source seeded with seed.
// It returns error if cov is not Dof x Dof or is not positive definite.
func NewGaussian(cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || cov.SymmetricDim() != impedance.Dof {
		return nil, fmt.Errorf("invalid covariance dimension")
	}

	c := mat.NewSymDense(impedance.Dof, nil)
	c.CopySym(cov)

	dist, ok := newGaussianDist(c, seed)
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise: covariance not positive definite")
	}

	return &Gaussian{
		dist: dist,
		cov:  c,
		seed: seed,
		buf:  make([]float64, impedance.Dof),
	}, nil
}

// NewIsotropic creates new Gaussian wrench noise with independent force
// components of standard deviation forceStd and moment components of standard deviation momentStd.
// It returns error if either of the standard deviations is not positive.
func NewIsotropic(forceStd, momentStd float64, seed uint64) (*Gaussian, error) {
	if forceStd <= 0 || momentStd <= 0 {
		return nil, fmt.Errorf("invalid standard deviation: force %v, moment %v", forceStd, momentStd)
	}

	cov := mat.NewSymDense(impedance.Dof, nil)
	for i := 0; i < 3; i++ {
		cov.SetSym(i, i, forceStd*forceStd)
		cov.SetSym(i+3, i+3, momentStd*momentStd)
	}

	return NewGaussian(cov, seed)
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() impedance.Wrench {
	var w impedance.Wrench
	copy(w[:], g.dist.Rand(g.buf))

	return w
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Reset resets Gaussian noise: the sample sequence restarts from the seed.
func (g *Gaussian) Reset() {
	// covariance was validated when g was created
	g.dist, _ = newGaussianDist(g.cov, g.seed)
}

func newGaussianDist(cov mat.Symmetric, seed uint64) (*distmv.Normal, bool) {
	return distmv.NewNormal(make([]float64, impedance.Dof), cov, rand.NewSource(seed))
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nCov=%v\n}", mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
