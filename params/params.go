package params

import (
	"fmt"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/matrix"
	"gonum.org/v1/gonum/mat"
)

// Params holds validated impedance model parameters.
// Params is immutable: accessors return copies of the underlying matrices.
type Params struct {
	// k is stiffness matrix
	k *mat.Dense
	// c is damping matrix
	c *mat.Dense
	// m is virtual inertia matrix
	m *mat.Dense
	// mRank is effective rank of m
	mRank int
	// dim is control dimension the parameters were built for
	dim ControlDim
}

// Option configures parameter validation
type Option func(*options)

type options struct {
	allowSingularMass bool
	dim               ControlDim
}

// AllowSingularMass accepts rank deficient inertia matrices.
// The model then uses least-squares pseudo-inverse of the inertia matrix.
// Zero inertia matrix is rejected regardless of this option.
func AllowSingularMass() Option {
	return func(o *options) {
		o.allowSingularMass = true
	}
}

func withDim(d ControlDim) Option {
	return func(o *options) {
		o.dim = d
	}
}

// New validates K, C and M and returns new Params.
// It returns error if either of the following conditions is met:
//   - any matrix is not Dof x Dof: ShapeError
//   - any matrix contains NaN or Inf entries: ErrNonFinite
//   - M has zero rank, or M is rank deficient and AllowSingularMass was not given: ErrSingular
func New(K, C, M mat.Matrix, opts ...Option) (*Params, error) {
	o := options{dim: DimMatrices}
	for _, apply := range opts {
		apply(&o)
	}

	for _, in := range []struct {
		name string
		m    mat.Matrix
	}{
		{"stiffness", K},
		{"damping", C},
		{"inertia", M},
	} {
		if err := matrix.CheckDims(in.name, in.m, impedance.Dof, impedance.Dof); err != nil {
			return nil, err
		}
		if !matrix.IsFinite(in.m) {
			return nil, fmt.Errorf("invalid %s matrix: %w", in.name, impedance.ErrNonFinite)
		}
	}

	_, rank, err := matrix.Pinv(M, matrix.DefaultRcond)
	if err != nil {
		return nil, fmt.Errorf("invalid inertia matrix: %w", err)
	}

	if rank == 0 || (rank < impedance.Dof && !o.allowSingularMass) {
		return nil, fmt.Errorf("invalid inertia matrix: rank %d: %w", rank, impedance.ErrSingular)
	}

	return &Params{
		k:     mat.DenseCopyOf(K),
		c:     mat.DenseCopyOf(C),
		m:     mat.DenseCopyOf(M),
		mRank: rank,
		dim:   o.dim,
	}, nil
}

// Stiffness returns stiffness matrix K
func (p *Params) Stiffness() mat.Matrix {
	return mat.DenseCopyOf(p.k)
}

// Damping returns damping matrix C
func (p *Params) Damping() mat.Matrix {
	return mat.DenseCopyOf(p.c)
}

// Inertia returns virtual inertia matrix M
func (p *Params) Inertia() mat.Matrix {
	return mat.DenseCopyOf(p.m)
}

// MassRank returns effective rank of the inertia matrix
func (p *Params) MassRank() int {
	return p.mRank
}

// Dim returns control dimension the parameters were created with
func (p *Params) Dim() ControlDim {
	return p.dim
}

// String implements the Stringer interface.
func (p *Params) String() string {
	return fmt.Sprintf("Params{\nDim=%v\nK=%v\nC=%v\nM=%v\n}", p.dim,
		mat.Formatted(p.k, mat.Prefix("  "), mat.Squeeze()),
		mat.Formatted(p.c, mat.Prefix("  "), mat.Squeeze()),
		mat.Formatted(p.m, mat.Prefix("  "), mat.Squeeze()))
}
