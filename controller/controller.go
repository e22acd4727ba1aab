package controller

import (
	"fmt"
	"io"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/model"
	"github.com/milosgajdos/go-impedance/params"
	"github.com/milosgajdos/go-impedance/sim"
	log "github.com/sirupsen/logrus"
)

// Controller computes the next impedance model state every control tick.
// It caches the discrete-time model for as long as the active parameters and
// the timestep stay the same.
// Controller is not safe for concurrent use.
type Controller struct {
	// store holds active parameters
	store *params.Store
	// method is discretization method
	method sim.Method
	// cache enables discrete model caching
	cache bool
	// logger logs model recomputation and fallbacks
	logger log.FieldLogger
	// p and dt are the parameters and timestep d was computed for
	p  *params.Params
	dt float64
	d  *sim.Discrete
}

// Option configures Controller
type Option func(*Controller)

// WithLogger sets controller logger
func WithLogger(l log.FieldLogger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithMethod sets discretization method
func WithMethod(m sim.Method) Option {
	return func(c *Controller) {
		c.method = m
	}
}

// WithCache enables or disables discrete model caching
func WithCache(enabled bool) Option {
	return func(c *Controller) {
		c.cache = enabled
	}
}

// New creates new Controller which reads its parameters from store.
// If store is nil, an empty store is created and NextState fails until parameters are set.
func New(store *params.Store, opts ...Option) *Controller {
	if store == nil {
		store = params.NewStore(nil)
	}

	discard := log.New()
	discard.SetOutput(io.Discard)

	c := &Controller{
		store:  store,
		method: sim.ZOHExact,
		cache:  true,
		logger: discard,
	}

	for _, apply := range opts {
		apply(c)
	}

	return c
}

// Store returns parameter store used by the controller
func (c *Controller) Store() *params.Store {
	return c.store
}

// Model returns discrete-time impedance model for the active parameters and timestep dt.
// It returns ErrMissingParams if no parameters are set, InvalidTimestep error if dt
// is not a positive finite number, or the error of the failed model build or discretization.
func (c *Controller) Model(dt float64) (*sim.Discrete, error) {
	if err := impedance.CheckTimestep(dt); err != nil {
		return nil, err
	}

	p := c.store.Load()
	if p == nil {
		return nil, impedance.ErrMissingParams
	}

	if c.cache && c.d != nil && c.p == p && c.dt == dt {
		return c.d, nil
	}

	m, err := model.FromParams(p)
	if err != nil {
		return nil, fmt.Errorf("failed to build impedance model: %w", err)
	}

	ct, err := sim.FromModel(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create continuous model: %w", err)
	}

	d, err := ct.ToDiscrete(dt, c.method)
	if err != nil {
		return nil, fmt.Errorf("failed to discretize impedance model: %w", err)
	}

	c.logger.WithFields(log.Fields{
		"dt":        dt,
		"method":    c.method,
		"mass_rank": m.MassRank(),
	}).Debug("discrete model recomputed")

	if d.PinvFallback() {
		c.logger.WithFields(log.Fields{
			"dt":     dt,
			"method": c.method,
		}).Warn("state matrix not invertible: control matrix computed from pseudo-inverse")
	}

	if c.cache {
		c.p, c.dt, c.d = p, dt, d
	}

	return d, nil
}

// NextState returns impedance model state after a tick of length dt given
// the reference pose and velocity, the current model pose and velocity,
// the measured interaction wrench fInt and the desired wrench f0.
// It returns error without any partial state if either the parameters are
// missing or the model could not be built or discretized.
func (c *Controller) NextState(poseRef impedance.Pose, velRef impedance.Velocity,
	poseModel impedance.Pose, velModel impedance.Velocity,
	fInt, f0 impedance.Wrench, dt float64) (impedance.State, error) {
	var next impedance.State

	d, err := c.Model(dt)
	if err != nil {
		return next, err
	}

	x := impedance.NewState(poseModel, velModel)
	u := impedance.NewInput(fInt, f0, poseRef, velRef)

	d.StepTo(&next, &x, &u)

	return next, nil
}

// Step stores the state following x under input u after a tick of length dt in dst.
// dst may be the same as x. dst is left unchanged on error.
func (c *Controller) Step(dst *impedance.State, x *impedance.State, u *impedance.Input, dt float64) error {
	var s impedance.Stepper
	s, err := c.Model(dt)
	if err != nil {
		return err
	}

	s.StepTo(dst, x, u)

	return nil
}
