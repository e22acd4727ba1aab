package loop

import (
	"context"
	"errors"
	"fmt"
	"io"

	impedance "github.com/milosgajdos/go-impedance"
	log "github.com/sirupsen/logrus"
)

// ErrFault is returned by Tick while the runner is in fault state
var ErrFault = errors.New("runner faulted")

// Controller computes the next impedance model state
type Controller interface {
	// NextState returns the model state after a tick of length dt
	NextState(poseRef impedance.Pose, velRef impedance.Velocity,
		poseModel impedance.Pose, velModel impedance.Velocity,
		fInt, f0 impedance.Wrench, dt float64) (impedance.State, error)
}

// Sample is a single control tick input
type Sample struct {
	// PoseRef is reference pose
	PoseRef impedance.Pose
	// VelRef is reference velocity
	VelRef impedance.Velocity
	// FInt is measured interaction wrench
	FInt impedance.Wrench
	// F0 is desired interaction wrench
	F0 impedance.Wrench
	// Dt is tick length
	Dt float64
}

// Runner owns impedance model state and advances it one sample at a time.
// Runner is not safe for concurrent use: samples are handed to it through Run.
type Runner struct {
	ctrl   Controller
	logger log.FieldLogger
	x      impedance.State
	fault  error
	ticks  uint64
}

// Option configures Runner
type Option func(*Runner)

// WithLogger sets runner logger
func WithLogger(l log.FieldLogger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates new Runner with initial state x0.
// It returns error if ctrl is nil.
func New(ctrl Controller, x0 impedance.State, opts ...Option) (*Runner, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("invalid controller supplied: %v", ctrl)
	}

	discard := log.New()
	discard.SetOutput(io.Discard)

	r := &Runner{
		ctrl:   ctrl,
		logger: discard,
		x:      x0,
	}

	for _, apply := range opts {
		apply(r)
	}

	return r, nil
}

// State returns current model state
func (r *Runner) State() impedance.State {
	return r.x
}

// Ticks returns the number of successfully applied ticks
func (r *Runner) Ticks() uint64 {
	return r.ticks
}

// Fault returns the error which put the runner into fault state or nil
func (r *Runner) Fault() error {
	return r.fault
}

// Reset clears fault state and sets model state to x0
func (r *Runner) Reset(x0 impedance.State) {
	r.x = x0
	r.fault = nil
	r.ticks = 0
}

// Tick advances model state by sample s and returns the new state.
// If the controller fails, the previous state is kept, the runner enters
// fault state and the error is returned. Tick returns ErrFault until Reset.
func (r *Runner) Tick(s Sample) (impedance.State, error) {
	if r.fault != nil {
		return r.x, fmt.Errorf("%w: %v", ErrFault, r.fault)
	}

	next, err := r.ctrl.NextState(s.PoseRef, s.VelRef, r.x.Pose(), r.x.Velocity(), s.FInt, s.F0, s.Dt)
	if err != nil {
		r.fault = err
		r.logger.WithFields(log.Fields{
			"tick": r.ticks,
			"dt":   s.Dt,
		}).WithError(err).Warn("tick failed: holding state")

		return r.x, err
	}

	r.x = next
	r.ticks++

	return r.x, nil
}

// Run consumes samples from in and publishes every new state to out until
// in is closed, ctx is cancelled or a tick fails.
// out may be nil in which case the states are not published.
// It returns nil when in is closed, ctx.Err() on cancellation or the tick error.
func (r *Runner) Run(ctx context.Context, in <-chan Sample, out chan<- impedance.State) error {
	for {
		select {
		case <-ctx.Done():
			r.logger.WithField("ticks", r.ticks).Debug("context cancelled: stopping runner")
			return ctx.Err()
		case s, ok := <-in:
			if !ok {
				r.logger.WithField("ticks", r.ticks).Debug("input closed: stopping runner")
				return nil
			}

			x, err := r.Tick(s)
			if err != nil {
				return fmt.Errorf("tick %d: %w", r.ticks, err)
			}

			if out == nil {
				continue
			}

			select {
			case out <- x:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
