package main

import (
	"context"
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/config"
	"github.com/milosgajdos/go-impedance/loop"
	"github.com/milosgajdos/go-impedance/noise"
	"github.com/milosgajdos/go-impedance/sim"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

// trajectory is a record of a simulation run
type trajectory struct {
	// times are tick times
	times []float64
	// states stores model state in rows
	states *mat.Dense
	// contact stores the wall reaction force along x
	contact []float64
}

// wall is a virtual spring wall perpendicular to the x axis
type wall struct {
	position  float64
	stiffness float64
}

// reaction returns the wall reaction force on the end-effector at x
func (w wall) reaction(x float64) float64 {
	return -w.stiffness * math.Max(0, x-w.position)
}

// runWall drives runner r along the x axis towards the wall at the approach speed
// configured in cfg and feeds the measured wall reaction back to it.
// The sensor side runs in the calling goroutine, r runs in its own one.
func runWall(ctx context.Context, r *loop.Runner, cfg config.SimConfig, n impedance.Noise) (*trajectory, error) {
	w := wall{position: cfg.WallPosition, stiffness: cfg.WallStiffness}

	tr := &trajectory{
		times:   make([]float64, cfg.Steps+1),
		states:  mat.NewDense(cfg.Steps+1, impedance.StateLen, nil),
		contact: make([]float64, cfg.Steps+1),
	}

	x := r.State()
	tr.states.SetRow(0, x[:])
	tr.contact[0] = w.reaction(x[0])

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan loop.Sample)
	out := make(chan impedance.State)
	errc := make(chan error, 1)

	go func() {
		errc <- r.Run(ctx, in, out)
	}()

	f0 := impedance.Wrench{-cfg.DesiredForce}
	for i := 0; i < cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return tr, err
		}

		t := float64(i) * cfg.Dt

		fInt := n.Sample()
		fInt[0] += w.reaction(x[0])

		s := loop.Sample{
			PoseRef: impedance.Pose{cfg.ApproachSpeed * t},
			VelRef:  impedance.Velocity{cfg.ApproachSpeed},
			FInt:    fInt,
			F0:      f0,
			Dt:      cfg.Dt,
		}

		select {
		case in <- s:
		case err := <-errc:
			return tr, fmt.Errorf("runner stopped at tick %d: %w", i, err)
		}

		select {
		case x = <-out:
		case err := <-errc:
			return tr, fmt.Errorf("runner stopped at tick %d: %w", i, err)
		}

		tr.times[i+1] = t + cfg.Dt
		tr.states.SetRow(i+1, x[:])
		tr.contact[i+1] = w.reaction(x[0])
	}

	close(in)

	return tr, <-errc
}

func newNoise(std float64, seed uint64) (impedance.Noise, error) {
	if std == 0 {
		return noise.Zero{}, nil
	}

	return noise.NewIsotropic(std, std, seed)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctrl, cfg, logger, err := newController(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Sim.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = simDt
	}
	if flags.Changed("noise") {
		cfg.Sim.NoiseStd = noiseStd
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid simulation config: %w", err)
	}

	n, err := newNoise(cfg.Sim.NoiseStd, cfg.Sim.Seed)
	if err != nil {
		return err
	}

	r, err := loop.New(ctrl, impedance.State{}, loop.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"steps": cfg.Sim.Steps,
		"dt":    cfg.Sim.Dt,
		"noise": n,
		"wall":  cfg.Sim.WallPosition,
	}).Info("simulation started")

	tr, err := runWall(cmd.Context(), r, cfg.Sim, n)
	if err != nil {
		return err
	}

	logger.WithField("ticks", r.Ticks()).Info("simulation finished")

	fmt.Println(asciigraph.Plot(mat.Col(nil, 0, tr.states),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("model position x [m]"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(tr.contact,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("wall reaction force [N]"),
	))
	fmt.Println()

	if pngFile == "" {
		return nil
	}

	plt, err := sim.NewTrajectoryPlot("impedance model", tr.times, tr.states, 0, 6)
	if err != nil {
		return fmt.Errorf("failed to make plot: %w", err)
	}

	if err := plt.Save(10*vg.Inch, 6*vg.Inch, pngFile); err != nil {
		return fmt.Errorf("failed to save plot to %s: %w", pngFile, err)
	}

	logger.WithField("file", pngFile).Info("trajectory plot saved")

	return nil
}
