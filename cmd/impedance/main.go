package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/config"
	"github.com/milosgajdos/go-impedance/controller"
	"github.com/milosgajdos/go-impedance/params"
	"github.com/milosgajdos/matrix"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	logLevel     string
	stiffness    string
	damping      string
	inertia      string
	coefficients string
	controlDim   int
	method       string
	// step flags
	poseRef      []float64
	velRef       []float64
	poseModel    []float64
	velModel     []float64
	force        []float64
	desiredForce []float64
	dt           float64
	// simulate flags
	steps    int
	simDt    float64
	noiseStd float64
	seed     uint64
	pngFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "impedance",
		Short:         "impedance control model of a robot end-effector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&stiffness, "stiffness", "", "stiffness matrix CSV file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&damping, "damping", "", "damping matrix CSV file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&inertia, "inertia", "", "inertia matrix CSV file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&coefficients, "coefficients", "", "coefficient vector CSV file (overrides config)")
	rootCmd.PersistentFlags().IntVar(&controlDim, "control-dim", 0, "control dimension: 108 or 26 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&method, "method", "", "discretization method: exact or inverse (overrides config)")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "print active impedance parameters",
		RunE:  printParams,
	}

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "compute the next impedance model state",
		RunE:  step,
	}
	stepCmd.Flags().Float64SliceVar(&poseRef, "pose-ref", make([]float64, impedance.Dof), "reference pose")
	stepCmd.Flags().Float64SliceVar(&velRef, "vel-ref", make([]float64, impedance.Dof), "reference velocity")
	stepCmd.Flags().Float64SliceVar(&poseModel, "pose", make([]float64, impedance.Dof), "model pose")
	stepCmd.Flags().Float64SliceVar(&velModel, "vel", make([]float64, impedance.Dof), "model velocity")
	stepCmd.Flags().Float64SliceVar(&force, "force", make([]float64, impedance.Dof), "measured interaction wrench")
	stepCmd.Flags().Float64SliceVar(&desiredForce, "desired-force", make([]float64, impedance.Dof), "desired interaction wrench")
	stepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")

	simCmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate the end-effector pushing against a virtual spring wall",
		RunE:  simulate,
	}
	simCmd.Flags().IntVar(&steps, "steps", 0, "number of ticks (overrides config)")
	simCmd.Flags().Float64Var(&simDt, "dt", 0, "timestep (overrides config)")
	simCmd.Flags().Float64Var(&noiseStd, "noise", -1, "force sensor noise standard deviation (overrides config)")
	simCmd.Flags().Uint64Var(&seed, "seed", 0, "noise seed (overrides config)")
	simCmd.Flags().StringVar(&pngFile, "png", "", "save trajectory plot to PNG file")

	rootCmd.AddCommand(paramsCmd, stepCmd, simCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("stiffness") {
		cfg.Params.Stiffness = stiffness
	}
	if flags.Changed("damping") {
		cfg.Params.Damping = damping
	}
	if flags.Changed("inertia") {
		cfg.Params.Inertia = inertia
	}
	if flags.Changed("coefficients") {
		cfg.Params.Coefficients = coefficients
	}
	if flags.Changed("control-dim") {
		cfg.ControlDim = controlDim
	}
	if flags.Changed("method") {
		cfg.Discretization.Method = method
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// newController loads config, parameters and logger and creates new controller
func newController(cmd *cobra.Command) (*controller.Controller, *config.Config, *log.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := cfg.LoadParams()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	m, err := cfg.Method()
	if err != nil {
		return nil, nil, nil, err
	}

	logger.WithFields(log.Fields{
		"control_dim": p.Dim(),
		"mass_rank":   p.MassRank(),
		"method":      m,
	}).Info("impedance parameters loaded")

	ctrl := controller.New(params.NewStore(p),
		controller.WithLogger(logger),
		controller.WithMethod(m),
		controller.WithCache(cfg.Discretization.Cache),
	)

	return ctrl, cfg, logger, nil
}

func printParams(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := newController(cmd)
	if err != nil {
		return err
	}

	p := ctrl.Store().Load()

	fmt.Printf("control dimension: %d (%s)\n", int(p.Dim()), p.Dim())
	fmt.Printf("inertia rank: %d\n\n", p.MassRank())
	fmt.Printf("K:\n%v\n\n", matrix.Format(p.Stiffness()))
	fmt.Printf("C:\n%v\n\n", matrix.Format(p.Damping()))
	fmt.Printf("M:\n%v\n", matrix.Format(p.Inertia()))

	return nil
}

func step(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := newController(cmd)
	if err != nil {
		return err
	}

	pr, err := impedance.PoseFromSlice(poseRef)
	if err != nil {
		return fmt.Errorf("pose-ref: %w", err)
	}
	vr, err := impedance.VelocityFromSlice(velRef)
	if err != nil {
		return fmt.Errorf("vel-ref: %w", err)
	}
	pm, err := impedance.PoseFromSlice(poseModel)
	if err != nil {
		return fmt.Errorf("pose: %w", err)
	}
	vm, err := impedance.VelocityFromSlice(velModel)
	if err != nil {
		return fmt.Errorf("vel: %w", err)
	}
	fInt, err := impedance.WrenchFromSlice(force)
	if err != nil {
		return fmt.Errorf("force: %w", err)
	}
	f0, err := impedance.WrenchFromSlice(desiredForce)
	if err != nil {
		return fmt.Errorf("desired-force: %w", err)
	}

	x, err := ctrl.NextState(pr, vr, pm, vm, fInt, f0, dt)
	if err != nil {
		return err
	}

	fmt.Printf("pose:     %v\n", x.Pose())
	fmt.Printf("velocity: %v\n", x.Velocity())

	return nil
}
