package config

import (
	"fmt"
	"os"
	"path/filepath"

	impedance "github.com/milosgajdos/go-impedance"
	"github.com/milosgajdos/go-impedance/params"
	"github.com/milosgajdos/go-impedance/sim"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.001
	DefaultSteps         = 2000
	DefaultWallPosition  = 0.05
	DefaultWallStiffness = 2000.0
	DefaultApproachSpeed = 0.1
)

type Config struct {
	ControlDim     int                  `yaml:"control_dim"`
	Params         ParamsConfig         `yaml:"params"`
	Discretization DiscretizationConfig `yaml:"discretization"`
	Log            LogConfig            `yaml:"log"`
	Sim            SimConfig            `yaml:"sim"`
}

// ParamsConfig locates impedance parameter files.
// Relative paths are resolved against the directory of the config file.
type ParamsConfig struct {
	Stiffness         string `yaml:"stiffness,omitempty"`
	Damping           string `yaml:"damping,omitempty"`
	Inertia           string `yaml:"inertia,omitempty"`
	Coefficients      string `yaml:"coefficients,omitempty"`
	AllowSingularMass bool   `yaml:"allow_singular_mass"`
}

type DiscretizationConfig struct {
	Method string `yaml:"method"`
	Cache  bool   `yaml:"cache"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SimConfig configures the closed-loop simulation of the end-effector
// approaching a virtual spring wall along the x axis.
type SimConfig struct {
	Dt            float64 `yaml:"dt"`
	Steps         int     `yaml:"steps"`
	NoiseStd      float64 `yaml:"noise_std"`
	Seed          uint64  `yaml:"seed"`
	WallPosition  float64 `yaml:"wall_position"`
	WallStiffness float64 `yaml:"wall_stiffness"`
	ApproachSpeed float64 `yaml:"approach_speed"`
	DesiredForce  float64 `yaml:"desired_force"`
}

func DefaultConfig() *Config {
	return &Config{
		ControlDim: int(params.DimMatrices),
		Discretization: DiscretizationConfig{
			Method: sim.ZOHExact.String(),
			Cache:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Sim: SimConfig{
			Dt:            DefaultDt,
			Steps:         DefaultSteps,
			Seed:          1,
			WallPosition:  DefaultWallPosition,
			WallStiffness: DefaultWallStiffness,
			ApproachSpeed: DefaultApproachSpeed,
		},
	}
}

// Load reads config from path on top of DefaultConfig.
// Relative parameter paths are resolved against the directory holding path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{
		&c.Params.Stiffness,
		&c.Params.Damping,
		&c.Params.Inertia,
		&c.Params.Coefficients,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate returns error if the config can't be used to run the controller.
func (c *Config) Validate() error {
	dim := params.ControlDim(c.ControlDim)
	if !dim.Valid() {
		return fmt.Errorf("invalid control_dim: %d", c.ControlDim)
	}

	switch dim {
	case params.DimMatrices:
		if c.Params.Stiffness == "" || c.Params.Damping == "" || c.Params.Inertia == "" {
			return fmt.Errorf("control_dim %d requires stiffness, damping and inertia paths", c.ControlDim)
		}
	case params.DimCoefficients:
		if c.Params.Coefficients == "" {
			return fmt.Errorf("control_dim %d requires coefficients path", c.ControlDim)
		}
	}

	if _, err := c.Method(); err != nil {
		return err
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if _, err := c.Formatter(); err != nil {
		return err
	}

	if err := impedance.CheckTimestep(c.Sim.Dt); err != nil {
		return fmt.Errorf("sim dt: %w", err)
	}
	if c.Sim.Steps <= 0 {
		return fmt.Errorf("sim steps must be positive, got %d", c.Sim.Steps)
	}
	if c.Sim.NoiseStd < 0 {
		return fmt.Errorf("sim noise_std must not be negative, got %f", c.Sim.NoiseStd)
	}
	if c.Sim.WallStiffness < 0 {
		return fmt.Errorf("sim wall_stiffness must not be negative, got %f", c.Sim.WallStiffness)
	}

	return nil
}

// Dim returns configured control dimension
func (c *Config) Dim() params.ControlDim {
	return params.ControlDim(c.ControlDim)
}

// Method returns configured discretization method
func (c *Config) Method() (sim.Method, error) {
	return sim.ParseMethod(c.Discretization.Method)
}

// Source returns configured parameter files
func (c *Config) Source() params.Source {
	return params.Source{
		Stiffness:    c.Params.Stiffness,
		Damping:      c.Params.Damping,
		Inertia:      c.Params.Inertia,
		Coefficients: c.Params.Coefficients,
	}
}

// LoadParams loads and validates configured impedance parameters
func (c *Config) LoadParams() (*params.Params, error) {
	var opts []params.Option
	if c.Params.AllowSingularMass {
		opts = append(opts, params.AllowSingularMass())
	}

	return params.Load(c.Dim(), c.Source(), opts...)
}

// Formatter returns configured log formatter
func (c *Config) Formatter() (log.Formatter, error) {
	switch c.Log.Format {
	case "text", "":
		return &log.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &log.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
}

// Logger returns new logger configured with the log level and format
func (c *Config) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	f, err := c.Formatter()
	if err != nil {
		return nil, err
	}

	l := log.New()
	l.SetLevel(level)
	l.SetFormatter(f)

	return l, nil
}
