package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTol      = 1.5e-3
	DefaultKnots    = 1000
	DefaultStepTol  = 1e-9
	DefaultMaxSteps = 1_000_000
	DefaultDegree   = 3
	DefaultGuess    = 4.0
)

type Config struct {
	Technology    TechnologyConfig `yaml:"technology"`
	Workers       PopulationConfig `yaml:"workers"`
	Firms         PopulationConfig `yaml:"firms"`
	Assortativity string           `yaml:"assortativity"`
	Solver        SolverConfig     `yaml:"solver"`
}

// TechnologyConfig parameterizes the nested CES production function.
type TechnologyConfig struct {
	Alpha  float64 `yaml:"alpha"`
	Beta   float64 `yaml:"beta"`
	OmegaA float64 `yaml:"omega_a"`
	OmegaB float64 `yaml:"omega_b"`
	SigmaA float64 `yaml:"sigma_a"`
	SigmaB float64 `yaml:"sigma_b"`
}

// PopulationConfig describes one side of the market. Location and Scale
// parameterize the lognormal distribution; Lower and Upper the uniform one.
type PopulationConfig struct {
	Distribution string  `yaml:"distribution"`
	Location     float64 `yaml:"location"`
	Scale        float64 `yaml:"scale"`
	Lower        float64 `yaml:"lower"`
	Upper        float64 `yaml:"upper"`
	Mass         float64 `yaml:"mass"`
}

type SolverConfig struct {
	GuessFirmSizeUpper float64 `yaml:"guess_firm_size_upper"`
	Tol                float64 `yaml:"tol"`
	Knots              int     `yaml:"knots"`
	Integrator         string  `yaml:"integrator"`
	StepTol            float64 `yaml:"step_tol"`
	MaxSteps           int     `yaml:"max_steps"`
	Degree             int     `yaml:"degree"`
}

func DefaultConfig() *Config {
	return &Config{
		Technology: TechnologyConfig{
			Alpha:  1.0,
			Beta:   1.0,
			OmegaA: 0.5,
			OmegaB: 0.5,
			SigmaA: 1.0,
			SigmaB: 1.0,
		},
		Workers: PopulationConfig{
			Distribution: "lognormal",
			Location:     0,
			Scale:        1,
			Mass:         1,
		},
		Firms: PopulationConfig{
			Distribution: "lognormal",
			Location:     0,
			Scale:        1,
			Mass:         1,
		},
		Assortativity: "positive",
		// The lognormal tails need a fine knot grid: a coarse grid can step
		// straight through the firm-exhaustion point before it is detected.
		//
		// The bracket top matters beyond being an upper bound: the first
		// bisection guess is half of it, and when that trajectory drifts up
		// to the top itself the solve aborts as infeasible. On the benchmark
		// economy tops of 3 or 5 fail that way while 4 and 8 converge.
		Solver: SolverConfig{
			GuessFirmSizeUpper: DefaultGuess,
			Tol:                DefaultTol,
			Knots:              DefaultKnots,
			Integrator:         "rk45",
			StepTol:            DefaultStepTol,
			MaxSteps:           DefaultMaxSteps,
			Degree:             DefaultDegree,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate catches configuration mistakes before any expensive work starts.
func (c *Config) Validate() error {
	switch c.Assortativity {
	case "positive", "negative":
	default:
		return fmt.Errorf("config: assortativity must be positive or negative, got %q", c.Assortativity)
	}
	for side, p := range map[string]PopulationConfig{"workers": c.Workers, "firms": c.Firms} {
		switch p.Distribution {
		case "lognormal":
			if p.Scale <= 0 {
				return fmt.Errorf("config: %s: lognormal scale must be positive", side)
			}
		case "uniform":
			if p.Lower >= p.Upper {
				return fmt.Errorf("config: %s: uniform support [%g, %g] out of order", side, p.Lower, p.Upper)
			}
			if p.Lower < 0 {
				return fmt.Errorf("config: %s: types must be non-negative", side)
			}
		default:
			return fmt.Errorf("config: %s: unknown distribution %q", side, p.Distribution)
		}
		if p.Mass <= 0 {
			return fmt.Errorf("config: %s: mass must be positive", side)
		}
	}
	if c.Solver.GuessFirmSizeUpper <= 0 {
		return fmt.Errorf("config: solver: guess_firm_size_upper must be positive")
	}
	if c.Solver.Knots < 2 {
		return fmt.Errorf("config: solver: need at least 2 knots")
	}
	if d := c.Solver.Degree; d != 1 && d != 3 {
		return fmt.Errorf("config: solver: interpolation degree must be 1 or 3, got %d", d)
	}
	return nil
}

// ParamNames returns the technology parameter names in their canonical
// order, matching ParamValues.
func (c *Config) ParamNames() []string {
	return []string{"alpha", "beta", "omega_A", "omega_B", "sigma_A", "sigma_B"}
}

func (c *Config) ParamValues() []float64 {
	tech := c.Technology
	return []float64{tech.Alpha, tech.Beta, tech.OmegaA, tech.OmegaB, tech.SigmaA, tech.SigmaB}
}
