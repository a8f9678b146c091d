package config

// Presets are ready-made economies. "benchmark" is the fully symmetric case
// whose equilibrium is known in closed form; the others vary one margin at
// a time.
var Presets = map[string]*Config{
	"benchmark": DefaultConfig(),

	"more-workers": {
		Technology: TechnologyConfig{
			Alpha: 1.0, Beta: 1.0,
			OmegaA: 0.5, OmegaB: 0.5,
			SigmaA: 0.5, SigmaB: 1.0,
		},
		Workers: PopulationConfig{
			Distribution: "lognormal", Location: 0, Scale: 1, Mass: 1,
		},
		Firms: PopulationConfig{
			Distribution: "lognormal", Location: 0, Scale: 1, Mass: 0.5,
		},
		Assortativity: "positive",
		Solver: SolverConfig{
			GuessFirmSizeUpper: DefaultGuess,
			Tol:                DefaultTol,
			Knots:              DefaultKnots,
			Integrator:         "rk45",
			StepTol:            DefaultStepTol,
			MaxSteps:           DefaultMaxSteps,
			Degree:             DefaultDegree,
		},
	},

	"spread-firms": {
		Technology: TechnologyConfig{
			Alpha: 1.0, Beta: 1.0,
			OmegaA: 0.5, OmegaB: 0.5,
			SigmaA: 1.0, SigmaB: 1.0,
		},
		Workers: PopulationConfig{
			Distribution: "lognormal", Location: 0, Scale: 1, Mass: 1,
		},
		Firms: PopulationConfig{
			Distribution: "lognormal", Location: 0, Scale: 1.5, Mass: 1,
		},
		Assortativity: "positive",
		Solver: SolverConfig{
			GuessFirmSizeUpper: DefaultGuess,
			Tol:                DefaultTol,
			Knots:              DefaultKnots,
			Integrator:         "rk45",
			StepTol:            DefaultStepTol,
			MaxSteps:           DefaultMaxSteps,
			Degree:             DefaultDegree,
		},
	},

	"uniform-types": {
		Technology: TechnologyConfig{
			Alpha: 1.0, Beta: 1.0,
			OmegaA: 0.5, OmegaB: 0.5,
			SigmaA: 1.0, SigmaB: 1.0,
		},
		Workers: PopulationConfig{
			Distribution: "uniform", Lower: 1, Upper: 2, Mass: 1,
		},
		Firms: PopulationConfig{
			Distribution: "uniform", Lower: 1, Upper: 2, Mass: 1,
		},
		Assortativity: "positive",
		// Uniform supports have no thin tails, so a coarse grid and a tight
		// tolerance keep this preset cheap enough for tests.
		Solver: SolverConfig{
			GuessFirmSizeUpper: DefaultGuess,
			Tol:                1e-6,
			Knots:              100,
			Integrator:         "rk45",
			StepTol:            DefaultStepTol,
			MaxSteps:           DefaultMaxSteps,
			Degree:             DefaultDegree,
		},
	},
}

// GetPreset returns a copy of the named preset, so callers can layer their
// own overrides without mutating the shared table.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *cfg
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
