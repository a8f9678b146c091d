// Package experiment wires a configuration into an economy, a solver and a
// metric set, and runs solves and comparative-statics sweeps.
package experiment

import (
	"context"
	"fmt"

	"github.com/phantomachine/assortative-matching-large-firms/internal/config"
	"github.com/phantomachine/assortative-matching-large-firms/internal/integrators"
	"github.com/phantomachine/assortative-matching-large-firms/internal/interp"
	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
	"github.com/phantomachine/assortative-matching-large-firms/internal/metrics"
	"github.com/phantomachine/assortative-matching-large-firms/internal/model"
	"github.com/phantomachine/assortative-matching-large-firms/internal/solver"
)

type Experiment struct {
	cfg     *config.Config
	economy *model.Economy
	solver  *solver.Solver
}

// Outcome bundles everything one solve produces.
type Outcome struct {
	Result       *solver.Result
	Metrics      map[string]float64
	PeakResidual float64
}

func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	economy, err := buildEconomy(cfg)
	if err != nil {
		return nil, err
	}
	s, err := solver.New(economy)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:     cfg,
		economy: economy,
		solver:  s,
	}, nil
}

func buildEconomy(cfg *config.Config) (*model.Economy, error) {
	params, err := matching.NewParamSet(cfg.ParamNames(), cfg.ParamValues())
	if err != nil {
		return nil, err
	}
	assort, err := matching.ParseAssortativity(cfg.Assortativity)
	if err != nil {
		return nil, err
	}
	workerDist, err := buildDistribution(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("experiment: workers: %w", err)
	}
	firmDist, err := buildDistribution(cfg.Firms)
	if err != nil {
		return nil, fmt.Errorf("experiment: firms: %w", err)
	}

	return model.NewEconomy(model.Options{
		Params:        params,
		WorkerDist:    workerDist,
		FirmDist:      firmDist,
		WorkerMass:    cfg.Workers.Mass,
		FirmMass:      cfg.Firms.Mass,
		Assortativity: assort,
	})
}

func buildDistribution(p config.PopulationConfig) (model.Distribution, error) {
	switch p.Distribution {
	case "lognormal":
		return model.LogNormal{Location: p.Location, Scale: p.Scale}, nil
	case "uniform":
		return model.Uniform{Lower: p.Lower, Upper: p.Upper}, nil
	}
	return nil, fmt.Errorf("unknown distribution %q", p.Distribution)
}

func (e *Experiment) Economy() *model.Economy { return e.economy }
func (e *Experiment) Solver() *solver.Solver  { return e.solver }

// SolveOptions translates the configuration into solver options, optionally
// attaching a progress callback.
func (e *Experiment) SolveOptions(progress func(solver.ProgressUpdate)) (solver.Options, error) {
	stepper, err := integrators.ByName(e.cfg.Solver.Integrator)
	if err != nil {
		return solver.Options{}, err
	}
	return solver.Options{
		GuessFirmSizeUpper: e.cfg.Solver.GuessFirmSizeUpper,
		Tol:                e.cfg.Solver.Tol,
		Knots:              e.cfg.Solver.Knots,
		Stepper:            stepper,
		StepTol:            e.cfg.Solver.StepTol,
		MaxSteps:           e.cfg.Solver.MaxSteps,
		Progress:           progress,
	}, nil
}

// Run solves for the equilibrium and evaluates the metric set and the
// interpolation residual over the solution.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	return e.run(ctx, e.solver, nil)
}

// RunWithProgress is Run with a bisection progress callback attached.
func (e *Experiment) RunWithProgress(ctx context.Context, progress func(solver.ProgressUpdate)) (*Outcome, error) {
	return e.run(ctx, e.solver, progress)
}

func (e *Experiment) run(ctx context.Context, s *solver.Solver, progress func(solver.ProgressUpdate)) (*Outcome, error) {
	opts, err := e.SolveOptions(progress)
	if err != nil {
		return nil, err
	}
	res, err := s.Solve(ctx, opts)
	if err != nil {
		return nil, err
	}

	ip, err := solver.NewInterpolant(res.Rows, e.cfg.Solver.Degree, interp.Extrapolate)
	if err != nil {
		return nil, err
	}
	peak, err := s.PeakResidual(ip, residualQueries(res.Rows))
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Result:       res,
		Metrics:      metrics.Apply(metrics.Standard(), res.Rows),
		PeakResidual: peak,
	}, nil
}

// residualQueries places one query between each pair of adjacent knots, so
// the diagnostic is evaluated away from the points the spline interpolates
// exactly.
func residualQueries(rows []matching.Row) []float64 {
	if len(rows) < 2 {
		return nil
	}
	out := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		out = append(out, 0.5*(rows[i-1].X+rows[i].X))
	}
	return out
}
