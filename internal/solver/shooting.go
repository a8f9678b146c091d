// Package solver implements the shooting method for the two-point boundary
// value problem of the matching equilibrium. A bisection search over the
// unknown initial firm size wraps repeated initial-value integrations; each
// integration is classified by which population ran out first, and the
// classification drives the bracket update.
package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/phantomachine/assortative-matching-large-firms/internal/integrators"
	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// machEps is the bracket-collapse threshold: once the bisection bracket is
// narrower than this the search cannot make progress in float64.
const machEps = 2.220446049250313e-16

// Outcome classifies the state of one shooting attempt after a step.
type Outcome int

const (
	// Continue means neither population is exhausted yet.
	Continue Outcome = iota
	// Success means both populations exhausted together within tolerance.
	Success
	// FirmsExhaustedLow means firms overshot their lower bound just as the
	// workers converged: the initial firm size was too small.
	FirmsExhaustedLow
	// FirmsExhaustedEarly means firms overshot their lower bound while
	// workers still remained: the initial firm size was too small.
	FirmsExhaustedEarly
	// WorkersExhausted means workers ran out with firm capacity left over:
	// the initial firm size was too large.
	WorkersExhausted
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "all workers and firms matched"
	case FirmsExhaustedLow:
		return "firms exhausted at the boundary: initial firm size too small"
	case FirmsExhaustedEarly:
		return "firms exhausted early: initial firm size too small"
	case WorkersExhausted:
		return "workers exhausted: initial firm size too large"
	}
	return "continuing"
}

// Classify maps the three boundary tests onto a shooting outcome. It is the
// entire decision table of the bisection search, kept pure so the bracket
// policy can be tested without integrating anything.
func Classify(workersConverged, firmsConverged, firmsExhausted bool) Outcome {
	switch {
	case workersConverged && firmsConverged:
		return Success
	case !workersConverged && firmsExhausted:
		return FirmsExhaustedEarly
	case workersConverged && firmsExhausted:
		return FirmsExhaustedLow
	case workersConverged:
		return WorkersExhausted
	}
	return Continue
}

// Options controls one Solve call.
type Options struct {
	// GuessFirmSizeUpper bounds the bisection bracket for the initial firm
	// size from above. Required.
	GuessFirmSizeUpper float64

	// Tol is the convergence tolerance shared by the worker, firm and
	// overshoot tests. Defaults to 1e-6.
	Tol float64

	// Knots is the number of points the trajectory is recorded at; it fixes
	// the integration step size. Defaults to 100.
	Knots int

	// Stepper advances the inner integration. Defaults to Dormand-Prince.
	Stepper matching.Stepper

	// StepTol is the local error tolerance of the adaptive driver.
	// Defaults to 1e-9.
	StepTol float64

	// MaxSteps caps the total number of accepted integration steps across
	// all shooting attempts. Defaults to 1e6.
	MaxSteps int

	// Progress, when set, is invoked after every bracket update.
	Progress func(ProgressUpdate)
}

// ProgressUpdate describes one finished shooting attempt.
type ProgressUpdate struct {
	Attempt int
	Outcome Outcome
	Lower   float64
	Upper   float64
	Guess   float64
	Steps   int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Tol == 0 {
		out.Tol = 1e-6
	}
	if out.Knots == 0 {
		out.Knots = 100
	}
	if out.Stepper == nil {
		out.Stepper = integrators.NewRK45()
	}
	if out.StepTol == 0 {
		out.StepTol = 1e-9
	}
	if out.MaxSteps == 0 {
		out.MaxSteps = 1_000_000
	}
	return out
}

// Result is a successful equilibrium solution.
type Result struct {
	// Rows is the solution table, ascending by worker skill under positive
	// sorting and in integration order otherwise.
	Rows []matching.Row

	// InitialFirmSize is the converged free initial condition.
	InitialFirmSize float64

	Attempts int
	Steps    int
	Message  string
}

// Solver owns the bisection search and the compiled evaluator cache for one
// model. It is not safe for concurrent use; run independent solves against
// cloned models instead.
type Solver struct {
	model matching.Model
	evals *evaluators
}

func New(m matching.Model) (*Solver, error) {
	if m == nil {
		return nil, fmt.Errorf("solver: nil model")
	}
	e, err := compileEvaluators(m)
	if err != nil {
		return nil, err
	}
	return &Solver{model: m, evals: e}, nil
}

func (s *Solver) Model() matching.Model { return s.model }

// SetModel replaces the model and recompiles the evaluator cache in full.
func (s *Solver) SetModel(m matching.Model) error {
	if m == nil {
		return fmt.Errorf("solver: nil model")
	}
	e, err := compileEvaluators(m)
	if err != nil {
		return err
	}
	s.model = m
	s.evals = e
	return nil
}

// Recompile rebuilds the evaluator cache against the model's current
// version. Callers that mutate model parameters between solves do not need
// to call it; Solve refreshes a stale cache itself.
func (s *Solver) Recompile() error {
	e, err := compileEvaluators(s.model)
	if err != nil {
		return err
	}
	s.evals = e
	return nil
}

func (s *Solver) ensureFresh() error {
	if s.evals != nil && s.evals.version == s.model.Version() {
		return nil
	}
	return s.Recompile()
}

// Solve runs the shooting search for the equilibrium.
func (s *Solver) Solve(ctx context.Context, options Options) (*Result, error) {
	opts := options.withDefaults()
	if opts.GuessFirmSizeUpper <= 0 {
		return nil, fmt.Errorf("solver: GuessFirmSizeUpper must be positive, got %g", opts.GuessFirmSizeUpper)
	}
	if opts.Knots < 2 {
		return nil, fmt.Errorf("solver: need at least 2 knots, got %d", opts.Knots)
	}
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}

	workers := s.model.Workers()
	firms := s.model.Firms()
	assort := s.model.Assortativity()
	params := s.model.Params().Values()
	sys := system{rhs: s.evals.rhs, jac: s.evals.jac, params: params}

	// The step size guarantees the last knot lands exactly on the worker
	// terminal bound.
	stepSize := (workers.Upper - workers.Lower) / float64(opts.Knots-1)
	x0, xT := workers.Upper, workers.Lower
	dir := -1.0
	if assort == matching.Negative {
		x0, xT = workers.Lower, workers.Upper
		dir = 1.0
	}

	lower, upper := 0.0, opts.GuessFirmSizeUpper
	guess := 0.5 * (lower + upper)

	traj := &Trajectory{}
	totalSteps := 0

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		boundary, err := s.makeRow(x0, matching.State{Mu: firms.Upper, Theta: guess}, params)
		if err != nil {
			return nil, &matching.SolveError{Step: 0, X: x0, Guess: guess, Wrapped: err}
		}
		traj.reset(boundary)

		driver := integrators.NewDriver(sys, opts.Stepper,
			integrators.WithTolerance(opts.StepTol),
			integrators.WithInitialStep(stepSize/10),
			integrators.WithMaxStep(stepSize),
			integrators.WithStepBudget(opts.MaxSteps-totalSteps),
		)
		driver.SetInitialValue(boundary.State(), x0)

		outcome, steps, err := s.integrateAttempt(ctx, driver, traj, attemptParams{
			opts:       opts,
			x0:         x0,
			xT:         xT,
			dir:        dir,
			stepSize:   stepSize,
			guess:      guess,
			firmsLower: firms.Lower,
			budget:     opts.MaxSteps - totalSteps,
			params:     params,
		})
		totalSteps += steps
		if err != nil {
			return nil, err
		}

		switch outcome {
		case Success:
			rows := traj.Table(assort)
			if err := s.validate(rows, assort, params); err != nil {
				return nil, err
			}
			return &Result{
				Rows:            rows,
				InitialFirmSize: guess,
				Attempts:        attempt,
				Steps:           totalSteps,
				Message:         fmt.Sprintf("%s after %d attempts", outcome, attempt),
			}, nil
		case FirmsExhaustedLow, FirmsExhaustedEarly:
			lower = guess
		case WorkersExhausted:
			upper = guess
		}

		if upper-lower <= machEps {
			return nil, &matching.SolveError{
				Step: attempt, X: driver.X(), Guess: guess,
				Wrapped: matching.ErrBracketCollapsed,
			}
		}
		guess = 0.5 * (lower + upper)

		if opts.Progress != nil {
			opts.Progress(ProgressUpdate{
				Attempt: attempt,
				Outcome: outcome,
				Lower:   lower,
				Upper:   upper,
				Guess:   guess,
				Steps:   totalSteps,
			})
		}
	}
}

type attemptParams struct {
	opts       Options
	x0, xT     float64
	dir        float64
	stepSize   float64
	guess      float64
	firmsLower float64
	budget     int
	params     []float64
}

// integrateAttempt runs one inner integration until it can be classified as
// something other than Continue. It returns the number of accepted driver
// steps alongside the classification.
func (s *Solver) integrateAttempt(ctx context.Context, driver *integrators.Driver, traj *Trajectory, ap attemptParams) (Outcome, int, error) {
	if ap.budget <= 0 {
		return Continue, 0, &matching.SolveError{X: ap.x0, Guess: ap.guess, Wrapped: matching.ErrStepBudget}
	}

	for k := 1; ; k++ {
		select {
		case <-ctx.Done():
			return Continue, driver.Steps(), ctx.Err()
		default:
		}

		// The firm-size component drifting up to the caller's bracket bound
		// means no guess inside the bracket can work.
		if math.Abs(driver.V().Theta-ap.opts.GuessFirmSizeUpper) <= ap.opts.Tol {
			return Continue, driver.Steps(), &matching.SolveError{
				Step: k, X: driver.X(), Guess: ap.guess,
				Wrapped: matching.ErrGuessTooLow,
			}
		}

		target := ap.x0 + float64(k)*ap.dir*ap.stepSize
		if (ap.dir < 0 && target < ap.xT) || (ap.dir > 0 && target > ap.xT) {
			target = ap.xT
		}

		if err := driver.Advance(target); err != nil {
			return Continue, driver.Steps(), &matching.SolveError{
				Step: k, X: driver.X(), Guess: ap.guess, Wrapped: err,
			}
		}

		v := driver.V()
		if v.Theta <= 0 {
			return Continue, driver.Steps(), &matching.SolveError{
				Step: k, X: driver.X(), Guess: ap.guess,
				Wrapped: matching.ErrNonPositiveFirmSize,
			}
		}

		row, err := s.makeRow(driver.X(), v, ap.params)
		if err != nil {
			return Continue, driver.Steps(), &matching.SolveError{
				Step: k, X: driver.X(), Guess: ap.guess, Wrapped: err,
			}
		}
		traj.append(row)

		workersConverged := math.Abs(driver.X()-ap.xT) <= ap.opts.Tol
		firmsConverged := math.Abs(v.Mu-ap.firmsLower) <= ap.opts.Tol
		firmsExhausted := v.Mu-ap.firmsLower < -ap.opts.Tol

		if out := Classify(workersConverged, firmsConverged, firmsExhausted); out != Continue {
			return out, driver.Steps(), nil
		}
	}
}

// makeRow evaluates the payoff columns at a state and enforces the
// positivity invariants.
func (s *Solver) makeRow(x float64, v matching.State, params []float64) (matching.Row, error) {
	w := s.evals.wage(x, v, params)
	pi := s.evals.profit(x, v, params)
	if !(w > 0) {
		return matching.Row{}, fmt.Errorf("%w: w=%g at x=%g", matching.ErrNonPositiveWage, w, x)
	}
	if !(pi > 0) {
		return matching.Row{}, fmt.Errorf("%w: pi=%g at x=%g", matching.ErrNonPositiveProfit, pi, x)
	}
	return matching.Row{
		X:                x,
		FirmProductivity: v.Mu,
		FirmSize:         v.Theta,
		Wage:             w,
		Profit:           pi,
	}, nil
}
