package solver

import (
	"fmt"
	"sort"

	"github.com/phantomachine/assortative-matching-large-firms/internal/interp"
	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// Interpolant is a smooth parametric representation of a solution: one
// exact-interpolation spline per state component, parameterized by worker
// skill.
type Interpolant struct {
	mu    *interp.Spline
	theta *interp.Spline
}

// NewInterpolant fits degree-k splines through the solution rows. Rows may
// arrive in any order; they are sorted by worker skill before fitting.
func NewInterpolant(rows []matching.Row, k int, mode interp.ExtrapMode) (*Interpolant, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("solver: no rows to interpolate")
	}
	sorted := append([]matching.Row(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	xs := make([]float64, len(sorted))
	mus := make([]float64, len(sorted))
	thetas := make([]float64, len(sorted))
	for i, r := range sorted {
		xs[i] = r.X
		mus[i] = r.FirmProductivity
		thetas[i] = r.FirmSize
	}

	mu, err := interp.NewSpline(xs, mus, k, mode)
	if err != nil {
		return nil, fmt.Errorf("solver: matching spline: %w", err)
	}
	theta, err := interp.NewSpline(xs, thetas, k, mode)
	if err != nil {
		return nil, fmt.Errorf("solver: firm-size spline: %w", err)
	}
	return &Interpolant{mu: mu, theta: theta}, nil
}

// At evaluates the interpolated state, or its deriv-th derivative, at x.
func (ip *Interpolant) At(x float64, deriv int) (matching.State, error) {
	m, err := ip.mu.At(x, deriv)
	if err != nil {
		return matching.State{}, err
	}
	th, err := ip.theta.At(x, deriv)
	if err != nil {
		return matching.State{}, err
	}
	return matching.State{Mu: m, Theta: th}, nil
}

// Eval evaluates the interpolant at every query point.
func (ip *Interpolant) Eval(xs []float64, deriv int) ([]matching.State, error) {
	out := make([]matching.State, len(xs))
	for i, x := range xs {
		v, err := ip.At(x, deriv)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Residual compares the interpolant's derivative against the equilibrium
// right-hand side at each query point. The residual is independent of the
// step size the integrator happened to take, so it separates "did the search
// converge" from "were the steps small enough".
func (s *Solver) Residual(ip *Interpolant, xs []float64) ([]matching.State, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	params := s.model.Params().Values()

	out := make([]matching.State, len(xs))
	for i, x := range xs {
		v, err := ip.At(x, 0)
		if err != nil {
			return nil, err
		}
		d, err := ip.At(x, 1)
		if err != nil {
			return nil, err
		}
		out[i] = d.Sub(s.evals.rhs(x, v, params))
	}
	return out, nil
}

// PeakResidual is the largest residual norm over the query points.
func (s *Solver) PeakResidual(ip *Interpolant, xs []float64) (float64, error) {
	res, err := s.Residual(ip, xs)
	if err != nil {
		return 0, err
	}
	peak := 0.0
	for _, r := range res {
		if n := r.Norm(); n > peak {
			peak = n
		}
	}
	return peak, nil
}
