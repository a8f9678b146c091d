package solver

import (
	"fmt"
	"math"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// isClose applies the usual relative-plus-absolute floating comparison
// (rtol 1e-5, atol 1e-8).
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}

// complementaritySatisfied checks the assortativity inequality at one row:
// the product of the type and quantity complementarities against the product
// of the span-of-control and type-resource complementarities. A tie within
// floating tolerance counts as satisfying.
func (s *Solver) complementaritySatisfied(r matching.Row, params []float64) bool {
	x, v := r.X, r.State()
	lhs := s.evals.inputTypes(x, v, params) * s.evals.quantities(x, v, params)
	rhs := s.evals.spanOfControl(x, v, params) * s.evals.typeResource(x, v, params)
	if isClose(lhs, rhs) {
		return true
	}
	return lhs > rhs
}

// validate checks the complementarity condition pointwise along a finished
// trajectory. Positive sorting requires every row to satisfy it, negative
// sorting requires every row to fail it.
func (s *Solver) validate(rows []matching.Row, a matching.Assortativity, params []float64) error {
	for i, r := range rows {
		ok := s.complementaritySatisfied(r, params)
		if a == matching.Positive && !ok {
			return fmt.Errorf("%w: positive sorting violated at row %d (x=%g)", matching.ErrAssortativity, i, r.X)
		}
		if a == matching.Negative && ok {
			return fmt.Errorf("%w: negative sorting violated at row %d (x=%g)", matching.ErrAssortativity, i, r.X)
		}
	}
	return nil
}
