package experiment

import (
	"context"
	"sync"

	"github.com/phantomachine/assortative-matching-large-firms/internal/solver"
)

// SweepPoint is one comparative-statics evaluation.
type SweepPoint struct {
	Value   float64
	Outcome *Outcome
	Err     error
}

// Sweep re-solves the equilibrium for each value of one technology
// parameter, in order, reusing this experiment's economy. The economy is
// left at the last swept value.
func (e *Experiment) Sweep(ctx context.Context, param string, values []float64) []SweepPoint {
	points := make([]SweepPoint, len(values))
	for i, v := range values {
		points[i].Value = v
		if err := e.economy.SetParam(param, v); err != nil {
			points[i].Err = err
			continue
		}
		points[i].Outcome, points[i].Err = e.run(ctx, e.solver, nil)
	}
	return points
}

// SweepParallel runs the sweep with one cloned economy and solver per
// value, since a solver instance is not safe for concurrent attempts.
func (e *Experiment) SweepParallel(ctx context.Context, param string, values []float64) []SweepPoint {
	points := make([]SweepPoint, len(values))

	var wg sync.WaitGroup
	for i, v := range values {
		wg.Add(1)
		go func(idx int, value float64) {
			defer wg.Done()
			points[idx].Value = value

			economy := e.economy.Clone()
			if err := economy.SetParam(param, value); err != nil {
				points[idx].Err = err
				return
			}
			s, err := solver.New(economy)
			if err != nil {
				points[idx].Err = err
				return
			}
			points[idx].Outcome, points[idx].Err = e.run(ctx, s, nil)
		}(i, v)
	}
	wg.Wait()

	return points
}
