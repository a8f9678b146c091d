// Package optim calibrates technology parameters against target moments by
// exhaustive grid search over re-solved equilibria.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/phantomachine/assortative-matching-large-firms/internal/experiment"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters for %d ranges", len(params), len(ranges))
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("optim: nothing to search over")
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Calibrate finds the grid point whose solved equilibrium brings metricName
// closest to target. Points where the solve fails are skipped; an error is
// returned only when every point fails.
func (g *GridSearch) Calibrate(
	ctx context.Context,
	exp *experiment.Experiment,
	metricName string,
	target float64,
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	g.searchRecursive(ctx, exp, 0, make(map[string]float64), metricName, target, &best, &bestParams, &lastErr)

	if bestParams == nil {
		if lastErr != nil {
			return nil, 0, fmt.Errorf("optim: no grid point solved: %w", lastErr)
		}
		return nil, 0, fmt.Errorf("optim: no grid point solved")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	exp *experiment.Experiment,
	depth int,
	current map[string]float64,
	metricName string,
	target float64,
	best *float64,
	bestParams *map[string]float64,
	lastErr *error,
) {
	if depth == len(g.paramNames) {
		for name, val := range current {
			if err := exp.Economy().SetParam(name, val); err != nil {
				*lastErr = err
				return
			}
		}
		out, err := exp.Run(ctx)
		if err != nil {
			*lastErr = err
			return
		}

		loss := math.Abs(out.Metrics[metricName] - target)
		if loss < *best {
			*best = loss
			picked := make(map[string]float64, len(current))
			for k, v := range current {
				picked[k] = v
			}
			*bestParams = picked
		}
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		if ctx.Err() != nil {
			*lastErr = ctx.Err()
			return
		}
		current[name] = val
		g.searchRecursive(ctx, exp, depth+1, current, metricName, target, best, bestParams, lastErr)
	}
	delete(current, name)
}
