package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/phantomachine/assortative-matching-large-firms/internal/interp"
	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
	"github.com/phantomachine/assortative-matching-large-firms/internal/model"
)

// symmetricLognormalEconomy is the fully symmetric benchmark: identical
// lognormal populations with equal mass and Cobb-Douglas technology. Workers
// and firms pair along the diagonal with unit firm size, so the solution is
// known exactly.
func symmetricLognormalEconomy(t *testing.T) *model.Economy {
	t.Helper()
	params, err := matching.NewParamSet(
		[]string{"alpha", "beta", "omega_A", "omega_B", "sigma_A", "sigma_B"},
		[]float64{1, 1, 0.5, 0.5, 1, 1},
	)
	if err != nil {
		t.Fatalf("NewParamSet: %v", err)
	}
	economy, err := model.NewEconomy(model.Options{
		Params:        params,
		WorkerDist:    model.LogNormal{Location: 0, Scale: 1},
		FirmDist:      model.LogNormal{Location: 0, Scale: 1},
		WorkerMass:    1,
		FirmMass:      1,
		Assortativity: matching.Positive,
	})
	if err != nil {
		t.Fatalf("NewEconomy: %v", err)
	}
	return economy
}

func TestSolve_SymmetricLognormalEconomy(t *testing.T) {
	economy := symmetricLognormalEconomy(t)

	s, err := New(economy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := s.Solve(context.Background(), Options{
		GuessFirmSizeUpper: 4,
		Tol:                1.5e-3,
		Knots:              1000,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if math.Abs(res.InitialFirmSize-1) > 1e-2 {
		t.Errorf("InitialFirmSize = %v, want 1", res.InitialFirmSize)
	}

	workers := economy.Workers()
	first, last := res.Rows[0], res.Rows[len(res.Rows)-1]
	if math.Abs(first.X-workers.Lower) > 1.5e-3 {
		t.Errorf("solution starts at x=%v, want worker lower bound %v", first.X, workers.Lower)
	}
	if math.Abs(last.X-workers.Upper) > 1e-9 {
		t.Errorf("solution ends at x=%v, want worker upper bound %v", last.X, workers.Upper)
	}

	for i, r := range res.Rows {
		if i > 0 && r.FirmProductivity <= res.Rows[i-1].FirmProductivity {
			t.Fatalf("matching function not monotone increasing at row %d", i)
		}
		if r.FirmSize <= 0 || r.Wage <= 0 || r.Profit <= 0 {
			t.Fatalf("positivity violated at row %d: %+v", i, r)
		}
		// The equilibrium pairs each worker with the equally ranked firm.
		if math.Abs(r.FirmProductivity-r.X) > 5e-2 {
			t.Fatalf("matching away from the diagonal at x=%v: mu=%v", r.X, r.FirmProductivity)
		}
		if math.Abs(r.FirmSize-1) > 5e-2 {
			t.Fatalf("firm size away from 1 at x=%v: theta=%v", r.X, r.FirmSize)
		}
	}

	// The interpolated solution should satisfy the ODE closely between knots.
	ip, err := NewInterpolant(res.Rows, 3, interp.Extrapolate)
	if err != nil {
		t.Fatalf("NewInterpolant: %v", err)
	}
	mid := 0.5 * (workers.Lower + workers.Upper)
	peak, err := s.PeakResidual(ip, []float64{mid * 0.5, mid, mid * 1.5})
	if err != nil {
		t.Fatalf("PeakResidual: %v", err)
	}
	if peak > 1e-2 {
		t.Errorf("peak residual %v too large for a converged solution", peak)
	}
}

// The bracket top is not just an upper bound: the first bisection guess is
// its midpoint, and on this economy a top of 5 sends the midpoint trajectory
// drifting up to the top itself, which the solver must report as an
// infeasible upper-bound guess rather than mis-bracketing or looping.
func TestSolve_BracketTopGrazedByMidpoint(t *testing.T) {
	economy := symmetricLognormalEconomy(t)

	s, err := New(economy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Solve(context.Background(), Options{
		GuessFirmSizeUpper: 5,
		Tol:                1.5e-3,
		Knots:              1000,
	})
	if !errors.Is(err, matching.ErrGuessTooLow) {
		t.Fatalf("Solve error = %v, want %v", err, matching.ErrGuessTooLow)
	}
}
