package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// linearSys is dv/dx = A v, with the exact solution known component-wise for
// diagonal A.
type linearSys struct {
	a matching.Jacobian
}

func (s linearSys) Derive(x float64, v matching.State) matching.State {
	return matching.State{
		Mu:    s.a[0][0]*v.Mu + s.a[0][1]*v.Theta,
		Theta: s.a[1][0]*v.Mu + s.a[1][1]*v.Theta,
	}
}

func (s linearSys) Jacobian(x float64, v matching.State) matching.Jacobian {
	return s.a
}

func decay() linearSys {
	return linearSys{a: matching.Jacobian{{-1, 0}, {0, -2}}}
}

func TestSteppers_ExponentialDecay(t *testing.T) {
	tests := []struct {
		name    string
		stepper matching.Stepper
		h       float64
		tol     float64
	}{
		{"euler", NewEuler(), 1e-4, 1e-3},
		{"rk4", NewRK4(), 1e-2, 1e-8},
		{"rk45", NewRK45(), 1e-2, 1e-8},
		{"trapezoid", NewTrapezoid(), 1e-3, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := decay()
			v := matching.State{Mu: 1, Theta: 1}
			x := 0.0
			for x < 1.0 {
				v = tt.stepper.Step(sys, v, x, tt.h)
				x += tt.h
			}

			wantMu := math.Exp(-x)
			wantTheta := math.Exp(-2 * x)
			if math.Abs(v.Mu-wantMu) > tt.tol {
				t.Errorf("Mu = %v, want %v", v.Mu, wantMu)
			}
			if math.Abs(v.Theta-wantTheta) > tt.tol {
				t.Errorf("Theta = %v, want %v", v.Theta, wantTheta)
			}
		})
	}
}

func TestRK4_OrderOfAccuracy(t *testing.T) {
	sys := decay()
	v0 := matching.State{Mu: 1, Theta: 1}

	errAt := func(h float64) float64 {
		v := NewRK4().Step(sys, v0, 0, h)
		return math.Abs(v.Mu - math.Exp(-h))
	}

	// Halving the step should shrink the one-step error by about 2^5.
	ratio := errAt(0.1) / errAt(0.05)
	if ratio < 20 || ratio > 45 {
		t.Errorf("error ratio %v outside expected fifth-order range", ratio)
	}
}

func TestTrapezoid_StiffSystem(t *testing.T) {
	sys := linearSys{a: matching.Jacobian{{-1000, 0}, {0, -1}}}
	tr := NewTrapezoid()

	// Step far beyond the explicit stability limit; the implicit scheme must
	// stay bounded.
	v := matching.State{Mu: 1, Theta: 1}
	for i := 0; i < 10; i++ {
		next, err := tr.StepImplicit(sys, v, float64(i)*0.01, 0.01)
		if err != nil {
			t.Fatalf("StepImplicit: %v", err)
		}
		v = next
	}
	if math.Abs(v.Mu) > 1 {
		t.Errorf("stiff component diverged: Mu = %v", v.Mu)
	}
}

func TestDriver_AdvanceForward(t *testing.T) {
	d := NewDriver(decay(), NewRK45(), WithTolerance(1e-10), WithInitialStep(1e-2))
	d.SetInitialValue(matching.State{Mu: 1, Theta: 1}, 0)

	if err := d.Advance(2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !d.Successful() {
		t.Fatal("driver not successful after clean advance")
	}
	if d.X() != 2 {
		t.Errorf("X() = %v, want exactly 2", d.X())
	}
	if got, want := d.V().Mu, math.Exp(-2.0); math.Abs(got-want) > 1e-7 {
		t.Errorf("Mu = %v, want %v", got, want)
	}
}

func TestDriver_AdvanceBackward(t *testing.T) {
	d := NewDriver(decay(), NewRK4(), WithTolerance(1e-10), WithInitialStep(1e-2))
	d.SetInitialValue(matching.State{Mu: math.Exp(-1), Theta: math.Exp(-2)}, 1)

	if err := d.Advance(0); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := d.V().Mu; math.Abs(got-1) > 1e-7 {
		t.Errorf("Mu = %v, want 1", got)
	}
}

func TestDriver_StepBudget(t *testing.T) {
	d := NewDriver(decay(), NewRK4(), WithInitialStep(1e-6), WithMaxStep(1e-6), WithStepBudget(10))
	d.SetInitialValue(matching.State{Mu: 1, Theta: 1}, 0)

	err := d.Advance(1)
	if !errors.Is(err, matching.ErrStepBudget) {
		t.Fatalf("expected ErrStepBudget, got %v", err)
	}
	if d.Successful() {
		t.Error("driver reports success after budget exhaustion")
	}

	// Reset clears the failure.
	d.SetInitialValue(matching.State{Mu: 1, Theta: 1}, 0)
	if !d.Successful() {
		t.Error("SetInitialValue did not clear the failed flag")
	}
}

func TestDriver_IncrementalTargets(t *testing.T) {
	d := NewDriver(decay(), NewRK45(), WithTolerance(1e-10), WithInitialStep(1e-2))
	d.SetInitialValue(matching.State{Mu: 1, Theta: 1}, 0)

	for _, target := range []float64{0.25, 0.5, 0.75, 1.0} {
		if err := d.Advance(target); err != nil {
			t.Fatalf("Advance(%v): %v", target, err)
		}
		if d.X() != target {
			t.Fatalf("X() = %v, want %v", d.X(), target)
		}
	}
	if got, want := d.V().Theta, math.Exp(-2.0); math.Abs(got-want) > 1e-7 {
		t.Errorf("Theta = %v, want %v", got, want)
	}
}
