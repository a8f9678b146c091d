package matching

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"zero", State{}, true},
		{"normal", State{1.5, 2.0}, true},
		{"nan mu", State{math.NaN(), 1.0}, false},
		{"nan theta", State{1.0, math.NaN()}, false},
		{"+inf", State{math.Inf(1), 1.0}, false},
		{"-inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2}
	b := State{4, 6}

	if got := a.Add(b); got != (State{5, 8}) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != (State{3, 4}) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != (State{2, 4}) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.AddScaled(0.5, b); got != (State{3, 5}) {
		t.Errorf("AddScaled failed: got %v", got)
	}
	if got := (State{3, 4}).Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm failed: got %v", got)
	}
}

func TestParseAssortativity(t *testing.T) {
	if a, err := ParseAssortativity("positive"); err != nil || a != Positive {
		t.Errorf("positive: got %v, %v", a, err)
	}
	if a, err := ParseAssortativity("negative"); err != nil || a != Negative {
		t.Errorf("negative: got %v, %v", a, err)
	}
	if _, err := ParseAssortativity("sideways"); err == nil {
		t.Error("expected error for unknown designator")
	}
}

func TestParamSet_Order(t *testing.T) {
	p, err := NewParamSet([]string{"alpha", "beta", "omega_A"}, []float64{1, 2, 0.5})
	if err != nil {
		t.Fatalf("NewParamSet: %v", err)
	}

	names := p.Names()
	want := []string{"alpha", "beta", "omega_A"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order not preserved: got %v", names)
		}
	}

	vals := p.Values()
	if vals[2] != 0.5 {
		t.Errorf("Values()[2] = %v, want 0.5", vals[2])
	}

	// Returned slices must be copies.
	vals[0] = 99
	if v, _ := p.Get("alpha"); v != 1 {
		t.Error("Values() aliases internal storage")
	}
}

func TestParamSet_SetUnknown(t *testing.T) {
	p, _ := NewParamSet([]string{"alpha"}, []float64{1})

	if err := p.Set("gamma", 3); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if err := p.Set("alpha", 3); err != nil {
		t.Errorf("Set known param: %v", err)
	}
	if v, _ := p.Get("alpha"); v != 3 {
		t.Errorf("Get after Set = %v, want 3", v)
	}
}

func TestParamSet_Duplicate(t *testing.T) {
	if _, err := NewParamSet([]string{"a", "a"}, []float64{1, 2}); err == nil {
		t.Error("expected error for duplicate names")
	}
}

func TestParamSet_Clone(t *testing.T) {
	p, _ := NewParamSet([]string{"alpha"}, []float64{1})
	c := p.Clone()
	c.Set("alpha", 7)

	if v, _ := p.Get("alpha"); v != 1 {
		t.Error("Clone shares storage with original")
	}
}

func TestSolveError(t *testing.T) {
	e := &SolveError{Step: 3, X: 1.5, Guess: 2.5, Wrapped: ErrNonPositiveFirmSize}
	if !errors.Is(e, ErrNonPositiveFirmSize) {
		t.Error("SolveError does not unwrap to its cause")
	}
}
