package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/phantomachine/assortative-matching-large-firms/internal/config"
)

// uniformBenchmark is the symmetric uniform economy: identical supports and
// masses give mu(x) = x with unit firm size, cheap enough to solve many
// times in tests.
func uniformBenchmark(t *testing.T) *Experiment {
	t.Helper()
	e, err := New(config.GetPreset("uniform-types"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestExperiment_Run(t *testing.T) {
	e := uniformBenchmark(t)

	out, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if math.Abs(out.Result.InitialFirmSize-1) > 1e-3 {
		t.Errorf("InitialFirmSize = %v, want 1", out.Result.InitialFirmSize)
	}
	for _, name := range []string{"wage_dispersion", "labor_share", "firm_size_range"} {
		if _, ok := out.Metrics[name]; !ok {
			t.Errorf("metric %q missing", name)
		}
	}
	// Firm size is constant in the symmetric economy.
	if out.Metrics["firm_size_range"] > 1e-3 {
		t.Errorf("firm_size_range = %v, want ~0", out.Metrics["firm_size_range"])
	}
	if out.PeakResidual > 1e-3 {
		t.Errorf("peak residual %v too large", out.PeakResidual)
	}
}

func TestExperiment_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Assortativity = "sideways"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExperiment_Sweep(t *testing.T) {
	e := uniformBenchmark(t)

	// The outer exponent does not move the symmetric equilibrium, so every
	// point must converge to the same initial firm size.
	points := e.Sweep(context.Background(), "alpha", []float64{0.8, 1.0, 1.2})
	if len(points) != 3 {
		t.Fatalf("got %d points", len(points))
	}
	for _, p := range points {
		if p.Err != nil {
			t.Fatalf("alpha=%v: %v", p.Value, p.Err)
		}
		if math.Abs(p.Outcome.Result.InitialFirmSize-1) > 1e-3 {
			t.Errorf("alpha=%v: InitialFirmSize = %v, want 1", p.Value, p.Outcome.Result.InitialFirmSize)
		}
	}

	// Wages scale with the technology exponent on the type aggregator.
	if points[0].Outcome.Metrics["wage_dispersion"] >= points[2].Outcome.Metrics["wage_dispersion"] {
		t.Error("wage dispersion should increase with alpha")
	}
}

func TestExperiment_SweepParallel(t *testing.T) {
	e := uniformBenchmark(t)

	serial := e.Sweep(context.Background(), "alpha", []float64{0.9, 1.1})

	// Reset the economy and sweep the same values concurrently.
	e2 := uniformBenchmark(t)
	parallel := e2.SweepParallel(context.Background(), "alpha", []float64{0.9, 1.1})

	for i := range serial {
		if serial[i].Err != nil || parallel[i].Err != nil {
			t.Fatalf("point %d errored: %v / %v", i, serial[i].Err, parallel[i].Err)
		}
		got := parallel[i].Outcome.Result.InitialFirmSize
		want := serial[i].Outcome.Result.InitialFirmSize
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("point %d: parallel %v vs serial %v", i, got, want)
		}
	}
}

func TestExperiment_SweepUnknownParam(t *testing.T) {
	e := uniformBenchmark(t)
	points := e.Sweep(context.Background(), "gamma", []float64{1})
	if points[0].Err == nil {
		t.Fatal("expected error for unknown parameter")
	}
}
