package config

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// The exported Default* constants double as CLI flag defaults, so they must
// agree with what DefaultConfig actually ships.
func TestDefaultConfig_MatchesConstants(t *testing.T) {
	s := DefaultConfig().Solver
	if s.GuessFirmSizeUpper != DefaultGuess {
		t.Errorf("GuessFirmSizeUpper = %v, constant says %v", s.GuessFirmSizeUpper, DefaultGuess)
	}
	if s.Tol != DefaultTol {
		t.Errorf("Tol = %v, constant says %v", s.Tol, DefaultTol)
	}
	if s.Knots != DefaultKnots {
		t.Errorf("Knots = %v, constant says %v", s.Knots, DefaultKnots)
	}
	if s.StepTol != DefaultStepTol {
		t.Errorf("StepTol = %v, constant says %v", s.StepTol, DefaultStepTol)
	}
	if s.MaxSteps != DefaultMaxSteps {
		t.Errorf("MaxSteps = %v, constant says %v", s.MaxSteps, DefaultMaxSteps)
	}
	if s.Degree != DefaultDegree {
		t.Errorf("Degree = %v, constant says %v", s.Degree, DefaultDegree)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Technology.SigmaA = 0.75
	cfg.Firms.Mass = 0.5
	cfg.Solver.Knots = 500

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Technology.SigmaA != 0.75 {
		t.Errorf("SigmaA = %v, want 0.75", loaded.Technology.SigmaA)
	}
	if loaded.Firms.Mass != 0.5 {
		t.Errorf("Firms.Mass = %v, want 0.5", loaded.Firms.Mass)
	}
	if loaded.Solver.Knots != 500 {
		t.Errorf("Knots = %v, want 500", loaded.Solver.Knots)
	}
	// Fields absent from the file keep their defaults.
	if want := DefaultConfig().Solver.Tol; loaded.Solver.Tol != want {
		t.Errorf("Tol = %v, want default %v", loaded.Solver.Tol, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad assortativity", func(c *Config) { c.Assortativity = "sideways" }},
		{"bad distribution", func(c *Config) { c.Workers.Distribution = "cauchy" }},
		{"non-positive scale", func(c *Config) { c.Firms.Scale = 0 }},
		{"non-positive mass", func(c *Config) { c.Workers.Mass = 0 }},
		{"non-positive guess", func(c *Config) { c.Solver.GuessFirmSizeUpper = 0 }},
		{"too few knots", func(c *Config) { c.Solver.Knots = 1 }},
		{"bad degree", func(c *Config) { c.Solver.Degree = 2 }},
		{"uniform support inverted", func(c *Config) {
			c.Workers.Distribution = "uniform"
			c.Workers.Lower, c.Workers.Upper = 2, 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPresets_AllValid(t *testing.T) {
	for name, cfg := range Presets {
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}

func TestGetPreset(t *testing.T) {
	if GetPreset("benchmark") == nil {
		t.Error("benchmark preset missing")
	}
	if GetPreset("nope") != nil {
		t.Error("unknown preset should return nil")
	}

	names := ListPresets()
	sort.Strings(names)
	if len(names) != len(Presets) {
		t.Errorf("ListPresets returned %d names, want %d", len(names), len(Presets))
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	first := GetPreset("benchmark")
	first.Solver.Knots = 7
	first.Technology.Alpha = 9

	second := GetPreset("benchmark")
	if second.Solver.Knots == 7 || second.Technology.Alpha == 9 {
		t.Error("mutating a fetched preset leaked into the shared table")
	}
}

func TestParamOrder(t *testing.T) {
	cfg := DefaultConfig()
	names := cfg.ParamNames()
	values := cfg.ParamValues()
	if len(names) != len(values) {
		t.Fatalf("%d names for %d values", len(names), len(values))
	}
	if names[0] != "alpha" || values[0] != 1.0 {
		t.Errorf("first parameter = %s/%v, want alpha/1", names[0], values[0])
	}
}
