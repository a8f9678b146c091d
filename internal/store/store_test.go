package store

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

func sampleRows() []matching.Row {
	return []matching.Row{
		{X: 1, FirmProductivity: 1, FirmSize: 1, Wage: 0.5, Profit: 0.5},
		{X: 1.5, FirmProductivity: 1.5, FirmSize: 1, Wage: 0.75, Profit: 0.75},
		{X: 2, FirmProductivity: 2, FirmSize: 1, Wage: 1, Profit: 1},
	}
}

func sampleMeta() RunMetadata {
	return RunMetadata{
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Assortativity:   "positive",
		Params:          map[string]float64{"alpha": 1, "beta": 1},
		InitialFirmSize: 1,
		Attempts:        23,
		Steps:           4096,
		Metrics:         map[string]float64{"wage_dispersion": 2},
		PeakResidual:    1e-8,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	id, err := st.Save(sampleMeta(), sampleRows())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty run ID")
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.ID != id {
		t.Errorf("ID = %q, want %q", meta.ID, id)
	}
	if meta.Assortativity != "positive" || meta.Attempts != 23 {
		t.Errorf("metadata round trip: %+v", meta)
	}
	if meta.Params["alpha"] != 1 {
		t.Errorf("Params[alpha] = %v, want 1", meta.Params["alpha"])
	}

	rows, err := st.LoadSolution(id)
	if err != nil {
		t.Fatalf("LoadSolution: %v", err)
	}
	want := sampleRows()
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range rows {
		if math.Abs(rows[i].Wage-want[i].Wage) > 1e-15 {
			t.Errorf("row %d: wage %v, want %v", i, rows[i].Wage, want[i].Wage)
		}
		if rows[i].X != want[i].X {
			t.Errorf("row %d: x %v, want %v", i, rows[i].X, want[i].X)
		}
	}
}

func TestStoreExplicitID(t *testing.T) {
	st := New(t.TempDir())

	meta := sampleMeta()
	meta.ID = "benchmark"
	id, err := st.Save(meta, sampleRows())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "benchmark" {
		t.Errorf("id = %q, want benchmark", id)
	}
}

func TestStoreListDelete(t *testing.T) {
	st := New(t.TempDir())

	ids, err := st.List()
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("empty store listed %v", ids)
	}

	for _, name := range []string{"b", "a"} {
		meta := sampleMeta()
		meta.ID = name
		if _, err := st.Save(meta, sampleRows()); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	ids, err = st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("List = %v, want [a b]", ids)
	}

	if err := st.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ids, _ = st.List()
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("after delete, List = %v, want [b]", ids)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("absent"); err == nil {
		t.Error("expected error loading missing run")
	}
	if _, err := st.LoadSolution("absent"); err == nil {
		t.Error("expected error loading missing solution")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	meta := sampleMeta()
	meta.ID = "export-me"
	if _, err := st.Save(meta, sampleRows()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSONTo("export-me", &buf); err != nil {
		t.Fatalf("ExportJSONTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"id": "export-me"`, `"firm_size"`, `"wage_dispersion"`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %s", want)
		}
	}

	data, err := st.Export("export-me")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(data.Solution) != 3 {
		t.Errorf("exported %d rows, want 3", len(data.Solution))
	}
}
