// Package store persists solved equilibria to disk, one directory per run
// with a metadata document and the solution table as CSV.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// RunMetadata describes one solved run. Params holds the technology
// parameters the run was solved under, Metrics the summary statistics
// computed from the solution.
type RunMetadata struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Assortativity   string             `json:"assortativity"`
	Params          map[string]float64 `json:"params"`
	InitialFirmSize float64            `json:"initial_firm_size"`
	Attempts        int                `json:"attempts"`
	Steps           int                `json:"steps"`
	Metrics         map[string]float64 `json:"metrics"`
	PeakResidual    float64            `json:"peak_residual"`
}

// Store manages a directory tree of runs under a base directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory if it does not exist.
func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

var csvHeader = []string{"x", "firm_productivity", "firm_size", "wage", "profit"}

// Save writes the metadata and solution table for one run and returns the
// run ID. If meta.ID is empty a timestamp-based ID is generated.
func (s *Store) Save(meta RunMetadata, rows []matching.Row) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSolution(filepath.Join(runDir, "solution.csv"), rows); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSolution(path string, rows []matching.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	record := make([]string, len(csvHeader))
	for _, r := range rows {
		for i, v := range []float64{r.X, r.FirmProductivity, r.FirmSize, r.Wage, r.Profit} {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the IDs of all stored runs, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads the metadata for one run.
func (s *Store) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("store: %s: %w", id, err)
	}
	return &meta, nil
}

// LoadSolution reads the solution table for one run.
func (s *Store) LoadSolution(id string) ([]matching.Row, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, "solution.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("store: %s: empty solution file", id)
	}

	rows := make([]matching.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("store: %s: malformed record %v", id, rec)
		}
		vals := make([]float64, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("store: %s: %w", id, err)
			}
			vals[i] = v
		}
		rows = append(rows, matching.Row{
			X:                vals[0],
			FirmProductivity: vals[1],
			FirmSize:         vals[2],
			Wage:             vals[3],
			Profit:           vals[4],
		})
	}
	return rows, nil
}

// Delete removes a stored run.
func (s *Store) Delete(id string) error {
	return os.RemoveAll(filepath.Join(s.baseDir, id))
}
