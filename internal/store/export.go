package store

import (
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// ExportData is the self-contained form of one run: metadata plus the full
// solution table, for handing to plotting or analysis tools.
type ExportData struct {
	Metadata RunMetadata    `json:"metadata"`
	Solution []matching.Row `json:"solution"`
}

// Export assembles the export form of a stored run.
func (s *Store) Export(id string) (*ExportData, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.LoadSolution(id)
	if err != nil {
		return nil, err
	}
	return &ExportData{Metadata: *meta, Solution: rows}, nil
}

// ExportJSON writes the run as indented JSON to the given path.
func (s *Store) ExportJSON(id, path string) error {
	data, err := s.Export(id)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeJSON(f, data)
}

// ExportJSONTo writes the run as indented JSON to w, for piping to stdout.
func (s *Store) ExportJSONTo(id string, w io.Writer) error {
	data, err := s.Export(id)
	if err != nil {
		return err
	}
	return writeJSON(w, data)
}

func writeJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
