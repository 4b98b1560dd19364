package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"housing-ranker/models"
)

// Output file names inside the output directory.
const (
	ScoredCSVFile   = "scored_properties.csv"
	AllJSONFile     = "properties.json"
	ValidJSONFile   = "properties_valid.json"
	SummaryJSONFile = "run_summary.json"
	SecurityCSVFile = "security_by_district.csv"
)

// FileExporter writes a run's outputs as files under one directory.
type FileExporter struct {
	dir string
}

// NewFileExporter returns an exporter writing into dir.
func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{dir: dir}
}

// Path returns the full path of an output file.
func (e *FileExporter) Path(name string) string {
	return filepath.Join(e.dir, name)
}

// Write exports the scored CSV, both JSON tiers and the run summary.
func (e *FileExporter) Write(result *models.RunResult) error {
	if err := WriteScoredCSV(e.Path(ScoredCSVFile), result.All); err != nil {
		return err
	}
	if err := WriteJSON(e.Path(AllJSONFile), OutputRecords(result.All)); err != nil {
		return err
	}
	if err := WriteJSON(e.Path(ValidJSONFile), OutputRecords(result.Valid)); err != nil {
		return err
	}
	if result.Summary != nil {
		if err := WriteJSON(e.Path(SummaryJSONFile), result.Summary); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; files are closed as they are written.
func (e *FileExporter) Close() error { return nil }

// OutputRecords converts scored listings to export rows, keeping order.
func OutputRecords(listings []*models.ScoredListing) []models.OutputRecord {
	out := make([]models.OutputRecord, len(listings))
	for i, l := range listings {
		out[i] = l.ToOutput()
	}
	return out
}

// WriteJSON writes v as indented UTF-8 JSON without HTML escaping.
func WriteJSON(path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("json: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("json: write %s: %w", path, err)
	}
	return nil
}

// MarshalJSON is the encoding used for every JSON export.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
