package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"housing-ranker/models"
)

// RawListingHeader is the listings input header, also written by the fetcher.
var RawListingHeader = []string{
	"title", "location", "price", "area", "bedroom", "bathroom",
	"year_construction", "operation_type", "date_pub", "url",
}

// ScoredHeader is the column order of scored_properties.csv.
var ScoredHeader = []string{
	"title", "location", "district", "district_status",
	"price_clean", "area_clean", "bedroom_clean", "bathroom_clean",
	"cost_score", "safety_score", "services_score", "final_score",
	"date_pub", "url",
}

// CSVWriter appends raw listings to a CSV file in the listings input format.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(RawListingHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends raw listings.
func (c *CSVWriter) WriteRaw(listings []*models.RawListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		row := []string{
			l.Title, l.Location, l.Price, l.Area, l.Bedroom, l.Bathroom,
			l.YearBuilt, l.OperationType, l.DatePublished, l.URL,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}

// WriteScoredCSV writes the export rows in rank order. Unknown numerics are
// written as empty cells.
func WriteScoredCSV(path string, listings []*models.ScoredListing) error {
	rows := make([][]string, 0, len(listings)+1)
	rows = append(rows, ScoredHeader)
	for _, l := range listings {
		rec := l.ToOutput()
		district := ""
		if rec.District != nil {
			district = *rec.District
		}
		rows = append(rows, []string{
			rec.Title, rec.Location, district, rec.DistrictStatus,
			formatPtr(rec.PriceClean), formatPtr(rec.AreaClean),
			strconv.Itoa(rec.BedroomClean), strconv.Itoa(rec.BathroomClean),
			formatScore(rec.CostScore), formatScore(rec.SafetyScore),
			formatScore(rec.ServicesScore), formatScore(rec.FinalScore),
			rec.DatePublished, rec.URL,
		})
	}
	return writeAll(path, rows)
}

// WriteSecurityCSV writes the per-district security table.
func WriteSecurityCSV(path string, records []models.SecurityRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"district", "crime_count", "security_score"})
	for _, r := range records {
		rows = append(rows, []string{r.District, strconv.Itoa(r.CrimeCount), formatScore(r.SecurityScore)})
	}
	return writeAll(path, rows)
}

func writeAll(path string, rows [][]string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	return f.Close()
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("storage: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage: create file %q: %w", path, err)
	}
	return f, nil
}

func formatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(models.Round2(f), 'f', 2, 64)
}
