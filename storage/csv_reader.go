package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"housing-ranker/models"
)

// Header aliases accepted for each listings column.
var listingColumns = map[string][]string{
	"title":          {"title", "titulo"},
	"location":       {"location", "address", "direccion"},
	"price":          {"price", "precio"},
	"area":           {"area"},
	"bedroom":        {"bedroom", "bedrooms", "dormitorios"},
	"bathroom":       {"bathroom", "bathrooms", "banos"},
	"year":           {"year_construction", "year_contruction", "year_built"},
	"operation_type": {"operation_type", "operation"},
	"date_pub":       {"date_pub", "date_published", "scraped_date"},
	"url":            {"url", "link"},
}

var incidentColumns = map[string][]string{
	"district": {"district", "dist_hecho", "distrito"},
	"count":    {"crime_count", "incidents", "cantidad", "count"},
}

// LoadListings reads raw listings from a CSV file or a saved HTML search
// page, chosen by extension. A missing, unreadable or empty source is a
// *models.FatalInputError.
func LoadListings(path string) ([]*models.RawListing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.FatalInputError{Source: path, Err: err}
	}
	defer f.Close()

	var listings []*models.RawListing
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		listings, err = ParseListingCards(f, "")
	default:
		listings, err = ReadListingsCSV(f)
	}
	if err != nil {
		return nil, &models.FatalInputError{Source: path, Err: err}
	}
	if len(listings) == 0 {
		return nil, &models.FatalInputError{Source: path, Err: models.ErrNoListings}
	}
	return listings, nil
}

// ReadListingsCSV parses the listings CSV. Column order is free and missing
// optional columns read as empty strings.
func ReadListingsCSV(r io.Reader) ([]*models.RawListing, error) {
	cr := newCSVReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	cols := mapColumns(header, listingColumns)
	if _, ok := cols["location"]; !ok {
		return nil, fmt.Errorf("csv: listings header has no location column: %v", header)
	}

	var listings []*models.RawListing
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(listings)+2, err)
		}
		listings = append(listings, &models.RawListing{
			Title:         field(row, cols, "title"),
			Location:      field(row, cols, "location"),
			Price:         field(row, cols, "price"),
			Area:          field(row, cols, "area"),
			Bedroom:       field(row, cols, "bedroom"),
			Bathroom:      field(row, cols, "bathroom"),
			YearBuilt:     field(row, cols, "year"),
			OperationType: field(row, cols, "operation_type"),
			DatePublished: field(row, cols, "date_pub"),
			URL:           field(row, cols, "url"),
		})
	}
	return listings, nil
}

// LoadIncidents reads the security source. encoding "latin1" decodes the file
// as ISO-8859-1 first.
func LoadIncidents(path, encoding string) ([]models.IncidentRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("security: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(encoding, "latin1") {
		r = charmap.ISO8859_1.NewDecoder().Reader(f)
	}
	rows, err := ReadIncidentsCSV(r)
	if err != nil {
		return nil, fmt.Errorf("security: %s: %w", path, err)
	}
	return rows, nil
}

// ReadIncidentsCSV parses {district label, incident count} rows. Rows with an
// unparsable count are skipped. Without a count column every row is one
// incident.
func ReadIncidentsCSV(r io.Reader) ([]models.IncidentRow, error) {
	cr := newCSVReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	cols := mapColumns(header, incidentColumns)
	if _, ok := cols["district"]; !ok {
		return nil, fmt.Errorf("csv: security header has no district column: %v", header)
	}
	_, hasCount := cols["count"]

	var rows []models.IncidentRow
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		n := 1
		if hasCount {
			if n, err = parseCount(field(row, cols, "count")); err != nil {
				continue
			}
		}
		rows = append(rows, models.IncidentRow{DistrictLabel: field(row, cols, "district"), Count: n})
	}
	return rows, nil
}

// LoadScoredCSV reads a previous run's scored_properties.csv, used as the
// market reference for single-listing evaluation.
func LoadScoredCSV(path string) ([]models.OutputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.FatalInputError{Source: path, Err: err}
	}
	defer f.Close()

	cr := newCSVReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, &models.FatalInputError{Source: path, Err: err}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}

	var out []models.OutputRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scored csv: %w", err)
		}
		rec := models.OutputRecord{
			Title:          field(row, cols, "title"),
			Location:       field(row, cols, "location"),
			DistrictStatus: field(row, cols, "district_status"),
			PriceClean:     floatPtr(field(row, cols, "price_clean")),
			AreaClean:      floatPtr(field(row, cols, "area_clean")),
			URL:            field(row, cols, "url"),
		}
		if d := field(row, cols, "district"); d != "" {
			rec.District = &d
		}
		rec.BedroomClean, _ = strconv.Atoi(field(row, cols, "bedroom_clean"))
		rec.BathroomClean, _ = strconv.Atoi(field(row, cols, "bathroom_clean"))
		rec.FinalScore, _ = strconv.ParseFloat(field(row, cols, "final_score"), 64)
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, &models.FatalInputError{Source: path, Err: models.ErrNoListings}
	}
	return out, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// mapColumns returns the index of each logical column found in header.
func mapColumns(header []string, aliases map[string][]string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	cols := make(map[string]int, len(aliases))
	for name, candidates := range aliases {
		for _, c := range candidates {
			if i, ok := index[c]; ok {
				cols[name] = i
				break
			}
		}
	}
	return cols
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseCount(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func floatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
