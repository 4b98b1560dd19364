package storage

import "housing-ranker/models"

// ResultWriter is the interface any run output backend must satisfy.
type ResultWriter interface {
	Write(result *models.RunResult) error
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed fetched data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}

var (
	_ ResultWriter     = (*FileExporter)(nil)
	_ ResultWriter     = (*PostgresWriter)(nil)
	_ RawListingWriter = (*CSVWriter)(nil)
)
