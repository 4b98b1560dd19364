package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-ranker/config"
	"housing-ranker/models"
	"housing-ranker/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func newTestCleaner() *Cleaner {
	profile := config.DefaultLimaProfile()
	return NewCleaner(newTestLogger(), CleanerOptions{
		ExchangeRate:    3.7,
		LocalCurrency:   profile.Currency.Local,
		ForeignCurrency: profile.Currency.Foreign,
		CurrencyMarkers: profile.Currency.Markers,
		CurrentYear:     2025,
		BaselineYear:    2000,
		OperationFilter: "alquiler",
	})
}

func TestCleanerParsePrice(t *testing.T) {
	c := newTestCleaner()

	tests := []struct {
		raw     string
		want    float64
		foreign bool
	}{
		{"USD 900", 3330, true},
		{"US$ 1,200", 4440, true},
		{"$ 800", 2960, true},
		{"S/ 2,500", 2500, false},
		{"S/. 1,850.50", 1850.50, false},
		{"2500", 2500, false},
	}

	for _, tt := range tests {
		got, foreign := c.ParsePrice(tt.raw)
		require.NotNil(t, got, "ParsePrice(%q)", tt.raw)
		assert.InDelta(t, tt.want, *got, 1e-6, "ParsePrice(%q)", tt.raw)
		assert.Equal(t, tt.foreign, foreign, "ParsePrice(%q) foreign", tt.raw)
	}
}

func TestCleanerParsePriceWithoutDigits(t *testing.T) {
	c := newTestCleaner()
	for _, raw := range []string{"", "Consultar", "Precio a tratar", "USD"} {
		got, _ := c.ParsePrice(raw)
		assert.Nil(t, got, "ParsePrice(%q)", raw)
	}
}

func TestCleanerParseArea(t *testing.T) {
	c := newTestCleaner()

	got := c.ParseArea("120 m²")
	require.NotNil(t, got)
	assert.Equal(t, 120.0, *got)

	got = c.ParseArea("85.5 mÂ²")
	require.NotNil(t, got)
	assert.Equal(t, 85.5, *got)

	got = c.ParseArea("1,250 m² totales")
	require.NotNil(t, got)
	assert.Equal(t, 1250.0, *got)

	assert.Nil(t, c.ParseArea(""))
	assert.Nil(t, c.ParseArea("sin dato"))
}

func TestCleanerParseCount(t *testing.T) {
	c := newTestCleaner()

	tests := []struct {
		raw       string
		want      int
		defaulted bool
	}{
		{"3 dorm.", 3, false},
		{"2", 2, false},
		{"", 1, true},
		{"0", 1, true},
		{"estudio", 1, true},
	}

	for _, tt := range tests {
		got, defaulted := c.ParseCount(tt.raw)
		assert.Equal(t, tt.want, got, "ParseCount(%q)", tt.raw)
		assert.Equal(t, tt.defaulted, defaulted, "ParseCount(%q) defaulted", tt.raw)
	}
}

func TestCleanerParseYear(t *testing.T) {
	c := newTestCleaner()

	tests := []struct {
		raw       string
		want      int
		defaulted bool
	}{
		{"2010", 2010, false},
		{"2010.0", 2010, false},
		{"2025", 2025, false},
		{"", 2000, true},
		{"abc", 2000, true},
		{"1700", 2000, true},
		{"2099", 2000, true},
	}

	for _, tt := range tests {
		got, defaulted := c.ParseYear(tt.raw)
		assert.Equal(t, tt.want, got, "ParseYear(%q)", tt.raw)
		assert.Equal(t, tt.defaulted, defaulted, "ParseYear(%q) defaulted", tt.raw)
	}
}

func TestCleanerClean(t *testing.T) {
	c := newTestCleaner()
	raw := []*models.RawListing{
		{Title: "Depa  en  Miraflores", Location: "Miraflores, Lima", Price: "USD 900", Area: "90 m²", Bedroom: "2", Bathroom: "1", OperationType: "Alquiler", URL: "https://urbania.pe/inmueble/1"},
		{Title: "Duplicate", Location: "Miraflores, Lima", Price: "S/ 1,000", OperationType: "alquiler", URL: "https://urbania.pe/inmueble/1"},
		{Title: "For sale", Location: "Surco, Lima", Price: "USD 150,000", OperationType: "venta", URL: "https://urbania.pe/inmueble/2"},
		{Title: "No price", Location: "Lince, Lima", Price: "Consultar", OperationType: "alquiler", URL: "https://urbania.pe/inmueble/3"},
	}
	summary := models.NewRunSummary("test")

	cleaned := c.Clean(raw, summary)

	require.Len(t, cleaned, 2)
	assert.Equal(t, "Depa en Miraflores", cleaned[0].Title)
	assert.Equal(t, 0, cleaned[0].Seq)
	assert.Equal(t, 1, cleaned[1].Seq)
	assert.Equal(t, "USD", cleaned[0].PriceCurrency)
	assert.InDelta(t, 3330.0, *cleaned[0].Price, 1e-6)
	assert.Nil(t, cleaned[1].Price)

	assert.Equal(t, 1, summary.DuplicateURLs)
	assert.Equal(t, 1, summary.FilteredOperation)
	assert.Equal(t, 1, summary.ConvertedCurrency)
	assert.Equal(t, 1, summary.PriceMissing)
	assert.Equal(t, 1, summary.AreaMissing)
	assert.Equal(t, 1, summary.BedroomsDefaulted)
	assert.Equal(t, 2, summary.YearDefaulted)
}

func TestCleanerCleanWithoutFilter(t *testing.T) {
	c := NewCleaner(newTestLogger(), CleanerOptions{ExchangeRate: 3.7, CurrentYear: 2025, BaselineYear: 2000})
	raw := []*models.RawListing{
		{Title: "A", OperationType: "venta"},
		{Title: "B"},
		{Title: "C"},
	}

	cleaned := c.Clean(raw, nil)

	// rows without a URL are never treated as duplicates
	assert.Len(t, cleaned, 3)
}

func TestCleanerRepairsMojibake(t *testing.T) {
	c := newTestCleaner()
	l := c.CleanOne(&models.RawListing{Title: "Depa en BREÃ‘A", Location: "BREÃ‘A, Lima"})
	assert.Equal(t, "Depa en BREÑA", l.Title)
	assert.Equal(t, "BREÑA, Lima", l.Location)
}
