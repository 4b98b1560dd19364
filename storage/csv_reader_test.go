package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"housing-ranker/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadListingsCSV(t *testing.T) {
	src := "\ufeffTitulo,Direccion,Precio,Area,Dormitorios,Banos,year_contruction,operation_type,date_pub,URL\n" +
		`"Depa, vista al mar","Miraflores, Lima",USD 900,90 m²,2,1,2015,alquiler,2025-03-01,https://urbania.pe/inmueble/1` + "\n" +
		`Minidepa,"Lince, Lima",S/ 1500,,,,,alquiler,,https://urbania.pe/inmueble/2` + "\n"

	listings, err := ReadListingsCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, &models.RawListing{
		Title:         "Depa, vista al mar",
		Location:      "Miraflores, Lima",
		Price:         "USD 900",
		Area:          "90 m²",
		Bedroom:       "2",
		Bathroom:      "1",
		YearBuilt:     "2015",
		OperationType: "alquiler",
		DatePublished: "2025-03-01",
		URL:           "https://urbania.pe/inmueble/1",
	}, listings[0])
	assert.Equal(t, "", listings[1].Area)
	assert.Equal(t, "S/ 1500", listings[1].Price)
}

func TestReadListingsCSVRequiresLocation(t *testing.T) {
	_, err := ReadListingsCSV(strings.NewReader("title,price\nA,100\n"))
	assert.Error(t, err)
}

func TestLoadListingsFatal(t *testing.T) {
	var fatal *models.FatalInputError

	_, err := LoadListings(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.As(err, &fatal))

	_, err = LoadListings(writeFile(t, "empty.csv", "title,location,price\n"))
	assert.True(t, errors.As(err, &fatal))
	assert.True(t, errors.Is(err, models.ErrNoListings))
}

func TestLoadListingsHTML(t *testing.T) {
	path := writeFile(t, "search.html", searchPageHTML)
	listings, err := LoadListings(path)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestReadIncidentsCSV(t *testing.T) {
	src := "DIST_HECHO,cantidad\nMIRAFLORES,12\nSAN ISIDRO,\"1,204\"\nATE,n/a\nLINCE,3.0\n"

	rows, err := ReadIncidentsCSV(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []models.IncidentRow{
		{DistrictLabel: "MIRAFLORES", Count: 12},
		{DistrictLabel: "SAN ISIDRO", Count: 1204},
		{DistrictLabel: "LINCE", Count: 3},
	}, rows)
}

func TestReadIncidentsCSVWithoutCount(t *testing.T) {
	src := "id,distrito,modalidad\n1,ATE,robo\n2,ATE,hurto\n3,COMAS,robo\n"

	rows, err := ReadIncidentsCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, 1, r.Count)
	}
}

func TestLoadIncidentsLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("district,crime_count\nBREÑA,40\nRÍMAC,25\n")
	require.NoError(t, err)
	path := writeFile(t, "security.csv", encoded)

	rows, err := LoadIncidents(path, "latin1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BREÑA", rows[0].DistrictLabel)
	assert.Equal(t, "RÍMAC", rows[1].DistrictLabel)
}

func TestLoadIncidentsMissingFile(t *testing.T) {
	_, err := LoadIncidents(filepath.Join(t.TempDir(), "nope.csv"), "utf8")
	assert.Error(t, err)
}

func TestLoadAmenities(t *testing.T) {
	path := writeFile(t, "amenities.json", `{
		"https://urbania.pe/inmueble/1": {"restaurants": 4, "parks": 2, "police_stations": 1, "transit_stations": 6},
		"  ": {"restaurants": 1}
	}`)

	got, err := LoadAmenities(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.AmenityCounts{
		"https://urbania.pe/inmueble/1": {Restaurants: 4, Parks: 2, PoliceStations: 1, TransitStations: 6},
	}, got)

	empty, err := LoadAmenities("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadAmenities(writeFile(t, "bad.json", "[1,2]"))
	assert.Error(t, err)
}
