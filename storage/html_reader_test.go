package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPageHTML = `<!DOCTYPE html>
<html>
<head><link rel="canonical" href="https://urbania.pe/buscar/alquiler-de-departamentos"></head>
<body>
  <div class="card" data-date="2025-03-10">
    <a class="title" href="/inmueble/alquiler-departamento-miraflores-123">Departamento   con vista al mar</a>
    <div class="price">USD 1,100</div>
    <div class="address">Malecón Cisneros, Miraflores, Lima</div>
    <div class="feature">120 m²</div>
    <div class="feature">3 dorm.</div>
    <div class="feature">2 baños</div>
    <div class="feature">Año 2018</div>
  </div>
  <div class="card" data-operation="venta">
    <a class="title" href="https://urbania.pe/inmueble/venta-casa-surco-9">Casa en Surco</a>
    <div class="price">USD 350,000</div>
    <div class="address">Santiago de Surco, Lima</div>
  </div>
  <div class="card"></div>
</body>
</html>`

func TestParseListingCards(t *testing.T) {
	listings, err := ParseListingCards(strings.NewReader(searchPageHTML), "")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "Departamento con vista al mar", first.Title)
	assert.Equal(t, "https://urbania.pe/inmueble/alquiler-departamento-miraflores-123", first.URL)
	assert.Equal(t, "USD 1,100", first.Price)
	assert.Equal(t, "Malecón Cisneros, Miraflores, Lima", first.Location)
	assert.Equal(t, "120 m²", first.Area)
	assert.Equal(t, "3 dorm.", first.Bedroom)
	assert.Equal(t, "2 baños", first.Bathroom)
	assert.Equal(t, "2018", first.YearBuilt)
	assert.Equal(t, "alquiler", first.OperationType)
	assert.Equal(t, "2025-03-10", first.DatePublished)

	second := listings[1]
	assert.Equal(t, "venta", second.OperationType)
	assert.Equal(t, "https://urbania.pe/inmueble/venta-casa-surco-9", second.URL)
	assert.Empty(t, second.Area)
}

func TestParseListingCardsBaseURL(t *testing.T) {
	listings, err := ParseListingCards(strings.NewReader(searchPageHTML), "https://example.test")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/inmueble/alquiler-departamento-miraflores-123", listings[0].URL)
}

func TestParseListingCardsVentaPage(t *testing.T) {
	page := `<html><head><link rel="canonical" href="https://urbania.pe/buscar/venta-de-casas"></head>
<body><div class="card"><a class="title" href="/x">Casa</a><div class="address">Ate, Lima</div></div></body></html>`

	listings, err := ParseListingCards(strings.NewReader(page), "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "venta", listings[0].OperationType)
}
