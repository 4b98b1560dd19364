package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-ranker/config"
	"housing-ranker/models"
)

func newTestResolver() *DistrictResolver {
	return NewDistrictResolver(config.DefaultLimaProfile(), newTestLogger())
}

func TestResolveStripsCityTail(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve("Ur. Santa Cruz, Miraflores, Lima, Lima")

	assert.Equal(t, "MIRAFLORES", res.District)
	assert.Equal(t, models.DistrictResolved, res.Status)
}

func TestResolve(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		location string
		want     string
		status   models.DistrictStatus
	}{
		{"San Isidro, Lima", "SAN ISIDRO", models.DistrictResolved},
		{"Urb. Miraflores, Lima", "MIRAFLORES", models.DistrictResolved},
		{"Santiago de Surco, Lima, Lima", "SURCO", models.DistrictResolved},
		{"Jesús María, Lima", "JESUS MARIA", models.DistrictResolved},
		{"Brena, Lima", "BREÑA", models.DistrictResolved},
		{"BREÃ‘A, Lima", "BREÑA", models.DistrictResolved},
		{"Cercado de Lima, Lima", "LIMA", models.DistrictResolved},
		{"Lima, Lima", "LIMA", models.DistrictResolved},
		{"  la   molina ,lima", "LA MOLINA", models.DistrictResolved},
		{"Av. Larco 1234, Lima", "LIMA (CITY-WIDE)", models.DistrictCityWide},
		{"Cayma, Arequipa", "", models.DistrictUnresolved},
		{"", "", models.DistrictUnresolved},
		{" , ,", "", models.DistrictUnresolved},
	}

	for _, tt := range tests {
		res := r.Resolve(tt.location)
		assert.Equal(t, tt.want, res.District, "Resolve(%q)", tt.location)
		assert.Equal(t, tt.status, res.Status, "Resolve(%q) status", tt.location)
	}
}

func TestResolveLeftmostSegmentWins(t *testing.T) {
	r := newTestResolver()
	res := r.Resolve("Barranco, Chorrillos, Lima")
	assert.Equal(t, "BARRANCO", res.District)
}

func TestResolveExactBeatsAlias(t *testing.T) {
	r := newTestResolver()
	// "MAGDALENA" is an alias, but an exact district further right wins
	res := r.Resolve("Magdalena, San Miguel, Lima")
	assert.Equal(t, "SAN MIGUEL", res.District)
}

func TestResolveIsIdempotent(t *testing.T) {
	r := newTestResolver()
	for _, d := range config.DefaultLimaProfile().Districts {
		res := r.Resolve(d)
		assert.Equal(t, d, res.District, "Resolve(%q)", d)
		assert.True(t, res.Resolved())

		again := r.Resolve(res.District)
		assert.Equal(t, res, again)
	}
}

func TestResolveCityWideRoundTrips(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve("Av. Larco, Lima")
	require.Equal(t, models.DistrictCityWide, res.Status)

	again := r.Resolve(res.District)
	assert.Equal(t, res, again)
	assert.Equal(t, res, r.Resolve("  lima (city-wide) "))
}

func TestCanonicalize(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"MIRAFLORES", "MIRAFLORES", true},
		{"san juan de lurigancho", "SAN JUAN DE LURIGANCHO", true},
		{"SJL", "SAN JUAN DE LURIGANCHO", true},
		{"LURIGANCHO - CHOSICA", "LURIGANCHO", true},
		{"Rímac", "RIMAC", true},
		{"CALLAO", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := r.Canonicalize(tt.label)
		assert.Equal(t, tt.want, got, "Canonicalize(%q)", tt.label)
		assert.Equal(t, tt.ok, ok, "Canonicalize(%q) ok", tt.label)
	}
}

func TestResolverUsesProfileVocabulary(t *testing.T) {
	profile := &config.CityProfile{
		City:          "AREQUIPA",
		CityTailDepth: 1,
		CityWideLabel: "AREQUIPA (CITY-WIDE)",
		Districts:     []string{"CAYMA", "YANAHUARA"},
		Aliases:       map[string]string{"CAYMA CENTRO": "CAYMA"},
	}
	r := NewDistrictResolver(profile, newTestLogger())

	assert.Equal(t, "CAYMA", r.Resolve("Cayma Centro, Arequipa").District)
	assert.Equal(t, models.DistrictCityWide, r.Resolve("Calle Mercaderes, Arequipa").Status)
	assert.Equal(t, models.DistrictUnresolved, r.Resolve("Miraflores, Lima").Status)
}
