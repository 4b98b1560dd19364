package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"housing-ranker/models"
)

func TestAmenityServicesScore(t *testing.T) {
	counts := models.AmenityCounts{TransitStations: 10, Parks: 5, Restaurants: 2}

	assert.InDelta(t, 4.0, TransitPoints(counts.TransitStations), 1e-9)
	assert.InDelta(t, 3.0, ParkPoints(counts.Parks), 1e-9)
	assert.InDelta(t, 1.2, RestaurantPoints(counts.Restaurants), 1e-9)
	assert.InDelta(t, 8.2, AmenityServicesScore(counts), 1e-9)
}

func TestAmenityRulesSaturate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int) float64
		in   int
		want float64
	}{
		{"transit below cap", TransitPoints, 3, 1.5},
		{"transit at cap", TransitPoints, 8, 4.0},
		{"transit above cap", TransitPoints, 40, 4.0},
		{"parks at cap", ParkPoints, 3, 2.25},
		{"parks above cap", ParkPoints, 4, 3.0},
		{"restaurants below cap", RestaurantPoints, 4, 2.4},
		{"restaurants at cap", RestaurantPoints, 5, 3.0},
		{"restaurants above cap", RestaurantPoints, 60, 3.0},
		{"negative count", TransitPoints, -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.fn(tt.in), 1e-9)
		})
	}
}

func TestAmenityServicesScoreMaximum(t *testing.T) {
	got := AmenityServicesScore(models.AmenityCounts{TransitStations: 100, Parks: 100, Restaurants: 100})
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestPoliceScore(t *testing.T) {
	assert.Equal(t, 0.0, PoliceScore(0))
	assert.Equal(t, 10.0, PoliceScore(1))
	assert.Equal(t, 10.0, PoliceScore(3))
}

func TestPropertyScore(t *testing.T) {
	// size 4.5, age 10 → 0.6·4.5 + 0.4·9
	assert.InDelta(t, 6.3, PropertyScore(2, 1, 2015, 2025), 1e-9)
	// size caps at 10, brand new building
	assert.InDelta(t, 10.0, PropertyScore(5, 4, 2025, 2025), 1e-9)
	// a century-old building contributes nothing for age
	assert.InDelta(t, 0.6*3, PropertyScore(1, 1, 1900, 2025), 1e-9)
}

func TestClamp10(t *testing.T) {
	assert.Equal(t, 0.0, Clamp10(-3))
	assert.Equal(t, 10.0, Clamp10(12.5))
	assert.Equal(t, 7.25, Clamp10(7.25))
	assert.Equal(t, 0.0, Clamp10(math.NaN()))
	assert.Equal(t, 10.0, Clamp10(math.Inf(1)))
}
