package services

import (
	"math"

	"housing-ranker/models"
)

// Saturating amenity rules. Each category caps on its own before the sum.
const (
	transitCap       = 8
	transitPoints    = 0.5
	parkCap          = 3
	parkPoints       = 0.75
	parkFlat         = 3.0
	restaurantCap    = 5
	restaurantPoints = 0.6
	restaurantFlat   = 3.0

	maxScore = 10.0
)

// TransitPoints is min(count, 8) × 0.5.
func TransitPoints(count int) float64 {
	return float64(min(nonNegative(count), transitCap)) * transitPoints
}

// ParkPoints is count × 0.75 up to three parks, then a flat 3.0.
func ParkPoints(count int) float64 {
	count = nonNegative(count)
	if count <= parkCap {
		return float64(count) * parkPoints
	}
	return parkFlat
}

// RestaurantPoints is count × 0.6 below five restaurants, then a flat 3.0.
func RestaurantPoints(count int) float64 {
	count = nonNegative(count)
	if count < restaurantCap {
		return float64(count) * restaurantPoints
	}
	return restaurantFlat
}

// AmenityServicesScore sums the three category points on a 0–10 scale.
func AmenityServicesScore(c models.AmenityCounts) float64 {
	return Clamp10(TransitPoints(c.TransitStations) + ParkPoints(c.Parks) + RestaurantPoints(c.Restaurants))
}

// PoliceScore is a binary gate: any station within the radius scores 10.
func PoliceScore(count int) float64 {
	if count >= 1 {
		return maxScore
	}
	return 0
}

// PropertyScore combines size (bedrooms plus bathrooms) and building age.
func PropertyScore(bedrooms, bathrooms, yearBuilt, currentYear int) float64 {
	size := math.Min(float64(bedrooms+bathrooms)*1.5, maxScore)
	age := float64(currentYear - yearBuilt)
	ageScore := Clamp10(maxScore * (1 - age/100))
	return Clamp10(0.6*Clamp10(size) + 0.4*ageScore)
}

// Clamp10 bounds v to [0, 10]. NaN maps to 0.
func Clamp10(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > maxScore:
		return maxScore
	}
	return v
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
