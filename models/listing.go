package models

// RawListing holds one property exactly as the scraper or form delivered it.
// Every field is text; typing happens only inside the cleaner.
type RawListing struct {
	Title         string
	Location      string
	Price         string
	Area          string
	Bedroom       string
	Bathroom      string
	YearBuilt     string
	OperationType string
	DatePublished string
	URL           string
}

// CleanedListing is a RawListing after field cleaning. Price and Area are nil
// when the source text held no usable number; counts and year always carry a
// value (parsed or defaulted).
type CleanedListing struct {
	Seq           int
	Title         string
	Location      string
	OperationType string
	DatePublished string
	URL           string

	Price         *float64
	PriceCurrency string
	Area          *float64
	Bedrooms      int
	Bathrooms     int
	YearBuilt     int

	BedroomsDefaulted  bool
	BathroomsDefaulted bool
	YearDefaulted      bool
}

// PricePerM2 returns price divided by area when both are known and area is positive.
func (l *CleanedListing) PricePerM2() (float64, bool) {
	if l.Price == nil || l.Area == nil || *l.Area <= 0 {
		return 0, false
	}
	return *l.Price / *l.Area, true
}

// ValidForDisplay reports whether the listing belongs to the comparable subset.
func (l *CleanedListing) ValidForDisplay() bool {
	_, ok := l.PricePerM2()
	return ok
}

// DistrictStatus tells how a location string was mapped to a district.
type DistrictStatus string

const (
	DistrictResolved   DistrictStatus = "resolved"
	DistrictCityWide   DistrictStatus = "city-wide"
	DistrictUnresolved DistrictStatus = "unresolved"
)

// Resolution is the District Resolver's answer for one location string.
type Resolution struct {
	District string
	Status   DistrictStatus
}

// Resolved reports whether the resolution names a vocabulary district.
func (r Resolution) Resolved() bool {
	return r.Status == DistrictResolved
}

// AmenityCounts are radius-scoped counts from the places lookup.
type AmenityCounts struct {
	Restaurants     int `json:"restaurants"`
	Parks           int `json:"parks"`
	PoliceStations  int `json:"police_stations"`
	TransitStations int `json:"transit_stations"`
}

// MarketBasis names which comparable set priced a listing against the market.
type MarketBasis string

const (
	MarketBedrooms MarketBasis = "district+bedrooms"
	MarketDistrict MarketBasis = "district"
	MarketNeutral  MarketBasis = "neutral"
)

// ScoredListing is the terminal record of the pipeline.
type ScoredListing struct {
	CleanedListing
	Resolution

	Amenities *AmenityCounts

	CostScore     float64
	SafetyScore   float64
	ServicesScore float64
	FinalScore    float64

	// Components kept for auditing and for the four-factor variant.
	DistrictSecurityScore float64
	SecurityMatched       bool
	PoliceScore           float64
	AmenityServicesScore  float64
	PropertyScore         float64
	PriceVsMarketScore    float64
	MarketBasis           MarketBasis
}

// SecurityRecord is the per-district aggregate of the security source.
type SecurityRecord struct {
	District      string  `json:"district"`
	CrimeCount    int     `json:"crime_count"`
	SecurityScore float64 `json:"security_score"`
}

// IncidentRow is one row of the security source before aggregation.
type IncidentRow struct {
	DistrictLabel string
	Count         int
}
