package models

import (
	"sort"
	"time"
)

// RunSummary aggregates every non-fatal condition seen during one run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	Variant     string    `json:"variant"`
	CurrentYear int       `json:"current_year"`

	ExchangeRate         float64 `json:"exchange_rate"`
	ExchangeRateFallback bool    `json:"exchange_rate_fallback"`

	RawListings        int `json:"raw_listings"`
	FilteredOperation  int `json:"filtered_operation"`
	DuplicateURLs      int `json:"duplicate_urls"`
	CleanedListings    int `json:"cleaned_listings"`
	ScoredListings     int `json:"scored_listings"`
	ValidListings      int `json:"valid_listings"`
	StrictDropped      int `json:"strict_dropped"`
	ConvertedCurrency  int `json:"converted_currency"`
	PriceMissing       int `json:"price_missing"`
	AreaMissing        int `json:"area_missing"`
	BedroomsDefaulted  int `json:"bedrooms_defaulted"`
	BathroomsDefaulted int `json:"bathrooms_defaulted"`
	YearDefaulted      int `json:"year_defaulted"`

	ResolvedDistricts     int `json:"resolved_districts"`
	CityWideListings      int `json:"city_wide_listings"`
	UnresolvedListings    int `json:"unresolved_listings"`
	SecurityUnmatched     int `json:"security_unmatched_listings"`
	SecurityLabelsDropped int `json:"security_labels_dropped"`

	UnmatchedDistricts map[string]int `json:"unmatched_districts"`

	AmenitiesKnown        int `json:"amenities_known"`
	AmenityLookupFailures int `json:"amenity_lookup_failures"`
	MarketBedroomBasis    int `json:"market_bedroom_basis"`
	MarketDistrictBasis   int `json:"market_district_basis"`
	MarketNeutralBasis    int `json:"market_neutral_basis"`
}

// NewRunSummary returns a summary ready to accumulate counts.
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:              runID,
		StartedAt:          time.Now().UTC(),
		UnmatchedDistricts: make(map[string]int),
	}
}

// MarkUnmatched records a listing whose district has no security data.
func (s *RunSummary) MarkUnmatched(district string) {
	s.SecurityUnmatched++
	if district != "" {
		s.UnmatchedDistricts[district]++
	}
}

// UnmatchedDistrictNames returns the unmatched district names sorted.
func (s *RunSummary) UnmatchedDistrictNames() []string {
	names := make([]string, 0, len(s.UnmatchedDistricts))
	for d := range s.UnmatchedDistricts {
		names = append(names, d)
	}
	sort.Strings(names)
	return names
}

// Rate returns part as a percentage of the scored listings.
func (s *RunSummary) Rate(part int) float64 {
	return percent(part, s.ScoredListings)
}

// CleanedRate returns part as a percentage of the cleaned listings. Cleaning
// and district counters are taken before strict mode drops anything.
func (s *RunSummary) CleanedRate(part int) float64 {
	return percent(part, s.CleanedListings)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// DistrictStat summarises the valid listings of one district.
type DistrictStat struct {
	District     string
	Count        int
	AveragePrice float64
	AverageScore float64
}

// InsightReport holds the computed analytics over the scored dataset.
type InsightReport struct {
	TotalListings int
	ValidListings int
	AveragePrice  float64
	AverageArea   float64
	AverageScore  float64
	TopRanked     []*ScoredListing
	TopDistricts  []DistrictStat
	Summary       *RunSummary
}

// RunResult is what one pipeline run produces.
type RunResult struct {
	RunID    string
	All      []*ScoredListing
	Valid    []*ScoredListing
	Security []SecurityRecord
	Summary  *RunSummary
}
