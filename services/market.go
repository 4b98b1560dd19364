package services

import (
	"housing-ranker/models"
)

// Saturation bounds for the price-vs-market ratio.
const marketBand = 0.30

type marketEntry struct {
	seq      int
	bedrooms int
	ppm      float64
}

// Market holds the price per m² of every valid listing, grouped by district.
type Market struct {
	byDistrict map[string][]marketEntry
}

// NewMarket returns an empty market.
func NewMarket() *Market {
	return &Market{byDistrict: make(map[string][]marketEntry)}
}

// NewMarketFromListings indexes every resolved listing that has a price per m².
func NewMarketFromListings(listings []*models.ScoredListing) *Market {
	m := NewMarket()
	for _, l := range listings {
		if !l.Resolved() {
			continue
		}
		if ppm, ok := l.PricePerM2(); ok {
			m.Add(l.District, l.Bedrooms, ppm, l.Seq)
		}
	}
	return m
}

// Add records one comparable. seq identifies the listing so it can be left
// out of its own comparison; use a negative seq for external data.
func (m *Market) Add(district string, bedrooms int, ppm float64, seq int) {
	if district == "" || ppm <= 0 {
		return
	}
	m.byDistrict[district] = append(m.byDistrict[district], marketEntry{seq: seq, bedrooms: bedrooms, ppm: ppm})
}

// Districts returns the number of districts with at least one comparable.
func (m *Market) Districts() int {
	return len(m.byDistrict)
}

// Mean returns the mean price per m² of the comparables for a listing: same
// district with bedrooms within ±1, else the whole district. The listing with
// seq exclude is never its own comparable.
func (m *Market) Mean(district string, bedrooms, exclude int) (float64, models.MarketBasis) {
	entries := m.byDistrict[district]

	var near, all float64
	var nearN, allN int
	for _, e := range entries {
		if e.seq == exclude && exclude >= 0 {
			continue
		}
		all += e.ppm
		allN++
		if abs(e.bedrooms-bedrooms) <= 1 {
			near += e.ppm
			nearN++
		}
	}

	switch {
	case nearN > 0:
		return near / float64(nearN), models.MarketBedrooms
	case allN > 0:
		return all / float64(allN), models.MarketDistrict
	}
	return 0, models.MarketNeutral
}

// PriceVsMarketScore scores a price per m² against a market mean: 30% below
// the mean or more gives 10, 30% above or more gives 0, parity gives 5.
func PriceVsMarketScore(ppm, mean float64) float64 {
	d := (ppm - mean) / mean
	switch {
	case d <= -marketBand:
		return maxScore
	case d >= marketBand:
		return 0
	}
	return Clamp10(5 - d*10)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
