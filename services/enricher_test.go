package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"housing-ranker/models"
)

type fakeLookup struct {
	counts map[string]models.AmenityCounts
	calls  atomic.Int64
}

func (f *fakeLookup) Lookup(_ context.Context, location string) (models.AmenityCounts, error) {
	f.calls.Add(1)
	c, ok := f.counts[location]
	if !ok {
		return models.AmenityCounts{}, errors.New("no geocode")
	}
	return c, nil
}

func TestEnricherPrefersKnownCounts(t *testing.T) {
	lookup := &fakeLookup{counts: map[string]models.AmenityCounts{
		"Miraflores, Lima": {Restaurants: 4},
		"Surco, Lima":      {Parks: 2},
	}}
	listings := []*models.ScoredListing{
		{CleanedListing: models.CleanedListing{URL: "u1", Location: "Miraflores, Lima"}},
		{CleanedListing: models.CleanedListing{URL: "u2", Location: "Surco, Lima"}},
		{CleanedListing: models.CleanedListing{URL: "u3", Location: "Nowhere"}},
		{CleanedListing: models.CleanedListing{URL: "u4"}},
	}
	known := map[string]models.AmenityCounts{"u1": {Restaurants: 9}}
	summary := models.NewRunSummary("test")

	NewEnricher(lookup, 2, 0, newTestLogger()).Enrich(context.Background(), listings, known, summary)

	assert.Equal(t, 9, listings[0].Amenities.Restaurants)
	assert.Equal(t, 2, listings[1].Amenities.Parks)
	assert.Nil(t, listings[2].Amenities)
	assert.Nil(t, listings[3].Amenities)

	assert.Equal(t, int64(2), lookup.calls.Load())
	assert.Equal(t, 2, summary.AmenitiesKnown)
	assert.Equal(t, 1, summary.AmenityLookupFailures)
}

func TestEnricherWithoutLookup(t *testing.T) {
	listings := []*models.ScoredListing{
		{CleanedListing: models.CleanedListing{URL: "u1", Location: "Miraflores, Lima"}},
	}
	summary := models.NewRunSummary("test")

	NewEnricher(nil, 1, 0, newTestLogger()).Enrich(context.Background(), listings, nil, summary)

	assert.Nil(t, listings[0].Amenities)
	assert.Equal(t, 0, summary.AmenitiesKnown)
	assert.Equal(t, 0, summary.AmenityLookupFailures)
}

func TestEnricherCancelled(t *testing.T) {
	lookup := &fakeLookup{counts: map[string]models.AmenityCounts{"Ate, Lima": {Parks: 1}}}
	listings := []*models.ScoredListing{
		{CleanedListing: models.CleanedListing{URL: "u1", Location: "Ate, Lima"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := models.NewRunSummary("test")

	NewEnricher(lookup, 1, 0, newTestLogger()).Enrich(ctx, listings, nil, summary)

	assert.Nil(t, listings[0].Amenities)
	assert.Equal(t, int64(0), lookup.calls.Load())
	assert.Equal(t, 1, summary.AmenityLookupFailures)
}
