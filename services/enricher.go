package services

import (
	"context"
	"sync"

	"housing-ranker/models"
	"housing-ranker/utils"
)

// AmenityLookup counts amenities around a free-text location.
type AmenityLookup interface {
	Lookup(ctx context.Context, location string) (models.AmenityCounts, error)
}

// Enricher attaches amenity counts to listings, first from a precomputed
// table keyed by URL, then through live lookups for the rest.
type Enricher struct {
	logger      *utils.Logger
	lookup      AmenityLookup
	maxWorkers  int
	rateLimitMs int
}

// NewEnricher creates an enricher. lookup may be nil, in which case only the
// precomputed table is used.
func NewEnricher(lookup AmenityLookup, maxWorkers, rateLimitMs int, logger *utils.Logger) *Enricher {
	return &Enricher{logger: logger, lookup: lookup, maxWorkers: maxWorkers, rateLimitMs: rateLimitMs}
}

// Enrich fills Amenities in place. Listings whose lookup fails keep nil
// amenities and fall back to the property score downstream.
func (e *Enricher) Enrich(ctx context.Context, listings []*models.ScoredListing, known map[string]models.AmenityCounts, summary *models.RunSummary) {
	var pending []int
	for i, l := range listings {
		if counts, ok := known[l.URL]; ok && l.URL != "" {
			c := counts
			l.Amenities = &c
			continue
		}
		if e.lookup != nil && l.Location != "" {
			pending = append(pending, i)
		}
	}

	if len(pending) > 0 {
		e.lookupAll(ctx, listings, pending, summary)
	}

	for _, l := range listings {
		if l.Amenities != nil && summary != nil {
			summary.AmenitiesKnown++
		}
	}
}

// lookupAll runs the live lookups on the rate-limited pool. Each job writes
// only its own slot of results.
func (e *Enricher) lookupAll(ctx context.Context, listings []*models.ScoredListing, pending []int, summary *models.RunSummary) {
	e.logger.Info("[enricher] Looking up amenities for %d listings (workers: %d, rate: %dms)",
		len(pending), e.maxWorkers, e.rateLimitMs)

	results := make([]*models.AmenityCounts, len(pending))
	var mu sync.Mutex
	failures := 0

	pool := utils.NewWorkerPool(e.maxWorkers, e.rateLimitMs)
	for slot, idx := range pending {
		location := listings[idx].Location
		pool.Submit(func() {
			var counts models.AmenityCounts
			err := ctx.Err()
			if err == nil {
				counts, err = e.lookup.Lookup(ctx, location)
			}
			if err != nil {
				e.logger.Warn("[enricher] Lookup failed for %q: %v", location, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			results[slot] = &counts
		})
	}
	pool.Wait()

	for slot, idx := range pending {
		if results[slot] != nil {
			listings[idx].Amenities = results[slot]
		}
	}
	if summary != nil {
		summary.AmenityLookupFailures += failures
	}
	e.logger.Info("[enricher] %d/%d lookups succeeded", len(pending)-failures, len(pending))
}
