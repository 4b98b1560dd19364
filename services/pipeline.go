package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"housing-ranker/config"
	"housing-ranker/models"
	"housing-ranker/utils"
)

// RateSource supplies the run's exchange rate and whether it is a fallback.
type RateSource interface {
	Rate(ctx context.Context) (float64, bool)
}

// FixedRate is a RateSource that always returns the same rate.
type FixedRate float64

func (r FixedRate) Rate(context.Context) (float64, bool) { return float64(r), false }

// PipelineInput is everything one run reads.
type PipelineInput struct {
	Listings  []*models.RawListing
	Incidents []models.IncidentRow
	Amenities map[string]models.AmenityCounts
}

// Pipeline runs cleaning, district resolution, enrichment, scoring and
// ranking over one batch of listings.
type Pipeline struct {
	cfg      *config.Config
	profile  *config.CityProfile
	rates    RateSource
	enricher *Enricher
	logger   *utils.Logger
	newID    func() string
}

// NewPipeline wires a pipeline. enricher may be nil.
func NewPipeline(cfg *config.Config, profile *config.CityProfile, rates RateSource, enricher *Enricher, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		profile:  profile,
		rates:    rates,
		enricher: enricher,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Run scores the input and returns both output tiers with the run summary.
// An input without listings is a *models.FatalInputError.
func (p *Pipeline) Run(ctx context.Context, in PipelineInput) (*models.RunResult, error) {
	if len(in.Listings) == 0 {
		return nil, &models.FatalInputError{Source: "listings", Err: models.ErrNoListings}
	}

	runID := p.newID()
	summary := models.NewRunSummary(runID)
	summary.CurrentYear = p.cfg.CurrentYear
	summary.RawListings = len(in.Listings)

	engine, err := p.newEngine(in.Incidents, summary)
	if err != nil {
		return nil, err
	}
	summary.Variant = engine.Variant()

	p.logger.Section("Cleaning")
	rate, fallback := p.rates.Rate(ctx)
	summary.ExchangeRate = rate
	summary.ExchangeRateFallback = fallback

	cleaner := NewCleaner(p.logger, CleanerOptions{
		ExchangeRate:    rate,
		LocalCurrency:   p.profile.Currency.Local,
		ForeignCurrency: p.profile.Currency.Foreign,
		CurrencyMarkers: p.profile.Currency.Markers,
		CurrentYear:     p.cfg.CurrentYear,
		BaselineYear:    p.cfg.BaselineYear,
		OperationFilter: p.cfg.OperationFilter,
	})
	cleaned := cleaner.Clean(in.Listings, summary)
	summary.CleanedListings = len(cleaned)
	if len(cleaned) == 0 {
		return nil, &models.FatalInputError{
			Source: "listings",
			Err:    fmt.Errorf("all %d rows filtered out: %w", len(in.Listings), models.ErrNoListings),
		}
	}

	p.logger.Section("Districts")
	scored := p.resolveDistricts(cleaned, summary)

	if p.enricher != nil || len(in.Amenities) > 0 {
		p.logger.Section("Amenities")
		enricher := p.enricher
		if enricher == nil {
			enricher = NewEnricher(nil, 1, 0, p.logger)
		}
		enricher.Enrich(ctx, scored, in.Amenities, summary)
	}

	p.logger.Section("Scoring")
	engine.Score(scored, summary)
	Rank(scored)
	valid := ValidSubset(scored)

	summary.ScoredListings = len(scored)
	summary.ValidListings = len(valid)

	return &models.RunResult{
		RunID:    runID,
		All:      scored,
		Valid:    valid,
		Security: engine.security.Records(),
		Summary:  summary,
	}, nil
}

func (p *Pipeline) newEngine(incidents []models.IncidentRow, summary *models.RunSummary) (*Engine, error) {
	resolver := NewDistrictResolver(p.profile, p.logger)
	var index *SecurityIndex
	if len(incidents) > 0 {
		index = BuildSecurityIndex(incidents, resolver, p.profile.NeutralScore, p.logger)
		summary.SecurityLabelsDropped = index.Dropped()
	} else {
		p.logger.Warn("[pipeline] No security data, every district gets %.1f", p.profile.NeutralScore)
	}

	engine, err := NewEngine(EngineOptions{
		Variant:      p.cfg.Variant,
		Weights:      p.profile.Weights,
		NeutralScore: p.profile.NeutralScore,
		CurrentYear:  p.cfg.CurrentYear,
		BaselineYear: p.cfg.BaselineYear,
	}, index, p.logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return engine, nil
}

// resolveDistricts attaches a district to every cleaned listing. In strict
// mode listings without a vocabulary district are dropped.
func (p *Pipeline) resolveDistricts(cleaned []*models.CleanedListing, summary *models.RunSummary) []*models.ScoredListing {
	resolver := NewDistrictResolver(p.profile, p.logger)
	scored := make([]*models.ScoredListing, 0, len(cleaned))

	for _, c := range cleaned {
		res := resolver.Resolve(c.Location)
		switch res.Status {
		case models.DistrictResolved:
			summary.ResolvedDistricts++
		case models.DistrictCityWide:
			summary.CityWideListings++
		default:
			summary.UnresolvedListings++
		}

		if p.cfg.StrictDistricts && res.Status == models.DistrictUnresolved {
			summary.StrictDropped++
			continue
		}
		scored = append(scored, &models.ScoredListing{CleanedListing: *c, Resolution: res})
	}

	p.logger.Info("[district] %d resolved, %d city-wide, %d unresolved",
		summary.ResolvedDistricts, summary.CityWideListings, summary.UnresolvedListings)
	return scored
}
