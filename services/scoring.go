package services

import (
	"fmt"
	"sort"

	"housing-ranker/config"
	"housing-ranker/models"
	"housing-ranker/utils"
)

// EngineOptions selects the scoring variant and its reference values.
type EngineOptions struct {
	Variant      string
	Weights      config.WeightsConfig
	NeutralScore float64
	CurrentYear  int
	BaselineYear int
}

// Engine computes sub-scores and composite scores for a batch of listings.
type Engine struct {
	logger   *utils.Logger
	opts     EngineOptions
	security *SecurityIndex
}

// NewEngine validates the weight set of the selected variant.
func NewEngine(opts EngineOptions, security *SecurityIndex, logger *utils.Logger) (*Engine, error) {
	switch opts.Variant {
	case "", config.VariantThreeFactor:
		opts.Variant = config.VariantThreeFactor
		if err := opts.Weights.ThreeFactor.Validate(); err != nil {
			return nil, fmt.Errorf("scoring: %w", err)
		}
	case config.VariantFourFactor:
		if err := opts.Weights.FourFactor.Validate(); err != nil {
			return nil, fmt.Errorf("scoring: %w", err)
		}
	default:
		return nil, fmt.Errorf("scoring: unknown variant %q", opts.Variant)
	}
	return &Engine{logger: logger, opts: opts, security: security}, nil
}

// Variant returns the active scoring variant.
func (e *Engine) Variant() string { return e.opts.Variant }

// Score fills every sub-score and the final score of each listing in place.
// Counts go to summary when it is non-nil.
func (e *Engine) Score(listings []*models.ScoredListing, summary *models.RunSummary) {
	if summary == nil {
		summary = models.NewRunSummary("")
	}

	costs := e.costScores(listings)
	var market *Market
	if e.opts.Variant == config.VariantFourFactor {
		market = NewMarketFromListings(listings)
	}

	for i, l := range listings {
		e.scoreComponents(l, summary)

		switch e.opts.Variant {
		case config.VariantFourFactor:
			e.priceAgainstMarket(l, market, summary)
			e.combineFourFactor(l)
		default:
			l.CostScore = costs[i]
			e.combineThreeFactor(l)
		}
	}

	e.logger.Info("[scoring] Scored %d listings (%s)", len(listings), e.opts.Variant)
}

// scoreComponents attaches the variant-independent components: district
// security, police, amenity services and the property score.
func (e *Engine) scoreComponents(l *models.ScoredListing, summary *models.RunSummary) {
	l.DistrictSecurityScore = e.opts.NeutralScore
	l.SecurityMatched = false
	if l.Resolved() {
		if score, ok := e.security.Score(l.District); ok {
			l.DistrictSecurityScore = score
			l.SecurityMatched = true
		} else {
			e.logger.Debug("[scoring] No security data for %s, using %.1f", l.District, e.opts.NeutralScore)
			summary.MarkUnmatched(l.District)
		}
	}

	l.PropertyScore = PropertyScore(l.Bedrooms, l.Bathrooms, l.YearBuilt, e.opts.CurrentYear)
	if l.Amenities != nil {
		l.AmenityServicesScore = AmenityServicesScore(*l.Amenities)
		l.PoliceScore = PoliceScore(l.Amenities.PoliceStations)
		l.ServicesScore = l.AmenityServicesScore
	} else {
		l.AmenityServicesScore = 0
		l.PoliceScore = e.opts.NeutralScore
		l.ServicesScore = l.PropertyScore
	}
}

func (e *Engine) combineThreeFactor(l *models.ScoredListing) {
	w := e.opts.Weights.ThreeFactor
	l.CostScore = Clamp10(l.CostScore)
	l.SafetyScore = Clamp10(l.DistrictSecurityScore)
	l.ServicesScore = Clamp10(l.ServicesScore)
	l.FinalScore = w.Cost*l.CostScore + w.Safety*l.SafetyScore + w.Services*l.ServicesScore
}

func (e *Engine) combineFourFactor(l *models.ScoredListing) {
	w := e.opts.Weights.FourFactor
	services := Clamp10(l.ServicesScore)
	police := Clamp10(l.PoliceScore)
	district := Clamp10(l.DistrictSecurityScore)
	price := Clamp10(l.PriceVsMarketScore)

	l.CostScore = price
	l.ServicesScore = services
	l.SafetyScore = safetySplit(w, district, police)
	l.FinalScore = w.Services*services + w.Police*police + w.DistrictSecurity*district + w.Price*price
}

// safetySplit re-expresses the police and district-security shares of the
// four-factor weights as one 0–10 safety score (0.8/0.2 with the defaults).
func safetySplit(w config.FourFactorWeights, district, police float64) float64 {
	total := w.DistrictSecurity + w.Police
	if total == 0 {
		return district
	}
	return Clamp10((w.DistrictSecurity*district + w.Police*police) / total)
}

func (e *Engine) priceAgainstMarket(l *models.ScoredListing, market *Market, summary *models.RunSummary) {
	l.PriceVsMarketScore = e.opts.NeutralScore
	l.MarketBasis = models.MarketNeutral

	ppm, ok := l.PricePerM2()
	if ok && l.Resolved() {
		mean, basis := market.Mean(l.District, l.Bedrooms, l.Seq)
		if basis != models.MarketNeutral && mean > 0 {
			l.PriceVsMarketScore = PriceVsMarketScore(ppm, mean)
			l.MarketBasis = basis
		}
	}

	switch l.MarketBasis {
	case models.MarketBedrooms:
		summary.MarketBedroomBasis++
	case models.MarketDistrict:
		summary.MarketDistrictBasis++
	default:
		summary.MarketNeutralBasis++
	}
}

// costScores is the inverted min-max of price per m² over the listings that
// have one. The rest get the neutral score.
func (e *Engine) costScores(listings []*models.ScoredListing) []float64 {
	out := make([]float64, len(listings))
	var idx []int
	var values []float64
	for i, l := range listings {
		out[i] = e.opts.NeutralScore
		if ppm, ok := l.PricePerM2(); ok {
			idx = append(idx, i)
			values = append(values, ppm)
		}
	}
	for k, score := range InvertedMinMax(values) {
		out[idx[k]] = score
	}
	return out
}

// InvertedMinMax maps values onto 10 − (v − min)/(max − min) × 10: the
// smallest value scores 10, the largest 0. When every value is equal each one
// scores 10.
func InvertedMinMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			out[i] = maxScore
			continue
		}
		out[i] = Clamp10(maxScore - (v-lo)/span*maxScore)
	}
	return out
}

// Rank sorts listings by final score, highest first. Ties keep input order.
func Rank(listings []*models.ScoredListing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].FinalScore > listings[j].FinalScore
	})
}

// ValidSubset returns the listings with a known price and a positive area,
// preserving order.
func ValidSubset(listings []*models.ScoredListing) []*models.ScoredListing {
	valid := make([]*models.ScoredListing, 0, len(listings))
	for _, l := range listings {
		if l.ValidForDisplay() {
			valid = append(valid, l)
		}
	}
	return valid
}

// Evaluation is a single user-supplied listing scored against a market.
type Evaluation struct {
	Resolution models.Resolution
	PricePerM2 float64
	Bedrooms   int
	Bathrooms  int
	YearBuilt  int
	Amenities  *models.AmenityCounts
}

// EvaluationResult is the four-factor breakdown of one evaluation, every
// component on 0–10.
type EvaluationResult struct {
	Resolution       models.Resolution
	Services         float64
	Police           float64
	DistrictSecurity float64
	SecurityMatched  bool
	PriceVsMarket    float64
	MarketMean       float64
	MarketBasis      models.MarketBasis
	Safety           float64
	Final            float64
}

// Evaluate scores one listing with the four-factor weights, whatever the
// engine's batch variant.
func (e *Engine) Evaluate(ev Evaluation, market *Market) (EvaluationResult, error) {
	w := e.opts.Weights.FourFactor
	if err := w.Validate(); err != nil {
		return EvaluationResult{}, fmt.Errorf("evaluate: %w", err)
	}

	l := &models.ScoredListing{
		CleanedListing: models.CleanedListing{
			Seq:       -1,
			Bedrooms:  max(ev.Bedrooms, 1),
			Bathrooms: max(ev.Bathrooms, 1),
			YearBuilt: ev.YearBuilt,
		},
		Resolution: ev.Resolution,
		Amenities:  ev.Amenities,
	}
	if l.YearBuilt == 0 {
		l.YearBuilt = e.opts.BaselineYear
	}
	summary := models.NewRunSummary("")
	e.scoreComponents(l, summary)

	res := EvaluationResult{
		Resolution:       ev.Resolution,
		Services:         Clamp10(l.ServicesScore),
		Police:           Clamp10(l.PoliceScore),
		DistrictSecurity: Clamp10(l.DistrictSecurityScore),
		SecurityMatched:  l.SecurityMatched,
		PriceVsMarket:    e.opts.NeutralScore,
		MarketBasis:      models.MarketNeutral,
	}
	if ev.PricePerM2 > 0 && ev.Resolution.Resolved() && market != nil {
		mean, basis := market.Mean(ev.Resolution.District, l.Bedrooms, -1)
		if basis != models.MarketNeutral && mean > 0 {
			res.PriceVsMarket = PriceVsMarketScore(ev.PricePerM2, mean)
			res.MarketMean = mean
			res.MarketBasis = basis
		}
	}

	res.Safety = safetySplit(w, res.DistrictSecurity, res.Police)
	res.Final = w.Services*res.Services + w.Police*res.Police +
		w.DistrictSecurity*res.DistrictSecurity + w.Price*res.PriceVsMarket
	return res, nil
}
