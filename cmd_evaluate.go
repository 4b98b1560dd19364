package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"housing-ranker/config"
	"housing-ranker/models"
	"housing-ranker/services"
	"housing-ranker/storage"
	"housing-ranker/utils"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a single listing against the market",
	Long:  "Resolves the district of one listing, compares its price per m² with the comparables of a previous run and prints the four-factor breakdown.",
	RunE:  runEvaluate,
}

var (
	evalLocation    string
	evalPricePerM2  float64
	evalBedrooms    int
	evalBathrooms   int
	evalYear        int
	evalMarket      string
	evalSecurity    string
	evalRestaurants int
	evalParks       int
	evalPolice      int
	evalTransit     int
	evalLookup      bool
)

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalLocation, "location", "", "Location text of the listing")
	f.Float64Var(&evalPricePerM2, "price-m2", 0, "Price per m² in local currency")
	f.IntVar(&evalBedrooms, "bedrooms", 1, "Bedrooms")
	f.IntVar(&evalBathrooms, "bathrooms", 1, "Bathrooms")
	f.IntVar(&evalYear, "year", 0, "Year built (default: BASELINE_YEAR)")
	f.StringVar(&evalMarket, "market", "", "Scored CSV of a previous run used as the market")
	f.StringVarP(&evalSecurity, "security", "s", "", "Security incidents CSV (default: SECURITY_PATH)")
	f.IntVar(&evalRestaurants, "restaurants", -1, "Restaurants within the services radius")
	f.IntVar(&evalParks, "parks", -1, "Parks within the services radius")
	f.IntVar(&evalPolice, "police", -1, "Police stations within the police radius")
	f.IntVar(&evalTransit, "transit", -1, "Transit stations within the services radius")
	f.BoolVar(&evalLookup, "lookup", false, "Look the amenity counts up with the places API")
	_ = evaluateCmd.MarkFlagRequired("location")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, profile, logger, err := setup()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("security") {
		cfg.SecurityPath = evalSecurity
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := services.NewDistrictResolver(profile, logger)
	var index *services.SecurityIndex
	if cfg.SecurityPath != "" {
		rows, err := storage.LoadIncidents(cfg.SecurityPath, cfg.SecurityEncoding)
		if err != nil {
			logger.Warn("[evaluate] %v — district security falls back to neutral", err)
		} else {
			index = services.BuildSecurityIndex(rows, resolver, profile.NeutralScore, logger)
		}
	}

	engine, err := services.NewEngine(services.EngineOptions{
		Variant:      config.VariantFourFactor,
		Weights:      profile.Weights,
		NeutralScore: profile.NeutralScore,
		CurrentYear:  cfg.CurrentYear,
		BaselineYear: cfg.BaselineYear,
	}, index, logger)
	if err != nil {
		return err
	}

	market, err := loadMarket(evalMarket, resolver, logger)
	if err != nil {
		return err
	}

	amenities, err := evaluationAmenities(ctx, cmd, cfg, profile, logger)
	if err != nil {
		return err
	}

	res, err := engine.Evaluate(services.Evaluation{
		Resolution: resolver.Resolve(evalLocation),
		PricePerM2: evalPricePerM2,
		Bedrooms:   evalBedrooms,
		Bathrooms:  evalBathrooms,
		YearBuilt:  evalYear,
		Amenities:  amenities,
	}, market)
	if err != nil {
		return err
	}
	printEvaluation(res, profile.Weights.FourFactor)
	return nil
}

// loadMarket reads the comparables of a previous run. An empty path yields an
// empty market, so price-vs-market stays neutral.
func loadMarket(path string, resolver *services.DistrictResolver, logger *utils.Logger) (*services.Market, error) {
	market := services.NewMarket()
	if path == "" {
		return market, nil
	}
	records, err := storage.LoadScoredCSV(path)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.District == nil || r.PriceClean == nil || r.AreaClean == nil || *r.AreaClean <= 0 {
			continue
		}
		district, ok := resolver.Canonicalize(*r.District)
		if !ok {
			continue
		}
		market.Add(district, r.BedroomClean, *r.PriceClean / *r.AreaClean, -1)
	}
	logger.Info("[evaluate] Market from %s: %d records across %d districts", path, len(records), market.Districts())
	return market, nil
}

// evaluationAmenities returns the counts given on the command line, the
// places lookup result, or nil when neither is available.
func evaluationAmenities(ctx context.Context, cmd *cobra.Command, cfg *config.Config, profile *config.CityProfile, logger *utils.Logger) (*models.AmenityCounts, error) {
	if evalLookup {
		if cfg.PlacesAPIKey == "" {
			return nil, fmt.Errorf("evaluate: --lookup needs PLACES_API_KEY")
		}
		counts, err := newPlacesClient(cfg, profile, logger).Lookup(ctx, evalLocation)
		if err != nil {
			logger.Warn("[evaluate] Amenity lookup failed: %v", err)
			return nil, nil
		}
		return &counts, nil
	}

	flags := cmd.Flags()
	if !flags.Changed("restaurants") && !flags.Changed("parks") && !flags.Changed("police") && !flags.Changed("transit") {
		return nil, nil
	}
	return &models.AmenityCounts{
		Restaurants:     max(evalRestaurants, 0),
		Parks:           max(evalParks, 0),
		PoliceStations:  max(evalPolice, 0),
		TransitStations: max(evalTransit, 0),
	}, nil
}

func printEvaluation(res services.EvaluationResult, w config.FourFactorWeights) {
	district := res.Resolution.District
	if district == "" {
		district = "?"
	}
	matched := ""
	if !res.SecurityMatched {
		matched = " \033[33m(neutral)\033[0m"
	}
	market := "no comparables"
	if res.MarketBasis != models.MarketNeutral {
		market = fmt.Sprintf("S/ %.2f per m² (%s)", res.MarketMean, res.MarketBasis)
	}

	fmt.Printf("\n\033[1;35m  Listing evaluation\033[0m\n")
	fmt.Printf("  District            : %s [%s]\n", district, res.Resolution.Status)
	fmt.Printf("  Market              : %s\n", market)
	fmt.Printf("  Services      (%.2f) : %5.2f\n", w.Services, res.Services)
	fmt.Printf("  Police        (%.2f) : %5.2f\n", w.Police, res.Police)
	fmt.Printf("  District sec. (%.2f) : %5.2f%s\n", w.DistrictSecurity, res.DistrictSecurity, matched)
	fmt.Printf("  Price vs mkt  (%.2f) : %5.2f\n", w.Price, res.PriceVsMarket)
	fmt.Printf("  Safety              : %5.2f\n", res.Safety)
	fmt.Printf("  \033[1mFinal score         : \033[1;32m%5.2f\033[0m\n\n", res.Final)
}
