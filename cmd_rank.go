package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"housing-ranker/config"
	"housing-ranker/lookup"
	"housing-ranker/models"
	"housing-ranker/schemas"
	"housing-ranker/search"
	"housing-ranker/services"
	"housing-ranker/storage"
	"housing-ranker/utils"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank a batch of listings",
	Long:  "Cleans the listings file, resolves districts, joins security and amenity data, scores every listing and writes the ranked exports and run summary.",
	RunE:  runRank,
}

var (
	rankListings  string
	rankSecurity  string
	rankAmenities string
	rankOut       string
	rankVariant   string
	rankStrict    bool
	rankRate      float64
	rankDB        bool
	rankQuiet     bool
)

func init() {
	rankCmd.Flags().StringVarP(&rankListings, "listings", "l", "", "Listings CSV or saved search HTML (default: LISTINGS_PATH)")
	rankCmd.Flags().StringVarP(&rankSecurity, "security", "s", "", "Security incidents CSV (default: SECURITY_PATH)")
	rankCmd.Flags().StringVarP(&rankAmenities, "amenities", "a", "", "Amenity counts JSON keyed by URL (default: AMENITIES_PATH)")
	rankCmd.Flags().StringVarP(&rankOut, "out", "o", "", "Output directory (default: OUTPUT_DIR)")
	rankCmd.Flags().StringVar(&rankVariant, "variant", "", "Scoring variant: three-factor or four-factor")
	rankCmd.Flags().BoolVar(&rankStrict, "strict", false, "Drop listings whose district cannot be resolved")
	rankCmd.Flags().Float64Var(&rankRate, "rate", 0, "Pin the USD exchange rate instead of looking it up")
	rankCmd.Flags().BoolVar(&rankDB, "db", false, "Store the run in PostgreSQL")
	rankCmd.Flags().BoolVarP(&rankQuiet, "quiet", "q", false, "Do not print the insights report")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	cfg, profile, logger, err := setup()
	if err != nil {
		return err
	}
	applyRankFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := executeRank(ctx, cfg, profile, logger)
	if err != nil {
		return err
	}

	if !rankQuiet {
		insights := services.NewInsightService(logger)
		insights.Print(insights.Generate(result))
	}
	return nil
}

func applyRankFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listings") {
		cfg.ListingsPath = rankListings
	}
	if flags.Changed("security") {
		cfg.SecurityPath = rankSecurity
	}
	if flags.Changed("amenities") {
		cfg.AmenitiesPath = rankAmenities
	}
	if flags.Changed("out") {
		cfg.OutputDir = rankOut
	}
	if flags.Changed("variant") {
		cfg.Variant = rankVariant
	}
	if flags.Changed("strict") {
		cfg.StrictDistricts = rankStrict
	}
	if flags.Changed("rate") {
		cfg.ExchangeRate = rankRate
	}
	if flags.Changed("db") {
		cfg.PostgresEnabled = rankDB
	}
}

// executeRank runs one full batch: load inputs, score, export, and push to
// the optional Postgres and Meilisearch backends.
func executeRank(ctx context.Context, cfg *config.Config, profile *config.CityProfile, logger *utils.Logger) (*models.RunResult, error) {
	logger.Info("=== Housing ranker starting ===")
	logger.Info("Config — variant: %s | strict: %v | listings: %s | security: %s",
		cfg.Variant, cfg.StrictDistricts, cfg.ListingsPath, cfg.SecurityPath)

	input, err := loadInputs(cfg, logger)
	if err != nil {
		return nil, err
	}

	rates := lookup.NewExchangeClient(lookup.ExchangeOptions{
		BaseURL:    cfg.ExchangeAPIURL,
		Timeout:    cfg.ExchangeTimeout(),
		Fallback:   cfg.ExchangeFallback,
		Pinned:     cfg.ExchangeRate,
		MaxRetries: cfg.MaxRetries,
	}, logger)

	var enricher *services.Enricher
	if cfg.PlacesAPIKey != "" {
		places := newPlacesClient(cfg, profile, logger)
		enricher = services.NewEnricher(places, cfg.MaxConcurrency, cfg.RateLimitMs, logger)
	}

	pipeline := services.NewPipeline(cfg, profile, rates, enricher, logger)
	result, err := pipeline.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	logger.Section("Export")
	exporter := storage.NewFileExporter(cfg.OutputDir)
	if err := exporter.Write(result); err != nil {
		return nil, err
	}
	validateExport(exporter.Path(storage.AllJSONFile), logger)
	if len(result.Security) > 0 {
		if err := storage.WriteSecurityCSV(exporter.Path(storage.SecurityCSVFile), result.Security); err != nil {
			logger.Warn("[export] %v", err)
		}
	}
	logger.Info("[export] %d listings → %s (%d valid)", len(result.All), cfg.OutputDir, len(result.Valid))

	if cfg.PostgresEnabled {
		storeRun(cfg, result, logger)
	}
	if cfg.MeiliHost != "" {
		indexRun(cfg, result, logger)
	}
	return result, nil
}

func loadInputs(cfg *config.Config, logger *utils.Logger) (services.PipelineInput, error) {
	var in services.PipelineInput

	listings, err := storage.LoadListings(cfg.ListingsPath)
	if err != nil {
		return in, err
	}
	in.Listings = listings
	logger.Info("[input] %d raw listings from %s", len(listings), cfg.ListingsPath)

	if cfg.SecurityPath != "" {
		rows, err := storage.LoadIncidents(cfg.SecurityPath, cfg.SecurityEncoding)
		if err != nil {
			logger.Warn("[input] %v — security falls back to neutral", err)
		} else {
			in.Incidents = rows
			logger.Info("[input] %d security rows from %s", len(rows), cfg.SecurityPath)
		}
	}

	amenities, err := storage.LoadAmenities(cfg.AmenitiesPath)
	if err != nil {
		logger.Warn("[input] %v — amenities unavailable", err)
		amenities = nil
	}
	in.Amenities = amenities
	return in, nil
}

func newPlacesClient(cfg *config.Config, profile *config.CityProfile, logger *utils.Logger) *lookup.PlacesClient {
	return lookup.NewPlacesClient(lookup.PlacesOptions{
		APIKey:         cfg.PlacesAPIKey,
		BaseURL:        cfg.PlacesBaseURL,
		Timeout:        cfg.PlacesTimeout(),
		ServicesRadius: profile.Radius.ServicesMeters,
		PoliceRadius:   profile.Radius.PoliceMeters,
		MaxRetries:     cfg.MaxRetries,
		Region:         profile.City,
	}, logger)
}

// validateExport checks properties.json against the export schema. A failure
// is reported, never fatal.
func validateExport(path string, logger *utils.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("[export] Could not re-read %s for validation: %v", path, err)
		return
	}
	if err := schemas.ValidateScoredListings(data); err != nil {
		logger.Warn("[export] Output validation failed: %v", err)
		return
	}
	logger.Debug("[export] %s matches the export schema", path)
}

func storeRun(cfg *config.Config, result *models.RunResult, logger *utils.Logger) {
	pg, err := storage.NewPostgresWriter(cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		return
	}
	defer pg.Close()

	if err := pg.Write(result); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}
	stored, err := pg.FetchRun(result.RunID)
	if err != nil {
		logger.Warn("[postgres] Could not read back run %s: %v", result.RunID, err)
		return
	}
	logger.Info("[postgres] Run %s stored (%d listings in scored_listings)", result.RunID, len(stored))
}

func indexRun(cfg *config.Config, result *models.RunResult, logger *utils.Logger) {
	ix := search.NewIndexer(cfg.MeiliHost, cfg.MeiliAPIKey, cfg.MeiliIndex)
	if err := ix.InitIndex(); err != nil {
		logger.Error("Meilisearch init failed: %v", err)
		return
	}
	n, err := ix.IndexRun(result.RunID, result.All)
	if err != nil {
		logger.Error("Meilisearch indexing failed: %v", err)
		return
	}
	logger.Info("[search] %d listings queued for index %q", n, cfg.MeiliIndex)
}
