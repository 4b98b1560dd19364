// Command housing-ranker cleans rental listings, joins them with district
// security and amenity data, and ranks them by a composite score.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"housing-ranker/config"
	"housing-ranker/utils"
)

var rootCmd = &cobra.Command{
	Use:           "housing-ranker",
	Short:         "Rank rental listings by cost, safety and services",
	Long:          "housing-ranker turns scraped rental listings into a deterministic ranking that combines price per m², district security and nearby services.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagVerbose bool
	flagProfile string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Path to a city profile YAML (default: built-in Lima profile)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, applies the global flags and builds the logger
// and city profile every command needs.
func setup() (*config.Config, *config.CityProfile, *utils.Logger, error) {
	logger := utils.NewLogger()
	cfg := config.Load()
	if flagProfile != "" {
		cfg.ProfilePath = flagProfile
	}
	logger.SetLevel(cfg.LogLevel)
	if flagVerbose {
		logger.SetDebug(true)
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, profile, logger, nil
}
