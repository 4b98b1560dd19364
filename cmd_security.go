package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"housing-ranker/services"
	"housing-ranker/storage"
)

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Build the per-district security table",
	Long:  "Aggregates the incident source by canonical district, scores each district with an inverted min-max (10 = fewest incidents) and writes security_by_district.csv.",
	RunE:  runSecurity,
}

var (
	securitySource   string
	securityEncoding string
	securityOut      string
)

func init() {
	securityCmd.Flags().StringVarP(&securitySource, "security", "s", "", "Security incidents CSV (default: SECURITY_PATH)")
	securityCmd.Flags().StringVar(&securityEncoding, "encoding", "", "Source encoding: utf8 or latin1 (default: SECURITY_ENCODING)")
	securityCmd.Flags().StringVarP(&securityOut, "out", "o", "", "Output CSV path (default: OUTPUT_DIR/security_by_district.csv)")

	rootCmd.AddCommand(securityCmd)
}

func runSecurity(cmd *cobra.Command, _ []string) error {
	cfg, profile, logger, err := setup()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("security") {
		cfg.SecurityPath = securitySource
	}
	if cmd.Flags().Changed("encoding") {
		cfg.SecurityEncoding = securityEncoding
	}
	out := securityOut
	if out == "" {
		out = filepath.Join(cfg.OutputDir, storage.SecurityCSVFile)
	}

	rows, err := storage.LoadIncidents(cfg.SecurityPath, cfg.SecurityEncoding)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("security: %s has no rows", cfg.SecurityPath)
	}

	resolver := services.NewDistrictResolver(profile, logger)
	index := services.BuildSecurityIndex(rows, resolver, profile.NeutralScore, logger)
	records := index.Records()
	if err := storage.WriteSecurityCSV(out, records); err != nil {
		return err
	}

	fmt.Printf("\n  %-28s %10s %8s\n", "District", "Incidents", "Score")
	for _, r := range records {
		fmt.Printf("  %-28s %10d %8.2f\n", r.District, r.CrimeCount, r.SecurityScore)
	}
	fmt.Printf("\n  %d districts → %s (%d rows dropped)\n\n", len(records), out, index.Dropped())
	return nil
}
