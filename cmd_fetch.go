package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"housing-ranker/scraper/urbania"
	"housing-ranker/storage"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch rental listings from urbania.pe",
	Long:  "Opens the search pages of each district in a headless browser and writes the listing cards as a raw listings CSV ready for `rank`.",
	RunE:  runFetch,
}

var (
	fetchDistricts []string
	fetchOperation string
	fetchPages     int
	fetchOut       string
)

func init() {
	fetchCmd.Flags().StringSliceVarP(&fetchDistricts, "district", "d", nil, "District to fetch (repeatable; default: every district of the profile)")
	fetchCmd.Flags().StringVar(&fetchOperation, "operation", "alquiler", "Operation type in the search URL")
	fetchCmd.Flags().IntVarP(&fetchPages, "pages", "p", 1, "Result pages per district")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "Output CSV path (default: LISTINGS_PATH)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(_ *cobra.Command, _ []string) error {
	cfg, profile, logger, err := setup()
	if err != nil {
		return err
	}

	districts := fetchDistricts
	if len(districts) == 0 {
		districts = profile.Districts
	}
	out := fetchOut
	if out == "" {
		out = cfg.ListingsPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	fetcher := urbania.New(urbania.Options{
		Districts:      districts,
		Operation:      fetchOperation,
		Pages:          fetchPages,
		MaxConcurrency: cfg.MaxConcurrency,
		RateLimitMs:    cfg.RateLimitMs,
		MaxRetries:     cfg.MaxRetries,
		ChromeBin:      cfg.ChromeBin,
	}, logger)

	listings, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return fmt.Errorf("fetch: no listings found across %d districts", len(districts))
	}

	w, err := storage.NewCSVWriter(out)
	if err != nil {
		return err
	}
	if err := w.WriteRaw(listings); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("[fetch] %d listings → %s in %s", len(listings), out, time.Since(start).Round(time.Second))
	return nil
}
