package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run the ranking on a cron schedule",
	Long:  "Runs the same batch as `rank` every time the SCHEDULE cron expression fires, until interrupted.",
	RunE:  runSchedule,
}

var scheduleSpec string

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "", "Cron expression (default: SCHEDULE)")
	scheduleCmd.Flags().AddFlagSet(rankCmd.Flags())

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, profile, logger, err := setup()
	if err != nil {
		return err
	}
	applyRankFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cmd.Flags().Changed("cron") {
		cfg.Schedule = scheduleSpec
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A slow run is skipped rather than overlapped.
	var running sync.Mutex
	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		if !running.TryLock() {
			logger.Warn("[schedule] Previous run still in progress, skipping")
			return
		}
		defer running.Unlock()

		result, err := executeRank(ctx, cfg, profile, logger)
		if err != nil {
			logger.Error("[schedule] Run failed: %v", err)
			return
		}
		logger.Info("[schedule] Run %s done: %d listings, %d valid", result.RunID, len(result.All), len(result.Valid))
	})
	if err != nil {
		return err
	}

	c.Start()
	logger.Info("[schedule] Started (cron: %s)", cfg.Schedule)
	<-ctx.Done()

	<-c.Stop().Done()
	logger.Info("[schedule] Stopped")
	return nil
}
