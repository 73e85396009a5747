package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/giftbid/config"
	"github.com/shashiranjanraj/giftbid/internal/server"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/schedule"
)

// giftbid sweep:run — settle expired auctions once and exit.
var sweepRunCmd = &cobra.Command{
	Use:   "sweep:run",
	Short: "Run the auction-closing sweep once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.Bootstrap(ctx)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		if err := app.Services.Sweep.Run(ctx); err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Println("Sweep complete.")
		return nil
	},
}

// giftbid schedule:run — run the scheduler without the HTTP server.
// Useful when the API and the sweep run as separate processes.
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.Bootstrap(ctx)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		schedule.
			EveryInterval(config.SweepInterval()).
			Name("auction-sweep").
			WithoutOverlapping().
			Run(func() {
				if err := app.Services.Sweep.Run(context.Background()); err != nil {
					logger.Error("sweep failed", "error", err)
				}
			})

		for _, t := range schedule.List() {
			fmt.Println("  •", t)
		}
		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		schedule.Start(ctx)

		<-ctx.Done()
		fmt.Println("\nScheduler stopped.")
		return nil
	},
}
