package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abjin/reward-closet/internal/config"
	"github.com/abjin/reward-closet/internal/logger"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "reward-closet",
	Short: "Clothing donation service that pays out reward points",
	Long: `reward-closet serves the donation API: image uploads, condition
estimates, pickup requests and point balances.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.SetupDefault(os.Stdout, cfg.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrateUp()
	},
}

var donationCmd = &cobra.Command{
	Use:   "donation",
	Short: "Back-office donation commands",
}

var donationStatusCmd = &cobra.Command{
	Use:   "status [donation-id] [STATUS]",
	Short: "Move a donation to the next lifecycle status",
	Long: `Moves a donation along PENDING -> CONFIRMED -> COLLECTED -> PROCESSED -> COMPLETED,
or to REJECTED from any open status. --actual-points may be given on any
move except REJECTED and is recorded once, typically at PROCESSED after
inspection. Completing a donation requires it unless it was recorded earlier;
the owner's balance is updated in the same transaction.

Examples:
  reward-closet donation status 6f1c... PROCESSED --actual-points 300
  reward-closet donation status 6f1c... COMPLETED`,
	Args: cobra.ExactArgs(2),
	RunE: donationStatus,
}

var actualPoints int

func init() {
	donationStatusCmd.Flags().IntVar(&actualPoints, "actual-points", -1, "Points awarded for the donation (required for COMPLETED unless already recorded)")

	donationCmd.AddCommand(donationStatusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(donationCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
