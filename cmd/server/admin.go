package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abjin/reward-closet/internal/database"
	"github.com/abjin/reward-closet/internal/domain"
	"github.com/abjin/reward-closet/internal/repository"
	"github.com/abjin/reward-closet/internal/service"
)

func migrateUp() error {
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}
	slog.Info("migrations applied")
	return nil
}

func donationStatus(cmd *cobra.Command, args []string) error {
	id := args[0]
	next := domain.DonationStatus(strings.ToUpper(strings.TrimSpace(args[1])))

	var points *int
	if cmd.Flags().Changed("actual-points") {
		points = &actualPoints
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	donations := service.NewDonationService(
		repository.NewUserRepository(db),
		repository.NewDonationRepository(db),
		nil,
	)

	updated, err := donations.Advance(ctx, id, next, points)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "donation %s is now %s\n", updated.ID, updated.Status)
	if updated.ActualPoints != nil {
		fmt.Fprintf(out, "actual points: %d\n", *updated.ActualPoints)
	}
	return nil
}
