package main

import (
	"errors"
	"fmt"

	"factionbot/internal/config"
	"factionbot/internal/database"
	"factionbot/internal/faction"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func weeklyResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "weekly-reset",
		Short: "Set the points of every faction to zero and exit",
		RunE:  weeklyResetRun,
	}
}

// Only the store is touched, the guild is left as it is
func weeklyResetRun(cmd *cobra.Command, _ []string) error {

	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	commonRun(cfg)

	db, err := database.NewDatabaseFaction(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Could not close database")
		}
	}()

	return faction.NewRegistry(db, nil).WeeklyReset(cmd.Context())
}
