package main

import (
	"fmt"
	"os"

	"factionbot/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "factionbot"

// Set at build time
var version = "dev"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if globalFlags.debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func commonRun(cfg *config.Config) {
	setupLogging(cfg)
	// Toss the undo function, the limit holds for the whole run
	_, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		log.Info().Msgf(format, v...)
	}))
	if err != nil {
		log.Error().Err(err).Msg("Could not set max procs")
	}
	log.Info().Str("version", version).Msg("Starting " + programName)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Discord bot managing factions, check-ins and notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, args)
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(weeklyResetCommand())
	rootCmd.AddCommand(versionCommand())

	// Cobra already displays the error
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
