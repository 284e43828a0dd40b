// Command fenrirsim loads a simulation configuration, builds a
// Simulation from it, and runs it to its configured horizon.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/simulation"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the simulation config file")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	log.Logger = logger

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *configPath).Msg("failed to load config")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid config")
		return 1
	}

	sim, err := simulation.BuildFromConfig(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build simulation")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	logger.Info().Str("run_id", sim.RunID).Int64("max_time", cfg.MaxTime).Msg("simulation starting")

	if err := sim.Run(ctx, cfg.MaxTime); err != nil {
		var violation *simulation.InvariantViolation
		if errors.As(err, &violation) {
			logger.Error().
				Int64("clock", violation.Clock).
				Uint64("last_event_id", violation.LastEventID).
				Interface("top_of_book", violation.TopOfBook).
				Msg("invariant violation, aborting")
			return 2
		}
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("simulation interrupted")
			return 0
		}
		logger.Error().Err(err).Msg("simulation run failed")
		return 1
	}

	logger.Info().
		Int64("clock", sim.Clock()).
		Int("events", len(sim.Events())).
		Msg("simulation complete")
	return 0
}
