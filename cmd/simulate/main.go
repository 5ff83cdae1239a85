// Package main provides a CLI that runs dice scenarios and prints their
// statistics.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/montecarlo/internal/config"
	"github.com/cory-johannsen/montecarlo/internal/observability"
	"github.com/cory-johannsen/montecarlo/internal/scenario"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and MONTECARLO_* env")
	scenarioPath := flag.String("scenario", "", "path to a single scenario YAML file; empty = every file in simulation.scenario_dir")
	rolls := flag.Int("rolls", 0, "roll count for scenarios that do not set one; 0 = simulation.rolls")
	top := flag.Int("top", 10, "number of combination and permutation rows to print; 0 = all")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *rolls < 0 {
		log.Fatalf("-rolls must be >= 0, got %d", *rolls)
	}
	if *rolls > 0 {
		cfg.Simulation.Rolls = *rolls
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var scenarios []*scenario.Scenario
	if *scenarioPath != "" {
		s, err := scenario.LoadFile(*scenarioPath)
		if err != nil {
			logger.Fatal("loading scenario", zap.Error(err))
		}
		scenarios = append(scenarios, s)
	} else {
		scenarios, err = scenario.LoadDir(cfg.Simulation.ScenarioDir)
		if err != nil {
			logger.Fatal("loading scenarios", zap.Error(err))
		}
	}
	logger.Info("loaded scenarios", zap.Int("count", len(scenarios)))

	opts := scenario.RunOptions{
		DefaultRolls: cfg.Simulation.Rolls,
		Workers:      cfg.Simulation.Workers,
		Seed:         cfg.Simulation.Seed,
		Logger:       logger,
	}
	for _, s := range scenarios {
		report, err := scenario.Run(s, opts)
		if err != nil {
			logger.Fatal("running scenario", zap.String("scenario", s.ID), zap.Error(err))
		}
		if err := writeReport(os.Stdout, report, *top); err != nil {
			logger.Fatal("writing report", zap.Error(err))
		}
	}

	logger.Info("simulation complete",
		zap.Int("scenarios", len(scenarios)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
