package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gator-social/internal/config"
	"gator-social/internal/engine"
	"gator-social/internal/engine/actors"
	"gator-social/internal/logging"
	"gator-social/internal/storage"
	"gator-social/internal/utils"
	"gator-social/simulator"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	simConfig := simulator.DefaultSimConfig()
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "simulator",
		Short: "Drive a random workload through the engine and check store consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(simConfig, duration)
		},
		SilenceUsage: true,
	}
	flags := cmd.Flags()
	flags.IntVar(&simConfig.NumAccounts, "accounts", simConfig.NumAccounts, "number of simulated accounts")
	flags.IntVar(&simConfig.NumSpaces, "spaces", simConfig.NumSpaces, "number of spaces to create")
	flags.IntVar(&simConfig.Operations, "ops", simConfig.Operations, "number of random operations")
	flags.IntVar(&simConfig.Workers, "workers", simConfig.Workers, "concurrent workers")
	flags.Float64Var(&simConfig.ShareProbability, "share", simConfig.ShareProbability, "probability that a post is a share")
	flags.Float64Var(&simConfig.ZipfS, "zipf", simConfig.ZipfS, "Zipf parameter for space popularity")
	flags.Int64Var(&simConfig.Seed, "seed", simConfig.Seed, "random seed")
	flags.DurationVar(&duration, "timeout", 10*time.Minute, "overall time limit")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(simConfig simulator.SimConfig, duration time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	backend, err := storage.Open(ctx, cfg.Store.Backend, cfg.Store.DSN, cfg.Store.Namespace, logger)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())

	metrics := utils.NewMetricsCollector()
	socialEngine := engine.New(backend, engine.Options{
		Params:  cfg.Chain.Params(),
		Logger:  logger,
		Metrics: metrics,
	})
	system := actor.NewActorSystem()
	pid := actors.Spawn(system, socialEngine, metrics, logger)
	defer system.Root.Stop(pid)

	logger.Info("Starting simulation",
		zap.Int("accounts", simConfig.NumAccounts),
		zap.Int("spaces", simConfig.NumSpaces),
		zap.Int("operations", simConfig.Operations),
		zap.Int("workers", simConfig.Workers),
		zap.Float64("share_probability", simConfig.ShareProbability),
		zap.Float64("zipf", simConfig.ZipfS),
		zap.String("store", cfg.Store.Backend))

	sim := simulator.NewSimulator(simConfig, system.Root, pid, socialEngine, logger)
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	summary := sim.GetSummary()
	logger.Info("Simulation completed",
		zap.Duration("duration", summary.Duration),
		zap.Int64("requests", summary.TotalRequests),
		zap.Int64("succeeded", summary.SuccessRequests),
		zap.Int64("rejected", summary.FailedRequests),
		zap.Any("rejected_by_code", summary.RejectedByCode),
		zap.Int("posts", summary.Posts),
		zap.Int("shares", summary.Shares),
		zap.Int("comments", summary.Comments),
		zap.Int("reactions", summary.Reactions),
		zap.Int("follows", summary.Follows),
		zap.Duration("p50", summary.P50Latency),
		zap.Duration("p99", summary.P99Latency))

	violations, err := sim.Verify(ctx)
	if err != nil {
		return err
	}
	for _, v := range violations {
		logger.Error("Invariant violated", zap.String("detail", v))
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d invariant violations", len(violations))
	}
	return nil
}
