package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/gaffer/internal/cli"
	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/config"
	"horse.fit/gaffer/internal/db"
	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/logging"
	"horse.fit/gaffer/internal/pipeline"
	"horse.fit/gaffer/internal/story"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Per-cycle timeout")
	loop := fs.Bool("loop", false, "Keep processing until interrupted")
	interval := fs.Duration("interval", 30*time.Second, "Sleep between cycles when looping")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "process does not accept positional arguments")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	index, err := clubs.Load(cfg.ClubDataPath)
	if err != nil {
		logger.Error().Err(err).Msg("club data load failed")
		fmt.Fprintf(os.Stderr, "Failed to load club data: %v\n", err)
		return 1
	}

	tiers, err := cfg.FeeTierList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid fee tiers: %v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("process failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	resolver := story.NewResolver(
		db.NewStoryStore(pool),
		story.NewScorer(index, tiers),
		cfg.RecencyWindow(),
		cfg.StalenessThreshold(),
		logger,
	)
	svc := pipeline.NewService(
		pool,
		index,
		extract.NewPatternExtractor(index),
		resolver,
		pipeline.LogHandoff{Logger: logger},
		cfg.BatchSize,
		cfg.MaxAttempts,
		cfg.PersistTimeout,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	for {
		cycleCtx, cycleCancel := context.WithTimeout(ctx, *timeout)
		result, err := svc.RunCycle(cycleCtx)
		cycleCancel()
		if err != nil {
			logger.Error().Err(err).Msg("processing cycle failed")
			fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
			return 1
		}

		fmt.Printf("claimed=%d groups=%d new_stories=%d merged=%d duplicates=%d skipped=%d requeued=%d\n",
			result.Claimed, result.Groups, result.NewStories, result.Merged,
			result.Duplicates, result.Skipped, result.Requeued)

		if !*loop {
			return 0
		}
		if result.Claimed == 0 {
			select {
			case <-ctx.Done():
				return 0
			case <-time.After(*interval):
			}
			continue
		}
		select {
		case <-ctx.Done():
			return 0
		default:
		}
	}
}
