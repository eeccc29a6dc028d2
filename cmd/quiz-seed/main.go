package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quiz-master/internal/bootstrap"
	"quiz-master/internal/config"
	"quiz-master/internal/logger"
	"quiz-master/internal/opentdb"
	"quiz-master/internal/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	file := flag.String("file", "config/catalog.yaml", "seed catalog file")
	topUp := flag.Bool("topup", true, "top quizzes up with generated questions from Open Trivia DB")
	flag.Parse()

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	catalog, err := seed.LoadCatalog(*file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []seed.Option{}
	if *topUp {
		client := opentdb.NewClient(&http.Client{Timeout: cfg.OpenTDB.Timeout}).WithBaseURL(cfg.OpenTDB.BaseURL)
		opts = append(opts, seed.WithFetcher(client))
	}
	if cfg.Cache.RedisURL != "" {
		cache, closeCache, err := bootstrap.OpenCache(ctx, cfg.Cache, log)
		if err != nil {
			log.Warn("cache unavailable, skipping invalidation", zap.Error(err))
		} else {
			defer closeCache()
			opts = append(opts, seed.WithInvalidator(cache))
		}
	}

	report, err := seed.NewSeeder(store, log, opts...).Run(ctx, catalog)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d quizzes with %d questions (%d generated).\n", report.Quizzes, report.Questions, report.Generated)
	if report.FailedTopUps > 0 {
		fmt.Printf("%d top-ups failed; see log for details.\n", report.FailedTopUps)
	}
	return nil
}
