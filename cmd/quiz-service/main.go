package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quiz-master/internal/bootstrap"
	"quiz-master/internal/config"
	"quiz-master/internal/httpapi"
	"quiz-master/internal/logger"
	"quiz-master/internal/play"
	"quiz-master/internal/quiz"
	"quiz-master/internal/session"
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

	addr := flag.String("addr", cfg.HTTP.Addr, "HTTP listen address")
	flag.Parse()

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, closeCache, err := bootstrap.OpenCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	service := quiz.NewService(store, cache, log.Named("quiz"),
		quiz.WithLayout(cfg.Quiz.Rounds, cfg.Quiz.QuestionsPerRound),
	)

	player := play.NewHandler(service, log.Named("play"),
		play.WithAllowedOrigin(cfg.HTTP.AllowedOrigin),
		play.WithSessionOptions(
			session.WithRoundDelay(cfg.Quiz.RoundDelay),
			session.WithQuestionsPerRound(cfg.Quiz.QuestionsPerRound),
		),
	)

	server := &http.Server{
		Addr: *addr,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Catalog:       service,
			Play:          player,
			ImagesDir:     cfg.Images.Dir,
			AllowedOrigin: cfg.HTTP.AllowedOrigin,
			Logger:        log.Named("http"),
			Ready:         store.Ping,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("quiz-service listening", zap.String("addr", *addr), zap.String("store", cfg.Store.Driver))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
