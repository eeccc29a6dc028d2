package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quiz-master/internal/apiclient"
	"quiz-master/internal/cli"
	"quiz-master/internal/config"
	"quiz-master/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	server := flag.String("server", apiclient.DefaultBaseURL, "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP request timeout")
	debug := flag.Bool("debug", false, "log session transitions to stderr")
	flag.Parse()

	log := zap.NewNop()
	if *debug {
		if log, err = logger.New(cfg.Env); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer func() { _ = log.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		ServerURL:         *server,
		HTTPTimeout:       *timeout,
		RoundDelay:        cfg.Quiz.RoundDelay,
		QuestionsPerRound: cfg.Quiz.QuestionsPerRound,
		Logger:            log,
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
