// Package cli is a terminal front end for the quiz service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"quiz-master/internal/apiclient"
	"quiz-master/internal/clock"
	"quiz-master/internal/quiz"
	"quiz-master/internal/session"
)

const defaultHTTPTimeout = 5 * time.Second

type Config struct {
	ServerURL         string
	HTTPTimeout       time.Duration
	RoundDelay        time.Duration
	QuestionsPerRound int
	// Clock drives countdowns; nil uses wall time.
	Clock  clock.Clock
	Logger *zap.Logger
	// HTTPClient overrides the client built from HTTPTimeout.
	HTTPClient *http.Client
}

type app struct {
	client   *apiclient.Client
	out      io.Writer
	input    *lineReader
	clock    clock.Clock
	delay    time.Duration
	perRound int
	logger   *zap.Logger
}

// Run lists quizzes and plays them until the user exits or input ends.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	perRound := cfg.QuestionsPerRound
	if perRound <= 0 {
		perRound = session.DefaultQuestionsPerRound
	}
	delay := cfg.RoundDelay
	if delay <= 0 {
		delay = session.DefaultRoundDelay
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &app{
		client:   apiclient.New(cfg.ServerURL, httpClient),
		out:      out,
		input:    newLineReader(in),
		clock:    clk,
		delay:    delay,
		perRound: perRound,
		logger:   logger,
	}
	defer a.input.stop()

	fmt.Fprintf(out, "quiz-cli\nserver=%s\n", a.client.BaseURL())
	err := a.loop(ctx)
	if errors.Is(err, errInputClosed) {
		fmt.Fprintln(out)
		return nil
	}
	return err
}

func (a *app) loop(ctx context.Context) error {
	for {
		item, ok, err := a.chooseQuiz(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := a.play(ctx, item); err != nil {
			return err
		}
	}
}

// chooseQuiz reports ok=false when the user asks to exit.
func (a *app) chooseQuiz(ctx context.Context) (quiz.Quiz, bool, error) {
	for {
		quizzes, err := a.client.ListQuizzes(ctx)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", a.describeClientError(err))
		} else {
			printQuizList(a.out, quizzes)
		}
		fmt.Fprint(a.out, "\nChoose a quiz by number or id ([r] refresh, [x] exit): ")

		line, err := a.input.next(ctx)
		if err != nil {
			return quiz.Quiz{}, false, err
		}
		choice := strings.TrimSpace(line)
		switch strings.ToLower(choice) {
		case "":
			continue
		case "x", "exit":
			return quiz.Quiz{}, false, nil
		case "r":
			continue
		}

		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(quizzes) {
			return quizzes[n-1], true, nil
		}
		for _, item := range quizzes {
			if item.ID == choice {
				return item, true, nil
			}
		}
		fmt.Fprintf(a.out, "No quiz matches %q.\n", choice)
	}
}

func printQuizList(out io.Writer, quizzes []quiz.Quiz) {
	fmt.Fprintln(out)
	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes available.")
		return
	}
	fmt.Fprintln(out, "Quizzes:")
	for idx, item := range quizzes {
		fmt.Fprintf(out, "%d. %s", idx+1, item.Title)
		var tags []string
		if item.Category != "" {
			tags = append(tags, item.Category)
		}
		if item.Difficulty != "" {
			tags = append(tags, item.Difficulty)
		}
		if len(tags) > 0 {
			fmt.Fprintf(out, " [%s]", strings.Join(tags, ", "))
		}
		fmt.Fprintln(out)
		if item.Description != "" {
			fmt.Fprintf(out, "   %s\n", item.Description)
		}
	}
}

func (a *app) describeClientError(err error) error {
	if errors.Is(err, apiclient.ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", a.client.BaseURL())
	}
	return err
}
