package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quiz-master/internal/quiz"
	"quiz-master/internal/session"
)

// play runs attempts of one quiz until the user goes back to the list.
func (a *app) play(ctx context.Context, item quiz.Quiz) error {
	for {
		questions, err := a.client.GetQuestions(ctx, item.ID)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", a.describeClientError(err))
			return nil
		}
		if len(questions) == 0 {
			fmt.Fprintln(a.out, "No questions found for this quiz!")
			return nil
		}

		fmt.Fprintf(a.out, "\n%s\n", item.Title)
		retry, err := a.attempt(ctx, questions)
		if err != nil || !retry {
			return err
		}
	}
}

// attempt plays one fresh session and reports whether the user wants a retry.
func (a *app) attempt(ctx context.Context, questions []quiz.Question) (bool, error) {
	box := newMailbox()
	sess := session.New(
		session.WithClock(a.clock),
		session.WithRoundDelay(a.delay),
		session.WithQuestionsPerRound(a.perRound),
		session.WithObserver(box.put),
	)
	defer sess.Close()

	if err := sess.Start(quiz.ToSession(questions)); err != nil {
		fmt.Fprintln(a.out, "No questions found for this quiz!")
		return false, nil
	}
	logger := a.logger.With(zap.String("session_id", sess.ID()))
	logger.Debug("session started", zap.Int("questions", len(questions)))

	v := &view{out: a.out, perRound: a.perRound, imageURL: a.client.ImageURL}
	confirming := false

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case snap := <-box.ch:
			logger.Debug("session transition",
				zap.Stringer("state", snap.State),
				zap.Int("position", snap.Position),
				zap.Int("remaining", snap.Remaining),
			)
			v.render(snap)
			if snap.State == session.StateCompleted {
				printSummary(a.out, sess.Summarize())
				return a.promptRetry(ctx)
			}

		case line, ok := <-a.input.lines:
			if !ok {
				return false, errInputClosed
			}
			cmd := strings.ToLower(strings.TrimSpace(line))

			if confirming {
				confirming = false
				if cmd == "y" || cmd == "yes" {
					sess.Submit()
				} else {
					fmt.Fprintln(a.out, "Continuing.")
				}
				continue
			}

			switch cmd {
			case "":
			case "s":
				if !sess.Skip() {
					fmt.Fprintln(a.out, "Nothing to skip right now.")
				}
			case "n":
				if !sess.Advance() {
					fmt.Fprintln(a.out, "Answer or skip the question first.")
				}
			case "p":
				if !sess.Retreat() {
					fmt.Fprintln(a.out, "Already at the first question.")
				}
			case "e":
				confirming = true
				fmt.Fprint(a.out, "Are you sure you want to end the quiz? (y/n): ")
			case "q":
				logger.Debug("session abandoned")
				return false, nil
			default:
				n, err := strconv.Atoi(cmd)
				if err != nil {
					fmt.Fprintln(a.out, "Unknown command.")
					continue
				}
				if !sess.SelectAnswer(n - 1) {
					fmt.Fprintln(a.out, "That answer can't be selected now.")
				}
			}
		}
	}
}

func (a *app) promptRetry(ctx context.Context) (bool, error) {
	for {
		fmt.Fprint(a.out, "\n[r] retry  [l] back to list: ")
		line, err := a.input.next(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r", "retry":
			return true, nil
		case "l", "q", "list":
			return false, nil
		}
	}
}
