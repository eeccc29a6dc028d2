package cli

import (
	"fmt"
	"io"
	"strings"

	"quiz-master/internal/session"
)

// view prints snapshots. A snapshot that only moves the countdown prints a
// short timer line instead of the whole question.
type view struct {
	out       io.Writer
	perRound  int
	imageURL  func(string) string
	last      viewKey
	hasLast   bool
	lastRound int
}

type viewKey struct {
	sessionID string
	state     session.State
	position  int
	answered  bool
}

func (v *view) render(snap session.Snapshot) {
	key := viewKey{sessionID: snap.SessionID, state: snap.State, position: snap.Position, answered: snap.Answered}
	if v.hasLast && key == v.last {
		if snap.State == session.StateInProgress && !snap.Answered && showTick(snap.Remaining) {
			fmt.Fprintf(v.out, "  %ds left\n", snap.Remaining)
		}
		return
	}
	if !v.hasLast || v.last.sessionID != snap.SessionID {
		v.lastRound = 0
	}
	v.last = key
	v.hasLast = true

	switch snap.State {
	case session.StateRoundTransition:
		v.banner(snap.Round)
	case session.StateInProgress:
		if snap.Round != v.lastRound {
			v.banner(snap.Round)
		}
		if snap.Answered {
			v.feedback(snap)
		} else {
			v.question(snap)
		}
	case session.StateCompleted:
		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, "Quiz Complete!")
	}
}

func (v *view) banner(round int) {
	v.lastRound = round
	fmt.Fprintln(v.out)
	fmt.Fprintf(v.out, "=== Round %d ===\n", round)
}

func (v *view) question(snap session.Snapshot) {
	q := snap.Question
	if q == nil {
		return
	}
	fmt.Fprintln(v.out)
	fmt.Fprintf(v.out, "Question %d of %d (%d/%d overall)  Score: %d\n",
		snap.QuestionInRound, v.perRound, snap.Position+1, snap.Total, snap.Score)
	fmt.Fprintln(v.out, q.Text)
	if q.Image != "" && v.imageURL != nil {
		fmt.Fprintf(v.out, "[image] %s\n", v.imageURL(q.Image))
	}
	for idx, opt := range q.Options {
		fmt.Fprintf(v.out, "  %d. %s\n", idx+1, opt.Text)
	}
	fmt.Fprintf(v.out, "Time left: %ds\n", snap.Remaining)
	fmt.Fprintf(v.out, "[1-%d] answer  [s] skip  [p] previous  [e] end quiz  [q] quit to list\n", len(q.Options))
}

func (v *view) feedback(snap session.Snapshot) {
	record := snap.LastAnswer
	if record == nil {
		return
	}
	correct := correctOption(record.Question)
	fmt.Fprintln(v.out)
	switch {
	case record.IsCorrect:
		fmt.Fprintln(v.out, "Correct!")
	case record.TimedOut:
		fmt.Fprintf(v.out, "Time's up! Correct answer: %s\n", correct)
	case record.Skipped:
		fmt.Fprintf(v.out, "Skipped. Correct answer: %s\n", correct)
	default:
		fmt.Fprintf(v.out, "Wrong. Correct answer: %s\n", correct)
	}
	if explanation := strings.TrimSpace(record.Question.Explanation); explanation != "" {
		fmt.Fprintln(v.out, explanation)
	}
	next := "next question"
	if snap.Position+1 == snap.Total {
		next = "finish"
	}
	fmt.Fprintf(v.out, "[n] %s  [p] previous  [e] end quiz  [q] quit to list\n", next)
}

func printSummary(out io.Writer, summary session.Summary) {
	fmt.Fprintf(out, "Score: %d/%d (%d%%)\n", summary.Score, summary.Total, summary.Percentage)
	fmt.Fprintln(out, summary.Message)
	fmt.Fprintln(out)
	for _, round := range summary.Rounds {
		fmt.Fprintf(out, "Round %d: %d/%d\n", round.Round, round.Correct, round.Total)
	}
	if len(summary.Review) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Review:")
	for _, item := range summary.Review {
		status := "wrong"
		switch {
		case item.IsCorrect:
			status = "correct"
		case item.TimedOut:
			status = "timed out"
		case item.Skipped:
			status = "skipped"
		}
		fmt.Fprintf(out, "R%d Q%d  %s\n", item.Round, item.QuestionInRound, item.QuestionText)
		selected := item.SelectedText
		if selected == "" {
			selected = "-"
		}
		fmt.Fprintf(out, "    your answer: %s (%s), correct: %s\n", selected, status, item.CorrectText)
	}
}

func correctOption(q session.Question) string {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt.Text
		}
	}
	return "unknown"
}

func showTick(remaining int) bool {
	return remaining <= 5 || remaining%10 == 0
}
