package session

import "fmt"

type State int

const (
	StateIdle State = iota
	StateInProgress
	StateRoundTransition
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateRoundTransition:
		return "round_transition"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateInProgress, StateRoundTransition, StateCompleted} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is immutable once handed to a session. Round and QuestionInRound
// are optional; zero values are derived from the position.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"questionText"`
	Image           string   `json:"questionImage,omitempty"`
	Options         []Option `json:"options"`
	Explanation     string   `json:"explanation"`
	TimerSeconds    int      `json:"timer"`
	Round           int      `json:"round"`
	QuestionInRound int      `json:"questionInRound"`
}

// AnswerRecord is the outcome logged when the player leaves a question.
// Selected is nil for skipped and timed-out questions.
type AnswerRecord struct {
	Question  Question `json:"question"`
	Position  int      `json:"position"`
	Selected  *int     `json:"selectedOption"`
	IsCorrect bool     `json:"isCorrect"`
	TimedOut  bool     `json:"timedOut"`
	Skipped   bool     `json:"skipped"`
}

// SelectedText returns the text of the chosen option, or "" when none was chosen.
func (a AnswerRecord) SelectedText() string {
	if a.Selected == nil {
		return ""
	}
	idx := *a.Selected
	if idx < 0 || idx >= len(a.Question.Options) {
		return ""
	}
	return a.Question.Options[idx].Text
}

// Snapshot is the read-only view handed to the presentation layer after
// every transition.
type Snapshot struct {
	SessionID       string        `json:"sessionId"`
	State           State         `json:"state"`
	Question        *Question     `json:"question,omitempty"`
	Position        int           `json:"position"`
	Total           int           `json:"total"`
	Round           int           `json:"round"`
	QuestionInRound int           `json:"questionInRound"`
	Remaining       int           `json:"remaining"`
	Score           int           `json:"score"`
	Answered        bool          `json:"isAnswered"`
	LastAnswer      *AnswerRecord `json:"lastAnswer,omitempty"`
}
