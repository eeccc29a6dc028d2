package session

import "math"

type RoundScore struct {
	Round   int `json:"round"`
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ReviewItem is one line of the post-quiz review.
type ReviewItem struct {
	Round           int    `json:"round"`
	QuestionInRound int    `json:"questionInRound"`
	QuestionText    string `json:"questionText"`
	SelectedText    string `json:"selectedText,omitempty"`
	CorrectText     string `json:"correctText"`
	IsCorrect       bool   `json:"isCorrect"`
	TimedOut        bool   `json:"timedOut"`
	Skipped         bool   `json:"skipped"`
	Explanation     string `json:"explanation,omitempty"`
}

type Summary struct {
	Score      int          `json:"score"`
	Total      int          `json:"total"`
	Percentage int          `json:"percentage"`
	Message    string       `json:"message"`
	Rounds     []RoundScore `json:"rounds"`
	Review     []ReviewItem `json:"review"`
}

// Breakdown partitions the answer log into groups of perRound records in log
// order. The question's own round field is ignored. totalQuestions fixes the
// number of groups so a quiz ended early still reports every round.
func Breakdown(answers []AnswerRecord, totalQuestions, perRound int) []RoundScore {
	if perRound <= 0 {
		perRound = DefaultQuestionsPerRound
	}
	if totalQuestions < len(answers) {
		totalQuestions = len(answers)
	}

	groups := (totalQuestions + perRound - 1) / perRound
	out := make([]RoundScore, groups)
	for i := range out {
		out[i].Round = i + 1
	}
	for idx, record := range answers {
		g := idx / perRound
		out[g].Total++
		if record.IsCorrect {
			out[g].Correct++
		}
	}
	return out
}

// Percentage returns score as a rounded percentage of total; 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) * 100 / float64(total)))
}

func ResultMessage(percentage int) string {
	switch {
	case percentage >= 80:
		return "Excellent!"
	case percentage >= 60:
		return "Good Job!"
	default:
		return "Keep Practicing!"
	}
}

// Summarize builds the results view. The total counts every question of the
// session, answered or not.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	answers := make([]AnswerRecord, len(s.answers))
	copy(answers, s.answers)
	total := len(s.questions)
	score := s.score
	perRound := s.perRound
	s.mu.Unlock()

	pct := Percentage(score, total)
	summary := Summary{
		Score:      score,
		Total:      total,
		Percentage: pct,
		Message:    ResultMessage(pct),
		Rounds:     Breakdown(answers, total, perRound),
		Review:     make([]ReviewItem, 0, len(answers)),
	}
	for _, record := range answers {
		round := record.Question.Round
		if round <= 0 {
			round = record.Position/perRound + 1
		}
		inRound := record.Question.QuestionInRound
		if inRound <= 0 {
			inRound = record.Position%perRound + 1
		}
		summary.Review = append(summary.Review, ReviewItem{
			Round:           round,
			QuestionInRound: inRound,
			QuestionText:    record.Question.Text,
			SelectedText:    record.SelectedText(),
			CorrectText:     correctText(record.Question),
			IsCorrect:       record.IsCorrect,
			TimedOut:        record.TimedOut,
			Skipped:         record.Skipped,
			Explanation:     record.Question.Explanation,
		})
	}
	return summary
}

func correctText(q Question) string {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt.Text
		}
	}
	return ""
}
