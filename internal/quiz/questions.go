package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"math/rand"
	"strings"

	"quiz-master/internal/opentdb"
	"quiz-master/internal/session"
)

const DefaultTimerSeconds = 30

type Quiz struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
}

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a stored quiz question. Round and QuestionInRound are only set
// on questions returned by SelectQuestions.
type Question struct {
	ID              string   `json:"_id"`
	QuizID          string   `json:"quizId"`
	Text            string   `json:"questionText"`
	Image           string   `json:"questionImage,omitempty"`
	Options         []Option `json:"options"`
	Explanation     string   `json:"explanation"`
	TimerSeconds    int      `json:"timer"`
	Round           int      `json:"round,omitempty"`
	QuestionInRound int      `json:"questionInRound,omitempty"`
}

// BuildQuestions converts Open Trivia DB payloads into text-only questions for
// quizID. Entities are unescaped and the correct answer is shuffled among the
// incorrect ones. rng may be nil.
func BuildQuestions(quizID string, raw []opentdb.RawQuestion, timerSeconds int, rng *rand.Rand) []Question {
	if timerSeconds <= 0 {
		timerSeconds = DefaultTimerSeconds
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}

	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		options := make([]Option, 0, len(item.IncorrectAnswers)+1)
		for _, incorrect := range item.IncorrectAnswers {
			options = append(options, Option{Text: html.UnescapeString(incorrect)})
		}
		options = append(options, Option{Text: html.UnescapeString(item.CorrectAnswer), IsCorrect: true})
		shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})

		question := Question{
			QuizID:       quizID,
			Text:         html.UnescapeString(item.Question),
			Options:      options,
			Explanation:  "This is a generated question for practice.",
			TimerSeconds: timerSeconds,
		}
		question.ID = MakeQuestionID(question)
		questions = append(questions, question)
	}
	return questions
}

// MakeQuestionID fingerprints a question by quiz, text and option order.
func MakeQuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.QuizID)
	keyBuilder.WriteString("|")
	keyBuilder.WriteString(question.Text)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option.Text)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:])
}

// ToSession copies questions into the form a quiz session plays.
func ToSession(questions []Question) []session.Question {
	out := make([]session.Question, 0, len(questions))
	for _, q := range questions {
		options := make([]session.Option, len(q.Options))
		for idx, opt := range q.Options {
			options[idx] = session.Option{Text: opt.Text, IsCorrect: opt.IsCorrect}
		}
		out = append(out, session.Question{
			ID:              q.ID,
			Text:            q.Text,
			Image:           q.Image,
			Options:         options,
			Explanation:     q.Explanation,
			TimerSeconds:    q.TimerSeconds,
			Round:           q.Round,
			QuestionInRound: q.QuestionInRound,
		})
	}
	return out
}

// ResolveImageURL turns a stored image reference into a URL under baseURL.
// Absolute URLs pass through, "/images/..." paths are joined with baseURL and
// bare file names are looked up under /images/.
func ResolveImageURL(baseURL, image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}

	base := strings.TrimRight(baseURL, "/")
	if strings.HasPrefix(image, "/images/") {
		return base + image
	}
	return base + "/images/" + strings.TrimLeft(image, "/")
}
