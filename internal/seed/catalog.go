package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the seed file: authored quizzes with their questions and an
// optional request for generated text questions.
type Catalog struct {
	Quizzes []QuizSpec `yaml:"quizzes"`
}

type QuizSpec struct {
	// ID is optional; a uuid is assigned when empty.
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Difficulty  string         `yaml:"difficulty"`
	Questions   []QuestionSpec `yaml:"questions"`
	TopUp       *TopUp         `yaml:"topUp"`
}

type QuestionSpec struct {
	Text        string       `yaml:"questionText"`
	Image       string       `yaml:"questionImage"`
	Options     []OptionSpec `yaml:"options"`
	Explanation string       `yaml:"explanation"`
	Timer       int          `yaml:"timer"`
}

type OptionSpec struct {
	Text      string `yaml:"text"`
	IsCorrect bool   `yaml:"isCorrect"`
}

// TopUp asks for Amount generated questions, optionally narrowed to an
// Open Trivia DB category id and difficulty.
type TopUp struct {
	Amount     int    `yaml:"amount"`
	Category   int    `yaml:"category"`
	Difficulty string `yaml:"difficulty"`
}

func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	catalog, err := ParseCatalog(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

func ParseCatalog(r io.Reader) (Catalog, error) {
	var catalog Catalog
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, fmt.Errorf("%w: empty file", ErrInvalidCatalog)
		}
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// Validate requires a title per quiz and, per authored question, text, at
// least two options and exactly one correct option.
func (c Catalog) Validate() error {
	if len(c.Quizzes) == 0 {
		return fmt.Errorf("%w: no quizzes", ErrInvalidCatalog)
	}
	for qi, quiz := range c.Quizzes {
		if strings.TrimSpace(quiz.Title) == "" {
			return fmt.Errorf("%w: quiz %d has no title", ErrInvalidCatalog, qi+1)
		}
		if quiz.TopUp != nil && quiz.TopUp.Amount < 0 {
			return fmt.Errorf("%w: quiz %q has a negative topUp amount", ErrInvalidCatalog, quiz.Title)
		}
		for i, question := range quiz.Questions {
			if strings.TrimSpace(question.Text) == "" {
				return fmt.Errorf("%w: quiz %q question %d has no text", ErrInvalidCatalog, quiz.Title, i+1)
			}
			if len(question.Options) < 2 {
				return fmt.Errorf("%w: quiz %q question %d needs at least two options", ErrInvalidCatalog, quiz.Title, i+1)
			}
			correct := 0
			for _, opt := range question.Options {
				if opt.IsCorrect {
					correct++
				}
			}
			if correct != 1 {
				return fmt.Errorf("%w: quiz %q question %d has %d correct options", ErrInvalidCatalog, quiz.Title, i+1, correct)
			}
		}
	}
	return nil
}
