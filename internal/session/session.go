// Package session implements the lifecycle of a single quiz attempt:
// position, countdown, answer log, score and round transitions.
//
// A Session is mutated only through its transitions. Misuse (answering twice,
// advancing an unanswered question, selecting a missing option) is a silent
// no-op reported by a false return value, so a malformed intent can never
// leave the session inconsistent.
//
// Invariants held after every transition:
//   - len(answers) == position while the current question is unanswered,
//     and position+1 once it is answered.
//   - score == number of correct records in the answer log.
//   - at most one timer task is armed; it belongs to the current state.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-master/internal/clock"
)

const (
	DefaultRoundDelay        = 2 * time.Second
	DefaultQuestionsPerRound = 5
	DefaultRounds            = 3

	tickInterval = time.Second
)

var (
	ErrNoQuestions    = errors.New("no questions available")
	ErrAlreadyStarted = errors.New("session already started")
	ErrClosed         = errors.New("session closed")
)

type Session struct {
	id         string
	clock      clock.Clock
	roundDelay time.Duration
	perRound   int
	observer   func(Snapshot)

	mu       sync.Mutex
	notifyMu sync.Mutex

	state     State
	answered  bool
	closed    bool
	questions []Question
	position  int
	round     int
	remaining int
	score     int
	answers   []AnswerRecord

	// gen invalidates callbacks of tasks that were cancelled while already running.
	gen     uint64
	pending clock.Timer
}

type SessionOption func(*Session)

func WithClock(c clock.Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRoundDelay sets how long the round banner stays up before the next
// round starts.
func WithRoundDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.roundDelay = d
		}
	}
}

func WithQuestionsPerRound(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.perRound = n
		}
	}
}

// WithObserver registers a callback receiving a snapshot after every applied
// transition and countdown tick. Calls are serialized in transition order.
// The callback must not invoke transitions synchronously.
func WithObserver(fn func(Snapshot)) SessionOption {
	return func(s *Session) {
		s.observer = fn
	}
}

func WithID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// New returns an Idle session.
func New(opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.New().String(),
		clock:      clock.Real(),
		roundDelay: DefaultRoundDelay,
		perRound:   DefaultQuestionsPerRound,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Start moves an Idle session to the first question. An empty question list
// leaves the session Idle and returns ErrNoQuestions.
func (s *Session) Start(questions []Question) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(questions) == 0 {
		s.mu.Unlock()
		return ErrNoQuestions
	}

	s.questions = make([]Question, len(questions))
	copy(s.questions, questions)
	s.answers = make([]AnswerRecord, 0, len(questions))
	s.position = 0
	s.round = 1
	s.score = 0
	s.enterQuestionLocked(0)

	s.unlockAndNotify()
	return nil
}

// SelectAnswer records the chosen option for the current question.
func (s *Session) SelectAnswer(optionIndex int) bool {
	s.mu.Lock()
	if !s.unansweredLocked() {
		s.mu.Unlock()
		return false
	}
	question := s.questions[s.position]
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		s.mu.Unlock()
		return false
	}

	selected := optionIndex
	correct := question.Options[optionIndex].IsCorrect
	s.recordLocked(AnswerRecord{
		Selected:  &selected,
		IsCorrect: correct,
	})

	s.unlockAndNotify()
	return true
}

// Timeout records the current question as timed out. The countdown calls it
// when the remaining time reaches zero.
func (s *Session) Timeout() bool {
	s.mu.Lock()
	if !s.unansweredLocked() {
		s.mu.Unlock()
		return false
	}
	s.recordLocked(AnswerRecord{TimedOut: true})

	s.unlockAndNotify()
	return true
}

// Skip records an unanswered question as skipped; on an answered question it
// behaves like Advance.
func (s *Session) Skip() bool {
	s.mu.Lock()
	if s.closed || s.state != StateInProgress {
		s.mu.Unlock()
		return false
	}
	if s.answered {
		s.advanceLocked()
	} else {
		s.recordLocked(AnswerRecord{Skipped: true})
	}

	s.unlockAndNotify()
	return true
}

// Advance leaves an answered question: to the next question, to a round
// transition when the next question opens a new round, or to Completed after
// the last question.
func (s *Session) Advance() bool {
	s.mu.Lock()
	if s.closed || s.state != StateInProgress || !s.answered {
		s.mu.Unlock()
		return false
	}
	s.advanceLocked()

	s.unlockAndNotify()
	return true
}

// Retreat moves back one question. Every record at or after the target
// position is dropped so the target is unanswered again and the log length
// matches the position; the score drops for each correct record removed.
func (s *Session) Retreat() bool {
	s.mu.Lock()
	if s.closed || s.state != StateInProgress || s.position == 0 {
		s.mu.Unlock()
		return false
	}

	target := s.position - 1
	if target < len(s.answers) {
		for _, record := range s.answers[target:] {
			if record.IsCorrect {
				s.score--
			}
		}
		s.answers = s.answers[:target]
	}
	s.enterQuestionLocked(target)

	s.unlockAndNotify()
	return true
}

// Submit ends the quiz immediately, including from a round banner.
// Confirmation is the caller's job.
func (s *Session) Submit() bool {
	s.mu.Lock()
	if s.closed || (s.state != StateInProgress && s.state != StateRoundTransition) {
		s.mu.Unlock()
		return false
	}
	s.disarmLocked()
	s.state = StateCompleted

	s.unlockAndNotify()
	return true
}

// Close abandons the session. Pending timers are cancelled and every later
// transition is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.disarmLocked()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Answers returns a copy of the answer log.
func (s *Session) Answers() []AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) unansweredLocked() bool {
	return !s.closed && s.state == StateInProgress && !s.answered
}

func (s *Session) recordLocked(record AnswerRecord) {
	record.Question = s.questions[s.position]
	record.Position = s.position
	if record.IsCorrect {
		s.score++
	}
	s.answers = append(s.answers, record)
	s.answered = true
	s.disarmLocked()
}

func (s *Session) advanceLocked() {
	next := s.position + 1
	if next >= len(s.questions) {
		s.disarmLocked()
		s.state = StateCompleted
		return
	}

	nextRound := s.roundOf(next)
	if nextRound > s.round {
		s.state = StateRoundTransition
		s.round = nextRound
		s.armLocked(s.roundDelay, s.finishRoundTransition)
		return
	}

	s.enterQuestionLocked(next)
}

func (s *Session) enterQuestionLocked(position int) {
	s.position = position
	s.round = s.roundOf(position)
	s.remaining = s.questions[position].TimerSeconds
	s.answered = false
	s.state = StateInProgress
	s.armLocked(tickInterval, s.tick)
}

func (s *Session) finishRoundTransition(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed || s.state != StateRoundTransition {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.enterQuestionLocked(s.position + 1)

	s.unlockAndNotify()
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.unansweredLocked() {
		s.mu.Unlock()
		return
	}
	s.pending = nil

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.recordLocked(AnswerRecord{TimedOut: true})
	} else {
		s.armLocked(tickInterval, s.tick)
	}

	s.unlockAndNotify()
}

func (s *Session) armLocked(d time.Duration, fn func(gen uint64)) {
	s.disarmLocked()
	gen := s.gen
	s.pending = s.clock.AfterFunc(d, func() { fn(gen) })
}

func (s *Session) disarmLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) roundOf(position int) int {
	if r := s.questions[position].Round; r > 0 {
		return r
	}
	return position/s.perRound + 1
}

func (s *Session) questionInRoundOf(position int) int {
	if n := s.questions[position].QuestionInRound; n > 0 {
		return n
	}
	return position%s.perRound + 1
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		Position:  s.position,
		Total:     len(s.questions),
		Round:     s.round,
		Remaining: s.remaining,
		Score:     s.score,
		Answered:  s.answered,
	}
	if s.state == StateInProgress {
		question := s.questions[s.position]
		snap.Question = &question
		snap.QuestionInRound = s.questionInRoundOf(s.position)
	}
	if n := len(s.answers); n > 0 {
		last := s.answers[n-1]
		snap.LastAnswer = &last
	}
	return snap
}

// unlockAndNotify releases mu and hands the new snapshot to the observer.
// notifyMu is taken before mu is released so observers see transitions in order.
func (s *Session) unlockAndNotify() {
	if s.observer == nil {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.observer(snap)
}
