package play

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"quiz-master/internal/clock"
	"quiz-master/internal/quiz"
	"quiz-master/internal/session"
)

type fakeSource struct {
	mu        sync.Mutex
	questions map[string][]quiz.Question
	calls     int
}

func (f *fakeSource) SelectQuestions(_ context.Context, quizID string) ([]quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	questions, ok := f.questions[quizID]
	if !ok {
		return nil, fmt.Errorf("select %s: %w", quizID, quiz.ErrQuizNotFound)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("select %s: %w", quizID, quiz.ErrNoQuestions)
	}
	return questions, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func makeQuestions(n, timer int) []quiz.Question {
	questions := make([]quiz.Question, n)
	for i := range questions {
		questions[i] = quiz.Question{
			ID:   fmt.Sprintf("q%d", i+1),
			Text: fmt.Sprintf("Question %d", i+1),
			Options: []quiz.Option{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
			TimerSeconds:    timer,
			Round:           i/5 + 1,
			QuestionInRound: i%5 + 1,
		}
	}
	return questions
}

type harness struct {
	source *fakeSource
	clock  *clock.Manual
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		source: &fakeSource{questions: map[string][]quiz.Question{
			"landmarks": makeQuestions(15, 10),
			"empty":     {},
		}},
		clock: clock.NewManual(),
	}

	handler := NewHandler(h.source, nil,
		WithAllowedOrigin("*"),
		WithSessionOptions(session.WithClock(h.clock), session.WithRoundDelay(2*time.Second)),
	)
	router := mux.NewRouter()
	router.Handle("/api/play/{quizId}", handler)
	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) dial(t *testing.T, quizID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/api/play/" + quizID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func read(t *testing.T, ws *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ServerMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func readSnapshot(t *testing.T, ws *websocket.Conn) session.Snapshot {
	t.Helper()
	msg := read(t, ws)
	require.Equal(t, MessageTypeSnapshot, msg.Type, "got %+v", msg)
	require.NotNil(t, msg.Snapshot)
	return *msg.Snapshot
}

func sendIntent(t *testing.T, ws *websocket.Conn, intent IntentType, option ...int) {
	t.Helper()
	msg := ClientMessage{Type: intent}
	if len(option) > 0 {
		msg.Option = &option[0]
	}
	require.NoError(t, ws.WriteJSON(msg))
}

func TestPlayStartsWithFirstQuestion(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")

	snap := readSnapshot(t, ws)
	require.Equal(t, session.StateInProgress, snap.State)
	require.Equal(t, 0, snap.Position)
	require.Equal(t, 15, snap.Total)
	require.Equal(t, 10, snap.Remaining)
	require.NotNil(t, snap.Question)
	require.Equal(t, "Question 1", snap.Question.Text)
}

func TestPlaySelectThenNext(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")
	readSnapshot(t, ws)

	sendIntent(t, ws, IntentSelect, 0)
	snap := readSnapshot(t, ws)
	require.True(t, snap.Answered)
	require.Equal(t, 1, snap.Score)
	require.NotNil(t, snap.LastAnswer)
	require.True(t, snap.LastAnswer.IsCorrect)

	sendIntent(t, ws, IntentNext)
	snap = readSnapshot(t, ws)
	require.Equal(t, 1, snap.Position)
	require.False(t, snap.Answered)
	require.Equal(t, 1, snap.Score)
}

func TestPlayCountdownPushesTicks(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")
	readSnapshot(t, ws)

	h.clock.Advance(time.Second)
	snap := readSnapshot(t, ws)
	require.Equal(t, 9, snap.Remaining)

	h.clock.Advance(9 * time.Second)
	for i := 0; i < 8; i++ {
		readSnapshot(t, ws)
	}
	snap = readSnapshot(t, ws)
	require.True(t, snap.Answered)
	require.NotNil(t, snap.LastAnswer)
	require.True(t, snap.LastAnswer.TimedOut)
}

func TestPlayRejectedIntentIsReported(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")
	readSnapshot(t, ws)

	sendIntent(t, ws, IntentPrevious)
	msg := read(t, ws)
	require.Equal(t, MessageTypeIgnored, msg.Type)
	require.Equal(t, IntentPrevious, msg.Intent)

	sendIntent(t, ws, IntentSelect)
	msg = read(t, ws)
	require.Equal(t, MessageTypeError, msg.Type)
	require.Equal(t, "option is required", msg.Error)

	sendIntent(t, ws, IntentType("dance"))
	msg = read(t, ws)
	require.Equal(t, MessageTypeError, msg.Type)
	require.Contains(t, msg.Error, "unknown intent")

	// The connection survives client mistakes.
	sendIntent(t, ws, IntentSkip)
	snap := readSnapshot(t, ws)
	require.True(t, snap.LastAnswer.Skipped)
}

func TestPlaySubmitSendsResults(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")
	readSnapshot(t, ws)

	sendIntent(t, ws, IntentSelect, 0)
	readSnapshot(t, ws)
	sendIntent(t, ws, IntentSubmit)

	snap := readSnapshot(t, ws)
	require.Equal(t, session.StateCompleted, snap.State)

	msg := read(t, ws)
	require.Equal(t, MessageTypeResults, msg.Type)
	require.NotNil(t, msg.Results)
	require.Equal(t, 1, msg.Results.Score)
	require.Equal(t, 15, msg.Results.Total)
	require.Equal(t, 7, msg.Results.Percentage)
	require.Equal(t, "Keep Practicing!", msg.Results.Message)
	require.Len(t, msg.Results.Rounds, 3)
}

func TestPlayRetryStartsFreshSession(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")
	first := readSnapshot(t, ws)

	sendIntent(t, ws, IntentSelect, 0)
	readSnapshot(t, ws)

	sendIntent(t, ws, IntentRetry)
	second := readSnapshot(t, ws)
	require.NotEqual(t, first.SessionID, second.SessionID)
	require.Equal(t, 0, second.Position)
	require.Equal(t, 0, second.Score)
	require.Equal(t, 2, h.source.callCount())

	// Only the new session's countdown remains armed.
	require.Equal(t, 1, h.clock.Pending())
}

func TestPlayStartupFailures(t *testing.T) {
	tests := []struct {
		name    string
		quizID  string
		wantErr string
	}{
		{name: "empty quiz", quizID: "empty", wantErr: "no questions available"},
		{name: "unknown quiz", quizID: "missing", wantErr: "quiz not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			ws := h.dial(t, tc.quizID)

			msg := read(t, ws)
			require.Equal(t, MessageTypeError, msg.Type)
			require.Equal(t, tc.wantErr, msg.Error)

			_, _, err := ws.ReadMessage()
			require.Error(t, err)
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
		})
	}
}

func TestPlayDisconnectCancelsTimers(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t, "landmarks")
	readSnapshot(t, ws)
	require.Equal(t, 1, h.clock.Pending())

	require.NoError(t, ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		return h.clock.Pending() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStartupMessage(t *testing.T) {
	require.Equal(t, "no questions available", startupMessage(session.ErrNoQuestions))
	require.Equal(t, "invalid quiz id", startupMessage(fmt.Errorf("wrap: %w", quiz.ErrInvalidQuizID)))
	require.Equal(t, "failed to load questions", startupMessage(fmt.Errorf("boom")))
}
