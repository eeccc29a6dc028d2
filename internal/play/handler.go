// Package play drives a quiz session over a websocket: the client sends
// intents, the server pushes a snapshot after every transition and tick and a
// results summary once the session completes.
package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-master/internal/quiz"
	"quiz-master/internal/session"
)

var errUnknownIntent = errors.New("unknown intent")

// QuestionSource selects the questions for one attempt.
type QuestionSource interface {
	SelectQuestions(ctx context.Context, quizID string) ([]quiz.Question, error)
}

type Handler struct {
	source      QuestionSource
	logger      *zap.Logger
	upgrader    websocket.Upgrader
	sessionOpts []session.SessionOption
}

type HandlerOption func(*Handler)

// WithSessionOptions applies opts to every session the handler creates.
func WithSessionOptions(opts ...session.SessionOption) HandlerOption {
	return func(h *Handler) {
		h.sessionOpts = append(h.sessionOpts, opts...)
	}
}

// WithAllowedOrigin accepts upgrades from origin; "*" accepts any origin.
func WithAllowedOrigin(origin string) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			got := r.Header.Get("Origin")
			return origin == "*" || got == "" || got == origin
		}
	}
}

func NewHandler(source QuestionSource, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["quizId"]
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.String("quiz_id", quizID), zap.Error(err))
		return
	}

	logger := h.logger.With(zap.String("quiz_id", quizID))
	c := newConn(ws, logger)
	go c.writeLoop()
	defer c.shutdown()

	p := &player{
		handler: h,
		conn:    c,
		quizID:  quizID,
		logger:  logger,
	}
	defer p.close()

	ctx := r.Context()
	if err := p.start(ctx); err != nil {
		p.fail(err)
		return
	}
	p.readLoop(ctx)
}

// player is the server side of one connection. It holds at most one live
// session; retry replaces it.
type player struct {
	handler *Handler
	conn    *conn
	quizID  string
	logger  *zap.Logger

	mu      sync.Mutex
	current *session.Session
}

func (p *player) start(ctx context.Context) error {
	questions, err := p.handler.source.SelectQuestions(ctx, p.quizID)
	if err != nil {
		return err
	}

	var sess *session.Session
	opts := append(slices.Clone(p.handler.sessionOpts), session.WithObserver(func(snap session.Snapshot) {
		p.publish(sess, snap)
	}))
	sess = session.New(opts...)

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	if err := sess.Start(quiz.ToSession(questions)); err != nil {
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
		return err
	}
	p.logger.Debug("session started", zap.String("session_id", sess.ID()), zap.Int("questions", len(questions)))
	return nil
}

// publish runs on the session's observer. Summarize is safe here because
// Completed is terminal and no later transition can wait on the observer.
func (p *player) publish(sess *session.Session, snap session.Snapshot) {
	if !p.isCurrent(sess) {
		return
	}
	p.logger.Debug("session transition",
		zap.String("session_id", snap.SessionID),
		zap.Stringer("state", snap.State),
		zap.Int("position", snap.Position),
		zap.Int("remaining", snap.Remaining),
	)
	p.conn.send(ServerMessage{Type: MessageTypeSnapshot, Snapshot: &snap})

	if snap.State == session.StateCompleted {
		summary := sess.Summarize()
		p.conn.send(ServerMessage{Type: MessageTypeResults, Results: &summary})
	}
}

func (p *player) isCurrent(sess *session.Session) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sess != nil && p.current == sess
}

func (p *player) session() *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *player) readLoop(ctx context.Context) {
	p.conn.prepareRead()

	for {
		_, raw, err := p.conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Warn("websocket read failed", zap.Error(err))
			} else {
				p.logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			p.conn.send(ServerMessage{Type: MessageTypeError, Error: "invalid message"})
			continue
		}

		if err := p.handle(ctx, msg); err != nil {
			if errors.Is(err, errUnknownIntent) {
				p.conn.send(ServerMessage{Type: MessageTypeError, Intent: msg.Type, Error: err.Error()})
				continue
			}
			p.fail(err)
			return
		}
	}
}

// handle applies one intent. A returned error ends the connection, except
// errUnknownIntent.
func (p *player) handle(ctx context.Context, msg ClientMessage) error {
	if msg.Type == IntentRetry {
		return p.retry(ctx)
	}

	sess := p.session()
	if sess == nil {
		p.conn.send(ServerMessage{Type: MessageTypeIgnored, Intent: msg.Type})
		return nil
	}

	var applied bool
	switch msg.Type {
	case IntentSelect:
		if msg.Option == nil {
			p.conn.send(ServerMessage{Type: MessageTypeError, Intent: msg.Type, Error: "option is required"})
			return nil
		}
		applied = sess.SelectAnswer(*msg.Option)
	case IntentSkip:
		applied = sess.Skip()
	case IntentNext:
		applied = sess.Advance()
	case IntentPrevious:
		applied = sess.Retreat()
	case IntentSubmit:
		applied = sess.Submit()
	default:
		return fmt.Errorf("%w %q", errUnknownIntent, msg.Type)
	}

	if !applied {
		p.conn.send(ServerMessage{Type: MessageTypeIgnored, Intent: msg.Type})
	}
	return nil
}

// retry discards the current session and starts a new one with a fresh
// selection of questions.
func (p *player) retry(ctx context.Context) error {
	p.mu.Lock()
	old := p.current
	p.current = nil
	p.mu.Unlock()

	if old != nil {
		old.Close()
		p.logger.Debug("session discarded", zap.String("session_id", old.ID()))
	}
	return p.start(ctx)
}

func (p *player) fail(err error) {
	message := startupMessage(err)
	p.logger.Info("play session ended", zap.String("reason", message), zap.Error(err))
	p.conn.send(ServerMessage{Type: MessageTypeError, Error: message})
	p.conn.closeAfterFlush(websocket.CloseNormalClosure, message)
}

func (p *player) close() {
	p.mu.Lock()
	sess := p.current
	p.current = nil
	p.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

func startupMessage(err error) string {
	switch {
	case errors.Is(err, quiz.ErrNoQuestions), errors.Is(err, session.ErrNoQuestions):
		return "no questions available"
	case errors.Is(err, quiz.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, quiz.ErrInvalidQuizID):
		return "invalid quiz id"
	default:
		return "failed to load questions"
	}
}
