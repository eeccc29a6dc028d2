package play

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	outboundSize = 64
)

// frame is one queued write; close frames end the writer after flushing.
type frame struct {
	msg   ServerMessage
	close bool
	code  int
	text  string
}

// conn owns the websocket. Session observers run on timer goroutines, so they
// only enqueue; writeLoop is the single writer apart from direct writes under
// writeMu.
type conn struct {
	ws     *websocket.Conn
	logger *zap.Logger

	writeMu  sync.Mutex
	outbound chan frame
	done     chan struct{}
	flushed  chan struct{}

	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, logger *zap.Logger) *conn {
	return &conn{
		ws:       ws,
		logger:   logger,
		outbound: make(chan frame, outboundSize),
		done:     make(chan struct{}),
		flushed:  make(chan struct{}),
	}
}

// send queues msg. It reports false once the connection is shut down.
func (c *conn) send(msg ServerMessage) bool {
	return c.enqueue(frame{msg: msg})
}

// closeAfterFlush queues a close frame behind every pending message and waits
// for the writer to reach it.
func (c *conn) closeAfterFlush(code int, text string) {
	if !c.enqueue(frame{close: true, code: code, text: text}) {
		return
	}
	timer := time.NewTimer(writeWait)
	defer timer.Stop()
	select {
	case <-c.flushed:
	case <-c.done:
	case <-timer.C:
		c.logger.Warn("timed out flushing websocket")
	}
}

func (c *conn) enqueue(f frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.outbound <- f:
		return true
	case <-c.done:
		return false
	}
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f := <-c.outbound:
			if f.close {
				if err := c.writeClose(f.code, f.text); err != nil {
					c.logger.Debug("write close frame failed", zap.Error(err))
				}
				close(c.flushed)
				return
			}
			if err := c.writeJSON(f.msg); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				c.shutdown()
				return
			}
		case <-ticker.C:
			if err := c.writeControl(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping failed", zap.Error(err))
				c.shutdown()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) writeJSON(msg ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(msg)
}

func (c *conn) writeClose(code int, text string) error {
	return c.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}

func (c *conn) writeControl(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(messageType, data, time.Now().Add(writeWait))
}

func (c *conn) prepareRead() {
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (c *conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
