package cli

import (
	"bufio"
	"context"
	"errors"
	"io"

	"quiz-master/internal/session"
)

var errInputClosed = errors.New("input closed")

// lineReader feeds stdin lines to the event loop so input and timer-driven
// snapshots can be multiplexed with select.
type lineReader struct {
	lines chan string
	done  chan struct{}
}

func newLineReader(in io.Reader) *lineReader {
	r := &lineReader{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(r.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case r.lines <- scanner.Text():
			case <-r.done:
				return
			}
		}
	}()
	return r
}

func (r *lineReader) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if !ok {
			return "", errInputClosed
		}
		return line, nil
	}
}

func (r *lineReader) stop() {
	close(r.done)
}

// mailbox keeps only the latest snapshot. put never blocks, so the session
// observer cannot stall a transition issued from the event loop.
type mailbox struct {
	ch chan session.Snapshot
}

func newMailbox() *mailbox {
	return &mailbox{ch: make(chan session.Snapshot, 1)}
}

// put relies on the session serializing observer calls: there is a single
// producer at any time.
func (m *mailbox) put(snap session.Snapshot) {
	select {
	case m.ch <- snap:
		return
	default:
	}
	select {
	case <-m.ch:
	default:
	}
	m.ch <- snap
}
