package app

import (
	"context"
	"errors"
	"sync"

	statepkg "github.com/kk-code-lab/rpager/internal/state"
)

// ErrClosed is returned when sending to a mailbox whose session has ended.
var ErrClosed = errors.New("pager session closed")

// Mailbox is an unbounded FIFO of events with many producers and one
// consumer. Send never blocks.
type Mailbox struct {
	mu     sync.Mutex
	queue  []statepkg.Event
	notify chan struct{}
	closed bool
}

func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Send enqueues ev. It fails only after Close.
func (m *Mailbox) Send(ev statepkg.Event) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.queue = append(m.queue, ev)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive blocks until an event is queued, ctx is done, or the mailbox is
// closed and drained.
func (m *Mailbox) Receive(ctx context.Context) (statepkg.Event, error) {
	for {
		if ev, ok := m.TryReceive(); ok {
			return ev, nil
		}
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case <-m.notify:
		}
	}
}

// TryReceive pops the oldest event without blocking.
func (m *Mailbox) TryReceive() (statepkg.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	ev := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	if len(m.queue) == 0 {
		m.queue = nil
	}
	return ev, true
}

// Len is the number of queued events.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close rejects further sends. Already queued events can still be received.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}
