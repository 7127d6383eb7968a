package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpager/internal/search"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
	renderui "github.com/kk-code-lab/rpager/internal/ui/render"
)

var exitProcess = os.Exit

// Config wires a Session to its collaborators. Zero values pick defaults.
type Config struct {
	Logger       *slog.Logger
	Compiler     search.Compiler
	OpenTerminal func() (Terminal, error)
}

// Session owns a PagerState and is the only goroutine that mutates it.
// Hosts and the input task talk to it through its mailbox.
type Session struct {
	mu      sync.Mutex
	state   *statepkg.PagerState
	mailbox *Mailbox

	// inputLock is held by the search prompt while it reads keys, and by the
	// background key reader around each read.
	inputLock sync.Mutex

	logger       *slog.Logger
	compiler     search.Compiler
	openTerminal func() (Terminal, error)
	started      atomic.Bool
}

// NewSession creates a session around state. Events may be sent before Run.
func NewSession(state *statepkg.PagerState, cfg Config) *Session {
	s := &Session{
		state:        state,
		mailbox:      NewMailbox(),
		logger:       cfg.Logger,
		compiler:     cfg.Compiler,
		openTerminal: cfg.OpenTerminal,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.compiler == nil {
		s.compiler = search.RegexpCompiler{}
	}
	if s.openTerminal == nil {
		s.openTerminal = OpenTerminal
	}
	return s
}

// Send queues ev for the session. It fails with ErrClosed once the session
// has ended.
func (s *Session) Send(ev statepkg.Event) error {
	if ev == nil {
		return errors.New("nil event")
	}
	return s.mailbox.Send(ev)
}

// Run takes over the terminal and processes events until the user quits,
// ctx is cancelled, or terminal I/O fails.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return statepkg.ErrAlreadyRunning
	}
	defer s.mailbox.Close()

	term, err := s.openTerminal()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}

	done := make(chan struct{})
	var stopOnce sync.Once
	teardown := func() error {
		stopOnce.Do(func() { close(done) })
		return term.Close()
	}

	cols, rows, err := term.Size()
	if err != nil {
		return errors.Join(err, teardown())
	}
	s.logger.Debug("pager session starting", "cols", cols, "rows", rows, "queued", s.mailbox.Len())

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	reducer := statepkg.NewStateReducer(statepkg.ReducerConfig{
		Queries:   promptQueries{term: term, state: s.state, done: ctx.Done()},
		InputLock: &s.inputLock,
		Compiler:  s.compiler,
		Logger:    s.logger,
		Cleanup: func(strategy statepkg.ExitStrategy) error {
			err := teardown()
			if strategy == statepkg.ExitProcess {
				s.logger.Debug("exiting process after pager quit")
				exitProcess(0)
			}
			return err
		},
	})

	// interrupted ends the session early, still honouring exit callbacks.
	interrupted := func() error {
		err := context.Cause(ctx)
		s.logger.Debug("pager session interrupted", "error", err)
		s.mu.Lock()
		s.state.Exit()
		s.mu.Unlock()
		return errors.Join(err, teardown())
	}

	s.mu.Lock()
	s.state.Prepare(cols, rows)
	s.mu.Unlock()

	quit, err := s.dispatchBatch(term, reducer, nil)
	if err != nil || quit {
		return errors.Join(err, teardown())
	}

	keys, inputErrs := term.StartInput(done, &s.inputLock)
	go s.forwardInput(ctx, cancel, term, keys, inputErrs)

	for {
		ev, err := s.mailbox.Receive(ctx)
		if err != nil {
			return interrupted()
		}

		quit, err := s.dispatchBatch(term, reducer, ev)
		if quit {
			s.logger.Debug("pager session ended")
			return err
		}
		if err != nil && ctx.Err() != nil {
			// The search prompt gave up because the session was cancelled.
			return interrupted()
		}
		if err != nil {
			s.logger.Error("pager session failed", "error", err)
			return errors.Join(err, teardown())
		}
	}
}

// dispatchBatch reduces first and everything queued behind it, then draws
// once. It reports whether the session ended.
func (s *Session) dispatchBatch(term Terminal, reducer *statepkg.StateReducer, first statepkg.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := first, first != nil
	if !ok {
		ev, ok = s.mailbox.TryReceive()
	}
	for ok {
		if _, err := reducer.Reduce(s.state, ev); err != nil {
			return s.state.Exited(), err
		}
		if s.state.Exited() {
			return true, nil
		}
		ev, ok = s.mailbox.TryReceive()
	}

	if err := renderui.Draw(term.Writer(), s.state); err != nil {
		return false, fmt.Errorf("draw: %w", err)
	}
	if err := term.Flush(); err != nil {
		return false, fmt.Errorf("flush: %w", err)
	}
	return false, nil
}

// forwardInput queues terminal events for the reducer, which classifies them
// against the state they are applied to. A read failure cancels the session.
func (s *Session) forwardInput(ctx context.Context, cancel context.CancelCauseFunc, term Terminal, keys <-chan tcell.Event, errs <-chan error) {
	var contCh chan os.Signal
	if sigs := contSignals(); len(sigs) > 0 {
		contCh = make(chan os.Signal, 1)
		signal.Notify(contCh, sigs...)
		defer signal.Stop(contCh)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				cancel(fmt.Errorf("read input: %w", err))
			}
			return
		case <-contCh:
			// Redraw at the current size after a job-control resume.
			if cols, rows, err := term.Size(); err == nil {
				_ = s.mailbox.Send(statepkg.Input(statepkg.UpdateTermAreaInput{Cols: cols, Rows: rows}))
			}
		case ev := <-keys:
			if ev == nil {
				continue
			}
			if err := s.mailbox.Send(statepkg.TerminalEvent{Event: ev}); err != nil {
				return
			}
		}
	}
}

// State runs fn with exclusive access to the session state. It is meant for
// hosts that inspect the state after Run returns, and for tests.
func (s *Session) State(fn func(*statepkg.PagerState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}
