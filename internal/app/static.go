package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	statepkg "github.com/kk-code-lab/rpager/internal/state"
	textutil "github.com/kk-code-lab/rpager/internal/textutil"
	renderui "github.com/kk-code-lab/rpager/internal/ui/render"
	"github.com/kk-code-lab/rpager/internal/ui/terminal"
)

// outputTerminalSize reports the size of w when it is an interactive
// terminal. ok is false for pipes, files and buffers.
var outputTerminalSize = func(w io.Writer) (cols, rows int, ok bool) {
	f, isFile := w.(*os.File)
	if !isFile || !terminal.IsTerminal(f) {
		return 0, 0, false
	}
	cols, rows, err := terminal.Size(f)
	if err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	return cols, rows, true
}

// RunStatic pages everything sent so far. Output that is not a terminal gets
// the plain text. With RunNoOverflow set, text that fits on one screen is
// printed without taking over the terminal. Anything else runs the
// interactive session.
func (s *Session) RunStatic(ctx context.Context, out io.Writer) error {
	if err := s.applyPending(); err != nil {
		return err
	}

	cols, rows, isTTY := outputTerminalSize(out)
	if !isTTY {
		var raw string
		s.State(func(p *statepkg.PagerState) { raw = p.Raw })
		return writePlain(out, raw)
	}

	var (
		lines   []string
		ln      statepkg.LineNumbers
		noFlood bool
	)
	s.State(func(p *statepkg.PagerState) {
		ln = p.LineNumbers
		noFlood = p.Static != nil && p.Static.RunNoOverflow
		lines = textutil.WrapNumbered(p.Raw, cols, ln.IsOn())
	})
	if noFlood && len(lines) <= max(1, rows-1) {
		s.logger.Debug("text fits on one screen, skipping pager", "lines", len(lines), "rows", rows)
		mark := 0
		return renderui.WriteLines(out, lines, len(lines), &mark, ln)
	}
	return s.Run(ctx)
}

// applyPending reduces queued data and configuration events without a
// terminal. Input events stay queued, in order, for an interactive Run.
func (s *Session) applyPending() error {
	reducer := statepkg.NewStateReducer(statepkg.ReducerConfig{
		InputLock: &s.inputLock,
		Compiler:  s.compiler,
		Logger:    s.logger,
	})
	s.mu.Lock()
	defer s.mu.Unlock()

	var deferred []statepkg.Event
	defer func() {
		if len(deferred) > 0 {
			s.logger.Debug("input events kept for the interactive pager", "count", len(deferred))
		}
		for _, ev := range deferred {
			_ = s.mailbox.Send(ev)
		}
	}()
	for {
		ev, ok := s.mailbox.TryReceive()
		if !ok {
			return nil
		}
		if isInputEvent(ev) {
			deferred = append(deferred, ev)
			continue
		}
		if _, err := reducer.Reduce(s.state, ev); err != nil {
			return err
		}
	}
}

func isInputEvent(ev statepkg.Event) bool {
	switch ev.(type) {
	case statepkg.UserInputEvent, statepkg.TerminalEvent:
		return true
	}
	return false
}

func writePlain(w io.Writer, raw string) error {
	if raw == "" {
		return nil
	}
	if !strings.HasSuffix(raw, "\n") {
		raw += "\n"
	}
	if _, err := io.WriteString(w, raw); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
