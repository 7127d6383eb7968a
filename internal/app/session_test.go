package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
	"github.com/kk-code-lab/rpager/internal/ui/input"
	"github.com/kk-code-lab/rpager/internal/ui/terminal"
)

type fakeTerminal struct {
	mu      sync.Mutex
	out     bytes.Buffer
	cols    int
	rows    int
	sizeErr error

	events chan tcell.Event
	errs   chan error
	// prompt is consumed by ReadKey while the search prompt is open. Once it
	// runs out, ReadKey waits for done like a terminal with no keys pending.
	prompt []tcell.Event
	closed int
}

func newFakeTerminal(cols, rows int) *fakeTerminal {
	return &fakeTerminal{
		cols:   cols,
		rows:   rows,
		events: make(chan tcell.Event, 16),
		errs:   make(chan error, 1),
	}
}

type lockedWriter struct{ t *fakeTerminal }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	return w.t.out.Write(p)
}

func (t *fakeTerminal) Writer() io.Writer { return lockedWriter{t} }
func (t *fakeTerminal) Flush() error      { return nil }

func (t *fakeTerminal) Size() (int, int, error) {
	return t.cols, t.rows, t.sizeErr
}

func (t *fakeTerminal) ReadKey(done <-chan struct{}) (tcell.Event, error) {
	t.mu.Lock()
	if len(t.prompt) == 0 {
		t.mu.Unlock()
		<-done
		return nil, terminal.ErrInterrupted
	}
	ev := t.prompt[0]
	t.prompt = t.prompt[1:]
	t.mu.Unlock()
	return ev, nil
}

func (t *fakeTerminal) StartInput(done <-chan struct{}, lock sync.Locker) (<-chan tcell.Event, <-chan error) {
	return t.events, t.errs
}

func (t *fakeTerminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

func (t *fakeTerminal) output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.String()
}

func (t *fakeTerminal) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func runeKey(r rune) tcell.Event {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func typed(s string) []tcell.Event {
	var evs []tcell.Event
	for _, r := range s {
		evs = append(evs, runeKey(r))
	}
	return append(evs, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
}

func newTestSession(t *testing.T, term *fakeTerminal) *Session {
	t.Helper()
	state := statepkg.NewPagerState()
	state.InputClassifier = input.NewDefaultClassifier()
	s := NewSession(state, Config{
		OpenTerminal: func() (Terminal, error) { return term, nil },
	})
	if err := s.Send(statepkg.SetExitStrategyEvent{Strategy: statepkg.ExitPager}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	return s
}

func runSession(t *testing.T, s *Session, ctx context.Context) error {
	t.Helper()
	result := make(chan error, 1)
	go func() { result <- s.Run(ctx) }()
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("session did not finish")
		return nil
	}
}

func numberedText(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "L%d\n", i)
	}
	return b.String()
}

func TestSessionQuitRunsCallbacksAndRestoresTerminal(t *testing.T) {
	term := newFakeTerminal(40, 5)
	s := newTestSession(t, term)

	var calls []string
	_ = s.Send(statepkg.SetDataEvent{Text: "A line\nAnother line"})
	_ = s.Send(statepkg.AddExitCallbackEvent{Callback: func() { calls = append(calls, "first") }})
	_ = s.Send(statepkg.AddExitCallbackEvent{Callback: func() { calls = append(calls, "second") }})
	term.events <- runeKey('q')

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(calls, ","); got != "first,second" {
		t.Fatalf("callbacks=%q", got)
	}
	if term.closeCount() == 0 {
		t.Fatalf("terminal was not closed")
	}
	if out := term.output(); !strings.Contains(out, "\rA line\n\rAnother line\n") {
		t.Fatalf("document not drawn: %q", out)
	}
	if err := s.Send(statepkg.SetPromptEvent{Text: "late"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send after exit = %v, want ErrClosed", err)
	}
}

func TestSessionExitProcessStrategy(t *testing.T) {
	term := newFakeTerminal(40, 5)
	state := statepkg.NewPagerState()
	state.InputClassifier = input.NewDefaultClassifier()
	s := NewSession(state, Config{OpenTerminal: func() (Terminal, error) { return term, nil }})

	orig := exitProcess
	t.Cleanup(func() { exitProcess = orig })
	codes := make(chan int, 1)
	exitProcess = func(code int) { codes <- code }

	term.events <- runeKey('q')
	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	select {
	case code := <-codes:
		if code != 0 {
			t.Fatalf("exit code=%d want 0", code)
		}
	default:
		t.Fatalf("process exit was not requested")
	}
	if term.closeCount() == 0 {
		t.Fatalf("terminal must be restored before exiting")
	}
}

func TestSessionContextCancel(t *testing.T) {
	term := newFakeTerminal(40, 5)
	s := newTestSession(t, term)
	ran := false
	_ = s.Send(statepkg.AddExitCallbackEvent{Callback: func() { ran = true }})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := runSession(t, s, ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if !ran {
		t.Fatalf("exit callbacks should run on cancellation")
	}
	if term.closeCount() == 0 {
		t.Fatalf("terminal was not closed")
	}
}

func TestSessionInputErrorEndsSession(t *testing.T) {
	term := newFakeTerminal(40, 5)
	s := newTestSession(t, term)
	term.errs <- io.ErrUnexpectedEOF

	err := runSession(t, s, context.Background())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Run = %v, want wrapped ErrUnexpectedEOF", err)
	}
}

func TestSessionSizeErrorIsReported(t *testing.T) {
	term := newFakeTerminal(0, 0)
	term.sizeErr = errors.New("no size")
	s := newTestSession(t, term)

	if err := runSession(t, s, context.Background()); err == nil || !strings.Contains(err.Error(), "no size") {
		t.Fatalf("Run = %v, want size error", err)
	}
	if term.closeCount() == 0 {
		t.Fatalf("terminal must be closed after a failed start")
	}
}

func TestSessionRunTwice(t *testing.T) {
	term := newFakeTerminal(40, 5)
	s := newTestSession(t, term)
	term.events <- runeKey('q')
	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Run(context.Background()); !errors.Is(err, statepkg.ErrAlreadyRunning) {
		t.Fatalf("second Run = %v, want ErrAlreadyRunning", err)
	}
}

func TestSessionScrollKeys(t *testing.T) {
	term := newFakeTerminal(40, 6)
	s := newTestSession(t, term)
	_ = s.Send(statepkg.SetDataEvent{Text: numberedText(30)})
	term.events <- runeKey(' ')
	term.events <- runeKey('j')
	go func() {
		// Quit only once the scrolled page is on screen.
		deadline := time.Now().Add(5 * time.Second)
		for !strings.Contains(term.output(), "\rL6\n\rL7\n\rL8\n\rL9\n\rL10\n") && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		term.events <- runeKey('q')
	}()

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s.State(func(p *statepkg.PagerState) {
		if p.UpperMark != 6 {
			t.Fatalf("UpperMark=%d want 6", p.UpperMark)
		}
	})
	if !strings.Contains(term.output(), "\rL6\n\rL7\n\rL8\n\rL9\n\rL10\n") {
		t.Fatalf("scrolled page not drawn: %q", term.output())
	}
}

func TestSessionKeyBurstAppliesEveryKey(t *testing.T) {
	term := newFakeTerminal(40, 6)
	s := newTestSession(t, term)
	_ = s.Send(statepkg.SetDataEvent{Text: numberedText(30)})
	for _, ev := range []tcell.Event{
		runeKey('j'),
		runeKey('j'),
		runeKey('j'),
		tcell.NewEventKey(tcell.KeyCtrlL, 0, tcell.ModCtrl),
		tcell.NewEventKey(tcell.KeyCtrlL, 0, tcell.ModCtrl),
		tcell.NewEventKey(tcell.KeyCtrlL, 0, tcell.ModCtrl),
		runeKey('q'),
	} {
		term.events <- ev
	}

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s.State(func(p *statepkg.PagerState) {
		if p.UpperMark != 3 {
			t.Fatalf("after three j presses UpperMark=%d want 3", p.UpperMark)
		}
		if p.LineNumbers != statepkg.LineNumbersEnabled {
			t.Fatalf("after three toggles LineNumbers=%v want on", p.LineNumbers)
		}
	})
}

func TestSessionKeyBurstScrollsFromClampedMark(t *testing.T) {
	term := newFakeTerminal(40, 6)
	s := newTestSession(t, term)
	_ = s.Send(statepkg.SetDataEvent{Text: numberedText(30)})
	// G overshoots; k must move up from the last page, not from the overshoot.
	term.events <- runeKey('G')
	term.events <- runeKey('k')
	term.events <- runeKey('q')

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s.State(func(p *statepkg.PagerState) {
		if p.UpperMark != 24 {
			t.Fatalf("UpperMark=%d want 24", p.UpperMark)
		}
	})
}

func TestSessionSearchJumpsToMatch(t *testing.T) {
	term := newFakeTerminal(40, 11)
	term.prompt = typed("L99")
	s := newTestSession(t, term)
	_ = s.Send(statepkg.SetDataEvent{Text: numberedText(110)})
	term.events <- runeKey('/')
	term.events <- runeKey('q')

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s.State(func(p *statepkg.PagerState) {
		if p.Search == nil {
			t.Skip("search compiled out")
		}
		if p.Search.Mode != statepkg.SearchForward {
			t.Fatalf("mode=%v want forward", p.Search.Mode)
		}
		if len(p.Search.Matches) != 1 || p.Search.Matches[0] != 99 {
			t.Fatalf("matches=%v want [99]", p.Search.Matches)
		}
		if p.UpperMark != 99 {
			t.Fatalf("UpperMark=%d want 99", p.UpperMark)
		}
	})
	if !strings.Contains(term.output(), "/L99") {
		t.Fatalf("prompt was not echoed: %q", term.output())
	}
}

func TestSessionInvalidSearchShowsMessage(t *testing.T) {
	term := newFakeTerminal(60, 6)
	term.prompt = typed("(")
	s := newTestSession(t, term)
	_ = s.Send(statepkg.SetDataEvent{Text: "alpha\nbeta"})
	go func() {
		term.events <- runeKey('/')
		time.Sleep(50 * time.Millisecond)
		term.events <- runeKey('q')
	}()

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(term.output(), statepkg.InvalidRegexMessage) {
		t.Fatalf("invalid regex message not drawn: %q", term.output())
	}
}

func TestSessionCancelWhileSearchPromptIsOpen(t *testing.T) {
	term := newFakeTerminal(40, 6)
	s := newTestSession(t, term)
	ran := false
	_ = s.Send(statepkg.SetDataEvent{Text: "alpha\nbeta"})
	_ = s.Send(statepkg.AddExitCallbackEvent{Callback: func() { ran = true }})
	term.events <- runeKey('/')

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if err := runSession(t, s, ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if !strings.Contains(term.output(), "\x1b[2K/") {
		t.Fatalf("search prompt was not opened: %q", term.output())
	}
	if !ran {
		t.Fatalf("exit callbacks should run when the prompt is cancelled")
	}
	if term.closeCount() == 0 {
		t.Fatalf("terminal was not closed")
	}
}

func TestSessionHostUpdatesWhileRunning(t *testing.T) {
	term := newFakeTerminal(40, 6)
	s := newTestSession(t, term)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = s.Send(statepkg.AppendDataEvent{Text: "foo\n"})
		_ = s.Send(statepkg.AppendDataEvent{Text: "bar"})
		time.Sleep(50 * time.Millisecond)
		term.events <- runeKey('q')
	}()

	if err := runSession(t, s, context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s.State(func(p *statepkg.PagerState) {
		if got := strings.Join(p.FormattedLines, "|"); got != "foo|bar" {
			t.Fatalf("lines=%q want foo|bar", got)
		}
	})
}
