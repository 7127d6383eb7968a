package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
)

const (
	enterAltScreen = "\x1b[?1049h"
	leaveAltScreen = "\x1b[?1049l"
	hideCursor     = "\x1b[?25l"
	showCursor     = "\x1b[?25h"
)

var (
	// ErrNoTTY is returned when no controlling terminal can be opened.
	ErrNoTTY = errors.New("no tty available")
	// ErrInterrupted is returned by ReadKey when done closes before a key
	// arrives.
	ErrInterrupted = errors.New("key read interrupted")
)

var (
	termGetSize  = term.GetSize
	termMakeRaw  = term.MakeRaw
	termRestore  = term.Restore
	openTTY      = func() (*os.File, error) { return os.OpenFile("/dev/tty", os.O_RDWR, 0) }
	isTerminalFd = term.IsTerminal
)

// Terminal is the pager's view of the controlling terminal: raw mode, the
// alternate screen, size queries and decoded key input.
type Terminal struct {
	input       *os.File
	outputFile  *os.File
	reader      *bufio.Reader
	writer      *bufio.Writer
	restoreTerm *term.State
	ownsInput   bool

	closeOnce sync.Once
	closeErr  error
}

// Open claims the terminal, switches it to raw mode and enters the alternate
// screen. On failure everything already set up is undone.
func Open() (*Terminal, error) {
	t := &Terminal{}

	tty, err := openTTY()
	if err != nil {
		if runtime.GOOS != "windows" {
			return nil, fmt.Errorf("%w: %v", ErrNoTTY, err)
		}
		t.input = os.Stdin
		t.outputFile = os.Stdout
	} else {
		t.input = tty
		t.outputFile = tty
		t.ownsInput = true
	}

	t.reader = bufio.NewReader(t.input)
	t.writer = bufio.NewWriter(t.outputFile)

	rawState, err := termMakeRaw(int(t.input.Fd()))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("enable raw mode: %w", err), t.Close())
	}
	t.restoreTerm = rawState

	if _, err := t.writer.WriteString(enterAltScreen + hideCursor); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	if err := t.writer.Flush(); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	return t, nil
}

// Writer is the buffered output sink; call Flush after a frame.
func (t *Terminal) Writer() io.Writer {
	return t.writer
}

func (t *Terminal) Flush() error {
	return t.writer.Flush()
}

// Size returns (cols, rows), asking the input descriptor first and the
// output descriptor second.
func (t *Terminal) Size() (int, int, error) {
	var firstErr error
	for _, f := range []*os.File{t.input, t.outputFile} {
		if f == nil {
			continue
		}
		w, h, err := termGetSize(int(f.Fd()))
		if err == nil && w > 0 && h > 0 {
			return w, h, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = ErrNoTTY
	}
	return 0, 0, fmt.Errorf("query terminal size: %w", firstErr)
}

// ReadKey blocks for the next key, or until done is closed. Callers
// coordinating with StartInput must hold the input lock passed to it.
func (t *Terminal) ReadKey(done <-chan struct{}) (tcell.Event, error) {
	if err := t.waitKey(done); err != nil {
		return nil, err
	}
	return t.decodeKey()
}

func (t *Terminal) decodeKey() (tcell.Event, error) {
	return keyDecoder{reader: t.reader}.readKeyEvent()
}

// Close restores the terminal. It is safe to call more than once; every step
// is attempted even if an earlier one fails.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		var errs []error
		if t.input != nil && t.restoreTerm != nil {
			if err := termRestore(int(t.input.Fd()), t.restoreTerm); err != nil {
				errs = append(errs, fmt.Errorf("restore terminal mode: %w", err))
			}
		}
		if t.writer != nil {
			_, _ = t.writer.WriteString(showCursor + leaveAltScreen)
			if err := t.writer.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
		if t.ownsInput && t.input != nil {
			if err := t.input.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && isTerminalFd(int(f.Fd()))
}

// Size reports the dimensions of the terminal behind f.
func Size(f *os.File) (int, int, error) {
	return termGetSize(int(f.Fd()))
}
