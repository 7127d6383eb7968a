package app

import (
	"io"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpager/internal/ui/terminal"
)

// Terminal is what a session needs from the terminal layer.
type Terminal interface {
	Writer() io.Writer
	Flush() error
	Size() (cols, rows int, err error)
	// ReadKey is used by the search prompt while the input lock is held. It
	// gives up with an error once done is closed.
	ReadKey(done <-chan struct{}) (tcell.Event, error)
	StartInput(done <-chan struct{}, lock sync.Locker) (<-chan tcell.Event, <-chan error)
	// Close must be safe to call more than once.
	Close() error
}

// OpenTerminal claims the controlling terminal.
func OpenTerminal() (Terminal, error) {
	t, err := terminal.Open()
	if err != nil {
		return nil, err
	}
	return t, nil
}
