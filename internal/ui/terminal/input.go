package terminal

import (
	"os"
	"os/signal"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// StartInput streams key and resize events until done is closed. Each key
// is read while holding lock, so a caller that holds lock may read keys
// directly with ReadKey without racing the background reader.
func (t *Terminal) StartInput(done <-chan struct{}, lock sync.Locker) (<-chan tcell.Event, <-chan error) {
	events := make(chan tcell.Event, 16)
	errCh := make(chan error, 1)

	t.readKeys(done, lock, events, errCh)

	if sigs := resizeSignals(); len(sigs) > 0 {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, sigs...)
		go func() {
			defer signal.Stop(sigCh)
			for {
				select {
				case <-done:
					return
				case <-sigCh:
					cols, rows, err := t.Size()
					if err != nil {
						continue
					}
					select {
					case events <- tcell.NewEventResize(cols, rows):
					case <-done:
						return
					}
				}
			}
		}()
	}

	return events, errCh
}

func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}
