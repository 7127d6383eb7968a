//go:build windows || plan9 || js || wasip1

package terminal

import (
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// readKeys blocks in a key read while holding lock. Without a way to poll the
// console, a search prompt opened here waits for the next key to be read.
func (t *Terminal) readKeys(done <-chan struct{}, lock sync.Locker, events chan<- tcell.Event, errCh chan<- error) {
	if t.input == nil {
		sendErr(errCh, errors.New("no pager input available"))
		return
	}
	go func() {
		for {
			lock.Lock()
			ev, err := t.decodeKey()
			lock.Unlock()
			if err != nil {
				sendErr(errCh, err)
				return
			}
			if ev == nil {
				continue
			}
			select {
			case <-done:
				return
			case events <- ev:
			}
		}
	}()
}

// waitKey cannot poll the console, so done is only checked before the read
// blocks.
func (t *Terminal) waitKey(done <-chan struct{}) error {
	select {
	case <-done:
		return ErrInterrupted
	default:
		return nil
	}
}
