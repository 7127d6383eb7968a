//go:build !windows && !plan9 && !js && !wasip1

package terminal

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sys/unix"
)

const pollInterval = 50 * time.Millisecond

func (t *Terminal) readKeys(done <-chan struct{}, lock sync.Locker, events chan<- tcell.Event, errCh chan<- error) {
	if t.input == nil {
		sendErr(errCh, errors.New("no pager input available"))
		return
	}
	cancelR, cancelW, err := os.Pipe()
	if err != nil {
		sendErr(errCh, err)
		return
	}

	go func() {
		<-done
		_, _ = cancelW.Write([]byte{1})
		_ = cancelW.Close()
	}()

	go func() {
		defer func() {
			_ = cancelR.Close()
		}()
		inputFd := int(t.input.Fd())
		cancelFd := int(cancelR.Fd())
		for {
			lock.Lock()
			buffered := t.reader.Buffered() > 0
			lock.Unlock()

			if !buffered {
				readable, cancelled, err := waitReadable(inputFd, cancelFd, pollInterval)
				if err != nil {
					sendErr(errCh, err)
					return
				}
				if cancelled {
					return
				}
				if !readable {
					continue
				}
			}

			// The search prompt may have consumed the input while we waited.
			lock.Lock()
			if t.reader.Buffered() == 0 {
				if ready, _, err := waitReadable(inputFd, -1, 0); err != nil || !ready {
					lock.Unlock()
					if err != nil {
						sendErr(errCh, err)
						return
					}
					continue
				}
			}
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

// waitKey polls until input is available or done is closed.
func (t *Terminal) waitKey(done <-chan struct{}) error {
	if t.input == nil {
		return errors.New("no pager input available")
	}
	fd := int(t.input.Fd())
	for t.reader.Buffered() == 0 {
		select {
		case <-done:
			return ErrInterrupted
		default:
		}
		readable, _, err := waitReadable(fd, -1, pollInterval)
		if err != nil {
			return err
		}
		if readable {
			return nil
		}
	}
	return nil
}

// waitReadable reports whether inputFd became readable within timeout, or
// whether cancelFd fired. A negative cancelFd is ignored.
func waitReadable(inputFd, cancelFd int, timeout time.Duration) (readable, cancelled bool, err error) {
	for {
		var readfds unix.FdSet
		fdSetAdd(&readfds, inputFd)
		fdSetAdd(&readfds, cancelFd)
		maxfd := max(inputFd, cancelFd)
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		n, err := unix.Select(maxfd+1, &readfds, nil, nil, &tv)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, false, err
		}
		if n == 0 {
			return false, false, nil
		}
		return fdSetHas(&readfds, inputFd), fdSetHas(&readfds, cancelFd), nil
	}
}

func fdSetAdd(set *unix.FdSet, fd int) {
	if fd < 0 {
		return
	}
	set.Set(fd)
}

func fdSetHas(set *unix.FdSet, fd int) bool {
	if fd < 0 {
		return false
	}
	return set.IsSet(fd)
}
