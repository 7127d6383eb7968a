//go:build !windows && !plan9 && !js && !wasip1

package terminal

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func newPipeTerminal(t *testing.T) (*Terminal, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
		_ = r.Close()
	})
	return &Terminal{input: r, reader: bufio.NewReader(r), writer: bufio.NewWriter(io.Discard)}, w
}

func wantRune(t *testing.T, ev tcell.Event, want rune) {
	t.Helper()
	key, ok := ev.(*tcell.EventKey)
	if !ok || key.Key() != tcell.KeyRune || key.Rune() != want {
		t.Fatalf("event=%#v want rune %q", ev, want)
	}
}

func TestStartInputPausesWhileLockIsHeld(t *testing.T) {
	term, w := newPipeTerminal(t)
	done := make(chan struct{})
	defer close(done)

	var lock sync.Mutex
	lock.Lock()
	events, errs := term.StartInput(done, &lock)

	if _, err := w.Write([]byte("ab")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, want := range "ab" {
		ev, err := term.ReadKey(nil)
		if err != nil {
			t.Fatalf("ReadKey: %v", err)
		}
		wantRune(t, ev, want)
	}

	select {
	case ev := <-events:
		t.Fatalf("background reader took %#v while the lock was held", ev)
	case err := <-errs:
		t.Fatalf("background reader failed: %v", err)
	case <-time.After(3 * pollInterval):
	}
	lock.Unlock()

	if _, err := w.Write([]byte("z")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	select {
	case ev := <-events:
		wantRune(t, ev, 'z')
	case err := <-errs:
		t.Fatalf("background reader failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("background reader did not resume after unlock")
	}
}

func TestReadKeyStopsWhenDone(t *testing.T) {
	term, _ := newPipeTerminal(t)
	done := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		_, err := term.ReadKey(done)
		result <- err
	}()

	close(done)
	select {
	case err := <-result:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("ReadKey err=%v want ErrInterrupted", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ReadKey did not return after done was closed")
	}
}
