package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// followRecorder mirrors the followed file the way a pager would.
type followRecorder struct {
	mu      sync.Mutex
	content string
	resets  int
}

func (r *followRecorder) appended(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content += s
	return nil
}

func (r *followRecorder) reset(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content = s
	r.resets++
	return nil
}

func (r *followRecorder) snapshot() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content, r.resets
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}

func TestFollowerStreamsAppendsAndTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec := &followRecorder{content: "start\n"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Follower{Path: path, OnAppend: rec.appended, OnReset: rec.reset}.Run(ctx, int64(len("start\n")))
	}()
	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("more\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	_ = f.Close()

	waitFor(t, func() bool {
		got, _ := rec.snapshot()
		return got == "start\nmore\n"
	})

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	waitFor(t, func() bool {
		got, resets := rec.snapshot()
		return resets > 0 && got == "new\n"
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("follower did not stop")
	}
}

func utf16LE(t *testing.T, s string) []byte {
	t.Helper()
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	return b
}

func TestDecodePartialHoldsBackIncompleteUnits(t *testing.T) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	src := utf16LE(t, "a😀")

	text, rest, err := decodePartial(dec, src[:5])
	if err != nil || text != "a" || len(rest) != 3 {
		t.Fatalf("first half = %q, rest %d bytes, err %v", text, len(rest), err)
	}
	text, rest, err = decodePartial(dec, append(rest, src[5:]...))
	if err != nil || text != "😀" || len(rest) != 0 {
		t.Fatalf("second half = %q, rest %d bytes, err %v", text, len(rest), err)
	}
}

func TestFollowerDecodesUTF16Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.log")
	initial := append([]byte{0xFF, 0xFE}, utf16LE(t, "start\n")...)
	if err := os.WriteFile(path, initial, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Text != "start\n" || doc.Encoding == nil {
		t.Fatalf("doc = %q, encoding %v", doc.Text, doc.Encoding)
	}

	rec := &followRecorder{content: doc.Text}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Follower{Path: path, OnAppend: rec.appended, OnReset: rec.reset, Encoding: doc.Encoding}.Run(ctx, doc.Size)
	}()
	time.Sleep(100 * time.Millisecond)

	appended := utf16LE(t, "año 😀\n")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	// Split inside a code unit so the tail has to wait for the next write.
	if _, err := f.Write(appended[:3]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if _, err := f.Write(appended[3:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = f.Close()

	waitFor(t, func() bool {
		got, _ := rec.snapshot()
		return got == "start\naño 😀\n"
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("follower did not stop")
	}
}
