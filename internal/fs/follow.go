package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const followDebounce = 50 * time.Millisecond

// Follower streams changes to a growing file, like tail -f.
type Follower struct {
	Path string
	// OnAppend receives bytes written past the previous end of file.
	OnAppend func(text string) error
	// OnReset receives the whole file after it was truncated or replaced.
	OnReset func(text string) error
	// Encoding decodes appended bytes, as reported by LoadDocument. Nil
	// means UTF-8.
	Encoding encoding.Encoding
	Logger   *slog.Logger
}

// Run watches the file's directory until ctx is done, starting at offset.
// Watching the directory keeps following across log rotation.
func (f Follower) Run(ctx context.Context, offset int64) error {
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	target := filepath.Clean(f.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}

	debounce := time.NewTimer(followDebounce)
	debounce.Stop()
	var pending []byte
	var decoder *encoding.Decoder
	if f.Encoding != nil {
		decoder = f.Encoding.NewDecoder()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			debounce.Reset(followDebounce)
		case <-debounce.C:
			next, chunk, reset, err := readFrom(target, offset)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			offset = next
			if reset {
				pending = nil
				if decoder != nil {
					decoder.Reset()
				}
				logger.Debug("followed file was truncated or replaced", "path", target)
				if err := f.OnReset(DecodeText(chunk)); err != nil {
					return err
				}
				continue
			}
			chunk = append(pending, chunk...)
			var text string
			if decoder != nil {
				text, pending, err = decodePartial(decoder, chunk)
				if err != nil {
					return fmt.Errorf("decode %s: %w", target, err)
				}
			} else {
				cut := completeRunes(chunk)
				text = string(chunk[:cut])
				pending = append([]byte(nil), chunk[cut:]...)
			}
			if text == "" {
				continue
			}
			if err := f.OnAppend(text); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "path", target, "error", err)
		}
	}
}

// readFrom returns the bytes after offset and the new offset. A file that
// shrank is read from the start and reported as a reset.
func readFrom(path string, offset int64) (int64, []byte, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return offset, nil, false, err
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return offset, nil, false, err
	}
	reset := info.Size() < offset
	if reset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, nil, false, err
	}
	chunk, err := io.ReadAll(file)
	if err != nil {
		return offset, nil, false, err
	}
	return offset + int64(len(chunk)), chunk, reset, nil
}

// completeRunes is the length of the longest prefix of b that does not end
// in the middle of a UTF-8 sequence.
func completeRunes(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}

// decodePartial decodes as much of src as forms complete characters and
// returns the undecoded tail, such as half of a UTF-16 code unit.
func decodePartial(dec *encoding.Decoder, src []byte) (string, []byte, error) {
	var out []byte
	dst := make([]byte, 2*len(src)+utf8.UTFMax)
	for {
		nDst, nSrc, err := dec.Transform(dst, src, false)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]
		switch {
		case err == nil || errors.Is(err, transform.ErrShortSrc):
			return string(out), append([]byte(nil), src...), nil
		case errors.Is(err, transform.ErrShortDst):
			if nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		default:
			return string(out), nil, err
		}
	}
}
