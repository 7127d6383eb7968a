package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ErrBinary is returned for input that does not look like text.
var ErrBinary = errors.New("binary content")

const (
	sniffSize                    = 4096
	nonPrintableThresholdPercent = 30
)

type bom int

const (
	bomNone bom = iota
	bomUTF8
	bomUTF16LE
	bomUTF16BE
)

var binaryExtensions = map[string]struct{}{
	".7z": {}, ".bin": {}, ".bmp": {}, ".bz2": {}, ".class": {}, ".dll": {},
	".dylib": {}, ".exe": {}, ".gif": {}, ".gz": {}, ".ico": {}, ".jar": {},
	".jpeg": {}, ".jpg": {}, ".mp3": {}, ".mp4": {}, ".o": {}, ".pdf": {},
	".png": {}, ".so": {}, ".tar": {}, ".tgz": {}, ".wasm": {}, ".xz": {},
	".zip": {}, ".zst": {},
}

// Document is a loaded file ready for paging.
type Document struct {
	Text string
	// Size is the number of bytes read, the offset to follow the file from.
	Size int64
	// Encoding decodes bytes appended after Size. Nil means UTF-8.
	Encoding encoding.Encoding
}

// ReadDocument loads path for paging. "-" reads standard input.
func ReadDocument(path string) (string, error) {
	doc, err := LoadDocument(path)
	return doc.Text, err
}

// LoadDocument is ReadDocument that also reports how many bytes were read.
func LoadDocument(path string) (Document, error) {
	if path == "-" {
		return loadFrom("", os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return loadFrom(path, f)
}

// ReadDocumentFrom reads r to the end, rejects binary content and decodes
// BOM-marked UTF-8 and UTF-16 to plain UTF-8. name may be empty.
func ReadDocumentFrom(name string, r io.Reader) (string, error) {
	doc, err := loadFrom(name, r)
	return doc.Text, err
}

func loadFrom(name string, r io.Reader) (Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", displayName(name), err)
	}
	if !LooksLikeText(name, content) {
		return Document{}, fmt.Errorf("%s: %w", displayName(name), ErrBinary)
	}
	return Document{
		Text:     DecodeText(content),
		Size:     int64(len(content)),
		Encoding: bomEncoding(detectBOM(content)),
	}, nil
}

func displayName(name string) string {
	if name == "" {
		return "standard input"
	}
	return name
}

// LooksLikeText sniffs the start of content. A known binary extension on
// name short-circuits the check.
func LooksLikeText(name string, content []byte) bool {
	if name != "" {
		if _, ok := binaryExtensions[strings.ToLower(filepath.Ext(name))]; ok {
			return false
		}
	}
	sample := content[:min(len(content), sniffSize)]
	if len(sample) == 0 || detectBOM(sample) != bomNone {
		return true
	}
	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}
	if utf8.Valid(sample) {
		return true
	}

	nonPrintable := 0
	for _, b := range sample {
		if !isTextByte(b) {
			nonPrintable++
		}
	}
	return nonPrintable*100/len(sample) < nonPrintableThresholdPercent
}

func isTextByte(b byte) bool {
	return b == '\t' || b == '\n' || b == '\r' || b == 0x1b || b >= 0x20 && b != 0x7f
}

func detectBOM(sample []byte) bom {
	switch {
	case bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}):
		return bomUTF8
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return bomUTF16LE
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return bomUTF16BE
	}
	return bomNone
}

// DecodeText strips a UTF-8 BOM and converts UTF-16 with a BOM to UTF-8.
// Anything else is returned unchanged.
func DecodeText(content []byte) string {
	switch detectBOM(content) {
	case bomUTF8:
		return string(content[3:])
	case bomUTF16LE:
		return decodeUTF16(content, unicode.LittleEndian)
	case bomUTF16BE:
		return decodeUTF16(content, unicode.BigEndian)
	}
	return string(content)
}

// bomEncoding is the decoder for text that follows the BOM, or nil for UTF-8.
func bomEncoding(b bom) encoding.Encoding {
	switch b {
	case bomUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case bomUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	return nil
}

func decodeUTF16(content []byte, endian unicode.Endianness) string {
	out, err := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(out)
}
