package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// KeySource yields decoded terminal events one at a time.
type KeySource interface {
	ReadKey() (tcell.Event, error)
}

// Prompt reads a search query on the bottom row of the terminal.
type Prompt struct {
	Keys KeySource
	Out  io.Writer
	// Cols limits how much of the query is echoed; 0 means unlimited.
	Cols int
}

// ReadQuery blocks until Enter (returns the query) or Esc/Ctrl+C (returns "").
// prefix is the character shown before the query, '/' or '?'.
func (p Prompt) ReadQuery(prefix rune, rows int) (string, error) {
	var query strings.Builder
	if err := p.draw(prefix, rows, ""); err != nil {
		return "", err
	}
	for {
		ev, err := p.Keys.ReadKey()
		if err != nil {
			return "", err
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}

		switch key.Key() {
		case tcell.KeyEnter:
			return query.String(), nil
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return "", nil
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			current := dropLastGrapheme(query.String())
			query.Reset()
			query.WriteString(current)
		case tcell.KeyCtrlU:
			query.Reset()
		case tcell.KeyRune:
			query.WriteRune(key.Rune())
		default:
			continue
		}
		if err := p.draw(prefix, rows, query.String()); err != nil {
			return "", err
		}
	}
}

func (p Prompt) draw(prefix rune, rows int, query string) error {
	shown := query
	if p.Cols > 1 {
		// Keep the tail visible once the query outgrows the row.
		for runewidth.StringWidth(shown) > p.Cols-2 && shown != "" {
			_, rest, _, _ := uniseg.FirstGraphemeClusterInString(shown, -1)
			shown = rest
		}
	}
	if _, err := fmt.Fprintf(p.Out, "\x1b[%d;1H\x1b[2K%c%s\x1b[?25h", max(1, rows), prefix, shown); err != nil {
		return err
	}
	if f, ok := p.Out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func dropLastGrapheme(s string) string {
	if s == "" {
		return s
	}
	last := 0
	state := -1
	rest := s
	offset := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		last = offset
		offset += len(cluster)
	}
	return s[:last]
}
