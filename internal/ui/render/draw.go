package render

import (
	"fmt"
	"io"

	statepkg "github.com/kk-code-lab/rpager/internal/state"
	textutil "github.com/kk-code-lab/rpager/internal/textutil"
)

const (
	hideCursor  = "\x1b[?25l"
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	clearLine   = "\x1b[2K"
	reverseOn   = "\x1b[7m"
	attrsOff    = "\x1b[0m"
)

// Draw repaints the whole screen: document lines above, status bar on the
// last row. It updates p.UpperMark with the clamped position.
func Draw(w io.Writer, p *statepkg.PagerState) error {
	if _, err := io.WriteString(w, hideCursor+clearScreen+cursorHome); err != nil {
		return err
	}
	if err := WriteLines(w, p.FormattedLines, p.TextRows(), &p.UpperMark, p.LineNumbers); err != nil {
		return err
	}
	return DrawPromptBar(w, p)
}

// DrawPromptBar redraws only the status row.
func DrawPromptBar(w io.Writer, p *statepkg.PagerState) error {
	_, err := fmt.Fprintf(w, "\x1b[%d;1H%s%s%s%s", max(1, p.Rows), clearLine, reverseOn, PromptBar(p), attrsOff)
	return err
}

// PromptBar is the status text fitted to the terminal width.
func PromptBar(p *statepkg.PagerState) string {
	return textutil.StatusText(p.StatusText(), p.Cols)
}
