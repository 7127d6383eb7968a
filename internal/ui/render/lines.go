package render

import (
	"fmt"
	"io"

	statepkg "github.com/kk-code-lab/rpager/internal/state"
	textutil "github.com/kk-code-lab/rpager/internal/textutil"
)

// ClampUpperMark is statepkg.ClampUpperMark, the rule WriteLines applies.
func ClampUpperMark(upperMark, rows, numLines int) int {
	return statepkg.ClampUpperMark(upperMark, rows, numLines)
}

// WriteLines clamps *upperMark, then writes up to rows lines starting there.
// Each line is "\r" + optional padded number + text + "\n"; numbers are padded
// to the width of the document's line count, not just the visible window.
func WriteLines(w io.Writer, lines []string, rows int, upperMark *int, ln statepkg.LineNumbers) error {
	rows = max(rows, 0)
	*upperMark = ClampUpperMark(*upperMark, rows, len(lines))

	end := min(len(lines), *upperMark+rows)
	visible := lines[*upperMark:end]

	if !ln.IsOn() {
		for _, line := range visible {
			if _, err := fmt.Fprintf(w, "\r%s\n", line); err != nil {
				return err
			}
		}
		return nil
	}

	width := textutil.Digits(len(lines))
	for i, line := range visible {
		if _, err := fmt.Fprintf(w, "\r%*d. %s\n", width, *upperMark+i+1, line); err != nil {
			return err
		}
	}
	return nil
}
