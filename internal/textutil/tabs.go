package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const DefaultTabWidth = 4

// ExpandTabs replaces tab characters with spaces respecting terminal column width.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text
	}

	var builder strings.Builder
	column := 0
	for _, ru := range text {
		if ru == '\t' {
			spaces := tabWidth - (column % tabWidth)
			builder.WriteString(strings.Repeat(" ", spaces))
			column += spaces
			continue
		}
		builder.WriteRune(ru)
		column += max(1, runewidth.RuneWidth(ru))
	}
	return builder.String()
}

// DisplayWidth reports the printable width of text, measuring grapheme
// clusters so emoji sequences count once.
func DisplayWidth(text string) int {
	return uniseg.StringWidth(text)
}

// TruncateToWidth shortens text to width columns, ending with an ellipsis when
// anything was cut.
func TruncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if DisplayWidth(text) <= width {
		return text
	}

	const ellipsis = "…"
	ellipsisWidth := max(1, runewidth.StringWidth(ellipsis))
	if width <= ellipsisWidth {
		return ellipsis
	}

	target := width - ellipsisWidth
	var builder strings.Builder
	current := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if current+w > target {
			break
		}
		builder.WriteString(cluster)
		current += w
	}
	builder.WriteString(ellipsis)
	return builder.String()
}
