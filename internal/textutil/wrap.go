package textutil

import "strings"

// SplitLines splits text into logical lines. A trailing "\r" is dropped from
// each line and a final newline terminates the last line rather than opening
// an empty one. Empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// WrapLine cuts line into segments of exactly cols runes; the last segment
// holds the remainder. An empty line still yields one (empty) segment.
func WrapLine(line string, cols int) []string {
	if cols < 1 {
		cols = 1
	}
	if len(line) <= cols {
		// Byte length bounds rune count, so this is the common short-line path.
		return []string{line}
	}

	segments := make([]string, 0, len(line)/cols+1)
	start, count := 0, 0
	for i := range line {
		if count == cols {
			segments = append(segments, line[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(segments, line[start:])
}

// Wrap formats text into display lines of at most cols runes.
func Wrap(text string, cols int) []string {
	logical := SplitLines(text)
	out := make([]string, 0, len(logical))
	for _, line := range logical {
		out = append(out, WrapLine(line, cols)...)
	}
	return out
}

// WrapNumbered is Wrap with room reserved for a "{n}. " prefix when numbered
// is set. The prefix width depends on the line count, so wrapping repeats
// until the digit count settles.
func WrapNumbered(text string, cols int, numbered bool) []string {
	lines := Wrap(text, cols)
	if !numbered {
		return lines
	}
	digits := 0
	for range 4 {
		d := Digits(len(lines))
		if d == digits {
			break
		}
		digits = d
		lines = Wrap(text, max(1, cols-NumberPrefixWidth(len(lines))))
	}
	return lines
}

// Digits is the number of decimal digits of n (at least 1).
func Digits(n int) int {
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

// NumberPrefixWidth is the width of a padded "{n}. " prefix for a document
// of total lines.
func NumberPrefixWidth(total int) int {
	return Digits(total) + 2
}
