package search

import "sort"

// Index returns the positions of lines with at least one hit. Each line is
// recorded once, so the result is strictly ascending.
func Index(lines []string, m Matcher) []int {
	if m == nil {
		return nil
	}
	var hits []int
	for i, line := range lines {
		if m.MatchString(line) {
			hits = append(hits, i)
		}
	}
	return hits
}

// FirstAtOrAfter returns the position in matches of the first line >= line,
// or -1 when every match lies above it.
func FirstAtOrAfter(matches []int, line int) int {
	idx := sort.SearchInts(matches, line)
	if idx >= len(matches) {
		return -1
	}
	return idx
}
