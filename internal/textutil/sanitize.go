package textutil

import "strings"

var formattingRuneLabels = map[rune]string{
	0x061C: "⟪ALM⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2028: "⟪LSEP⟫",
	0x2029: "⟪PSEP⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0xFEFF: "⟪BOM⟫",
}

// SanitizeTerminalText replaces control characters so host-supplied prompt
// and message text cannot inject escape sequences into the bottom bar.
// Tabs survive for ExpandTabs; newlines collapse to spaces.
func SanitizeTerminalText(text string) string {
	if !strings.ContainsFunc(text, requiresSanitization) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\t':
			b.WriteRune(r)
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('?')
		default:
			if label, ok := formattingRuneLabels[r]; ok {
				b.WriteString(label)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func requiresSanitization(r rune) bool {
	if r == '\t' {
		return false
	}
	if _, ok := formattingRuneLabels[r]; ok {
		return true
	}
	return r < 0x20 || r == 0x7f
}

// StatusText prepares free-form text for a single terminal row.
func StatusText(text string, width int) string {
	return TruncateToWidth(ExpandTabs(SanitizeTerminalText(text), DefaultTabWidth), width)
}
