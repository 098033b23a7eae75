package display

import (
	"strings"
	"unicode/utf8"
)

const (
	Columns = 21 // 128px panel, 6px font
	Lines   = 8
)

// Wrap breaks text into at most maxLines lines of at most cols runes. Words
// wider than a line are split. Lines past maxLines are dropped.
func Wrap(text string, cols, maxLines int) []string {
	if cols <= 0 || maxLines <= 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curLen = 0
	}

	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n <= cols {
			cur.WriteByte(' ')
			cur.WriteString(word)
			curLen += 1 + n
			continue
		}
		if curLen > 0 {
			flush()
		}
		for n > cols {
			head, rest := splitRunes(word, cols)
			lines = append(lines, head)
			word, n = rest, n-cols
		}
		cur.WriteString(word)
		curLen = n
		if len(lines) >= maxLines {
			break
		}
	}
	if curLen > 0 {
		flush()
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
