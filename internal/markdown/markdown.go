// Package markdown renders plain text for Telegram's MarkdownV2 parse mode.
package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `\_*[]()~>#+-=|{}.!` + "`"

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}

	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Bullets rewrites a generated bullet list as escaped "• item" lines. List
// markers ("-", "*", "•" and "1." style) are replaced; blank lines are
// dropped and any other line is kept as is.
func Bullets(summary string) string {
	lines := strings.Split(strings.ReplaceAll(summary, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if item, ok := cutListMarker(line); ok {
			out = append(out, "• "+EscapeV2(item))
			continue
		}

		out = append(out, EscapeV2(line))
	}

	return strings.Join(out, "\n")
}

func cutListMarker(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if item, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(item), true
		}
	}

	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}

	if digits > 0 && digits+1 < len(line) && (line[digits] == '.' || line[digits] == ')') && line[digits+1] == ' ' {
		return strings.TrimSpace(line[digits+2:]), true
	}

	return "", false
}
