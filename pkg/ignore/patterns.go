package ignore

import (
	"regexp"
	"strings"
)

// Translate converts a shell glob into an anchored regular expression over a whole path.
//
//	*       any run of characters, separators included
//	?       any single character
//	[seq]   any character in seq, [!seq] any character not in seq
//
// An unclosed '[' matches itself. Everything else is literal.
func Translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`^(?s:`)

	runes := []rune(pattern)
	n := len(runes)
	for i := 0; i < n; i++ {
		c := runes[i]
		switch c {
		case '*':
			// Consecutive stars collapse into one.
			for i+1 < n && runes[i+1] == '*' {
				i++
			}
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := closingBracket(runes, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(charClass(runes[i+1 : end]))
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString(`)\z`)
	return b.String()
}

// closingBracket returns the index of the ']' closing the set opened at start, or -1.
// A ']' directly after '[' or '[!' belongs to the set.
func closingBracket(runes []rune, start int) int {
	j := start + 1
	if j < len(runes) && runes[j] == '!' {
		j++
	}
	if j < len(runes) && runes[j] == ']' {
		j++
	}
	for j < len(runes) && runes[j] != ']' {
		j++
	}
	if j >= len(runes) {
		return -1
	}
	return j
}

func charClass(set []rune) string {
	var b strings.Builder
	b.WriteByte('[')

	if len(set) > 0 && set[0] == '!' {
		b.WriteByte('^')
		set = set[1:]
	} else if len(set) > 0 && set[0] == '^' {
		b.WriteString(`\^`)
		set = set[1:]
	}

	for _, r := range set {
		switch r {
		case '\\', '[', ']':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte(']')
	return b.String()
}
