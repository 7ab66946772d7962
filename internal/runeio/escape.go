package runeio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CaretNames maps the names usable in a ^(name) escape to their code points.
var CaretNames = map[string]rune{
	"null":   0x00,
	"back":   0x08,
	"tab":    0x09,
	"line":   0x0A,
	"page":   0x0C,
	"esc":    0x1B,
	"escape": 0x1B,
	"del":    0x7F,
}

// CaretForm returns the caret-escaped form of a control rune, or "" if r
// prints as itself.
//   ^/ line feed, ^- tab, ^^ caret, ^~ delete, ^@ null,
//   ^A through ^_ for the rest of C0, and ^(XX) for C1
func CaretForm(r rune) string {
	switch r {
	case '\n':
		return "^/"
	case '\t':
		return "^-"
	case '^':
		return "^^"
	case 0x7F:
		return "^~"
	}
	if r < 0x20 {
		return "^" + string(r+0x40)
	}
	if 0x80 <= r && r <= 0x9F {
		return fmt.Sprintf("^(%02X)", r)
	}
	return ""
}

var (
	errEmptyEscape = errors.New("missing character after ^")
	errOpenEscape  = errors.New("unterminated ^( escape")
)

// Unescape decodes one caret escape from the head of src, which starts just
// after the caret. Returns the decoded rune and how many runes of src it
// consumed.
func Unescape(src []rune) (r rune, n int, err error) {
	if len(src) == 0 {
		return 0, 0, errEmptyEscape
	}
	switch c := src[0]; {
	case c == '/':
		return '\n', 1, nil
	case c == '-':
		return '\t', 1, nil
	case c == '~':
		return 0x7F, 1, nil
	case c == '@':
		return 0, 1, nil
	case c >= 'A' && c <= '_':
		return c - 0x40, 1, nil
	case c >= 'a' && c <= 'z':
		return c - 0x60, 1, nil
	case c == '(':
		end := -1
		for i, c := range src {
			if c == ')' {
				end = i
				break
			}
		}
		if end < 0 {
			return 0, 0, errOpenEscape
		}
		name := string(src[1:end])
		if r, ok := CaretNames[strings.ToLower(name)]; ok {
			return r, end + 1, nil
		}
		code, err := strconv.ParseUint(name, 16, 32)
		if err != nil || len(name) == 0 || len(name) > 6 {
			return 0, 0, fmt.Errorf("invalid escape ^(%v)", name)
		}
		return rune(code), end + 1, nil
	default:
		// ^" ^{ ^} ^^ and any other printable stand for themselves
		return c, 1, nil
	}
}
