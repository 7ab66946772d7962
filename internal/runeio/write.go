package runeio

import (
	"io"
	"strings"
)

// Escape returns s with every control rune in caret form, and with quote
// (when non-zero) written as ^quote.
func Escape(s string, quote rune) string {
	var sb strings.Builder
	WriteEscaped(&sb, s, quote)
	return sb.String()
}

// WriteEscaped writes s to w, caret-escaping control runes and quote.
func WriteEscaped(w io.StringWriter, s string, quote rune) (n int, err error) {
	for _, r := range s {
		var part string
		if quote != 0 && r == quote {
			part = "^" + string(r)
		} else if caret := CaretForm(r); caret != "" {
			part = caret
		} else {
			part = string(r)
		}
		m, err := w.WriteString(part)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
