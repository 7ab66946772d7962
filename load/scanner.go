package load

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/zsx/r3-sub004/internal/fileinput"
	"github.com/zsx/r3-sub004/internal/runeio"
	"github.com/zsx/r3-sub004/value"
)

// SyntaxError locates a failure to scan source text.
type SyntaxError struct {
	Loc  fileinput.Location
	Line string
	Err  error
}

func (se *SyntaxError) Error() string {
	if se.Line != "" {
		return fmt.Sprintf("%v: %v (near %q)", se.Loc, se.Err, se.Line)
	}
	return fmt.Sprintf("%v: %v", se.Loc, se.Err)
}

func (se *SyntaxError) Unwrap() error { return se.Err }

// Scan failures, wrapped in *SyntaxError.
var (
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	ErrUnbalanced    = errors.New("unbalanced closing delimiter")
	ErrBadHex        = errors.New("invalid binary digits")
	ErrBadChar       = errors.New("invalid char literal")
	ErrBadToken      = errors.New("invalid token")
)

type scanned struct {
	r   rune
	loc fileinput.Location
}

type scanner struct {
	in  *fileinput.Input
	la  []scanned
	eof bool
	loc fileinput.Location
}

func (sc *scanner) fill(n int) bool {
	for len(sc.la) < n && !sc.eof {
		r, _, err := sc.in.ReadRune()
		if err == io.EOF {
			sc.eof = true
			break
		} else if err != nil {
			sc.fail(err)
		}
		sc.la = append(sc.la, scanned{r, sc.in.Location()})
	}
	return len(sc.la) >= n
}

// peek returns the rune i places ahead, or -1 at end of input.
func (sc *scanner) peek(i int) rune {
	if !sc.fill(i + 1) {
		return -1
	}
	return sc.la[i].r
}

func (sc *scanner) next() rune {
	if !sc.fill(1) {
		return -1
	}
	s := sc.la[0]
	sc.la = sc.la[1:]
	sc.loc = s.loc
	return s.r
}

func (sc *scanner) fail(err error) {
	line := strings.TrimSpace(sc.in.Scan.Buffer.String())
	panic(&SyntaxError{Loc: sc.loc, Line: line, Err: err})
}

func (sc *scanner) failf(mess string, args ...interface{}) {
	sc.fail(fmt.Errorf("%w: "+mess, append([]interface{}{ErrBadToken}, args...)...))
}

func isDelim(r rune) bool {
	switch r {
	case -1, '[', ']', '(', ')', '"', '{', '}', ';':
		return true
	}
	return unicode.IsSpace(r)
}

func (sc *scanner) skipSpace() {
	for {
		switch r := sc.peek(0); {
		case r == ';':
			for r != '\n' && r != -1 {
				r = sc.next()
			}
		case r != -1 && unicode.IsSpace(r):
			sc.next()
		default:
			return
		}
	}
}

// scanArray reads values until close (or end of input when close is 0).
func (sc *scanner) scanArray(k value.Kind, close rune) value.Block {
	var vals []value.Value
	for {
		sc.skipSpace()
		switch r := sc.peek(0); r {
		case -1:
			if close != 0 {
				sc.next()
				sc.fail(fmt.Errorf("%w: missing %q", ErrUnexpectedEOF, close))
			}
			return value.NewArray(k, vals...)
		case ']', ')':
			sc.next()
			if r != close {
				sc.fail(fmt.Errorf("%w %q", ErrUnbalanced, r))
			}
			return value.NewArray(k, vals...)
		}
		vals = append(vals, sc.scanValue())
	}
}

func (sc *scanner) scanValue() value.Value {
	switch r := sc.peek(0); r {
	case '[':
		sc.next()
		return sc.scanArray(value.KindBlock, ']')
	case '(':
		sc.next()
		return sc.scanArray(value.KindGroup, ')')
	case '"':
		sc.next()
		return value.NewString(sc.scanQuoted())
	case '{':
		sc.next()
		return value.NewString(sc.scanBraced())
	case '}':
		sc.next()
		sc.fail(fmt.Errorf("%w %q", ErrUnbalanced, r))
	case '#':
		return sc.scanHash()
	case '%':
		sc.next()
		if sc.peek(0) == '"' {
			sc.next()
			return value.NewTypedString(value.KindFile, sc.scanQuoted())
		}
		return value.NewTypedString(value.KindFile, sc.scanRun())
	case '<':
		if tag, ok := sc.scanTag(); ok {
			return tag
		}
	}
	return sc.scanWordish()
}

func (sc *scanner) scanEscape(sb *strings.Builder) {
	var src []rune
	for i := 0; ; i++ {
		r := sc.peek(i)
		if r == -1 {
			break
		}
		src = append(src, r)
		if i == 0 && r != '(' || r == ')' {
			break
		}
	}
	r, n, err := runeio.Unescape(src)
	if err != nil {
		sc.next()
		sc.fail(err)
	}
	for ; n > 0; n-- {
		sc.next()
	}
	sb.WriteRune(r)
}

func (sc *scanner) scanQuoted() string {
	var sb strings.Builder
	for {
		switch r := sc.next(); r {
		case -1, '\n':
			sc.fail(fmt.Errorf("%w: unterminated string", ErrUnexpectedEOF))
		case '"':
			return sb.String()
		case '^':
			sc.scanEscape(&sb)
		default:
			sb.WriteRune(r)
		}
	}
}

func (sc *scanner) scanBraced() string {
	var sb strings.Builder
	depth := 1
	for {
		switch r := sc.next(); r {
		case -1:
			sc.fail(fmt.Errorf("%w: unterminated string", ErrUnexpectedEOF))
		case '^':
			sc.scanEscape(&sb)
		case '{':
			depth++
			sb.WriteRune(r)
		case '}':
			if depth--; depth == 0 {
				return sb.String()
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
}

func (sc *scanner) scanHash() value.Value {
	sc.next()
	switch sc.peek(0) {
	case '"':
		sc.next()
		s := []rune(sc.scanQuoted())
		if len(s) != 1 {
			sc.fail(fmt.Errorf("%w #%q", ErrBadChar, string(s)))
		}
		return value.Char(s[0])
	case '{':
		sc.next()
		var hex strings.Builder
		for {
			r := sc.next()
			if r == '}' {
				break
			}
			if r == -1 {
				sc.fail(fmt.Errorf("%w: unterminated binary", ErrUnexpectedEOF))
			}
			if unicode.IsSpace(r) {
				continue
			}
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				sc.fail(fmt.Errorf("%w %q", ErrBadHex, r))
			}
			hex.WriteRune(r)
		}
		h := hex.String()
		if len(h)%2 != 0 {
			sc.fail(fmt.Errorf("%w: odd digit count", ErrBadHex))
		}
		b := make([]byte, len(h)/2)
		for i := range b {
			n, _ := strconv.ParseUint(h[2*i:2*i+2], 16, 8)
			b[i] = byte(n)
		}
		return value.NewBinary(b)
	}
	sc.failf("#%v", sc.scanRun())
	return nil
}

// scanTag reads <...>; it declines when the < begins an operator word such
// as < <= or <>.
func (sc *scanner) scanTag() (value.Value, bool) {
	switch r := sc.peek(1); {
	case isDelim(r) || r == '=' || r == '>' || r == '<':
		return nil, false
	}
	sc.next()
	var sb strings.Builder
	for {
		switch r := sc.next(); r {
		case -1:
			sc.fail(fmt.Errorf("%w: unterminated tag", ErrUnexpectedEOF))
		case '>':
			return value.NewTypedString(value.KindTag, sb.String()), true
		default:
			sb.WriteRune(r)
		}
	}
}

// scanRun reads runes up to the next delimiter.
func (sc *scanner) scanRun() string {
	var sb strings.Builder
	for r := sc.peek(0); !isDelim(r); r = sc.peek(0) {
		sb.WriteRune(sc.next())
	}
	return sb.String()
}

// scanSegment reads runes up to the next delimiter or path separator.
func (sc *scanner) scanSegment() string {
	var sb strings.Builder
	for r := sc.peek(0); !isDelim(r) && r != '/'; r = sc.peek(0) {
		sb.WriteRune(sc.next())
	}
	return sb.String()
}

func (sc *scanner) scanWordish() value.Value {
	prefix := value.KindWord
	switch sc.peek(0) {
	case '\'':
		prefix = value.KindLitWord
		sc.next()
	case ':':
		prefix = value.KindGetWord
		sc.next()
	case '/':
		run := sc.scanRun()
		if strings.Trim(run, "/") == "" {
			return value.NewWord(value.KindWord, run)
		}
		return value.NewWord(value.KindRefinement, run[1:])
	}

	first := sc.scanSegment()
	if first == "" {
		sc.failf("unexpected %q", string(sc.next()))
	}
	if sc.peek(0) != '/' {
		return sc.classify(prefix, first)
	}

	segs := []value.Value{sc.segment(first)}
	set := false
	for sc.peek(0) == '/' {
		sc.next()
		if sc.peek(0) == '(' {
			sc.next()
			segs = append(segs, sc.scanArray(value.KindGroup, ')'))
			continue
		}
		seg := sc.scanSegment()
		if sc.peek(0) != '/' && len(seg) > 1 && strings.HasSuffix(seg, ":") {
			set = true
			seg = seg[:len(seg)-1]
		}
		if seg == "" {
			sc.failf("empty path segment")
		}
		segs = append(segs, sc.segment(seg))
	}

	k := value.KindPath
	if set {
		k = value.KindSetPath
	}
	switch prefix {
	case value.KindLitWord:
		k = value.KindLitPath
	case value.KindGetWord:
		k = value.KindGetPath
	}
	return value.NewArray(k, segs...)
}

func (sc *scanner) segment(s string) value.Value {
	if n, ok := parseInteger(s); ok {
		return n
	}
	if strings.ContainsAny(s, ":@") {
		sc.failf("path segment %q", s)
	}
	return value.NewWord(value.KindWord, s)
}

func (sc *scanner) classify(prefix value.Kind, s string) value.Value {
	if prefix == value.KindWord {
		if n, ok := parseInteger(s); ok {
			return n
		}
		switch {
		case s == "_":
			return value.Blank{}
		case s == "|":
			return value.Bar{}
		case strings.IndexByte(s, '@') > 0:
			return value.NewTypedString(value.KindEmail, s)
		case len(s) > 1 && strings.HasSuffix(s, ":"):
			prefix = value.KindSetWord
			s = s[:len(s)-1]
		}
	}
	if strings.ContainsAny(s, ":@") || s[0] >= '0' && s[0] <= '9' {
		sc.failf("%q", s)
	}
	return value.NewWord(prefix, s)
}

func parseInteger(s string) (value.Integer, bool) {
	digits := strings.TrimLeft(s, "+-")
	if digits == "" || len(s)-len(digits) > 1 {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return value.Integer(n), true
}
