package parse

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/zsx/r3-sub004/value"
)

// notFound is the position of a failed match.
const notFound = -1

type inputKind uint8

const (
	inputArray inputKind = iota + 1
	inputString
	inputBinary
)

func (k inputKind) String() string {
	switch k {
	case inputArray:
		return "array"
	case inputString:
		return "string"
	case inputBinary:
		return "binary"
	}
	return "#[input?]"
}

func kindOf(s value.Series) inputKind {
	switch s.(type) {
	case value.Block:
		return inputArray
	case value.String:
		return inputString
	case value.Binary:
		return inputBinary
	}
	return 0
}

// cursor is the sole mutable state of a parse; nested subparses share it by
// pointer, and a copy of the struct is a snapshot to restore on failure.
type cursor struct {
	series        value.Series
	kind          inputKind
	pos           int
	caseSensitive bool
	limit         int
}

func newCursor(s value.Series, caseSensitive bool, limit int) *cursor {
	in := &cursor{
		series:        s,
		kind:          kindOf(s),
		pos:           s.Pos(),
		caseSensitive: caseSensitive || kindOf(s) == inputBinary,
		limit:         limit,
	}
	in.clamp()
	return in
}

func (in *cursor) length() int { return in.series.Length() }

func (in *cursor) atEnd() bool { return in.pos >= in.length() }

// clamp keeps the position within the series after any mutation or seek.
func (in *cursor) clamp() {
	if n := in.length(); in.pos > n {
		in.pos = n
	} else if in.pos < 0 {
		in.pos = 0
	}
}

func (in *cursor) runes() []rune         { return in.series.(value.String).S.R }
func (in *cursor) bytes() []byte         { return in.series.(value.Binary).B.B }
func (in *cursor) values() []value.Value { return in.series.(value.Block).A.V }

// here returns the input series viewed at the current position.
func (in *cursor) here() value.Series { return in.series.At(in.pos) }

// peek returns the element at pos: a value for arrays, a Char for strings,
// an Integer for binaries. Returns nil at end of input.
func (in *cursor) peek(pos int) value.Value {
	if pos < 0 || pos >= in.length() {
		return nil
	}
	switch in.kind {
	case inputString:
		return value.Char(in.runes()[pos])
	case inputBinary:
		return value.Integer(in.bytes()[pos])
	}
	return in.values()[pos]
}

func (in *cursor) advance(n int) {
	in.pos += n
	in.clamp()
}

// seek rebinds the cursor to s, which must be of the same class of series.
func (in *cursor) seek(s value.Series) bool {
	if kindOf(s) != in.kind {
		return false
	}
	in.series = s
	in.pos = s.Pos()
	in.clamp()
	return true
}

// slice copies [start, end) into a new series of the input's kind.
func (in *cursor) slice(start, end int) value.Series {
	if n := in.length(); end > n {
		end = n
	}
	if start > end {
		start = end
	}
	switch s := in.series.(type) {
	case value.String:
		return value.NewTypedString(s.K, string(in.runes()[start:end]))
	case value.Binary:
		return value.NewBinary(in.bytes()[start:end])
	case value.Block:
		return value.NewArray(s.K, in.values()[start:end]...)
	}
	return nil
}

// first returns the element at start as captured by set: blank for an empty
// span, a Char from strings and an Integer from binaries.
func (in *cursor) first(start, end int) value.Value {
	if end <= start {
		return value.Blank{}
	}
	return in.peek(start)
}

// splice replaces [start, end) with the elements of repl and returns how many
// were inserted. A block repl is spliced element-wise into arrays unless
// only; any other value is inserted as one element.
func (in *cursor) splice(start, end int, repl value.Value, only bool) (int, error) {
	n := in.length()
	switch in.kind {
	case inputString:
		rs := []rune(formInsert(repl))
		if err := in.checkLimit(n - (end - start) + len(rs)); err != nil {
			return 0, err
		}
		return len(rs), in.series.(value.String).S.Splice(start, end, rs)
	case inputBinary:
		bs := binaryInsert(repl)
		if err := in.checkLimit(n - (end - start) + len(bs)); err != nil {
			return 0, err
		}
		return len(bs), in.series.(value.Binary).B.Splice(start, end, bs)
	}
	var vals []value.Value
	if b, ok := repl.(value.Block); ok && b.K == value.KindBlock && !only {
		vals = b.Values()
	} else if repl != nil {
		vals = []value.Value{repl}
	}
	if err := in.checkLimit(n - (end - start) + len(vals)); err != nil {
		return 0, err
	}
	return len(vals), in.series.(value.Block).A.Splice(start, end, vals)
}

func (in *cursor) checkLimit(size int) error {
	if in.limit > 0 && size > in.limit {
		return LimitError{Limit: in.limit, Size: size}
	}
	return nil
}

// formInsert is the text inserted into a string for v; blocks join the forms
// of their elements.
func formInsert(v value.Value) string {
	switch v := v.(type) {
	case nil, value.Blank:
		return ""
	case value.Block:
		if v.K == value.KindBlock {
			var sb strings.Builder
			for _, elem := range v.Values() {
				sb.WriteString(formInsert(elem))
			}
			return sb.String()
		}
	case value.Binary:
		return string(v.Bytes())
	}
	return value.Form(v)
}

func binaryInsert(v value.Value) []byte {
	switch v := v.(type) {
	case nil, value.Blank:
		return nil
	case value.Binary:
		return v.Bytes()
	case value.Integer:
		return []byte{byte(v)}
	case value.Char:
		var buf [utf8.UTFMax]byte
		return buf[:utf8.EncodeRune(buf[:], rune(v))]
	case value.Block:
		if v.K == value.KindBlock {
			var out []byte
			for _, elem := range v.Values() {
				out = append(out, binaryInsert(elem)...)
			}
			return out
		}
	}
	return []byte(value.Form(v))
}

// find scans forward from pos for the first index at which match succeeds;
// returns that index and the end of the match, or notFound.
func (in *cursor) find(pos int, match func(at int) int) (int, int) {
	for ; pos <= in.length(); pos++ {
		if end := match(pos); end != notFound {
			return pos, end
		}
	}
	return notFound, notFound
}

// findRunes is the fast path of find for a literal text pattern.
func (in *cursor) findRunes(pos int, pat []rune) (int, int) {
	rs := in.runes()
	for ; pos+len(pat) <= len(rs); pos++ {
		if value.HasPrefixRunes(rs[pos:], pat, in.caseSensitive) {
			return pos, pos + len(pat)
		}
	}
	return notFound, notFound
}

// findBytes is the fast path of find for a literal byte pattern.
func (in *cursor) findBytes(pos int, pat []byte) (int, int) {
	if pos > len(in.bytes()) {
		return notFound, notFound
	}
	if i := bytes.Index(in.bytes()[pos:], pat); i >= 0 {
		return pos + i, pos + i + len(pat)
	}
	return notFound, notFound
}
