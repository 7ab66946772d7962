package value

import (
	"bytes"
	"unicode"
)

// Equal reports whether a and b are structurally equal. Series compare from
// their positions; any-string! and char! comparisons fold case unless
// caseSensitive; words compare by canonical symbol.
func Equal(a, b Value, caseSensitive bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Char:
		return EqualRune(rune(a), rune(b.(Char)), caseSensitive)
	case Word:
		b := b.(Word)
		if caseSensitive {
			return a.Spelling == b.Spelling
		}
		return a.Sym == b.Sym
	case String:
		return EqualRunes(a.Runes(), b.(String).Runes(), caseSensitive)
	case Binary:
		return bytes.Equal(a.Bytes(), b.(Binary).Bytes())
	case Block:
		av, bv := a.Values(), b.(Block).Values()
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i], caseSensitive) {
				return false
			}
		}
		return true
	case Bitset:
		return EqualBitset(a, b.(Bitset))
	case Typeset:
		return a.bits == b.(Typeset).bits
	}
	return a == b
}

// EqualRune compares two code points, folding case unless caseSensitive.
func EqualRune(a, b rune, caseSensitive bool) bool {
	if a == b {
		return true
	}
	return !caseSensitive && unicode.ToLower(a) == unicode.ToLower(b)
}

// EqualRunes compares two code point sequences.
func EqualRunes(a, b []rune, caseSensitive bool) bool {
	if len(a) != len(b) {
		return false
	}
	return HasPrefixRunes(a, b, caseSensitive)
}

// HasPrefixRunes reports whether s begins with prefix.
func HasPrefixRunes(s, prefix []rune, caseSensitive bool) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if !EqualRune(s[i], r, caseSensitive) {
			return false
		}
	}
	return true
}
