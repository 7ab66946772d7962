package value

import (
	"unicode"

	"golang.org/x/tools/container/intsets"
)

// Bitset is a set of code points (or bytes when matched against binary
// input). A negated bitset holds the complement of its members.
type Bitset struct {
	bits    *intsets.Sparse
	Negated bool
}

// NewBitset returns an empty bitset.
func NewBitset() Bitset { return Bitset{bits: new(intsets.Sparse)} }

// Kind returns KindBitset.
func (Bitset) Kind() Kind { return KindBitset }

// Set adds r to the bitset's underlying members.
func (bs Bitset) Set(r rune) { bs.bits.Insert(int(r)) }

// SetRange adds every code point in [lo, hi].
func (bs Bitset) SetRange(lo, hi rune) {
	if lo > hi {
		return
	}
	for r := lo; r < hi; r++ {
		bs.bits.Insert(int(r))
	}
	bs.bits.Insert(int(hi))
}

// SetString adds every code point of s.
func (bs Bitset) SetString(s string) {
	for _, r := range s {
		bs.bits.Insert(int(r))
	}
}

// Has reports whether r is in the set.
func (bs Bitset) Has(r rune) bool {
	if bs.bits == nil {
		return bs.Negated
	}
	return bs.bits.Has(int(r)) != bs.Negated
}

// HasFold reports whether r is in the set ignoring case. A negated set
// excludes r when any case variant of r is among its members.
func (bs Bitset) HasFold(r rune) bool {
	member := func(r rune) bool { return bs.bits != nil && bs.bits.Has(int(r)) }
	in := member(r)
	if u := unicode.ToUpper(r); !in && u != r {
		in = member(u)
	}
	if l := unicode.ToLower(r); !in && l != r {
		in = member(l)
	}
	return in != bs.Negated
}

// Complement returns a bitset holding the complement of bs; the members are
// shared.
func (bs Bitset) Complement() Bitset {
	bs.Negated = !bs.Negated
	return bs
}

// Members returns the underlying members in ascending order.
func (bs Bitset) Members() []rune {
	if bs.bits == nil {
		return nil
	}
	ints := bs.bits.AppendTo(nil)
	runes := make([]rune, len(ints))
	for i, n := range ints {
		runes[i] = rune(n)
	}
	return runes
}

// EqualBitset reports whether a and b hold the same set.
func EqualBitset(a, b Bitset) bool {
	if a.Negated != b.Negated {
		return false
	}
	switch {
	case a.bits == nil && b.bits == nil:
		return true
	case a.bits == nil:
		return b.bits.IsEmpty()
	case b.bits == nil:
		return a.bits.IsEmpty()
	}
	return a.bits.Equals(b.bits)
}
