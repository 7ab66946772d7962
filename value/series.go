package value

import (
	"errors"
	"sync/atomic"
)

// ErrLocked is returned when modifying a series that is held.
var ErrLocked = errors.New("series is locked")

// hold counts outstanding holders of a backing store; a held store refuses
// modification. Holders may be concurrent, e.g. parses sharing a rule block.
type hold struct{ n int32 }

// Hold marks the series as in use; modification fails until Release.
func (h *hold) Hold() { atomic.AddInt32(&h.n, 1) }

// Release drops one Hold.
func (h *hold) Release() { atomic.AddInt32(&h.n, -1) }

// Held reports whether any Hold is outstanding.
func (h *hold) Held() bool { return atomic.LoadInt32(&h.n) > 0 }

// Runes backs the any-string! kinds.
type Runes struct {
	hold
	R []rune
}

// Bytes backs binary!.
type Bytes struct {
	hold
	B []byte
}

// Array backs the any-array! kinds.
type Array struct {
	hold
	V []Value
}

func spliceRange(n, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	return start, end
}

// Splice replaces R[start:end] with repl.
func (s *Runes) Splice(start, end int, repl []rune) error {
	if s.Held() {
		return ErrLocked
	}
	start, end = spliceRange(len(s.R), start, end)
	out := make([]rune, 0, len(s.R)-(end-start)+len(repl))
	out = append(out, s.R[:start]...)
	out = append(out, repl...)
	s.R = append(out, s.R[end:]...)
	return nil
}

// Splice replaces B[start:end] with repl.
func (s *Bytes) Splice(start, end int, repl []byte) error {
	if s.Held() {
		return ErrLocked
	}
	start, end = spliceRange(len(s.B), start, end)
	out := make([]byte, 0, len(s.B)-(end-start)+len(repl))
	out = append(out, s.B[:start]...)
	out = append(out, repl...)
	s.B = append(out, s.B[end:]...)
	return nil
}

// Splice replaces V[start:end] with repl.
func (s *Array) Splice(start, end int, repl []Value) error {
	if s.Held() {
		return ErrLocked
	}
	start, end = spliceRange(len(s.V), start, end)
	out := make([]Value, 0, len(s.V)-(end-start)+len(repl))
	out = append(out, s.V[:start]...)
	out = append(out, repl...)
	s.V = append(out, s.V[end:]...)
	return nil
}

// Series is a positioned view of a backing store.
type Series interface {
	Value
	// Pos is the index of the view; it may exceed Length after the backing
	// store shrank.
	Pos() int
	// Length is the length of the whole backing store.
	Length() int
	// At returns the same series viewed at index.
	At(index int) Series
}

// String is any of the any-string! kinds.
type String struct {
	K     Kind
	S     *Runes
	Index int
}

// Binary is a byte string.
type Binary struct {
	B     *Bytes
	Index int
}

// Block is any of the any-array! kinds.
type Block struct {
	K     Kind
	A     *Array
	Index int
}

// NewString returns a string! holding s.
func NewString(s string) String { return NewTypedString(KindString, s) }

// NewTypedString returns an any-string! of kind k holding s.
func NewTypedString(k Kind, s string) String {
	return String{K: k, S: &Runes{R: []rune(s)}}
}

// NewBinary returns a binary! holding a copy of b.
func NewBinary(b []byte) Binary {
	return Binary{B: &Bytes{B: append([]byte(nil), b...)}}
}

// NewBlock returns a block! holding vals.
func NewBlock(vals ...Value) Block { return NewArray(KindBlock, vals...) }

// NewArray returns an any-array! of kind k holding vals.
func NewArray(k Kind, vals ...Value) Block {
	return Block{K: k, A: &Array{V: append([]Value(nil), vals...)}}
}

func (s String) Kind() Kind          { return s.K }
func (s String) Pos() int            { return s.Index }
func (s String) Length() int         { return len(s.S.R) }
func (s String) At(index int) Series { s.Index = index; return s }

// Runes returns the characters from the series position to its tail.
func (s String) Runes() []rune {
	if s.Index >= len(s.S.R) {
		return nil
	}
	return s.S.R[s.Index:]
}

// Text returns the characters from the series position as a Go string.
func (s String) Text() string { return string(s.Runes()) }

func (b Binary) Kind() Kind          { return KindBinary }
func (b Binary) Pos() int            { return b.Index }
func (b Binary) Length() int         { return len(b.B.B) }
func (b Binary) At(index int) Series { b.Index = index; return b }

// Bytes returns the bytes from the series position to its tail.
func (b Binary) Bytes() []byte {
	if b.Index >= len(b.B.B) {
		return nil
	}
	return b.B.B[b.Index:]
}

func (b Block) Kind() Kind          { return b.K }
func (b Block) Pos() int            { return b.Index }
func (b Block) Length() int         { return len(b.A.V) }
func (b Block) At(index int) Series { b.Index = index; return b }

// Values returns the elements from the series position to its tail.
func (b Block) Values() []Value {
	if b.Index >= len(b.A.V) {
		return nil
	}
	return b.A.V[b.Index:]
}

// As returns the same array viewed as another any-array! kind.
func (b Block) As(k Kind) Block {
	b.K = k
	return b
}

// SameSeries reports whether a and b view the same backing store.
func SameSeries(a, b Series) bool {
	switch a := a.(type) {
	case String:
		b, ok := b.(String)
		return ok && a.S == b.S
	case Binary:
		b, ok := b.(Binary)
		return ok && a.B == b.B
	case Block:
		b, ok := b.(Block)
		return ok && a.A == b.A
	}
	return false
}

// Copy returns a shallow copy of s from its position to its tail, in a new
// backing store.
func Copy(s Series) Series {
	switch s := s.(type) {
	case String:
		return String{K: s.K, S: &Runes{R: append([]rune(nil), s.Runes()...)}}
	case Binary:
		return NewBinary(s.Bytes())
	case Block:
		return NewArray(s.K, s.Values()...)
	}
	return s
}

// HoldDeep holds an array and every series reachable from it: nested
// arrays, strings and binaries. The returned function releases them all.
func HoldDeep(b Block) (release func()) {
	type holder interface {
		Hold()
		Release()
	}
	held := make(map[holder]struct{})
	take := func(h holder) bool {
		if _, ok := held[h]; ok {
			return false
		}
		h.Hold()
		held[h] = struct{}{}
		return true
	}
	var walk func(a *Array)
	walk = func(a *Array) {
		if !take(a) {
			return
		}
		for _, v := range a.V {
			switch v := v.(type) {
			case Block:
				walk(v.A)
			case String:
				take(v.S)
			case Binary:
				take(v.B)
			}
		}
	}
	walk(b.A)
	return func() {
		for h := range held {
			h.Release()
		}
	}
}
