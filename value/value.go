package value

import "fmt"

// Value is any datum the interpreter can hold; the concrete types in this
// package form a closed sum switched on by type or by Kind.
type Value interface {
	Kind() Kind
}

// Blank is the unit value, spelled _ in source.
type Blank struct{}

// Bar is the alternative separator |.
type Bar struct{}

// Logic is a boolean.
type Logic bool

// Integer is a 64-bit signed integer.
type Integer int64

// Char is a single Unicode code point.
type Char rune

// Datatype is a first-class kind, spelled like integer!.
type Datatype struct{ T Kind }

func (Blank) Kind() Kind    { return KindBlank }
func (Bar) Kind() Kind      { return KindBar }
func (Logic) Kind() Kind    { return KindLogic }
func (Integer) Kind() Kind  { return KindInteger }
func (Char) Kind() Kind     { return KindChar }
func (Datatype) Kind() Kind { return KindDatatype }

// Word is any of the word kinds, carrying its spelling as written and the
// canonical symbol it compares by.
type Word struct {
	K        Kind
	Spelling string
	Sym      Sym
}

// NewWord returns a word of kind k spelled s.
func NewWord(k Kind, s string) Word { return Word{K: k, Spelling: s, Sym: Intern(s)} }

// Kind returns the word's kind.
func (w Word) Kind() Kind { return w.K }

// As returns the same spelling as a word of another kind.
func (w Word) As(k Kind) Word {
	w.K = k
	return w
}

// Typeset is a named set of kinds.
type Typeset struct {
	Name string
	bits uint64
}

// NewTypeset returns a typeset holding kinds.
func NewTypeset(name string, kinds ...Kind) Typeset {
	ts := Typeset{Name: name}
	for _, k := range kinds {
		ts.bits |= 1 << uint(k)
	}
	return ts
}

// Kind returns KindTypeset.
func (Typeset) Kind() Kind { return KindTypeset }

// Has reports whether k is a member of the typeset.
func (ts Typeset) Has(k Kind) bool { return ts.bits&(1<<uint(k)) != 0 }

// Standard typesets.
var (
	AnyString = NewTypeset("any-string!", KindString, KindFile, KindEmail, KindTag)
	AnyWord   = NewTypeset("any-word!", KindWord, KindSetWord, KindGetWord, KindLitWord, KindRefinement)
	AnyPath   = NewTypeset("any-path!", KindPath, KindSetPath, KindGetPath, KindLitPath)
	AnyArray  = NewTypeset("any-array!", KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath, KindLitPath)
	AnySeries = NewTypeset("any-series!", KindString, KindFile, KindEmail, KindTag, KindBinary,
		KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath, KindLitPath)
	AnyNumber = NewTypeset("any-number!", KindInteger)
	AnyScalar = NewTypeset("any-scalar!", KindInteger, KindChar, KindLogic)
	AnyValue  = NewTypeset("any-value!", Kinds()...)
)

// Typesets lists the standard typesets.
func Typesets() []Typeset {
	return []Typeset{AnyString, AnyWord, AnyPath, AnyArray, AnySeries, AnyNumber, AnyScalar, AnyValue}
}

// Thrown is a value in flight through a non-local exit raised by evaluated
// code; it travels as an error until something catches it.
type Thrown struct {
	Value Value
	Name  Value
}

func (t *Thrown) Error() string {
	if t.Name != nil {
		return fmt.Sprintf("no catch for throw: %v /name %v", Mold(t.Value), Mold(t.Name))
	}
	return fmt.Sprintf("no catch for throw: %v", Mold(t.Value))
}

// Truthy reports whether v counts as true in a condition; only false and
// blank do not.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, Blank:
		return false
	case Logic:
		return bool(v)
	}
	return true
}

// LookupType returns the datatype or standard typeset spelled name, such as
// integer! or any-string!.
func LookupType(name string) (Value, bool) {
	for _, k := range Kinds() {
		if k.String() == name {
			return Datatype{k}, true
		}
	}
	for _, ts := range Typesets() {
		if ts.Name == name {
			return ts, true
		}
	}
	return nil, false
}
