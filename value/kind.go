package value

// Kind identifies the datatype of a Value.
type Kind uint8

// Kinds in datatype order; the ordering groups the series classes so that
// the class predicates below are range checks.
const (
	KindBlank Kind = iota + 1
	KindLogic
	KindInteger
	KindChar

	// any-string!
	KindString
	KindFile
	KindEmail
	KindTag

	KindBinary
	KindBitset

	// any-array!
	KindBlock
	KindGroup
	KindPath
	KindSetPath
	KindGetPath
	KindLitPath

	// any-word!
	KindWord
	KindSetWord
	KindGetWord
	KindLitWord
	KindRefinement

	KindBar
	KindDatatype
	KindTypeset
	KindAction

	kindMax
)

var kindNames = [kindMax]string{
	KindBlank:      "blank!",
	KindLogic:      "logic!",
	KindInteger:    "integer!",
	KindChar:       "char!",
	KindString:     "string!",
	KindFile:       "file!",
	KindEmail:      "email!",
	KindTag:        "tag!",
	KindBinary:     "binary!",
	KindBitset:     "bitset!",
	KindBlock:      "block!",
	KindGroup:      "group!",
	KindPath:       "path!",
	KindSetPath:    "set-path!",
	KindGetPath:    "get-path!",
	KindLitPath:    "lit-path!",
	KindWord:       "word!",
	KindSetWord:    "set-word!",
	KindGetWord:    "get-word!",
	KindLitWord:    "lit-word!",
	KindRefinement: "refinement!",
	KindBar:        "bar!",
	KindDatatype:   "datatype!",
	KindTypeset:    "typeset!",
	KindAction:     "action!",
}

func (k Kind) String() string {
	if k > 0 && k < kindMax {
		return kindNames[k]
	}
	return "#[kind?]"
}

// Kinds returns every defined kind in datatype order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindMax-1)
	for k := KindBlank; k < kindMax; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsString reports whether k is one of the any-string! kinds.
func (k Kind) IsString() bool { return k >= KindString && k <= KindTag }

// IsArray reports whether k is one of the any-array! kinds.
func (k Kind) IsArray() bool { return k >= KindBlock && k <= KindLitPath }

// IsPath reports whether k is one of the any-path! kinds.
func (k Kind) IsPath() bool { return k >= KindPath && k <= KindLitPath }

// IsWord reports whether k is one of the any-word! kinds.
func (k Kind) IsWord() bool { return k >= KindWord && k <= KindRefinement }

// IsSeries reports whether values of kind k are positioned series.
func (k Kind) IsSeries() bool { return k.IsString() || k == KindBinary || k.IsArray() }
