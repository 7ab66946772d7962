package parse

import "github.com/zsx/r3-sub004/value"

// keyword is a reserved rule word, recognized by canonical symbol.
type keyword uint8

const (
	kwNone keyword = iota

	// iteration
	kwSome
	kwAny
	kwWhile
	kwOpt

	// capture
	kwCopy
	kwSet

	// negation and lookahead
	kwNot
	kwAhead
	kwAnd
	kwThen

	// mutation
	kwRemove
	kwInsert
	kwChange

	// control
	kwReturn
	kwAccept
	kwBreak
	kwReject
	kwFail
	kwIf
	kwLimit
	kwDiag

	// matching commands, usable as an iterated subject
	kwSkip
	kwEnd
	kwTo
	kwThru
	kwQuote
	kwInto
	kwDo

	kwMax
)

var keywordNames = [kwMax]string{
	kwSome:   "some",
	kwAny:    "any",
	kwWhile:  "while",
	kwOpt:    "opt",
	kwCopy:   "copy",
	kwSet:    "set",
	kwNot:    "not",
	kwAhead:  "ahead",
	kwAnd:    "and",
	kwThen:   "then",
	kwRemove: "remove",
	kwInsert: "insert",
	kwChange: "change",
	kwReturn: "return",
	kwAccept: "accept",
	kwBreak:  "break",
	kwReject: "reject",
	kwFail:   "fail",
	kwIf:     "if",
	kwLimit:  "limit",
	kwDiag:   "??",
	kwSkip:   "skip",
	kwEnd:    "end",
	kwTo:     "to",
	kwThru:   "thru",
	kwQuote:  "quote",
	kwInto:   "into",
	kwDo:     "do",
}

var (
	keywordSyms = make(map[value.Sym]keyword, kwMax)
	symOnly     = value.Intern("only")
)

func init() {
	for kw := kwSome; kw < kwMax; kw++ {
		keywordSyms[value.Intern(keywordNames[kw])] = kw
	}
}

func (kw keyword) String() string {
	if kw > kwNone && kw < kwMax {
		return keywordNames[kw]
	}
	return "#[keyword?]"
}

// isMatch reports whether kw is a matching command rather than a modifier.
func (kw keyword) isMatch() bool { return kw >= kwSkip && kw < kwMax }

// spelledKeyword returns the keyword spelled by any word kind.
func spelledKeyword(w value.Word) keyword { return keywordSyms[w.Sym] }

// keywordOf returns the keyword named by a plain word rule, or kwNone.
func keywordOf(v value.Value) keyword {
	if w, ok := v.(value.Word); ok && w.K == value.KindWord {
		return keywordSyms[w.Sym]
	}
	return kwNone
}

// IsKeyword reports whether spelling names a rule keyword.
func IsKeyword(spelling string) bool {
	_, ok := keywordSyms[value.Lookup(spelling)]
	return ok
}

func isOnly(v value.Value) bool {
	w, ok := v.(value.Word)
	return ok && w.K == value.KindWord && w.Sym == symOnly
}
