package value

import (
	"strings"
	"sync"
)

// Sym is an interned canonical spelling; words compare equal when their Syms
// do. The zero Sym names nothing.
type Sym uint

type symbols struct {
	sync.RWMutex
	strings []string
	symbols map[string]Sym
}

var symtab symbols

func (sym *symbols) string(id Sym) string {
	sym.RLock()
	defer sym.RUnlock()
	if i := int(id) - 1; i >= 0 && i < len(sym.strings) {
		return sym.strings[i]
	}
	return ""
}

func (sym *symbols) symbol(s string) Sym {
	sym.RLock()
	defer sym.RUnlock()
	return sym.symbols[s]
}

func (sym *symbols) symbolicate(s string) (id Sym) {
	if id = sym.symbol(s); id != 0 {
		return id
	}
	sym.Lock()
	defer sym.Unlock()
	id, defined := sym.symbols[s]
	if !defined {
		if sym.symbols == nil {
			sym.symbols = make(map[string]Sym)
		}
		id = Sym(len(sym.strings)) + 1
		sym.strings = append(sym.strings, s)
		sym.symbols[s] = id
	}
	return id
}

// Canon folds a spelling to its canonical form.
func Canon(spelling string) string { return strings.ToLower(spelling) }

// Intern returns the Sym for the canonical form of spelling, allocating one
// on first use.
func Intern(spelling string) Sym { return symtab.symbolicate(Canon(spelling)) }

// Lookup returns the Sym for spelling if it was ever interned, or 0.
func Lookup(spelling string) Sym { return symtab.symbol(Canon(spelling)) }

// String returns the canonical spelling of the symbol.
func (id Sym) String() string { return symtab.string(id) }
