// Package load scans source text into values.
package load

import (
	"io"

	"github.com/zsx/r3-sub004/internal/fileinput"
	"github.com/zsx/r3-sub004/value"
)

// String scans src, naming it name in error locations, and returns its
// values as a block.
func String(name, src string) (value.Block, error) {
	return scan(fileinput.NewString(name, src))
}

// Reader scans everything readable from r.
func Reader(name string, r io.Reader) (value.Block, error) {
	return scan(&fileinput.Input{Queue: []io.Reader{fileinput.Named(name, r)}})
}

// MustString is like String but panics on error; for static sources.
func MustString(src string) value.Block {
	blk, err := String("<static>", src)
	if err != nil {
		panic(err)
	}
	return blk
}

func scan(in *fileinput.Input) (blk value.Block, err error) {
	sc := scanner{in: in}
	defer func() {
		if e := recover(); e != nil {
			se, ok := e.(*SyntaxError)
			if !ok {
				panic(e)
			}
			err = se
		}
	}()
	return sc.scanArray(value.KindBlock, 0), nil
}
