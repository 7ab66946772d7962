// Package eval is a small evaluator for the value language, enough to run
// the expressions embedded in PARSE rules and to drive parses from source.
package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/zsx/r3-sub004/internal/flushio"
	"github.com/zsx/r3-sub004/load"
	"github.com/zsx/r3-sub004/parse"
	"github.com/zsx/r3-sub004/value"
)

// Evaluation errors.
var (
	ErrNoValue = errors.New("word has no value")
	ErrNoArg   = errors.New("missing argument")
	ErrBadArg  = errors.New("invalid argument")
	ErrBadPath = errors.New("invalid path")
	ErrMath    = errors.New("math error")
)

// Interp holds variable bindings and evaluates blocks against them. It
// implements parse.Host. An Interp is not safe for concurrent use.
type Interp struct {
	vars      map[value.Sym]value.Value
	out       flushio.WriteFlusher
	parseOpts []parse.Option
}

var _ parse.Host = (*Interp)(nil)

// New returns an Interp with the natives defined.
func New(opts ...Option) *Interp {
	in := &Interp{vars: make(map[value.Sym]value.Value)}
	defaultOptions.apply(in)
	Options(opts...).apply(in)
	in.define()
	return in
}

type evalError struct{ error }

func fail(err error) { panic(evalError{err}) }

func failf(err error, mess string, args ...interface{}) {
	panic(evalError{fmt.Errorf("%w: "+mess, append([]interface{}{err}, args...)...)})
}

func (in *Interp) guard(ctx context.Context, f func(ev *evaluator)) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			ee, ok := r.(evalError)
			if !ok {
				panic(r)
			}
			err = ee.error
		}
	}()
	f(&evaluator{Interp: in, ctx: ctx})
	return nil
}

// Get returns the value bound to w.
func (in *Interp) Get(w value.Word) (value.Value, bool) {
	if v, ok := in.vars[w.Sym]; ok {
		return v, true
	}
	return value.LookupType(w.Spelling)
}

// Set binds w to v.
func (in *Interp) Set(w value.Word, v value.Value) error {
	in.vars[w.Sym] = v
	return nil
}

// GetPath evaluates path without calling any action it reaches.
func (in *Interp) GetPath(ctx context.Context, path value.Block) (res value.Value, err error) {
	err = in.guard(ctx, func(ev *evaluator) { res = ev.getPath(path) })
	return res, err
}

// SetPath stores v at path.
func (in *Interp) SetPath(ctx context.Context, path value.Block, v value.Value) error {
	return in.guard(ctx, func(ev *evaluator) { ev.setPath(path, v) })
}

// Do evaluates every expression of the block or group b from its position,
// returning the last value. An uncaught throw is returned as a
// *value.Thrown.
func (in *Interp) Do(ctx context.Context, b value.Block) (res value.Value, err error) {
	err = in.guard(ctx, func(ev *evaluator) { res = ev.block(b) })
	return res, err
}

// DoNext evaluates the one expression at the position of b, returning its
// value and the index of the following expression.
func (in *Interp) DoNext(ctx context.Context, b value.Block) (res value.Value, next int, err error) {
	err = in.guard(ctx, func(ev *evaluator) {
		if b.Index >= len(b.A.V) {
			failf(ErrNoArg, "nothing to evaluate")
		}
		res, next = ev.expr(b.A.V, b.Index)
	})
	return res, next, err
}

// Run loads src and evaluates it.
func (in *Interp) Run(ctx context.Context, src string) (value.Value, error) {
	blk, err := load.String("run", src)
	if err != nil {
		return nil, err
	}
	res, err := in.Do(ctx, blk)
	if ferr := in.out.Flush(); err == nil {
		err = ferr
	}
	return res, err
}

// Parse runs rules against input with this Interp as the host.
func (in *Interp) Parse(ctx context.Context, input, rules value.Value, caseSensitive bool) (value.Value, error) {
	return in.parser(caseSensitive).Parse(ctx, input, rules)
}

func (in *Interp) parser(caseSensitive bool) *parse.Parser {
	return parse.New(
		parse.WithHost(in),
		parse.WithOutput(in.out),
		parse.Options(in.parseOpts...),
		parse.WithCase(caseSensitive),
	)
}
