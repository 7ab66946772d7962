package eval

import (
	"context"

	"github.com/zsx/r3-sub004/value"
)

type evaluator struct {
	*Interp
	ctx context.Context
}

func (ev *evaluator) poll() {
	if err := ev.ctx.Err(); err != nil {
		fail(err)
	}
}

// block evaluates every expression of b from its position, returning the
// last value; an empty block evaluates to blank.
func (ev *evaluator) block(b value.Block) value.Value {
	var res value.Value = value.Blank{}
	vals := b.A.V
	for i := b.Index; i < len(vals); {
		res, i = ev.expr(vals, i)
	}
	return res
}

// expr evaluates one expression at vals[i], including any infix operators
// following it, returning its value and the index after it.
func (ev *evaluator) expr(vals []value.Value, i int) (value.Value, int) {
	ev.poll()
	v, i := ev.term(vals, i)
	for i < len(vals) {
		op := ev.infixAt(vals[i])
		if op == nil {
			break
		}
		if i+1 >= len(vals) {
			failf(ErrNoArg, "%v needs a right argument", op.Name)
		}
		var right value.Value
		right, i = ev.term(vals, i+1)
		v = op.fn(ev, []value.Value{v, right}, nil)
	}
	return v, i
}

func (ev *evaluator) infixAt(v value.Value) *Action {
	w, isWord := v.(value.Word)
	if !isWord || w.K != value.KindWord {
		return nil
	}
	if act, isAction := ev.vars[w.Sym].(*Action); isAction && act.Infix {
		return act
	}
	return nil
}

// term evaluates one value without looking for infix operators after it.
func (ev *evaluator) term(vals []value.Value, i int) (value.Value, int) {
	item := vals[i]
	i++
	switch v := item.(type) {
	case value.Word:
		switch v.K {
		case value.KindWord:
			val := ev.get(v)
			if act, isAction := val.(*Action); isAction {
				if act.Infix {
					failf(ErrNoArg, "%v needs a left argument", act.Name)
				}
				return ev.call(act, nil, vals, i)
			}
			return val, i
		case value.KindSetWord:
			if i >= len(vals) {
				failf(ErrNoArg, "%v needs a value", value.Mold(v))
			}
			val, i := ev.expr(vals, i)
			ev.vars[v.Sym] = val
			return val, i
		case value.KindGetWord:
			return ev.get(v), i
		case value.KindLitWord:
			return v.As(value.KindWord), i
		}

	case value.Block:
		switch v.K {
		case value.KindGroup:
			return ev.block(v), i
		case value.KindPath:
			return ev.pathTerm(v, vals, i)
		case value.KindSetPath:
			if i >= len(vals) {
				failf(ErrNoArg, "%v needs a value", value.Mold(v))
			}
			val, i := ev.expr(vals, i)
			ev.setPath(v, val)
			return val, i
		case value.KindGetPath:
			return ev.getPath(v), i
		case value.KindLitPath:
			return v.As(value.KindPath), i
		}
	}
	return item, i
}

func (ev *evaluator) get(w value.Word) value.Value {
	v, ok := ev.Get(w)
	if !ok {
		failf(ErrNoValue, "%v", w.Spelling)
	}
	return v
}

// pathTerm evaluates a path, calling an action at its head with the rest of
// the path as refinements.
func (ev *evaluator) pathTerm(path value.Block, vals []value.Value, i int) (value.Value, int) {
	segs := path.Values()
	if w, isWord := segs[0].(value.Word); isWord && w.K == value.KindWord {
		if act, isAction := ev.get(w).(*Action); isAction {
			refs := make([]string, 0, len(segs)-1)
			for _, seg := range segs[1:] {
				rw, isWord := seg.(value.Word)
				if !isWord {
					failf(ErrBadPath, "refinement %v of %v", value.Mold(seg), act.Name)
				}
				refs = append(refs, value.Canon(rw.Spelling))
			}
			return ev.call(act, refs, vals, i)
		}
	}
	return ev.getPath(path), i
}

// call gathers the arguments of act, then those of each refinement in refs,
// from vals[i:].
func (ev *evaluator) call(act *Action, refs []string, vals []value.Value, i int) (value.Value, int) {
	args := make([]value.Value, act.Arity)
	for n := range args {
		if i >= len(vals) {
			failf(ErrNoArg, "%v is missing its %v argument", act.Name, ordinal(n+1))
		}
		args[n], i = ev.expr(vals, i)
	}
	var refArgs map[string][]value.Value
	for _, ref := range refs {
		arity, ok := act.Refinements[ref]
		if !ok {
			failf(ErrBadPath, "%v has no refinement /%v", act.Name, ref)
		}
		if refArgs == nil {
			refArgs = make(map[string][]value.Value, len(refs))
		}
		rargs := make([]value.Value, arity)
		for n := range rargs {
			if i >= len(vals) {
				failf(ErrNoArg, "%v/%v is missing an argument", act.Name, ref)
			}
			rargs[n], i = ev.expr(vals, i)
		}
		refArgs[ref] = rargs
	}
	return act.fn(ev, args, refArgs), i
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	}
	return "next"
}

func (ev *evaluator) segment(seg value.Value) value.Value {
	switch v := seg.(type) {
	case value.Block:
		if v.K == value.KindGroup {
			return ev.block(v)
		}
	case value.Word:
		if v.K == value.KindGetWord {
			return ev.get(v)
		}
	}
	return seg
}

func (ev *evaluator) getPath(path value.Block) value.Value {
	segs := path.Values()
	if len(segs) == 0 {
		failf(ErrBadPath, "empty path")
	}
	var cur value.Value
	if w, isWord := segs[0].(value.Word); isWord && w.K == value.KindWord {
		cur = ev.get(w)
	} else {
		cur = ev.segment(segs[0])
	}
	for _, seg := range segs[1:] {
		cur = pick(cur, ev.segment(seg), path)
	}
	return cur
}

func (ev *evaluator) setPath(path value.Block, v value.Value) {
	segs := path.Values()
	if len(segs) < 2 {
		failf(ErrBadPath, "%v", value.Mold(path))
	}
	head := path
	head.A = &value.Array{V: segs[:len(segs)-1]}
	head.Index = 0
	poke(ev.getPath(head), ev.segment(segs[len(segs)-1]), v, path)
}

// pick selects from cur by key: an integer picks by 1-based position, a
// word selects the value following that word in a block.
func pick(cur, key value.Value, path value.Block) value.Value {
	switch k := key.(type) {
	case value.Integer:
		s, isSeries := cur.(value.Series)
		if !isSeries {
			break
		}
		at := s.Pos() + int(k) - 1
		if at < 0 || at >= s.Length() {
			return value.Blank{}
		}
		return elementAt(s, at)
	case value.Word:
		b, isBlock := cur.(value.Block)
		if !isBlock {
			break
		}
		if at := selectIndex(b, k); at >= 0 && at < len(b.A.V) {
			return b.A.V[at]
		}
		failf(ErrBadPath, "%v has no %v", value.Mold(path), k.Spelling)
	}
	failf(ErrBadPath, "cannot pick %v in %v", value.Mold(key), value.Mold(path))
	return nil
}

func poke(cur, key, v value.Value, path value.Block) {
	var err error
	switch k := key.(type) {
	case value.Integer:
		switch s := cur.(type) {
		case value.Block:
			at := s.Index + int(k) - 1
			if at < 0 || at >= len(s.A.V) {
				failf(ErrBadPath, "%v is out of range", value.Mold(path))
			}
			err = s.A.Splice(at, at+1, []value.Value{v})
		case value.String:
			c, isChar := v.(value.Char)
			at := s.Index + int(k) - 1
			if !isChar || at < 0 || at >= len(s.S.R) {
				failf(ErrBadPath, "cannot poke %v into %v", value.Mold(v), value.Mold(path))
			}
			err = s.S.Splice(at, at+1, []rune{rune(c)})
		default:
			failf(ErrBadPath, "cannot poke into %v", value.Mold(path))
		}
	case value.Word:
		b, isBlock := cur.(value.Block)
		if !isBlock {
			failf(ErrBadPath, "cannot poke into %v", value.Mold(path))
		}
		if at := selectIndex(b, k); at >= 0 && at < len(b.A.V) {
			err = b.A.Splice(at, at+1, []value.Value{v})
		} else {
			err = b.A.Splice(len(b.A.V), len(b.A.V), []value.Value{k.As(value.KindSetWord), v})
		}
	default:
		failf(ErrBadPath, "cannot poke %v in %v", value.Mold(key), value.Mold(path))
	}
	if err != nil {
		fail(err)
	}
}

// selectIndex returns the index just past the first any-word in b spelled
// like w, or -1.
func selectIndex(b value.Block, w value.Word) int {
	for i := b.Index; i < len(b.A.V); i++ {
		if bw, isWord := b.A.V[i].(value.Word); isWord && bw.Sym == w.Sym {
			return i + 1
		}
	}
	return -1
}

func elementAt(s value.Series, at int) value.Value {
	switch s := s.(type) {
	case value.String:
		return value.Char(s.S.R[at])
	case value.Binary:
		return value.Integer(s.B.B[at])
	case value.Block:
		return s.A.V[at]
	}
	return value.Blank{}
}
