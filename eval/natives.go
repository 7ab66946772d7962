package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zsx/r3-sub004/value"
)

// Action is a native function value.
type Action struct {
	Name  string
	Arity int
	// Refinements maps each refinement to how many arguments it takes.
	Refinements map[string]int
	Infix       bool

	fn func(ev *evaluator, args []value.Value, refs map[string][]value.Value) value.Value
}

// Kind returns KindAction.
func (*Action) Kind() value.Kind { return value.KindAction }

// Mold returns the action's display form.
func (act *Action) Mold() string { return fmt.Sprintf("#[action! %v]", act.Name) }

func (in *Interp) native(name string, arity int, refs map[string]int,
	fn func(ev *evaluator, args []value.Value, refs map[string][]value.Value) value.Value,
) {
	in.vars[value.Intern(name)] = &Action{Name: name, Arity: arity, Refinements: refs, fn: fn}
}

func (in *Interp) infix(name string, fn func(a, b value.Value) value.Value) {
	in.vars[value.Intern(name)] = &Action{Name: name, Arity: 2, Infix: true,
		fn: func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
			return fn(args[0], args[1])
		}}
}

var symQuit = value.NewWord(value.KindWord, "quit")

func (in *Interp) define() {
	in.vars[value.Intern("true")] = value.Logic(true)
	in.vars[value.Intern("false")] = value.Logic(false)
	in.vars[value.Intern("blank")] = value.Blank{}
	in.vars[value.Intern("space")] = value.Char(' ')
	in.vars[value.Intern("tab")] = value.Char('\t')
	in.vars[value.Intern("newline")] = value.Char('\n')

	in.infix("+", arith(func(a, b int64) int64 { return a + b }))
	in.infix("-", arith(func(a, b int64) int64 { return a - b }))
	in.infix("*", arith(func(a, b int64) int64 { return a * b }))
	in.infix("/", arith(func(a, b int64) int64 {
		if b == 0 {
			failf(ErrMath, "attempt to divide by zero")
		}
		return a / b
	}))
	in.infix("=", func(a, b value.Value) value.Value { return value.Logic(value.Equal(a, b, false)) })
	in.infix("==", func(a, b value.Value) value.Value { return value.Logic(value.Equal(a, b, true)) })
	in.infix("<>", func(a, b value.Value) value.Value { return value.Logic(!value.Equal(a, b, false)) })
	in.infix("<", compare(func(c int) bool { return c < 0 }))
	in.infix(">", compare(func(c int) bool { return c > 0 }))
	in.infix("<=", compare(func(c int) bool { return c <= 0 }))
	in.infix(">=", compare(func(c int) bool { return c >= 0 }))

	in.native("print", 1, nil, func(ev *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		v := args[0]
		if b, isBlock := v.(value.Block); isBlock && b.K == value.KindBlock {
			v = ev.reduce(b)
		}
		ev.write(value.Form(v) + "\n")
		return value.Blank{}
	})
	in.native("probe", 1, nil, func(ev *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		ev.write(value.Mold(args[0]) + "\n")
		return args[0]
	})
	in.native("form", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return value.NewString(value.Form(args[0]))
	})
	in.native("mold", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return value.NewString(value.Mold(args[0]))
	})
	in.native("not", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return value.Logic(!value.Truthy(args[0]))
	})

	in.native("parse", 2, map[string]int{"case": 0}, func(ev *evaluator, args []value.Value, refs map[string][]value.Value) value.Value {
		_, caseSensitive := refs["case"]
		res, err := ev.parser(caseSensitive).Parse(ev.ctx, args[0], args[1])
		if err != nil {
			fail(err)
		}
		return res
	})

	in.native("throw", 1, map[string]int{"name": 1}, func(_ *evaluator, args []value.Value, refs map[string][]value.Value) value.Value {
		thrown := &value.Thrown{Value: args[0]}
		if name, ok := refs["name"]; ok {
			thrown.Name = name[0]
		}
		fail(thrown)
		return nil
	})
	in.native("catch", 1, map[string]int{"name": 1}, catch)
	in.native("quit", 0, map[string]int{"with": 1}, func(_ *evaluator, _ []value.Value, refs map[string][]value.Value) value.Value {
		thrown := &value.Thrown{Value: value.Blank{}, Name: symQuit}
		if with, ok := refs["with"]; ok {
			thrown.Value = with[0]
		}
		fail(thrown)
		return nil
	})

	in.native("if", 2, nil, func(ev *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		if value.Truthy(args[0]) {
			return ev.branch(args[1])
		}
		return value.Blank{}
	})
	in.native("either", 3, nil, func(ev *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		if value.Truthy(args[0]) {
			return ev.branch(args[1])
		}
		return ev.branch(args[2])
	})
	in.native("do", 1, nil, func(ev *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return ev.branch(args[0])
	})
	in.native("reduce", 1, nil, func(ev *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		b, isBlock := args[0].(value.Block)
		if !isBlock {
			return args[0]
		}
		return ev.reduce(b)
	})

	in.native("append", 2, map[string]int{"only": 0}, appendNative)
	in.native("copy", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		if s, isSeries := args[0].(value.Series); isSeries {
			return value.Copy(s)
		}
		return args[0]
	})
	in.native("first", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		s := series(args[0], "first")
		if s.Pos() >= s.Length() {
			failf(ErrBadArg, "first of empty series")
		}
		return elementAt(s, s.Pos())
	})
	lengthOf := func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		s := series(args[0], "length-of")
		if n := s.Length() - s.Pos(); n > 0 {
			return value.Integer(n)
		}
		return value.Integer(0)
	}
	in.native("length-of", 1, nil, lengthOf)
	in.native("length?", 1, nil, lengthOf)
	in.native("index-of", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return value.Integer(series(args[0], "index-of").Pos() + 1)
	})
	in.native("next", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		s := series(args[0], "next")
		return s.At(clampIndex(s.Pos()+1, s.Length()))
	})
	in.native("back", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		s := series(args[0], "back")
		return s.At(clampIndex(s.Pos()-1, s.Length()))
	})
	in.native("head", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return series(args[0], "head").At(0)
	})
	in.native("tail", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		s := series(args[0], "tail")
		return s.At(s.Length())
	})

	in.native("charset", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		return charset(args[0])
	})
	in.native("complement", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		switch v := args[0].(type) {
		case value.Bitset:
			return v.Complement()
		case value.Logic:
			return !v
		case value.Integer:
			return ^v
		}
		failf(ErrBadArg, "complement of %v", value.Mold(args[0]))
		return nil
	})
	in.native("type-of", 1, nil, func(_ *evaluator, args []value.Value, _ map[string][]value.Value) value.Value {
		if args[0] == nil {
			return value.Blank{}
		}
		return value.Datatype{T: args[0].Kind()}
	})
}

func (ev *evaluator) write(s string) {
	if _, err := ev.out.Write([]byte(s)); err != nil {
		fail(err)
	}
	if err := ev.out.Flush(); err != nil {
		fail(err)
	}
}

// branch evaluates a block argument, passing any other value through.
func (ev *evaluator) branch(v value.Value) value.Value {
	if b, isBlock := v.(value.Block); isBlock && (b.K == value.KindBlock || b.K == value.KindGroup) {
		return ev.block(b)
	}
	return v
}

func (ev *evaluator) reduce(b value.Block) value.Block {
	var out []value.Value
	vals := b.A.V
	for i := b.Index; i < len(vals); {
		var v value.Value
		v, i = ev.expr(vals, i)
		out = append(out, v)
	}
	return value.NewBlock(out...)
}

func catch(ev *evaluator, args []value.Value, refs map[string][]value.Value) value.Value {
	var res value.Value
	err := ev.guard(ev.ctx, func(sub *evaluator) { res = sub.branch(args[0]) })
	if err == nil {
		return res
	}
	if thrown, isThrown := err.(*value.Thrown); isThrown {
		name, named := refs["name"]
		switch {
		case named && thrown.Name != nil && value.Equal(thrown.Name, name[0], false):
			return thrown.Value
		case !named && thrown.Name == nil:
			return thrown.Value
		}
	}
	fail(err)
	return nil
}

func appendNative(_ *evaluator, args []value.Value, refs map[string][]value.Value) value.Value {
	_, only := refs["only"]
	var err error
	switch s := args[0].(type) {
	case value.Block:
		vals := []value.Value{args[1]}
		if b, isBlock := args[1].(value.Block); isBlock && b.K == value.KindBlock && !only {
			vals = b.Values()
		}
		err = s.A.Splice(len(s.A.V), len(s.A.V), vals)
	case value.String:
		err = s.S.Splice(len(s.S.R), len(s.S.R), []rune(value.Form(args[1])))
	case value.Binary:
		var bs []byte
		switch v := args[1].(type) {
		case value.Binary:
			bs = v.Bytes()
		case value.Integer:
			bs = []byte{byte(v)}
		default:
			bs = []byte(value.Form(v))
		}
		err = s.B.Splice(len(s.B.B), len(s.B.B), bs)
	default:
		failf(ErrBadArg, "append to %v", value.Mold(args[0]))
	}
	if err != nil {
		fail(err)
	}
	return args[0]
}

func series(v value.Value, name string) value.Series {
	s, isSeries := v.(value.Series)
	if !isSeries {
		failf(ErrBadArg, "%v expects a series, not %v", name, v.Kind())
	}
	return s
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// charset builds a bitset from a char, integer, string or a block of those,
// where a block may give ranges as #"a" - #"z".
func charset(spec value.Value) value.Bitset {
	bs := value.NewBitset()
	var add func(v value.Value)
	add = func(v value.Value) {
		switch v := v.(type) {
		case value.Char:
			bs.Set(rune(v))
		case value.Integer:
			bs.Set(rune(v))
		case value.String:
			bs.SetString(v.Text())
		case value.Binary:
			for _, b := range v.Bytes() {
				bs.Set(rune(b))
			}
		case value.Block:
			vals := v.Values()
			for i := 0; i < len(vals); i++ {
				if i+2 < len(vals) && isRangeDash(vals[i+1]) {
					lo, hi := codePoint(vals[i]), codePoint(vals[i+2])
					if lo > hi {
						failf(ErrBadArg, "charset range %v - %v", value.Mold(vals[i]), value.Mold(vals[i+2]))
					}
					bs.SetRange(lo, hi)
					i += 2
					continue
				}
				add(vals[i])
			}
		default:
			failf(ErrBadArg, "charset of %v", value.Mold(v))
		}
	}
	add(spec)
	return bs
}

func isRangeDash(v value.Value) bool {
	w, isWord := v.(value.Word)
	return isWord && w.K == value.KindWord && w.Spelling == "-"
}

func codePoint(v value.Value) rune {
	switch v := v.(type) {
	case value.Char:
		return rune(v)
	case value.Integer:
		return rune(v)
	}
	failf(ErrBadArg, "charset range bound %v", value.Mold(v))
	return 0
}

func arith(op func(a, b int64) int64) func(a, b value.Value) value.Value {
	return func(a, b value.Value) value.Value {
		switch a := a.(type) {
		case value.Integer:
			if b, isInt := b.(value.Integer); isInt {
				return value.Integer(op(int64(a), int64(b)))
			}
		case value.Char:
			if b, isInt := b.(value.Integer); isInt {
				return value.Char(op(int64(a), int64(b)))
			}
		}
		failf(ErrBadArg, "math on %v and %v", value.Mold(a), value.Mold(b))
		return nil
	}
}

func compare(test func(c int) bool) func(a, b value.Value) value.Value {
	return func(a, b value.Value) value.Value {
		c, ok := 0, false
		switch a := a.(type) {
		case value.Integer:
			if b, isInt := b.(value.Integer); isInt {
				c, ok = cmp64(int64(a), int64(b)), true
			}
		case value.Char:
			if b, isChar := b.(value.Char); isChar {
				c, ok = cmp64(int64(a), int64(b)), true
			}
		case value.String:
			if b, isString := b.(value.String); isString {
				c, ok = strings.Compare(a.Text(), b.Text()), true
			}
		}
		if !ok {
			failf(ErrBadArg, "cannot compare %v with %v", value.Mold(a), value.Mold(b))
		}
		return value.Logic(test(c))
	}
}

func cmp64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsQuit reports whether err is the throw raised by quit, returning its
// value.
func IsQuit(err error) (value.Value, bool) {
	var thrown *value.Thrown
	if errors.As(err, &thrown) && thrown.Name != nil && value.Equal(thrown.Name, symQuit, false) {
		return thrown.Value, true
	}
	return nil, false
}
