package parse

import (
	"context"
	"fmt"
	"math"

	"github.com/zsx/r3-sub004/internal/flushio"
	"github.com/zsx/r3-sub004/value"
)

// Parser runs PARSE rule programs. A Parser runs one parse at a time; nested
// parses started by the host from within groups need their own Parser.
type Parser struct {
	logging
	host          Host
	caseSensitive bool
	seriesLimit   int
	out           flushio.WriteFlusher

	ctx    context.Context
	ticks  int
	frames []*frame
}

type flag uint16

const (
	flagSet flag = 1 << iota
	flagCopy
	flagNot
	flagNotInvert
	flagAhead
	flagThen
	flagRemove
	flagInsert
	flagChange
	flagReturn
	flagWhile
)

const maxCount = math.MaxInt

type stopKind uint8

const (
	stopAccept stopKind = iota + 1
	stopReject
	stopReturn
	stopThrow
)

// stop is a transfer of control out of the rule at hand; accept and reject
// end the nearest subparse, return and throws unwind to the entry.
type stop struct {
	kind   stopKind
	value  value.Value
	thrown *value.Thrown
}

// ruleState accumulates the modifiers read ahead of the rule they apply to.
type ruleState struct {
	flags    flag
	min, max int
	target   value.Word
	begin    int

	subject value.Value
	cmd     keyword
	operand value.Value
}

func (rs *ruleState) reset() { *rs = ruleState{min: 1, max: 1} }

func (rs *ruleState) pending() bool { return rs.flags != 0 || rs.min != 1 || rs.max != 1 }

type action uint8

const (
	// actNext continues to the next rule item.
	actNext action = iota
	// actAccept ends the current alternative successfully.
	actAccept
	// actMatch runs the iterated match of the subject.
	actMatch
	// actResult goes straight to post-match with a given position.
	actResult
)

// subparse runs rules against in from its current position. It returns the
// end position of the match or notFound, whether the rules were cut short by
// accept or reject, and any stop still unwinding to the entry.
func (p *Parser) subparse(in *cursor, rules value.Block) (int, bool, *stop) {
	rules.A.Hold()
	defer rules.A.Release()

	f := &frame{rules: rules, i: rules.Index, in: in, start: *in, depth: len(p.frames)}
	p.frames = append(p.frames, f)
	defer func() { p.frames = p.frames[:len(p.frames)-1] }()
	if p.logfn != nil {
		p.logf(">", "%v @%v", value.Mold(rules), in.pos)
		defer p.withLogPrefix("  ")()
	}

	var rs ruleState
	rs.reset()
	for !f.end() {
		p.poll()
		item := f.fetch()
		if p.logfn != nil {
			p.logf("?", "%v @%v", value.Mold(item), in.pos)
		}

		act, pos, st := p.preRule(f, &rs, item)
		if st == nil {
			switch act {
			case actNext:
				continue
			case actAccept:
				return in.pos, false, nil
			case actMatch:
				rs.begin = in.pos
				pos, st = p.iterate(f, &rs)
			case actResult:
				rs.begin = in.pos
			}
		}
		if st == nil {
			pos, st = p.postMatch(f, &rs, pos)
		}

		if st != nil {
			switch st.kind {
			case stopAccept:
				p.logf("+", "accept @%v", in.pos)
				return in.pos, true, nil
			case stopReject:
				p.logf("-", "reject")
				*in = f.start
				return notFound, true, nil
			}
			return notFound, false, st
		}

		rs.reset()
		if pos == notFound {
			if p.logfn != nil {
				p.logf("-", "%v", value.Mold(item))
			}
			*in = f.start
			if !f.skipToAlt() {
				return notFound, false, nil
			}
			continue
		}
		if p.logfn != nil {
			p.logf("+", "%v @%v", value.Mold(item), pos)
		}
		in.advance(pos - in.pos)
	}
	if rs.pending() {
		p.fail(ErrParseEnd, nil)
	}
	return in.pos, false, nil
}

// preRule handles one fetched rule item: it either updates rs and asks for
// the next item, or settles the subject of a match.
func (p *Parser) preRule(f *frame, rs *ruleState, item value.Value) (action, int, *stop) {
	in := f.in
	switch v := item.(type) {
	case value.Bar:
		if rs.pending() {
			p.fail(ErrParseRule, item)
		}
		return actAccept, 0, nil

	case value.Integer:
		return p.counter(f, rs, v, item)

	case value.Word:
		switch v.K {
		case value.KindWord:
			if kw := spelledKeyword(v); kw != kwNone {
				return p.keywordRule(f, rs, kw, item)
			}
			val := p.getWord(v, item)
			if n, isInt := val.(value.Integer); isInt {
				return p.counter(f, rs, n, item)
			}
			rs.subject = val
			return actMatch, 0, nil

		case value.KindSetWord:
			if spelledKeyword(v) != kwNone {
				p.fail(ErrParseCommand, item)
			}
			p.setVar(v.As(value.KindWord), in.here(), item)
			return actNext, 0, nil

		case value.KindGetWord:
			if spelledKeyword(v) != kwNone {
				p.fail(ErrParseCommand, item)
			}
			p.seek(in, p.getWord(v.As(value.KindWord), item), item)
			return actNext, 0, nil
		}

	case value.Block:
		switch v.K {
		case value.KindPath:
			val := p.getPath(v, item)
			if n, isInt := val.(value.Integer); isInt {
				return p.counter(f, rs, n, item)
			}
			rs.subject = val
			return actMatch, 0, nil

		case value.KindSetPath:
			p.setPath(v, in.here(), item)
			return actNext, 0, nil

		case value.KindGetPath:
			p.seek(in, p.getPath(v, item), item)
			return actNext, 0, nil

		case value.KindGroup:
			if !rs.pending() {
				if _, st := p.evalGroup(v); st != nil {
					return actNext, 0, st
				}
				in.clamp()
				return actNext, 0, nil
			}
		}
	}
	rs.subject = item
	return actMatch, 0, nil
}

// counter reads the subject following an integer repeat count, with an
// optional second integer giving the maximum.
func (p *Parser) counter(f *frame, rs *ruleState, n value.Integer, item value.Value) (action, int, *stop) {
	if n < 0 {
		p.fail(ErrParseRule, item)
	}
	rs.min, rs.max = int(n), int(n)
	next := f.fetch()
	if m, isInt := next.(value.Integer); isInt {
		if m < n {
			p.fail(ErrParseRule, next)
		}
		rs.max = int(m)
		next = f.fetch()
	}
	if next == nil {
		p.fail(ErrParseEnd, item)
	}

	switch v := next.(type) {
	case value.Bar:
		p.fail(ErrParseRule, next)
	case value.Word:
		switch v.K {
		case value.KindWord:
			if kw := spelledKeyword(v); kw != kwNone {
				if !kw.isMatch() {
					p.fail(ErrParseRule, next)
				}
				p.matchCommand(f, rs, kw, next)
				return actMatch, 0, nil
			}
			rs.subject = p.getWord(v, next)
			return actMatch, 0, nil
		case value.KindSetWord, value.KindGetWord:
			p.fail(ErrParseRule, next)
		}
	case value.Block:
		switch v.K {
		case value.KindPath:
			rs.subject = p.getPath(v, next)
			return actMatch, 0, nil
		case value.KindSetPath, value.KindGetPath:
			p.fail(ErrParseRule, next)
		}
	}
	rs.subject = next
	return actMatch, 0, nil
}

func (p *Parser) keywordRule(f *frame, rs *ruleState, kw keyword, item value.Value) (action, int, *stop) {
	in := f.in
	switch kw {
	case kwSome:
		rs.min, rs.max = 1, maxCount
	case kwAny:
		rs.min, rs.max = 0, maxCount
	case kwWhile:
		rs.min, rs.max = 0, maxCount
		rs.flags |= flagWhile
	case kwOpt:
		rs.min, rs.max = 0, 1

	case kwCopy, kwSet:
		next := f.fetch()
		if next == nil {
			p.fail(ErrParseEnd, item)
		}
		w, isWord := next.(value.Word)
		if !isWord || (w.K != value.KindWord && w.K != value.KindSetWord) {
			p.fail(ErrParseVariable, next)
		}
		if spelledKeyword(w) != kwNone {
			p.fail(ErrParseCommand, next)
		}
		rs.target = w.As(value.KindWord)
		if kw == kwCopy {
			rs.flags |= flagCopy
		} else {
			rs.flags |= flagSet
		}

	case kwNot:
		rs.flags |= flagNot
		rs.flags ^= flagNotInvert
	case kwAhead, kwAnd:
		rs.flags |= flagAhead
	case kwThen:
		rs.flags |= flagThen
	case kwRemove:
		rs.flags |= flagRemove
	case kwChange:
		rs.flags |= flagChange
	case kwInsert:
		rs.flags |= flagInsert
		return actResult, in.pos, nil

	case kwReturn:
		if g, isGroup := f.at().(value.Block); isGroup && g.K == value.KindGroup {
			f.fetch()
			v, st := p.evalGroup(g)
			if st != nil {
				return actNext, 0, st
			}
			return actNext, 0, &stop{kind: stopReturn, value: v}
		}
		if f.end() {
			p.fail(ErrParseEnd, item)
		}
		rs.flags |= flagReturn

	case kwAccept, kwBreak:
		return actNext, 0, &stop{kind: stopAccept}
	case kwReject:
		return actNext, 0, &stop{kind: stopReject}
	case kwFail:
		return actResult, notFound, nil

	case kwIf:
		g, isGroup := f.fetch().(value.Block)
		if !isGroup || g.K != value.KindGroup {
			p.fail(ErrParseRule, item)
		}
		v, st := p.evalGroup(g)
		if st != nil {
			return actNext, 0, st
		}
		in.clamp()
		if value.Truthy(v) {
			return actResult, in.pos, nil
		}
		return actResult, notFound, nil

	case kwLimit:
		p.fail(ErrNotDone, item)

	case kwDiag:
		p.diagnose(f)

	default:
		p.matchCommand(f, rs, kw, item)
		return actMatch, 0, nil
	}
	return actNext, 0, nil
}

// matchCommand reads and resolves the operand of a matching command.
func (p *Parser) matchCommand(f *frame, rs *ruleState, kw keyword, item value.Value) {
	rs.cmd = kw
	if kw == kwSkip || kw == kwEnd {
		return
	}
	op := f.fetch()
	if op == nil {
		p.fail(ErrParseEnd, item)
	}

	switch kw {
	case kwTo, kwThru:
		switch v := op.(type) {
		case value.Word:
			if v.K == value.KindWord {
				switch spelledKeyword(v) {
				case kwNone:
					op = p.getWord(v, op)
				case kwEnd:
				default:
					p.fail(ErrParseRule, op)
				}
			}
		case value.Block:
			switch v.K {
			case value.KindPath:
				op = p.getPath(v, op)
			case value.KindGroup:
				p.fail(ErrParseRule, op)
			}
		}

	case kwQuote:
		if g, isGroup := op.(value.Block); isGroup && g.K == value.KindGroup {
			v, st := p.evalGroup(g)
			if st != nil {
				p.fail(fmt.Errorf("%w: %w", ErrNoCatchForThrow, st.thrown), op)
			}
			op = v
		}

	case kwInto:
		switch v := op.(type) {
		case value.Word:
			if v.K == value.KindWord {
				op = p.getWord(v, op)
			}
		case value.Block:
			if v.K == value.KindPath {
				op = p.getPath(v, op)
			}
		}
		if b, isBlock := op.(value.Block); !isBlock || b.K != value.KindBlock {
			p.fail(ErrParseRule, item)
		}

	case kwDo:
		switch v := op.(type) {
		case value.Word:
			if v.K == value.KindWord && spelledKeyword(v) == kwNone {
				op = p.getWord(v, op)
			}
		case value.Block:
			if v.K == value.KindPath {
				op = p.getPath(v, op)
			}
		}
	}
	rs.operand = op
}

// iterate matches the subject between min and max times.
func (p *Parser) iterate(f *frame, rs *ruleState) (int, *stop) {
	in := f.in
	pos := in.pos
	for count := 0; count < rs.max; {
		p.poll()
		before := in.pos
		i, interrupted, st := p.matchOnce(f, rs)
		if st != nil {
			return notFound, st
		}
		if interrupted {
			pos = i
			break
		}
		if i == notFound {
			if count < rs.min {
				pos = notFound
			} else {
				pos = in.pos
			}
			break
		}
		count++
		if i == before && rs.flags&flagWhile == 0 {
			if count < rs.min {
				pos = notFound
			} else {
				pos = i
			}
			break
		}
		in.pos = i
		pos = i
	}
	if pos > in.length() {
		pos = notFound
	}
	return pos, nil
}

// matchOnce makes one attempt at the subject from the current position.
func (p *Parser) matchOnce(f *frame, rs *ruleState) (int, bool, *stop) {
	in := f.in
	switch rs.cmd {
	case kwSkip:
		if in.atEnd() {
			return notFound, false, nil
		}
		return in.pos + 1, false, nil
	case kwEnd:
		if in.atEnd() {
			return in.pos, false, nil
		}
		return notFound, false, nil
	case kwTo, kwThru:
		pos, st := p.toThru(f, rs.cmd == kwThru, rs.operand)
		return pos, false, st
	case kwQuote:
		if in.kind != inputArray {
			p.fail(ErrParseRule, rs.operand)
		}
		if peek := in.peek(in.pos); peek != nil && value.Equal(peek, rs.operand, in.caseSensitive) {
			return in.pos + 1, false, nil
		}
		return notFound, false, nil
	case kwInto:
		pos, st := p.into(f, rs.operand.(value.Block))
		return pos, false, st
	case kwDo:
		pos, st := p.doRule(f, rs.operand)
		return pos, false, st
	}

	if b, isBlock := rs.subject.(value.Block); isBlock {
		switch b.K {
		case value.KindBlock:
			return p.subparse(in, b)
		case value.KindGroup:
			if _, st := p.evalGroup(b); st != nil {
				return notFound, false, st
			}
			in.clamp()
			return in.pos, false, nil
		}
	}
	return p.matchAt(in, in.pos, rs.subject), false, nil
}

// postMatch applies the pending modifiers to the outcome of a match.
func (p *Parser) postMatch(f *frame, rs *ruleState, pos int) (int, *stop) {
	in := f.in
	begin := rs.begin

	if rs.flags&flagNot != 0 {
		if rs.flags&flagNotInvert != 0 {
			if pos == notFound {
				pos = begin
			} else {
				pos = notFound
			}
		} else if pos != notFound {
			pos = begin
		}
	}

	if pos == notFound {
		if rs.flags&flagThen != 0 {
			f.skipToAlt()
		}
		return notFound, nil
	}

	if rs.flags&flagCopy != 0 {
		p.setVar(rs.target, in.slice(begin, pos), rs.target)
	}
	if rs.flags&flagSet != 0 {
		p.setVar(rs.target, in.first(begin, pos), rs.target)
	}
	if rs.flags&flagReturn != 0 {
		return notFound, &stop{kind: stopReturn, value: in.slice(begin, pos)}
	}
	if rs.flags&flagRemove != 0 {
		if _, err := in.splice(begin, pos, nil, false); err != nil {
			p.fail(err, nil)
		}
		pos = begin
	}
	if rs.flags&(flagInsert|flagChange) != 0 {
		repl, only, st := p.spliceOperand(f)
		if st != nil {
			return notFound, st
		}
		end := begin
		if rs.flags&flagChange != 0 {
			end = pos
		}
		n, err := in.splice(begin, end, repl, only)
		if err != nil {
			p.fail(err, repl)
		}
		pos = begin + n
	}
	if rs.flags&flagAhead != 0 {
		pos = begin
	}
	return pos, nil
}

// spliceOperand reads the value given to insert or change.
func (p *Parser) spliceOperand(f *frame) (value.Value, bool, *stop) {
	v := f.fetch()
	only := isOnly(v)
	if only {
		v = f.fetch()
	}
	if v == nil {
		p.fail(ErrParseEnd, nil)
	}
	switch w := v.(type) {
	case value.Word:
		switch w.K {
		case value.KindWord:
			if spelledKeyword(w) != kwNone {
				p.fail(ErrParseRule, v)
			}
			v = p.getWord(w, v)
		case value.KindLitWord:
			v = w.As(value.KindWord)
		}
	case value.Block:
		switch w.K {
		case value.KindGroup:
			res, st := p.evalGroup(w)
			if st != nil {
				return nil, false, st
			}
			f.in.clamp()
			v = res
		case value.KindPath:
			v = p.getPath(w, v)
		case value.KindLitPath:
			v = w.As(value.KindPath)
		}
	}
	return v, only, nil
}

func (p *Parser) diagnose(f *frame) {
	next := "end"
	if v := f.at(); v != nil {
		next = value.Mold(v)
	}
	fmt.Fprintf(p.out, "rule: %v\n", next)
	fmt.Fprintf(p.out, "input: %v\n", value.Mold(f.in.here()))
	if err := p.out.Flush(); err != nil {
		p.fail(err, nil)
	}
}

func (p *Parser) poll() {
	if p.ticks%256 == 0 {
		if err := p.ctx.Err(); err != nil {
			panic(haltError{err})
		}
	}
	p.ticks++
}

func (p *Parser) fail(err error, near value.Value) {
	if p.logfn != nil {
		p.logf("!", "%v", &Error{Err: err, Near: near})
	}
	panic(haltError{&Error{Err: err, Near: near, Stack: p.Frames()}})
}

// hostError fails the parse on an error returned by the host, halting
// instead when the parse context is done.
func (p *Parser) hostError(err error, near value.Value) {
	if cerr := p.ctx.Err(); cerr != nil {
		panic(haltError{cerr})
	}
	p.fail(err, near)
}

func (p *Parser) getWord(w value.Word, near value.Value) value.Value {
	if v, ok := p.host.Get(w); ok && v != nil {
		return v
	}
	if v, ok := value.LookupType(w.Spelling); ok {
		return v
	}
	p.fail(ErrNoValue, near)
	return nil
}

func (p *Parser) setVar(w value.Word, v value.Value, near value.Value) {
	if err := p.host.Set(w, v); err != nil {
		p.hostError(err, near)
	}
}

func (p *Parser) getPath(path value.Block, near value.Value) value.Value {
	v, err := p.host.GetPath(p.ctx, path.As(value.KindPath))
	if err != nil {
		p.pathError(err, near)
	}
	return v
}

func (p *Parser) setPath(path value.Block, v value.Value, near value.Value) {
	if err := p.host.SetPath(p.ctx, path.As(value.KindPath), v); err != nil {
		p.pathError(err, near)
	}
}

func (p *Parser) pathError(err error, near value.Value) {
	if thrown, isThrown := err.(*value.Thrown); isThrown {
		p.fail(fmt.Errorf("%w: %w", ErrNoCatchForThrow, thrown), near)
	}
	p.hostError(err, near)
}

// evalGroup evaluates a group through the host; a throw from it unwinds the
// parse as a stop.
func (p *Parser) evalGroup(g value.Block) (value.Value, *stop) {
	v, err := p.host.Do(p.ctx, g)
	if err != nil {
		if st := p.thrownStop(err); st != nil {
			return nil, st
		}
		p.hostError(err, g)
	}
	return v, nil
}

// thrownStop returns the stop for a throw as returned by the host; throws
// wrapped inside other errors were already caught and reported.
func (p *Parser) thrownStop(err error) *stop {
	if thrown, isThrown := err.(*value.Thrown); isThrown {
		return &stop{kind: stopThrow, thrown: thrown}
	}
	return nil
}

func (p *Parser) seek(in *cursor, v value.Value, near value.Value) {
	s, isSeries := v.(value.Series)
	if !isSeries || !in.seek(s) {
		p.fail(ErrParseSeries, near)
	}
}
