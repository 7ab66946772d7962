package parse

import (
	"bytes"

	"github.com/zsx/r3-sub004/value"
)

// matchAt matches one atomic rule at pos, returning the end of the match or
// notFound.
func (p *Parser) matchAt(in *cursor, pos int, rule value.Value) int {
	if in.kind == inputArray {
		return p.matchArray(in, pos, rule)
	}
	return p.matchString(in, pos, rule)
}

func (p *Parser) matchString(in *cursor, pos int, rule value.Value) int {
	if pos > in.length() {
		return notFound
	}
	binary := in.kind == inputBinary
	switch r := rule.(type) {
	case value.Blank:
		return pos

	case value.Char:
		if pos >= in.length() {
			return notFound
		}
		if binary {
			if r > 0xff {
				p.fail(ErrParseRule, rule)
			}
			if in.bytes()[pos] == byte(r) {
				return pos + 1
			}
		} else if value.EqualRune(in.runes()[pos], rune(r), in.caseSensitive) {
			return pos + 1
		}
		return notFound

	case value.String:
		pat := value.Form(r)
		if binary {
			if bytes.HasPrefix(in.bytes()[pos:], []byte(pat)) {
				return pos + len(pat)
			}
			return notFound
		}
		rs := []rune(pat)
		if value.HasPrefixRunes(in.runes()[pos:], rs, in.caseSensitive) {
			return pos + len(rs)
		}
		return notFound

	case value.Binary:
		if binary {
			if bytes.HasPrefix(in.bytes()[pos:], r.Bytes()) {
				return pos + len(r.Bytes())
			}
			return notFound
		}
		rs := []rune(string(r.Bytes()))
		if value.HasPrefixRunes(in.runes()[pos:], rs, in.caseSensitive) {
			return pos + len(rs)
		}
		return notFound

	case value.Bitset:
		if pos >= in.length() {
			return notFound
		}
		var has bool
		switch {
		case binary:
			has = r.Has(rune(in.bytes()[pos]))
		case in.caseSensitive:
			has = r.Has(in.runes()[pos])
		default:
			has = r.HasFold(in.runes()[pos])
		}
		if has {
			return pos + 1
		}
		return notFound
	}
	p.fail(ErrParseRule, rule)
	return notFound
}

func (p *Parser) matchArray(in *cursor, pos int, rule value.Value) int {
	if _, isBlank := rule.(value.Blank); isBlank {
		return pos
	}
	peek := in.peek(pos)
	if peek == nil {
		return notFound
	}
	var ok bool
	switch r := rule.(type) {
	case value.Datatype:
		ok = peek.Kind() == r.T
	case value.Typeset:
		ok = r.Has(peek.Kind())
	case value.Word:
		if r.K == value.KindLitWord {
			ok = value.Equal(peek, r.As(value.KindWord), in.caseSensitive)
		} else {
			ok = value.Equal(peek, r, in.caseSensitive)
		}
	case value.Block:
		if r.K == value.KindLitPath {
			ok = value.Equal(peek, r.As(value.KindPath), in.caseSensitive)
		} else {
			ok = value.Equal(peek, r, in.caseSensitive)
		}
	default:
		ok = value.Equal(peek, rule, in.caseSensitive)
	}
	if ok {
		return pos + 1
	}
	return notFound
}

// toThru scans forward for target; to ends before the match, thru after it.
func (p *Parser) toThru(f *frame, thru bool, target value.Value) (int, *stop) {
	in := f.in
	pos := in.pos
	switch t := target.(type) {
	case value.Blank:
		return pos, nil
	case value.Integer:
		n := int(t)
		if !thru {
			n--
		}
		if n > in.length() {
			n = in.length()
		}
		if n < pos {
			return notFound, nil
		}
		return n, nil
	case value.Word:
		if keywordOf(t) == kwEnd {
			return in.length(), nil
		}
	case value.Block:
		if t.K == value.KindBlock {
			return p.toThruBlock(f, thru, t)
		}
	}

	at, end := notFound, notFound
	switch in.kind {
	case inputString:
		switch t := target.(type) {
		case value.String:
			at, end = in.findRunes(pos, []rune(value.Form(t)))
		case value.Char:
			at, end = in.findRunes(pos, []rune{rune(t)})
		case value.Binary:
			at, end = in.findRunes(pos, []rune(string(t.Bytes())))
		default:
			at, end = in.find(pos, func(at int) int { return p.matchString(in, at, target) })
		}
	case inputBinary:
		switch t := target.(type) {
		case value.String:
			at, end = in.findBytes(pos, []byte(value.Form(t)))
		case value.Binary:
			at, end = in.findBytes(pos, t.Bytes())
		case value.Char:
			if t > 0xff {
				p.fail(ErrParseRule, target)
			}
			at, end = in.findBytes(pos, []byte{byte(t)})
		default:
			at, end = in.find(pos, func(at int) int { return p.matchString(in, at, target) })
		}
	default:
		at, end = in.find(pos, func(at int) int { return p.matchArray(in, at, target) })
	}
	if at == notFound {
		return notFound, nil
	}
	if thru {
		return end, nil
	}
	return at, nil
}

// quoted is an alternative of a to or thru block given by quote.
type quoted struct{ value.Value }

// toThruBlock scans for the first position at which any of the block's
// alternatives matches.
func (p *Parser) toThruBlock(f *frame, thru bool, block value.Block) (int, *stop) {
	in := f.in
	items := block.Values()
	alts := make([]value.Value, 0, len(items))
	for i := 0; i < len(items); i++ {
		item := items[i]
		switch v := item.(type) {
		case value.Bar:
			continue
		case value.Word:
			if v.K != value.KindWord {
				break
			}
			switch spelledKeyword(v) {
			case kwNone:
				item = p.getWord(v, item)
			case kwEnd:
			case kwQuote:
				if i++; i >= len(items) {
					p.fail(ErrParseEnd, item)
				}
				lit := items[i]
				if g, isGroup := lit.(value.Block); isGroup && g.K == value.KindGroup {
					res, st := p.evalGroup(g)
					if st != nil {
						return notFound, st
					}
					lit = res
				}
				item = quoted{lit}
			default:
				p.fail(ErrParseRule, item)
			}
		case value.Block:
			switch v.K {
			case value.KindPath:
				item = p.getPath(v, item)
			case value.KindGroup:
				p.fail(ErrParseRule, item)
			}
		}
		alts = append(alts, item)
	}

	for k := in.pos; k <= in.length(); k++ {
		p.poll()
		for _, alt := range alts {
			// A block alternative may have shrunk the input.
			n := in.length()
			if k > n {
				break
			}
			m := notFound
			switch a := alt.(type) {
			case quoted:
				if in.kind != inputArray {
					p.fail(ErrParseRule, a.Value)
				}
				if peek := in.peek(k); peek != nil && value.Equal(peek, a.Value, in.caseSensitive) {
					m = k + 1
				}
			case value.Word:
				if keywordOf(a) == kwEnd {
					if k == n {
						m = k
					}
				} else {
					m = p.matchAt(in, k, a)
				}
			case value.Integer:
				switch in.kind {
				case inputString:
					if k < n && in.runes()[k] == rune(a) {
						m = k + 1
					}
				case inputBinary:
					if k < n && int64(in.bytes()[k]) == int64(a) {
						m = k + 1
					}
				default:
					m = p.matchArray(in, k, a)
				}
			case value.Block:
				if a.K != value.KindBlock {
					m = p.matchAt(in, k, a)
					break
				}
				save := *in
				in.pos = k
				end, _, st := p.subparse(in, a)
				*in = save
				if st != nil {
					return notFound, st
				}
				m = end
			default:
				m = p.matchAt(in, k, a)
			}
			if m != notFound {
				if thru {
					return m, nil
				}
				return k, nil
			}
		}
	}
	return notFound, nil
}

// into matches a nested series at the cursor, which rules must consume
// entirely.
func (p *Parser) into(f *frame, rules value.Block) (int, *stop) {
	in := f.in
	if in.kind != inputArray {
		return notFound, nil
	}
	s, isSeries := in.peek(in.pos).(value.Series)
	if !isSeries || kindOf(s) == 0 {
		return notFound, nil
	}
	sub := newCursor(s, p.caseSensitive, in.limit)
	m, _, st := p.subparse(sub, rules)
	if st != nil {
		return notFound, st
	}
	if m != notFound && m >= sub.length() {
		return in.pos + 1, nil
	}
	return notFound, nil
}

// doRule evaluates one expression of the input and matches its result,
// wrapped in a one-element block, against rule.
func (p *Parser) doRule(f *frame, rule value.Value) (int, *stop) {
	in := f.in
	if in.kind != inputArray {
		p.fail(ErrParseRule, rule)
	}
	if in.atEnd() {
		return notFound, nil
	}
	v, next, err := p.host.DoNext(p.ctx, in.here().(value.Block))
	if err != nil {
		if st := p.thrownStop(err); st != nil {
			return notFound, st
		}
		p.hostError(err, rule)
	}
	if next <= in.pos {
		return notFound, nil
	}
	if v == nil {
		v = value.Blank{}
	}

	rules, isBlock := rule.(value.Block)
	if !isBlock || rules.K != value.KindBlock {
		rules = value.NewBlock(rule)
	}
	sub := newCursor(value.NewBlock(v), p.caseSensitive, in.limit)
	m, _, st := p.subparse(sub, rules)
	if st != nil {
		return notFound, st
	}
	if m != notFound && m >= sub.length() {
		return next, nil
	}
	return notFound, nil
}
