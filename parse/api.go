package parse

import (
	"context"
	"errors"

	"github.com/zsx/r3-sub004/internal/panicerr"
	"github.com/zsx/r3-sub004/value"
)

// New returns a Parser configured by opts.
func New(opts ...Option) *Parser {
	var p Parser
	defaultOptions.apply(&p)
	Options(opts...).apply(&p)
	return &p
}

// Parse matches input against rules from the input's position. It returns
// true if the rules matched all of the input, false otherwise, or the value
// captured by a return rule. A throw from a group that nothing caught is
// returned as a *value.Thrown error; a malformed rule program fails with an
// *Error; cancellation of ctx returns its error.
func (p *Parser) Parse(ctx context.Context, input, rules value.Value) (value.Value, error) {
	res, err := p.run(ctx, input, rules)
	if err != nil {
		return nil, err
	}
	switch {
	case res.ret != nil:
		return res.ret, nil
	case res.pos == notFound, res.pos < res.length:
		return value.Logic(false), nil
	}
	return value.Logic(true), nil
}

// Subparse is the recursive primitive of Parse: it returns the 0-based end
// position of the match as an Integer, or Blank if the rules did not match.
// A return rule's value is returned as is.
func (p *Parser) Subparse(ctx context.Context, input, rules value.Value) (value.Value, error) {
	res, err := p.run(ctx, input, rules)
	if err != nil {
		return nil, err
	}
	switch {
	case res.ret != nil:
		return res.ret, nil
	case res.pos == notFound:
		return value.Blank{}, nil
	}
	return value.Integer(res.pos), nil
}

// Parse runs one parse with a Parser configured by opts.
func Parse(ctx context.Context, input, rules value.Value, opts ...Option) (value.Value, error) {
	return New(opts...).Parse(ctx, input, rules)
}

type result struct {
	pos    int
	length int
	ret    value.Value
}

func (p *Parser) run(ctx context.Context, input, rules value.Value) (res result, err error) {
	block, err := ruleBlock(rules)
	if err != nil {
		return res, err
	}
	s, isSeries := input.(value.Series)
	if !isSeries || kindOf(s) == 0 {
		return res, &Error{Err: ErrParseSeries, Near: input}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	release := value.HoldDeep(block)
	defer release()

	err = panicerr.Recover("parse", func() error {
		p.ctx, p.ticks, p.frames = ctx, 0, nil
		defer func() { p.ctx = nil }()

		in := newCursor(s, p.caseSensitive, p.seriesLimit)
		pos, _, st := p.subparse(in, block)
		res.pos, res.length = pos, in.length()
		if st != nil {
			switch st.kind {
			case stopReturn:
				res.ret = st.value
				if res.ret == nil {
					res.ret = value.Blank{}
				}
			case stopThrow:
				return st.thrown
			}
		}
		return nil
	})

	var halt haltError
	if errors.As(err, &halt) {
		err = halt.error
	}
	if ferr := p.out.Flush(); err == nil {
		err = ferr
	}
	return res, err
}

func ruleBlock(rules value.Value) (value.Block, error) {
	switch r := rules.(type) {
	case value.Block:
		if r.K == value.KindBlock {
			return r, nil
		}
	case value.String, value.Blank:
		return value.Block{}, &Error{Err: ErrUseSplitSimple, Near: rules}
	}
	return value.Block{}, &Error{Err: ErrParseRule, Near: rules}
}
